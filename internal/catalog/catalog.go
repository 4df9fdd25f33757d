// Package catalog holds the salon's reference lists: stylists, the service
// menu and the branch registry.
package catalog

import (
	"context"
	"encoding/json"
	"slices"
	"strings"
	"sync"

	"github.com/salonledger/salonledger/internal/platform/httpx"
)

// Document names.
const (
	DocStylists = "stylists"
	DocServices = "services"
	DocBranches = "sedes"
)

// DefaultBranch seeds the registry when no branch was ever saved.
const DefaultBranch = "Principal"

// ServiceItem is an entry of the service menu.
type ServiceItem struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Service manages the catalog documents. Read-modify-write cycles are
// serialized in process.
type Service struct {
	store Store
	mu    sync.Mutex
}

// NewService constructs the catalog service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Stylists returns the stylist roster.
func (s *Service) Stylists(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadStrings(ctx, DocStylists)
}

// AddStylist appends a stylist; duplicates are rejected.
func (s *Service) AddStylist(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return httpx.Errorf(httpx.ErrValidation, "Nombre inválido")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	list, err := s.loadStrings(ctx, DocStylists)
	if err != nil {
		return err
	}
	if slices.Contains(list, name) {
		return httpx.Errorf(httpx.ErrDuplicate, "El estilista ya existe")
	}
	return s.store.Save(ctx, DocStylists, append(list, name))
}

// DeleteStylist removes a stylist.
func (s *Service) DeleteStylist(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, err := s.loadStrings(ctx, DocStylists)
	if err != nil {
		return err
	}
	next, ok := remove(list, name)
	if !ok {
		return httpx.Errorf(httpx.ErrNotFound, "Estilista no encontrado")
	}
	return s.store.Save(ctx, DocStylists, next)
}

// ServiceItems returns the service menu. A legacy list of plain names is
// migrated to items with value 0 and saved back.
func (s *Service) ServiceItems(ctx context.Context) ([]ServiceItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadServiceItems(ctx)
}

// AddServiceItem appends a service to the menu; names are unique.
func (s *Service) AddServiceItem(ctx context.Context, item ServiceItem) error {
	item.Name = strings.TrimSpace(item.Name)
	if item.Name == "" {
		return httpx.Errorf(httpx.ErrValidation, "Nombre inválido")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.loadServiceItems(ctx)
	if err != nil {
		return err
	}
	for _, existing := range items {
		if existing.Name == item.Name {
			return httpx.Errorf(httpx.ErrDuplicate, "El servicio ya existe")
		}
	}
	return s.store.Save(ctx, DocServices, append(items, item))
}

// DeleteServiceItem removes a service from the menu by name.
func (s *Service) DeleteServiceItem(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.loadServiceItems(ctx)
	if err != nil {
		return err
	}
	next := items[:0:0]
	for _, item := range items {
		if item.Name != name {
			next = append(next, item)
		}
	}
	if len(next) == len(items) {
		return httpx.Errorf(httpx.ErrNotFound, "Servicio no encontrado")
	}
	return s.store.Save(ctx, DocServices, next)
}

// Branches returns the branch registry, seeding the default when empty.
func (s *Service) Branches(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadBranches(ctx)
}

// AddBranch registers a branch.
func (s *Service) AddBranch(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return httpx.Errorf(httpx.ErrValidation, "Nombre inválido")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	list, err := s.loadBranches(ctx)
	if err != nil {
		return err
	}
	if slices.Contains(list, name) {
		return httpx.Errorf(httpx.ErrDuplicate, "La sede ya existe")
	}
	return s.store.Save(ctx, DocBranches, append(list, name))
}

// DeleteBranch removes a branch; the last one cannot be removed.
func (s *Service) DeleteBranch(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, err := s.loadBranches(ctx)
	if err != nil {
		return err
	}
	if len(list) <= 1 {
		return httpx.Errorf(httpx.ErrValidation, "No se puede eliminar la última sede")
	}
	next, ok := remove(list, name)
	if !ok {
		return httpx.Errorf(httpx.ErrNotFound, "Sede no encontrada")
	}
	return s.store.Save(ctx, DocBranches, next)
}

// Resolve maps a requested branch onto the registry: blank means the first
// registered branch and unknown names are rejected.
func (s *Service) Resolve(ctx context.Context, branch string) (string, error) {
	branches, err := s.Branches(ctx)
	if err != nil {
		return "", err
	}
	branch = strings.TrimSpace(branch)
	if branch == "" {
		return branches[0], nil
	}
	if !slices.Contains(branches, branch) {
		return "", httpx.Errorf(httpx.ErrValidation, "Sede desconocida: %s", branch)
	}
	return branch, nil
}

func (s *Service) loadStrings(ctx context.Context, name string) ([]string, error) {
	var list []string
	if _, err := s.store.Load(ctx, name, &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = []string{}
	}
	return list, nil
}

func (s *Service) loadBranches(ctx context.Context) ([]string, error) {
	list, err := s.loadStrings(ctx, DocBranches)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		list = []string{DefaultBranch}
		if err := s.store.Save(ctx, DocBranches, list); err != nil {
			return nil, err
		}
	}
	return list, nil
}

func (s *Service) loadServiceItems(ctx context.Context) ([]ServiceItem, error) {
	var raw []json.RawMessage
	found, err := s.store.Load(ctx, DocServices, &raw)
	if err != nil {
		return nil, err
	}
	if !found || len(raw) == 0 {
		return []ServiceItem{}, nil
	}
	var legacy string
	if json.Unmarshal(raw[0], &legacy) == nil {
		items := make([]ServiceItem, 0, len(raw))
		for _, r := range raw {
			var name string
			if err := json.Unmarshal(r, &name); err != nil {
				return nil, httpx.Errorf(httpx.ErrValidation, "Catálogo de servicios inválido")
			}
			items = append(items, ServiceItem{Name: name})
		}
		if err := s.store.Save(ctx, DocServices, items); err != nil {
			return nil, err
		}
		return items, nil
	}
	items := make([]ServiceItem, 0, len(raw))
	for _, r := range raw {
		var item ServiceItem
		if err := json.Unmarshal(r, &item); err != nil {
			return nil, httpx.Errorf(httpx.ErrValidation, "Catálogo de servicios inválido")
		}
		items = append(items, item)
	}
	return items, nil
}

func remove(list []string, name string) ([]string, bool) {
	i := slices.Index(list, name)
	if i < 0 {
		return list, false
	}
	return slices.Delete(slices.Clone(list), i, i+1), true
}
