package appointments

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/salonledger/salonledger/internal/dates"
	"github.com/salonledger/salonledger/internal/platform/httpx"
)

// Store is the persistence port for appointments.
type Store interface {
	Insert(ctx context.Context, a Appointment) error
	List(ctx context.Context, branch string) ([]Appointment, error)
	Get(ctx context.Context, id string) (Appointment, error)
	Update(ctx context.Context, a Appointment) error
	Delete(ctx context.Context, id string) error
}

// BranchRegistry resolves the branch a booking belongs to.
type BranchRegistry interface {
	Resolve(ctx context.Context, branch string) (string, error)
}

// Service implements the booking use cases.
type Service struct {
	store    Store
	branches BranchRegistry
	now      func() time.Time
	newID    func() string
}

// NewService constructs the appointment service.
func NewService(store Store, branches BranchRegistry) *Service {
	return &Service{
		store:    store,
		branches: branches,
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
	}
}

// WithClock replaces the clock used for today's alerts.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// Create books an appointment with a server-assigned id in the pending state.
func (s *Service) Create(ctx context.Context, a Appointment) (Appointment, error) {
	if strings.TrimSpace(a.Fecha) == "" || strings.TrimSpace(a.Hora) == "" || strings.TrimSpace(a.Client) == "" {
		return Appointment{}, httpx.Errorf(httpx.ErrValidation, "Fecha, hora y cliente son requeridos")
	}
	branch, err := s.resolve(ctx, a.Branch)
	if err != nil {
		return Appointment{}, err
	}
	a.ID = s.newID()
	a.Branch = branch
	a.Status = StatusPending
	if err := s.store.Insert(ctx, a); err != nil {
		return Appointment{}, err
	}
	return a, nil
}

// List returns the appointments of a branch ordered by time. When day is
// set, only appointments on that calendar day are returned.
func (s *Service) List(ctx context.Context, branch, day string) ([]Appointment, error) {
	branch, err := s.resolve(ctx, branch)
	if err != nil {
		return nil, err
	}
	var want time.Time
	if day != "" {
		d, ok := dates.ParseDay(day)
		if !ok {
			return nil, httpx.Errorf(httpx.ErrValidation, "Fecha inválida")
		}
		want = d
	}
	all, err := s.store.List(ctx, branch)
	if err != nil {
		return nil, err
	}
	out := make([]Appointment, 0, len(all))
	for _, a := range all {
		if !want.IsZero() {
			d, ok := dates.Normalize(a.Fecha)
			if !ok || !d.Equal(want) {
				continue
			}
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Hora < out[j].Hora })
	return out, nil
}

// Update applies a partial patch to an existing appointment.
func (s *Service) Update(ctx context.Context, id string, patch Patch) (Appointment, error) {
	if patch.Empty() {
		return Appointment{}, httpx.Errorf(httpx.ErrValidation, "Datos incompletos")
	}
	current, err := s.store.Get(ctx, id)
	if err != nil {
		return Appointment{}, err
	}
	next := patch.Apply(current)
	if err := s.store.Update(ctx, next); err != nil {
		return Appointment{}, err
	}
	return next, nil
}

// Delete removes an appointment.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

// Alerts reports how many appointments are booked for today across branches.
func (s *Service) Alerts(ctx context.Context) ([]Alert, error) {
	all, err := s.store.List(ctx, "")
	if err != nil {
		return nil, err
	}
	today := dates.Today(s.now())
	count := 0
	for _, a := range all {
		if d, ok := dates.Normalize(a.Fecha); ok && d.Equal(today) {
			count++
		}
	}
	alerts := []Alert{}
	if count > 0 {
		alerts = append(alerts, Alert{Type: "info", Message: fmt.Sprintf("Tienes %d cita(s) programada(s) para hoy.", count)})
	}
	return alerts, nil
}

func (s *Service) resolve(ctx context.Context, branch string) (string, error) {
	branch = strings.TrimSpace(branch)
	if s.branches == nil {
		return branch, nil
	}
	return s.branches.Resolve(ctx, branch)
}
