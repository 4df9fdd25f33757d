package auth

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/salonledger/salonledger/internal/platform/httpx"
	"github.com/salonledger/salonledger/internal/shared"
)

// Service wraps authentication and user management rules.
type Service struct {
	repo            Repository
	defaultPassword string
	cost            int
	mu              sync.Mutex
}

// NewService constructs a new Service. defaultPassword is the password given
// to the admin account when no user table exists yet.
func NewService(repo Repository, defaultPassword string) *Service {
	if defaultPassword == "" {
		defaultPassword = AdminUser
	}
	return &Service{repo: repo, defaultPassword: defaultPassword, cost: bcrypt.DefaultCost}
}

// Authenticate validates username/password credentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) error {
	s.mu.Lock()
	users, err := s.load(ctx)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	hash, ok := users[username]
	if !ok {
		return shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return shared.ErrInvalidCredentials
	}
	return nil
}

// Users lists usernames in alphabetical order.
func (s *Service) Users(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(users))
	for name := range users {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// AddUser creates an account.
func (s *Service) AddUser(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return httpx.Errorf(httpx.ErrValidation, "Usuario y contraseña requeridos")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	users, err := s.load(ctx)
	if err != nil {
		return err
	}
	if _, exists := users[username]; exists {
		return httpx.Errorf(httpx.ErrDuplicate, "El usuario ya existe")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return err
	}
	users[username] = string(hash)
	return s.repo.SaveUsers(ctx, users)
}

// DeleteUser removes an account. The admin account and the caller's own
// account cannot be removed.
func (s *Service) DeleteUser(ctx context.Context, username, current string) error {
	if username == AdminUser {
		return httpx.Errorf(httpx.ErrForbidden, "No se puede eliminar el usuario admin")
	}
	if username == current {
		return httpx.Errorf(httpx.ErrForbidden, "No puedes eliminar tu propio usuario")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	users, err := s.load(ctx)
	if err != nil {
		return err
	}
	if _, ok := users[username]; !ok {
		return httpx.Errorf(httpx.ErrNotFound, "Usuario no encontrado")
	}
	delete(users, username)
	return s.repo.SaveUsers(ctx, users)
}

// EnsureSeed creates the admin account when no user table exists.
func (s *Service) EnsureSeed(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.load(ctx)
	return err
}

func (s *Service) load(ctx context.Context) (map[string]string, error) {
	users, found, err := s.repo.LoadUsers(ctx)
	if err != nil {
		return nil, err
	}
	if found {
		if users == nil {
			users = map[string]string{}
		}
		return users, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(s.defaultPassword), s.cost)
	if err != nil {
		return nil, err
	}
	users = map[string]string{AdminUser: string(hash)}
	if err := s.repo.SaveUsers(ctx, users); err != nil {
		return nil, err
	}
	return users, nil
}

// IsInvalidCredentials reports whether err is a failed login.
func IsInvalidCredentials(err error) bool {
	return errors.Is(err, shared.ErrInvalidCredentials)
}
