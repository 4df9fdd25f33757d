package auth

import (
	"context"

	"github.com/salonledger/salonledger/internal/catalog"
)

// Repository defines persistence operations for user accounts.
type Repository interface {
	LoadUsers(ctx context.Context) (map[string]string, bool, error)
	SaveUsers(ctx context.Context, users map[string]string) error
}

// DocumentRepository keeps the user table as a catalog document.
type DocumentRepository struct {
	store catalog.Store
}

// NewRepository constructs a document-backed repository.
func NewRepository(store catalog.Store) *DocumentRepository {
	return &DocumentRepository{store: store}
}

// LoadUsers returns the username -> hash map and whether it was ever saved.
func (r *DocumentRepository) LoadUsers(ctx context.Context) (map[string]string, bool, error) {
	users := map[string]string{}
	found, err := r.store.Load(ctx, docUsers, &users)
	if err != nil {
		return nil, false, err
	}
	return users, found, nil
}

// SaveUsers replaces the user table.
func (r *DocumentRepository) SaveUsers(ctx context.Context, users map[string]string) error {
	return r.store.Save(ctx, docUsers, users)
}

var _ Repository = (*DocumentRepository)(nil)
