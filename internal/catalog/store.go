package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store loads and saves named JSON documents. Load reports false when the
// document has never been saved.
type Store interface {
	Load(ctx context.Context, name string, dest any) (bool, error)
	Save(ctx context.Context, name string, value any) error
}

// PGStore keeps documents in the catalog_documents table.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore constructs a Postgres-backed document store.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// Load implements Store.
func (s *PGStore) Load(ctx context.Context, name string, dest any) (bool, error) {
	var body []byte
	err := s.pool.QueryRow(ctx, `SELECT body FROM catalog_documents WHERE name = $1`, name).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("catalog: load %s: %w", name, err)
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return false, fmt.Errorf("catalog: decode %s: %w", name, err)
	}
	return true, nil
}

// Save implements Store.
func (s *PGStore) Save(ctx context.Context, name string, value any) error {
	body, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("catalog: encode %s: %w", name, err)
	}
	const stmt = `INSERT INTO catalog_documents (name, body, updated_at) VALUES ($1, $2::jsonb, NOW())
ON CONFLICT (name) DO UPDATE SET body = EXCLUDED.body, updated_at = NOW()`
	if _, err := s.pool.Exec(ctx, stmt, name, string(body)); err != nil {
		return fmt.Errorf("catalog: save %s: %w", name, err)
	}
	return nil
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string][]byte)}
}

// Load implements Store.
func (s *MemoryStore) Load(_ context.Context, name string, dest any) (bool, error) {
	s.mu.RLock()
	body, ok := s.docs[name]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(body, dest)
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, name string, value any) error {
	body, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.docs[name] = body
	s.mu.Unlock()
	return nil
}
