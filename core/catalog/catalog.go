// Package catalog provides access to the parking providers an agent may
// choose from.
package catalog

import (
	"context"
	"sync"

	"github.com/kilianp07/parkagent/core/model"
)

// Repository returns the current provider list.
type Repository interface {
	Providers(ctx context.Context) ([]model.Provider, error)
}

// MemoryRepository keeps providers in memory. Replace swaps the whole list
// atomically, which lets a file watcher hot-reload the catalog.
type MemoryRepository struct {
	mu        sync.RWMutex
	providers []model.Provider
}

// NewMemoryRepository returns a repository holding a copy of providers.
func NewMemoryRepository(providers []model.Provider) *MemoryRepository {
	r := &MemoryRepository{}
	r.Replace(providers)
	return r
}

// Providers returns a copy of the stored list.
func (r *MemoryRepository) Providers(ctx context.Context) ([]model.Provider, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]model.Provider(nil), r.providers...), nil
}

// Replace stores a copy of providers.
func (r *MemoryRepository) Replace(providers []model.Provider) {
	cp := append([]model.Provider(nil), providers...)
	r.mu.Lock()
	r.providers = cp
	r.mu.Unlock()
}

// Len returns the number of stored providers.
func (r *MemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}
