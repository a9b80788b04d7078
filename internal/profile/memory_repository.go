package profile

import (
	"context"
	"sync"
)

type memoryRepository struct {
	mu   sync.RWMutex
	data map[string]CurrentLocation
}

// NewMemoryRepository builds an in-memory location store.
func NewMemoryRepository() Repository {
	return &memoryRepository{data: make(map[string]CurrentLocation)}
}

func (r *memoryRepository) Upsert(_ context.Context, loc CurrentLocation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[loc.UserID] = loc
	return nil
}

func (r *memoryRepository) Get(_ context.Context, userID string) (CurrentLocation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	loc, ok := r.data[userID]
	if !ok {
		return CurrentLocation{}, ErrLocationNotFound
	}
	return loc, nil
}
