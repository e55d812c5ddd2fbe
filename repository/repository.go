package repository

import (
	"context"
	"sync"
)

// CredentialRepository caches the publish credential across sessions. It is
// the only piece of state that outlives a dashboard session.
type CredentialRepository interface {
	SaveToken(ctx context.Context, token string) error
	// LoadToken returns the cached token, or empty when none is stored.
	LoadToken(ctx context.Context) (string, error)
}

// inMemoryCredentialRepository holds the token for the process lifetime only.
// It is the fallback when no redis is configured.
type inMemoryCredentialRepository struct {
	mu    sync.RWMutex
	token string
}

// NewInMemoryCredentialRepository creates a process-local credential cache.
func NewInMemoryCredentialRepository() CredentialRepository {
	return &inMemoryCredentialRepository{}
}

func (r *inMemoryCredentialRepository) SaveToken(_ context.Context, token string) error {
	r.mu.Lock()
	r.token = token
	r.mu.Unlock()
	return nil
}

func (r *inMemoryCredentialRepository) LoadToken(_ context.Context) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.token, nil
}
