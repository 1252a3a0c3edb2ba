package memory

import (
	"context"
	"sync"
	"time"

	"github.com/ipede/oauth2-server/internal/domain"
)

// ClientRepository is the in-memory client directory backend
type ClientRepository struct {
	mu      sync.RWMutex
	clients map[string]*domain.ClientDetails
}

// NewClientRepository creates an empty in-memory client directory
func NewClientRepository() *ClientRepository {
	return &ClientRepository{clients: make(map[string]*domain.ClientDetails)}
}

// FindByID finds a client by its identifier
func (r *ClientRepository) FindByID(ctx context.Context, id string) (*domain.ClientDetails, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	client, ok := r.clients[id]
	if !ok {
		return nil, domain.ErrClientNotFound
	}
	cp := *client
	return &cp, nil
}

// Create registers a new client
func (r *ClientRepository) Create(ctx context.Context, client *domain.ClientDetails) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *client
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	cp.UpdatedAt = time.Now()
	r.clients[client.ID] = &cp
	return nil
}

// Update replaces an existing client record
func (r *ClientRepository) Update(ctx context.Context, client *domain.ClientDetails) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.clients[client.ID]; !ok {
		return domain.ErrClientNotFound
	}
	cp := *client
	cp.UpdatedAt = time.Now()
	r.clients[client.ID] = &cp
	return nil
}

// List returns every registered client
func (r *ClientRepository) List(ctx context.Context) ([]*domain.ClientDetails, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.ClientDetails, 0, len(r.clients))
	for _, client := range r.clients {
		cp := *client
		out = append(out, &cp)
	}
	return out, nil
}

// Reset removes every client record
func (r *ClientRepository) Reset(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients = make(map[string]*domain.ClientDetails)
	return nil
}
