package memory

import (
	"context"
	"sync"
	"time"

	"github.com/ipede/oauth2-server/internal/domain"
)

// UserRepository is the in-memory user directory backend
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.UserDetails
}

// NewUserRepository creates an empty in-memory user directory
func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]*domain.UserDetails)}
}

// FindByUsername finds a user by username
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.UserDetails, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *user
	return &cp, nil
}

// FindByEmailOrExternalID finds a user matching either the email or the
// external account id
func (r *UserRepository) FindByEmailOrExternalID(ctx context.Context, email, externalID string) (*domain.UserDetails, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if (email != "" && user.Email == email) || (externalID != "" && user.ExternalID == externalID) {
			cp := *user
			return &cp, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

// Create registers a new user
func (r *UserRepository) Create(ctx context.Context, user *domain.UserDetails) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.Username]; ok {
		return domain.ErrUserExists
	}
	cp := *user
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	cp.UpdatedAt = time.Now()
	r.users[user.Username] = &cp
	return nil
}

// Update replaces an existing user record
func (r *UserRepository) Update(ctx context.Context, user *domain.UserDetails) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.Username]; !ok {
		return domain.ErrUserNotFound
	}
	cp := *user
	cp.UpdatedAt = time.Now()
	r.users[user.Username] = &cp
	return nil
}

// List returns every registered user
func (r *UserRepository) List(ctx context.Context) ([]*domain.UserDetails, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.UserDetails, 0, len(r.users))
	for _, user := range r.users {
		cp := *user
		out = append(out, &cp)
	}
	return out, nil
}

// Reset removes every user record
func (r *UserRepository) Reset(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = make(map[string]*domain.UserDetails)
	return nil
}
