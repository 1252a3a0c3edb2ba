package memory

import (
	"context"
	"sync"
	"time"

	"github.com/ipede/oauth2-server/internal/domain"
	gocache "github.com/patrickmn/go-cache"
)

// CodeStore is the in-memory code store backend. Entries carry a TTL so
// abandoned codes do not pile up; consumption is serialized so a code can be
// redeemed at most once even under concurrent exchange attempts.
type CodeStore struct {
	mu    sync.Mutex
	cache *gocache.Cache
}

// NewCodeStore creates an in-memory code store whose entries live for ttl
func NewCodeStore(ttl time.Duration) *CodeStore {
	return &CodeStore{cache: gocache.New(ttl, 2*ttl)}
}

// Save stores a pending request under the code
func (s *CodeStore) Save(ctx context.Context, code string, req *domain.OAuth2Request) error {
	if err := s.cache.Add(code, req, gocache.DefaultExpiration); err != nil {
		return domain.ErrCodeExists
	}
	return nil
}

// Consume returns the stored request and removes it in the same step
func (s *CodeStore) Consume(ctx context.Context, code string) (*domain.OAuth2Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.cache.Get(code)
	if !ok {
		return nil, domain.ErrCodeNotFound
	}
	s.cache.Delete(code)
	return v.(*domain.OAuth2Request), nil
}

// Contains reports whether the code is currently in use
func (s *CodeStore) Contains(ctx context.Context, code string) (bool, error) {
	_, ok := s.cache.Get(code)
	return ok, nil
}
