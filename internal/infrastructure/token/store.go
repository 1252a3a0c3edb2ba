package token

import (
	"sync"
	"time"

	"github.com/ipede/oauth2-server/internal/domain"
)

// pairEntry holds the tokens of one (user, client) pair. Access tokens are
// keyed by value; at most one refresh token is live at a time.
type pairEntry struct {
	accessTokens map[string]*domain.AccessToken
	refreshToken *domain.RefreshToken
}

func (e *pairEntry) empty() bool {
	return len(e.accessTokens) == 0 && e.refreshToken == nil
}

// Store is the in-memory token index: username -> clientID -> pair entry.
// Operations are pair-scoped; a single RWMutex over the nested maps keeps
// concurrent issuance, revocation and sweeping safe.
type Store struct {
	mu    sync.RWMutex
	users map[string]map[string]*pairEntry
}

// NewStore creates an empty token store
func NewStore() *Store {
	return &Store{users: make(map[string]map[string]*pairEntry)}
}

func (s *Store) entry(username, clientID string) *pairEntry {
	clients, ok := s.users[username]
	if !ok {
		clients = make(map[string]*pairEntry)
		s.users[username] = clients
	}
	e, ok := clients[clientID]
	if !ok {
		e = &pairEntry{accessTokens: make(map[string]*domain.AccessToken)}
		clients[clientID] = e
	}
	return e
}

func (s *Store) prune(username, clientID string) {
	clients, ok := s.users[username]
	if !ok {
		return
	}
	if e, ok := clients[clientID]; ok && e.empty() {
		delete(clients, clientID)
	}
	if len(clients) == 0 {
		delete(s.users, username)
	}
}

// StoreAccessToken records an access token under its pair
func (s *Store) StoreAccessToken(token *domain.AccessToken) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entry(token.Username, token.ClientID).accessTokens[token.Value] = token
}

// StoreRefreshToken records a refresh token, replacing any prior one for the pair
func (s *Store) StoreRefreshToken(token *domain.RefreshToken) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entry(token.Username, token.ClientID).refreshToken = token
}

// AccessToken resolves an access token value anywhere in the store. The read
// path itself rejects expired tokens, independent of the sweeper.
func (s *Store) AccessToken(value string) (*domain.AccessToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, clients := range s.users {
		for _, e := range clients {
			if t, ok := e.accessTokens[value]; ok {
				if t.Expired(time.Now()) {
					return nil, domain.ErrTokenExpired
				}
				return t, nil
			}
		}
	}
	return nil, domain.ErrTokenNotFound
}

// RefreshToken resolves a refresh token value anywhere in the store
func (s *Store) RefreshToken(value string) (*domain.RefreshToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, clients := range s.users {
		for _, e := range clients {
			if e.refreshToken != nil && e.refreshToken.Value == value {
				return e.refreshToken, nil
			}
		}
	}
	return nil, domain.ErrTokenNotFound
}

// RefreshTokenFor returns the live refresh token for a pair, if any
func (s *Store) RefreshTokenFor(username, clientID string) (*domain.RefreshToken, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if clients, ok := s.users[username]; ok {
		if e, ok := clients[clientID]; ok && e.refreshToken != nil {
			return e.refreshToken, true
		}
	}
	return nil, false
}

// Tokens returns every live token for a pair
func (s *Store) Tokens(username, clientID string) []domain.RevokedToken {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clients, ok := s.users[username]
	if !ok {
		return nil
	}
	e, ok := clients[clientID]
	if !ok {
		return nil
	}

	now := time.Now()
	var out []domain.RevokedToken
	for value, t := range e.accessTokens {
		if !t.Expired(now) {
			out = append(out, domain.RevokedToken{Value: value, Type: domain.TokenTypeAccess})
		}
	}
	if e.refreshToken != nil {
		out = append(out, domain.RevokedToken{Value: e.refreshToken.Value, Type: domain.TokenTypeRefresh})
	}
	return out
}

// RevokePair removes every token for the pair and reports whether anything existed
func (s *Store) RevokePair(username, clientID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	clients, ok := s.users[username]
	if !ok {
		return false
	}
	e, ok := clients[clientID]
	if !ok {
		return false
	}

	existed := !e.empty()
	delete(clients, clientID)
	if len(clients) == 0 {
		delete(s.users, username)
	}
	return existed
}

// SweepExpired drops expired access tokens and prunes empty client and user
// entries, returning the number of tokens removed
func (s *Store) SweepExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for username, clients := range s.users {
		for clientID, e := range clients {
			for value, t := range e.accessTokens {
				if t.Expired(now) {
					delete(e.accessTokens, value)
					removed++
				}
			}
			s.prune(username, clientID)
		}
	}
	return removed
}
