package token

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ipede/oauth2-server/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func liveAccess(value, username, clientID string) *domain.AccessToken {
	return &domain.AccessToken{
		Value:     value,
		Username:  username,
		ClientID:  clientID,
		ExpiresAt: time.Now().Add(10 * time.Minute),
	}
}

func TestStore_AccessToken(t *testing.T) {
	t.Run("resolves a stored token", func(t *testing.T) {
		s := NewStore()
		s.StoreAccessToken(liveAccess("a1", "alice", "c1"))

		got, err := s.AccessToken("a1")
		require.NoError(t, err)
		assert.Equal(t, "alice", got.Username)
		assert.Equal(t, "c1", got.ClientID)
	})

	t.Run("unknown value", func(t *testing.T) {
		s := NewStore()
		_, err := s.AccessToken("missing")
		assert.ErrorIs(t, err, domain.ErrTokenNotFound)
	})

	t.Run("expired token is rejected on read", func(t *testing.T) {
		s := NewStore()
		s.StoreAccessToken(&domain.AccessToken{
			Value:     "stale",
			Username:  "alice",
			ClientID:  "c1",
			ExpiresAt: time.Now().Add(-time.Second),
		})

		_, err := s.AccessToken("stale")
		assert.ErrorIs(t, err, domain.ErrTokenExpired)
	})
}

func TestStore_RefreshToken(t *testing.T) {
	t.Run("at most one refresh token per pair", func(t *testing.T) {
		s := NewStore()
		s.StoreRefreshToken(&domain.RefreshToken{Value: "r1", Username: "alice", ClientID: "c1"})
		s.StoreRefreshToken(&domain.RefreshToken{Value: "r2", Username: "alice", ClientID: "c1"})

		_, err := s.RefreshToken("r1")
		assert.ErrorIs(t, err, domain.ErrTokenNotFound)

		live, ok := s.RefreshTokenFor("alice", "c1")
		require.True(t, ok)
		assert.Equal(t, "r2", live.Value)
	})

	t.Run("pairs are independent", func(t *testing.T) {
		s := NewStore()
		s.StoreRefreshToken(&domain.RefreshToken{Value: "r1", Username: "alice", ClientID: "c1"})
		s.StoreRefreshToken(&domain.RefreshToken{Value: "r2", Username: "alice", ClientID: "c2"})

		first, err := s.RefreshToken("r1")
		require.NoError(t, err)
		assert.Equal(t, "c1", first.ClientID)
		second, err := s.RefreshToken("r2")
		require.NoError(t, err)
		assert.Equal(t, "c2", second.ClientID)
	})
}

func TestStore_RevokePair(t *testing.T) {
	t.Run("removes every token of the pair only", func(t *testing.T) {
		s := NewStore()
		s.StoreAccessToken(liveAccess("a1", "alice", "c1"))
		s.StoreAccessToken(liveAccess("a2", "alice", "c1"))
		s.StoreRefreshToken(&domain.RefreshToken{Value: "r1", Username: "alice", ClientID: "c1"})
		s.StoreAccessToken(liveAccess("b1", "alice", "c2"))

		assert.True(t, s.RevokePair("alice", "c1"))

		_, err := s.AccessToken("a1")
		assert.ErrorIs(t, err, domain.ErrTokenNotFound)
		_, err = s.AccessToken("a2")
		assert.ErrorIs(t, err, domain.ErrTokenNotFound)
		_, err = s.RefreshToken("r1")
		assert.ErrorIs(t, err, domain.ErrTokenNotFound)

		// the sibling pair is untouched
		_, err = s.AccessToken("b1")
		assert.NoError(t, err)
	})

	t.Run("empty pair reports false", func(t *testing.T) {
		s := NewStore()
		assert.False(t, s.RevokePair("nobody", "c1"))
	})
}

func TestStore_Tokens(t *testing.T) {
	s := NewStore()
	s.StoreAccessToken(liveAccess("a1", "alice", "c1"))
	s.StoreRefreshToken(&domain.RefreshToken{Value: "r1", Username: "alice", ClientID: "c1"})
	s.StoreAccessToken(&domain.AccessToken{
		Value:     "stale",
		Username:  "alice",
		ClientID:  "c1",
		ExpiresAt: time.Now().Add(-time.Minute),
	})

	tokens := s.Tokens("alice", "c1")
	assert.ElementsMatch(t, []domain.RevokedToken{
		{Value: "a1", Type: domain.TokenTypeAccess},
		{Value: "r1", Type: domain.TokenTypeRefresh},
	}, tokens)
}

func TestStore_SweepExpired(t *testing.T) {
	s := NewStore()
	s.StoreAccessToken(liveAccess("live", "alice", "c1"))
	s.StoreAccessToken(&domain.AccessToken{
		Value:     "stale",
		Username:  "alice",
		ClientID:  "c1",
		ExpiresAt: time.Now().Add(-time.Minute),
	})
	s.StoreAccessToken(&domain.AccessToken{
		Value:     "orphan",
		Username:  "bob",
		ClientID:  "c2",
		ExpiresAt: time.Now().Add(-time.Minute),
	})

	removed := s.SweepExpired(time.Now())
	assert.Equal(t, 2, removed)

	_, err := s.AccessToken("live")
	assert.NoError(t, err)

	// bob's entry is gone entirely, so a fresh revoke reports nothing
	assert.False(t, s.RevokePair("bob", "c2"))
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user := fmt.Sprintf("user-%d", i%4)
			value := fmt.Sprintf("token-%d", i)
			s.StoreAccessToken(liveAccess(value, user, "c1"))
			s.StoreRefreshToken(&domain.RefreshToken{Value: value + "-r", Username: user, ClientID: "c1"})
			s.AccessToken(value)
			s.Tokens(user, "c1")
			s.SweepExpired(time.Now())
		}(i)
	}
	wg.Wait()
}
