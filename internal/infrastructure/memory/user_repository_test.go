package memory

import (
	"context"
	"testing"

	"github.com/ipede/oauth2-server/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("create and find", func(t *testing.T) {
		r := NewUserRepository()
		require.NoError(t, r.Create(ctx, &domain.UserDetails{Username: "alice", Email: "alice@example.com"}))

		user, err := r.FindByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", user.Email)
		assert.False(t, user.CreatedAt.IsZero())
	})

	t.Run("duplicate username", func(t *testing.T) {
		r := NewUserRepository()
		require.NoError(t, r.Create(ctx, &domain.UserDetails{Username: "alice"}))
		assert.ErrorIs(t, r.Create(ctx, &domain.UserDetails{Username: "alice"}), domain.ErrUserExists)
	})

	t.Run("find by email or external id", func(t *testing.T) {
		r := NewUserRepository()
		require.NoError(t, r.Create(ctx, &domain.UserDetails{
			Username:   "link:c1:alice@example.com",
			Email:      "alice@example.com",
			ExternalID: "ext-42",
		}))

		byEmail, err := r.FindByEmailOrExternalID(ctx, "alice@example.com", "")
		require.NoError(t, err)
		assert.Equal(t, "ext-42", byEmail.ExternalID)

		byExternal, err := r.FindByEmailOrExternalID(ctx, "", "ext-42")
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", byExternal.Email)

		_, err = r.FindByEmailOrExternalID(ctx, "", "")
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})

	t.Run("returned records are copies", func(t *testing.T) {
		r := NewUserRepository()
		require.NoError(t, r.Create(ctx, &domain.UserDetails{Username: "alice", Email: "alice@example.com"}))

		first, err := r.FindByUsername(ctx, "alice")
		require.NoError(t, err)
		first.Email = "mutated@example.com"

		second, err := r.FindByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", second.Email)
	})

	t.Run("update unknown user", func(t *testing.T) {
		r := NewUserRepository()
		err := r.Update(ctx, &domain.UserDetails{Username: "ghost"})
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})
}

func TestClientRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("create and find", func(t *testing.T) {
		r := NewClientRepository()
		require.NoError(t, r.Create(ctx, &domain.ClientDetails{
			ID:           "c1",
			GrantTypes:   []string{domain.GrantTypeAuthorizationCode},
			RedirectURIs: []string{"https://a.example/cb"},
		}))

		client, err := r.FindByID(ctx, "c1")
		require.NoError(t, err)
		assert.True(t, client.AllowsGrantType(domain.GrantTypeAuthorizationCode))
	})

	t.Run("unknown client", func(t *testing.T) {
		r := NewClientRepository()
		_, err := r.FindByID(ctx, "ghost")
		assert.ErrorIs(t, err, domain.ErrClientNotFound)
	})

	t.Run("reset clears the directory", func(t *testing.T) {
		r := NewClientRepository()
		require.NoError(t, r.Create(ctx, &domain.ClientDetails{ID: "c1"}))
		require.NoError(t, r.Reset(ctx))

		_, err := r.FindByID(ctx, "c1")
		assert.ErrorIs(t, err, domain.ErrClientNotFound)
	})
}
