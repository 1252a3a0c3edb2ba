package application

import (
	"context"
	"net/http"
	"testing"

	"github.com/ipede/oauth2-server/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockGrantHandler is a mock implementation of GrantHandler
type MockGrantHandler struct {
	mock.Mock
}

func (m *MockGrantHandler) Handle(ctx context.Context, req *domain.OAuth2Request, client *domain.ClientDetails) (*domain.GrantResult, error) {
	args := m.Called(ctx, req, client)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GrantResult), args.Error(1)
}

func TestDispatcher_Dispatch(t *testing.T) {
	ctx := context.Background()
	client := &domain.ClientDetails{
		ID:         "c1",
		GrantTypes: []string{domain.GrantTypeAuthorizationCode},
	}

	t.Run("routes to the registered handler", func(t *testing.T) {
		req := &domain.OAuth2Request{
			Body: domain.RequestBody{GrantType: domain.GrantTypeAuthorizationCode},
		}
		handler := new(MockGrantHandler)
		handler.On("Handle", mock.Anything, req, client).Return(&domain.GrantResult{Status: http.StatusOK}, nil)

		d := NewDispatcher(zap.NewNop())
		d.Register(domain.GrantTypeAuthorizationCode, handler)

		result, err := d.Dispatch(ctx, req, client)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, result.Status)
		handler.AssertExpectations(t)
	})

	t.Run("unknown grant type", func(t *testing.T) {
		req := &domain.OAuth2Request{
			Body: domain.RequestBody{GrantType: "password"},
		}
		d := NewDispatcher(zap.NewNop())

		_, err := d.Dispatch(ctx, req, client)
		var oauthErr *domain.OAuthError
		require.ErrorAs(t, err, &oauthErr)
		assert.Equal(t, "unsupported_grant_type", oauthErr.Code)
	})

	t.Run("client not authorized for grant type", func(t *testing.T) {
		req := &domain.OAuth2Request{
			Body: domain.RequestBody{GrantType: domain.GrantTypeRefreshToken},
		}
		d := NewDispatcher(zap.NewNop())
		d.Register(domain.GrantTypeRefreshToken, new(MockGrantHandler))

		_, err := d.Dispatch(ctx, req, client)
		var oauthErr *domain.OAuthError
		require.ErrorAs(t, err, &oauthErr)
		assert.Equal(t, "unauthorized_client", oauthErr.Code)
	})
}
