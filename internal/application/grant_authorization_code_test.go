package application

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/ipede/oauth2-server/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func authCodeClient() *domain.ClientDetails {
	return &domain.ClientDetails{
		ID:           "c1",
		Scoped:       true,
		Scopes:       []string{"read"},
		GrantTypes:   []string{domain.GrantTypeAuthorizationCode},
		RedirectURIs: []string{"https://a.example/cb"},
	}
}

func TestAuthorizationCodeGrant_IssueCode(t *testing.T) {
	ctx := context.Background()
	client := authCodeClient()

	t.Run("redirects with code and state", func(t *testing.T) {
		req := &domain.OAuth2Request{
			Auth: domain.RequestAuth{ClientID: "c1", Username: "alice"},
			Body: domain.RequestBody{
				GrantType:    domain.GrantTypeAuthorizationCode,
				ResponseType: domain.ResponseTypeCode,
			},
			Response: domain.AuthorizationResponse{
				RedirectURI: "https://a.example/cb",
				State:       "xyz",
			},
		}
		codes := new(MockCodeService)
		codes.On("IssueCode", mock.Anything, req).Return("A1b2C3d4E5", nil)
		grant := NewAuthorizationCodeGrant(codes, new(MockTokenService), zap.NewNop())

		result, err := grant.Handle(ctx, req, client)
		require.NoError(t, err)
		assert.Equal(t, http.StatusFound, result.Status)

		u, err := url.Parse(result.Redirect)
		require.NoError(t, err)
		assert.Equal(t, "a.example", u.Host)
		assert.Equal(t, "/cb", u.Path)
		assert.Equal(t, "A1b2C3d4E5", u.Query().Get("code"))
		assert.Equal(t, "xyz", u.Query().Get("state"))
	})

	t.Run("missing redirect URI", func(t *testing.T) {
		req := &domain.OAuth2Request{
			Body: domain.RequestBody{ResponseType: domain.ResponseTypeCode},
		}
		grant := NewAuthorizationCodeGrant(new(MockCodeService), new(MockTokenService), zap.NewNop())

		_, err := grant.Handle(ctx, req, client)
		var oauthErr *domain.OAuthError
		require.ErrorAs(t, err, &oauthErr)
		assert.Equal(t, domain.ErrCodeInvalidRequest, oauthErr.Code)
		assert.Equal(t, "Missing redirect URI!", oauthErr.Description)
	})

	t.Run("unregistered redirect URI", func(t *testing.T) {
		req := &domain.OAuth2Request{
			Body:     domain.RequestBody{ResponseType: domain.ResponseTypeCode},
			Response: domain.AuthorizationResponse{RedirectURI: "https://evil.example/cb"},
		}
		grant := NewAuthorizationCodeGrant(new(MockCodeService), new(MockTokenService), zap.NewNop())

		_, err := grant.Handle(ctx, req, client)
		var oauthErr *domain.OAuthError
		require.ErrorAs(t, err, &oauthErr)
		assert.Equal(t, "Wrong redirect URI!", oauthErr.Description)
	})
}

func TestAuthorizationCodeGrant_ExchangeCode(t *testing.T) {
	ctx := context.Background()
	client := authCodeClient()

	pendingFor := func(clientID string) *domain.OAuth2Request {
		return &domain.OAuth2Request{
			Auth: domain.RequestAuth{ClientID: clientID, Username: "alice"},
			Body: domain.RequestBody{
				Scopes: []string{"read"},
				Scoped: true,
			},
			Response: domain.AuthorizationResponse{RedirectURI: "https://a.example/cb"},
		}
	}

	t.Run("exchanges a live code for a bearer token", func(t *testing.T) {
		req := &domain.OAuth2Request{
			Auth: domain.RequestAuth{ClientID: "c1", Code: "A1b2C3d4E5"},
			Body: domain.RequestBody{ResponseType: domain.ResponseTypeToken},
			Response: domain.AuthorizationResponse{
				RedirectURI: "https://a.example/cb",
			},
		}
		codes := new(MockCodeService)
		codes.On("ConsumeCode", mock.Anything, "A1b2C3d4E5").Return(pendingFor("c1"), nil)
		tokens := new(MockTokenService)
		tokens.On("GenerateAccessToken", mock.Anything, mock.MatchedBy(func(r *domain.OAuth2Request) bool {
			return r.Body.Refreshable && r.Auth.Username == "alice"
		})).Return(&domain.AccessToken{
			Value:        "access-1",
			ClientID:     "c1",
			Username:     "alice",
			RefreshToken: "refresh-1",
			ExpiresAt:    time.Now().Add(10 * time.Minute),
		}, nil)
		grant := NewAuthorizationCodeGrant(codes, tokens, zap.NewNop())

		result, err := grant.Handle(ctx, req, client)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, result.Status)

		body, ok := result.JSON.(*domain.TokenResponse)
		require.True(t, ok)
		assert.Equal(t, "Bearer", body.TokenType)
		assert.Equal(t, "access-1", body.AccessToken)
		assert.Equal(t, "refresh-1", body.RefreshToken)
		assert.InDelta(t, 600, body.ExpiresIn, 2)
	})

	t.Run("consumed code cannot be exchanged again", func(t *testing.T) {
		req := &domain.OAuth2Request{
			Auth: domain.RequestAuth{ClientID: "c1", Code: "A1b2C3d4E5"},
			Body: domain.RequestBody{ResponseType: domain.ResponseTypeToken},
		}
		codes := new(MockCodeService)
		codes.On("ConsumeCode", mock.Anything, "A1b2C3d4E5").Return(nil, domain.ErrCodeNotFound)
		grant := NewAuthorizationCodeGrant(codes, new(MockTokenService), zap.NewNop())

		_, err := grant.Handle(ctx, req, client)
		var oauthErr *domain.OAuthError
		require.ErrorAs(t, err, &oauthErr)
		assert.Equal(t, domain.ErrCodeInvalidGrant, oauthErr.Code)
		assert.Equal(t, "Non existing code!", oauthErr.Description)
	})

	t.Run("code issued to another client", func(t *testing.T) {
		req := &domain.OAuth2Request{
			Auth:     domain.RequestAuth{ClientID: "c1", Code: "A1b2C3d4E5"},
			Body:     domain.RequestBody{ResponseType: domain.ResponseTypeToken},
			Response: domain.AuthorizationResponse{RedirectURI: "https://a.example/cb"},
		}
		codes := new(MockCodeService)
		codes.On("ConsumeCode", mock.Anything, "A1b2C3d4E5").Return(pendingFor("c2"), nil)
		grant := NewAuthorizationCodeGrant(codes, new(MockTokenService), zap.NewNop())

		_, err := grant.Handle(ctx, req, client)
		var oauthErr *domain.OAuthError
		require.ErrorAs(t, err, &oauthErr)
		assert.Equal(t, "Client mismatch!", oauthErr.Description)
	})

	t.Run("redirect URI differs from issuance", func(t *testing.T) {
		req := &domain.OAuth2Request{
			Auth:     domain.RequestAuth{ClientID: "c1", Code: "A1b2C3d4E5"},
			Body:     domain.RequestBody{ResponseType: domain.ResponseTypeToken},
			Response: domain.AuthorizationResponse{RedirectURI: "https://a.example/other"},
		}
		codes := new(MockCodeService)
		codes.On("ConsumeCode", mock.Anything, "A1b2C3d4E5").Return(pendingFor("c1"), nil)
		grant := NewAuthorizationCodeGrant(codes, new(MockTokenService), zap.NewNop())

		_, err := grant.Handle(ctx, req, client)
		var oauthErr *domain.OAuthError
		require.ErrorAs(t, err, &oauthErr)
		assert.Equal(t, "Redirect URI mismatch!", oauthErr.Description)
	})

	t.Run("missing code", func(t *testing.T) {
		req := &domain.OAuth2Request{
			Body: domain.RequestBody{ResponseType: domain.ResponseTypeToken},
		}
		grant := NewAuthorizationCodeGrant(new(MockCodeService), new(MockTokenService), zap.NewNop())

		_, err := grant.Handle(ctx, req, client)
		var oauthErr *domain.OAuthError
		require.ErrorAs(t, err, &oauthErr)
		assert.Equal(t, "Missing authorization code!", oauthErr.Description)
	})
}
