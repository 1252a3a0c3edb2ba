package application

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ipede/oauth2-server/internal/domain"
	"go.uber.org/zap"
)

// ImplicitGrant issues an access token directly, without a refresh token, and
// hands it back in the redirect fragment
type ImplicitGrant struct {
	tokens domain.TokenService
	logger *zap.Logger
}

// NewImplicitGrant creates a new ImplicitGrant handler
func NewImplicitGrant(tokens domain.TokenService, logger *zap.Logger) *ImplicitGrant {
	return &ImplicitGrant{
		tokens: tokens,
		logger: logger,
	}
}

// Handle issues the token and builds the redirect
func (h *ImplicitGrant) Handle(ctx context.Context, req *domain.OAuth2Request, client *domain.ClientDetails) (*domain.GrantResult, error) {
	if req.Response.RedirectURI == "" {
		return nil, domain.NewInvalidRequest("Missing redirect URI!")
	}
	if !client.AllowsRedirectURI(req.Response.RedirectURI) {
		h.logger.Debug("Unregistered redirect URI",
			zap.String("client_id", client.ID),
			zap.String("redirect_uri", req.Response.RedirectURI))
		return nil, domain.NewInvalidRequest("Wrong redirect URI!")
	}

	accessToken, err := h.tokens.GenerateAccessToken(ctx, req)
	if err != nil {
		return nil, err
	}

	params := url.Values{
		"access_token": {accessToken.Value},
		"token_type":   {"bearer"},
		"expires_in":   {strconv.FormatInt(accessToken.ExpiresIn(time.Now()), 10)},
	}
	if req.Response.State != "" {
		params.Set("state", req.Response.State)
	}

	u, err := url.Parse(req.Response.RedirectURI)
	if err != nil {
		return nil, domain.NewInvalidRequest("Wrong redirect URI!")
	}
	u.Fragment = params.Encode()

	return &domain.GrantResult{Status: http.StatusFound, Redirect: u.String()}, nil
}
