package application

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ipede/oauth2-server/internal/domain"
	"go.uber.org/zap"
)

// RefreshTokenGrant reissues an access token against a live refresh token.
// No new refresh token is produced; the presented one stays valid.
type RefreshTokenGrant struct {
	tokens domain.TokenService
	logger *zap.Logger
}

// NewRefreshTokenGrant creates a new RefreshTokenGrant handler
func NewRefreshTokenGrant(tokens domain.TokenService, logger *zap.Logger) *RefreshTokenGrant {
	return &RefreshTokenGrant{
		tokens: tokens,
		logger: logger,
	}
}

// Handle validates ownership and reissues
func (h *RefreshTokenGrant) Handle(ctx context.Context, req *domain.OAuth2Request, client *domain.ClientDetails) (*domain.GrantResult, error) {
	if req.Body.RefreshToken == "" {
		return nil, domain.NewInvalidGrant("Missing refresh token!")
	}

	refreshToken, err := h.tokens.LookupRefreshToken(ctx, req.Body.RefreshToken)
	if err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			return nil, domain.NewInvalidGrant("Non existing refresh token!")
		}
		return nil, err
	}

	if refreshToken.ClientID != client.ID {
		h.logger.Warn("Refresh token presented by a different client",
			zap.String("issued_to", refreshToken.ClientID),
			zap.String("caller", client.ID))
		return nil, domain.NewInvalidGrant("Client mismatch!")
	}

	accessToken, err := h.tokens.RefreshAccessToken(ctx, req.Body.RefreshToken)
	if err != nil {
		return nil, err
	}

	return &domain.GrantResult{
		Status: http.StatusOK,
		JSON: &domain.TokenResponse{
			TokenType:   "Bearer",
			AccessToken: accessToken.Value,
			ExpiresIn:   accessToken.ExpiresIn(time.Now()),
		},
	}, nil
}
