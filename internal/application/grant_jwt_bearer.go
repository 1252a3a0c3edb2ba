package application

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ipede/oauth2-server/internal/domain"
	"go.uber.org/zap"
)

// JWTBearerGrant exchanges a verified third-party assertion for a token,
// creating or resolving the linked account depending on the intent
type JWTBearerGrant struct {
	verifier domain.AssertionVerifier
	users    domain.UserRepository
	tokens   domain.TokenService
	logger   *zap.Logger
}

// NewJWTBearerGrant creates a new JWTBearerGrant handler
func NewJWTBearerGrant(verifier domain.AssertionVerifier, users domain.UserRepository, tokens domain.TokenService, logger *zap.Logger) *JWTBearerGrant {
	return &JWTBearerGrant{
		verifier: verifier,
		users:    users,
		tokens:   tokens,
		logger:   logger,
	}
}

// Handle verifies the assertion and branches on the linking intent
func (h *JWTBearerGrant) Handle(ctx context.Context, req *domain.OAuth2Request, client *domain.ClientDetails) (*domain.GrantResult, error) {
	if req.Body.Assertion == "" {
		return nil, domain.NewInvalidRequest("Missing assertion!")
	}

	claims, err := h.verifier.Verify(ctx, req.Body.Assertion)
	if err != nil {
		return nil, err
	}

	switch req.Body.Intent {
	case domain.IntentCheck:
		return h.check(ctx, claims)
	case domain.IntentGet:
		return h.get(ctx, req, client, claims)
	case domain.IntentCreate:
		return h.create(ctx, req, client, claims)
	default:
		return nil, domain.NewInvalidRequest("Unsupported intent: " + req.Body.Intent)
	}
}

// check reports whether a user is already linked to the asserted identity
func (h *JWTBearerGrant) check(ctx context.Context, claims *domain.AssertionClaims) (*domain.GrantResult, error) {
	user, err := h.users.FindByEmailOrExternalID(ctx, claims.Email, claims.ExternalID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return &domain.GrantResult{
				Status: http.StatusNotFound,
				JSON:   map[string]interface{}{"linked": false},
			}, nil
		}
		return nil, err
	}

	return &domain.GrantResult{
		Status: http.StatusOK,
		JSON:   map[string]interface{}{"linked": true, "username": user.Username},
	}, nil
}

// get issues a token for an already-linked user
func (h *JWTBearerGrant) get(ctx context.Context, req *domain.OAuth2Request, client *domain.ClientDetails, claims *domain.AssertionClaims) (*domain.GrantResult, error) {
	user, err := h.users.FindByEmailOrExternalID(ctx, claims.Email, claims.ExternalID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			h.logger.Debug("No linked account for asserted identity",
				zap.String("email", claims.Email))
			return nil, domain.NewLinkingError("Account not linked!", claims.Email)
		}
		return nil, err
	}

	return h.issue(ctx, req, client, user.Username)
}

// create links a new account for the asserted identity
func (h *JWTBearerGrant) create(ctx context.Context, req *domain.OAuth2Request, client *domain.ClientDetails, claims *domain.AssertionClaims) (*domain.GrantResult, error) {
	_, err := h.users.FindByEmailOrExternalID(ctx, claims.Email, claims.ExternalID)
	if err == nil {
		return nil, domain.NewLinkingError("Account already linked!", claims.Email)
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	user := domain.NewLinkedUser(client.ID, claims.Email, claims.ExternalID)
	if err := h.users.Create(ctx, user); err != nil {
		h.logger.Error("Failed to create linked user",
			zap.String("username", user.Username),
			zap.Error(err))
		return nil, err
	}

	h.logger.Info("Created linked account",
		zap.String("username", user.Username),
		zap.String("client_id", client.ID))
	return h.issue(ctx, req, client, user.Username)
}

func (h *JWTBearerGrant) issue(ctx context.Context, req *domain.OAuth2Request, client *domain.ClientDetails, username string) (*domain.GrantResult, error) {
	issue := req.WithClientID(client.ID).WithUsername(username)

	if issue.Body.Scoped && len(issue.Body.Scopes) > 0 {
		if !client.AllowsScopes(issue.Body.Scopes) {
			return nil, domain.NewInvalidScope("Requested scope exceeds the client's allowed set!")
		}
	} else {
		// no scope requested: default to the client's full set
		issue = issue.WithScopes(client.Scopes, client.Scoped)
	}
	issue.Body.Refreshable = true

	accessToken, err := h.tokens.GenerateAccessToken(ctx, issue)
	if err != nil {
		return nil, err
	}

	return &domain.GrantResult{
		Status: http.StatusOK,
		JSON: &domain.TokenResponse{
			TokenType:    "Bearer",
			AccessToken:  accessToken.Value,
			RefreshToken: accessToken.RefreshToken,
			ExpiresIn:    accessToken.ExpiresIn(time.Now()),
		},
	}, nil
}
