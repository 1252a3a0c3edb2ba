package application

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/ipede/oauth2-server/internal/domain"
	"go.uber.org/zap"
)

// AuthorizationCodeGrant handles both halves of the authorization_code flow,
// keyed by response_type: issuing a code as a redirect, and exchanging a code
// for a token
type AuthorizationCodeGrant struct {
	codes  domain.CodeService
	tokens domain.TokenService
	logger *zap.Logger
}

// NewAuthorizationCodeGrant creates a new AuthorizationCodeGrant handler
func NewAuthorizationCodeGrant(codes domain.CodeService, tokens domain.TokenService, logger *zap.Logger) *AuthorizationCodeGrant {
	return &AuthorizationCodeGrant{
		codes:  codes,
		tokens: tokens,
		logger: logger,
	}
}

// Handle dispatches on response_type
func (h *AuthorizationCodeGrant) Handle(ctx context.Context, req *domain.OAuth2Request, client *domain.ClientDetails) (*domain.GrantResult, error) {
	switch req.Body.ResponseType {
	case domain.ResponseTypeCode:
		return h.issueCode(ctx, req, client)
	case domain.ResponseTypeToken:
		return h.exchangeCode(ctx, req)
	default:
		return nil, domain.NewUnsupportedResponseType(req.Body.ResponseType)
	}
}

func (h *AuthorizationCodeGrant) issueCode(ctx context.Context, req *domain.OAuth2Request, client *domain.ClientDetails) (*domain.GrantResult, error) {
	if req.Response.RedirectURI == "" {
		return nil, domain.NewInvalidRequest("Missing redirect URI!")
	}
	if !client.AllowsRedirectURI(req.Response.RedirectURI) {
		h.logger.Debug("Unregistered redirect URI",
			zap.String("client_id", client.ID),
			zap.String("redirect_uri", req.Response.RedirectURI))
		return nil, domain.NewInvalidRequest("Wrong redirect URI!")
	}

	code, err := h.codes.IssueCode(ctx, req)
	if err != nil {
		return nil, err
	}

	params := url.Values{"code": {code}}
	if req.Response.State != "" {
		params.Set("state", req.Response.State)
	}
	location, err := appendQuery(req.Response.RedirectURI, params)
	if err != nil {
		return nil, domain.NewInvalidRequest("Wrong redirect URI!")
	}

	return &domain.GrantResult{Status: http.StatusFound, Redirect: location}, nil
}

func (h *AuthorizationCodeGrant) exchangeCode(ctx context.Context, req *domain.OAuth2Request) (*domain.GrantResult, error) {
	if req.Auth.Code == "" {
		return nil, domain.NewInvalidGrant("Missing authorization code!")
	}

	pending, err := h.codes.ConsumeCode(ctx, req.Auth.Code)
	if err != nil {
		if errors.Is(err, domain.ErrCodeNotFound) {
			return nil, domain.NewInvalidGrant("Non existing code!")
		}
		return nil, err
	}

	if pending.Auth.ClientID != req.Auth.ClientID {
		h.logger.Warn("Authorization code exchanged by a different client",
			zap.String("issued_to", pending.Auth.ClientID),
			zap.String("caller", req.Auth.ClientID))
		return nil, domain.NewInvalidGrant("Client mismatch!")
	}
	if pending.Response.RedirectURI != req.Response.RedirectURI {
		return nil, domain.NewInvalidGrant("Redirect URI mismatch!")
	}

	issue := *pending
	issue.Body.Refreshable = true
	accessToken, err := h.tokens.GenerateAccessToken(ctx, &issue)
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

// appendQuery adds parameters to the query component of a redirect URI
func appendQuery(base string, params url.Values) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	q := u.Query()
	for key, values := range params {
		for _, v := range values {
			q.Set(key, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
