package application

import (
	"context"

	"github.com/ipede/oauth2-server/internal/domain"
	"go.uber.org/zap"
)

// GrantHandler consumes a validated request and produces a token body or a
// redirect
type GrantHandler interface {
	Handle(ctx context.Context, req *domain.OAuth2Request, client *domain.ClientDetails) (*domain.GrantResult, error)
}

// Dispatcher routes a validated request to the handler registered for its
// grant type. It is the single entry point the transport layer calls after
// client authentication.
type Dispatcher struct {
	handlers map[string]GrantHandler
	logger   *zap.Logger
}

// NewDispatcher creates a dispatcher with no handlers registered
func NewDispatcher(logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		handlers: make(map[string]GrantHandler),
		logger:   logger,
	}
}

// Register binds a handler to a grant type
func (d *Dispatcher) Register(grantType string, handler GrantHandler) {
	d.handlers[grantType] = handler
}

// Dispatch resolves the request to exactly one handler invocation
func (d *Dispatcher) Dispatch(ctx context.Context, req *domain.OAuth2Request, client *domain.ClientDetails) (*domain.GrantResult, error) {
	handler, ok := d.handlers[req.Body.GrantType]
	if !ok {
		d.logger.Debug("Unsupported grant type", zap.String("grant_type", req.Body.GrantType))
		return nil, domain.NewUnsupportedGrantType(req.Body.GrantType)
	}

	if !client.AllowsGrantType(req.Body.GrantType) {
		d.logger.Debug("Client not authorized for grant type",
			zap.String("client_id", client.ID),
			zap.String("grant_type", req.Body.GrantType))
		return nil, domain.NewUnauthorizedClient("Client is not authorized for grant type: " + req.Body.GrantType)
	}

	return handler.Handle(ctx, req, client)
}
