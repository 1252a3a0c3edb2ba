package application

import (
	"context"
	"errors"

	"github.com/ipede/oauth2-server/internal/domain"
	"github.com/ipede/oauth2-server/internal/infrastructure/password"
	"go.uber.org/zap"
)

// ClientAuthenticator verifies client identity before any grant handler runs.
// For the jwt-bearer grant the pre-registered linking client is bound without
// a secret check, because the caller is the asserting identity provider. All
// other grants must present client_id and client_secret.
type ClientAuthenticator struct {
	clientRepo      domain.ClientRepository
	linkingClientID string
	logger          *zap.Logger
}

// NewClientAuthenticator creates a new ClientAuthenticator
func NewClientAuthenticator(clientRepo domain.ClientRepository, linkingClientID string, logger *zap.Logger) *ClientAuthenticator {
	return &ClientAuthenticator{
		clientRepo:      clientRepo,
		linkingClientID: linkingClientID,
		logger:          logger,
	}
}

// Authenticate resolves and verifies the calling client for the request
func (a *ClientAuthenticator) Authenticate(ctx context.Context, req *domain.OAuth2Request, clientSecret string) (*domain.ClientDetails, error) {
	if req.Body.GrantType == "" {
		return nil, domain.NewInvalidGrant("Missing grant type!")
	}

	if req.Body.GrantType == domain.GrantTypeJWTBearer {
		client, err := a.clientRepo.FindByID(ctx, a.linkingClientID)
		if err != nil {
			a.logger.Error("Linking client is not registered",
				zap.String("client_id", a.linkingClientID),
				zap.Error(err))
			if errors.Is(err, domain.ErrStorageUnavailable) {
				return nil, err
			}
			return nil, domain.NewInvalidClient("Unknown linking client!")
		}
		return client, nil
	}

	if req.Auth.ClientID == "" {
		return nil, domain.NewInvalidRequest("Missing client id!")
	}

	client, err := a.clientRepo.FindByID(ctx, req.Auth.ClientID)
	if err != nil {
		if errors.Is(err, domain.ErrStorageUnavailable) {
			return nil, err
		}
		a.logger.Debug("Unknown client", zap.String("client_id", req.Auth.ClientID))
		return nil, domain.NewInvalidClient("Wrong client credentials!")
	}

	if err := password.Check(clientSecret, client.Secret); err != nil {
		a.logger.Debug("Client secret mismatch", zap.String("client_id", req.Auth.ClientID))
		return nil, domain.NewInvalidClient("Wrong client credentials!")
	}

	return client, nil
}
