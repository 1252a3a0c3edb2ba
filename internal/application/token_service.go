package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ipede/oauth2-server/internal/domain"
	"github.com/ipede/oauth2-server/internal/infrastructure/token"
	"go.uber.org/zap"
)

// TokenService issues, refreshes, resolves and revokes tokens. It owns the
// token store and the background expiry sweeper, and reports bulk revocations
// to the notifier.
type TokenService struct {
	store         domain.TokenStore
	codec         *token.Codec
	clientRepo    domain.ClientRepository
	notifier      domain.RevocationNotifier
	validity      time.Duration
	sweepInterval time.Duration
	logger        *zap.Logger

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewTokenService creates a new TokenService. The sweeper is not running
// until StartSweeper is called.
func NewTokenService(
	store domain.TokenStore,
	codec *token.Codec,
	clientRepo domain.ClientRepository,
	notifier domain.RevocationNotifier,
	validity time.Duration,
	sweepInterval time.Duration,
	logger *zap.Logger,
) *TokenService {
	return &TokenService{
		store:         store,
		codec:         codec,
		clientRepo:    clientRepo,
		notifier:      notifier,
		validity:      validity,
		sweepInterval: sweepInterval,
		logger:        logger,
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
}

// GenerateAccessToken issues a new access token for the request. When the
// request is refreshable the pair's refresh token is produced or replaced,
// merging scopes with any prior refresh token: the union when both are
// scoped, unscoped when either side is unscoped.
func (s *TokenService) GenerateAccessToken(ctx context.Context, req *domain.OAuth2Request) (*domain.AccessToken, error) {
	username := req.Auth.Username
	clientID := req.Auth.ClientID
	scoped := req.Body.Scoped
	scopes := append([]string(nil), req.Body.Scopes...)

	var refreshValue string
	if req.Body.Refreshable {
		if old, ok := s.store.RefreshTokenFor(username, clientID); ok {
			if scoped && old.Scoped {
				scopes = mergeScopes(old.Scopes, scopes)
			} else {
				// broadest wins
				scoped = false
				scopes = nil
			}
		}

		value, err := s.uniqueRefreshValue(username, clientID)
		if err != nil {
			return nil, err
		}
		refreshValue = value
	}

	accessValue, err := s.uniqueAccessValue(username, clientID)
	if err != nil {
		return nil, err
	}

	// both values drawn; an encode failure above leaves the store untouched
	if refreshValue != "" {
		s.store.StoreRefreshToken(&domain.RefreshToken{
			Value:    refreshValue,
			ClientID: clientID,
			Username: username,
			Scoped:   scoped,
			Scopes:   scopes,
		})
	}

	accessToken := &domain.AccessToken{
		Value:        accessValue,
		ClientID:     clientID,
		Username:     username,
		Scoped:       scoped,
		Scopes:       scopes,
		ExpiresAt:    time.Now().Add(s.validity),
		RefreshToken: refreshValue,
	}
	s.store.StoreAccessToken(accessToken)

	s.logger.Debug("Issued access token",
		zap.String("client_id", clientID),
		zap.String("username", username),
		zap.Bool("refreshable", req.Body.Refreshable))
	return accessToken, nil
}

// RefreshAccessToken reissues an access token for the pair owning the refresh
// token. The refresh token string itself is kept; there is no rotation.
func (s *TokenService) RefreshAccessToken(ctx context.Context, refreshToken string) (*domain.AccessToken, error) {
	if err := s.authentic(refreshToken); err != nil {
		return nil, err
	}
	rt, err := s.store.RefreshToken(refreshToken)
	if err != nil {
		s.logger.Debug("Unknown refresh token", zap.Error(err))
		return nil, err
	}

	accessValue, err := s.uniqueAccessValue(rt.Username, rt.ClientID)
	if err != nil {
		return nil, err
	}

	accessToken := &domain.AccessToken{
		Value:        accessValue,
		ClientID:     rt.ClientID,
		Username:     rt.Username,
		Scoped:       rt.Scoped,
		Scopes:       append([]string(nil), rt.Scopes...),
		ExpiresAt:    time.Now().Add(s.validity),
		RefreshToken: rt.Value,
	}
	s.store.StoreAccessToken(accessToken)

	s.logger.Debug("Refreshed access token",
		zap.String("client_id", rt.ClientID),
		zap.String("username", rt.Username))
	return accessToken, nil
}

// LookupRefreshToken resolves a refresh token without issuing anything
func (s *TokenService) LookupRefreshToken(ctx context.Context, refreshToken string) (*domain.RefreshToken, error) {
	if err := s.authentic(refreshToken); err != nil {
		return nil, err
	}
	return s.store.RefreshToken(refreshToken)
}

// LookupAccessToken resolves a live access token value
func (s *TokenService) LookupAccessToken(ctx context.Context, value string) (*domain.AccessToken, error) {
	if err := s.authentic(value); err != nil {
		return nil, err
	}
	return s.store.AccessToken(value)
}

// RevokeByAccessToken revokes every token of the pair owning the access
// token. An already-expired token cannot be used to revoke.
func (s *TokenService) RevokeByAccessToken(ctx context.Context, value string) error {
	if err := s.authentic(value); err != nil {
		return err
	}
	at, err := s.store.AccessToken(value)
	if err != nil {
		return err
	}
	s.revokePair(ctx, at.Username, at.ClientID)
	return nil
}

// RevokeByRefreshToken revokes every token of the pair owning the refresh token
func (s *TokenService) RevokeByRefreshToken(ctx context.Context, value string) error {
	if err := s.authentic(value); err != nil {
		return err
	}
	rt, err := s.store.RefreshToken(value)
	if err != nil {
		return err
	}
	s.revokePair(ctx, rt.Username, rt.ClientID)
	return nil
}

// RevokeUserClientTokens unconditionally removes the pair's tokens and
// reports whether anything existed
func (s *TokenService) RevokeUserClientTokens(ctx context.Context, username, clientID string) bool {
	return s.revokePair(ctx, username, clientID)
}

// revokePair drops every token of the pair and hands the removed set to the
// notifier when the client has a registered endpoint. Notification is
// best-effort background work; the revocation itself is already done.
func (s *TokenService) revokePair(ctx context.Context, username, clientID string) bool {
	revoked := s.store.Tokens(username, clientID)
	existed := s.store.RevokePair(username, clientID)
	if !existed {
		return false
	}

	s.logger.Info("Revoked all tokens for pair",
		zap.String("username", username),
		zap.String("client_id", clientID),
		zap.Int("count", len(revoked)))

	if s.notifier != nil && len(revoked) > 0 {
		client, err := s.clientRepo.FindByID(ctx, clientID)
		if err != nil {
			s.logger.Warn("Cannot resolve client for revocation notification",
				zap.String("client_id", clientID),
				zap.Error(err))
			return true
		}
		if client.HasRISCEndpoint() {
			s.notifier.NotifyRevocation(client, revoked)
		}
	}
	return true
}

// StartSweeper launches the background expiry sweep. A single goroutine runs
// the sweeps, so two can never overlap.
func (s *TokenService) StartSweeper() {
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				removed := s.store.SweepExpired(time.Now())
				if removed > 0 {
					s.logger.Info("Swept expired access tokens", zap.Int("removed", removed))
				}
			case <-s.stop:
				return
			}
		}
	}()
}

// StopSweeper stops the background sweep and waits for it to finish
func (s *TokenService) StopSweeper() {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
}

// authentic rejects values this service's codec never produced, so forged
// or truncated tokens fail without a store scan
func (s *TokenService) authentic(value string) error {
	_, _, err := s.codec.Decode(value)
	return err
}

// uniqueAccessValue draws opaque values until one is unused anywhere in the
// store. A genuine collision is a benign race handled by drawing again.
func (s *TokenService) uniqueAccessValue(username, clientID string) (string, error) {
	for {
		value, err := s.codec.Encode(username, clientID)
		if err != nil {
			s.logger.Error("Failed to encode access token", zap.Error(err))
			return "", domain.ErrInternal
		}
		if _, err := s.store.AccessToken(value); errors.Is(err, domain.ErrTokenNotFound) {
			return value, nil
		}
	}
}

func (s *TokenService) uniqueRefreshValue(username, clientID string) (string, error) {
	for {
		value, err := s.codec.Encode(username, clientID)
		if err != nil {
			s.logger.Error("Failed to encode refresh token", zap.Error(err))
			return "", domain.ErrInternal
		}
		if _, err := s.store.RefreshToken(value); errors.Is(err, domain.ErrTokenNotFound) {
			return value, nil
		}
	}
}

// mergeScopes returns the union of both scope sets, keeping first-seen order
func mergeScopes(old, requested []string) []string {
	seen := make(map[string]struct{}, len(old)+len(requested))
	var out []string
	for _, s := range old {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	for _, s := range requested {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}
