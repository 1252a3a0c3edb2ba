package domain

import (
	"context"
	"time"
)

// Token type labels used in revocation events
const (
	TokenTypeAccess  = "access_token"
	TokenTypeRefresh = "refresh_token"
)

// AccessToken represents an issued access token. Value is the opaque string
// handed to the client; the embedded identity is only recoverable through
// the token service's codec.
type AccessToken struct {
	Value        string
	ClientID     string
	Username     string
	Scoped       bool
	Scopes       []string
	ExpiresAt    time.Time
	RefreshToken string
}

// Expired reports whether the token's expiry instant has passed
func (t *AccessToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// ExpiresIn returns the remaining validity in whole seconds
func (t *AccessToken) ExpiresIn(now time.Time) int64 {
	d := t.ExpiresAt.Sub(now)
	if d < 0 {
		return 0
	}
	return int64(d.Seconds())
}

// RefreshToken represents an issued refresh token. At most one live refresh
// token exists per (user, client) pair.
type RefreshToken struct {
	Value    string
	ClientID string
	Username string
	Scoped   bool
	Scopes   []string
}

// RevokedToken describes one token whose revocation relying clients must be
// told about
type RevokedToken struct {
	Value string
	Type  string
}

// TokenStore holds issued tokens indexed username -> clientID. Implementations
// must support concurrent mutation from multiple in-flight requests; the read
// path filters expired access tokens itself.
type TokenStore interface {
	// StoreAccessToken records an access token under its (user, client) pair
	StoreAccessToken(token *AccessToken)

	// StoreRefreshToken records a refresh token, replacing any prior one for
	// the pair
	StoreRefreshToken(token *RefreshToken)

	// AccessToken resolves an access token value anywhere in the store.
	// Returns ErrTokenExpired when present but past expiry, ErrTokenNotFound
	// when absent.
	AccessToken(value string) (*AccessToken, error)

	// RefreshToken resolves a refresh token value anywhere in the store
	RefreshToken(value string) (*RefreshToken, error)

	// RefreshTokenFor returns the live refresh token for a pair, if any
	RefreshTokenFor(username, clientID string) (*RefreshToken, bool)

	// Tokens returns every live token for a pair
	Tokens(username, clientID string) []RevokedToken

	// RevokePair removes every token for the pair and reports whether
	// anything existed
	RevokePair(username, clientID string) bool

	// SweepExpired drops expired access tokens and prunes empty entries,
	// returning the number of tokens removed
	SweepExpired(now time.Time) int
}

// TokenService issues, refreshes, resolves and revokes tokens
type TokenService interface {
	// GenerateAccessToken issues a new access token for the request,
	// producing or replacing the pair's refresh token when the request is
	// refreshable
	GenerateAccessToken(ctx context.Context, req *OAuth2Request) (*AccessToken, error)

	// RefreshAccessToken reissues an access token for the pair owning the
	// refresh token; the refresh token string is kept
	RefreshAccessToken(ctx context.Context, refreshToken string) (*AccessToken, error)

	// LookupRefreshToken resolves a refresh token without issuing anything
	LookupRefreshToken(ctx context.Context, refreshToken string) (*RefreshToken, error)

	// LookupAccessToken resolves a live access token value
	LookupAccessToken(ctx context.Context, value string) (*AccessToken, error)

	// RevokeByAccessToken revokes every token of the pair owning the access
	// token; fails when the token is unknown or already expired
	RevokeByAccessToken(ctx context.Context, value string) error

	// RevokeByRefreshToken revokes every token of the pair owning the
	// refresh token
	RevokeByRefreshToken(ctx context.Context, value string) error

	// RevokeUserClientTokens unconditionally removes the pair's tokens and
	// reports whether anything existed
	RevokeUserClientTokens(ctx context.Context, username, clientID string) bool
}

// RevocationNotifier is told about bulk revocations so relying clients can be
// informed. Delivery is best-effort background work; callers never block on it.
type RevocationNotifier interface {
	NotifyRevocation(client *ClientDetails, tokens []RevokedToken)
}
