package assertion

import (
	"context"
	"crypto/rsa"
	"errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ipede/oauth2-server/internal/domain"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"go.uber.org/zap"
)

// Verifier validates third-party JWT assertions against the identity
// provider's published JWKS. Keys are resolved by kid through a refreshing
// cache, so provider key rotation is picked up without a restart.
type Verifier struct {
	issuer   string
	audience string
	jwksURL  string
	cache    *jwk.Cache
	logger   *zap.Logger
}

// NewVerifier creates a verifier bound to one identity provider. The JWKS is
// fetched eagerly; failure to prime the cache is not fatal, the next
// verification retries the fetch.
func NewVerifier(ctx context.Context, issuer, audience, jwksURL string, logger *zap.Logger) (*Verifier, error) {
	cache := jwk.NewCache(ctx)
	if err := cache.Register(jwksURL); err != nil {
		return nil, err
	}
	if _, err := cache.Refresh(ctx, jwksURL); err != nil {
		logger.Warn("Failed to prime assertion JWKS cache",
			zap.String("jwks_url", jwksURL),
			zap.Error(err))
	}

	return &Verifier{
		issuer:   issuer,
		audience: audience,
		jwksURL:  jwksURL,
		cache:    cache,
		logger:   logger,
	}, nil
}

// Verify parses and signature-checks the assertion, validates issuer and
// audience, and extracts the linking identity
func (v *Verifier) Verify(ctx context.Context, assertion string) (*domain.AssertionClaims, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(assertion, claims, v.keyfunc(ctx),
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		v.logger.Debug("Assertion failed verification", zap.Error(err))
		return nil, domain.NewInvalidRequest("Invalid JWT!")
	}

	issuer, err := claims.GetIssuer()
	if err != nil || issuer != v.issuer {
		v.logger.Debug("Assertion issuer mismatch", zap.String("issuer", issuer))
		return nil, domain.NewInvalidRequest("Invalid JWT iss!")
	}

	if v.audience != "" {
		audience, err := claims.GetAudience()
		if err != nil || !containsAudience(audience, v.audience) {
			v.logger.Debug("Assertion audience mismatch")
			return nil, domain.NewInvalidRequest("Wrong JWT aud!")
		}
	}

	subject, _ := claims.GetSubject()
	email, _ := claims["email"].(string)

	return &domain.AssertionClaims{
		Subject:    subject,
		Email:      email,
		ExternalID: subject,
	}, nil
}

// keyfunc resolves the signing key for an assertion by kid from the cached JWKS
func (v *Verifier) keyfunc(ctx context.Context) jwt.Keyfunc {
	return func(token *jwt.Token) (interface{}, error) {
		set, err := v.cache.Get(ctx, v.jwksURL)
		if err != nil {
			v.logger.Error("Failed to fetch assertion JWKS", zap.Error(err))
			return nil, err
		}

		kid, _ := token.Header["kid"].(string)
		var key jwk.Key
		if kid != "" {
			k, ok := set.LookupKeyID(kid)
			if !ok {
				return nil, errors.New("no key for kid")
			}
			key = k
		} else {
			if set.Len() == 0 {
				return nil, errors.New("empty jwks")
			}
			k, _ := set.Key(0)
			key = k
		}

		var pub rsa.PublicKey
		if err := key.Raw(&pub); err != nil {
			return nil, err
		}
		return &pub, nil
	}
}

func containsAudience(audience []string, expected string) bool {
	for _, a := range audience {
		if a == expected {
			return true
		}
	}
	return false
}
