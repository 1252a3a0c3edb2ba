package domain

import "context"

// AssertionClaims is the linking identity extracted from a verified
// third-party assertion
type AssertionClaims struct {
	Subject    string
	Email      string
	ExternalID string
}

// AssertionVerifier validates a third-party-issued JWT assertion (issuer,
// audience, signature) and extracts the linking identity
type AssertionVerifier interface {
	Verify(ctx context.Context, assertion string) (*AssertionClaims, error)
}
