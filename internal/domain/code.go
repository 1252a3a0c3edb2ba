package domain

import "context"

// CodeStore is the single-use mapping from an authorization code to the
// pending request it represents. Consume is atomic: a code can be redeemed
// exactly once.
type CodeStore interface {
	// Save stores a pending request under the code. Returns ErrCodeExists
	// when the code is already in use.
	Save(ctx context.Context, code string, req *OAuth2Request) error

	// Consume returns the stored request and removes it in the same step.
	// Any later call for the same code returns ErrCodeNotFound.
	Consume(ctx context.Context, code string) (*OAuth2Request, error)

	// Contains reports whether the code is currently in use
	Contains(ctx context.Context, code string) (bool, error)
}

// CodeService generates collision-free authorization codes and owns their
// single-use exchange
type CodeService interface {
	// IssueCode stores the pending request and returns the generated code
	IssueCode(ctx context.Context, req *OAuth2Request) (string, error)

	// ConsumeCode redeems a code exactly once
	ConsumeCode(ctx context.Context, code string) (*OAuth2Request, error)
}
