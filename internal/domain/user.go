package domain

import (
	"context"
	"time"
)

// LinkedUsernamePrefix marks synthetic usernames created through account linking
const LinkedUsernamePrefix = "link"

// UserDetails represents a user in the directory. Password holds a bcrypt
// hash. ExternalID is the identifier asserted by a third-party identity
// provider for linked accounts; it is empty for purely local users.
type UserDetails struct {
	Username   string    `json:"username"`
	Password   string    `json:"-"`
	Email      string    `json:"email"`
	ExternalID string    `json:"external_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// LinkedUsername derives the synthetic username for an account created
// through the jwt-bearer linking flow
func LinkedUsername(clientID, email string) string {
	return LinkedUsernamePrefix + ":" + clientID + ":" + email
}

// NewLinkedUser creates a user record for an identity that only exists
// through account linking
func NewLinkedUser(clientID, email, externalID string) *UserDetails {
	now := time.Now()
	return &UserDetails{
		Username:   LinkedUsername(clientID, email),
		Email:      email,
		ExternalID: externalID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// UserRepository defines the interface for user directory access
type UserRepository interface {
	// FindByUsername finds a user by username
	FindByUsername(ctx context.Context, username string) (*UserDetails, error)

	// FindByEmailOrExternalID finds a user matching either the email or the
	// external account id
	FindByEmailOrExternalID(ctx context.Context, email, externalID string) (*UserDetails, error)

	// Create registers a new user
	Create(ctx context.Context, user *UserDetails) error

	// Update replaces an existing user record
	Update(ctx context.Context, user *UserDetails) error

	// List returns every registered user
	List(ctx context.Context) ([]*UserDetails, error)

	// Reset removes every user record
	Reset(ctx context.Context) error
}
