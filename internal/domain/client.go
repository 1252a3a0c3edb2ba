package domain

import (
	"context"
	"time"
)

// ClientDetails represents a registered OAuth2 client.
// Secret holds a bcrypt hash; the plaintext secret is never stored.
// A client with Scoped == false is allowed every scope; a non-empty scope
// set under Scoped == true is an allow-list.
type ClientDetails struct {
	ID           string    `json:"id"`
	Secret       string    `json:"-"`
	Scoped       bool      `json:"scoped"`
	Scopes       []string  `json:"scopes"`
	GrantTypes   []string  `json:"grant_types"`
	RedirectURIs []string  `json:"redirect_uris"`
	RISCURI      string    `json:"risc_uri,omitempty"`
	RISCAudience string    `json:"risc_aud,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AllowsGrantType reports whether the client is registered for the grant type
func (c *ClientDetails) AllowsGrantType(grantType string) bool {
	for _, g := range c.GrantTypes {
		if g == grantType {
			return true
		}
	}
	return false
}

// AllowsRedirectURI reports whether the redirect URI is registered for the client
func (c *ClientDetails) AllowsRedirectURI(uri string) bool {
	for _, u := range c.RedirectURIs {
		if u == uri {
			return true
		}
	}
	return false
}

// AllowsScopes reports whether every requested scope is inside the client's
// allow-list. An unscoped client allows everything.
func (c *ClientDetails) AllowsScopes(scopes []string) bool {
	if !c.Scoped {
		return true
	}
	for _, s := range scopes {
		found := false
		for _, allowed := range c.Scopes {
			if s == allowed {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// HasRISCEndpoint reports whether revocation events can be delivered to the client
func (c *ClientDetails) HasRISCEndpoint() bool {
	return c.RISCURI != ""
}

// ClientRepository defines the interface for client directory access
type ClientRepository interface {
	// FindByID finds a client by its identifier
	FindByID(ctx context.Context, id string) (*ClientDetails, error)

	// Create registers a new client
	Create(ctx context.Context, client *ClientDetails) error

	// Update replaces an existing client record
	Update(ctx context.Context, client *ClientDetails) error

	// List returns every registered client
	List(ctx context.Context) ([]*ClientDetails, error)

	// Reset removes every client record
	Reset(ctx context.Context) error
}
