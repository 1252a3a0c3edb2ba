package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ipede/oauth2-server/internal/domain"
	"github.com/ipede/oauth2-server/internal/infrastructure/password"
	"go.uber.org/zap"
)

// Client is one client entry in a seed document. Secret is plaintext here
// and hashed before it reaches the repository.
type Client struct {
	ID           string   `json:"id"`
	Secret       string   `json:"secret"`
	Scoped       bool     `json:"scoped"`
	Scopes       []string `json:"scopes"`
	GrantTypes   []string `json:"grant_types"`
	RedirectURIs []string `json:"redirect_uris"`
	RISCURI      string   `json:"risc_uri,omitempty"`
	RISCAudience string   `json:"risc_aud,omitempty"`
}

// User is one user entry in a seed document
type User struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	Email      string `json:"email"`
	ExternalID string `json:"external_id,omitempty"`
}

// Document is the JSON shape of a seed file
type Document struct {
	Clients []Client `json:"clients"`
	Users   []User   `json:"users"`
}

// Load reads and parses a seed file
func Load(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	doc := &Document{}
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, fmt.Errorf("parsing seed file: %w", err)
	}
	return doc, nil
}

// Apply registers every seeded client and user. Entries that already exist
// are skipped, so applying the same document twice is harmless.
func Apply(ctx context.Context, doc *Document, clients domain.ClientRepository, users domain.UserRepository, logger *zap.Logger) error {
	now := time.Now()

	for _, c := range doc.Clients {
		if _, err := clients.FindByID(ctx, c.ID); err == nil {
			continue
		}
		hash, err := password.Hash(c.Secret)
		if err != nil {
			return fmt.Errorf("hashing secret for client %s: %w", c.ID, err)
		}
		err = clients.Create(ctx, &domain.ClientDetails{
			ID:           c.ID,
			Secret:       hash,
			Scoped:       c.Scoped,
			Scopes:       c.Scopes,
			GrantTypes:   c.GrantTypes,
			RedirectURIs: c.RedirectURIs,
			RISCURI:      c.RISCURI,
			RISCAudience: c.RISCAudience,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if err != nil {
			return fmt.Errorf("seeding client %s: %w", c.ID, err)
		}
		logger.Info("Seeded client", zap.String("client_id", c.ID))
	}

	for _, u := range doc.Users {
		if _, err := users.FindByUsername(ctx, u.Username); err == nil {
			continue
		}
		hash, err := password.Hash(u.Password)
		if err != nil {
			return fmt.Errorf("hashing password for user %s: %w", u.Username, err)
		}
		err = users.Create(ctx, &domain.UserDetails{
			Username:   u.Username,
			Password:   hash,
			Email:      u.Email,
			ExternalID: u.ExternalID,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
		if err != nil {
			return fmt.Errorf("seeding user %s: %w", u.Username, err)
		}
		logger.Info("Seeded user", zap.String("username", u.Username))
	}

	return nil
}
