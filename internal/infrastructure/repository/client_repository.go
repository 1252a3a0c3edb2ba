package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/ipede/oauth2-server/internal/domain"
	"github.com/ipede/oauth2-server/internal/infrastructure/database"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// ClientRepository implements the client directory on PostgreSQL
type ClientRepository struct {
	db     *database.Postgres
	logger *zap.Logger
}

// NewClientRepository creates a new ClientRepository
func NewClientRepository(db *database.Postgres, logger *zap.Logger) *ClientRepository {
	return &ClientRepository{
		db:     db,
		logger: logger,
	}
}

// FindByID finds a client by its identifier
func (r *ClientRepository) FindByID(ctx context.Context, id string) (*domain.ClientDetails, error) {
	client := &domain.ClientDetails{}
	var scopes, grantTypes, redirectURIs []byte

	err := r.db.QueryRow(ctx, `
		SELECT id, secret, scoped, scopes, grant_types, redirect_uris, risc_uri, risc_aud, created_at, updated_at
		FROM oauth2_clients WHERE id = $1
	`, id).Scan(&client.ID, &client.Secret, &client.Scoped, &scopes, &grantTypes, &redirectURIs,
		&client.RISCURI, &client.RISCAudience, &client.CreatedAt, &client.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrClientNotFound
		}
		r.logger.Error("failed to find client", zap.String("client_id", id), zap.Error(err))
		return nil, domain.ErrStorageUnavailable
	}

	if err := unmarshalStrings(scopes, &client.Scopes); err != nil {
		return nil, domain.ErrStorageUnavailable
	}
	if err := unmarshalStrings(grantTypes, &client.GrantTypes); err != nil {
		return nil, domain.ErrStorageUnavailable
	}
	if err := unmarshalStrings(redirectURIs, &client.RedirectURIs); err != nil {
		return nil, domain.ErrStorageUnavailable
	}

	return client, nil
}

// Create registers a new client
func (r *ClientRepository) Create(ctx context.Context, client *domain.ClientDetails) error {
	scopes, grantTypes, redirectURIs, err := marshalClientSets(client)
	if err != nil {
		return domain.ErrStorageUnavailable
	}

	err = r.db.Exec(ctx, `
		INSERT INTO oauth2_clients (id, secret, scoped, scopes, grant_types, redirect_uris, risc_uri, risc_aud, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, client.ID, client.Secret, client.Scoped, scopes, grantTypes, redirectURIs,
		client.RISCURI, client.RISCAudience, client.CreatedAt, client.UpdatedAt)
	if err != nil {
		r.logger.Error("failed to create client", zap.String("client_id", client.ID), zap.Error(err))
		return domain.ErrStorageUnavailable
	}
	return nil
}

// Update replaces an existing client record
func (r *ClientRepository) Update(ctx context.Context, client *domain.ClientDetails) error {
	scopes, grantTypes, redirectURIs, err := marshalClientSets(client)
	if err != nil {
		return domain.ErrStorageUnavailable
	}

	err = r.db.Exec(ctx, `
		UPDATE oauth2_clients
		SET secret = $1, scoped = $2, scopes = $3, grant_types = $4, redirect_uris = $5,
		    risc_uri = $6, risc_aud = $7, updated_at = $8
		WHERE id = $9
	`, client.Secret, client.Scoped, scopes, grantTypes, redirectURIs,
		client.RISCURI, client.RISCAudience, client.UpdatedAt, client.ID)
	if err != nil {
		r.logger.Error("failed to update client", zap.String("client_id", client.ID), zap.Error(err))
		return domain.ErrStorageUnavailable
	}
	return nil
}

// List returns every registered client
func (r *ClientRepository) List(ctx context.Context) ([]*domain.ClientDetails, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, secret, scoped, scopes, grant_types, redirect_uris, risc_uri, risc_aud, created_at, updated_at
		FROM oauth2_clients
		ORDER BY created_at DESC
	`)
	if err != nil {
		r.logger.Error("failed to list clients", zap.Error(err))
		return nil, domain.ErrStorageUnavailable
	}
	defer rows.Close()

	var clients []*domain.ClientDetails
	for rows.Next() {
		client := &domain.ClientDetails{}
		var scopes, grantTypes, redirectURIs []byte

		err := rows.Scan(&client.ID, &client.Secret, &client.Scoped, &scopes, &grantTypes, &redirectURIs,
			&client.RISCURI, &client.RISCAudience, &client.CreatedAt, &client.UpdatedAt)
		if err != nil {
			r.logger.Error("failed to scan client", zap.Error(err))
			return nil, domain.ErrStorageUnavailable
		}

		if err := unmarshalStrings(scopes, &client.Scopes); err != nil {
			return nil, domain.ErrStorageUnavailable
		}
		if err := unmarshalStrings(grantTypes, &client.GrantTypes); err != nil {
			return nil, domain.ErrStorageUnavailable
		}
		if err := unmarshalStrings(redirectURIs, &client.RedirectURIs); err != nil {
			return nil, domain.ErrStorageUnavailable
		}
		clients = append(clients, client)
	}
	return clients, nil
}

// Reset removes every client record
func (r *ClientRepository) Reset(ctx context.Context) error {
	if err := r.db.Exec(ctx, "DELETE FROM oauth2_clients"); err != nil {
		r.logger.Error("failed to reset clients", zap.Error(err))
		return domain.ErrStorageUnavailable
	}
	return nil
}

func marshalClientSets(client *domain.ClientDetails) (scopes, grantTypes, redirectURIs []byte, err error) {
	if scopes, err = json.Marshal(client.Scopes); err != nil {
		return nil, nil, nil, err
	}
	if grantTypes, err = json.Marshal(client.GrantTypes); err != nil {
		return nil, nil, nil, err
	}
	if redirectURIs, err = json.Marshal(client.RedirectURIs); err != nil {
		return nil, nil, nil, err
	}
	return scopes, grantTypes, redirectURIs, nil
}

func unmarshalStrings(raw []byte, out *[]string) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}
