package repository

import (
	"context"
	"errors"

	"github.com/ipede/oauth2-server/internal/domain"
	"github.com/ipede/oauth2-server/internal/infrastructure/database"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// UserRepository implements the user directory on PostgreSQL
type UserRepository struct {
	db     *database.Postgres
	logger *zap.Logger
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *database.Postgres, logger *zap.Logger) *UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

// FindByUsername finds a user by username
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.UserDetails, error) {
	user := &domain.UserDetails{}
	err := r.db.QueryRow(ctx, `
		SELECT username, password, email, external_id, created_at, updated_at
		FROM users WHERE username = $1
	`, username).Scan(&user.Username, &user.Password, &user.Email, &user.ExternalID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		r.logger.Error("failed to find user by username", zap.Error(err))
		return nil, domain.ErrStorageUnavailable
	}
	return user, nil
}

// FindByEmailOrExternalID finds a user matching either the email or the
// external account id
func (r *UserRepository) FindByEmailOrExternalID(ctx context.Context, email, externalID string) (*domain.UserDetails, error) {
	user := &domain.UserDetails{}
	err := r.db.QueryRow(ctx, `
		SELECT username, password, email, external_id, created_at, updated_at
		FROM users
		WHERE (email = $1 AND $1 <> '') OR (external_id = $2 AND $2 <> '')
		LIMIT 1
	`, email, externalID).Scan(&user.Username, &user.Password, &user.Email, &user.ExternalID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		r.logger.Error("failed to find user by email or external id", zap.Error(err))
		return nil, domain.ErrStorageUnavailable
	}
	return user, nil
}

// Create registers a new user
func (r *UserRepository) Create(ctx context.Context, user *domain.UserDetails) error {
	err := r.db.Exec(ctx, `
		INSERT INTO users (username, password, email, external_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, user.Username, user.Password, user.Email, user.ExternalID, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		r.logger.Error("failed to create user", zap.String("username", user.Username), zap.Error(err))
		return domain.ErrStorageUnavailable
	}
	return nil
}

// Update replaces an existing user record
func (r *UserRepository) Update(ctx context.Context, user *domain.UserDetails) error {
	err := r.db.Exec(ctx, `
		UPDATE users
		SET password = $1, email = $2, external_id = $3, updated_at = $4
		WHERE username = $5
	`, user.Password, user.Email, user.ExternalID, user.UpdatedAt, user.Username)
	if err != nil {
		r.logger.Error("failed to update user", zap.String("username", user.Username), zap.Error(err))
		return domain.ErrStorageUnavailable
	}
	return nil
}

// List returns every registered user
func (r *UserRepository) List(ctx context.Context) ([]*domain.UserDetails, error) {
	rows, err := r.db.Query(ctx, `
		SELECT username, password, email, external_id, created_at, updated_at
		FROM users
		ORDER BY created_at DESC
	`)
	if err != nil {
		r.logger.Error("failed to list users", zap.Error(err))
		return nil, domain.ErrStorageUnavailable
	}
	defer rows.Close()

	var users []*domain.UserDetails
	for rows.Next() {
		user := &domain.UserDetails{}
		err := rows.Scan(&user.Username, &user.Password, &user.Email, &user.ExternalID, &user.CreatedAt, &user.UpdatedAt)
		if err != nil {
			r.logger.Error("failed to scan user", zap.Error(err))
			return nil, domain.ErrStorageUnavailable
		}
		users = append(users, user)
	}
	return users, nil
}

// Reset removes every user record
func (r *UserRepository) Reset(ctx context.Context) error {
	if err := r.db.Exec(ctx, "DELETE FROM users"); err != nil {
		r.logger.Error("failed to reset users", zap.Error(err))
		return domain.ErrStorageUnavailable
	}
	return nil
}
