package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/ipede/oauth2-server/internal/domain"
	"github.com/ipede/oauth2-server/internal/infrastructure/database"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// CodeStore implements the authorization code store on PostgreSQL. The
// pending request is stored as a JSON payload; consumption deletes and
// returns the row in one statement, so a code can be redeemed at most once
// even across server instances. Rows older than ttl are treated as gone.
type CodeStore struct {
	db     *database.Postgres
	ttl    time.Duration
	logger *zap.Logger
}

// NewCodeStore creates a new CodeStore whose codes expire after ttl
func NewCodeStore(db *database.Postgres, ttl time.Duration, logger *zap.Logger) *CodeStore {
	return &CodeStore{
		db:     db,
		ttl:    ttl,
		logger: logger,
	}
}

// Save stores a pending request under the code
func (s *CodeStore) Save(ctx context.Context, code string, req *domain.OAuth2Request) error {
	payload, err := json.Marshal(req)
	if err != nil {
		s.logger.Error("failed to marshal pending request", zap.Error(err))
		return domain.ErrStorageUnavailable
	}

	tag, err := s.db.ExecRaw(ctx, `
		INSERT INTO authorization_codes (code, payload, created_at)
		VALUES ($1, $2, now())
		ON CONFLICT (code) DO NOTHING
	`, code, payload)
	if err != nil {
		s.logger.Error("failed to store authorization code", zap.Error(err))
		return domain.ErrStorageUnavailable
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCodeExists
	}
	return nil
}

// Consume returns the stored request and removes it in the same statement
func (s *CodeStore) Consume(ctx context.Context, code string) (*domain.OAuth2Request, error) {
	var payload []byte
	var createdAt time.Time
	err := s.db.QueryRow(ctx, `
		DELETE FROM authorization_codes WHERE code = $1 RETURNING payload, created_at
	`, code).Scan(&payload, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCodeNotFound
		}
		s.logger.Error("failed to consume authorization code", zap.Error(err))
		return nil, domain.ErrStorageUnavailable
	}

	// stale codes are deleted by the query above but never redeemed
	if s.ttl > 0 && time.Since(createdAt) > s.ttl {
		return nil, domain.ErrCodeNotFound
	}

	req := &domain.OAuth2Request{}
	if err := json.Unmarshal(payload, req); err != nil {
		s.logger.Error("failed to unmarshal pending request", zap.Error(err))
		return nil, domain.ErrStorageUnavailable
	}
	return req, nil
}

// Contains reports whether the code is currently in use
func (s *CodeStore) Contains(ctx context.Context, code string) (bool, error) {
	var createdAt time.Time
	err := s.db.QueryRow(ctx, `
		SELECT created_at FROM authorization_codes WHERE code = $1
	`, code).Scan(&createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		s.logger.Error("failed to check authorization code", zap.Error(err))
		return false, domain.ErrStorageUnavailable
	}
	if s.ttl > 0 && time.Since(createdAt) > s.ttl {
		return false, nil
	}
	return true, nil
}
