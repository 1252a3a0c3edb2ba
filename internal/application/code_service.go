package application

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"

	"github.com/ipede/oauth2-server/internal/domain"
	"go.uber.org/zap"
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// CodeService generates collision-free authorization codes and delegates
// storage to the code store
type CodeService struct {
	store      domain.CodeStore
	codeLength int
	logger     *zap.Logger
}

// NewCodeService creates a new CodeService
func NewCodeService(store domain.CodeStore, codeLength int, logger *zap.Logger) *CodeService {
	return &CodeService{
		store:      store,
		codeLength: codeLength,
		logger:     logger,
	}
}

// IssueCode stores the pending request under a freshly generated code.
// On a store-reported collision it simply draws again; at 10 characters over
// a 62-character alphabet the loop is not expected to ever repeat.
func (s *CodeService) IssueCode(ctx context.Context, req *domain.OAuth2Request) (string, error) {
	for {
		code, err := s.generate()
		if err != nil {
			s.logger.Error("Failed to generate authorization code", zap.Error(err))
			return "", domain.ErrInternal
		}

		// cheap pre-check; Save stays authoritative under concurrent issues
		used, err := s.store.Contains(ctx, code)
		if err != nil {
			s.logger.Error("Failed to check authorization code", zap.Error(err))
			return "", err
		}
		if used {
			s.logger.Warn("Authorization code collision, regenerating")
			continue
		}

		err = s.store.Save(ctx, code, req)
		if errors.Is(err, domain.ErrCodeExists) {
			s.logger.Warn("Authorization code collision, regenerating")
			continue
		}
		if err != nil {
			s.logger.Error("Failed to store authorization code", zap.Error(err))
			return "", err
		}

		s.logger.Debug("Issued authorization code",
			zap.String("client_id", req.Auth.ClientID),
			zap.String("username", req.Auth.Username))
		return code, nil
	}
}

// ConsumeCode redeems a code exactly once; later calls for the same code
// report it as unknown
func (s *CodeService) ConsumeCode(ctx context.Context, code string) (*domain.OAuth2Request, error) {
	req, err := s.store.Consume(ctx, code)
	if err != nil {
		s.logger.Debug("Failed to consume authorization code", zap.Error(err))
		return nil, err
	}
	return req, nil
}

// generate draws each character from a uniform distribution over the
// alphabet, so no alphabet index is favoured
func (s *CodeService) generate() (string, error) {
	max := big.NewInt(int64(len(codeAlphabet)))
	out := make([]byte, s.codeLength)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = codeAlphabet[n.Int64()]
	}
	return string(out), nil
}
