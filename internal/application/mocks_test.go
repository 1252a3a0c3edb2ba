package application

import (
	"context"

	"github.com/ipede/oauth2-server/internal/domain"
	"github.com/stretchr/testify/mock"
)

// MockClientRepository is a mock implementation of domain.ClientRepository
type MockClientRepository struct {
	mock.Mock
}

func (m *MockClientRepository) FindByID(ctx context.Context, id string) (*domain.ClientDetails, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ClientDetails), args.Error(1)
}

func (m *MockClientRepository) Create(ctx context.Context, client *domain.ClientDetails) error {
	args := m.Called(ctx, client)
	return args.Error(0)
}

func (m *MockClientRepository) Update(ctx context.Context, client *domain.ClientDetails) error {
	args := m.Called(ctx, client)
	return args.Error(0)
}

func (m *MockClientRepository) List(ctx context.Context) ([]*domain.ClientDetails, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*domain.ClientDetails), args.Error(1)
}

func (m *MockClientRepository) Reset(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockUserRepository is a mock implementation of domain.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*domain.UserDetails, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserDetails), args.Error(1)
}

func (m *MockUserRepository) FindByEmailOrExternalID(ctx context.Context, email, externalID string) (*domain.UserDetails, error) {
	args := m.Called(ctx, email, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserDetails), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.UserDetails) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *domain.UserDetails) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) List(ctx context.Context) ([]*domain.UserDetails, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*domain.UserDetails), args.Error(1)
}

func (m *MockUserRepository) Reset(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockCodeStore is a mock implementation of domain.CodeStore
type MockCodeStore struct {
	mock.Mock
}

func (m *MockCodeStore) Save(ctx context.Context, code string, req *domain.OAuth2Request) error {
	args := m.Called(ctx, code, req)
	return args.Error(0)
}

func (m *MockCodeStore) Consume(ctx context.Context, code string) (*domain.OAuth2Request, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OAuth2Request), args.Error(1)
}

func (m *MockCodeStore) Contains(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

// MockCodeService is a mock implementation of domain.CodeService
type MockCodeService struct {
	mock.Mock
}

func (m *MockCodeService) IssueCode(ctx context.Context, req *domain.OAuth2Request) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockCodeService) ConsumeCode(ctx context.Context, code string) (*domain.OAuth2Request, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OAuth2Request), args.Error(1)
}

// MockTokenService is a mock implementation of domain.TokenService
type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) GenerateAccessToken(ctx context.Context, req *domain.OAuth2Request) (*domain.AccessToken, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AccessToken), args.Error(1)
}

func (m *MockTokenService) RefreshAccessToken(ctx context.Context, refreshToken string) (*domain.AccessToken, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AccessToken), args.Error(1)
}

func (m *MockTokenService) LookupRefreshToken(ctx context.Context, refreshToken string) (*domain.RefreshToken, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RefreshToken), args.Error(1)
}

func (m *MockTokenService) LookupAccessToken(ctx context.Context, value string) (*domain.AccessToken, error) {
	args := m.Called(ctx, value)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AccessToken), args.Error(1)
}

func (m *MockTokenService) RevokeByAccessToken(ctx context.Context, value string) error {
	args := m.Called(ctx, value)
	return args.Error(0)
}

func (m *MockTokenService) RevokeByRefreshToken(ctx context.Context, value string) error {
	args := m.Called(ctx, value)
	return args.Error(0)
}

func (m *MockTokenService) RevokeUserClientTokens(ctx context.Context, username, clientID string) bool {
	args := m.Called(ctx, username, clientID)
	return args.Bool(0)
}

// MockAssertionVerifier is a mock implementation of domain.AssertionVerifier
type MockAssertionVerifier struct {
	mock.Mock
}

func (m *MockAssertionVerifier) Verify(ctx context.Context, assertion string) (*domain.AssertionClaims, error) {
	args := m.Called(ctx, assertion)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AssertionClaims), args.Error(1)
}

// MockRevocationNotifier records the revocation notifications it receives
type MockRevocationNotifier struct {
	mock.Mock
}

func (m *MockRevocationNotifier) NotifyRevocation(client *domain.ClientDetails, tokens []domain.RevokedToken) {
	m.Called(client, tokens)
}
