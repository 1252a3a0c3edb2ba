package application

import (
	"context"
	"strings"
	"testing"

	"github.com/ipede/oauth2-server/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCodeService_IssueCode(t *testing.T) {
	ctx := context.Background()
	req := &domain.OAuth2Request{
		Auth: domain.RequestAuth{ClientID: "c1", Username: "alice"},
	}

	t.Run("generates codes from the expected alphabet", func(t *testing.T) {
		store := new(MockCodeStore)
		store.On("Contains", mock.Anything, mock.Anything).Return(false, nil)
		store.On("Save", mock.Anything, mock.Anything, req).Return(nil)
		svc := NewCodeService(store, 10, zap.NewNop())

		code, err := svc.IssueCode(ctx, req)
		require.NoError(t, err)
		assert.Len(t, code, 10)
		for _, r := range code {
			assert.True(t, strings.ContainsRune(codeAlphabet, r), "unexpected character %q", r)
		}
	})

	t.Run("regenerates when the save reports a collision", func(t *testing.T) {
		store := new(MockCodeStore)
		store.On("Contains", mock.Anything, mock.Anything).Return(false, nil)
		store.On("Save", mock.Anything, mock.Anything, req).Return(domain.ErrCodeExists).Once()
		store.On("Save", mock.Anything, mock.Anything, req).Return(nil).Once()
		svc := NewCodeService(store, 10, zap.NewNop())

		code, err := svc.IssueCode(ctx, req)
		require.NoError(t, err)
		assert.Len(t, code, 10)
		store.AssertNumberOfCalls(t, "Save", 2)
	})

	t.Run("regenerates when the code is already in use", func(t *testing.T) {
		store := new(MockCodeStore)
		store.On("Contains", mock.Anything, mock.Anything).Return(true, nil).Once()
		store.On("Contains", mock.Anything, mock.Anything).Return(false, nil).Once()
		store.On("Save", mock.Anything, mock.Anything, req).Return(nil)
		svc := NewCodeService(store, 10, zap.NewNop())

		code, err := svc.IssueCode(ctx, req)
		require.NoError(t, err)
		assert.Len(t, code, 10)
		store.AssertNumberOfCalls(t, "Contains", 2)
		store.AssertNumberOfCalls(t, "Save", 1)
	})

	t.Run("propagates storage failures", func(t *testing.T) {
		store := new(MockCodeStore)
		store.On("Contains", mock.Anything, mock.Anything).Return(false, nil)
		store.On("Save", mock.Anything, mock.Anything, req).Return(domain.ErrStorageUnavailable)
		svc := NewCodeService(store, 10, zap.NewNop())

		_, err := svc.IssueCode(ctx, req)
		assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
	})

	t.Run("honours the configured length", func(t *testing.T) {
		store := new(MockCodeStore)
		store.On("Contains", mock.Anything, mock.Anything).Return(false, nil)
		store.On("Save", mock.Anything, mock.Anything, req).Return(nil)
		svc := NewCodeService(store, 24, zap.NewNop())

		code, err := svc.IssueCode(ctx, req)
		require.NoError(t, err)
		assert.Len(t, code, 24)
	})
}

func TestCodeService_ConsumeCode(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the stored request", func(t *testing.T) {
		stored := &domain.OAuth2Request{Auth: domain.RequestAuth{ClientID: "c1"}}
		store := new(MockCodeStore)
		store.On("Consume", mock.Anything, "abc").Return(stored, nil)
		svc := NewCodeService(store, 10, zap.NewNop())

		req, err := svc.ConsumeCode(ctx, "abc")
		require.NoError(t, err)
		assert.Equal(t, stored, req)
	})

	t.Run("unknown code", func(t *testing.T) {
		store := new(MockCodeStore)
		store.On("Consume", mock.Anything, "gone").Return(nil, domain.ErrCodeNotFound)
		svc := NewCodeService(store, 10, zap.NewNop())

		_, err := svc.ConsumeCode(ctx, "gone")
		assert.ErrorIs(t, err, domain.ErrCodeNotFound)
	})
}
