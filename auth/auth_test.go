package auth

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "recipes_backend/errors"
	"recipes_backend/store"
)

const testSecret = "test-secret-for-auth-tests"

func newTestService(t *testing.T) *Service {
	t.Helper()
	s, err := store.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	// Cost 4 keeps the tests fast.
	return NewService(s.Users(), testSecret, 4)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "chef", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.NotEqual(t, "password123", user.PasswordHash)

	token, userID, err := svc.Login(ctx, "chef", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, user.ID, userID)

	sub, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, sub)
}

func TestRegisterDuplicate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "chef", "password123")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "chef", "other")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidRequest))
}

func TestRegisterRequiresFields(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Register(context.Background(), " ", "password123")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidRequest))

	_, err = svc.Register(context.Background(), "chef", "")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidRequest))
}

func TestRegisterRejectsLongPassword(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Register(context.Background(), "chef", strings.Repeat("a", 100))
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidRequest))
	assert.Equal(t, "Password must be at most 72 bytes", err.(*apperrors.StructuredError).Message)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "chef", "password123")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "chef", "wrong")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeUnauthorized))

	_, _, err = svc.Login(ctx, "nobody", "password123")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeUnauthorized))
}

func TestValidateTokenRejects(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "chef", "password123")
	require.NoError(t, err)
	token, _, err := svc.Login(ctx, "chef", "password123")
	require.NoError(t, err)

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not-a-token")
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeUnauthorized))
	})

	t.Run("tampered", func(t *testing.T) {
		_, err := svc.ValidateToken(token + "x")
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeUnauthorized))
	})

	t.Run("other secret", func(t *testing.T) {
		other := NewService(nil, "a-completely-different-secret", 4)
		_, err := other.ValidateToken(token)
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeUnauthorized))
	})

	t.Run("expired", func(t *testing.T) {
		svc.now = func() time.Time { return time.Now().Add(tokenTTL + time.Hour) }
		defer func() { svc.now = time.Now }()

		_, err := svc.ValidateToken(token)
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeUnauthorized))
	})
}
