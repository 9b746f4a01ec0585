package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	"github.com/aura-events/backend/internal/testutil"
	"github.com/aura-events/backend/pkg/apperror"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db := testutil.OpenSQLite(t)
	return NewService(NewRepository(db), NewJWTService("test-secret", 1), bcrypt.MinCost, zaptest.NewLogger(t))
}

func TestSignupAndAuthenticate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	res, err := svc.Signup(ctx, "Jane Doe", " Jane@Example.com ", "secret1")
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)
	require.Equal(t, "jane@example.com", res.User.Email)
	require.Equal(t, "Jane Doe", res.User.Name)

	id, err := svc.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	require.Equal(t, res.User.ID, id.UserID)
	require.Equal(t, "jane@example.com", id.Email)
}

func TestSignupValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, "", "a@example.com", "secret1")
	require.ErrorIs(t, err, ErrSignupFieldsRequired)

	_, err = svc.Signup(ctx, "A", "a@example.com", "12345")
	require.ErrorIs(t, err, ErrPasswordTooShort)

	_, err = svc.Signup(ctx, "A", "not-an-email", "secret1")
	require.ErrorIs(t, err, ErrInvalidEmail)

	_, err = svc.Signup(ctx, "A", "a@example.com", "secret1")
	require.NoError(t, err)
	_, err = svc.Signup(ctx, "B", "A@example.com", "secret2")
	require.ErrorIs(t, err, ErrEmailTaken)
	require.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestLoginSupersedesEarlierToken(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first, err := svc.Signup(ctx, "Sam", "sam@example.com", "hunter22")
	require.NoError(t, err)
	second, err := svc.Login(ctx, "sam@example.com", "hunter22")
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, first.Token)
	require.ErrorIs(t, err, ErrSessionSuperseded)
	_, err = svc.Authenticate(ctx, second.Token)
	require.NoError(t, err)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	_, err := svc.Signup(ctx, "Kim", "kim@example.com", "correct-horse")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "kim@example.com", "wrong-horse")
	require.ErrorIs(t, err, ErrBadCredentials)
	_, err = svc.Login(ctx, "nobody@example.com", "correct-horse")
	require.ErrorIs(t, err, ErrBadCredentials)
	_, err = svc.Login(ctx, "", "")
	require.ErrorIs(t, err, ErrLoginFieldsRequired)
}

func TestLogoutInvalidatesToken(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	res, err := svc.Signup(ctx, "Lee", "lee@example.com", "secret1")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, res.Token))

	_, err = svc.Authenticate(ctx, res.Token)
	require.ErrorIs(t, err, ErrSessionSuperseded)
	require.Error(t, svc.Logout(ctx, res.Token))
}

func TestAuthenticateRejectsForeignAndExpiredTokens(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	res, err := svc.Signup(ctx, "Max", "max@example.com", "secret1")
	require.NoError(t, err)

	forged, _, err := NewJWTService("other-secret", 1).Generate(res.User.ID, res.User.Email)
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, forged)
	require.ErrorIs(t, err, ErrTokenRejected)

	expired, _, err := NewJWTService("test-secret", -1).Generate(res.User.ID, res.User.Email)
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, expired)
	require.ErrorIs(t, err, ErrTokenRejected)

	_, err = svc.Authenticate(ctx, "garbage")
	require.ErrorIs(t, err, ErrTokenRejected)
}
