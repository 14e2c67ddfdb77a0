package service

import (
	"testing"
	"time"

	"letscode/internal/common"
	"letscode/internal/common/security"
	"letscode/internal/platform/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	config.AppConfig = &config.Config{JWTKey: []byte("test-secret"), JWTExp: time.Hour}
	security.InitJWT()
	return NewAuthService(fakeUserRepo{newMemStore()})
}

func TestSignupThenLogin(t *testing.T) {
	svc := newAuthService(t)

	signup, err := svc.Signup(t.Context(), SignupRequest{Username: "ada", Email: "ada@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, signup.Token)
	assert.Empty(t, signup.User.HashedPassword)

	for _, field := range []string{"ada", "ada@example.com"} {
		login, err := svc.Login(t.Context(), LoginRequest{LoginField: field, Password: "correct-horse"})
		require.NoError(t, err, field)
		assert.Equal(t, signup.User.ID, login.User.ID)
	}

	_, err = svc.Login(t.Context(), LoginRequest{LoginField: "ada", Password: "wrong-password"})
	require.ErrorIs(t, err, common.ErrUnauthorized)
	_, err = svc.Login(t.Context(), LoginRequest{LoginField: "nobody", Password: "whatever1"})
	require.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestSignupValidation(t *testing.T) {
	svc := newAuthService(t)

	_, err := svc.Signup(t.Context(), SignupRequest{Username: "ada", Email: "not-an-email", Password: "correct-horse"})
	require.ErrorIs(t, err, common.ErrValidation)
	_, err = svc.Signup(t.Context(), SignupRequest{Username: "ada", Email: "ada@example.com", Password: "short"})
	require.ErrorIs(t, err, common.ErrValidation)

	_, err = svc.Signup(t.Context(), SignupRequest{Username: "ada", Email: "ada@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	_, err = svc.Signup(t.Context(), SignupRequest{Username: "ada", Email: "other@example.com", Password: "correct-horse"})
	require.ErrorIs(t, err, common.ErrConflict)
}
