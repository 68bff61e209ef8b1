package services

import (
	"context"
	"testing"

	"shelftrack/internal/adapters/persistence/models"
	"shelftrack/internal/adapters/persistence/repositories"
	"shelftrack/internal/config"
	"shelftrack/internal/pkg/password"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func testConfig() *config.Config {
	return &config.Config{
		AppMode: "dev",
		JWT: config.JWTConfig{
			Secret:           "test-access-secret",
			RefreshSecret:    "test-refresh-secret",
			AccessTokenMins:  15,
			RefreshTokenDays: 7,
		},
	}
}

func newAuthService(t *testing.T, db *gorm.DB) *AuthService {
	userRepo := repositories.NewUserRepository(db)
	tokenRepo := repositories.NewRefreshTokenRepository(db)
	return NewAuthService(userRepo, tokenRepo, testConfig())
}

func registerTestUser(t *testing.T, svc *AuthService) *AuthResponse {
	resp, err := svc.Register(context.Background(), &RegisterInput{
		Username: "librarian1",
		Email:    "librarian1@example.com",
		Password: "secret-password",
		FullName: "Libby Rarian",
	})
	require.NoError(t, err)
	return resp
}

func TestAuthService_Register(t *testing.T) {
	db := setupTestDB(t)
	svc := newAuthService(t, db)

	resp := registerTestUser(t, svc)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "USER", resp.User.Role)

	// Stored password is hashed, never plaintext
	var stored models.User
	require.NoError(t, db.First(&stored, resp.User.ID).Error)
	assert.NotEqual(t, "secret-password", stored.Password)
	assert.True(t, password.Verify("secret-password", stored.Password))

	t.Run("duplicate username rejected", func(t *testing.T) {
		_, err := svc.Register(context.Background(), &RegisterInput{
			Username: "librarian1",
			Email:    "other@example.com",
			Password: "secret-password",
			FullName: "Other",
		})
		assert.ErrorIs(t, err, ErrUserAlreadyExists)
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		_, err := svc.Register(context.Background(), &RegisterInput{
			Username: "librarian2",
			Email:    "librarian1@example.com",
			Password: "secret-password",
			FullName: "Other",
		})
		assert.ErrorIs(t, err, ErrUserAlreadyExists)
	})
}

func TestAuthService_Login(t *testing.T) {
	db := setupTestDB(t)
	svc := newAuthService(t, db)
	registerTestUser(t, svc)

	t.Run("valid credentials", func(t *testing.T) {
		resp, err := svc.Login(context.Background(), &LoginInput{
			Email:    "librarian1@example.com",
			Password: "secret-password",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.AccessToken)
		assert.Equal(t, "librarian1", resp.User.Username)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(context.Background(), &LoginInput{
			Email:    "librarian1@example.com",
			Password: "wrong",
		})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(context.Background(), &LoginInput{
			Email:    "nobody@example.com",
			Password: "secret-password",
		})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("inactive user", func(t *testing.T) {
		require.NoError(t, db.Model(&models.User{}).
			Where("username = ?", "librarian1").
			Update("is_active", false).Error)

		_, err := svc.Login(context.Background(), &LoginInput{
			Email:    "librarian1@example.com",
			Password: "secret-password",
		})
		assert.ErrorIs(t, err, ErrUserInactive)
	})
}

func TestAuthService_RefreshToken(t *testing.T) {
	t.Run("rotation invalidates the old token", func(t *testing.T) {
		db := setupTestDB(t)
		svc := newAuthService(t, db)
		initial := registerTestUser(t, svc)

		refreshed, err := svc.RefreshToken(context.Background(), initial.RefreshToken)
		require.NoError(t, err)
		assert.NotEmpty(t, refreshed.AccessToken)
		assert.NotEqual(t, initial.RefreshToken, refreshed.RefreshToken)

		// The consumed token is revoked and cannot be replayed
		_, err = svc.RefreshToken(context.Background(), initial.RefreshToken)
		assert.ErrorIs(t, err, ErrTokenRevoked)
	})

	t.Run("garbage token rejected", func(t *testing.T) {
		db := setupTestDB(t)
		svc := newAuthService(t, db)

		_, err := svc.RefreshToken(context.Background(), "not-a-jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestAuthService_Logout(t *testing.T) {
	db := setupTestDB(t)
	svc := newAuthService(t, db)
	initial := registerTestUser(t, svc)

	require.NoError(t, svc.Logout(context.Background(), initial.RefreshToken))

	_, err := svc.RefreshToken(context.Background(), initial.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}

func TestAuthService_LogoutAll(t *testing.T) {
	db := setupTestDB(t)
	svc := newAuthService(t, db)
	initial := registerTestUser(t, svc)

	// Two live sessions
	second, err := svc.Login(context.Background(), &LoginInput{
		Email:    "librarian1@example.com",
		Password: "secret-password",
	})
	require.NoError(t, err)

	require.NoError(t, svc.LogoutAll(context.Background(), initial.User.ID))

	_, err = svc.RefreshToken(context.Background(), initial.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)
	_, err = svc.RefreshToken(context.Background(), second.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}

func TestAuthService_Me(t *testing.T) {
	db := setupTestDB(t)
	svc := newAuthService(t, db)
	initial := registerTestUser(t, svc)

	me, err := svc.Me(context.Background(), initial.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "librarian1", me.Username)

	_, err = svc.Me(context.Background(), 999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
