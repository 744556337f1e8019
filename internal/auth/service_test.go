package auth_test

import (
	"testing"
	"time"

	"github.com/hugh/finza/internal/auth"
	"github.com/hugh/finza/internal/database/models"
	"github.com/hugh/finza/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*auth.Service, *gorm.DB) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	store := testutil.CreateTestStore(t, db)
	svc := auth.NewService(store, testutil.CreateTestJWTService(), nil, testutil.SilentLogger(), 10)
	return svc, db
}

func TestService_Register(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := testutil.TestContext(t)

	t.Run("creates user and issues token", func(t *testing.T) {
		resp, err := svc.Register(ctx, auth.RegisterInput{
			Email:    "new@example.com",
			Password: "securepassword123",
			Name:     "New User",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, "new@example.com", resp.User.Email)
		assert.Empty(t, resp.GeneratedPassword)
		assert.True(t, resp.User.HasPassword())
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		_, err := svc.Register(ctx, auth.RegisterInput{
			Email:    "dup@example.com",
			Password: "securepassword123",
			Name:     "First",
		})
		require.NoError(t, err)

		_, err = svc.Register(ctx, auth.RegisterInput{
			Email:    "dup@example.com",
			Password: "otherpassword456",
			Name:     "Second",
		})
		assert.Equal(t, auth.ErrDuplicateEmail, err)
	})

	t.Run("email freed by a soft delete can register again", func(t *testing.T) {
		svc, db := newTestService(t)

		first, err := svc.Register(ctx, auth.RegisterInput{
			Email:    "recycled@example.com",
			Password: "securepassword123",
			Name:     "First Owner",
		})
		require.NoError(t, err)
		require.NoError(t, db.Delete(&models.User{}, first.User.ID).Error)

		second, err := svc.Register(ctx, auth.RegisterInput{
			Email:    "recycled@example.com",
			Password: "otherpassword456",
			Name:     "Second Owner",
		})
		require.NoError(t, err)
		assert.NotEqual(t, first.User.ID, second.User.ID)
	})

	t.Run("auto-generates a password on request", func(t *testing.T) {
		resp, err := svc.Register(ctx, auth.RegisterInput{
			Email:                "generated@example.com",
			AutoGeneratePassword: true,
			Name:                 "Generated",
		})
		require.NoError(t, err)
		assert.Len(t, resp.GeneratedPassword, 10)

		// The generated password must actually log in.
		login, err := svc.Login(ctx, auth.LoginInput{
			Email:    "generated@example.com",
			Password: resp.GeneratedPassword,
		})
		require.NoError(t, err)
		assert.Equal(t, resp.User.ID, login.User.ID)
	})
}

func TestService_Login(t *testing.T) {
	svc, db := newTestService(t)
	ctx := testutil.TestContext(t)

	_, err := svc.Register(ctx, auth.RegisterInput{
		Email:    "login@example.com",
		Password: "securepassword123",
		Name:     "Login User",
	})
	require.NoError(t, err)

	t.Run("valid credentials", func(t *testing.T) {
		resp, err := svc.Login(ctx, auth.LoginInput{
			Email:    "login@example.com",
			Password: "securepassword123",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.Token)
	})

	t.Run("email match is case-insensitive", func(t *testing.T) {
		_, err := svc.Login(ctx, auth.LoginInput{
			Email:    "LOGIN@Example.COM",
			Password: "securepassword123",
		})
		assert.NoError(t, err)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, auth.LoginInput{
			Email:    "login@example.com",
			Password: "wrongpassword",
		})
		assert.Equal(t, auth.ErrInvalidCredentials, err)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(ctx, auth.LoginInput{
			Email:    "nobody@example.com",
			Password: "whatever",
		})
		assert.Equal(t, auth.ErrInvalidCredentials, err)
	})

	t.Run("passwordless account cannot log in with a password", func(t *testing.T) {
		googleID := "subject-123"
		user := &models.User{Email: "oauth-only@example.com", GoogleID: &googleID, Name: "OAuth Only"}
		require.NoError(t, db.Create(user).Error)

		_, err := svc.Login(ctx, auth.LoginInput{
			Email:    "oauth-only@example.com",
			Password: "anything",
		})
		// Same error as a wrong password; the account's nature is not leaked.
		assert.Equal(t, auth.ErrInvalidCredentials, err)
	})
}

func TestService_GoogleLogin(t *testing.T) {
	svc, db := newTestService(t)
	ctx := testutil.TestContext(t)

	expiry := time.Now().Add(time.Hour)

	t.Run("creates a passwordless account for a new subject", func(t *testing.T) {
		resp, err := svc.GoogleLogin(ctx, &auth.GoogleProfile{
			SubjectID:    "subject-new",
			Email:        "fresh@example.com",
			Name:         "Fresh",
			Picture:      "https://example.com/p.png",
			AccessToken:  "access-token",
			RefreshToken: "refresh-token",
			Expiry:       &expiry,
		})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.Token)
		assert.False(t, resp.User.HasPassword())
		require.NotNil(t, resp.User.GoogleID)
		assert.Equal(t, "subject-new", *resp.User.GoogleID)

		var count int64
		require.NoError(t, db.Model(&models.OAuthToken{}).
			Where("user_id = ? AND provider = ?", resp.User.ID, "google").
			Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("links an existing account by email", func(t *testing.T) {
		reg, err := svc.Register(ctx, auth.RegisterInput{
			Email:    "linked@example.com",
			Password: "securepassword123",
			Name:     "Linked",
		})
		require.NoError(t, err)

		resp, err := svc.GoogleLogin(ctx, &auth.GoogleProfile{
			SubjectID:   "subject-linked",
			Email:       "linked@example.com",
			Name:        "Linked",
			AccessToken: "access-token",
		})
		require.NoError(t, err)
		assert.Equal(t, reg.User.ID, resp.User.ID)
		require.NotNil(t, resp.User.GoogleID)
		assert.Equal(t, "subject-linked", *resp.User.GoogleID)
		// The password survives the link.
		assert.True(t, resp.User.HasPassword())
	})

	t.Run("repeat login keeps a single token record", func(t *testing.T) {
		first, err := svc.GoogleLogin(ctx, &auth.GoogleProfile{
			SubjectID:   "subject-repeat",
			Email:       "repeat@example.com",
			AccessToken: "token-one",
		})
		require.NoError(t, err)

		_, err = svc.GoogleLogin(ctx, &auth.GoogleProfile{
			SubjectID:   "subject-repeat",
			Email:       "repeat@example.com",
			AccessToken: "token-two",
		})
		require.NoError(t, err)

		var count int64
		require.NoError(t, db.Model(&models.OAuthToken{}).
			Where("user_id = ? AND provider = ?", first.User.ID, "google").
			Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})
}
