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

func newTestStore(t *testing.T) (*auth.Store, *gorm.DB) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })
	return testutil.CreateTestStore(t, db), db
}

func TestStore_FindUserByEmail(t *testing.T) {
	store, db := newTestStore(t)
	ctx := testutil.TestContext(t)

	user := testutil.CreateTestUser(t, db, nil)

	t.Run("case-insensitive match", func(t *testing.T) {
		got := store.FindUserByEmail(ctx, user.Email)
		require.NotNil(t, got)
		assert.Equal(t, user.ID, got.ID)

		got = store.FindUserByEmail(ctx, "TEST-"+user.Email[5:])
		require.NotNil(t, got)
		assert.Equal(t, user.ID, got.ID)
	})

	t.Run("unknown email is nil", func(t *testing.T) {
		assert.Nil(t, store.FindUserByEmail(ctx, "missing@example.com"))
	})

	t.Run("soft-deleted users never surface", func(t *testing.T) {
		doomed := testutil.CreateTestUser(t, db, nil)
		require.NoError(t, db.Delete(&models.User{}, doomed.ID).Error)

		assert.Nil(t, store.FindUserByEmail(ctx, doomed.Email))
		assert.Nil(t, store.FindUserByID(ctx, doomed.ID))
	})
}

func TestStore_UpsertOAuthTokens(t *testing.T) {
	store, db := newTestStore(t)
	ctx := testutil.TestContext(t)

	user := testutil.CreateTestUser(t, db, nil)

	require.NoError(t, store.UpsertOAuthTokens(ctx, user.ID, "google", auth.OAuthTokenData{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
	}))

	var records []models.OAuthToken
	require.NoError(t, db.Where("user_id = ?", user.ID).Find(&records).Error)
	require.Len(t, records, 1)
	first := records[0]

	// Token material is encrypted before it hits the row.
	assert.NotEqual(t, "access-1", first.AccessToken)
	require.NotNil(t, first.RefreshToken)
	assert.NotEqual(t, "refresh-1", *first.RefreshToken)

	t.Run("second upsert updates in place", func(t *testing.T) {
		expiry := time.Now().Add(time.Hour)
		require.NoError(t, store.UpsertOAuthTokens(ctx, user.ID, "google", auth.OAuthTokenData{
			AccessToken: "access-2",
			ExpiresAt:   &expiry,
		}))

		require.NoError(t, db.Where("user_id = ?", user.ID).Find(&records).Error)
		require.Len(t, records, 1)
		assert.Equal(t, first.ID, records[0].ID)
		assert.NotEqual(t, first.AccessToken, records[0].AccessToken)
		// Refresh token survives an update that omits it.
		assert.Equal(t, first.RefreshToken, records[0].RefreshToken)
		require.NotNil(t, records[0].ExpiresAt)
	})

	t.Run("providers are independent", func(t *testing.T) {
		require.NoError(t, store.UpsertOAuthTokens(ctx, user.ID, "github", auth.OAuthTokenData{
			AccessToken: "gh-access",
		}))

		require.NoError(t, db.Where("user_id = ?", user.ID).Find(&records).Error)
		assert.Len(t, records, 2)
	})
}

func TestStore_ResetTokenLifecycle(t *testing.T) {
	store, db := newTestStore(t)
	ctx := testutil.TestContext(t)

	user := testutil.CreateTestUser(t, db, nil)

	t.Run("save replaces the prior token", func(t *testing.T) {
		require.NoError(t, store.SaveResetToken(ctx, user.ID, "token-a"))
		require.NoError(t, store.SaveResetToken(ctx, user.ID, "token-b"))

		var count int64
		require.NoError(t, db.Model(&models.PasswordResetToken{}).
			Where("user_id = ?", user.ID).Count(&count).Error)
		assert.Equal(t, int64(1), count)

		gone, err := store.FindResetToken(ctx, "token-a")
		require.NoError(t, err)
		assert.Nil(t, gone)
	})

	t.Run("find preloads the owner", func(t *testing.T) {
		record, err := store.FindResetToken(ctx, "token-b")
		require.NoError(t, err)
		require.NotNil(t, record)
		require.NotNil(t, record.User)
		assert.Equal(t, user.Email, record.User.Email)
	})

	t.Run("purge removes only aged rows", func(t *testing.T) {
		other := testutil.CreateTestUser(t, db, nil)
		require.NoError(t, store.SaveResetToken(ctx, other.ID, "token-old"))
		require.NoError(t, db.Model(&models.PasswordResetToken{}).
			Where("token = ?", "token-old").
			Update("created_at", time.Now().Add(-25*time.Hour)).Error)

		require.NoError(t, store.PurgeExpiredResetTokens(ctx, 24*time.Hour))

		var remaining []models.PasswordResetToken
		require.NoError(t, db.Find(&remaining).Error)
		require.Len(t, remaining, 1)
		assert.Equal(t, "token-b", remaining[0].Token)
	})

	t.Run("delete consumes the token", func(t *testing.T) {
		require.NoError(t, store.DeleteResetToken(ctx, "token-b"))

		record, err := store.FindResetToken(ctx, "token-b")
		require.NoError(t, err)
		assert.Nil(t, record)
	})
}
