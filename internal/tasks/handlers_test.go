package tasks_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/hugh/finza/internal/database/models"
	"github.com/hugh/finza/internal/tasks"
	"github.com/hugh/finza/internal/testutil"
	"github.com/hugh/finza/pkg/mailer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeMailer struct {
	sent []mailer.Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg mailer.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func newTaskHandler(t *testing.T) (*tasks.Handler, *fakeMailer, *gorm.DB) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	fm := &fakeMailer{}
	h := tasks.NewHandler(db, testutil.SilentLogger(), fm, "http://localhost:3000", 24*time.Hour)
	return h, fm, db
}

func TestHandlePasswordResetEmail(t *testing.T) {
	h, fm, _ := newTaskHandler(t)
	ctx := testutil.TestContext(t)

	task, err := tasks.NewPasswordResetEmailTask(tasks.PasswordResetEmailPayload{
		Email:     "user@example.com",
		ResetLink: "http://localhost:3000/reset-password?token=abc",
	})
	require.NoError(t, err)

	t.Run("delivers the reset link", func(t *testing.T) {
		require.NoError(t, h.HandlePasswordResetEmail(ctx, task))
		require.Len(t, fm.sent, 1)

		msg := fm.sent[0]
		assert.Equal(t, "user@example.com", msg.To)
		assert.Contains(t, msg.Subject, "Reset your password")
		assert.Equal(t, "http://localhost:3000/reset-password?token=abc", msg.ActionURL)
	})

	t.Run("propagates delivery failures for retry", func(t *testing.T) {
		fm.err = errors.New("smtp unavailable")
		assert.Error(t, h.HandlePasswordResetEmail(ctx, task))
		fm.err = nil
	})

	t.Run("rejects a malformed payload", func(t *testing.T) {
		bad := asynq.NewTask(tasks.TypePasswordResetEmail, []byte("not json"))
		assert.Error(t, h.HandlePasswordResetEmail(ctx, bad))
	})
}

func TestHandleWelcomeEmail(t *testing.T) {
	h, fm, _ := newTaskHandler(t)
	ctx := testutil.TestContext(t)

	t.Run("includes the temporary password when present", func(t *testing.T) {
		task, err := tasks.NewWelcomeEmailTask(tasks.WelcomeEmailPayload{
			Email:             "new@example.com",
			TemporaryPassword: "s3cretTemp!",
		})
		require.NoError(t, err)

		require.NoError(t, h.HandleWelcomeEmail(ctx, task))
		require.Len(t, fm.sent, 1)

		msg := fm.sent[0]
		assert.Equal(t, "new@example.com", msg.To)
		assert.Contains(t, msg.Body, "s3cretTemp!")
		assert.Equal(t, "http://localhost:3000/login", msg.ActionURL)
	})

	t.Run("omits credentials when none were generated", func(t *testing.T) {
		task, err := tasks.NewWelcomeEmailTask(tasks.WelcomeEmailPayload{
			Email: "plain@example.com",
		})
		require.NoError(t, err)

		require.NoError(t, h.HandleWelcomeEmail(ctx, task))
		require.Len(t, fm.sent, 2)
		assert.NotContains(t, fm.sent[1].Body, "Temporary password")
	})
}

func TestHandleResetTokenPurge(t *testing.T) {
	h, _, db := newTaskHandler(t)
	ctx := testutil.TestContext(t)

	user := testutil.CreateTestUser(t, db, nil)
	other := testutil.CreateTestUser(t, db, nil)

	fresh := models.PasswordResetToken{UserID: user.ID, Token: "fresh-token"}
	require.NoError(t, db.Create(&fresh).Error)

	stale := models.PasswordResetToken{UserID: other.ID, Token: "stale-token"}
	require.NoError(t, db.Create(&stale).Error)
	require.NoError(t, db.Model(&stale).
		Update("created_at", time.Now().Add(-25*time.Hour)).Error)

	require.NoError(t, h.HandleResetTokenPurge(ctx, tasks.NewResetTokenPurgeTask()))

	var remaining []models.PasswordResetToken
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, "fresh-token", remaining[0].Token)

	// A second sweep with nothing stale is a no-op.
	require.NoError(t, h.HandleResetTokenPurge(ctx, tasks.NewResetTokenPurgeTask()))
	require.NoError(t, db.Find(&remaining).Error)
	assert.Len(t, remaining, 1)
}
