package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/hugh/finza/internal/database/models"
	"github.com/hugh/finza/pkg/mailer"
	"gorm.io/gorm"
)

type Handler struct {
	db          *gorm.DB
	logger      *slog.Logger
	mailer      mailer.Mailer
	frontendURL string
	resetWindow time.Duration
}

func NewHandler(db *gorm.DB, logger *slog.Logger, m mailer.Mailer, frontendURL string, resetWindow time.Duration) *Handler {
	return &Handler{
		db:          db,
		logger:      logger,
		mailer:      m,
		frontendURL: frontendURL,
		resetWindow: resetWindow,
	}
}

func (h *Handler) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(TypePasswordResetEmail, h.HandlePasswordResetEmail)
	mux.HandleFunc(TypeWelcomeEmail, h.HandleWelcomeEmail)
	mux.HandleFunc(TypeResetTokenPurge, h.HandleResetTokenPurge)
}

func (h *Handler) HandlePasswordResetEmail(ctx context.Context, t *asynq.Task) error {
	var payload PasswordResetEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	h.logger.Info("sending password reset email", "email", payload.Email)

	msg := mailer.Message{
		To:      payload.Email,
		Subject: "Reset your password - Finza",
		Body: "We received a request to reset your password.\n\n" +
			"Use the link below to continue. If you did not request this change, you can ignore this email.",
		ActionTitle: "Reset password",
		ActionURL:   payload.ResetLink,
	}

	if err := h.mailer.Send(ctx, msg); err != nil {
		h.logger.Error("reset email delivery failed", "email", payload.Email, "error", err)
		return err
	}
	return nil
}

func (h *Handler) HandleWelcomeEmail(ctx context.Context, t *asynq.Task) error {
	var payload WelcomeEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	h.logger.Info("sending welcome email", "email", payload.Email)

	body := "Your account has been created.\n"
	if payload.TemporaryPassword != "" {
		body += fmt.Sprintf("\nLogin credentials:\n- Email: %s\n- Temporary password: %s\n\n"+
			"We recommend changing your password after the first login.",
			payload.Email, payload.TemporaryPassword)
	}

	msg := mailer.Message{
		To:          payload.Email,
		Subject:     "Welcome to Finza",
		Body:        body,
		ActionTitle: "Log in",
		ActionURL:   h.frontendURL + "/login",
	}

	if err := h.mailer.Send(ctx, msg); err != nil {
		h.logger.Error("welcome email delivery failed", "email", payload.Email, "error", err)
		return err
	}
	return nil
}

// HandleResetTokenPurge is the scheduled sweep; the flows also purge after
// each issuance, so this only catches tokens from users who never came back.
func (h *Handler) HandleResetTokenPurge(ctx context.Context, t *asynq.Task) error {
	cutoff := time.Now().Add(-h.resetWindow)
	res := h.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.PasswordResetToken{})
	if res.Error != nil {
		return fmt.Errorf("purging reset tokens: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		h.logger.Info("purged expired reset tokens", "count", res.RowsAffected)
	}
	return nil
}
