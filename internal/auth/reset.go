package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hugh/finza/internal/tasks"
)

var ErrEmailNotFound = errors.New("email not registered")

// PasswordResetService runs the request → token → verify → consume lifecycle.
// A token is valid only while BOTH its signature window and its store record
// hold: a correctly signed token that was already consumed is still rejected.
type PasswordResetService struct {
	store       *Store
	jwt         *JWTService
	enqueuer    Enqueuer
	logger      *slog.Logger
	frontendURL string
	// resetWindow is the store-side retention for token rows. It is wider
	// than the signature expiry, so the signature check fires first in
	// practice; the store check remains as a safety net.
	resetWindow time.Duration
}

func NewPasswordResetService(store *Store, jwt *JWTService, enqueuer Enqueuer, logger *slog.Logger, frontendURL string, resetWindow time.Duration) *PasswordResetService {
	return &PasswordResetService{
		store:       store,
		jwt:         jwt,
		enqueuer:    enqueuer,
		logger:      logger,
		frontendURL: frontendURL,
		resetWindow: resetWindow,
	}
}

// RequestReset issues a recovery token and mails the reset link. Unlike
// login, this flow does report an unknown email as its own error.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) error {
	user := s.store.FindUserByEmail(ctx, email)
	if user == nil {
		return ErrEmailNotFound
	}

	token, err := s.jwt.GenerateRecoveryToken(email)
	if err != nil {
		return err
	}

	if err := s.store.SaveResetToken(ctx, user.ID, token); err != nil {
		return err
	}

	// Housekeeping sweep after each issuance.
	if err := s.store.PurgeExpiredResetTokens(ctx, s.resetWindow); err != nil {
		s.logger.Error("purging expired reset tokens", "error", err)
	}

	s.enqueueResetEmail(email, s.frontendURL+"/reset-password/"+token)
	return nil
}

// VerifyResetToken returns the email the token authorizes a reset for.
func (s *PasswordResetService) VerifyResetToken(ctx context.Context, token string) (string, error) {
	if _, err := s.jwt.ValidateRecoveryToken(token); err != nil {
		return "", ErrInvalidOrExpiredToken
	}

	record, err := s.store.FindResetToken(ctx, token)
	if err != nil {
		return "", err
	}
	if record == nil {
		// Already consumed, replaced, or never issued.
		return "", ErrInvalidOrExpiredToken
	}

	if time.Since(record.CreatedAt) > s.resetWindow {
		if err := s.store.DeleteResetToken(ctx, token); err != nil {
			s.logger.Error("deleting expired reset token", "error", err)
		}
		s.logger.Debug("reset token past storage window", "user_id", record.UserID)
		return "", ErrInvalidOrExpiredToken
	}

	if record.User == nil {
		return "", ErrUserNotFound
	}
	user := s.store.FindUserByEmail(ctx, record.User.Email)
	if user == nil {
		return "", ErrUserNotFound
	}

	return user.Email, nil
}

// ResetPassword consumes the token: after a successful reset the same token
// can never verify again.
func (s *PasswordResetService) ResetPassword(ctx context.Context, token, newPassword string) error {
	email, err := s.VerifyResetToken(ctx, token)
	if err != nil {
		return err
	}

	user := s.store.FindUserByEmail(ctx, email)
	if user == nil {
		return ErrUserNotFound
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	if _, err := s.store.UpdateUserPassword(ctx, user.ID, hash); err != nil {
		return err
	}

	return s.store.DeleteResetToken(ctx, token)
}

func (s *PasswordResetService) enqueueResetEmail(email, link string) {
	if s.enqueuer == nil {
		s.logger.Warn("email queue not configured, skipping reset email", "email", email)
		return
	}
	task, err := tasks.NewPasswordResetEmailTask(tasks.PasswordResetEmailPayload{
		Email:     email,
		ResetLink: link,
	})
	if err != nil {
		s.logger.Error("building reset email task", "error", err)
		return
	}
	if _, err := s.enqueuer.Enqueue(task); err != nil {
		s.logger.Error("enqueueing reset email", "error", err)
	}
}
