package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// Task type names
const (
	TypePasswordResetEmail = "email:password_reset"
	TypeWelcomeEmail       = "email:welcome"
	TypeResetTokenPurge    = "auth:purge_reset_tokens"
)

// PasswordResetEmailPayload carries the reset link for one recipient.
type PasswordResetEmailPayload struct {
	Email     string `json:"email"`
	ResetLink string `json:"reset_link"`
}

func NewPasswordResetEmailTask(payload PasswordResetEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypePasswordResetEmail, data, asynq.Queue("critical")), nil
}

// WelcomeEmailPayload carries the one-time temporary password for accounts
// registered with auto-generated credentials.
type WelcomeEmailPayload struct {
	Email             string `json:"email"`
	TemporaryPassword string `json:"temporary_password,omitempty"`
}

func NewWelcomeEmailTask(payload WelcomeEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeWelcomeEmail, data), nil
}

// NewResetTokenPurgeTask is registered on the scheduler; the payload is empty.
func NewResetTokenPurgeTask() *asynq.Task {
	return asynq.NewTask(TypeResetTokenPurge, nil, asynq.Queue("low"))
}
