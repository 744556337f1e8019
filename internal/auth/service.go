package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/hugh/finza/internal/database/models"
	"github.com/hugh/finza/internal/tasks"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateEmail     = errors.New("user already exists with that email")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Enqueuer is the slice of asynq.Client the auth flows need. A nil Enqueuer
// disables email dispatch (the flows still succeed).
type Enqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type Service struct {
	store          *Store
	jwt            *JWTService
	enqueuer       Enqueuer
	logger         *slog.Logger
	passwordLength int
}

func NewService(store *Store, jwt *JWTService, enqueuer Enqueuer, logger *slog.Logger, passwordLength int) *Service {
	if passwordLength <= 0 {
		passwordLength = 10
	}
	return &Service{
		store:          store,
		jwt:            jwt,
		enqueuer:       enqueuer,
		logger:         logger,
		passwordLength: passwordLength,
	}
}

type LoginInput struct {
	Email    string
	Password string
}

type RegisterInput struct {
	Email                string
	Password             string
	AutoGeneratePassword bool
	GoogleID             string
	Image                string
	Name                 string
	LastName             string
	Phone                string
	RoleID               *uint
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
	// GeneratedPassword is returned exactly once, for out-of-band delivery.
	// It is never stored in plaintext.
	GeneratedPassword string `json:"generated_password,omitempty"`
}

// Login never distinguishes "no such user", "OAuth-only account" and "wrong
// password"; all three surface as ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, input LoginInput) (*AuthResponse, error) {
	user := s.store.FindUserByEmail(ctx, input.Email)
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if !user.HasPassword() {
		return nil, ErrInvalidCredentials
	}
	if !CheckPassword(input.Password, *user.Password) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.issueSessionToken(user)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{Token: token, User: user}, nil
}

func (s *Service) Register(ctx context.Context, input RegisterInput) (*AuthResponse, error) {
	user, generated, err := s.CreateUser(ctx, input)
	if err != nil {
		return nil, err
	}

	token, err := s.issueSessionToken(user)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{Token: token, User: user, GeneratedPassword: generated}, nil
}

// CreateUser is the shared creation path for self-registration and
// admin-created accounts. The generated plaintext password, when any, is
// returned once and mailed to the account holder; only the hash is stored.
func (s *Service) CreateUser(ctx context.Context, input RegisterInput) (*models.User, string, error) {
	if existing := s.store.FindUserByEmail(ctx, input.Email); existing != nil {
		return nil, "", ErrDuplicateEmail
	}

	password := input.Password
	generated := ""
	if input.AutoGeneratePassword {
		p, err := GenerateRandomPassword(s.passwordLength)
		if err != nil {
			return nil, "", err
		}
		password = p
		generated = p
	}

	user := models.User{
		Email:    input.Email,
		Name:     input.Name,
		LastName: input.LastName,
		Phone:    input.Phone,
		RoleID:   input.RoleID,
	}
	if password != "" {
		hash, err := HashPassword(password)
		if err != nil {
			return nil, "", err
		}
		user.Password = &hash
	}
	if input.GoogleID != "" {
		user.GoogleID = &input.GoogleID
	}
	if input.Image != "" {
		user.Image = &input.Image
	}

	if err := s.store.CreateUser(ctx, &user); err != nil {
		return nil, "", err
	}

	if generated != "" {
		s.enqueueWelcomeEmail(user.Email, generated)
	}

	return &user, generated, nil
}

// GoogleLogin runs after the provider exchange produced a verified profile.
// An account matching the subject id or the email is linked and refreshed;
// otherwise a passwordless account is created. Either way exactly one OAuth
// token record per (user, provider) remains.
func (s *Service) GoogleLogin(ctx context.Context, profile *GoogleProfile) (*AuthResponse, error) {
	user := s.store.FindUserByGoogleIDOrEmail(ctx, profile.SubjectID, profile.Email)
	if user != nil {
		user.GoogleID = &profile.SubjectID
		if profile.Picture != "" {
			user.Image = &profile.Picture
		}
		if err := s.store.UpdateUser(ctx, user); err != nil {
			return nil, err
		}
	} else {
		user = &models.User{
			Email:    profile.Email,
			GoogleID: &profile.SubjectID,
			Name:     profile.Name,
		}
		if profile.Picture != "" {
			user.Image = &profile.Picture
		}
		if err := s.store.CreateUser(ctx, user); err != nil {
			return nil, err
		}
	}

	token, err := s.issueSessionToken(user)
	if err != nil {
		return nil, err
	}

	if err := s.store.UpsertOAuthTokens(ctx, user.ID, "google", OAuthTokenData{
		AccessToken:  profile.AccessToken,
		RefreshToken: profile.RefreshToken,
		ExpiresAt:    profile.Expiry,
	}); err != nil {
		return nil, err
	}

	return &AuthResponse{Token: token, User: user}, nil
}

func (s *Service) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	user := s.store.FindUserByID(ctx, id)
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *Service) issueSessionToken(user *models.User) (string, error) {
	return s.jwt.GenerateSessionToken(user.ID, user.Email, user.RoleID, s.jwt.ExpiryForRole(user.RoleID))
}

func (s *Service) enqueueWelcomeEmail(email, tempPassword string) {
	if s.enqueuer == nil {
		s.logger.Warn("email queue not configured, skipping welcome email", "email", email)
		return
	}
	task, err := tasks.NewWelcomeEmailTask(tasks.WelcomeEmailPayload{
		Email:             email,
		TemporaryPassword: tempPassword,
	})
	if err != nil {
		s.logger.Error("building welcome email task", "error", err)
		return
	}
	if _, err := s.enqueuer.Enqueue(task); err != nil {
		s.logger.Error("enqueueing welcome email", "error", err)
	}
}
