package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hugh/finza/internal/database/models"
	"github.com/hugh/finza/pkg/crypto"
	"gorm.io/gorm"
)

// Store is the credential persistence adapter. User/role/permission reads go
// through gorm's soft-delete predicate, so deleted rows never surface.
//
// FindUserByEmail and FindUserByID report lookup failures as "not found"
// instead of propagating them. Callers treat nil as an authentication miss;
// the underlying error is only logged.
type Store struct {
	db        *gorm.DB
	encryptor *crypto.Encryptor
	logger    *slog.Logger
}

func NewStore(db *gorm.DB, encryptor *crypto.Encryptor, logger *slog.Logger) *Store {
	return &Store{db: db, encryptor: encryptor, logger: logger}
}

// FindUserByEmail looks up an active user; the match is case-insensitive.
func (s *Store) FindUserByEmail(ctx context.Context, email string) *models.User {
	var user models.User
	err := s.db.WithContext(ctx).
		Preload("Role").
		Where("LOWER(email) = LOWER(?)", email).
		First(&user).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("user lookup by email failed", "error", err)
		}
		return nil
	}
	return &user
}

func (s *Store) FindUserByID(ctx context.Context, id uint) *models.User {
	var user models.User
	err := s.db.WithContext(ctx).
		Preload("Role").
		First(&user, id).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("user lookup by id failed", "error", err)
		}
		return nil
	}
	return &user
}

// FindUserByGoogleIDOrEmail matches either the provider subject id or the
// email, in that order of preference.
func (s *Store) FindUserByGoogleIDOrEmail(ctx context.Context, googleID, email string) *models.User {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("google_id = ? OR LOWER(email) = LOWER(?)", googleID, email).
		First(&user).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("user lookup by google id failed", "error", err)
		}
		return nil
	}
	return &user
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Create(user).Error
}

func (s *Store) UpdateUser(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Save(user).Error
}

func (s *Store) UpdateUserPassword(ctx context.Context, userID uint, hash string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, err
	}
	user.Password = &hash
	if err := s.db.WithContext(ctx).Save(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// OAuthTokenData carries the provider tokens handed back after an exchange.
type OAuthTokenData struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    *time.Time
}

// UpsertOAuthTokens keeps exactly one record per (user, provider). Token
// material is encrypted before it touches the database.
func (s *Store) UpsertOAuthTokens(ctx context.Context, userID uint, provider string, data OAuthTokenData) error {
	access, err := s.encryptor.EncryptString(data.AccessToken)
	if err != nil {
		return err
	}
	var refresh *string
	if data.RefreshToken != "" {
		enc, err := s.encryptor.EncryptString(data.RefreshToken)
		if err != nil {
			return err
		}
		refresh = &enc
	}

	var existing models.OAuthToken
	err = s.db.WithContext(ctx).
		Where("user_id = ? AND provider = ?", userID, provider).
		First(&existing).Error
	switch {
	case err == nil:
		existing.AccessToken = access
		if refresh != nil {
			existing.RefreshToken = refresh
		}
		if data.ExpiresAt != nil {
			existing.ExpiresAt = data.ExpiresAt
		}
		return s.db.WithContext(ctx).Save(&existing).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		record := models.OAuthToken{
			UserID:       userID,
			Provider:     provider,
			AccessToken:  access,
			RefreshToken: refresh,
			ExpiresAt:    data.ExpiresAt,
		}
		return s.db.WithContext(ctx).Create(&record).Error
	default:
		return err
	}
}

// SaveResetToken replaces any prior token for the user, keeping at most one
// live token. Delete and insert are two statements on purpose; concurrent
// requests race last-writer-wins, which is acceptable for a user-initiated,
// self-correcting flow.
func (s *Store) SaveResetToken(ctx context.Context, userID uint, token string) error {
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.PasswordResetToken{}).Error; err != nil {
		return err
	}
	record := models.PasswordResetToken{
		UserID: userID,
		Token:  token,
	}
	return s.db.WithContext(ctx).Create(&record).Error
}

func (s *Store) FindResetToken(ctx context.Context, token string) (*models.PasswordResetToken, error) {
	var record models.PasswordResetToken
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("token = ?", token).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (s *Store) DeleteResetToken(ctx context.Context, token string) error {
	return s.db.WithContext(ctx).
		Where("token = ?", token).
		Delete(&models.PasswordResetToken{}).Error
}

// PurgeExpiredResetTokens removes every token older than the storage window.
func (s *Store) PurgeExpiredResetTokens(ctx context.Context, window time.Duration) error {
	cutoff := time.Now().Add(-window)
	return s.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.PasswordResetToken{}).Error
}
