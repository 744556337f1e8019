package models

import "time"

// OAuthToken stores provider tokens for one (user, provider) pair. Repeated
// logins overwrite in place; there is never more than one row per pair.
// AccessToken and RefreshToken hold age-encrypted ciphertext, never the raw
// provider material.
type OAuthToken struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	UserID       uint       `gorm:"uniqueIndex:idx_user_provider;not null" json:"user_id"`
	Provider     string     `gorm:"uniqueIndex:idx_user_provider;not null" json:"provider"`
	AccessToken  string     `gorm:"not null" json:"-"`
	RefreshToken *string    `json:"-"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}

func (OAuthToken) TableName() string {
	return "user_oauth_tokens"
}
