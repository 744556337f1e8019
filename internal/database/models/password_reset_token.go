package models

import "time"

// PasswordResetToken is a single-use recovery token. At most one live row per
// user: issuing a new token deletes any prior one. Rows are hard deleted when
// consumed or once older than the storage expiry window.
type PasswordResetToken struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Token     string    `gorm:"uniqueIndex;not null" json:"-"`
	CreatedAt time.Time `json:"created_at"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}

func (PasswordResetToken) TableName() string {
	return "password_reset_tokens"
}
