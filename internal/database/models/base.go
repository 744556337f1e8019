package models

import (
	"time"

	"gorm.io/gorm"
)

// Base model with auto-increment primary key, timestamps and soft delete.
// Rows with DeletedAt set are invisible to every normal query; gorm adds the
// deleted_at IS NULL predicate so callers never repeat the check inline.
type Base struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
