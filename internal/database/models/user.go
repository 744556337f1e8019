package models

// User is an account holder. Password is nil for accounts created through
// Google sign-in; RoleID is nil until an admin assigns a role. Email and
// google_id are unique among non-deleted rows only, so a soft-deleted
// account's email can be registered again.
type User struct {
	Base
	Email    string  `gorm:"uniqueIndex:idx_users_email,where:deleted_at IS NULL;not null" json:"email"`
	Password *string `gorm:"type:varchar(255)" json:"-"`
	GoogleID *string `gorm:"uniqueIndex:idx_users_google_id,where:deleted_at IS NULL" json:"google_id,omitempty"`
	Image    *string `json:"image,omitempty"`
	Name     string  `json:"name,omitempty"`
	LastName string  `json:"last_name,omitempty"`
	Phone    string  `json:"phone,omitempty"`
	RoleID   *uint   `gorm:"index" json:"role_id,omitempty"`

	Role *Role `gorm:"foreignKey:RoleID" json:"role,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// HasPassword reports whether the account can log in with credentials at all.
func (u *User) HasPassword() bool {
	return u.Password != nil && *u.Password != ""
}
