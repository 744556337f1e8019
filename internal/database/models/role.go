package models

// AutomationRoleID is the sentinel role for the non-interactive automation
// principal. Session tokens issued for it never expire because the principal
// cannot log in again to refresh them.
const AutomationRoleID uint = 0

// Role names are unique among non-deleted rows only; the partial index lets a
// name freed by a soft delete be claimed again.
type Role struct {
	Base
	Name string `gorm:"uniqueIndex:idx_roles_name,where:deleted_at IS NULL;not null" json:"name"`

	Permissions []Permission `gorm:"many2many:role_has_permissions;joinForeignKey:RoleID;joinReferences:PermissionID" json:"permissions,omitempty"`
}

func (Role) TableName() string {
	return "roles"
}
