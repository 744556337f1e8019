package models

// PermissionTypeStandard is the only type the authorization gate matches.
// Other values are carried in the schema for future namespaces but never
// grant access through the default check.
const PermissionTypeStandard = 0

// Permission is identified by the (resource, action, type) triple; the triple
// is unique among non-deleted permissions, so a soft delete frees it.
type Permission struct {
	Base
	Resource string `gorm:"uniqueIndex:idx_permission_triple,where:deleted_at IS NULL;not null" json:"resource"`
	Action   string `gorm:"uniqueIndex:idx_permission_triple;not null" json:"action"`
	Type     int    `gorm:"uniqueIndex:idx_permission_triple;default:0" json:"type"`
}

func (Permission) TableName() string {
	return "permissions"
}

// RoleHasPermission joins one role to one permission. Join rows are hard
// deleted; replace-all assignment rewrites them inside one transaction.
type RoleHasPermission struct {
	RoleID       uint `gorm:"primaryKey" json:"role_id"`
	PermissionID uint `gorm:"primaryKey" json:"permission_id"`
}

func (RoleHasPermission) TableName() string {
	return "role_has_permissions"
}
