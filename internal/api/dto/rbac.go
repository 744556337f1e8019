package dto

type RoleRequest struct {
	Name string `json:"name"`
}

func (r RoleRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Name == "" {
		errors["name"] = "Name is required"
	} else if len(r.Name) > 64 {
		errors["name"] = "Name must be at most 64 characters"
	}

	return errors
}

// PermissionRequest carries the compact "resource:action" form; a bare
// resource implies the "access" action.
type PermissionRequest struct {
	Name string `json:"name"`
	Type int    `json:"type"`
}

func (r PermissionRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Name == "" {
		errors["name"] = "Name is required"
	}
	if r.Type < 0 {
		errors["type"] = "Type must not be negative"
	}

	return errors
}

type AssignPermissionsRequest struct {
	PermissionIDs []uint `json:"permission_ids"`
}

type AssignRoleRequest struct {
	RoleID uint `json:"role_id"`
}

type RoleDTO struct {
	ID          uint            `json:"id"`
	Name        string          `json:"name"`
	Permissions []PermissionDTO `json:"permissions,omitempty"`
}

type PermissionDTO struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Resource string `json:"resource"`
	Action   string `json:"action"`
	Type     int    `json:"type"`
}

type RBACStatsResponse struct {
	TotalRoles           int64 `json:"total_roles"`
	TotalPermissions     int64 `json:"total_permissions"`
	RolesWithPermissions int64 `json:"roles_with_permissions"`
}
