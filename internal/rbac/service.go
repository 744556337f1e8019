package rbac

import (
	"context"
	"errors"
	"strings"

	"github.com/hugh/finza/internal/database/models"
	"gorm.io/gorm"
)

var (
	ErrRoleNotFound          = errors.New("role not found")
	ErrPermissionNotFound    = errors.New("permission not found")
	ErrDuplicateRoleName     = errors.New("role name already exists")
	ErrDuplicatePermission   = errors.New("permission already exists")
	ErrPermissionNotAssigned = errors.New("role does not have that permission")
)

// Service manages roles, permissions and their assignments.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// ParsePermissionName splits "resource:action" into its parts. A bare
// resource gets the default "access" action.
func ParsePermissionName(name string) (resource, action string) {
	parts := strings.SplitN(strings.TrimSpace(name), ":", 2)
	resource = parts[0]
	action = "access"
	if len(parts) > 1 && parts[1] != "" {
		action = parts[1]
	}
	return resource, action
}

// ===== Roles =====

func (s *Service) CreateRole(ctx context.Context, name string) (*models.Role, error) {
	name = strings.TrimSpace(name)
	exists, err := s.roleNameExists(ctx, name, 0)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateRoleName
	}

	role := models.Role{Name: name}
	if err := s.db.WithContext(ctx).Create(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (s *Service) ListRoles(ctx context.Context) ([]models.Role, error) {
	var roles []models.Role
	err := s.db.WithContext(ctx).
		Preload("Permissions").
		Order("name").
		Find(&roles).Error
	return roles, err
}

func (s *Service) GetRole(ctx context.Context, id uint) (*models.Role, error) {
	var role models.Role
	err := s.db.WithContext(ctx).
		Preload("Permissions").
		First(&role, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, err
	}
	return &role, nil
}

func (s *Service) UpdateRole(ctx context.Context, id uint, name string) (*models.Role, error) {
	var role models.Role
	if err := s.db.WithContext(ctx).First(&role, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, err
	}

	name = strings.TrimSpace(name)
	exists, err := s.roleNameExists(ctx, name, id)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateRoleName
	}

	role.Name = name
	if err := s.db.WithContext(ctx).Save(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (s *Service) DeleteRole(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Role{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRoleNotFound
	}
	return nil
}

// ===== Permissions =====

func (s *Service) CreatePermission(ctx context.Context, resource, action string, ptype int) (*models.Permission, error) {
	exists, err := s.permissionTripleExists(ctx, resource, action, ptype, 0)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicatePermission
	}

	permission := models.Permission{Resource: resource, Action: action, Type: ptype}
	if err := s.db.WithContext(ctx).Create(&permission).Error; err != nil {
		return nil, err
	}
	return &permission, nil
}

func (s *Service) ListPermissions(ctx context.Context) ([]models.Permission, error) {
	var permissions []models.Permission
	err := s.db.WithContext(ctx).
		Order("resource, action").
		Find(&permissions).Error
	return permissions, err
}

func (s *Service) GetPermission(ctx context.Context, id uint) (*models.Permission, error) {
	var permission models.Permission
	err := s.db.WithContext(ctx).First(&permission, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPermissionNotFound
		}
		return nil, err
	}
	return &permission, nil
}

func (s *Service) UpdatePermission(ctx context.Context, id uint, resource, action string, ptype int) (*models.Permission, error) {
	var permission models.Permission
	if err := s.db.WithContext(ctx).First(&permission, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPermissionNotFound
		}
		return nil, err
	}

	exists, err := s.permissionTripleExists(ctx, resource, action, ptype, id)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicatePermission
	}

	permission.Resource = resource
	permission.Action = action
	permission.Type = ptype
	if err := s.db.WithContext(ctx).Save(&permission).Error; err != nil {
		return nil, err
	}
	return &permission, nil
}

func (s *Service) DeletePermission(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Permission{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrPermissionNotFound
	}
	return nil
}

// ===== Assignment =====

// AssignPermissions replaces the role's entire permission set. Delete and
// insert run in one transaction so no request ever observes the role with
// half its permissions; the empty set is a valid replacement.
func (s *Service) AssignPermissions(ctx context.Context, roleID uint, permissionIDs []uint) error {
	if err := s.requireRole(ctx, roleID); err != nil {
		return err
	}
	for _, id := range permissionIDs {
		if _, err := s.GetPermission(ctx, id); err != nil {
			return err
		}
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("role_id = ?", roleID).
			Delete(&models.RoleHasPermission{}).Error; err != nil {
			return err
		}
		if len(permissionIDs) == 0 {
			return nil
		}
		assignments := make([]models.RoleHasPermission, 0, len(permissionIDs))
		for _, id := range permissionIDs {
			assignments = append(assignments, models.RoleHasPermission{
				RoleID:       roleID,
				PermissionID: id,
			})
		}
		return tx.Create(&assignments).Error
	})
}

func (s *Service) RolePermissions(ctx context.Context, roleID uint) ([]models.Permission, error) {
	if err := s.requireRole(ctx, roleID); err != nil {
		return nil, err
	}

	var permissions []models.Permission
	err := s.db.WithContext(ctx).
		Joins("INNER JOIN role_has_permissions rhp ON rhp.permission_id = permissions.id").
		Where("rhp.role_id = ?", roleID).
		Order("permissions.resource, permissions.action").
		Find(&permissions).Error
	return permissions, err
}

func (s *Service) RoleHasPermission(ctx context.Context, roleID, permissionID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.RoleHasPermission{}).
		Where("role_id = ? AND permission_id = ?", roleID, permissionID).
		Count(&count).Error
	return count > 0, err
}

func (s *Service) RemovePermission(ctx context.Context, roleID, permissionID uint) error {
	if err := s.requireRole(ctx, roleID); err != nil {
		return err
	}
	if _, err := s.GetPermission(ctx, permissionID); err != nil {
		return err
	}
	has, err := s.RoleHasPermission(ctx, roleID, permissionID)
	if err != nil {
		return err
	}
	if !has {
		return ErrPermissionNotAssigned
	}

	return s.db.WithContext(ctx).
		Where("role_id = ? AND permission_id = ?", roleID, permissionID).
		Delete(&models.RoleHasPermission{}).Error
}

// ===== User role assignment =====

func (s *Service) AssignRoleToUser(ctx context.Context, userID, roleID uint) error {
	if err := s.requireRole(ctx, roleID); err != nil {
		return err
	}
	res := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("role_id", roleID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *Service) RemoveRoleFromUser(ctx context.Context, userID uint) error {
	res := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("role_id", nil)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ===== Stats =====

type Stats struct {
	TotalRoles           int64 `json:"total_roles"`
	TotalPermissions     int64 `json:"total_permissions"`
	RolesWithPermissions int64 `json:"roles_with_permissions"`
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	var stats Stats
	if err := s.db.WithContext(ctx).Model(&models.Role{}).Count(&stats.TotalRoles).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&models.Permission{}).Count(&stats.TotalPermissions).Error; err != nil {
		return nil, err
	}
	err := s.db.WithContext(ctx).
		Model(&models.RoleHasPermission{}).
		Distinct("role_id").
		Count(&stats.RolesWithPermissions).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (s *Service) requireRole(ctx context.Context, roleID uint) error {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Role{}).
		Where("id = ?", roleID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrRoleNotFound
	}
	return nil
}

func (s *Service) roleNameExists(ctx context.Context, name string, excludeID uint) (bool, error) {
	query := s.db.WithContext(ctx).
		Model(&models.Role{}).
		Where("name = ?", name)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Service) permissionTripleExists(ctx context.Context, resource, action string, ptype int, excludeID uint) (bool, error) {
	query := s.db.WithContext(ctx).
		Model(&models.Permission{}).
		Where("resource = ? AND action = ? AND type = ?", resource, action, ptype)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
