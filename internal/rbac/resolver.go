package rbac

import (
	"context"
	"errors"

	"github.com/hugh/finza/internal/database/models"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

var ErrUserNotFound = errors.New("user not found")

type ResolvedRole struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type ResolvedPermission struct {
	ID       uint   `json:"id"`
	Resource string `json:"resource"`
	Action   string `json:"action"`
	Type     int    `json:"type"`
}

// UserAccess is the effective identity the authorization gate works with.
type UserAccess struct {
	UserID      uint                 `json:"user_id"`
	Email       string               `json:"email"`
	Role        *ResolvedRole        `json:"role"`
	Permissions []ResolvedPermission `json:"permissions"`
}

// HasPermission grants iff an entry matches resource and action with the
// standard type. Other type values never match here; absence denies.
func (a *UserAccess) HasPermission(resource, action string) bool {
	for _, p := range a.Permissions {
		if p.Resource == resource && p.Action == action && p.Type == models.PermissionTypeStandard {
			return true
		}
	}
	return false
}

func (a *UserAccess) HasRole(name string) bool {
	return a.Role != nil && a.Role.Name == name
}

// Resolver computes the effective permission set for a user. A user has at
// most one role and there is no hierarchy, so resolution is a single join.
type Resolver struct {
	db *gorm.DB
}

func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{db: db}
}

// ResolveUser loads the user's role and permission set. The two lookups have
// no ordering dependency and run concurrently. Permissions come back ordered
// by (resource, action) for deterministic output.
func (r *Resolver) ResolveUser(ctx context.Context, userID uint) (*UserAccess, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	access := &UserAccess{
		UserID:      user.ID,
		Email:       user.Email,
		Permissions: []ResolvedPermission{},
	}
	if user.RoleID == nil {
		return access, nil
	}
	roleID := *user.RoleID

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var role models.Role
		err := r.db.WithContext(gctx).First(&role, roleID).Error
		if err != nil {
			// A soft-deleted role resolves to no role at all.
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		access.Role = &ResolvedRole{ID: role.ID, Name: role.Name}
		return nil
	})

	g.Go(func() error {
		var permissions []models.Permission
		err := r.db.WithContext(gctx).
			Joins("INNER JOIN role_has_permissions rhp ON rhp.permission_id = permissions.id").
			Where("rhp.role_id = ?", roleID).
			Order("permissions.resource, permissions.action").
			Find(&permissions).Error
		if err != nil {
			return err
		}
		resolved := make([]ResolvedPermission, 0, len(permissions))
		for _, p := range permissions {
			resolved = append(resolved, ResolvedPermission{
				ID:       p.ID,
				Resource: p.Resource,
				Action:   p.Action,
				Type:     p.Type,
			})
		}
		access.Permissions = resolved
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return access, nil
}
