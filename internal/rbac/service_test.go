package rbac_test

import (
	"testing"

	"github.com/hugh/finza/internal/database/models"
	"github.com/hugh/finza/internal/rbac"
	"github.com/hugh/finza/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newRBACService(t *testing.T) (*rbac.Service, *gorm.DB) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })
	return rbac.NewService(db), db
}

func TestParsePermissionName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		resource string
		action   string
	}{
		{"resource and action", "users:delete", "users", "delete"},
		{"bare resource defaults to access", "reports", "reports", "access"},
		{"trailing colon defaults to access", "reports:", "reports", "access"},
		{"extra colons stay in the action", "files:read:meta", "files", "read:meta"},
		{"surrounding whitespace is trimmed", "  users:edit ", "users", "edit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resource, action := rbac.ParsePermissionName(tt.input)
			assert.Equal(t, tt.resource, resource)
			assert.Equal(t, tt.action, action)
		})
	}
}

func TestService_Roles(t *testing.T) {
	svc, _ := newRBACService(t)
	ctx := testutil.TestContext(t)

	t.Run("create and get", func(t *testing.T) {
		role, err := svc.CreateRole(ctx, "editor")
		require.NoError(t, err)
		assert.NotZero(t, role.ID)

		got, err := svc.GetRole(ctx, role.ID)
		require.NoError(t, err)
		assert.Equal(t, "editor", got.Name)
	})

	t.Run("duplicate name rejected", func(t *testing.T) {
		_, err := svc.CreateRole(ctx, "viewer")
		require.NoError(t, err)

		_, err = svc.CreateRole(ctx, "viewer")
		assert.Equal(t, rbac.ErrDuplicateRoleName, err)
	})

	t.Run("update keeps names unique", func(t *testing.T) {
		a, err := svc.CreateRole(ctx, "role-a")
		require.NoError(t, err)
		_, err = svc.CreateRole(ctx, "role-b")
		require.NoError(t, err)

		_, err = svc.UpdateRole(ctx, a.ID, "role-b")
		assert.Equal(t, rbac.ErrDuplicateRoleName, err)

		// Renaming a role to its own name is allowed.
		updated, err := svc.UpdateRole(ctx, a.ID, "role-a")
		require.NoError(t, err)
		assert.Equal(t, "role-a", updated.Name)
	})

	t.Run("delete removes the role", func(t *testing.T) {
		role, err := svc.CreateRole(ctx, "ephemeral")
		require.NoError(t, err)

		require.NoError(t, svc.DeleteRole(ctx, role.ID))

		_, err = svc.GetRole(ctx, role.ID)
		assert.Equal(t, rbac.ErrRoleNotFound, err)

		assert.Equal(t, rbac.ErrRoleNotFound, svc.DeleteRole(ctx, role.ID))
	})

	t.Run("missing role", func(t *testing.T) {
		_, err := svc.GetRole(ctx, 9999)
		assert.Equal(t, rbac.ErrRoleNotFound, err)
	})

	t.Run("name freed by a delete can be reused", func(t *testing.T) {
		role, err := svc.CreateRole(ctx, "recycled")
		require.NoError(t, err)
		require.NoError(t, svc.DeleteRole(ctx, role.ID))

		recreated, err := svc.CreateRole(ctx, "recycled")
		require.NoError(t, err)
		assert.NotEqual(t, role.ID, recreated.ID)
	})
}

func TestService_Permissions(t *testing.T) {
	svc, _ := newRBACService(t)
	ctx := testutil.TestContext(t)

	t.Run("create and get", func(t *testing.T) {
		p, err := svc.CreatePermission(ctx, "users", "access", models.PermissionTypeStandard)
		require.NoError(t, err)

		got, err := svc.GetPermission(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "users", got.Resource)
		assert.Equal(t, "access", got.Action)
		assert.Equal(t, models.PermissionTypeStandard, got.Type)
	})

	t.Run("duplicate triple rejected", func(t *testing.T) {
		_, err := svc.CreatePermission(ctx, "reports", "access", 0)
		require.NoError(t, err)

		_, err = svc.CreatePermission(ctx, "reports", "access", 0)
		assert.Equal(t, rbac.ErrDuplicatePermission, err)
	})

	t.Run("same pair with different type is a distinct permission", func(t *testing.T) {
		_, err := svc.CreatePermission(ctx, "billing", "access", 0)
		require.NoError(t, err)

		_, err = svc.CreatePermission(ctx, "billing", "access", 1)
		assert.NoError(t, err)
	})

	t.Run("update rejects a colliding triple", func(t *testing.T) {
		_, err := svc.CreatePermission(ctx, "files", "read", 0)
		require.NoError(t, err)
		p, err := svc.CreatePermission(ctx, "files", "write", 0)
		require.NoError(t, err)

		_, err = svc.UpdatePermission(ctx, p.ID, "files", "read", 0)
		assert.Equal(t, rbac.ErrDuplicatePermission, err)
	})

	t.Run("triple freed by a delete can be reused", func(t *testing.T) {
		p, err := svc.CreatePermission(ctx, "exports", "create", 0)
		require.NoError(t, err)
		require.NoError(t, svc.DeletePermission(ctx, p.ID))

		recreated, err := svc.CreatePermission(ctx, "exports", "create", 0)
		require.NoError(t, err)
		assert.NotEqual(t, p.ID, recreated.ID)
	})
}

func TestService_AssignPermissions(t *testing.T) {
	svc, db := newRBACService(t)
	ctx := testutil.TestContext(t)

	role, err := svc.CreateRole(ctx, "assignee")
	require.NoError(t, err)
	p1, err := svc.CreatePermission(ctx, "users", "access", 0)
	require.NoError(t, err)
	p2, err := svc.CreatePermission(ctx, "roles", "access", 0)
	require.NoError(t, err)
	p3, err := svc.CreatePermission(ctx, "reports", "access", 0)
	require.NoError(t, err)

	t.Run("assignment replaces the whole set", func(t *testing.T) {
		require.NoError(t, svc.AssignPermissions(ctx, role.ID, []uint{p1.ID, p2.ID}))

		perms, err := svc.RolePermissions(ctx, role.ID)
		require.NoError(t, err)
		assert.Len(t, perms, 2)

		require.NoError(t, svc.AssignPermissions(ctx, role.ID, []uint{p3.ID}))

		perms, err = svc.RolePermissions(ctx, role.ID)
		require.NoError(t, err)
		require.Len(t, perms, 1)
		assert.Equal(t, "reports", perms[0].Resource)
	})

	t.Run("empty set clears the role", func(t *testing.T) {
		require.NoError(t, svc.AssignPermissions(ctx, role.ID, nil))

		perms, err := svc.RolePermissions(ctx, role.ID)
		require.NoError(t, err)
		assert.Empty(t, perms)
	})

	t.Run("unknown permission aborts without changes", func(t *testing.T) {
		require.NoError(t, svc.AssignPermissions(ctx, role.ID, []uint{p1.ID}))

		err := svc.AssignPermissions(ctx, role.ID, []uint{p2.ID, 9999})
		assert.Equal(t, rbac.ErrPermissionNotFound, err)

		perms, err := svc.RolePermissions(ctx, role.ID)
		require.NoError(t, err)
		require.Len(t, perms, 1)
		assert.Equal(t, p1.ID, perms[0].ID)
	})

	t.Run("unknown role", func(t *testing.T) {
		err := svc.AssignPermissions(ctx, 9999, []uint{p1.ID})
		assert.Equal(t, rbac.ErrRoleNotFound, err)
	})

	t.Run("remove a single permission", func(t *testing.T) {
		require.NoError(t, svc.AssignPermissions(ctx, role.ID, []uint{p1.ID, p2.ID}))

		require.NoError(t, svc.RemovePermission(ctx, role.ID, p1.ID))

		has, err := svc.RoleHasPermission(ctx, role.ID, p1.ID)
		require.NoError(t, err)
		assert.False(t, has)

		err = svc.RemovePermission(ctx, role.ID, p1.ID)
		assert.Equal(t, rbac.ErrPermissionNotAssigned, err)
	})

	t.Run("stats count distinct roles", func(t *testing.T) {
		stats, err := svc.Stats(ctx)
		require.NoError(t, err)
		assert.Greater(t, stats.TotalRoles, int64(0))
		assert.Greater(t, stats.TotalPermissions, int64(0))

		var distinct int64
		require.NoError(t, db.Model(&models.RoleHasPermission{}).
			Distinct("role_id").Count(&distinct).Error)
		assert.Equal(t, distinct, stats.RolesWithPermissions)
	})
}

func TestService_UserRoleAssignment(t *testing.T) {
	svc, db := newRBACService(t)
	ctx := testutil.TestContext(t)

	role, err := svc.CreateRole(ctx, "member")
	require.NoError(t, err)
	user := testutil.CreateTestUser(t, db, nil)

	t.Run("assign and remove", func(t *testing.T) {
		require.NoError(t, svc.AssignRoleToUser(ctx, user.ID, role.ID))

		var got models.User
		require.NoError(t, db.First(&got, user.ID).Error)
		require.NotNil(t, got.RoleID)
		assert.Equal(t, role.ID, *got.RoleID)

		require.NoError(t, svc.RemoveRoleFromUser(ctx, user.ID))
		require.NoError(t, db.First(&got, user.ID).Error)
		assert.Nil(t, got.RoleID)
	})

	t.Run("unknown user", func(t *testing.T) {
		assert.Equal(t, rbac.ErrUserNotFound, svc.AssignRoleToUser(ctx, 9999, role.ID))
		assert.Equal(t, rbac.ErrUserNotFound, svc.RemoveRoleFromUser(ctx, 9999))
	})

	t.Run("unknown role", func(t *testing.T) {
		assert.Equal(t, rbac.ErrRoleNotFound, svc.AssignRoleToUser(ctx, user.ID, 9999))
	})
}
