//go:build ignore

package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/hugh/finza/internal/auth"
	"github.com/hugh/finza/internal/database"
	"github.com/hugh/finza/internal/database/models"
	"github.com/hugh/finza/internal/rbac"
	"github.com/hugh/finza/pkg/config"
	"github.com/hugh/finza/pkg/crypto"
	"github.com/hugh/finza/pkg/util"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Server.Env)

	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	ctx := context.Background()
	rbacService := rbac.NewService(db)

	// The automation role must occupy id 0 so session tokens issued for it
	// never carry an expiry. GORM treats a zero primary key as unset, so the
	// row is inserted with an explicit id.
	var automation models.Role
	err = db.WithContext(ctx).Where("id = ?", models.AutomationRoleID).First(&automation).Error
	if err == gorm.ErrRecordNotFound {
		if err := db.WithContext(ctx).Exec(
			"INSERT INTO roles (id, name, created_at, updated_at) VALUES (?, ?, NOW(), NOW())",
			models.AutomationRoleID, "automation",
		).Error; err != nil {
			log.Fatalf("failed to create automation role: %v", err)
		}
		fmt.Println("Created automation role (id 0)")
	} else if err != nil {
		log.Fatalf("failed to look up automation role: %v", err)
	}

	// Admin role with the full permission set
	adminRole, err := rbacService.CreateRole(ctx, "admin")
	if err == rbac.ErrDuplicateRoleName {
		fmt.Println("Admin role already exists")
		var existing models.Role
		if err := db.WithContext(ctx).Where("name = ?", "admin").First(&existing).Error; err != nil {
			log.Fatalf("failed to load admin role: %v", err)
		}
		adminRole = &existing
	} else if err != nil {
		log.Fatalf("failed to create admin role: %v", err)
	}

	permissionNames := []string{
		"users:access",
		"roles:access",
		"permissions:access",
		"reports:access",
	}

	permissionIDs := make([]uint, 0, len(permissionNames))
	for _, name := range permissionNames {
		resource, action := rbac.ParsePermissionName(name)
		permission, err := rbacService.CreatePermission(ctx, resource, action, models.PermissionTypeStandard)
		if err == rbac.ErrDuplicatePermission {
			var existing models.Permission
			err := db.WithContext(ctx).
				Where("resource = ? AND action = ? AND type = ?", resource, action, models.PermissionTypeStandard).
				First(&existing).Error
			if err != nil {
				log.Fatalf("failed to load permission %s: %v", name, err)
			}
			permission = &existing
		} else if err != nil {
			log.Fatalf("failed to create permission %s: %v", name, err)
		}
		permissionIDs = append(permissionIDs, permission.ID)
	}

	if err := rbacService.AssignPermissions(ctx, adminRole.ID, permissionIDs); err != nil {
		log.Fatalf("failed to assign permissions: %v", err)
	}

	// Create admin user
	encryptor, err := crypto.NewEncryptor(cfg.Encryption.Key)
	if err != nil {
		log.Fatalf("failed to create encryptor: %v", err)
	}
	jwtService := auth.NewJWTService(
		cfg.JWT.Secret,
		cfg.JWT.RecoverySecretOrDefault(),
		cfg.JWT.SessionExpiry(),
		cfg.JWT.RecoveryExpiry(),
	)
	store := auth.NewStore(db, encryptor, logger)
	authService := auth.NewService(store, jwtService, nil, logger, cfg.JWT.GeneratedPasswordLength)

	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	name := os.Getenv("ADMIN_NAME")

	if email == "" {
		email = "admin@example.com"
	}
	if password == "" {
		password = "admin123!"
	}
	if name == "" {
		name = "Admin"
	}

	adminRoleID := adminRole.ID
	user, _, err := authService.CreateUser(ctx, auth.RegisterInput{
		Email:    email,
		Password: password,
		Name:     name,
		RoleID:   &adminRoleID,
	})

	if err != nil {
		if err == auth.ErrDuplicateEmail {
			fmt.Printf("Admin user already exists: %s\n", email)
			return
		}
		log.Fatalf("failed to create admin user: %v", err)
	}

	fmt.Printf("Admin user created successfully!\n")
	fmt.Printf("Email: %s\n", user.Email)
	fmt.Printf("Role: %s (id %d)\n", adminRole.Name, adminRole.ID)
}
