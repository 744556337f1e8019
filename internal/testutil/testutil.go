package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/finza/internal/auth"
	"github.com/hugh/finza/internal/database/models"
	"github.com/hugh/finza/pkg/crypto"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB creates an in-memory SQLite database for testing
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	// Each connection to ":memory:" gets its own database, so the pool
	// must stay at a single connection or tables vanish mid-test.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	// Run migrations
	err = db.AutoMigrate(
		&models.Role{},
		&models.Permission{},
		&models.RoleHasPermission{},
		&models.User{},
		&models.OAuthToken{},
		&models.PasswordResetToken{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// CleanupTestDB closes the test database connection
func CleanupTestDB(t *testing.T, db *gorm.DB) {
	t.Helper()
	sqlDB, err := db.DB()
	if err != nil {
		t.Logf("warning: failed to get sql.DB: %v", err)
		return
	}
	sqlDB.Close()
}

// SilentLogger returns a logger that discards everything
func SilentLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// CreateTestJWTService creates a JWT service for testing
func CreateTestJWTService() *auth.JWTService {
	return auth.NewJWTService("test-secret-key-for-testing", "test-recovery-secret", 24*time.Hour, time.Hour)
}

// CreateTestStore builds a store with a throwaway encryption key
func CreateTestStore(t *testing.T, db *gorm.DB) *auth.Store {
	t.Helper()

	encryptor, err := crypto.NewEncryptor("")
	if err != nil {
		t.Fatalf("failed to create test encryptor: %v", err)
	}
	return auth.NewStore(db, encryptor, SilentLogger())
}

// CreateTestRole creates a role
func CreateTestRole(t *testing.T, db *gorm.DB, name string) *models.Role {
	t.Helper()

	role := &models.Role{Name: name}
	if err := db.Create(role).Error; err != nil {
		t.Fatalf("failed to create test role: %v", err)
	}
	return role
}

// CreateTestPermission creates a permission with the given triple
func CreateTestPermission(t *testing.T, db *gorm.DB, resource, action string, ptype int) *models.Permission {
	t.Helper()

	permission := &models.Permission{Resource: resource, Action: action, Type: ptype}
	if err := db.Create(permission).Error; err != nil {
		t.Fatalf("failed to create test permission: %v", err)
	}
	return permission
}

// GrantPermission links a permission to a role
func GrantPermission(t *testing.T, db *gorm.DB, roleID, permissionID uint) {
	t.Helper()

	link := &models.RoleHasPermission{RoleID: roleID, PermissionID: permissionID}
	if err := db.Create(link).Error; err != nil {
		t.Fatalf("failed to grant permission: %v", err)
	}
}

// CreateTestUser creates a user with a known password and the given role
func CreateTestUser(t *testing.T, db *gorm.DB, roleID *uint) *models.User {
	t.Helper()

	hash, err := auth.HashPassword("testpassword123")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    "test-" + uuid.New().String()[:8] + "@example.com",
		Password: &hash,
		Name:     "Test User",
		RoleID:   roleID,
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}

	return user
}

// GenerateTestToken generates a valid session token for the given user
func GenerateTestToken(t *testing.T, jwtService *auth.JWTService, user *models.User) string {
	t.Helper()

	token, err := jwtService.GenerateSessionToken(user.ID, user.Email, user.RoleID, jwtService.ExpiryForRole(user.RoleID))
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}

	return token
}

// AuthenticatedRequest creates an HTTP request with authentication
func AuthenticatedRequest(t *testing.T, method, path string, body interface{}, token string) *http.Request {
	t.Helper()

	var reqBody *bytes.Buffer
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req
}

// UnauthenticatedRequest creates an HTTP request without authentication
func UnauthenticatedRequest(t *testing.T, method, path string, body interface{}) *http.Request {
	t.Helper()
	return AuthenticatedRequest(t, method, path, body, "")
}

// AssertStatus checks if the response has the expected status code
func AssertStatus(t *testing.T, rr *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if rr.Code != expected {
		t.Errorf("expected status %d, got %d. Body: %s", expected, rr.Code, rr.Body.String())
	}
}

// ParseJSONResponse parses the response body into the given struct
func ParseJSONResponse(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()

	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to parse response body: %v. Body: %s", err, rr.Body.String())
	}
}

// TestContext creates a context with a timeout for tests
func TestContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}
