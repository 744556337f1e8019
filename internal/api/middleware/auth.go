package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/hugh/finza/internal/auth"
	"github.com/hugh/finza/internal/rbac"
)

type contextKey string

const (
	UserIDKey     contextKey = "user_id"
	UserEmailKey  contextKey = "user_email"
	UserAccessKey contextKey = "user_access"
)

// Auth validates the session token and resolves the caller's effective
// role and permission set before the request reaches a handler. Requests
// with a valid token but a deleted user are rejected here, not downstream.
func Auth(jwtService *auth.JWTService, resolver *rbac.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var token string

			// 1. Check Authorization header (API requests)
			authHeader := r.Header.Get("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				token = strings.TrimPrefix(authHeader, "Bearer ")
			}

			// 2. Check cookie (browser sessions)
			if token == "" {
				if cookie, err := r.Cookie("token"); err == nil && cookie.Value != "" {
					token = cookie.Value
				}
			}

			// 3. Check X-Auth-Token header (localStorage fallback for AJAX)
			if token == "" {
				token = r.Header.Get("X-Auth-Token")
			}

			if token == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := jwtService.ValidateSessionToken(token)
			if err != nil {
				if errors.Is(err, auth.ErrExpiredToken) {
					http.Error(w, "Session expired", http.StatusUnauthorized)
					return
				}
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			access, err := resolver.ResolveUser(r.Context(), claims.UserID)
			if err != nil {
				if errors.Is(err, rbac.ErrUserNotFound) {
					http.Error(w, "Unauthorized", http.StatusUnauthorized)
					return
				}
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}

			ctx := r.Context()
			ctx = context.WithValue(ctx, UserIDKey, claims.UserID)
			ctx = context.WithValue(ctx, UserEmailKey, claims.Email)
			ctx = context.WithValue(ctx, UserAccessKey, access)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Helper functions to extract values from context
func GetUserID(ctx context.Context) uint {
	if id, ok := ctx.Value(UserIDKey).(uint); ok {
		return id
	}
	return 0
}

func GetUserEmail(ctx context.Context) string {
	if email, ok := ctx.Value(UserEmailKey).(string); ok {
		return email
	}
	return ""
}

func GetUserAccess(ctx context.Context) *rbac.UserAccess {
	if access, ok := ctx.Value(UserAccessKey).(*rbac.UserAccess); ok {
		return access
	}
	return nil
}

// RequirePermission gates a route on a (resource, action) pair. It must run
// after Auth; a missing access set denies.
func RequirePermission(resource, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			access := GetUserAccess(r.Context())
			if access == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			if !access.HasPermission(resource, action) {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole middleware ensures user has one of the given roles
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			access := GetUserAccess(r.Context())
			if access == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			for _, role := range roles {
				if access.HasRole(role) {
					next.ServeHTTP(w, r)
					return
				}
			}

			http.Error(w, "Forbidden", http.StatusForbidden)
		})
	}
}
