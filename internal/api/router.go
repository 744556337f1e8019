package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/hugh/finza/internal/api/handlers"
	"github.com/hugh/finza/internal/api/middleware"
	"github.com/hugh/finza/internal/auth"
	"github.com/hugh/finza/internal/rbac"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Router struct {
	chi.Router
}

type RouterConfig struct {
	DB             *gorm.DB
	Redis          *redis.Client
	Logger         *slog.Logger
	JWTService     *auth.JWTService
	AuthService    *auth.Service
	ResetService   *auth.PasswordResetService
	GoogleProvider *auth.GoogleProvider
	RBACService    *rbac.Service
	Resolver       *rbac.Resolver
	FrontendURL    string
	AllowedOrigins []string // CORS allowed origins
	RateLimitReqs  int      // Rate limit requests per window
	RateLimitSecs  int      // Rate limit window in seconds
}

func NewRouter(cfg RouterConfig) *Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))

	// Rate limiting - applied globally to prevent abuse
	if cfg.RateLimitReqs > 0 {
		r.Use(middleware.RateLimit(cfg.RateLimitReqs, cfg.RateLimitSecs))
	}

	// CORS - restrict to configured origins, or allow the frontend in development
	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{cfg.FrontendURL}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Auth-Token"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Redis)
	authHandler := handlers.NewAuthHandler(cfg.AuthService, cfg.ResetService, cfg.GoogleProvider, cfg.FrontendURL)
	roleHandler := handlers.NewRoleHandler(cfg.RBACService)
	permissionHandler := handlers.NewPermissionHandler(cfg.RBACService)
	userHandler := handlers.NewUserHandler(cfg.DB, cfg.AuthService, cfg.RBACService)

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public auth endpoints
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/logout", authHandler.Logout)
		r.Post("/auth/request-reset", authHandler.RequestReset)
		r.Get("/auth/verify-token/{token}", authHandler.VerifyResetToken)
		r.Post("/auth/reset-password", authHandler.ResetPassword)
		r.Get("/auth/google", authHandler.GoogleRedirect)
		r.Get("/auth/google/callback", authHandler.GoogleCallback)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTService, cfg.Resolver))
			r.Use(middleware.RateLimitByUser(cfg.RateLimitReqs, cfg.RateLimitSecs))

			r.Get("/auth/me", authHandler.Me)

			// Role management
			r.Route("/roles", func(r chi.Router) {
				r.Use(middleware.RequirePermission("roles", "access"))
				r.Get("/", roleHandler.List)
				r.Post("/", roleHandler.Create)
				r.Get("/stats", roleHandler.Stats)
				r.Get("/{id}", roleHandler.Get)
				r.Put("/{id}", roleHandler.Update)
				r.Delete("/{id}", roleHandler.Delete)
				r.Get("/{id}/permissions", roleHandler.ListPermissions)
				r.Post("/{id}/permissions", roleHandler.AssignPermissions)
				r.Delete("/{id}/permissions/{permissionID}", roleHandler.RemovePermission)
			})

			// Permission management
			r.Route("/permissions", func(r chi.Router) {
				r.Use(middleware.RequirePermission("permissions", "access"))
				r.Get("/", permissionHandler.List)
				r.Post("/", permissionHandler.Create)
				r.Get("/{id}", permissionHandler.Get)
				r.Put("/{id}", permissionHandler.Update)
				r.Delete("/{id}", permissionHandler.Delete)
			})

			// User management
			r.Route("/users", func(r chi.Router) {
				r.Use(middleware.RequirePermission("users", "access"))
				r.Get("/", userHandler.List)
				r.Post("/", userHandler.Create)
				r.Get("/{id}", userHandler.Get)
				r.Put("/{id}", userHandler.Update)
				r.Delete("/{id}", userHandler.Delete)
				r.Post("/{id}/role", userHandler.AssignRole)
				r.Delete("/{id}/role", userHandler.RemoveRole)
			})
		})
	})

	return &Router{r}
}
