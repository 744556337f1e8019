package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hugh/finza/internal/api/dto"
	"github.com/hugh/finza/internal/api/middleware"
	"github.com/hugh/finza/internal/auth"
	"github.com/hugh/finza/internal/database/models"
)

const (
	sessionCookie    = "token"
	oauthStateCookie = "oauth_state"
)

type AuthHandler struct {
	authService  *auth.Service
	resetService *auth.PasswordResetService
	google       *auth.GoogleProvider
	frontendURL  string
}

func NewAuthHandler(authService *auth.Service, resetService *auth.PasswordResetService, google *auth.GoogleProvider, frontendURL string) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		resetService: resetService,
		google:       google,
		frontendURL:  frontendURL,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	resp, err := h.authService.Register(r.Context(), auth.RegisterInput{
		Email:                req.Email,
		Password:             req.Password,
		AutoGeneratePassword: req.AutoGeneratePassword,
		Name:                 req.Name,
		LastName:             req.LastName,
		Phone:                req.Phone,
	})

	if err != nil {
		switch err {
		case auth.ErrDuplicateEmail:
			writeJSON(w, http.StatusConflict, dto.ErrorResponse{Error: "User already exists"})
		default:
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Registration failed"})
		}
		return
	}

	setSessionCookie(w, resp.Token)

	writeJSON(w, http.StatusCreated, dto.AuthResponse{
		Token:             resp.Token,
		User:              userDTO(resp.User),
		GeneratedPassword: resp.GeneratedPassword,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	resp, err := h.authService.Login(r.Context(), auth.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})

	if err != nil {
		switch err {
		case auth.ErrInvalidCredentials:
			writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Error: "Invalid credentials"})
		default:
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Login failed"})
		}
		return
	}

	setSessionCookie(w, resp.Token)

	writeJSON(w, http.StatusOK, dto.AuthResponse{
		Token: resp.Token,
		User:  userDTO(resp.User),
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Logged out"})
}

// Me returns the caller's profile together with the resolved role and
// permission set the authorization gate is working with.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	access := middleware.GetUserAccess(r.Context())
	if access == nil {
		writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Error: "Unauthorized"})
		return
	}

	user, err := h.authService.GetUserByID(r.Context(), access.UserID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "User not found"})
		return
	}

	resp := dto.MeResponse{
		User:        userDTO(user),
		Permissions: make([]dto.PermissionDTO, 0, len(access.Permissions)),
	}
	if access.Role != nil {
		resp.Role = &dto.RoleDTO{ID: access.Role.ID, Name: access.Role.Name}
	}
	for _, p := range access.Permissions {
		resp.Permissions = append(resp.Permissions, dto.PermissionDTO{
			ID:       p.ID,
			Name:     p.Resource + ":" + p.Action,
			Resource: p.Resource,
			Action:   p.Action,
			Type:     p.Type,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// GoogleRedirect starts the consent flow. The state nonce is double-submitted
// through a short-lived cookie and checked in the callback.
func (h *AuthHandler) GoogleRedirect(w http.ResponseWriter, r *http.Request) {
	if h.google == nil || !h.google.Configured() {
		writeJSON(w, http.StatusServiceUnavailable, dto.ErrorResponse{Error: "Google sign-in is not configured"})
		return
	}

	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   600,
	})

	http.Redirect(w, r, h.google.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	if h.google == nil || !h.google.Configured() {
		writeJSON(w, http.StatusServiceUnavailable, dto.ErrorResponse{Error: "Google sign-in is not configured"})
		return
	}

	cookie, err := r.Cookie(oauthStateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		h.redirectWithError(w, r, "invalid_state")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	code := r.URL.Query().Get("code")
	if code == "" {
		h.redirectWithError(w, r, "missing_code")
		return
	}

	profile, err := h.google.Exchange(r.Context(), code)
	if err != nil {
		h.redirectWithError(w, r, "google_auth_failed")
		return
	}

	resp, err := h.authService.GoogleLogin(r.Context(), profile)
	if err != nil {
		h.redirectWithError(w, r, "google_auth_failed")
		return
	}

	setSessionCookie(w, resp.Token)
	http.Redirect(w, r, h.frontendURL+"/home?token="+url.QueryEscape(resp.Token), http.StatusFound)
}

func (h *AuthHandler) redirectWithError(w http.ResponseWriter, r *http.Request, reason string) {
	http.Redirect(w, r, h.frontendURL+"/login?error="+url.QueryEscape(reason), http.StatusFound)
}

func (h *AuthHandler) RequestReset(w http.ResponseWriter, r *http.Request) {
	var req dto.RequestResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	if err := h.resetService.RequestReset(r.Context(), req.Email); err != nil {
		switch err {
		case auth.ErrEmailNotFound:
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Email not found"})
		default:
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Could not process reset request"})
		}
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Password reset email sent"})
}

func (h *AuthHandler) VerifyResetToken(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		writeJSON(w, http.StatusBadRequest, dto.VerifyTokenResponse{Valid: false, Message: "Token is required"})
		return
	}

	email, err := h.resetService.VerifyResetToken(r.Context(), token)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.VerifyTokenResponse{Valid: false, Message: "Invalid or expired token"})
		return
	}

	writeJSON(w, http.StatusOK, dto.VerifyTokenResponse{Valid: true, Email: email})
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	if err := h.resetService.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		switch err {
		// A token whose owner is gone is just as dead as an expired one.
		case auth.ErrInvalidOrExpiredToken, auth.ErrUserNotFound:
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid or expired token"})
		default:
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Could not reset password"})
		}
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Password updated"})
}

func setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   false, // Set to true in production with HTTPS
		SameSite: http.SameSiteLaxMode,
		MaxAge:   86400, // 24 hours
	})
}

func userDTO(u *models.User) dto.UserDTO {
	out := dto.UserDTO{
		ID:       u.ID,
		Email:    u.Email,
		Name:     u.Name,
		LastName: u.LastName,
		Phone:    u.Phone,
		RoleID:   u.RoleID,
	}
	if u.Image != nil {
		out.Image = *u.Image
	}
	if u.Role != nil {
		out.Role = &dto.RoleDTO{ID: u.Role.ID, Name: u.Role.Name}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
