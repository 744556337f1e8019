package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/hugh/finza/internal/api/dto"
	"github.com/hugh/finza/internal/api/middleware"
	"github.com/hugh/finza/internal/auth"
	"github.com/hugh/finza/internal/database/models"
	"github.com/hugh/finza/internal/rbac"
	"gorm.io/gorm"
)

type UserHandler struct {
	db          *gorm.DB
	authService *auth.Service
	rbacService *rbac.Service
}

func NewUserHandler(db *gorm.DB, authService *auth.Service, rbacService *rbac.Service) *UserHandler {
	return &UserHandler{db: db, authService: authService, rbacService: rbacService}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	params := dto.PaginationParams{}
	params.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	params.PerPage, _ = strconv.Atoi(r.URL.Query().Get("per_page"))
	params.Normalize()

	query := h.db.WithContext(r.Context()).Model(&models.User{})

	if search := strings.TrimSpace(r.URL.Query().Get("search")); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(email) LIKE ? OR LOWER(name) LIKE ? OR LOWER(last_name) LIKE ?", like, like, like)
	}
	if roleID := r.URL.Query().Get("role_id"); roleID != "" {
		query = query.Where("role_id = ?", roleID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Could not list users"})
		return
	}

	var users []models.User
	err := query.
		Preload("Role").
		Order("id").
		Limit(params.PerPage).
		Offset(params.Offset()).
		Find(&users).Error
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Could not list users"})
		return
	}

	out := make([]dto.UserDTO, 0, len(users))
	for i := range users {
		out = append(out, userDTO(&users[i]))
	}

	totalPages := int((total + int64(params.PerPage) - 1) / int64(params.PerPage))
	writeJSON(w, http.StatusOK, dto.PaginatedResponse{
		Data:       out,
		Total:      total,
		Page:       params.Page,
		PerPage:    params.PerPage,
		TotalPages: totalPages,
	})
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid user id"})
		return
	}

	var user models.User
	if err := h.db.WithContext(r.Context()).Preload("Role").First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "User not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Could not load user"})
		return
	}

	writeJSON(w, http.StatusOK, userDTO(&user))
}

// Create provisions an account on behalf of someone else. No session token
// is issued; when the password was generated it is returned once so the
// operator can hand it over.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	if req.RoleID != nil {
		if _, err := h.rbacService.GetRole(r.Context(), *req.RoleID); err != nil {
			writeRBACError(w, err)
			return
		}
	}

	user, generated, err := h.authService.CreateUser(r.Context(), auth.RegisterInput{
		Email:                req.Email,
		Password:             req.Password,
		AutoGeneratePassword: req.AutoGeneratePassword,
		Name:                 req.Name,
		LastName:             req.LastName,
		Phone:                req.Phone,
		Image:                req.Image,
		RoleID:               req.RoleID,
	})
	if err != nil {
		switch err {
		case auth.ErrDuplicateEmail:
			writeJSON(w, http.StatusConflict, dto.ErrorResponse{Error: "User already exists"})
		default:
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Could not create user"})
		}
		return
	}

	writeJSON(w, http.StatusCreated, dto.AuthResponse{
		User:              userDTO(user),
		GeneratedPassword: generated,
	})
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid user id"})
		return
	}

	var req dto.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	var user models.User
	if err := h.db.WithContext(r.Context()).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "User not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Could not load user"})
		return
	}

	if req.Email != nil && *req.Email != user.Email {
		var count int64
		err := h.db.WithContext(r.Context()).
			Model(&models.User{}).
			Where("LOWER(email) = ? AND id <> ?", strings.ToLower(*req.Email), id).
			Count(&count).Error
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Could not update user"})
			return
		}
		if count > 0 {
			writeJSON(w, http.StatusConflict, dto.ErrorResponse{Error: "Email already in use"})
			return
		}
		user.Email = *req.Email
	}
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.Image != nil {
		user.Image = req.Image
	}
	if req.RoleID != nil {
		if _, err := h.rbacService.GetRole(r.Context(), *req.RoleID); err != nil {
			writeRBACError(w, err)
			return
		}
		user.RoleID = req.RoleID
	}

	if err := h.db.WithContext(r.Context()).Save(&user).Error; err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Could not update user"})
		return
	}

	writeJSON(w, http.StatusOK, userDTO(&user))
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid user id"})
		return
	}

	if id == middleware.GetUserID(r.Context()) {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Cannot delete your own account"})
		return
	}

	res := h.db.WithContext(r.Context()).Delete(&models.User{}, id)
	if res.Error != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Could not delete user"})
		return
	}
	if res.RowsAffected == 0 {
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "User not found"})
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "User deleted"})
}

func (h *UserHandler) AssignRole(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid user id"})
		return
	}

	var req dto.AssignRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if err := h.rbacService.AssignRoleToUser(r.Context(), id, req.RoleID); err != nil {
		writeRBACError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Role assigned"})
}

func (h *UserHandler) RemoveRole(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid user id"})
		return
	}

	if err := h.rbacService.RemoveRoleFromUser(r.Context(), id); err != nil {
		writeRBACError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Role removed"})
}
