package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hugh/finza/internal/api/dto"
	"github.com/hugh/finza/internal/database/models"
	"github.com/hugh/finza/internal/rbac"
)

type RoleHandler struct {
	rbacService *rbac.Service
}

func NewRoleHandler(rbacService *rbac.Service) *RoleHandler {
	return &RoleHandler{rbacService: rbacService}
}

func (h *RoleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.RoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	role, err := h.rbacService.CreateRole(r.Context(), req.Name)
	if err != nil {
		writeRBACError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, roleDTO(role))
}

func (h *RoleHandler) List(w http.ResponseWriter, r *http.Request) {
	roles, err := h.rbacService.ListRoles(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Could not list roles"})
		return
	}

	out := make([]dto.RoleDTO, 0, len(roles))
	for i := range roles {
		out = append(out, roleDTO(&roles[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *RoleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid role id"})
		return
	}

	role, err := h.rbacService.GetRole(r.Context(), id)
	if err != nil {
		writeRBACError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, roleDTO(role))
}

func (h *RoleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid role id"})
		return
	}

	var req dto.RoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	role, err := h.rbacService.UpdateRole(r.Context(), id, req.Name)
	if err != nil {
		writeRBACError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, roleDTO(role))
}

func (h *RoleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid role id"})
		return
	}

	if err := h.rbacService.DeleteRole(r.Context(), id); err != nil {
		writeRBACError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Role deleted"})
}

// AssignPermissions replaces the role's whole permission set with the
// submitted ids. An empty list clears the role.
func (h *RoleHandler) AssignPermissions(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid role id"})
		return
	}

	var req dto.AssignPermissionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if err := h.rbacService.AssignPermissions(r.Context(), id, req.PermissionIDs); err != nil {
		writeRBACError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Permissions assigned"})
}

func (h *RoleHandler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid role id"})
		return
	}

	permissions, err := h.rbacService.RolePermissions(r.Context(), id)
	if err != nil {
		writeRBACError(w, err)
		return
	}

	out := make([]dto.PermissionDTO, 0, len(permissions))
	for i := range permissions {
		out = append(out, permissionDTO(&permissions[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *RoleHandler) RemovePermission(w http.ResponseWriter, r *http.Request) {
	roleID, err := parseIDParam(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid role id"})
		return
	}
	permissionID, err := parseIDParam(r, "permissionID")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid permission id"})
		return
	}

	if err := h.rbacService.RemovePermission(r.Context(), roleID, permissionID); err != nil {
		writeRBACError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Permission removed"})
}

func (h *RoleHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.rbacService.Stats(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Could not compute stats"})
		return
	}

	writeJSON(w, http.StatusOK, dto.RBACStatsResponse{
		TotalRoles:           stats.TotalRoles,
		TotalPermissions:     stats.TotalPermissions,
		RolesWithPermissions: stats.RolesWithPermissions,
	})
}

func roleDTO(role *models.Role) dto.RoleDTO {
	out := dto.RoleDTO{ID: role.ID, Name: role.Name}
	if len(role.Permissions) > 0 {
		out.Permissions = make([]dto.PermissionDTO, 0, len(role.Permissions))
		for i := range role.Permissions {
			out.Permissions = append(out.Permissions, permissionDTO(&role.Permissions[i]))
		}
	}
	return out
}

func permissionDTO(p *models.Permission) dto.PermissionDTO {
	return dto.PermissionDTO{
		ID:       p.ID,
		Name:     p.Resource + ":" + p.Action,
		Resource: p.Resource,
		Action:   p.Action,
		Type:     p.Type,
	}
}

func writeRBACError(w http.ResponseWriter, err error) {
	switch err {
	case rbac.ErrRoleNotFound:
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Role not found"})
	case rbac.ErrPermissionNotFound:
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Permission not found"})
	case rbac.ErrPermissionNotAssigned:
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Role does not have that permission"})
	case rbac.ErrDuplicateRoleName:
		writeJSON(w, http.StatusConflict, dto.ErrorResponse{Error: "Role name already exists"})
	case rbac.ErrDuplicatePermission:
		writeJSON(w, http.StatusConflict, dto.ErrorResponse{Error: "Permission already exists"})
	case rbac.ErrUserNotFound:
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "User not found"})
	default:
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Internal server error"})
	}
}

func parseIDParam(r *http.Request, name string) (uint, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
