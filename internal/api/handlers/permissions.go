package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/hugh/finza/internal/api/dto"
	"github.com/hugh/finza/internal/rbac"
)

type PermissionHandler struct {
	rbacService *rbac.Service
}

func NewPermissionHandler(rbacService *rbac.Service) *PermissionHandler {
	return &PermissionHandler{rbacService: rbacService}
}

func (h *PermissionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.PermissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	resource, action := rbac.ParsePermissionName(req.Name)
	permission, err := h.rbacService.CreatePermission(r.Context(), resource, action, req.Type)
	if err != nil {
		writeRBACError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, permissionDTO(permission))
}

func (h *PermissionHandler) List(w http.ResponseWriter, r *http.Request) {
	permissions, err := h.rbacService.ListPermissions(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Could not list permissions"})
		return
	}

	out := make([]dto.PermissionDTO, 0, len(permissions))
	for i := range permissions {
		out = append(out, permissionDTO(&permissions[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *PermissionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid permission id"})
		return
	}

	permission, err := h.rbacService.GetPermission(r.Context(), id)
	if err != nil {
		writeRBACError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, permissionDTO(permission))
}

func (h *PermissionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid permission id"})
		return
	}

	var req dto.PermissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	resource, action := rbac.ParsePermissionName(req.Name)
	permission, err := h.rbacService.UpdatePermission(r.Context(), id, resource, action, req.Type)
	if err != nil {
		writeRBACError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, permissionDTO(permission))
}

func (h *PermissionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid permission id"})
		return
	}

	if err := h.rbacService.DeletePermission(r.Context(), id); err != nil {
		writeRBACError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Permission deleted"})
}
