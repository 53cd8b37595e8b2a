package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rookery-club/rookery/internal/auth"
	"github.com/rookery-club/rookery/internal/model"
	"github.com/rookery-club/rookery/internal/roles"
)

type AdminHandler struct {
	roles  *roles.Service
	logger *slog.Logger
}

func NewAdminHandler(rs *roles.Service, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{roles: rs, logger: logger}
}

// ListUsers returns every account for the admin dashboard.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	users, err := h.roles.List(ac)
	if err != nil {
		if errors.Is(err, roles.ErrNotAdmin) {
			writeError(w, http.StatusForbidden, err.Error())
			return
		}
		h.logger.Error("list users", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	if users == nil {
		users = []model.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

type setRoleRequest struct {
	Role *string `json:"role"`
}

// SetRole grants or clears a role on the target user.
func (h *AdminHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	targetID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req setRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if err := h.roles.Set(ac, targetID, req.Role); err != nil {
		switch {
		case errors.Is(err, roles.ErrNotAdmin):
			writeError(w, http.StatusForbidden, err.Error())
		case errors.Is(err, roles.ErrSelfDemotion):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, roles.ErrUserNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		default:
			h.logger.Error("set role", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to update role")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
