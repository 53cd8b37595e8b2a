package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/rookery-club/rookery/internal/auth"
	"github.com/rookery-club/rookery/internal/store"
)

type VolunteerHandler struct {
	volunteers *store.VolunteerStore
	parents    *store.ParentStore
	logger     *slog.Logger
}

func NewVolunteerHandler(vs *store.VolunteerStore, ps *store.ParentStore, logger *slog.Logger) *VolunteerHandler {
	return &VolunteerHandler{volunteers: vs, parents: ps, logger: logger}
}

type volunteerRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// SignUp records a volunteer interest submission. It is public; if the
// submitter happens to be a signed-in parent, their profile's volunteer flag
// is set as well.
func (h *VolunteerHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req volunteerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || req.Email == "" {
		writeError(w, http.StatusBadRequest, "name and email are required")
		return
	}

	v, err := h.volunteers.Create(req.Name, req.Email, strings.TrimSpace(req.Phone))
	if err != nil {
		h.logger.Error("create volunteer", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save signup")
		return
	}

	if ac, ok := auth.FromContext(r.Context()); ok {
		if err := h.parents.SetVolunteer(ac.UserID, true); err != nil {
			h.logger.Error("flag parent volunteer", "error", err)
		}
	}

	writeJSON(w, http.StatusCreated, v)
}

// List returns all volunteer signups. Mounted behind RequireAdmin.
func (h *VolunteerHandler) List(w http.ResponseWriter, r *http.Request) {
	volunteers, err := h.volunteers.List()
	if err != nil {
		h.logger.Error("list volunteers", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list volunteers")
		return
	}
	writeJSON(w, http.StatusOK, volunteers)
}
