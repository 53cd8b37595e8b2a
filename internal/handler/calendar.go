package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/rookery-club/rookery/internal/attendance"
	"github.com/rookery-club/rookery/internal/auth"
	"github.com/rookery-club/rookery/internal/model"
	"github.com/rookery-club/rookery/internal/store"
	ws "github.com/rookery-club/rookery/internal/websocket"
)

type CalendarHandler struct {
	events     *store.EventStore
	attendance *attendance.Service
	hub        *ws.Hub
	logger     *slog.Logger
}

func NewCalendarHandler(es *store.EventStore, as *attendance.Service, hub *ws.Hub, logger *slog.Logger) *CalendarHandler {
	return &CalendarHandler{events: es, attendance: as, hub: hub, logger: logger}
}

// ListEvents returns events in a date range.
func (h *CalendarHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")
	if startStr == "" || endStr == "" {
		writeError(w, http.StatusBadRequest, "start and end query parameters are required")
		return
	}

	start, err := parseFlexibleTime(startStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "start must be RFC3339 or YYYY-MM-DD format")
		return
	}
	end, err := parseFlexibleTime(endStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "end must be RFC3339 or YYYY-MM-DD format")
		return
	}

	events, err := h.events.ListByDateRange(start, end)
	if err != nil {
		h.logger.Error("list events", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

type familyAttendanceResponse struct {
	EventID   int64                            `json:"event_id"`
	OwnStatus model.AttendanceStatus           `json:"own_status"`
	ByChildID map[int64]model.AttendanceStatus `json:"by_child_id"`
}

// GetAttendance returns the acting family's statuses for one event. Missing
// records read as tbd.
func (h *CalendarHandler) GetAttendance(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	eventID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid event id")
		return
	}

	own, byChild, err := h.attendance.FamilyStatuses(ac, eventID)
	if err != nil {
		h.logger.Error("family statuses", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load attendance")
		return
	}

	writeJSON(w, http.StatusOK, familyAttendanceResponse{
		EventID:   eventID,
		OwnStatus: own,
		ByChildID: byChild,
	})
}

type setAttendanceRequest struct {
	ChildID *int64                 `json:"child_id"`
	Status  model.AttendanceStatus `json:"status"`
}

// SetAttendance records a status for the acting parent or one of their
// children. Repeats with the same status are harmless overwrites.
func (h *CalendarHandler) SetAttendance(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	eventID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid event id")
		return
	}

	var req setAttendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if req.ChildID != nil {
		err = h.attendance.SetForChild(ac, *req.ChildID, eventID, req.Status)
	} else {
		err = h.attendance.SetForParent(ac, eventID, req.Status)
	}
	if err != nil {
		switch {
		case errors.Is(err, attendance.ErrInvalidStatus):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, attendance.ErrEventNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, attendance.ErrNotOwned):
			writeError(w, http.StatusForbidden, err.Error())
		default:
			h.logger.Error("set attendance", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to update attendance")
		}
		return
	}

	h.hub.Broadcast(ws.Message{Entity: "attendance", Action: "updated", EventID: eventID})
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createEventRequest struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	StartsAt    time.Time `json:"starts_at"`
	Location    string    `json:"location"`
}

// CreateEvent adds an event to the calendar. Mounted behind RequireAdmin.
func (h *CalendarHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Name == "" || req.StartsAt.IsZero() {
		writeError(w, http.StatusBadRequest, "name and starts_at are required")
		return
	}

	event, err := h.events.Create(req.Name, req.Description, req.StartsAt, req.Location)
	if err != nil {
		h.logger.Error("create event", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create event")
		return
	}

	h.hub.Broadcast(ws.Message{Entity: "event", Action: "created", ID: event.ID})
	writeJSON(w, http.StatusCreated, event)
}

func parseFlexibleTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
