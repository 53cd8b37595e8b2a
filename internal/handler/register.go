package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rookery-club/rookery/internal/auth"
	"github.com/rookery-club/rookery/internal/email"
	"github.com/rookery-club/rookery/internal/registration"
	"github.com/rookery-club/rookery/internal/store"
)

type RegisterHandler struct {
	service      *registration.Service
	sessionStore *store.SessionStore
	emailClient  *email.Client
	logger       *slog.Logger
}

func NewRegisterHandler(svc *registration.Service, ss *store.SessionStore, ec *email.Client, logger *slog.Logger) *RegisterHandler {
	return &RegisterHandler{service: svc, sessionStore: ss, emailClient: ec, logger: logger}
}

type childRequest struct {
	Name  string `json:"name"`
	Grade string `json:"grade"`
}

type registerRequest struct {
	ParentName  string         `json:"parent_name"`
	Phone       string         `json:"phone"`
	Email       string         `json:"email"`
	Password    string         `json:"password"`
	IsVolunteer bool           `json:"is_volunteer"`
	Children    []childRequest `json:"children"`
}

// Register runs the registration workflow for the submitted family. It is
// mounted both publicly (new signups) and behind auth (an existing parent
// adding children); when a session exists its identity is reused and the
// password field is ignored.
func (h *RegisterHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	input := registration.Input{
		ParentName:  req.ParentName,
		Phone:       req.Phone,
		Email:       req.Email,
		Password:    req.Password,
		IsVolunteer: req.IsVolunteer,
	}
	for _, c := range req.Children {
		input.Children = append(input.Children, registration.ChildInput{Name: c.Name, Grade: c.Grade})
	}

	var current *auth.AuthContext
	if ac, ok := auth.FromContext(r.Context()); ok {
		current = &ac
	}

	user, err := h.service.Register(current, input)
	if err != nil {
		var dup *registration.DuplicateChildrenError
		switch {
		case errors.Is(err, registration.ErrPasswordRequired),
			errors.Is(err, registration.ErrEmailRequired):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, registration.ErrEmailTaken):
			writeError(w, http.StatusConflict, err.Error())
		case errors.As(err, &dup):
			writeJSON(w, http.StatusConflict, map[string]any{
				"error":      "some children are already registered",
				"duplicates": dup.Names,
			})
		default:
			h.logger.Error("registration", "error", err)
			writeError(w, http.StatusInternalServerError, "registration failed")
		}
		return
	}

	// New signups get a session immediately so the family lands signed in.
	if current == nil {
		sess, err := h.sessionStore.Create(user.ID)
		if err != nil {
			h.logger.Error("create session after signup", "error", err)
		} else {
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookieName,
				Value:    sess.Token,
				Path:     "/",
				MaxAge:   30 * 24 * 60 * 60,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
				Secure:   r.TLS != nil,
			})
		}

		if err := h.emailClient.SendWelcome(user.Email, req.ParentName); err != nil {
			// Welcome mail is best effort.
			h.logger.Warn("send welcome email", "error", err)
		}
	}

	writeJSON(w, http.StatusCreated, user)
}
