package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/rookery-club/rookery/internal/auth"
	"github.com/rookery-club/rookery/internal/email"
	"github.com/rookery-club/rookery/internal/store"
)

const (
	sessionCookieName = "rookery_session"
	maxCodeAttempts   = 5
)

type AuthHandler struct {
	userStore      *store.UserStore
	sessionStore   *store.SessionStore
	resetCodeStore *store.ResetCodeStore
	emailClient    *email.Client
	logger         *slog.Logger
}

func NewAuthHandler(us *store.UserStore, ss *store.SessionStore, rcs *store.ResetCodeStore, ec *email.Client, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		userStore:      us,
		sessionStore:   ss,
		resetCodeStore: rcs,
		emailClient:    ec,
		logger:         logger,
	}
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   30 * 24 * 60 * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	emailAddr := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	if emailAddr == "" || password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	hash, err := h.userStore.GetPasswordHash(emailAddr)
	if err != nil {
		h.logger.Error("login lookup", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	// Compare even when the user doesn't exist so response timing doesn't
	// reveal which emails are registered.
	if hash == "" {
		bcrypt.CompareHashAndPassword([]byte("$2a$10$invalidinvalidinvalidinvalidinvalidinvalidinvalidinv"), []byte(password))
		writeError(w, http.StatusUnauthorized, "incorrect email or password")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		writeError(w, http.StatusUnauthorized, "incorrect email or password")
		return
	}

	user, err := h.userStore.GetByEmail(emailAddr)
	if err != nil || user == nil {
		h.logger.Error("login user lookup", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	sess, err := h.sessionStore.Create(user.ID)
	if err != nil {
		h.logger.Error("create session", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.setSessionCookie(w, r, sess.Token)
	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if ac, ok := auth.FromContext(r.Context()); ok {
		if err := h.sessionStore.Delete(ac.SessionID); err != nil {
			h.logger.Error("delete session", "error", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// RequestReset issues a reset code and emails it. The response is identical
// whether or not the email has an account, to prevent enumeration.
func (h *AuthHandler) RequestReset(w http.ResponseWriter, r *http.Request) {
	emailAddr := strings.TrimSpace(r.FormValue("email"))
	if emailAddr == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	defer writeJSON(w, http.StatusOK, map[string]string{"status": "check your email"})

	user, err := h.userStore.GetByEmail(emailAddr)
	if err != nil {
		h.logger.Error("reset lookup", "error", err)
		return
	}
	if user == nil {
		return
	}

	rc, err := h.resetCodeStore.Create(emailAddr)
	if err != nil {
		h.logger.Error("create reset code", "error", err)
		return
	}

	if err := h.emailClient.SendResetCode(emailAddr, rc.Code); err != nil {
		h.logger.Error("send reset code", "error", err)
	}
}

// ConfirmReset validates the emailed code and sets the new password. All of
// the user's sessions are revoked on success.
func (h *AuthHandler) ConfirmReset(w http.ResponseWriter, r *http.Request) {
	emailAddr := strings.TrimSpace(r.FormValue("email"))
	code := strings.TrimSpace(r.FormValue("code"))
	newPassword := r.FormValue("password")

	if emailAddr == "" || code == "" || newPassword == "" {
		writeError(w, http.StatusBadRequest, "email, code, and password are required")
		return
	}

	latest, err := h.resetCodeStore.GetLatestByEmail(emailAddr)
	if err != nil {
		h.logger.Error("reset code lookup", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if latest == nil {
		writeError(w, http.StatusBadRequest, "code has expired or already been used")
		return
	}

	if latest.Attempts >= maxCodeAttempts {
		h.resetCodeStore.MarkUsed(latest.ID)
		writeError(w, http.StatusBadRequest, "too many incorrect attempts, request a new code")
		return
	}

	if latest.Code != code {
		attempts, err := h.resetCodeStore.IncrementAttempts(latest.ID)
		if err != nil {
			h.logger.Error("increment attempts", "error", err)
		}
		if attempts >= maxCodeAttempts {
			h.resetCodeStore.MarkUsed(latest.ID)
		}
		writeError(w, http.StatusBadRequest, "incorrect code")
		return
	}

	if err := h.resetCodeStore.MarkUsed(latest.ID); err != nil {
		h.logger.Error("mark code used", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("hash password", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if err := h.userStore.SetPasswordHash(emailAddr, string(hash)); err != nil {
		h.logger.Error("set password", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if user, err := h.userStore.GetByEmail(emailAddr); err == nil && user != nil {
		if err := h.sessionStore.DeleteForUser(user.ID); err != nil {
			h.logger.Error("revoke sessions", "error", err)
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "password updated"})
}
