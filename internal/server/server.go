package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/rookery-club/rookery/internal/attendance"
	"github.com/rookery-club/rookery/internal/email"
	"github.com/rookery-club/rookery/internal/handler"
	"github.com/rookery-club/rookery/internal/middleware"
	"github.com/rookery-club/rookery/internal/push"
	"github.com/rookery-club/rookery/internal/registration"
	"github.com/rookery-club/rookery/internal/roles"
	"github.com/rookery-club/rookery/internal/store"
	ws "github.com/rookery-club/rookery/internal/websocket"
)

type Server struct {
	db             *sql.DB
	hub            *ws.Hub
	authH          *handler.AuthHandler
	registerH      *handler.RegisterHandler
	calendarH      *handler.CalendarHandler
	adminH         *handler.AdminHandler
	volunteerH     *handler.VolunteerHandler
	pushH          *handler.PushHandler
	sessionStore   *store.SessionStore
	userStore      *store.UserStore
	resetCodeStore *store.ResetCodeStore
	rateLimiter    *middleware.RateLimiter
	pushScheduler  *push.Scheduler
	logger         *slog.Logger
}

func New(db *sql.DB, emailClient *email.Client, pushCfg push.Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	sessionStore := store.NewSessionStore(db)
	resetCodeStore := store.NewResetCodeStore(db)
	parentStore := store.NewParentStore(db)
	childStore := store.NewChildStore(db)
	eventStore := store.NewEventStore(db)
	attendanceStore := store.NewAttendanceStore(db)
	volunteerStore := store.NewVolunteerStore(db)
	pushStore := store.NewPushStore(db)

	registrationSvc := registration.NewService(userStore, parentStore, childStore, logger.With("component", "registration"))
	attendanceSvc := attendance.NewService(attendanceStore, parentStore, childStore, eventStore, logger.With("component", "attendance"))
	rolesSvc := roles.NewService(userStore, logger.With("component", "roles"))

	// Reminders only run when VAPID keys are configured.
	var pushSched *push.Scheduler
	var pushH *handler.PushHandler
	if pushCfg.VAPIDPublicKey != "" && pushCfg.VAPIDPrivateKey != "" {
		pushLogger := logger.With("component", "push")
		pushSvc := push.NewService(pushCfg)
		pushSched = push.NewScheduler(pushSvc, pushStore, eventStore, attendanceStore, pushLogger)
		pushH = handler.NewPushHandler(pushStore, pushSvc, pushLogger)
	}

	return &Server{
		db:             db,
		hub:            hub,
		authH:          handler.NewAuthHandler(userStore, sessionStore, resetCodeStore, emailClient, logger.With("component", "auth")),
		registerH:      handler.NewRegisterHandler(registrationSvc, sessionStore, emailClient, logger.With("component", "register")),
		calendarH:      handler.NewCalendarHandler(eventStore, attendanceSvc, hub, logger.With("component", "calendar")),
		adminH:         handler.NewAdminHandler(rolesSvc, logger.With("component", "admin")),
		volunteerH:     handler.NewVolunteerHandler(volunteerStore, parentStore, logger.With("component", "volunteer")),
		pushH:          pushH,
		sessionStore:   sessionStore,
		userStore:      userStore,
		resetCodeStore: resetCodeStore,
		rateLimiter:    middleware.NewRateLimiter(),
		pushScheduler:  pushSched,
		logger:         logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// ResetCodeStore returns the reset code store for cleanup tasks.
func (s *Server) ResetCodeStore() *store.ResetCodeStore {
	return s.resetCodeStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// PushScheduler returns the reminder scheduler, or nil when push is not
// configured.
func (s *Server) PushScheduler() *push.Scheduler {
	return s.pushScheduler
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("POST /api/register", s.rateLimitedHandler(s.registerH.Register))
	outerMux.HandleFunc("POST /api/password-reset/request", s.rateLimitedHandler(s.authH.RequestReset))
	outerMux.HandleFunc("POST /api/password-reset/confirm", s.rateLimitedHandler(s.authH.ConfirmReset))
	// Volunteer signup is public, but a signed-in parent's submission also
	// flags their profile, so the route resolves the session when present.
	optionalAuth := middleware.OptionalAuth(s.sessionStore, s.userStore)
	outerMux.Handle("POST /api/volunteers", optionalAuth(http.HandlerFunc(s.volunteerH.SignUp)))
	outerMux.HandleFunc("GET /health", s.healthHandler)
	if s.pushH != nil {
		outerMux.HandleFunc("GET /api/push/vapid-key", s.pushH.VAPIDKey)
	}

	// Protected routes, wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore, s.userStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /logout", s.authH.Logout)

	// An authenticated parent re-running registration adds children to their
	// existing family.
	mux.HandleFunc("POST /api/family/register", s.registerH.Register)

	// Calendar + attendance API routes
	mux.HandleFunc("GET /api/events", s.calendarH.ListEvents)
	mux.HandleFunc("GET /api/events/{id}/attendance", s.calendarH.GetAttendance)
	mux.HandleFunc("POST /api/events/{id}/attendance", s.calendarH.SetAttendance)

	// Push notification API routes
	if s.pushH != nil {
		mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
		mux.HandleFunc("DELETE /api/push/subscriptions/{id}", s.pushH.Unsubscribe)
	}

	// Admin routes
	adminMux := http.NewServeMux()
	adminMux.HandleFunc("GET /api/admin/users", s.adminH.ListUsers)
	adminMux.HandleFunc("PUT /api/admin/users/{id}/role", s.adminH.SetRole)
	adminMux.HandleFunc("GET /api/admin/volunteers", s.volunteerH.List)
	adminMux.HandleFunc("POST /api/admin/events", s.calendarH.CreateEvent)
	mux.Handle("/api/admin/", middleware.RequireAdmin(adminMux))

	// WebSocket
	mux.HandleFunc("GET /ws", ws.Handle(s.hub, s.logger.With("component", "websocket")))
}
