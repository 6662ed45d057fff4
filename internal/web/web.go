// ABOUTME: Web UI package for tailboard: routing, sessions, and request gates
// ABOUTME: Sessions resolve once per request; expired rows are swept opportunistically

package web

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tailboard/tailboard/internal/auth"
	"github.com/tailboard/tailboard/internal/config"
	"github.com/tailboard/tailboard/internal/store"
	"github.com/tailboard/tailboard/internal/tailer"
)

const (
	// SessionCookieName is the name of the session cookie
	SessionCookieName = "tailboard_session"

	// CSRFCookieName is the name of the CSRF token cookie
	CSRFCookieName = "tailboard_csrf"

	// RememberCookieName remembers the login form's "keep me signed in" choice
	RememberCookieName = "tailboard_remember"

	// PreferenceCookieDuration is how long the CSRF and remember cookies last
	PreferenceCookieDuration = 365 * 24 * time.Hour

	// sessionSweepInterval throttles opportunistic expired-session cleanup
	sessionSweepInterval = 15 * time.Minute
)

// Handler serves the tailboard web UI.
type Handler struct {
	store  store.Store
	tailer *tailer.Runner
	cfg    *config.Config
	logger *slog.Logger
	start  time.Time

	sweepMu   sync.Mutex
	lastSweep time.Time
}

// New creates a web Handler.
func New(st store.Store, runner *tailer.Runner, cfg *config.Config) *Handler {
	return &Handler{
		store:  st,
		tailer: runner,
		cfg:    cfg,
		logger: slog.Default().With("component", "web"),
		start:  time.Now(),
	}
}

// Routes builds the full route surface wrapped in the request middleware.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", h.handleHealthz)
	mux.HandleFunc("GET /{$}", h.handleRoot)

	// Guest-only routes
	mux.HandleFunc("GET /login", h.requireGuest(h.handleLoginPage))
	mux.HandleFunc("POST /login", h.requireGuest(h.handleLogin))

	// Authenticated routes
	mux.HandleFunc("GET /dashboard", h.requireAuth(h.handleDashboard))
	mux.HandleFunc("POST /logout", h.requireAuth(h.handleLogout))
	mux.HandleFunc("GET /profile", h.requireAuth(h.handleProfilePage))
	mux.HandleFunc("POST /profile/name", h.requireAuth(h.handleProfileName))
	mux.HandleFunc("POST /profile/password", h.requireAuth(h.handleProfilePassword))

	// Log viewing (per-log access checked in the handlers)
	mux.HandleFunc("GET /logs/{id}/view", h.requireAuth(h.handleLogView))
	mux.HandleFunc("GET /logs/{id}/content", h.requireAuth(h.handleLogContent))
	mux.HandleFunc("POST /logs/{id}/clear", h.requireAuth(h.handleLogClear))

	// Superadmin management
	mux.HandleFunc("GET /groups", h.requireSuperadmin(h.handleGroupsPage))
	mux.HandleFunc("GET /groups/new", h.requireSuperadmin(h.handleGroupNewPage))
	mux.HandleFunc("POST /groups", h.requireSuperadmin(h.handleGroupCreate))
	mux.HandleFunc("GET /groups/{id}/edit", h.requireSuperadmin(h.handleGroupEditPage))
	mux.HandleFunc("POST /groups/{id}", h.requireSuperadmin(h.handleGroupUpdate))
	mux.HandleFunc("POST /groups/{id}/delete", h.requireSuperadmin(h.handleGroupDelete))
	mux.HandleFunc("POST /groups/{id}/members", h.requireSuperadmin(h.handleGroupMemberAdd))
	mux.HandleFunc("POST /groups/{id}/members/remove", h.requireSuperadmin(h.handleGroupMemberRemove))

	mux.HandleFunc("GET /users", h.requireSuperadmin(h.handleUsersPage))
	mux.HandleFunc("GET /users/new", h.requireSuperadmin(h.handleUserNewPage))
	mux.HandleFunc("POST /users", h.requireSuperadmin(h.handleUserCreate))
	mux.HandleFunc("GET /users/{id}/edit", h.requireSuperadmin(h.handleUserEditPage))
	mux.HandleFunc("POST /users/{id}", h.requireSuperadmin(h.handleUserUpdate))
	mux.HandleFunc("POST /users/{id}/password", h.requireSuperadmin(h.handleUserPassword))
	mux.HandleFunc("POST /users/{id}/deactivate", h.requireSuperadmin(h.handleUserDeactivate))
	mux.HandleFunc("POST /users/{id}/delete", h.requireSuperadmin(h.handleUserDelete))
	mux.HandleFunc("POST /users/{id}/groups", h.requireSuperadmin(h.handleUserGroupAdd))
	mux.HandleFunc("POST /users/{id}/groups/remove", h.requireSuperadmin(h.handleUserGroupRemove))

	mux.HandleFunc("GET /logs", h.requireSuperadmin(h.handleLogsPage))
	mux.HandleFunc("GET /logs/new", h.requireSuperadmin(h.handleLogNewPage))
	mux.HandleFunc("POST /logs", h.requireSuperadmin(h.handleLogCreate))
	mux.HandleFunc("GET /logs/{id}/edit", h.requireSuperadmin(h.handleLogEditPage))
	mux.HandleFunc("POST /logs/{id}", h.requireSuperadmin(h.handleLogUpdate))
	mux.HandleFunc("POST /logs/{id}/delete", h.requireSuperadmin(h.handleLogDelete))

	return h.requestLogger(h.attachSession(mux))
}

// requestLogger assigns each request an ID and logs its outcome.
func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		started := time.Now()

		next.ServeHTTP(rec, r)

		h.logger.Debug("request",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(started),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// attachSession resolves the session cookie at most once per request,
// mints the CSRF cookie, and opportunistically sweeps expired sessions.
func (h *Handler) attachSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.maybeSweepSessions(r)

		csrfToken := h.ensureCSRFCookie(w, r)

		cookie, err := r.Cookie(SessionCookieName)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}

		session, err := h.store.FindSessionByToken(r.Context(), cookie.Value)
		if err != nil {
			if errors.Is(err, store.ErrSessionNotFound) {
				// Stale or forged cookie: clear it so the browser stops sending it.
				h.clearCookie(w, SessionCookieName)
				next.ServeHTTP(w, r)
				return
			}
			h.logger.Error("session lookup failed", "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		if err := h.store.TouchSession(r.Context(), session.ID); err != nil {
			h.logger.Warn("failed to touch session", "session_id", session.ID, "error", err)
		}

		identity := &auth.Identity{
			User:      session.User,
			SessionID: session.ID,
			CSRFToken: csrfToken,
		}
		next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), identity)))
	})
}

// maybeSweepSessions deletes expired sessions at most once per interval.
func (h *Handler) maybeSweepSessions(r *http.Request) {
	h.sweepMu.Lock()
	due := time.Since(h.lastSweep) >= sessionSweepInterval
	if due {
		h.lastSweep = time.Now()
	}
	h.sweepMu.Unlock()

	if !due {
		return
	}

	if _, err := h.store.DeleteExpiredSessions(r.Context()); err != nil {
		h.logger.Warn("session sweep failed", "error", err)
	}
}

// handleRoot forwards to the dashboard or the login page by auth state.
func (h *Handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	if auth.FromContext(r.Context()) != nil {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// requireGuest redirects authenticated users to the dashboard.
func (h *Handler) requireGuest(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if auth.FromContext(r.Context()) != nil {
			http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
			return
		}
		next(w, r)
	}
}

// requireAuth redirects guests to the login page.
func (h *Handler) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if auth.FromContext(r.Context()) == nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next(w, r)
	}
}

// requireSuperadmin additionally bounces non-superadmins to the dashboard.
func (h *Handler) requireSuperadmin(next http.HandlerFunc) http.HandlerFunc {
	return h.requireAuth(func(w http.ResponseWriter, r *http.Request) {
		identity := auth.FromContext(r.Context())
		if !identity.User.IsSuperadmin() {
			// Silent redirect rather than 403, to avoid revealing which
			// routes exist.
			http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
			return
		}
		next(w, r)
	})
}

// ensureCSRFCookie returns the CSRF token, minting the cookie when absent.
func (h *Handler) ensureCSRFCookie(w http.ResponseWriter, r *http.Request) string {
	cookie, err := r.Cookie(CSRFCookieName)
	if err == nil && cookie.Value != "" {
		return cookie.Value
	}

	token, err := generateSecureToken(32)
	if err != nil {
		h.logger.Error("failed to generate CSRF token", "error", err)
		return ""
	}

	// Not HttpOnly: the double-submit check needs the form to echo it back,
	// and client scripts may attach it as a header.
	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    token,
		Path:     "/",
		Domain:   h.cfg.Sessions.CookieDomain,
		Expires:  time.Now().Add(PreferenceCookieDuration),
		Secure:   h.cfg.Production(),
		SameSite: http.SameSiteLaxMode,
	})

	return token
}

// validateCSRF checks the submitted token against the CSRF cookie.
func (h *Handler) validateCSRF(r *http.Request) bool {
	cookie, err := r.Cookie(CSRFCookieName)
	if err != nil || cookie.Value == "" {
		return false
	}

	formToken := r.FormValue("csrf_token")
	if formToken == "" {
		formToken = r.Header.Get("X-CSRF-Token")
	}

	return formToken != "" && formToken == cookie.Value
}

// setSessionCookie stores the session token with the session's own expiry.
func (h *Handler) setSessionCookie(w http.ResponseWriter, session *store.NewSession) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    session.Token,
		Path:     "/",
		Domain:   h.cfg.Sessions.CookieDomain,
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   h.cfg.Production(),
		SameSite: http.SameSiteLaxMode,
	})
}

// setRememberCookie records the login form's remember-me choice.
func (h *Handler) setRememberCookie(w http.ResponseWriter, remember bool) {
	value := "0"
	if remember {
		value = "1"
	}
	http.SetCookie(w, &http.Cookie{
		Name:     RememberCookieName,
		Value:    value,
		Path:     "/",
		Domain:   h.cfg.Sessions.CookieDomain,
		Expires:  time.Now().Add(PreferenceCookieDuration),
		HttpOnly: true,
		Secure:   h.cfg.Production(),
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   h.cfg.Sessions.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// handleHealthz reports liveness and process uptime.
func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status": "ok",
		"uptime": time.Since(h.start).Round(time.Second).String(),
	})
}

// pathID parses the {id} path segment.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", r.PathValue("id"))
	}
	return id, nil
}

// generateSecureToken returns byteLen random bytes hex-encoded.
func generateSecureToken(byteLen int) (string, error) {
	buf := make([]byte, byteLen)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
