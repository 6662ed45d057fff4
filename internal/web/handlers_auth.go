// ABOUTME: Login, logout, and profile handlers
// ABOUTME: Login failures render the same message regardless of the cause

package web

import (
	"errors"
	"net/http"

	"github.com/tailboard/tailboard/internal/auth"
	"github.com/tailboard/tailboard/internal/store"
)

const badCredentialsMessage = "Invalid username or password"

// dummyCredentialHash is a valid scrypt hash (of "not-a-real-password")
// verified on login failures where no stored hash is available, so that
// unknown and known identifiers take the same time to reject.
const dummyCredentialHash = "scrypt:6d3f8a21c47be095d2a1f30c58e47b9a:08b885ea8430ed49b8b2061fc4863491f7169536d5e41635dac3102f29a5f411e94f011db2d54693cb5a42548eb12372fbc617e21c67dbd161356212639eaf21"

// handleLoginPage renders the login form. The remember-me checkbox is
// prefilled from the preference cookie.
func (h *Handler) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	remember := false
	if cookie, err := r.Cookie(RememberCookieName); err == nil {
		remember = cookie.Value == "1"
	}

	var notice string
	if r.URL.Query().Get("notice") == "password-updated" {
		notice = "Password updated, please sign in again"
	}

	h.renderLoginPage(w, r, "", notice, remember)
}

// handleLogin processes the login form submission.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderLoginPage(w, r, "Invalid form data", "", false)
		return
	}

	if !h.validateCSRF(r) {
		h.renderLoginPage(w, r, "Invalid request, please try again", "", false)
		return
	}

	identifier := r.FormValue("login")
	password := r.FormValue("password")
	remember := r.FormValue("remember") == "1"

	if identifier == "" || password == "" {
		h.renderLoginPage(w, r, "Username and password required", "", remember)
		return
	}

	user, err := h.store.GetUserByLogin(r.Context(), identifier)
	if err != nil {
		if !errors.Is(err, store.ErrUserNotFound) {
			h.logger.Error("failed to look up user", "error", err)
		}
		// Burn a full derivation against the dummy hash so unknown and
		// known identifiers take the same time to reject.
		auth.VerifyPassword(password, dummyCredentialHash)
		h.renderLoginPage(w, r, badCredentialsMessage, "", remember)
		return
	}

	// Verify before the active check so deactivated accounts do not
	// reject faster than wrong passwords.
	valid := auth.VerifyPassword(password, user.PasswordHash)
	if !valid || !user.Active {
		h.renderLoginPage(w, r, badCredentialsMessage, "", remember)
		return
	}

	session, err := h.store.CreateSession(r.Context(), user.ID, remember)
	if err != nil {
		h.logger.Error("failed to create session", "error", err)
		h.renderLoginPage(w, r, "An error occurred", "", remember)
		return
	}

	if err := h.store.SetLastLogin(r.Context(), user.ID); err != nil {
		h.logger.Warn("failed to record last login", "user_id", user.ID, "error", err)
	}

	h.setSessionCookie(w, session)
	h.setRememberCookie(w, remember)

	h.logger.Info("login successful", "username", user.Username, "remember", remember)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// handleLogout deletes the current session and clears the cookie.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err == nil {
		if !h.validateCSRF(r) {
			h.logger.Warn("logout request with invalid CSRF token")
		}
	}

	identity := auth.FromContext(r.Context())
	if err := h.store.DeleteSession(r.Context(), identity.SessionID); err != nil {
		h.logger.Warn("failed to delete session", "session_id", identity.SessionID, "error", err)
	}

	h.clearCookie(w, SessionCookieName)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// handleProfilePage renders the current user's profile.
func (h *Handler) handleProfilePage(w http.ResponseWriter, r *http.Request) {
	h.renderProfilePage(w, r, "", "")
}

// handleProfileName updates the current user's display name.
func (h *Handler) handleProfileName(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderProfilePage(w, r, "Invalid form data", "")
		return
	}
	if !h.validateCSRF(r) {
		h.renderProfilePage(w, r, "Invalid request, please try again", "")
		return
	}

	name := r.FormValue("name")
	if name == "" {
		h.renderProfilePage(w, r, "Name must not be empty", "")
		return
	}

	identity := auth.FromContext(r.Context())
	if _, err := h.store.UpdateUserName(r.Context(), identity.User.ID, name); err != nil {
		h.logger.Error("failed to update name", "user_id", identity.User.ID, "error", err)
		h.renderProfilePage(w, r, "An error occurred", "")
		return
	}

	identity.User.Name = name
	h.renderProfilePage(w, r, "", "Name updated")
}

// handleProfilePassword changes the current user's password after
// verifying the old one.
func (h *Handler) handleProfilePassword(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderProfilePage(w, r, "Invalid form data", "")
		return
	}
	if !h.validateCSRF(r) {
		h.renderProfilePage(w, r, "Invalid request, please try again", "")
		return
	}

	current := r.FormValue("current_password")
	next := r.FormValue("new_password")

	if len(next) < 8 {
		h.renderProfilePage(w, r, "New password must be at least 8 characters", "")
		return
	}

	identity := auth.FromContext(r.Context())
	user, err := h.store.GetUserWithPassword(r.Context(), identity.User.ID)
	if err != nil {
		h.logger.Error("failed to load user", "user_id", identity.User.ID, "error", err)
		h.renderProfilePage(w, r, "An error occurred", "")
		return
	}

	if !auth.VerifyPassword(current, user.PasswordHash) {
		h.renderProfilePage(w, r, "Current password is incorrect", "")
		return
	}

	hash, err := auth.HashPassword(next)
	if err != nil {
		h.renderProfilePage(w, r, "An error occurred", "")
		return
	}

	if err := h.store.UpdateUserPassword(r.Context(), user.ID, hash); err != nil {
		h.logger.Error("failed to update password", "user_id", user.ID, "error", err)
		h.renderProfilePage(w, r, "An error occurred", "")
		return
	}

	// The old session token was minted under the old credential, so the
	// password change revokes it and the user signs in again.
	if err := h.store.DeleteSession(r.Context(), identity.SessionID); err != nil {
		h.logger.Warn("failed to revoke session", "session_id", identity.SessionID, "error", err)
	}
	h.clearCookie(w, SessionCookieName)

	h.logger.Info("password changed", "user_id", user.ID)
	http.Redirect(w, r, "/login?notice=password-updated", http.StatusSeeOther)
}
