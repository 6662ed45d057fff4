// ABOUTME: User management handlers (superadmin only)
// ABOUTME: Superadmin accounts are CLI-managed and rejected from web mutation

package web

import (
	"errors"
	"net/http"
	"net/mail"
	"strconv"

	"github.com/tailboard/tailboard/internal/auth"
	"github.com/tailboard/tailboard/internal/store"
)

const superadminManagedViaCLI = "Superadmin accounts can only be managed via the CLI"

// handleUsersPage renders the user list.
func (h *Handler) handleUsersPage(w http.ResponseWriter, r *http.Request) {
	h.renderUsersPage(w, r, "")
}

// handleUserNewPage renders the create-user form.
func (h *Handler) handleUserNewPage(w http.ResponseWriter, r *http.Request) {
	h.renderUserNewPage(w, r, "")
}

// handleUserCreate creates a regular user from the admin form. The web
// UI never creates superadmins.
func (h *Handler) handleUserCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderUserNewPage(w, r, "Invalid form data")
		return
	}
	if !h.validateCSRF(r) {
		h.renderUserNewPage(w, r, "Invalid request, please try again")
		return
	}

	username := r.FormValue("username")
	email := r.FormValue("email")
	password := r.FormValue("password")

	if username == "" || email == "" || password == "" {
		h.renderUserNewPage(w, r, "Username, email, and password are required")
		return
	}
	if _, err := mail.ParseAddress(email); err != nil {
		h.renderUserNewPage(w, r, "Invalid email address")
		return
	}
	if len(password) < 8 {
		h.renderUserNewPage(w, r, "Password must be at least 8 characters")
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		h.renderUserNewPage(w, r, "An error occurred")
		return
	}

	_, err = h.store.CreateUser(r.Context(), store.CreateUserParams{
		Username:     username,
		Email:        email,
		Name:         r.FormValue("name"),
		PasswordHash: hash,
		Role:         store.RoleUser,
	})
	if err != nil {
		var conflict *store.ConflictError
		if errors.As(err, &conflict) {
			h.renderUserNewPage(w, r, "A user with that "+conflict.Field+" already exists")
			return
		}
		h.logger.Error("failed to create user", "username", username, "error", err)
		h.renderUserNewPage(w, r, "An error occurred")
		return
	}

	http.Redirect(w, r, "/users", http.StatusSeeOther)
}

// loadManagedUser resolves the {id} user and rejects superadmin targets.
// Missing users render the list with an inline error.
func (h *Handler) loadManagedUser(w http.ResponseWriter, r *http.Request) *store.User {
	id, err := pathID(r)
	if err != nil {
		h.renderUsersPage(w, r, "Invalid user id")
		return nil
	}

	user, err := h.store.GetUser(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			h.renderUsersPage(w, r, "User not found")
			return nil
		}
		h.logger.Error("failed to load user", "user_id", id, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return nil
	}

	if user.IsSuperadmin() {
		http.Error(w, superadminManagedViaCLI, http.StatusForbidden)
		return nil
	}

	return user
}

// handleUserEditPage renders one user with their memberships and edit forms.
func (h *Handler) handleUserEditPage(w http.ResponseWriter, r *http.Request) {
	user := h.loadManagedUser(w, r)
	if user == nil {
		return
	}

	h.renderUserEditPage(w, r, user, "")
}

// handleUserUpdate changes a user's display name.
func (h *Handler) handleUserUpdate(w http.ResponseWriter, r *http.Request) {
	user := h.loadManagedUser(w, r)
	if user == nil {
		return
	}

	if err := r.ParseForm(); err != nil {
		h.renderUserEditPage(w, r, user, "Invalid form data")
		return
	}
	if !h.validateCSRF(r) {
		h.renderUserEditPage(w, r, user, "Invalid request, please try again")
		return
	}

	name := r.FormValue("name")
	if name == "" {
		h.renderUserEditPage(w, r, user, "Name is required")
		return
	}

	if _, err := h.store.UpdateUserName(r.Context(), user.ID, name); err != nil {
		h.logger.Error("failed to update user", "user_id", user.ID, "error", err)
		h.renderUserEditPage(w, r, user, "An error occurred")
		return
	}

	http.Redirect(w, r, "/users/"+strconv.FormatInt(user.ID, 10)+"/edit", http.StatusSeeOther)
}

// handleUserPassword resets a user's password from the admin page.
func (h *Handler) handleUserPassword(w http.ResponseWriter, r *http.Request) {
	user := h.loadManagedUser(w, r)
	if user == nil {
		return
	}

	if err := r.ParseForm(); err != nil {
		h.renderUserEditPage(w, r, user, "Invalid form data")
		return
	}
	if !h.validateCSRF(r) {
		h.renderUserEditPage(w, r, user, "Invalid request, please try again")
		return
	}

	password := r.FormValue("password")
	if len(password) < 8 {
		h.renderUserEditPage(w, r, user, "Password must be at least 8 characters")
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		h.renderUserEditPage(w, r, user, "An error occurred")
		return
	}

	if err := h.store.UpdateUserPassword(r.Context(), user.ID, hash); err != nil {
		h.logger.Error("failed to reset password", "user_id", user.ID, "error", err)
		h.renderUserEditPage(w, r, user, "An error occurred")
		return
	}

	h.logger.Info("password reset by admin", "user_id", user.ID)
	http.Redirect(w, r, "/users/"+strconv.FormatInt(user.ID, 10)+"/edit", http.StatusSeeOther)
}

// handleUserDeactivate marks a user inactive, which invalidates their
// sessions on the next request.
func (h *Handler) handleUserDeactivate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil || !h.validateCSRF(r) {
		http.Error(w, "Invalid request", http.StatusForbidden)
		return
	}

	user := h.loadManagedUser(w, r)
	if user == nil {
		return
	}

	if err := h.store.DeactivateUser(r.Context(), user.ID); err != nil {
		h.logger.Error("failed to deactivate user", "user_id", user.ID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/users", http.StatusSeeOther)
}

// handleUserDelete removes a user entirely.
func (h *Handler) handleUserDelete(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil || !h.validateCSRF(r) {
		http.Error(w, "Invalid request", http.StatusForbidden)
		return
	}

	user := h.loadManagedUser(w, r)
	if user == nil {
		return
	}

	if err := h.store.DeleteUser(r.Context(), user.ID); err != nil {
		h.logger.Error("failed to delete user", "user_id", user.ID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/users", http.StatusSeeOther)
}

// handleUserGroupAdd grants a membership from the user page.
func (h *Handler) handleUserGroupAdd(w http.ResponseWriter, r *http.Request) {
	user := h.loadManagedUser(w, r)
	if user == nil {
		return
	}

	if err := r.ParseForm(); err != nil || !h.validateCSRF(r) {
		http.Error(w, "Invalid request", http.StatusForbidden)
		return
	}

	groupID, err := strconv.ParseInt(r.FormValue("group_id"), 10, 64)
	if err != nil || groupID <= 0 {
		h.renderUserEditPage(w, r, user, "Invalid group")
		return
	}

	if err := h.store.AddMembership(r.Context(), user.ID, groupID); err != nil {
		if errors.Is(err, store.ErrGroupNotFound) {
			h.renderUserEditPage(w, r, user, "Group does not exist")
			return
		}
		h.logger.Error("failed to add membership", "user_id", user.ID, "group_id", groupID, "error", err)
		h.renderUserEditPage(w, r, user, "An error occurred")
		return
	}

	http.Redirect(w, r, "/users/"+strconv.FormatInt(user.ID, 10)+"/edit", http.StatusSeeOther)
}

// handleUserGroupRemove revokes a membership from the user page.
func (h *Handler) handleUserGroupRemove(w http.ResponseWriter, r *http.Request) {
	user := h.loadManagedUser(w, r)
	if user == nil {
		return
	}

	if err := r.ParseForm(); err != nil || !h.validateCSRF(r) {
		http.Error(w, "Invalid request", http.StatusForbidden)
		return
	}

	groupID, err := strconv.ParseInt(r.FormValue("group_id"), 10, 64)
	if err != nil || groupID <= 0 {
		h.renderUserEditPage(w, r, user, "Invalid group")
		return
	}

	if err := h.store.RemoveMembership(r.Context(), user.ID, groupID); err != nil {
		h.logger.Error("failed to remove membership", "user_id", user.ID, "group_id", groupID, "error", err)
		h.renderUserEditPage(w, r, user, "An error occurred")
		return
	}

	http.Redirect(w, r, "/users/"+strconv.FormatInt(user.ID, 10)+"/edit", http.StatusSeeOther)
}
