// ABOUTME: Access group management handlers (superadmin only)
// ABOUTME: Conflicts surface as form errors via the typed conflict taxonomy

package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/tailboard/tailboard/internal/store"
)

// handleGroupsPage renders the group list.
func (h *Handler) handleGroupsPage(w http.ResponseWriter, r *http.Request) {
	h.renderGroupsPage(w, r, "")
}

// handleGroupNewPage renders the create-group form.
func (h *Handler) handleGroupNewPage(w http.ResponseWriter, r *http.Request) {
	h.renderGroupNewPage(w, r, "")
}

// handleGroupCreate creates a new group from the admin form.
func (h *Handler) handleGroupCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderGroupNewPage(w, r, "Invalid form data")
		return
	}
	if !h.validateCSRF(r) {
		h.renderGroupNewPage(w, r, "Invalid request, please try again")
		return
	}

	slug := r.FormValue("slug")
	name := r.FormValue("name")
	if slug == "" || name == "" {
		h.renderGroupNewPage(w, r, "Slug and name are required")
		return
	}
	if !store.ValidSlug(slug) {
		h.renderGroupNewPage(w, r, "Slug may only contain letters, digits, and underscores")
		return
	}

	_, err := h.store.CreateGroup(r.Context(), slug, name, r.FormValue("description"))
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			h.renderGroupNewPage(w, r, "A group with that slug already exists")
			return
		}
		h.logger.Error("failed to create group", "slug", slug, "error", err)
		h.renderGroupNewPage(w, r, "An error occurred")
		return
	}

	http.Redirect(w, r, "/groups", http.StatusSeeOther)
}

// loadGroup resolves the {id} group. On failure it renders the group
// list with an inline error and returns nil.
func (h *Handler) loadGroup(w http.ResponseWriter, r *http.Request) *store.Group {
	id, err := pathID(r)
	if err != nil {
		h.renderGroupsPage(w, r, "Invalid group id")
		return nil
	}

	group, err := h.store.GetGroup(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrGroupNotFound) {
			h.renderGroupsPage(w, r, "Group not found")
			return nil
		}
		h.logger.Error("failed to load group", "group_id", id, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return nil
	}

	return group
}

// handleGroupEditPage renders one group with its members and edit form.
func (h *Handler) handleGroupEditPage(w http.ResponseWriter, r *http.Request) {
	group := h.loadGroup(w, r)
	if group == nil {
		return
	}

	h.renderGroupEditPage(w, r, group, "")
}

// handleGroupUpdate renames a group. The slug is immutable.
func (h *Handler) handleGroupUpdate(w http.ResponseWriter, r *http.Request) {
	group := h.loadGroup(w, r)
	if group == nil {
		return
	}

	if err := r.ParseForm(); err != nil {
		h.renderGroupEditPage(w, r, group, "Invalid form data")
		return
	}
	if !h.validateCSRF(r) {
		h.renderGroupEditPage(w, r, group, "Invalid request, please try again")
		return
	}

	name := r.FormValue("name")
	if name == "" {
		h.renderGroupEditPage(w, r, group, "Name is required")
		return
	}

	if _, err := h.store.UpdateGroup(r.Context(), group.ID, name, r.FormValue("description")); err != nil {
		h.logger.Error("failed to update group", "group_id", group.ID, "error", err)
		h.renderGroupEditPage(w, r, group, "An error occurred")
		return
	}

	http.Redirect(w, r, "/groups/"+strconv.FormatInt(group.ID, 10)+"/edit", http.StatusSeeOther)
}

// handleGroupDelete removes a group. Its logs become public.
func (h *Handler) handleGroupDelete(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil || !h.validateCSRF(r) {
		http.Error(w, "Invalid request", http.StatusForbidden)
		return
	}

	group := h.loadGroup(w, r)
	if group == nil {
		return
	}

	if err := h.store.DeleteGroup(r.Context(), group.ID); err != nil && !errors.Is(err, store.ErrGroupNotFound) {
		h.logger.Error("failed to delete group", "group_id", group.ID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/groups", http.StatusSeeOther)
}

// handleGroupMemberAdd grants a user membership from the group page.
func (h *Handler) handleGroupMemberAdd(w http.ResponseWriter, r *http.Request) {
	group := h.loadGroup(w, r)
	if group == nil {
		return
	}

	if err := r.ParseForm(); err != nil || !h.validateCSRF(r) {
		http.Error(w, "Invalid request", http.StatusForbidden)
		return
	}

	userID, err := strconv.ParseInt(r.FormValue("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		h.renderGroupEditPage(w, r, group, "Invalid user")
		return
	}

	if err := h.store.AddMembership(r.Context(), userID, group.ID); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			h.renderGroupEditPage(w, r, group, "User does not exist")
			return
		}
		h.logger.Error("failed to add membership", "user_id", userID, "group_id", group.ID, "error", err)
		h.renderGroupEditPage(w, r, group, "An error occurred")
		return
	}

	http.Redirect(w, r, "/groups/"+strconv.FormatInt(group.ID, 10)+"/edit", http.StatusSeeOther)
}

// handleGroupMemberRemove revokes a membership from the group page.
func (h *Handler) handleGroupMemberRemove(w http.ResponseWriter, r *http.Request) {
	group := h.loadGroup(w, r)
	if group == nil {
		return
	}

	if err := r.ParseForm(); err != nil || !h.validateCSRF(r) {
		http.Error(w, "Invalid request", http.StatusForbidden)
		return
	}

	userID, err := strconv.ParseInt(r.FormValue("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		h.renderGroupEditPage(w, r, group, "Invalid user")
		return
	}

	if err := h.store.RemoveMembership(r.Context(), userID, group.ID); err != nil {
		h.logger.Error("failed to remove membership", "user_id", userID, "group_id", group.ID, "error", err)
		h.renderGroupEditPage(w, r, group, "An error occurred")
		return
	}

	http.Redirect(w, r, "/groups/"+strconv.FormatInt(group.ID, 10)+"/edit", http.StatusSeeOther)
}
