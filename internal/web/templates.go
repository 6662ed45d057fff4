// ABOUTME: Template rendering functions for the tailboard UI
// ABOUTME: Loads templates from embedded filesystem and renders them

package web

import (
	"html/template"
	"net/http"

	"github.com/tailboard/tailboard/internal/auth"
	"github.com/tailboard/tailboard/internal/store"
)

// Template data types
type loginData struct {
	Title     string
	User      *store.User
	Error     string
	Notice    string
	Remember  bool
	CSRFToken string
}

type dashboardData struct {
	Title     string
	User      *store.User
	Logs      []*store.Log
	Error     string
	CSRFToken string
}

type profileData struct {
	Title     string
	User      *store.User
	Error     string
	Success   string
	CSRFToken string
}

type logViewerData struct {
	Title     string
	User      *store.User
	Log       *store.Log
	CSRFToken string
}

type groupsPageData struct {
	Title     string
	User      *store.User
	Groups    []*store.Group
	Error     string
	CSRFToken string
}

type groupEditData struct {
	Title     string
	User      *store.User
	Group     *store.Group
	Members   []*store.GroupMember
	AllUsers  []*store.User
	Error     string
	CSRFToken string
}

type usersPageData struct {
	Title     string
	User      *store.User
	Users     []*store.User
	Error     string
	CSRFToken string
}

type userEditData struct {
	Title       string
	User        *store.User
	Target      *store.User
	Memberships []*store.Membership
	AllGroups   []*store.Group
	Error       string
	CSRFToken   string
}

type logsPageData struct {
	Title     string
	User      *store.User
	Logs      []*store.Log
	Error     string
	CSRFToken string
}

// formPageData backs the standalone create-form pages.
type formPageData struct {
	Title     string
	User      *store.User
	Groups    []*store.Group
	Error     string
	CSRFToken string
}

type logEditData struct {
	Title     string
	User      *store.User
	Log       *store.Log
	Groups    []*store.Group
	Error     string
	CSRFToken string
}

func identityParts(r *http.Request) (*store.User, string) {
	identity := auth.FromContext(r.Context())
	if identity == nil {
		return nil, ""
	}
	return identity.User, identity.CSRFToken
}

func (h *Handler) execute(w http.ResponseWriter, data any, files ...string) {
	tmpl := template.Must(template.ParseFS(templateFS, files...))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		h.logger.Error("failed to render template", "template", files[len(files)-1], "error", err)
	}
}

// renderLoginPage renders the login form.
func (h *Handler) renderLoginPage(w http.ResponseWriter, r *http.Request, errorMsg, notice string, remember bool) {
	var csrfToken string
	if cookie, err := r.Cookie(CSRFCookieName); err == nil {
		csrfToken = cookie.Value
	}

	h.execute(w, loginData{
		Title:     "Login",
		Error:     errorMsg,
		Notice:    notice,
		Remember:  remember,
		CSRFToken: csrfToken,
	}, "templates/base.html", "templates/login.html")
}

// renderDashboard renders the visible-logs dashboard.
func (h *Handler) renderDashboard(w http.ResponseWriter, r *http.Request, logs []*store.Log, errorMsg string) {
	user, csrfToken := identityParts(r)

	h.execute(w, dashboardData{
		Title:     "Logs",
		User:      user,
		Logs:      logs,
		Error:     errorMsg,
		CSRFToken: csrfToken,
	}, "templates/base.html", "templates/dashboard.html")
}

// renderProfilePage renders the profile page with its two forms.
func (h *Handler) renderProfilePage(w http.ResponseWriter, r *http.Request, errorMsg, successMsg string) {
	user, csrfToken := identityParts(r)

	h.execute(w, profileData{
		Title:     "Profile",
		User:      user,
		Error:     errorMsg,
		Success:   successMsg,
		CSRFToken: csrfToken,
	}, "templates/base.html", "templates/profile.html")
}

// renderLogViewer renders the log viewer shell; content loads over XHR.
func (h *Handler) renderLogViewer(w http.ResponseWriter, r *http.Request, logEntry *store.Log) {
	user, csrfToken := identityParts(r)

	h.execute(w, logViewerData{
		Title:     logEntry.Name,
		User:      user,
		Log:       logEntry,
		CSRFToken: csrfToken,
	}, "templates/base.html", "templates/log_viewer.html")
}

// renderGroupsPage renders the group list and create form.
func (h *Handler) renderGroupsPage(w http.ResponseWriter, r *http.Request, errorMsg string) {
	user, csrfToken := identityParts(r)

	groups, err := h.store.ListGroups(r.Context())
	if err != nil {
		h.logger.Error("failed to list groups", "error", err)
	}

	h.execute(w, groupsPageData{
		Title:     "Groups",
		User:      user,
		Groups:    groups,
		Error:     errorMsg,
		CSRFToken: csrfToken,
	}, "templates/base.html", "templates/groups.html")
}

// renderGroupNewPage renders the create-group form.
func (h *Handler) renderGroupNewPage(w http.ResponseWriter, r *http.Request, errorMsg string) {
	user, csrfToken := identityParts(r)

	h.execute(w, formPageData{
		Title:     "New Group",
		User:      user,
		Error:     errorMsg,
		CSRFToken: csrfToken,
	}, "templates/base.html", "templates/group_new.html")
}

// renderGroupEditPage renders one group with members and edit form.
func (h *Handler) renderGroupEditPage(w http.ResponseWriter, r *http.Request, group *store.Group, errorMsg string) {
	user, csrfToken := identityParts(r)

	members, err := h.store.ListUsersForGroup(r.Context(), group.ID)
	if err != nil {
		h.logger.Error("failed to list group members", "group_id", group.ID, "error", err)
	}
	allUsers, err := h.store.ListUsers(r.Context())
	if err != nil {
		h.logger.Error("failed to list users", "error", err)
	}

	h.execute(w, groupEditData{
		Title:     group.Name,
		User:      user,
		Group:     group,
		Members:   members,
		AllUsers:  allUsers,
		Error:     errorMsg,
		CSRFToken: csrfToken,
	}, "templates/base.html", "templates/group_edit.html")
}

// renderUsersPage renders the user list and create form.
func (h *Handler) renderUsersPage(w http.ResponseWriter, r *http.Request, errorMsg string) {
	user, csrfToken := identityParts(r)

	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		h.logger.Error("failed to list users", "error", err)
	}

	h.execute(w, usersPageData{
		Title:     "Users",
		User:      user,
		Users:     users,
		Error:     errorMsg,
		CSRFToken: csrfToken,
	}, "templates/base.html", "templates/users.html")
}

// renderUserNewPage renders the create-user form.
func (h *Handler) renderUserNewPage(w http.ResponseWriter, r *http.Request, errorMsg string) {
	user, csrfToken := identityParts(r)

	h.execute(w, formPageData{
		Title:     "New User",
		User:      user,
		Error:     errorMsg,
		CSRFToken: csrfToken,
	}, "templates/base.html", "templates/user_new.html")
}

// renderUserEditPage renders one user with memberships and edit forms.
func (h *Handler) renderUserEditPage(w http.ResponseWriter, r *http.Request, target *store.User, errorMsg string) {
	user, csrfToken := identityParts(r)

	memberships, err := h.store.ListGroupsForUser(r.Context(), target.ID)
	if err != nil {
		h.logger.Error("failed to list memberships", "user_id", target.ID, "error", err)
	}
	allGroups, err := h.store.ListGroups(r.Context())
	if err != nil {
		h.logger.Error("failed to list groups", "error", err)
	}

	h.execute(w, userEditData{
		Title:       target.Username,
		User:        user,
		Target:      target,
		Memberships: memberships,
		AllGroups:   allGroups,
		Error:       errorMsg,
		CSRFToken:   csrfToken,
	}, "templates/base.html", "templates/user_edit.html")
}

// renderLogsPage renders the log registry.
func (h *Handler) renderLogsPage(w http.ResponseWriter, r *http.Request, errorMsg string) {
	user, csrfToken := identityParts(r)

	logs, err := h.store.ListLogs(r.Context())
	if err != nil {
		h.logger.Error("failed to list logs", "error", err)
	}

	h.execute(w, logsPageData{
		Title:     "Manage Logs",
		User:      user,
		Logs:      logs,
		Error:     errorMsg,
		CSRFToken: csrfToken,
	}, "templates/base.html", "templates/logs.html")
}

// renderLogNewPage renders the register-log form.
func (h *Handler) renderLogNewPage(w http.ResponseWriter, r *http.Request, errorMsg string) {
	user, csrfToken := identityParts(r)

	groups, err := h.store.ListGroups(r.Context())
	if err != nil {
		h.logger.Error("failed to list groups", "error", err)
	}

	h.execute(w, formPageData{
		Title:     "Register Log",
		User:      user,
		Groups:    groups,
		Error:     errorMsg,
		CSRFToken: csrfToken,
	}, "templates/base.html", "templates/log_new.html")
}

// renderLogEditPage renders the edit form for one log.
func (h *Handler) renderLogEditPage(w http.ResponseWriter, r *http.Request, logEntry *store.Log, errorMsg string) {
	user, csrfToken := identityParts(r)

	groups, err := h.store.ListGroups(r.Context())
	if err != nil {
		h.logger.Error("failed to list groups", "error", err)
	}

	h.execute(w, logEditData{
		Title:     "Edit " + logEntry.Name,
		User:      user,
		Log:       logEntry,
		Groups:    groups,
		Error:     errorMsg,
		CSRFToken: csrfToken,
	}, "templates/base.html", "templates/log_edit.html")
}
