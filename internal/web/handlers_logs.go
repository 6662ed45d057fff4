// ABOUTME: Dashboard, log viewer, and log registry management handlers
// ABOUTME: Per-log access is resolved once per request via getAuthorizedLog

package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/tailboard/tailboard/internal/auth"
	"github.com/tailboard/tailboard/internal/store"
	"github.com/tailboard/tailboard/internal/tailer"
)

// visibleLogs lists the logs the current user may see.
func (h *Handler) visibleLogs(r *http.Request) ([]*store.Log, error) {
	identity := auth.FromContext(r.Context())
	if identity.User.IsSuperadmin() {
		return h.store.ListLogs(r.Context())
	}
	return h.store.ListLogsForUser(r.Context(), identity.User.ID)
}

// handleDashboard lists the logs visible to the current user.
func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	logs, err := h.visibleLogs(r)
	if err != nil {
		h.logger.Error("failed to list logs", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.renderDashboard(w, r, logs, "")
}

// renderDashboardError re-renders the dashboard with an inline error.
func (h *Handler) renderDashboardError(w http.ResponseWriter, r *http.Request, errorMsg string) {
	logs, err := h.visibleLogs(r)
	if err != nil {
		h.logger.Error("failed to list logs", "error", err)
	}
	h.renderDashboard(w, r, logs, errorMsg)
}

// getAuthorizedLog loads the {id} log and enforces per-log access for
// the raw content and clear endpoints. It writes the text error response
// itself and returns nil when the caller should stop.
func (h *Handler) getAuthorizedLog(w http.ResponseWriter, r *http.Request) *store.Log {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid log id", http.StatusBadRequest)
		return nil
	}

	logEntry, err := h.store.GetLog(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrLogNotFound) {
			http.Error(w, "Log not found", http.StatusNotFound)
			return nil
		}
		h.logger.Error("failed to load log", "log_id", id, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return nil
	}

	identity := auth.FromContext(r.Context())
	ok, err := auth.CanAccessLog(r.Context(), h.store, identity.User, logEntry)
	if err != nil {
		h.logger.Error("access check failed", "log_id", id, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return nil
	}
	if !ok {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return nil
	}

	return logEntry
}

// handleLogView renders the log viewer page. Missing logs fall back to
// the dashboard with an inline error; access failures are a 403 since
// there is no safe page to redirect to.
func (h *Handler) handleLogView(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.renderDashboardError(w, r, "Invalid log id")
		return
	}

	logEntry, err := h.store.GetLog(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrLogNotFound) {
			h.renderDashboardError(w, r, "Log not found")
			return
		}
		h.logger.Error("failed to load log", "log_id", id, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	identity := auth.FromContext(r.Context())
	ok, err := auth.CanAccessLog(r.Context(), h.store, identity.User, logEntry)
	if err != nil {
		h.logger.Error("access check failed", "log_id", id, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	h.renderLogViewer(w, r, logEntry)
}

// handleLogContent returns the tail of the file as plain text. The lines
// query parameter overrides the log's configured count, clamped to the
// allowed range.
func (h *Handler) handleLogContent(w http.ResponseWriter, r *http.Request) {
	logEntry := h.getAuthorizedLog(w, r)
	if logEntry == nil {
		return
	}

	lines := logEntry.TailLines
	if raw := r.URL.Query().Get("lines"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "Invalid lines parameter", http.StatusBadRequest)
			return
		}
		lines = parsed
	}
	lines = tailer.ClampLines(lines)

	content, err := h.tailer.Tail(r.Context(), logEntry.FilePath, lines)
	if err != nil {
		h.logger.Error("tail failed", "log_id", logEntry.ID, "path", logEntry.FilePath, "error", err)
		http.Error(w, "Failed to read log: "+err.Error(), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(content))
}

// handleLogClear truncates the file, when the log permits it.
func (h *Handler) handleLogClear(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil || !h.validateCSRF(r) {
		http.Error(w, "Invalid request", http.StatusForbidden)
		return
	}

	logEntry := h.getAuthorizedLog(w, r)
	if logEntry == nil {
		return
	}

	if !logEntry.AllowClear {
		http.Error(w, "Clearing is not enabled for this log", http.StatusForbidden)
		return
	}

	if err := h.tailer.Clear(r.Context(), logEntry.FilePath); err != nil {
		h.logger.Error("clear failed", "log_id", logEntry.ID, "path", logEntry.FilePath, "error", err)
		http.Error(w, "Failed to clear log: "+err.Error(), http.StatusBadGateway)
		return
	}

	identity := auth.FromContext(r.Context())
	h.logger.Info("log cleared", "log_id", logEntry.ID, "path", logEntry.FilePath, "user_id", identity.User.ID)
	http.Redirect(w, r, "/logs/"+strconv.FormatInt(logEntry.ID, 10)+"/view", http.StatusSeeOther)
}

// --- Registry management (superadmin) ---

// handleLogsPage renders the log registry.
func (h *Handler) handleLogsPage(w http.ResponseWriter, r *http.Request) {
	h.renderLogsPage(w, r, "")
}

// handleLogNewPage renders the register-log form.
func (h *Handler) handleLogNewPage(w http.ResponseWriter, r *http.Request) {
	h.renderLogNewPage(w, r, "")
}

// handleLogCreate registers a new log from the admin form.
func (h *Handler) handleLogCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderLogNewPage(w, r, "Invalid form data")
		return
	}
	if !h.validateCSRF(r) {
		h.renderLogNewPage(w, r, "Invalid request, please try again")
		return
	}

	params, errMsg := h.parseLogForm(r)
	if errMsg != "" {
		h.renderLogNewPage(w, r, errMsg)
		return
	}

	identity := auth.FromContext(r.Context())
	params.CreatedBy = &identity.User.ID

	if _, err := h.store.CreateLog(r.Context(), *params); err != nil {
		if errors.Is(err, store.ErrGroupNotFound) {
			h.renderLogNewPage(w, r, "Selected group does not exist")
			return
		}
		h.logger.Error("failed to create log", "error", err)
		h.renderLogNewPage(w, r, "An error occurred")
		return
	}

	http.Redirect(w, r, "/logs", http.StatusSeeOther)
}

// parseLogForm validates the shared create-form fields.
func (h *Handler) parseLogForm(r *http.Request) (*store.CreateLogParams, string) {
	name := r.FormValue("name")
	filePath := r.FormValue("file_path")
	if name == "" || filePath == "" {
		return nil, "Name and file path are required"
	}

	tailLines := tailer.DefaultLines
	if raw := r.FormValue("tail_lines"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < tailer.MinLines || parsed > tailer.MaxLines {
			return nil, "Tail lines must be a number between 10 and 10000"
		}
		tailLines = parsed
	}

	params := &store.CreateLogParams{
		Name:        name,
		Description: r.FormValue("description"),
		FilePath:    filePath,
		TailLines:   tailLines,
		AllowClear:  r.FormValue("allow_clear") == "1",
	}

	if raw := r.FormValue("group_id"); raw != "" {
		groupID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || groupID <= 0 {
			return nil, "Invalid group"
		}
		params.GroupID = &groupID
	}

	return params, ""
}

// loadRegisteredLog resolves the {id} log for registry management,
// rendering the registry list with an inline error on failure.
func (h *Handler) loadRegisteredLog(w http.ResponseWriter, r *http.Request) *store.Log {
	id, err := pathID(r)
	if err != nil {
		h.renderLogsPage(w, r, "Invalid log id")
		return nil
	}

	logEntry, err := h.store.GetLog(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrLogNotFound) {
			h.renderLogsPage(w, r, "Log not found")
			return nil
		}
		h.logger.Error("failed to load log", "log_id", id, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return nil
	}

	return logEntry
}

// handleLogEditPage renders the edit form for one log.
func (h *Handler) handleLogEditPage(w http.ResponseWriter, r *http.Request) {
	logEntry := h.loadRegisteredLog(w, r)
	if logEntry == nil {
		return
	}

	h.renderLogEditPage(w, r, logEntry, "")
}

// handleLogUpdate applies a partial update from the edit form. Empty
// fields are left unchanged; the group select and allow-clear checkbox
// always submit and therefore always apply.
func (h *Handler) handleLogUpdate(w http.ResponseWriter, r *http.Request) {
	logEntry := h.loadRegisteredLog(w, r)
	if logEntry == nil {
		return
	}

	if err := r.ParseForm(); err != nil {
		h.renderLogEditPage(w, r, logEntry, "Invalid form data")
		return
	}
	if !h.validateCSRF(r) {
		h.renderLogEditPage(w, r, logEntry, "Invalid request, please try again")
		return
	}

	var params store.UpdateLogParams

	if v := r.FormValue("name"); v != "" {
		params.Name = &v
	}
	if v := r.FormValue("description"); v != "" {
		params.Description = &v
	}
	if v := r.FormValue("file_path"); v != "" {
		params.FilePath = &v
	}
	if raw := r.FormValue("tail_lines"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < tailer.MinLines || parsed > tailer.MaxLines {
			h.renderLogEditPage(w, r, logEntry, "Tail lines must be a number between 10 and 10000")
			return
		}
		params.TailLines = &parsed
	}

	allowClear := r.FormValue("allow_clear") == "1"
	params.AllowClear = &allowClear

	// group_id always submits: empty selects "no group".
	groupID := int64(0)
	if raw := r.FormValue("group_id"); raw != "" {
		var err error
		groupID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil || groupID <= 0 {
			h.renderLogEditPage(w, r, logEntry, "Invalid group")
			return
		}
	}
	params.GroupID = &groupID

	if _, err := h.store.UpdateLog(r.Context(), logEntry.ID, params); err != nil {
		if errors.Is(err, store.ErrGroupNotFound) {
			h.renderLogEditPage(w, r, logEntry, "Selected group does not exist")
			return
		}
		h.logger.Error("failed to update log", "log_id", logEntry.ID, "error", err)
		h.renderLogEditPage(w, r, logEntry, "An error occurred")
		return
	}

	http.Redirect(w, r, "/logs", http.StatusSeeOther)
}

// handleLogDelete unregisters a log.
func (h *Handler) handleLogDelete(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil || !h.validateCSRF(r) {
		http.Error(w, "Invalid request", http.StatusForbidden)
		return
	}

	logEntry := h.loadRegisteredLog(w, r)
	if logEntry == nil {
		return
	}

	if err := h.store.DeleteLog(r.Context(), logEntry.ID); err != nil && !errors.Is(err, store.ErrLogNotFound) {
		h.logger.Error("failed to delete log", "log_id", logEntry.ID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/logs", http.StatusSeeOther)
}
