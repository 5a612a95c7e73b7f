package handler

import (
	"net/http"

	"github.com/MustakimRidoyMR/rewards-admin/internal/auditlog"
	"github.com/MustakimRidoyMR/rewards-admin/internal/model"
)

// LogsHandler exposes the admin action log.
type LogsHandler struct {
	audit *auditlog.Log
}

// NewLogsHandler creates a LogsHandler.
func NewLogsHandler(audit *auditlog.Log) *LogsHandler {
	return &LogsHandler{audit: audit}
}

// List returns retained action log entries, newest first.
// GET /api/v1/logs?limit=N
func (h *LogsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := clampInt(queryInt(r, "limit", model.MaxActionLogEntries), 1, model.MaxActionLogEntries)

	entries := h.audit.Entries()
	if len(entries) > limit {
		entries = entries[:limit]
	}

	writeJSON(w, http.StatusOK, model.ListResponse{
		Resource: entries,
		Meta: &model.ResponseMeta{
			Count: len(entries),
			Limit: limit,
		},
	})
}
