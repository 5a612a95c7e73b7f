package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MustakimRidoyMR/rewards-admin/internal/auditlog"
	"github.com/MustakimRidoyMR/rewards-admin/internal/editor"
	"github.com/MustakimRidoyMR/rewards-admin/internal/model"
	"github.com/MustakimRidoyMR/rewards-admin/internal/recordstore"
	"github.com/MustakimRidoyMR/rewards-admin/internal/server/middleware"
)

// UserHandler exposes user record lookup and the validated edit workflow.
type UserHandler struct {
	editor *editor.Editor
	audit  *auditlog.Log
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(ed *editor.Editor, audit *auditlog.Log) *UserHandler {
	return &UserHandler{editor: ed, audit: audit}
}

// Get looks up a single user record by email.
// GET /api/v1/users/{email}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")

	rec, err := h.editor.FindUser(r.Context(), email)
	if err != nil {
		writeUserError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec.Sanitized())
}

// Patch applies a constrained edit to a user record: fetch the current
// record, validate the patch against it, persist the merge, and log the
// action. Validation failures return 422 with no store write.
// PATCH /api/v1/users/{email}
func (h *UserHandler) Patch(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	principal := middleware.GetPrincipal(r.Context())
	if principal == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var patch model.EditablePatch
	if err := readJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if patch.IsZero() {
		writeError(w, http.StatusBadRequest, "Patch contains no editable fields")
		return
	}

	original, err := h.editor.FindUser(r.Context(), email)
	if err != nil {
		writeUserError(w, err)
		return
	}

	merged, err := h.editor.ProposeEdit(original, patch, principal.Email)
	if err != nil {
		switch {
		case errors.Is(err, editor.ErrMonotonicityViolation),
			errors.Is(err, editor.ErrInvalidFieldValue):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "Edit failed: "+err.Error())
		}
		return
	}

	if err := h.editor.Persist(r.Context(), merged); err != nil {
		// No local rollback: the store is the source of truth and the caller
		// should re-fetch before trusting any state.
		writeError(w, http.StatusBadGateway, "Save failed, changes were not confirmed: "+err.Error())
		return
	}

	h.audit.Append(r.Context(), principal.DisplayName, principal.Email,
		"User Updated", fmt.Sprintf("%s: %s", merged.Email, patchSummary(original, patch)))

	writeJSON(w, http.StatusOK, merged.Sanitized())
}

func writeUserError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, editor.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "No user found with that email")
	case errors.Is(err, recordstore.ErrUnavailable):
		writeError(w, http.StatusBadGateway, "Record store unreachable")
	default:
		writeError(w, http.StatusInternalServerError, "Lookup failed: "+err.Error())
	}
}

// patchSummary renders a short human-readable account of what changed, for
// the action log.
func patchSummary(original *model.UserRecord, patch model.EditablePatch) string {
	var parts []string
	if patch.Coins != nil {
		parts = append(parts, fmt.Sprintf("coins %d -> %d", original.Coins, *patch.Coins))
	}
	if patch.Diamonds != nil {
		parts = append(parts, fmt.Sprintf("diamonds %d -> %d", original.Diamonds, *patch.Diamonds))
	}
	if patch.Earnings != nil {
		parts = append(parts, fmt.Sprintf("earnings %s -> %s", original.Earnings, *patch.Earnings))
	}
	if patch.Streak != nil {
		parts = append(parts, fmt.Sprintf("streak %d -> %d", original.Streak, *patch.Streak))
	}
	if patch.IsActive != nil {
		parts = append(parts, fmt.Sprintf("active %t -> %t", original.IsActive, *patch.IsActive))
	}
	if patch.PreferredLanguage != nil {
		parts = append(parts, fmt.Sprintf("language %s -> %s", original.PreferredLanguage, *patch.PreferredLanguage))
	}
	if patch.DailyUnlockedGames != nil {
		parts = append(parts, fmt.Sprintf("dailyUnlockedGames -> %t", *patch.DailyUnlockedGames))
	}
	if patch.DailyUnlockedVideos != nil {
		parts = append(parts, fmt.Sprintf("dailyUnlockedVideos -> %t", *patch.DailyUnlockedVideos))
	}
	return strings.Join(parts, ", ")
}
