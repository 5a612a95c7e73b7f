package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/MustakimRidoyMR/rewards-admin/internal/recordstore"
	"github.com/MustakimRidoyMR/rewards-admin/internal/server/middleware"
	"github.com/MustakimRidoyMR/rewards-admin/internal/service"
	"github.com/MustakimRidoyMR/rewards-admin/internal/session"
)

// SessionHandler exposes admin login, logout, and session introspection.
type SessionHandler struct {
	sessions *session.Manager
	tokens   *service.TokenService
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(sessions *session.Manager, tokens *service.TokenService) *SessionHandler {
	return &SessionHandler{sessions: sessions, tokens: tokens}
}

type loginRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	AdminCode string `json:"adminCode"`
}

type loginResponse struct {
	Token       string   `json:"session_token"`
	TokenType   string   `json:"token_type"`
	ExpiresIn   int      `json:"expires_in"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

// Login authenticates an admin and returns a session token.
// POST /api/v1/session
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Email == "" || req.Password == "" || req.AdminCode == "" {
		writeError(w, http.StatusBadRequest, "Email, password, and admin code are required")
		return
	}

	principal, err := h.sessions.Authenticate(r.Context(), req.Email, req.Password, req.AdminCode)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrInvalidAdminCode):
			writeError(w, http.StatusUnauthorized, "Invalid admin code")
		case errors.Is(err, session.ErrUserNotFound):
			writeError(w, http.StatusUnauthorized, "No account found for that email")
		case errors.Is(err, session.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
		case errors.Is(err, recordstore.ErrUnavailable):
			writeError(w, http.StatusBadGateway, "Record store unreachable")
		default:
			writeError(w, http.StatusInternalServerError, "Authentication error: "+err.Error())
		}
		return
	}

	ttl := h.sessions.TTL()
	token, err := h.tokens.Issue(principal, ttl)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to issue token: "+err.Error())
		return
	}

	remaining := time.Until(principal.SessionIssuedAt.Add(ttl))
	writeJSON(w, http.StatusOK, loginResponse{
		Token:       token,
		TokenType:   "bearer",
		ExpiresIn:   int(remaining.Seconds()),
		Email:       principal.Email,
		Name:        principal.DisplayName,
		Permissions: principal.Permissions,
	})
}

// Logout tears down the current session and logs the action.
// DELETE /api/v1/session
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Logout failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Session terminated",
	})
}

// Me returns the authenticated principal for the current request.
// GET /api/v1/session
func (h *SessionHandler) Me(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetPrincipal(r.Context())
	if p == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	writeJSON(w, http.StatusOK, p)
}
