// Package session authenticates admin users against the record store and
// owns the single current admin session: establishing it, persisting it
// across restarts, and tearing it down.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/MustakimRidoyMR/rewards-admin/internal/localstate"
	"github.com/MustakimRidoyMR/rewards-admin/internal/model"
	"github.com/MustakimRidoyMR/rewards-admin/internal/recordstore"
)

var (
	ErrInvalidAdminCode   = errors.New("invalid admin code")
	ErrUserNotFound       = errors.New("no account found for that email")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// fallbackAdminCodes is used when the allowlist blob cannot be fetched or
// comes back empty. It must never be empty itself: an empty allowlist would
// silently reject or (worse) accept everyone.
var fallbackAdminCodes = []string{"RWRD-ADMIN-2024", "RWRD-ADMIN-2025"}

// Blobs is the slice of the record store the manager needs.
type Blobs interface {
	Get(ctx context.Context, folder, filename string) ([]byte, error)
}

// AuditLogger records admin actions. Implementations must swallow their own
// store failures; the manager never checks them.
type AuditLogger interface {
	Append(ctx context.Context, adminName, adminEmail, action, details string)
}

// Manager is the session manager. It must authorize an admin before the
// editor accepts any mutation.
type Manager struct {
	store       Blobs
	sessions    *localstate.Store
	verifier    Verifier
	audit       AuditLogger
	adminFolder string
	ttl         time.Duration
	logger      *slog.Logger

	mu       sync.Mutex
	current  *model.AdminPrincipal
	codes    []string
	fallback []string
}

// NewManager creates a session manager. A non-positive ttl falls back to
// model.DefaultSessionTTL.
func NewManager(store Blobs, sessions *localstate.Store, verifier Verifier, audit AuditLogger, adminFolder string, ttl time.Duration, logger *slog.Logger) *Manager {
	if ttl <= 0 {
		ttl = model.DefaultSessionTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:       store,
		sessions:    sessions,
		verifier:    verifier,
		audit:       audit,
		adminFolder: adminFolder,
		ttl:         ttl,
		logger:      logger,
		fallback:    fallbackAdminCodes,
	}
}

// SetFallbackCodes replaces the built-in fallback allowlist. An empty slice
// is ignored. Call before LoadAllowlist.
func (m *Manager) SetFallbackCodes(codes []string) {
	if len(codes) == 0 {
		return
	}
	m.mu.Lock()
	m.fallback = codes
	m.mu.Unlock()
}

// LoadAllowlist fetches the admin-code allowlist once at startup. On any
// fetch or decode failure, or an empty list, it falls back to the built-in
// codes so the console never runs with an empty allowlist.
func (m *Manager) LoadAllowlist(ctx context.Context) {
	codes, err := m.fetchAllowlist(ctx)
	if err != nil {
		m.logger.Warn("admin code allowlist unavailable, using fallback", "error", err)
		codes = m.fallbackCodes()
	}
	if len(codes) == 0 {
		m.logger.Warn("admin code allowlist empty, using fallback")
		codes = m.fallbackCodes()
	}

	m.mu.Lock()
	m.codes = codes
	m.mu.Unlock()
	m.logger.Info("admin code allowlist loaded", "count", len(codes))
}

func (m *Manager) fetchAllowlist(ctx context.Context) ([]string, error) {
	data, err := m.store.Get(ctx, m.adminFolder, recordstore.AdminCodesFilename)
	if err != nil {
		return nil, err
	}

	// The blob is written either as a bare array or as {"codes": [...]}.
	var wrapped struct {
		Codes []string `json:"codes"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && len(wrapped.Codes) > 0 {
		return wrapped.Codes, nil
	}
	var bare []string
	if err := json.Unmarshal(data, &bare); err != nil {
		return nil, fmt.Errorf("decode allowlist: %w", err)
	}
	return bare, nil
}

func (m *Manager) fallbackCodes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fallback
}

func (m *Manager) allowed(code string) bool {
	m.mu.Lock()
	codes := m.codes
	m.mu.Unlock()
	if len(codes) == 0 {
		codes = m.fallbackCodes()
	}
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}

// Authenticate verifies the admin code, looks up the user record, and checks
// the credential. The admin code is checked first: a bad code fails before
// any store call for the user record. On success the principal becomes
// current, is persisted durably, and an "Admin Login" audit entry is
// appended.
func (m *Manager) Authenticate(ctx context.Context, email, password, adminCode string) (*model.AdminPrincipal, error) {
	if !m.allowed(adminCode) {
		return nil, ErrInvalidAdminCode
	}

	email = strings.ToLower(strings.TrimSpace(email))
	data, err := m.store.Get(ctx, recordstore.UsersFolder, recordstore.UserFilename(email))
	if errors.Is(err, recordstore.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch admin record: %w", err)
	}

	var rec model.UserRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode admin record: %w", err)
	}

	if err := m.verifier.Verify(rec.Password, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	principal := &model.AdminPrincipal{
		Email:           email,
		DisplayName:     rec.Name,
		Phone:           rec.Phone,
		AdminCode:       adminCode,
		Permissions:     []string{model.PermUserManagement, model.PermLimitedEdit},
		SessionIssuedAt: time.Now().UTC(),
	}

	m.mu.Lock()
	m.current = principal
	m.mu.Unlock()

	if err := m.sessions.SaveSession(ctx, principal); err != nil {
		// The in-memory session is established either way; only the
		// restart-survival guarantee is lost.
		m.logger.Warn("failed to persist session", "error", err)
	}

	if m.audit != nil {
		m.audit.Append(ctx, principal.DisplayName, principal.Email, "Admin Login", "admin code "+adminCode)
	}

	m.logger.Info("admin authenticated", "email", principal.Email)
	return principal, nil
}

// Restore loads the durable session and makes it current if it is still
// inside the TTL window. An expired row is cleared as a side effect. Restore
// is idempotent and has no other side effects.
func (m *Manager) Restore(ctx context.Context) (*model.AdminPrincipal, bool) {
	p, err := m.sessions.LoadSession(ctx)
	if err != nil {
		if !errors.Is(err, localstate.ErrNoSession) {
			m.logger.Warn("failed to load stored session", "error", err)
		}
		return nil, false
	}

	if p.Expired(time.Now().UTC(), m.ttl) {
		if err := m.sessions.ClearSession(ctx); err != nil {
			m.logger.Warn("failed to clear expired session", "error", err)
		}
		return nil, false
	}

	m.mu.Lock()
	m.current = p
	m.mu.Unlock()
	return p, true
}

// Logout appends an "Admin Logout" audit entry and clears both the current
// principal and the durable session row.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	p := m.current
	m.current = nil
	m.mu.Unlock()

	if p != nil && m.audit != nil {
		m.audit.Append(ctx, p.DisplayName, p.Email, "Admin Logout", "")
	}

	if err := m.sessions.ClearSession(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Current returns the current principal, or nil when no session is
// established.
func (m *Manager) Current() *model.AdminPrincipal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// HasPermission reports whether the principal carries the capability.
func (m *Manager) HasPermission(p *model.AdminPrincipal, capability string) bool {
	return p.HasPermission(capability)
}

// TTL returns the configured session window.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}
