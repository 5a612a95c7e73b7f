package model

import (
	"slices"
	"time"
)

// Capabilities granted to an authenticated admin. Logging in through the
// console always yields exactly {user_management, limited_edit}.
const (
	PermUserManagement = "user_management"
	PermLimitedEdit    = "limited_edit"
)

// DefaultSessionTTL is the fixed window an admin session stays valid after
// issue.
const DefaultSessionTTL = time.Hour

// AdminPrincipal is an authenticated admin's session identity. At most one
// principal is current per client instance; it is destroyed on logout or
// when the session window expires.
type AdminPrincipal struct {
	Email           string    `json:"email"`
	DisplayName     string    `json:"displayName"`
	Phone           string    `json:"phone,omitempty"`
	AdminCode       string    `json:"adminCode"`
	Permissions     []string  `json:"permissions"`
	SessionIssuedAt time.Time `json:"sessionIssuedAt"`
}

// HasPermission reports whether the principal carries the given capability.
func (p *AdminPrincipal) HasPermission(capability string) bool {
	if p == nil {
		return false
	}
	return slices.Contains(p.Permissions, capability)
}

// Expired reports whether the session window has elapsed at the given time.
func (p *AdminPrincipal) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(p.SessionIssuedAt) >= ttl
}
