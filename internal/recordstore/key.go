package recordstore

import (
	"strings"
	"time"
)

// UsersFolder is the store folder holding one blob per user record.
const UsersFolder = "users"

// AdminCodesFilename is the allowlist blob inside the admin folder.
const AdminCodesFilename = "admin_codes.json"

// EmailKey converts an email address into the filesystem-safe token used as
// a record's external identifier. The mapping must stay stable: existing
// records were written with exactly this scheme.
func EmailKey(email string) string {
	k := strings.ToLower(strings.TrimSpace(email))
	k = strings.ReplaceAll(k, "@", "_at_")
	return strings.ReplaceAll(k, ".", "_dot_")
}

// UserFilename returns the blob filename for a user record.
func UserFilename(email string) string {
	return EmailKey(email) + ".json"
}

// ActionLogFilename returns the daily action-log snapshot filename for the
// given day.
func ActionLogFilename(day time.Time) string {
	return "action_log_" + day.Format("2006-01-02") + ".json"
}
