package model

import "time"

// MaxActionLogEntries caps how many audit entries are retained client-side.
// Older entries fall off the end; the full history lives in the daily
// snapshots in the record store.
const MaxActionLogEntries = 50

// ActionLogEntry is one append-only audit record of an admin action.
// Entries are kept newest-first.
type ActionLogEntry struct {
	Timestamp  time.Time `json:"timestamp"`
	AdminName  string    `json:"adminName"`
	AdminEmail string    `json:"adminEmail"`
	Action     string    `json:"action"`
	Details    string    `json:"details,omitempty"`
}
