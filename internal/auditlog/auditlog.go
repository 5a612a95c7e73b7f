// Package auditlog keeps the append-only trail of admin actions: a capped
// newest-first in-memory window plus a daily snapshot blob in the record
// store. Snapshot writes are best-effort; a store failure here must never
// block the admin action that triggered the entry.
package auditlog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/MustakimRidoyMR/rewards-admin/internal/model"
	"github.com/MustakimRidoyMR/rewards-admin/internal/recordstore"
)

// BlobStore is the slice of the record store the log needs.
type BlobStore interface {
	Get(ctx context.Context, folder, filename string) ([]byte, error)
	Put(ctx context.Context, folder, filename string, content []byte) error
}

// Log is the admin action log.
type Log struct {
	store  BlobStore
	folder string
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	entries []model.ActionLogEntry // newest first
}

// New creates an empty action log writing snapshots into folder.
func New(store BlobStore, folder string, logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{store: store, folder: folder, logger: logger, now: time.Now}
}

// Load pulls today's snapshot from the store. An absent snapshot just means
// nothing has been logged today.
func (l *Log) Load(ctx context.Context) error {
	data, err := l.store.Get(ctx, l.folder, recordstore.ActionLogFilename(l.now().UTC()))
	if errors.Is(err, recordstore.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("fetch action log: %w", err)
	}

	var entries []model.ActionLogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("decode action log: %w", err)
	}

	l.mu.Lock()
	l.entries = entries
	l.trimLocked()
	l.mu.Unlock()
	return nil
}

// Append prepends an entry, trims the window to its cap, and writes the
// daily snapshot. Store failures are logged and swallowed — audit
// persistence is non-critical and must not fail the primary operation.
func (l *Log) Append(ctx context.Context, adminName, adminEmail, action, details string) {
	entry := model.ActionLogEntry{
		Timestamp:  l.now().UTC(),
		AdminName:  adminName,
		AdminEmail: adminEmail,
		Action:     action,
		Details:    details,
	}

	l.mu.Lock()
	l.entries = append([]model.ActionLogEntry{entry}, l.entries...)
	l.trimLocked()
	snapshot := make([]model.ActionLogEntry, len(l.entries))
	copy(snapshot, l.entries)
	l.mu.Unlock()

	data, err := json.Marshal(snapshot)
	if err != nil {
		l.logger.Warn("failed to encode action log", "error", err)
		return
	}
	filename := recordstore.ActionLogFilename(entry.Timestamp)
	if err := l.store.Put(ctx, l.folder, filename, data); err != nil {
		l.logger.Warn("failed to persist action log", "file", filename, "error", err)
	}
}

// Entries returns a copy of the retained entries, newest first.
func (l *Log) Entries() []model.ActionLogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]model.ActionLogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *Log) trimLocked() {
	if len(l.entries) > model.MaxActionLogEntries {
		l.entries = l.entries[:model.MaxActionLogEntries]
	}
}
