// Package editor implements the user-record validated-mutation workflow:
// locate a record, validate an admin-proposed patch against monotonicity and
// type constraints, and persist only validated merges. The editor performs
// no audit logging; callers append the log entry after a successful persist.
package editor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/MustakimRidoyMR/rewards-admin/internal/model"
	"github.com/MustakimRidoyMR/rewards-admin/internal/recordstore"
)

var (
	// ErrUserNotFound is the single absent signal for a user lookup,
	// regardless of which dialect the store used to report it.
	ErrUserNotFound = errors.New("user not found")

	// ErrMonotonicityViolation rejects patches that would increase coins or
	// earnings. Those fields only ever move down through this surface.
	ErrMonotonicityViolation = errors.New("coins and earnings cannot increase")

	// ErrInvalidFieldValue rejects values outside a field's domain.
	ErrInvalidFieldValue = errors.New("invalid field value")

	// ErrNoUserLoaded means an edit was proposed without an original record
	// to compare against.
	ErrNoUserLoaded = errors.New("no user record loaded")

	// ErrNothingProposed means a save was requested with no validated edit.
	ErrNothingProposed = errors.New("no edit proposed")

	// ErrSaveInFlight means a save for this edit session is already
	// outstanding; the new save is ignored.
	ErrSaveInFlight = errors.New("save already in progress")
)

// BlobStore is the slice of the record store the editor needs.
type BlobStore interface {
	Get(ctx context.Context, folder, filename string) ([]byte, error)
	Put(ctx context.Context, folder, filename string, content []byte) error
}

// Editor fetches, validates, and persists user records.
type Editor struct {
	store  BlobStore
	logger *slog.Logger
	now    func() time.Time
}

// New creates an Editor backed by the given store.
func New(store BlobStore, logger *slog.Logger) *Editor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Editor{store: store, logger: logger, now: time.Now}
}

// FindUser looks up a single user record by email. Absence (in any store
// dialect) returns ErrUserNotFound; transport and store failures pass
// through wrapped.
func (e *Editor) FindUser(ctx context.Context, email string) (*model.UserRecord, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	data, err := e.store.Get(ctx, recordstore.UsersFolder, recordstore.UserFilename(email))
	if errors.Is(err, recordstore.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch user record: %w", err)
	}

	var rec model.UserRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode user record: %w", err)
	}
	if rec.Email == "" {
		rec.Email = email
	}
	return &rec, nil
}

// ProposeEdit validates patch against original and returns the merged
// record. Coins and earnings must not increase; every numeric field must
// stay non-negative; the language must be a known code. Fields absent from
// the patch are preserved from the original. On success the merge carries
// lastUpdated = now and lastUpdatedBy = actingAdmin. ProposeEdit never
// writes to the store.
func (e *Editor) ProposeEdit(original *model.UserRecord, patch model.EditablePatch, actingAdmin string) (*model.UserRecord, error) {
	if original == nil {
		return nil, ErrNoUserLoaded
	}

	if err := validatePatch(original, patch); err != nil {
		e.logger.Debug("edit rejected", "email", original.Email, "error", err)
		return nil, err
	}

	merged := *original
	if patch.Coins != nil {
		merged.Coins = *patch.Coins
	}
	if patch.Diamonds != nil {
		merged.Diamonds = *patch.Diamonds
	}
	if patch.Earnings != nil {
		merged.Earnings = *patch.Earnings
	}
	if patch.Streak != nil {
		merged.Streak = *patch.Streak
	}
	if patch.IsActive != nil {
		merged.IsActive = *patch.IsActive
	}
	if patch.PreferredLanguage != nil {
		merged.PreferredLanguage = *patch.PreferredLanguage
	}
	if patch.DailyUnlockedGames != nil {
		merged.DailyUnlockedGames = *patch.DailyUnlockedGames
	}
	if patch.DailyUnlockedVideos != nil {
		merged.DailyUnlockedVideos = *patch.DailyUnlockedVideos
	}

	merged.LastUpdated = e.now().UTC()
	merged.LastUpdatedBy = actingAdmin
	return &merged, nil
}

// validatePatch checks every patch field against its domain and the
// no-increase rule for coins and earnings.
func validatePatch(original *model.UserRecord, patch model.EditablePatch) error {
	if patch.Coins != nil {
		if *patch.Coins < 0 {
			return fmt.Errorf("%w: coins must be non-negative", ErrInvalidFieldValue)
		}
		if *patch.Coins > original.Coins {
			return fmt.Errorf("%w: coins %d exceeds current %d", ErrMonotonicityViolation, *patch.Coins, original.Coins)
		}
	}
	if patch.Earnings != nil {
		if patch.Earnings.IsNegative() {
			return fmt.Errorf("%w: earnings must be non-negative", ErrInvalidFieldValue)
		}
		if patch.Earnings.GreaterThan(original.Earnings) {
			return fmt.Errorf("%w: earnings %s exceeds current %s", ErrMonotonicityViolation, patch.Earnings, original.Earnings)
		}
	}
	if patch.Diamonds != nil && *patch.Diamonds < 0 {
		return fmt.Errorf("%w: diamonds must be non-negative", ErrInvalidFieldValue)
	}
	if patch.Streak != nil && *patch.Streak < 0 {
		return fmt.Errorf("%w: streak must be non-negative", ErrInvalidFieldValue)
	}
	if patch.PreferredLanguage != nil && !model.ValidLanguage(*patch.PreferredLanguage) {
		return fmt.Errorf("%w: unknown language %q", ErrInvalidFieldValue, *patch.PreferredLanguage)
	}
	return nil
}

// Persist writes the merged record back under the same key. There is no
// conflict detection: the write is an unconditional last-write-wins
// overwrite. On failure the error is returned with no local rollback; the
// caller must re-fetch to learn the true state, because local state is
// never assumed committed until the store confirms the write.
func (e *Editor) Persist(ctx context.Context, rec *model.UserRecord) error {
	if rec == nil {
		return ErrNothingProposed
	}

	// Stamp a copy so a failed write followed by a retry does not
	// increment twice; rec only advances once the store confirms.
	out := *rec
	if out.Revision > 0 {
		out.Revision++
	}

	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("encode user record: %w", err)
	}
	if err := e.store.Put(ctx, recordstore.UsersFolder, recordstore.UserFilename(rec.Email), data); err != nil {
		return fmt.Errorf("persist user record: %w", err)
	}
	rec.Revision = out.Revision
	return nil
}
