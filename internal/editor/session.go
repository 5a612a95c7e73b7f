package editor

import (
	"context"
	"sync"

	"github.com/MustakimRidoyMR/rewards-admin/internal/model"
)

// State is the phase of an edit session.
type State int

const (
	StateIdle State = iota
	StateUserLoaded
	StateEditProposed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateUserLoaded:
		return "user_loaded"
	case StateEditProposed:
		return "edit_proposed"
	}
	return "unknown"
}

// EditSession drives one load → propose → save cycle and enforces its
// ordering: no edit may be proposed without a loaded original to compare
// against, and no save may run while a previous save for the same session
// is still outstanding. A rejected proposal keeps the loaded record; a
// successful save returns the session to idle.
type EditSession struct {
	editor *Editor

	mu       sync.Mutex
	state    State
	original *model.UserRecord
	proposed *model.UserRecord
	saving   bool
}

// NewSession creates an idle edit session.
func (e *Editor) NewSession() *EditSession {
	return &EditSession{editor: e, state: StateIdle}
}

// State returns the session's current phase.
func (s *EditSession) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Load fetches the user record and makes it the session's original. Loading
// replaces any prior state; on failure the session stays where it was.
func (s *EditSession) Load(ctx context.Context, email string) (*model.UserRecord, error) {
	rec, err := s.editor.FindUser(ctx, email)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.state = StateUserLoaded
	s.original = rec
	s.proposed = nil
	s.mu.Unlock()
	return rec, nil
}

// Propose validates the patch against the loaded original. On success the
// session moves to edit_proposed; on a validation failure it stays on the
// loaded record with nothing retained of the attempt.
func (s *EditSession) Propose(patch model.EditablePatch, actingAdmin string) (*model.UserRecord, error) {
	s.mu.Lock()
	if s.state == StateIdle || s.original == nil {
		s.mu.Unlock()
		return nil, ErrNoUserLoaded
	}
	original := s.original
	s.mu.Unlock()

	merged, err := s.editor.ProposeEdit(original, patch, actingAdmin)
	if err != nil {
		s.mu.Lock()
		s.state = StateUserLoaded
		s.proposed = nil
		s.mu.Unlock()
		return nil, err
	}

	s.mu.Lock()
	s.state = StateEditProposed
	s.proposed = merged
	s.mu.Unlock()
	return merged, nil
}

// Save persists the proposed merge. At most one save may be outstanding per
// session; a save attempted while another is in flight returns
// ErrSaveInFlight. A confirmed write resets the session to idle. A failed
// write leaves the proposal in place; the caller should re-load to learn
// the store's true state.
func (s *EditSession) Save(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateEditProposed || s.proposed == nil {
		s.mu.Unlock()
		return ErrNothingProposed
	}
	if s.saving {
		s.mu.Unlock()
		return ErrSaveInFlight
	}
	s.saving = true
	rec := s.proposed
	s.mu.Unlock()

	err := s.editor.Persist(ctx, rec)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.saving = false
	if err != nil {
		return err
	}
	s.state = StateIdle
	s.original = nil
	s.proposed = nil
	return nil
}
