package localstate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MustakimRidoyMR/rewards-admin/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore("") // in-memory
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSessionRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	issued := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	p := &model.AdminPrincipal{
		Email:           "admin@example.com",
		DisplayName:     "Admin",
		AdminCode:       "RWRD-ADMIN-2024",
		Permissions:     []string{model.PermUserManagement, model.PermLimitedEdit},
		SessionIssuedAt: issued,
	}

	if err := s.SaveSession(ctx, p); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	got, err := s.LoadSession(ctx)
	if err != nil {
		t.Fatalf("LoadSession: %v", err)
	}
	if got.Email != p.Email {
		t.Errorf("email = %q, want %q", got.Email, p.Email)
	}
	if !got.SessionIssuedAt.Equal(issued) {
		t.Errorf("issuedAt = %v, want %v", got.SessionIssuedAt, issued)
	}
	if len(got.Permissions) != 2 {
		t.Errorf("permissions = %v", got.Permissions)
	}
}

func TestSaveSessionReplaces(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := &model.AdminPrincipal{Email: "a@example.com", SessionIssuedAt: time.Now().UTC()}
	second := &model.AdminPrincipal{Email: "b@example.com", SessionIssuedAt: time.Now().UTC()}

	if err := s.SaveSession(ctx, first); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	if err := s.SaveSession(ctx, second); err != nil {
		t.Fatalf("SaveSession (replace): %v", err)
	}

	got, err := s.LoadSession(ctx)
	if err != nil {
		t.Fatalf("LoadSession: %v", err)
	}
	if got.Email != "b@example.com" {
		t.Errorf("email = %q, want b@example.com", got.Email)
	}
}

func TestLoadSessionEmpty(t *testing.T) {
	s := newTestStore(t)

	_, err := s.LoadSession(context.Background())
	if !errors.Is(err, ErrNoSession) {
		t.Errorf("got %v, want ErrNoSession", err)
	}
}

func TestClearSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := &model.AdminPrincipal{Email: "a@example.com", SessionIssuedAt: time.Now().UTC()}
	if err := s.SaveSession(ctx, p); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	if err := s.ClearSession(ctx); err != nil {
		t.Fatalf("ClearSession: %v", err)
	}
	if _, err := s.LoadSession(ctx); !errors.Is(err, ErrNoSession) {
		t.Errorf("got %v, want ErrNoSession after clear", err)
	}

	// Clearing again is a no-op, not an error.
	if err := s.ClearSession(ctx); err != nil {
		t.Errorf("ClearSession (empty): %v", err)
	}
}

func TestSettings(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	v, err := s.GetSetting(ctx, "theme")
	if err != nil {
		t.Fatalf("GetSetting: %v", err)
	}
	if v != "" {
		t.Errorf("unset setting = %q, want empty", v)
	}

	if err := s.SetSetting(ctx, "theme", "dark"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	if err := s.SetSetting(ctx, "theme", "light"); err != nil {
		t.Fatalf("SetSetting (replace): %v", err)
	}

	v, err = s.GetSetting(ctx, "theme")
	if err != nil {
		t.Fatalf("GetSetting: %v", err)
	}
	if v != "light" {
		t.Errorf("setting = %q, want light", v)
	}
}
