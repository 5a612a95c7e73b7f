package service

import (
	"errors"
	"testing"
	"time"

	"github.com/MustakimRidoyMR/rewards-admin/internal/model"
)

func testPrincipal(issued time.Time) *model.AdminPrincipal {
	return &model.AdminPrincipal{
		Email:           "admin@example.com",
		DisplayName:     "Admin",
		Phone:           "+8801700000000",
		AdminCode:       "RWRD-ADMIN-2024",
		Permissions:     []string{model.PermUserManagement, model.PermLimitedEdit},
		SessionIssuedAt: issued,
	}
}

func TestTokenRoundTrip(t *testing.T) {
	svc := NewTokenService("test-secret-key")

	token, err := svc.Issue(testPrincipal(time.Now().UTC()), time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	p, err := svc.Validate(token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if p.Email != "admin@example.com" {
		t.Errorf("email = %q", p.Email)
	}
	if p.DisplayName != "Admin" {
		t.Errorf("displayName = %q", p.DisplayName)
	}
	if p.Phone != "+8801700000000" {
		t.Errorf("phone = %q", p.Phone)
	}
	if !p.HasPermission(model.PermLimitedEdit) {
		t.Errorf("permissions = %v", p.Permissions)
	}
	if p.SessionIssuedAt.IsZero() {
		t.Error("expected sessionIssuedAt to round-trip")
	}
}

func TestTokenExpired(t *testing.T) {
	svc := NewTokenService("test-secret-key")

	// Session issued two hours ago with a one-hour window.
	token, err := svc.Issue(testPrincipal(time.Now().UTC().Add(-2*time.Hour)), time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := svc.Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("got %v, want ErrInvalidToken", err)
	}
}

func TestTokenWrongSecret(t *testing.T) {
	token, err := NewTokenService("secret-a").Issue(testPrincipal(time.Now().UTC()), time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := NewTokenService("secret-b").Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("got %v, want ErrInvalidToken", err)
	}
}

func TestTokenGarbage(t *testing.T) {
	svc := NewTokenService("test-secret-key")
	if _, err := svc.Validate("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("got %v, want ErrInvalidToken", err)
	}
}
