package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MustakimRidoyMR/rewards-admin/internal/model"
	"github.com/MustakimRidoyMR/rewards-admin/internal/service"
)

// ---------------------------------------------------------------------------
// RequestID middleware tests
// ---------------------------------------------------------------------------

func TestRequestIDGeneratesUUID(t *testing.T) {
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetRequestID(r.Context()) == "" {
			t.Error("expected non-empty request ID in context")
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/test", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	respID := rr.Header().Get("X-Request-ID")
	if len(respID) != 36 {
		t.Errorf("expected UUID-length request ID, got %q", respID)
	}
}

func TestRequestIDPreservesClientID(t *testing.T) {
	clientID := "trace-abc-123"

	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := GetRequestID(r.Context()); id != clientID {
			t.Errorf("context ID = %q, want %q", id, clientID)
		}
	}))

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("X-Request-ID", clientID)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if got := rr.Header().Get("X-Request-ID"); got != clientID {
		t.Errorf("response X-Request-ID = %q, want %q", got, clientID)
	}
}

// ---------------------------------------------------------------------------
// Authenticate / RequirePermission tests
// ---------------------------------------------------------------------------

func validToken(t *testing.T, tokens *service.TokenService, perms ...string) string {
	t.Helper()
	token, err := tokens.Issue(&model.AdminPrincipal{
		Email:           "admin@example.com",
		DisplayName:     "Admin",
		Permissions:     perms,
		SessionIssuedAt: time.Now().UTC(),
	}, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return token
}

func TestAuthenticateAcceptsValidToken(t *testing.T) {
	tokens := service.NewTokenService("mw-test-secret")

	handler := Authenticate(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := GetPrincipal(r.Context())
		if p == nil || p.Email != "admin@example.com" {
			t.Errorf("principal = %+v", p)
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/v1/logs", nil)
	req.Header.Set("Authorization", "Bearer "+validToken(t, tokens, model.PermUserManagement))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200; body = %s", rr.Code, rr.Body.String())
	}
}

func TestAuthenticateRejectsMissingToken(t *testing.T) {
	tokens := service.NewTokenService("mw-test-secret")
	handler := Authenticate(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run")
	}))

	req := httptest.NewRequest("GET", "/api/v1/logs", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rr.Code)
	}
}

func TestAuthenticateRejectsBadToken(t *testing.T) {
	tokens := service.NewTokenService("mw-test-secret")
	handler := Authenticate(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run")
	}))

	req := httptest.NewRequest("GET", "/api/v1/logs", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rr.Code)
	}
}

func TestRequirePermission(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RequirePermission(model.PermUserManagement)(inner)

	// Principal with the capability passes.
	req := httptest.NewRequest("GET", "/api/v1/users/x", nil)
	ctx := context.WithValue(req.Context(), AuthPrincipalKey, &model.AdminPrincipal{
		Permissions: []string{model.PermUserManagement},
	})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req.WithContext(ctx))
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}

	// Principal without it is forbidden.
	req = httptest.NewRequest("GET", "/api/v1/users/x", nil)
	ctx = context.WithValue(req.Context(), AuthPrincipalKey, &model.AdminPrincipal{
		Permissions: []string{model.PermLimitedEdit},
	})
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req.WithContext(ctx))
	if rr.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rr.Code)
	}

	// No principal at all is forbidden too.
	req = httptest.NewRequest("GET", "/api/v1/users/x", nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rr.Code)
	}
}
