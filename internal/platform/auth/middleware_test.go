package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

type mockAdminChecker struct {
	admins map[int64]bool
}

func (m *mockAdminChecker) IsAdmin(_ context.Context, accountID int64) (bool, error) {
	return m.admins[accountID], nil
}

func adminTestServer(issuer *TokenIssuer, checker AdminChecker) *echo.Echo {
	e := echo.New()
	g := e.Group("/api", TokenAuth(issuer), RequireAdmin(checker))
	g.GET("/ping", func(c echo.Context) error {
		p, _ := PrincipalFromContext(c.Request().Context())
		return c.JSON(http.StatusOK, map[string]int64{"account_id": p.AccountID})
	})
	return e
}

func TestTokenAuth_MissingHeader(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	e := adminTestServer(issuer, &mockAdminChecker{})

	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "missing authorization header") {
		t.Errorf("expected missing-header message, got %s", rec.Body.String())
	}
}

func TestTokenAuth_InvalidToken(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	e := adminTestServer(issuer, &mockAdminChecker{})

	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "invalid token") {
		t.Errorf("expected invalid-token message, got %s", rec.Body.String())
	}
}

func TestTokenAuth_ExpiredToken(t *testing.T) {
	expired := NewTokenIssuer("secret", -time.Minute)
	issuer := NewTokenIssuer("secret", time.Hour)
	e := adminTestServer(issuer, &mockAdminChecker{admins: map[int64]bool{1: true}})

	token, err := expired.Issue(1)
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "token expired") {
		t.Errorf("expected token-expired message, got %s", rec.Body.String())
	}
}

func TestRequireAdmin_NonAdmin(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	e := adminTestServer(issuer, &mockAdminChecker{admins: map[int64]bool{1: true}})

	token, err := issuer.Issue(2) // account 2 is not an admin
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", rec.Code)
	}
}

func TestRequireAdmin_Admin(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	e := adminTestServer(issuer, &mockAdminChecker{admins: map[int64]bool{1: true}})

	token, err := issuer.Issue(1)
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"account_id":1`) {
		t.Errorf("expected principal account id in body, got %s", rec.Body.String())
	}
}
