package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/portafacil/access-control/internal/auth"
	"github.com/portafacil/access-control/internal/model"
	"github.com/portafacil/access-control/internal/token"
)

func testAuthHandler() *AuthHandler {
	return &AuthHandler{
		Issuer: &auth.Issuer{
			Secret:     "test-secret",
			Issuer:     "porta-facil-api",
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 24 * time.Hour,
		},
	}
}

func cookieByName(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestRefreshMintsAccessCookie(t *testing.T) {
	h := testAuthHandler()
	pair, err := h.Issuer.Issue(model.Identity{UserID: 42, Username: "ada", Role: model.RoleServidor})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, RefreshCookiePath, nil)
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: pair.Refresh})
	rec := httptest.NewRecorder()

	if err := h.Refresh(e.NewContext(req, rec)); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	c := cookieByName(rec, "access_token")
	if c == nil {
		t.Fatal("no access_token cookie set")
	}
	if !c.HttpOnly {
		t.Fatal("access_token cookie must be HTTP-only")
	}
	claims, err := token.Verify(c.Value, "test-secret", "porta-facil-api", token.TypeAccess)
	if err != nil {
		t.Fatalf("verify minted cookie: %v", err)
	}
	if claims.UserID != 42 || claims.Role != model.RoleServidor {
		t.Fatalf("claims changed across refresh: %+v", claims)
	}
}

func TestRefreshWithoutCookie(t *testing.T) {
	h := testAuthHandler()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, RefreshCookiePath, nil)
	rec := httptest.NewRecorder()

	if err := h.Refresh(e.NewContext(req, rec)); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRefreshRejectsAccessTokenCookie(t *testing.T) {
	h := testAuthHandler()
	pair, err := h.Issuer.Issue(model.Identity{UserID: 42, Username: "ada", Role: model.RolePadrao})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, RefreshCookiePath, nil)
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: pair.Access})
	rec := httptest.NewRecorder()

	if err := h.Refresh(e.NewContext(req, rec)); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("an access token in the refresh cookie must be rejected, got %d", rec.Code)
	}
}

func TestLogoutClearsCookies(t *testing.T) {
	h := testAuthHandler()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/logout", nil)
	rec := httptest.NewRecorder()

	if err := h.Logout(e.NewContext(req, rec)); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	access := cookieByName(rec, "access_token")
	refresh := cookieByName(rec, "refresh_token")
	if access == nil || refresh == nil {
		t.Fatal("logout must rewrite both cookies")
	}
	if access.MaxAge >= 0 || refresh.MaxAge >= 0 {
		t.Fatal("logout cookies must carry a negative MaxAge")
	}
	if refresh.Path != RefreshCookiePath {
		t.Fatalf("refresh cookie path = %q, want %q", refresh.Path, RefreshCookiePath)
	}
}

func TestRefreshCookieIsPathScoped(t *testing.T) {
	h := testAuthHandler()
	pair, err := h.Issuer.Issue(model.Identity{UserID: 1, Username: "ada", Role: model.RolePadrao})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	e := echo.New()
	rec := httptest.NewRecorder()
	setAuthCookies(e.NewContext(httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil), rec), pair)

	refresh := cookieByName(rec, "refresh_token")
	if refresh == nil {
		t.Fatal("no refresh_token cookie")
	}
	if refresh.Path != RefreshCookiePath {
		t.Fatalf("refresh cookie path = %q, want %q", refresh.Path, RefreshCookiePath)
	}
	access := cookieByName(rec, "access_token")
	if access == nil || access.Path != "/" {
		t.Fatal("access cookie must cover the whole API")
	}
}
