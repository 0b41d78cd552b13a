package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/portafacil/access-control/internal/model"
)

func requestWithRole(role string, mw echo.MiddlewareFunc) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/departments", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if role != "" {
		c.Set(ContextRole, role)
	}
	h := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	_ = h(c)
	return rec
}

func TestRequireRole(t *testing.T) {
	adminOnly := RequireRole(model.RoleAdministrador)

	if rec := requestWithRole(model.RoleAdministrador, adminOnly); rec.Code != http.StatusOK {
		t.Fatalf("administrador rejected: %d", rec.Code)
	}
	if rec := requestWithRole(model.RolePadrao, adminOnly); rec.Code != http.StatusForbidden {
		t.Fatalf("padrao allowed on admin route: %d", rec.Code)
	}
	if rec := requestWithRole("", adminOnly); rec.Code != http.StatusForbidden {
		t.Fatalf("missing role allowed: %d", rec.Code)
	}
}

func TestRequireRoleMultiple(t *testing.T) {
	viewers := RequireRole(model.RoleAdministrador, model.RoleSeguranca)

	if rec := requestWithRole(model.RoleSeguranca, viewers); rec.Code != http.StatusOK {
		t.Fatalf("seguranca rejected: %d", rec.Code)
	}
	if rec := requestWithRole(model.RoleCoordenador, viewers); rec.Code != http.StatusForbidden {
		t.Fatalf("coordenador allowed on security route: %d", rec.Code)
	}
}
