package middleware // middleware provides shared request processing for handlers

// identity.go resolves the caller's identity exactly once per request and
// stores it in the Echo context under "user_id" and "role".  Resolution is
// pluggable: the default strategy verifies the signed access_token cookie;
// the header strategy trusts X-User-ID / X-User-Role and exists only for
// deployments where a gateway strips and re-injects those headers.  The
// header strategy must never face the open internet — the headers are
// trivially spoofable.

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/portafacil/access-control/internal/token"
)

// Context keys populated by Authenticate.
const (
	ContextUserID = "user_id"
	ContextRole   = "role"
)

// IdentityStrategy resolves the verified caller identity from a request.
type IdentityStrategy interface {
	Resolve(c echo.Context) (userID uint64, role string, err error)
}

// CookieTokenStrategy verifies the HTTP-only access_token cookie with the
// shared signing secret.  This is the single source of truth for identity
// in the default deployment.
type CookieTokenStrategy struct {
	Secret string
	Issuer string
}

func (s CookieTokenStrategy) Resolve(c echo.Context) (uint64, string, error) {
	cookie, err := c.Cookie("access_token")
	if err != nil || cookie.Value == "" {
		return 0, "", errors.New("missing access token")
	}
	claims, err := token.Verify(cookie.Value, s.Secret, s.Issuer, token.TypeAccess)
	if err != nil {
		return 0, "", err
	}
	return claims.UserID, claims.Role, nil
}

// GatewayHeaderStrategy trusts caller-identity headers injected by a
// gateway.  Enabled only via AUTH_SOURCE=header.
type GatewayHeaderStrategy struct{}

func (GatewayHeaderStrategy) Resolve(c echo.Context) (uint64, string, error) {
	idRaw := c.Request().Header.Get("X-User-ID")
	role := c.Request().Header.Get("X-User-Role")
	if idRaw == "" || role == "" {
		return 0, "", errors.New("missing identity headers")
	}
	id, err := strconv.ParseUint(idRaw, 10, 64)
	if err != nil {
		return 0, "", errors.New("invalid X-User-ID")
	}
	return id, role, nil
}

// StrategyFromSource picks the strategy for the configured AUTH_SOURCE.
// Anything other than "header" resolves to the cookie strategy.
func StrategyFromSource(source, secret, issuer string) IdentityStrategy {
	if source == "header" {
		return GatewayHeaderStrategy{}
	}
	return CookieTokenStrategy{Secret: secret, Issuer: issuer}
}

// Authenticate returns middleware that resolves the caller identity with
// the given strategy and injects it into the request context.  Expired
// tokens get a distinct message so clients know to refresh rather than
// re-login.
func Authenticate(s IdentityStrategy) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, role, err := s.Resolve(c)
			if err != nil {
				msg := "authentication required"
				if errors.Is(err, token.ErrExpired) {
					msg = "access token expired"
				}
				return c.JSON(http.StatusUnauthorized, echo.Map{"detail": msg})
			}
			c.Set(ContextUserID, userID)
			c.Set(ContextRole, role)
			return next(c)
		}
	}
}

// UserID extracts the authenticated user id stored by Authenticate.
func UserID(c echo.Context) (uint64, error) {
	v := c.Get(ContextUserID)
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("no authenticated user in context")
}

// Role extracts the authenticated role, or "" when absent.
func Role(c echo.Context) string {
	if r, ok := c.Get(ContextRole).(string); ok {
		return r
	}
	return ""
}
