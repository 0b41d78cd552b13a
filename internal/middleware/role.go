package middleware

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

// RequireRole returns a middleware function that enforces that the
// authenticated caller holds one of the specified roles.  The roles
// correspond to the values embedded in the token's "role" claim at
// issuance.  If the caller's role is not in the allowed set, the request
// is aborted with a 403 Forbidden response.  It assumes Authenticate has
// already stored the role in the context.
func RequireRole(roles ...string) echo.MiddlewareFunc {
    // Build a set of allowed roles for constant-time lookups.
    allowed := make(map[string]bool, len(roles))
    for _, r := range roles {
        allowed[r] = true
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            role := Role(c)
            if role == "" || !allowed[role] {
                return c.JSON(http.StatusForbidden, echo.Map{"detail": "forbidden"})
            }
            return next(c)
        }
    }
}
