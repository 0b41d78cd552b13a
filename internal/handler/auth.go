package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/portafacil/access-control/internal/auth"
	"github.com/portafacil/access-control/internal/config"
	"github.com/portafacil/access-control/internal/middleware"
	"github.com/portafacil/access-control/internal/model"
	"github.com/portafacil/access-control/internal/queue"
	"github.com/portafacil/access-control/internal/repository"
	"github.com/portafacil/access-control/internal/suap"
)

// RefreshCookiePath scopes the refresh_token cookie to the refresh
// endpoint so it is not replayed on every request.
const RefreshCookiePath = "/v1/auth/refresh"

// AuthHandler bundles dependencies for the auth endpoints.
type AuthHandler struct {
	Cfg       config.Config
	Verifier  *auth.Verifier
	Issuer    *auth.Issuer
	Users     *repository.UserRepo
	Publisher *queue.Publisher
	Logger    *zap.Logger
}

func NewAuthHandler(cfg config.Config, v *auth.Verifier, i *auth.Issuer, u *repository.UserRepo, p *queue.Publisher, l *zap.Logger) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Verifier: v, Issuer: i, Users: u, Publisher: p, Logger: l}
}

// ----- DTOs -----

type registerReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}
type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
type mockLoginReq struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}
type userPart struct {
	ID        uint64 `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name,omitempty"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role"`
}

// setAuthCookies attaches the token pair as HTTP-only cookies.  The
// refresh token is path-scoped to the refresh endpoint only.
func setAuthCookies(c echo.Context, pair auth.TokenPair) {
	c.SetCookie(&http.Cookie{
		Name:     "access_token",
		Value:    pair.Access,
		Path:     "/",
		Expires:  pair.AccessExpiry,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	c.SetCookie(&http.Cookie{
		Name:     "refresh_token",
		Value:    pair.Refresh,
		Path:     RefreshCookiePath,
		Expires:  pair.RefreshExpiry,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearAuthCookies expires both cookies.
func clearAuthCookies(c echo.Context) {
	c.SetCookie(&http.Cookie{Name: "access_token", Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	c.SetCookie(&http.Cookie{Name: "refresh_token", Value: "", Path: RefreshCookiePath, MaxAge: -1, HttpOnly: true})
}

// Register creates a local account with the standard role and announces it
// so the persistence service materializes the profile.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "invalid body"})
	}
	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "username and password are required"})
	}

	hash, err := auth.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "could not process password"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid, err := h.Users.Create(ctx, req.Username, req.Email, hash, model.RolePadrao)
	if err != nil {
		if errors.Is(err, repository.ErrUsernameExists) {
			return c.JSON(http.StatusConflict, echo.Map{"detail": "username already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "could not create user"})
	}

	// Best-effort: a lost event delays profile creation but must not fail
	// the registration.
	_ = h.Publisher.Publish(ctx, queue.UserEventsQueue, queue.UserEvent{
		EventType: queue.EventUserCreated,
		UserID:    uid,
		Username:  req.Username,
		Role:      model.RolePadrao,
	})

	return c.JSON(http.StatusCreated, echo.Map{"detail": "user registered"})
}

// Login verifies credentials against the identity provider (with the
// backup fallback) and establishes the cookie session.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "invalid body"})
	}
	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "username and password are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	id, err := h.Verifier.Verify(ctx, req.Username, req.Password)
	if err != nil {
		return c.JSON(suap.HTTPStatus(err), echo.Map{"detail": err.Error()})
	}

	pair, err := h.Issuer.Issue(id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "could not issue session"})
	}

	_ = h.Publisher.Publish(ctx, queue.UserEventsQueue, queue.UserEvent{
		EventType: queue.EventUserLoggedIn,
		UserID:    id.UserID,
		Username:  id.Username,
		Role:      id.Role,
	})

	setAuthCookies(c, pair)
	return c.JSON(http.StatusOK, echo.Map{
		"detail": "login successful",
		"user": userPart{
			ID:        id.UserID,
			Username:  id.Username,
			FirstName: id.FirstName,
			Email:     id.Email,
			Role:      id.Role,
		},
	})
}

// MockLogin issues a session with an arbitrary role.  Registered only when
// the environment is not production; the end-to-end suite uses it to
// exercise role gating without provider accounts.
func (h *AuthHandler) MockLogin(c echo.Context) error {
	var req mockLoginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "invalid body"})
	}
	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	if req.Username == "" || req.Role == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "username and role are required"})
	}
	if !model.ValidRole(req.Role) {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "unknown role"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, created, err := h.Users.GetOrCreate(ctx, req.Username, req.Role)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "could not load user"})
	}

	eventType := queue.EventUserUpdated
	if created {
		eventType = queue.EventUserCreated
	}
	_ = h.Publisher.Publish(ctx, queue.UserEventsQueue, queue.UserEvent{
		EventType: eventType,
		UserID:    u.ID,
		Username:  u.Username,
		Role:      req.Role,
	})

	pair, err := h.Issuer.Issue(model.Identity{
		UserID:    u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		Role:      req.Role,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "could not issue session"})
	}

	setAuthCookies(c, pair)
	return c.JSON(http.StatusOK, echo.Map{
		"detail": "mock login as " + req.Role + " successful",
		"user": userPart{
			ID:       u.ID,
			Username: u.Username,
			Role:     req.Role,
		},
	})
}

// Refresh exchanges the refresh_token cookie for a new access token.  The
// new token carries the identical role and issuer claims the refresh token
// holds; no credential re-verification happens here.
func (h *AuthHandler) Refresh(c echo.Context) error {
	cookie, err := c.Cookie("refresh_token")
	if err != nil || cookie.Value == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "refresh token not found in cookie"})
	}

	access, claims, err := h.Issuer.Refresh(cookie.Value)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "refresh token invalid or expired"})
	}

	c.SetCookie(&http.Cookie{
		Name:     "access_token",
		Value:    access,
		Path:     "/",
		Expires:  claims.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return c.JSON(http.StatusOK, echo.Map{"detail": "token refreshed"})
}

// Logout removes the session cookies.
func (h *AuthHandler) Logout(c echo.Context) error {
	clearAuthCookies(c)
	return c.JSON(http.StatusOK, echo.Map{"detail": "logout successful"})
}

// Check returns the verified identity of the caller.  Protected by the
// Authenticate middleware.
func (h *AuthHandler) Check(c echo.Context) error {
	uid, err := middleware.UserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"detail": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "could not load user"})
	}
	return c.JSON(http.StatusOK, userPart{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		Email:     u.Email,
		Role:      middleware.Role(c),
	})
}
