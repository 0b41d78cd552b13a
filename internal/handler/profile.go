package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/portafacil/access-control/internal/repository"
)

// ProfileHandler exposes the persistence-service read model.
type ProfileHandler struct {
	Profiles *repository.ProfileRepo
}

func NewProfileHandler(profiles *repository.ProfileRepo) *ProfileHandler {
	return &ProfileHandler{Profiles: profiles}
}

// Get returns the actor row and the role markers for a user id.
func (h *ProfileHandler) Get(c echo.Context) error {
	uid, err := pathID(c, "user_id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "invalid user id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	actor, err := h.Profiles.GetActor(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrActorNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"detail": "actor not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "could not load actor"})
	}
	profiles, err := h.Profiles.ListProfiles(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "could not load profiles"})
	}
	return c.JSON(http.StatusOK, echo.Map{"actor": actor, "profiles": profiles})
}

// Cleanup removes a user's read-model rows by username.  Registered only
// outside production; the end-to-end suite uses it to reset fixtures.
func (h *ProfileHandler) Cleanup(c echo.Context) error {
	username := c.Param("username")
	if username == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "username is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Profiles.CleanupByUsername(ctx, username); err != nil {
		if errors.Is(err, repository.ErrActorNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"detail": "actor not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "could not clean up user"})
	}
	return c.JSON(http.StatusOK, echo.Map{"detail": "user data removed"})
}
