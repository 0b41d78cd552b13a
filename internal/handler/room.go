package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/portafacil/access-control/internal/middleware"
	"github.com/portafacil/access-control/internal/model"
	"github.com/portafacil/access-control/internal/repository"
)

// RoomHandler serves the room listings and CRUD.  Which roles may reach
// which route is wired at the router; the handler only needs the caller
// identity for the my-access listing.
type RoomHandler struct {
	Rooms *repository.RoomRepo
}

func NewRoomHandler(rooms *repository.RoomRepo) *RoomHandler {
	return &RoomHandler{Rooms: rooms}
}

type roomReq struct {
	Code                string   `json:"code"`
	Name                string   `json:"name"`
	DepartmentID        uint64   `json:"department_id"`
	Status              string   `json:"status"`
	Admins              []uint64 `json:"admins"`
	Users               []uint64 `json:"users"`
	SpecialCoordinators []uint64 `json:"special_coordinators"`
}

func validRoomStatus(s string) bool {
	switch s {
	case "", model.RoomAvailable, model.RoomOccupied, model.RoomMaintenance:
		return true
	}
	return false
}

func (h *RoomHandler) Create(c echo.Context) error {
	var req roomReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "invalid body"})
	}
	if req.Code == "" || req.Name == "" || req.DepartmentID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "code, name and department_id are required"})
	}
	if !validRoomStatus(req.Status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "unknown room status"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	room := &model.Room{
		Code:                req.Code,
		Name:                req.Name,
		DepartmentID:        req.DepartmentID,
		Status:              req.Status,
		Admins:              req.Admins,
		Users:               req.Users,
		SpecialCoordinators: req.SpecialCoordinators,
	}
	if err := h.Rooms.Create(ctx, room); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"detail": "room code already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "could not create room"})
	}
	return c.JSON(http.StatusCreated, room)
}

func (h *RoomHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "invalid room id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	room, err := h.Rooms.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"detail": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "could not load room"})
	}
	return c.JSON(http.StatusOK, room)
}

// ListAll returns every room regardless of status.  Security and
// administrative roles only.
func (h *RoomHandler) ListAll(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	out, err := h.Rooms.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "could not list rooms"})
	}
	if out == nil {
		out = []*model.Room{}
	}
	return c.JSON(http.StatusOK, out)
}

// ListAvailable is the public listing of rooms open for use.
func (h *RoomHandler) ListAvailable(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	out, err := h.Rooms.ListAvailable(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "could not list rooms"})
	}
	if out == nil {
		out = []*model.Room{}
	}
	return c.JSON(http.StatusOK, out)
}

// ListMyAccess returns the rooms the caller can open through any of the
// access relations.
func (h *RoomHandler) ListMyAccess(c echo.Context) error {
	uid, err := middleware.UserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	out, err := h.Rooms.ListByUserAccess(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "could not list rooms"})
	}
	if out == nil {
		out = []*model.Room{}
	}
	return c.JSON(http.StatusOK, out)
}

func (h *RoomHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "invalid room id"})
	}
	var req roomReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "invalid body"})
	}
	if req.Code == "" || req.Name == "" || req.DepartmentID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "code, name and department_id are required"})
	}
	if !validRoomStatus(req.Status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "unknown room status"})
	}
	if req.Status == "" {
		req.Status = model.RoomAvailable
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	room := &model.Room{
		ID:                  id,
		Code:                req.Code,
		Name:                req.Name,
		DepartmentID:        req.DepartmentID,
		Status:              req.Status,
		Admins:              req.Admins,
		Users:               req.Users,
		SpecialCoordinators: req.SpecialCoordinators,
	}
	if err := h.Rooms.Update(ctx, room); err != nil {
		switch {
		case errors.Is(err, repository.ErrRoomNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"detail": "room not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"detail": "room code already exists"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "could not update room"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"detail": "room updated"})
}

func (h *RoomHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "invalid room id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Rooms.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrRoomNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"detail": "room not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"detail": "room still has registered devices"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "could not delete room"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"detail": "room deleted"})
}
