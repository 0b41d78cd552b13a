package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/portafacil/access-control/internal/model"
	"github.com/portafacil/access-control/internal/repository"
)

// DeviceHandler serves CRUD for door controller devices.
type DeviceHandler struct {
	Devices *repository.DeviceRepo
	Rooms   *repository.RoomRepo
}

func NewDeviceHandler(devices *repository.DeviceRepo, rooms *repository.RoomRepo) *DeviceHandler {
	return &DeviceHandler{Devices: devices, Rooms: rooms}
}

type deviceReq struct {
	MAC         string `json:"mac"`
	Description string `json:"description"`
	Status      string `json:"status"`
	RoomID      uint64 `json:"room_id"`
}

func (h *DeviceHandler) Create(c echo.Context) error {
	var req deviceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "invalid body"})
	}
	if req.MAC == "" || req.RoomID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "mac and room_id are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	// A device must point at an existing room.
	if _, err := h.Rooms.GetByID(ctx, req.RoomID); err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"detail": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "could not load room"})
	}

	d := &model.IOTDevice{MAC: req.MAC, Description: req.Description, Status: req.Status, RoomID: req.RoomID}
	if err := h.Devices.Create(ctx, d); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"detail": "device mac already registered"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "could not create device"})
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *DeviceHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "invalid device id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	d, err := h.Devices.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrDeviceNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"detail": "device not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "could not load device"})
	}
	return c.JSON(http.StatusOK, d)
}

func (h *DeviceHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	out, err := h.Devices.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "could not list devices"})
	}
	if out == nil {
		out = []*model.IOTDevice{}
	}
	return c.JSON(http.StatusOK, out)
}

func (h *DeviceHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "invalid device id"})
	}
	var req deviceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "invalid body"})
	}
	if req.MAC == "" || req.RoomID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "mac and room_id are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	d := &model.IOTDevice{ID: id, MAC: req.MAC, Description: req.Description, Status: req.Status, RoomID: req.RoomID}
	if err := h.Devices.Update(ctx, d); err != nil {
		switch {
		case errors.Is(err, repository.ErrDeviceNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"detail": "device not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"detail": "device mac already registered"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "could not update device"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"detail": "device updated"})
}

func (h *DeviceHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "invalid device id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Devices.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrDeviceNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"detail": "device not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "could not delete device"})
	}
	return c.JSON(http.StatusOK, echo.Map{"detail": "device deleted"})
}
