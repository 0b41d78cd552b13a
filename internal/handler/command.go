package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/portafacil/access-control/internal/logclient"
	"github.com/portafacil/access-control/internal/middleware"
	"github.com/portafacil/access-control/internal/model"
	"github.com/portafacil/access-control/internal/queue"
	"github.com/portafacil/access-control/internal/repository"
)

// CommandHandler authorizes door commands and relays them to the device
// queue.  A command is allowed when the caller holds any access relation
// on the device's room, or carries the administrador role.
type CommandHandler struct {
	Devices   *repository.DeviceRepo
	Rooms     *repository.RoomRepo
	Publisher *queue.Publisher
	Logs      *logclient.Client
	Logger    *zap.Logger
}

func NewCommandHandler(devices *repository.DeviceRepo, rooms *repository.RoomRepo, pub *queue.Publisher, logs *logclient.Client, logger *zap.Logger) *CommandHandler {
	return &CommandHandler{Devices: devices, Rooms: rooms, Publisher: pub, Logs: logs, Logger: logger}
}

type commandReq struct {
	MACAddress string `json:"mac_address"`
	Command    string `json:"command"`
}

func validDoorCommand(cmd string) bool {
	switch cmd {
	case "open", "close", "lock", "unlock":
		return true
	}
	return false
}

// Send handles POST /v1/commands.
func (h *CommandHandler) Send(c echo.Context) error {
	uid, err := middleware.UserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "unauthorized"})
	}
	role := middleware.Role(c)

	var req commandReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "invalid body"})
	}
	if req.MACAddress == "" || req.Command == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "mac_address and command are required"})
	}
	if !validDoorCommand(req.Command) {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "unknown command"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	device, err := h.Devices.GetByMAC(ctx, req.MACAddress)
	if err != nil {
		if errors.Is(err, repository.ErrDeviceNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"detail": "device not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "could not load device"})
	}

	allowed := role == model.RoleAdministrador
	if !allowed {
		allowed, err = h.Rooms.UserHasAccess(ctx, uid, device.RoomID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "could not check room access"})
		}
	}
	if !allowed {
		h.record(uid, "WARNING", fmt.Sprintf("user %d denied %q on device %s", uid, req.Command, device.MAC))
		return c.JSON(http.StatusForbidden, echo.Map{"detail": "no access to this room"})
	}

	err = h.Publisher.Publish(ctx, queue.DoorCommandsQueue, queue.DoorCommand{
		MACAddress: device.MAC,
		Command:    req.Command,
		UserID:     uid,
	})
	if err != nil {
		h.Logger.Error("door command not relayed", zap.String("mac", device.MAC), zap.Error(err))
		return c.JSON(http.StatusBadGateway, echo.Map{"detail": "device broker unavailable"})
	}

	h.record(uid, "INFO", fmt.Sprintf("user %d sent %q to device %s", uid, req.Command, device.MAC))
	return c.JSON(http.StatusAccepted, echo.Map{"detail": "command sent"})
}

// record ships an action entry to the log service without blocking the
// request.
func (h *CommandHandler) record(userID uint64, level, message string) {
	if h.Logs == nil {
		return
	}
	uid := userID
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		h.Logs.Record(ctx, model.LogEntry{
			Timestamp:   time.Now().UTC(),
			ServiceName: "command-service",
			UserID:      &uid,
			Level:       level,
			Message:     message,
		})
	}()
}
