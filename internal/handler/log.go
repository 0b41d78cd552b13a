package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/portafacil/access-control/internal/model"
	"github.com/portafacil/access-control/internal/repository"
)

// LogHandler serves the action log store.
type LogHandler struct {
	Repo *repository.LogRepo
}

func NewLogHandler(repo *repository.LogRepo) *LogHandler {
	return &LogHandler{Repo: repo}
}

type logReq struct {
	ServiceName string  `json:"service_name"`
	UserID      *uint64 `json:"user_id"`
	Level       string  `json:"level"`
	Message     string  `json:"message"`
}

// Create handles POST /log from the other services.
func (h *LogHandler) Create(c echo.Context) error {
	var req logReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "invalid body"})
	}
	if req.ServiceName == "" || req.Message == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "service_name and message are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	e := &model.LogEntry{
		ServiceName: req.ServiceName,
		UserID:      req.UserID,
		Level:       req.Level,
		Message:     req.Message,
	}
	if err := h.Repo.Insert(ctx, e); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "could not store log entry"})
	}
	return c.JSON(http.StatusCreated, e)
}

// List handles GET /log?limit=N, newest first.
func (h *LogHandler) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	out, err := h.Repo.ListRecent(ctx, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "could not list log entries"})
	}
	if out == nil {
		out = []*model.LogEntry{}
	}
	return c.JSON(http.StatusOK, out)
}
