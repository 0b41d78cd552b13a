package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/portafacil/access-control/internal/model"
	"github.com/portafacil/access-control/internal/repository"
)

// DepartmentHandler serves CRUD for departments.  All routes are gated on
// the administrador role at the router.
type DepartmentHandler struct {
	Repo *repository.DepartmentRepo
}

func NewDepartmentHandler(repo *repository.DepartmentRepo) *DepartmentHandler {
	return &DepartmentHandler{Repo: repo}
}

type departmentReq struct {
	Code         string   `json:"code"`
	Name         string   `json:"name"`
	Coordinators []uint64 `json:"coordinators"`
}

func (h *DepartmentHandler) Create(c echo.Context) error {
	var req departmentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "invalid body"})
	}
	if req.Code == "" || req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "code and name are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	d := &model.Department{Code: req.Code, Name: req.Name, Coordinators: req.Coordinators}
	if err := h.Repo.Create(ctx, d); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"detail": "department code already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "could not create department"})
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *DepartmentHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "invalid department id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	d, err := h.Repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrDepartmentNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"detail": "department not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "could not load department"})
	}
	return c.JSON(http.StatusOK, d)
}

func (h *DepartmentHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	out, err := h.Repo.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "could not list departments"})
	}
	if out == nil {
		out = []*model.Department{}
	}
	return c.JSON(http.StatusOK, out)
}

func (h *DepartmentHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "invalid department id"})
	}
	var req departmentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "invalid body"})
	}
	if req.Code == "" || req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "code and name are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	d := &model.Department{ID: id, Code: req.Code, Name: req.Name, Coordinators: req.Coordinators}
	if err := h.Repo.Update(ctx, d); err != nil {
		switch {
		case errors.Is(err, repository.ErrDepartmentNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"detail": "department not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"detail": "department code already exists"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "could not update department"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"detail": "department updated"})
}

func (h *DepartmentHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "invalid department id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrDepartmentNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"detail": "department not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "could not delete department"})
	}
	return c.JSON(http.StatusOK, echo.Map{"detail": "department deleted"})
}

// pathID parses a numeric path parameter shared by every resource handler.
func pathID(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}
