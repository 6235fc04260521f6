package category

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/budingricky/Books-Management-System-BMS/app/echoServer/respond"
	catsvc "github.com/budingricky/Books-Management-System-BMS/service/category"
)

type Controller struct {
	Svc catsvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

type UpsertCategoryReq struct {
	Name     string `json:"name" validate:"required"`
	Code     string `json:"code" validate:"required"`
	ParentID *int64 `json:"parent_id"`
}

func pathID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

// POST /v1/categories
func (h *Controller) Create(c echo.Context) error {
	var req UpsertCategoryReq
	if err := c.Bind(&req); err != nil {
		return respond.Invalid(c, "invalid JSON")
	}
	if err := h.V.Struct(req); err != nil {
		return respond.Invalid(c, "validation error: "+err.Error())
	}
	cat, err := h.Svc.Create(c.Request().Context(), catsvc.Input{
		Name: req.Name, Code: req.Code, ParentID: req.ParentID,
	})
	if err != nil {
		return respond.Error(c, h.Log, "category create", err)
	}
	return respond.OK(c, http.StatusCreated, "category created", cat)
}

// PUT /v1/categories/:id
func (h *Controller) Update(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return respond.Invalid(c, "invalid id")
	}
	var req UpsertCategoryReq
	if err := c.Bind(&req); err != nil {
		return respond.Invalid(c, "invalid JSON")
	}
	if err := h.V.Struct(req); err != nil {
		return respond.Invalid(c, "validation error: "+err.Error())
	}
	cat, err := h.Svc.Update(c.Request().Context(), id, catsvc.Input{
		Name: req.Name, Code: req.Code, ParentID: req.ParentID,
	})
	if err != nil {
		return respond.Error(c, h.Log, "category update", err)
	}
	return respond.OK(c, http.StatusOK, "category updated", cat)
}

// DELETE /v1/categories/:id
func (h *Controller) Delete(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return respond.Invalid(c, "invalid id")
	}
	if err := h.Svc.Delete(c.Request().Context(), id); err != nil {
		return respond.Error(c, h.Log, "category delete", err)
	}
	return respond.OK(c, http.StatusOK, "category deleted", nil)
}

// GET /v1/categories/:id
func (h *Controller) Detail(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return respond.Invalid(c, "invalid id")
	}
	cat, err := h.Svc.Get(c.Request().Context(), id)
	if err != nil {
		return respond.Error(c, h.Log, "category detail", err)
	}
	return respond.OK(c, http.StatusOK, "ok", cat)
}

// GET /v1/categories?tree=true
func (h *Controller) List(c echo.Context) error {
	tree := c.QueryParam("tree") == "true"
	cats, err := h.Svc.List(c.Request().Context(), tree)
	if err != nil {
		return respond.Error(c, h.Log, "category list", err)
	}
	return respond.OK(c, http.StatusOK, "ok", cats)
}
