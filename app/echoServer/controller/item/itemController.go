package item

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/budingricky/Books-Management-System-BMS/app/echoServer/respond"
	"github.com/budingricky/Books-Management-System-BMS/model"
	"github.com/budingricky/Books-Management-System-BMS/service/catalog"
	"github.com/budingricky/Books-Management-System-BMS/service/lending"
)

type Controller struct {
	Svc     catalog.Service
	Lending lending.Service
	V       *validator.Validate
	Log     *slog.Logger
}

func pathID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

// POST /v1/items
func (h *Controller) Create(c echo.Context) error {
	var req UpsertItemReq
	if err := c.Bind(&req); err != nil {
		return respond.Invalid(c, "invalid JSON")
	}
	if err := h.V.Struct(req); err != nil {
		return respond.Invalid(c, "validation error: "+err.Error())
	}
	in, err := req.toInput()
	if err != nil {
		return respond.Invalid(c, "invalid publish_date")
	}

	it, err := h.Svc.Create(c.Request().Context(), in)
	if err != nil {
		return respond.Error(c, h.Log, "item create", err)
	}
	return respond.OK(c, http.StatusCreated, "item created", it)
}

// PUT /v1/items/:id
func (h *Controller) Update(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return respond.Invalid(c, "invalid id")
	}
	var req UpsertItemReq
	if err := c.Bind(&req); err != nil {
		return respond.Invalid(c, "invalid JSON")
	}
	if err := h.V.Struct(req); err != nil {
		return respond.Invalid(c, "validation error: "+err.Error())
	}
	in, err := req.toInput()
	if err != nil {
		return respond.Invalid(c, "invalid publish_date")
	}

	it, err := h.Svc.Update(c.Request().Context(), id, in)
	if err != nil {
		return respond.Error(c, h.Log, "item update", err)
	}
	return respond.OK(c, http.StatusOK, "item updated", it)
}

// DELETE /v1/items/:id
func (h *Controller) Delete(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return respond.Invalid(c, "invalid id")
	}
	if err := h.Svc.Delete(c.Request().Context(), id); err != nil {
		return respond.Error(c, h.Log, "item delete", err)
	}
	return respond.OK(c, http.StatusOK, "item deleted", nil)
}

// GET /v1/items/:id
func (h *Controller) Detail(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return respond.Invalid(c, "invalid id")
	}
	it, err := h.Svc.Get(c.Request().Context(), id)
	if err != nil {
		return respond.Error(c, h.Log, "item detail", err)
	}
	return respond.OK(c, http.StatusOK, "ok", it)
}

// GET /v1/items
func (h *Controller) List(c echo.Context) error {
	f := catalog.ItemFilter{
		Text:   c.QueryParam("search"),
		Status: model.ItemStatus(c.QueryParam("status")),
	}
	f.CategoryID, _ = strconv.ParseInt(c.QueryParam("category"), 10, 64)
	f.Page, _ = strconv.Atoi(c.QueryParam("page"))
	f.Limit, _ = strconv.Atoi(c.QueryParam("limit"))
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = 20
	}

	items, total, err := h.Svc.List(c.Request().Context(), f)
	if err != nil {
		return respond.Error(c, h.Log, "item list", err)
	}
	return respond.Page(c, "ok", items, total, f.Page, f.Limit)
}

// PATCH /v1/items/:id/status — maintenance moves between AVAILABLE and
// UNAVAILABLE; borrow/return never goes through here.
func (h *Controller) SetStatus(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return respond.Invalid(c, "invalid id")
	}
	var req SetStatusReq
	if err := c.Bind(&req); err != nil {
		return respond.Invalid(c, "invalid JSON")
	}
	if err := h.V.Struct(req); err != nil {
		return respond.Invalid(c, "status must be AVAILABLE or UNAVAILABLE")
	}

	unavailable := req.Status == string(model.ItemUnavailable)
	if err := h.Lending.SetMaintenance(c.Request().Context(), id, unavailable); err != nil {
		return respond.Error(c, h.Log, "item set status", err)
	}
	return respond.OK(c, http.StatusOK, "status updated", nil)
}
