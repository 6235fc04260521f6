package loan

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/budingricky/Books-Management-System-BMS/app/echoServer/respond"
	"github.com/budingricky/Books-Management-System-BMS/model"
	"github.com/budingricky/Books-Management-System-BMS/service/lending"
)

type Controller struct {
	Svc lending.Service
	V   *validator.Validate
	Log *slog.Logger
}

func pathID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

// POST /v1/loans
func (h *Controller) Create(c echo.Context) error {
	var req CreateLoanReq
	if err := c.Bind(&req); err != nil {
		return respond.Invalid(c, "invalid JSON")
	}
	if err := h.V.Struct(req); err != nil {
		return respond.Invalid(c, "validation error: "+err.Error())
	}
	due, err := parseDueAt(req.DueAt)
	if err != nil {
		return respond.Invalid(c, "due_at must be RFC 3339 or YYYY-MM-DD")
	}

	l, err := h.Svc.Borrow(c.Request().Context(), lending.BorrowInput{
		ItemID:   req.ItemID,
		Borrower: req.Borrower,
		Contact:  req.Contact,
		Notes:    req.Notes,
		DueAt:    due,
	})
	if err != nil {
		return respond.Error(c, h.Log, "loan create", err)
	}
	return respond.OK(c, http.StatusCreated, "item borrowed", toResp(l, time.Now().UTC()))
}

// PUT /v1/loans/:id/return
func (h *Controller) Return(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return respond.Invalid(c, "invalid id")
	}
	l, err := h.Svc.Return(c.Request().Context(), id)
	if err != nil {
		return respond.Error(c, h.Log, "loan return", err)
	}
	return respond.OK(c, http.StatusOK, "item returned", toResp(l, time.Now().UTC()))
}

// DELETE /v1/loans/:id — administrative removal of the record itself
func (h *Controller) Delete(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return respond.Invalid(c, "invalid id")
	}
	if err := h.Svc.Remove(c.Request().Context(), id); err != nil {
		return respond.Error(c, h.Log, "loan remove", err)
	}
	return respond.OK(c, http.StatusOK, "loan removed", nil)
}

// GET /v1/loans/:id
func (h *Controller) Detail(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return respond.Invalid(c, "invalid id")
	}
	l, err := h.Svc.GetLoan(c.Request().Context(), id)
	if err != nil {
		return respond.Error(c, h.Log, "loan detail", err)
	}
	return respond.OK(c, http.StatusOK, "ok", toResp(l, time.Now().UTC()))
}

// GET /v1/loans
func (h *Controller) List(c echo.Context) error {
	f := lending.ListFilter{
		Status:   model.LoanStatus(c.QueryParam("status")),
		Borrower: c.QueryParam("borrower"),
	}
	f.ItemID, _ = strconv.ParseInt(c.QueryParam("item"), 10, 64)
	f.Page, _ = strconv.Atoi(c.QueryParam("page"))
	f.Limit, _ = strconv.Atoi(c.QueryParam("limit"))
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = 20
	}

	ls, total, err := h.Svc.ListLoans(c.Request().Context(), f)
	if err != nil {
		return respond.Error(c, h.Log, "loan list", err)
	}
	return respond.Page(c, "ok", toRespList(ls, time.Now().UTC()), total, f.Page, f.Limit)
}

// GET /v1/loans/due-soon
func (h *Controller) DueSoon(c echo.Context) error {
	days, _ := strconv.Atoi(c.QueryParam("days"))
	ls, err := h.Svc.DueSoon(c.Request().Context(), days)
	if err != nil {
		return respond.Error(c, h.Log, "loan due soon", err)
	}
	return respond.OK(c, http.StatusOK, "ok", toRespList(ls, time.Now().UTC()))
}

// GET /v1/items/:id/loans — borrow history of one item
func (h *Controller) ByItem(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return respond.Invalid(c, "invalid id")
	}
	f := lending.ListFilter{ItemID: id}
	f.Page, _ = strconv.Atoi(c.QueryParam("page"))
	f.Limit, _ = strconv.Atoi(c.QueryParam("limit"))
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = 20
	}

	ls, total, err := h.Svc.ListLoans(c.Request().Context(), f)
	if err != nil {
		return respond.Error(c, h.Log, "loans by item", err)
	}
	return respond.Page(c, "ok", toRespList(ls, time.Now().UTC()), total, f.Page, f.Limit)
}
