package stats

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/budingricky/Books-Management-System-BMS/app/echoServer/respond"
	statssvc "github.com/budingricky/Books-Management-System-BMS/service/stats"
)

type Controller struct {
	Svc statssvc.Service
	Log *slog.Logger
}

// GET /v1/statistics/overview
func (h *Controller) Overview(c echo.Context) error {
	st, err := h.Svc.Overview(c.Request().Context())
	if err != nil {
		return respond.Error(c, h.Log, "stats overview", err)
	}
	return respond.OK(c, http.StatusOK, "ok", st)
}

// GET /v1/statistics/popular-items
func (h *Controller) PopularItems(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	items, err := h.Svc.PopularItems(c.Request().Context(), limit)
	if err != nil {
		return respond.Error(c, h.Log, "stats popular items", err)
	}
	return respond.OK(c, http.StatusOK, "ok", items)
}

// GET /v1/statistics/borrow-trend
func (h *Controller) BorrowTrend(c echo.Context) error {
	days, _ := strconv.Atoi(c.QueryParam("days"))
	trend, err := h.Svc.BorrowTrend(c.Request().Context(), days)
	if err != nil {
		return respond.Error(c, h.Log, "stats borrow trend", err)
	}
	return respond.OK(c, http.StatusOK, "ok", trend)
}

// GET /v1/statistics/recent-activities
func (h *Controller) RecentActivity(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	acts, err := h.Svc.RecentActivity(c.Request().Context(), limit)
	if err != nil {
		return respond.Error(c, h.Log, "stats recent activity", err)
	}
	return respond.OK(c, http.StatusOK, "ok", acts)
}
