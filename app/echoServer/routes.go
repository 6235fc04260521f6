package echoServer

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	categoryctrl "github.com/budingricky/Books-Management-System-BMS/app/echoServer/controller/category"
	itemctrl "github.com/budingricky/Books-Management-System-BMS/app/echoServer/controller/item"
	loanctrl "github.com/budingricky/Books-Management-System-BMS/app/echoServer/controller/loan"
	statsctrl "github.com/budingricky/Books-Management-System-BMS/app/echoServer/controller/stats"
)

type C struct {
	Item     *itemctrl.Controller
	Category *categoryctrl.Controller
	Loan     *loanctrl.Controller
	Stats    *statsctrl.Controller
}

func Register(e *echo.Echo, c C) {
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := e.Group("/v1")

	// Items
	v1.GET("/items", c.Item.List)
	v1.POST("/items", c.Item.Create)
	v1.GET("/items/:id", c.Item.Detail)
	v1.PUT("/items/:id", c.Item.Update)
	v1.DELETE("/items/:id", c.Item.Delete)
	v1.PATCH("/items/:id/status", c.Item.SetStatus)
	v1.GET("/items/:id/loans", c.Loan.ByItem)

	// Loans
	v1.GET("/loans", c.Loan.List)
	v1.POST("/loans", c.Loan.Create)
	v1.GET("/loans/due-soon", c.Loan.DueSoon)
	v1.GET("/loans/:id", c.Loan.Detail)
	v1.PUT("/loans/:id/return", c.Loan.Return)
	v1.DELETE("/loans/:id", c.Loan.Delete)

	// Categories
	v1.GET("/categories", c.Category.List)
	v1.POST("/categories", c.Category.Create)
	v1.GET("/categories/:id", c.Category.Detail)
	v1.PUT("/categories/:id", c.Category.Update)
	v1.DELETE("/categories/:id", c.Category.Delete)

	// Statistics
	v1.GET("/statistics/overview", c.Stats.Overview)
	v1.GET("/statistics/popular-items", c.Stats.PopularItems)
	v1.GET("/statistics/borrow-trend", c.Stats.BorrowTrend)
	v1.GET("/statistics/recent-activities", c.Stats.RecentActivity)
}
