// Package main library lending API.
//
// @title           Library Lending API
// @version         1.0
// @description     Catalog and lending service (items, categories, loans, statistics).
// @BasePath        /
// @schemes         http
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/budingricky/Books-Management-System-BMS/app/echoServer"
	categoryctrl "github.com/budingricky/Books-Management-System-BMS/app/echoServer/controller/category"
	itemctrl "github.com/budingricky/Books-Management-System-BMS/app/echoServer/controller/item"
	loanctrl "github.com/budingricky/Books-Management-System-BMS/app/echoServer/controller/loan"
	statsctrl "github.com/budingricky/Books-Management-System-BMS/app/echoServer/controller/stats"
	"github.com/budingricky/Books-Management-System-BMS/app/echoServer/validation"
	"github.com/budingricky/Books-Management-System-BMS/config"
	categoryrepo "github.com/budingricky/Books-Management-System-BMS/repository/category"
	itemrepo "github.com/budingricky/Books-Management-System-BMS/repository/item"
	loanrepo "github.com/budingricky/Books-Management-System-BMS/repository/loan"
	catalogsvc "github.com/budingricky/Books-Management-System-BMS/service/catalog"
	categorysvc "github.com/budingricky/Books-Management-System-BMS/service/category"
	lendingsvc "github.com/budingricky/Books-Management-System-BMS/service/lending"
	statssvc "github.com/budingricky/Books-Management-System-BMS/service/stats"
	"github.com/budingricky/Books-Management-System-BMS/util/database"
)

func main() {

	cfg := config.Load()
	ctx := context.Background()

	// logger
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// DB: *sql.DB over pgx
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Error("db migrate failed", "err", err)
		os.Exit(1)
	}

	// repos
	ir := itemrepo.New(db)
	cr := categoryrepo.New(db)
	lr := loanrepo.New(db)

	// services; the stats cache is purged after every committed mutation
	ss := statssvc.New(ir, lr, cr, cfg.CacheTTL())
	ls := lendingsvc.New(lr, lr, log, cfg.DefaultLoanDays, lendingsvc.WithInvalidator(ss))
	cs := catalogsvc.New(ir, ss)
	gs := categorysvc.New(cr)

	// controllers
	v := validator.New()
	itemC := &itemctrl.Controller{Svc: cs, Lending: ls, V: v, Log: log}
	categoryC := &categoryctrl.Controller{Svc: gs, V: v, Log: log}
	loanC := &loanctrl.Controller{Svc: ls, V: v, Log: log}
	statsC := &statsctrl.Controller{Svc: ss, Log: log}

	// echo
	e := echo.New()
	e.HideBanner = true
	e.JSONSerializer = echoServer.JSONSerializer{}
	echoServer.RegisterMiddlewares(e)
	e.Validator = validation.New()

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]any{
			"status":  "ok",
			"message": "Service is healthy and connected",
		})
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	echoServer.Register(e, echoServer.C{
		Item:     itemC,
		Category: categoryC,
		Loan:     loanC,
		Stats:    statsC,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}
	if port == "" {
		port = "8080"
	}

	slog.Info("starting server", "port", port, "env", cfg.Env)

	e.Logger.Fatal(e.Start(":" + port))
}
