package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	appconfig "github.com/ecopulse/ecopulse/config"
	"github.com/ecopulse/ecopulse/internal/enrich"
	"github.com/ecopulse/ecopulse/internal/ledger"
	"github.com/ecopulse/ecopulse/internal/publish"
	"github.com/ecopulse/ecopulse/provider"
	"github.com/ecopulse/ecopulse/repository"
	"github.com/ecopulse/ecopulse/repository/redis_repository"
	"github.com/ecopulse/ecopulse/session"
)

// Run wires the pipeline together and serves the dashboard API.
func Run(cfg *appconfig.Config) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	// Unified HTTP error handler with structured JSON and logging
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(200, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Shared dependencies (top-level DI)
	ctx := context.Background()
	llm, err := provider.NewProvider(provider.Client(cfg.LLM.Provider), cfg.LLM)
	if err != nil {
		return err
	}
	costs := ledger.New(ledger.Pricing{
		InputPerMillion:  cfg.Pricing.InputPerMillion,
		OutputPerMillion: cfg.Pricing.OutputPerMillion,
		SearchSurcharge:  cfg.Pricing.SearchSurcharge,
		ExchangeRate:     cfg.Pricing.ExchangeRate,
		Currency:         cfg.Pricing.Currency,
	})
	sess := session.New(costs)
	enricher := enrich.New(llm, costs, cfg.General.DefaultTimeout)

	var creds repository.CredentialRepository
	if cfg.Storage.Redis.Enabled() {
		client, err := redis_repository.Conn(ctx,
			cfg.Storage.Redis.Host, cfg.Storage.Redis.Port,
			cfg.Storage.Redis.Password, cfg.Storage.Redis.DB,
			cfg.Storage.Redis.Timeout)
		if err != nil {
			return fmt.Errorf("redis connection failed: %w", err)
		}
		creds = redis_repository.NewCredentialRepository(client)
	} else {
		baseLogger.Printf("redis not configured, publish credential cached in memory only")
		creds = repository.NewInMemoryCredentialRepository()
	}

	writer := publish.NewGitHubWriter("", cfg.General.DefaultTimeout)
	workflow := publish.NewWorkflow(writer, creds)

	api := e.Group("/api")
	if cfg.Server.APIToken != "" {
		api.Use(bearerAuth(cfg.Server.APIToken))
	}

	nh := &NewsHandler{Session: sess, Enricher: enricher, Workflow: workflow,
		Logger: log.New(log.Writer(), "[NEWS] ", log.LstdFlags)}
	nh.Register(api)

	ph := &PublishHandler{Workflow: workflow, Defaults: cfg.Publish,
		Logger: log.New(log.Writer(), "[PUBLISH] ", log.LstdFlags)}
	ph.Register(api.Group("/reports"))

	return e.Start(cfg.Server.Address)
}

// bearerAuth guards the API group with a single shared token.
func bearerAuth(token string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get("Authorization") != "Bearer "+token {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid api token")
			}
			return next(c)
		}
	}
}
