package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/linkhive/linkhive/internal/auth"
	"github.com/linkhive/linkhive/internal/config"
	"github.com/linkhive/linkhive/internal/db"
	"github.com/linkhive/linkhive/internal/handler"
	"github.com/linkhive/linkhive/internal/repo"
	"github.com/linkhive/linkhive/internal/service"
	"github.com/linkhive/linkhive/internal/shortcode"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to parse configuration from environment")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatal().Err(err).Str("level", cfg.LogLevel).Msg("failed to parse log level")
	}
	zerolog.SetGlobalLevel(level)
	if cfg.Debug {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	ctx := context.Background()
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("application error")
	}
}

func run(ctx context.Context, cfg config.Config) error {
	log.Info().
		Str("version", version).
		Str("build_time", buildTime).
		Bool("test_mode", cfg.TestMode).
		Msg("starting application")

	if cfg.TestMode {
		log.Warn().Msg("TEST_MODE is enabled - token verification is bypassed, never use in production")
	}

	dbInstance, err := db.Init(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer dbInstance.Close()

	e := echo.New()
	defer e.Close()

	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = customErrorHandler

	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.AllowedOrigins,
	}))

	linksRepo := repo.NewLinksRepo(dbInstance)
	clicksRepo := repo.NewClicksRepo(dbInstance)
	generator := shortcode.NewGenerator(cfg.CodeDenylist)
	linkService := service.NewLinkService(linksRepo, clicksRepo, generator, cfg.BaseURL)
	linkHandler := handler.NewLinkHandler(linkService)
	systemHandler := handler.NewSystemHandler(version)

	e.GET("/", systemHandler.Index)
	e.GET("/health", systemHandler.Health)
	e.GET("/api/health", systemHandler.Health)

	var verifier auth.TokenVerifier
	if !cfg.TestMode {
		verifier = auth.NewVerifier(cfg.IssuerURL, cfg.Audience, cfg.JWKSURL)
	}
	authMiddleware := auth.NewMiddleware(verifier, cfg.TestMode)

	api := e.Group("/api")
	api.Use(authMiddleware)
	api.POST("/links", linkHandler.CreateLink)
	api.GET("/links", linkHandler.ListLinks)
	api.GET("/links/:id", linkHandler.GetLink)
	api.PUT("/links/:id", linkHandler.UpdateLink)
	api.DELETE("/links/:id", linkHandler.DeleteLink)
	api.GET("/links/:id/analytics", linkHandler.GetAnalytics)

	// Parameterized route (must be last)
	e.GET("/:short_code", linkHandler.Redirect)

	log.Info().Str("address", cfg.Host+":"+cfg.Port).Msg("server starting")

	// Run server and handle graceful shutdown
	runServer(ctx, e, cfg.Port)

	return nil
}

func runServer(ctx context.Context, e *echo.Echo, port string) {
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- e.Start(":" + port)
	}()

	// Wait for context cancellation (Ctrl+C or SIGTERM)
	<-ctx.Done()

	log.Info().Msg("shutdown signal received, gracefully shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during graceful shutdown")
	}

	if err := <-serverErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("server error")
	}

	log.Info().Msg("server stopped")
}

func customErrorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	message := "internal server error"

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		code = httpErr.Code
		if msg, ok := httpErr.Message.(string); ok {
			message = msg
		}
	}

	logEvent := log.Error()
	if code < http.StatusInternalServerError {
		logEvent = log.Debug()
	}
	logEvent.
		Int("code", code).
		Str("method", c.Request().Method).
		Str("path", c.Request().URL.Path).
		Err(err).
		Msg("http error")

	if c.Response().Committed {
		return
	}

	c.JSON(code, map[string]any{
		"error": message,
	})
}
