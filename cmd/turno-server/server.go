package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/turnoapp/turno/internal/config"
	"github.com/turnoapp/turno/internal/domain/booking"
	"github.com/turnoapp/turno/internal/domain/calendar"
	"github.com/turnoapp/turno/internal/domain/identity"
	"github.com/turnoapp/turno/internal/domain/offering"
	"github.com/turnoapp/turno/internal/domain/schedule"
	"github.com/turnoapp/turno/internal/platform/auth"
	"github.com/turnoapp/turno/internal/platform/db"
	"github.com/turnoapp/turno/internal/platform/middleware"
	"github.com/turnoapp/turno/internal/platform/webhook"
)

const version = "0.1.0"

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg.IsDev() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func authMiddleware(cfg *config.Config, logger zerolog.Logger) echo.MiddlewareFunc {
	switch cfg.ResolvedAuthMode() {
	case "development":
		logger.Warn().Msg("development auth enabled: requests act as admin unless X-User-ID/X-User-Role are set")
		return auth.DevAuthMiddleware()
	case "external":
		return auth.JWTMiddleware(auth.JWTConfig{
			Issuer:   cfg.AuthIssuer,
			Audience: cfg.AuthAudience,
			JWKSURL:  cfg.AuthJWKSURL,
			Skipper:  auth.AuthSkipper,
		})
	default:
		return auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			SigningKey: []byte(cfg.JWTSigningKey),
			Skipper:    auth.AuthSkipper,
		})
	}
}

// newEcho builds the server with the global middleware chain and returns
// the /api/v1 group, rate limited.
func newEcho(cfg *config.Config, logger zerolog.Logger) (*echo.Echo, *echo.Group) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader, "X-User-ID", "X-User-Role"},
	}))
	e.Use(echomw.Secure())
	e.Use(echomw.BodyLimit("1M"))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	e.Use(authMiddleware(cfg, logger))
	e.Use(middleware.Audit(logger))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "version": version})
	})

	api := e.Group("/api/v1")
	api.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
		IdleTTL:           middleware.DefaultRateLimitConfig().IdleTTL,
	}))
	return e, api
}

// registerDomains wires repositories, services and handlers onto api.
func registerDomains(api *echo.Group, pool *pgxpool.Pool, cfg *config.Config, loc *time.Location, logger zerolog.Logger, bookingOpts ...booking.Option) {
	locker := db.NewTxLocker(pool)

	identitySvc := identity.NewService(identity.NewProfessionalRepoPG(pool), identity.NewClientRepoPG(pool), logger)
	offeringSvc := offering.NewService(offering.NewRepoPG(pool), identitySvc, logger)

	scheduleRepo := schedule.NewRepoPG(pool)
	scheduleSvc := schedule.NewService(scheduleRepo, identitySvc, locker, logger)

	bookingSvc := booking.NewService(booking.NewAppointmentRepoPG(pool), scheduleRepo, offeringSvc, identitySvc,
		locker, logger, append([]booking.Option{booking.WithLocation(loc)}, bookingOpts...)...)

	exporter := calendar.NewExporter(scheduleRepo, bookingSvc, identitySvc, loc, calendar.DefaultHorizonDays, logger)

	identity.NewHandler(identitySvc).RegisterRoutes(api)
	offering.NewHandler(offeringSvc).RegisterRoutes(api)
	schedule.NewHandler(scheduleSvc).RegisterRoutes(api)
	booking.NewHandler(bookingSvc, cfg.AvailabilityMaxDays).RegisterRoutes(api)
	calendar.NewHandler(exporter).RegisterRoutes(api)
}

// startWebhooks starts the event dispatcher when WEBHOOK_URL is configured.
// The returned stop func is always safe to call.
func startWebhooks(ctx context.Context, cfg *config.Config, logger zerolog.Logger) ([]booking.Option, func(), error) {
	if cfg.WebhookURL == "" {
		return nil, func() {}, nil
	}
	d, err := webhook.NewDispatcher(cfg.WebhookURL, cfg.WebhookSecret, logger.With().Str("component", "webhook").Logger())
	if err != nil {
		return nil, nil, err
	}
	go d.Run(ctx)
	logger.Info().Msg("webhook delivery enabled")
	return []booking.Option{booking.WithPublisher(d)}, d.Close, nil
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}
	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid timezone")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns, cfg.Timezone)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Str("timezone", loc.String()).Msg("connected to database")

	hookOpts, stopHooks, err := startWebhooks(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid webhook config")
	}
	defer stopHooks()

	e, api := newEcho(cfg, logger)
	e.GET("/health/db", db.HealthHandler(pool, func() *db.PoolStats { return db.GetPoolStats(pool) }))
	registerDomains(api, pool, cfg, loc, logger, hookOpts...)

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("auth_mode", cfg.ResolvedAuthMode()).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}
