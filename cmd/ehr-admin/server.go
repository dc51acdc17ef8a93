package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/ehr/admin/internal/config"
	"github.com/ehr/admin/internal/domain/access"
	"github.com/ehr/admin/internal/domain/admin"
	"github.com/ehr/admin/internal/domain/billing"
	"github.com/ehr/admin/internal/domain/compliance"
	"github.com/ehr/admin/internal/domain/identity"
	"github.com/ehr/admin/internal/domain/notification"
	"github.com/ehr/admin/internal/domain/pharmacy"
	"github.com/ehr/admin/internal/domain/scheduling"
	"github.com/ehr/admin/internal/platform/apperr"
	"github.com/ehr/admin/internal/platform/audit"
	"github.com/ehr/admin/internal/platform/auth"
	"github.com/ehr/admin/internal/platform/db"
	"github.com/ehr/admin/internal/platform/middleware"
	"github.com/ehr/admin/internal/platform/telemetry"
	"github.com/ehr/admin/internal/platform/websocket"
)

// deps are the process-wide collaborators shared by every domain.
type deps struct {
	logger  zerolog.Logger
	cfg     *config.Config
	pool    *pgxpool.Pool
	tx      db.TxRunner
	sink    audit.Sink
	limiter middleware.Limiter
	hub     *websocket.Hub
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	if cfg.MetricsEnabled {
		telemetry.StartDBStatsCollector(ctx, pool, 15*time.Second)
	}

	// Audit rows are written inside the caller's transaction; NATS is a
	// best-effort fan-out after that.
	var sink audit.Sink = audit.NewPGSink(pool)
	if cfg.NATSURL != "" {
		nc, err := audit.ConnectNATS(cfg.NATSURL, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to nats")
		}
		defer nc.Drain() //nolint:errcheck
		sink = audit.NewMulti(logger, sink, audit.NewNATSSink(nc, logger))
		logger.Info().Msg("audit fan-out to nats enabled")
	}

	rateCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	var limiter middleware.Limiter = middleware.NewMemoryLimiter(rateCfg)
	if cfg.RedisURL != "" {
		rdb, err := middleware.NewRedisClient(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to configure redis")
		}
		defer rdb.Close() //nolint:errcheck
		limiter = middleware.NewRedisLimiter(rdb, rateCfg, logger)
	}
	logger.Info().Str("backend", limiter.Backend()).Msg("rate limiter ready")

	e := newServer(deps{
		logger:  logger,
		cfg:     cfg,
		pool:    pool,
		tx:      db.NewTxRunner(pool),
		sink:    sink,
		limiter: limiter,
		hub:     websocket.NewHub(logger),
	})

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Bool("tls", cfg.TLSEnabled).Msg("starting server")
		var err error
		if cfg.TLSEnabled {
			err = e.StartTLS(addr, cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = e.Start(addr)
		}
		if err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

func newServer(d deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = apperr.HTTPErrorHandler(d.logger)

	e.Use(middleware.Recovery(d.logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(d.logger))
	e.Use(middleware.SecurityHeaders())
	if d.cfg.MetricsEnabled {
		e.Use(middleware.Metrics())
	}
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: d.cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/health/db", db.HealthHandler(d.pool, db.Stats(d.pool)))
	if d.cfg.MetricsEnabled {
		e.GET("/metrics", telemetry.Handler())
	}

	jwtCfg := auth.JWTConfig{
		Issuer:     d.cfg.AuthIssuer,
		Audience:   d.cfg.AuthAudience,
		JWKSURL:    d.cfg.AuthJWKSURL,
		SigningKey: []byte(d.cfg.AuthSigningKey),
	}
	authMW := auth.JWTMiddleware(jwtCfg)
	if d.cfg.IsDev() {
		authMW = auth.DevAuthMiddleware(jwtCfg)
	}

	apiV1 := e.Group("/api/v1", authMW, middleware.AccessAudit(d.logger))
	apiV1.Use(middleware.RateLimitWith(d.limiter, middleware.RateLimitConfig{
		RequestsPerSecond: d.cfg.RateLimitRPS,
		BurstSize:         d.cfg.RateLimitBurst,
	}))

	registerDomains(apiV1, d)
	return e
}

func registerDomains(api *echo.Group, d deps) {
	adminSvc := admin.NewService(
		admin.NewOrganizationRepo(d.pool),
		admin.NewDepartmentRepo(d.pool),
		admin.NewLocaleSettingRepo(d.pool),
		d.tx, d.sink,
	)
	admin.NewHandler(adminSvc).RegisterRoutes(api)

	identitySvc := identity.NewService(identity.NewPatientRepo(d.pool), d.tx, d.sink)
	identity.NewHandler(identitySvc).RegisterRoutes(api)

	schedulingSvc := scheduling.NewService(scheduling.NewAppointmentRepo(d.pool), d.tx, d.sink)
	scheduling.NewHandler(schedulingSvc).RegisterRoutes(api)

	billingSvc := billing.NewService(
		billing.NewBillingCodeRepo(d.pool),
		billing.NewBillingItemRepo(d.pool),
		d.tx, d.sink,
	)
	billing.NewHandler(billingSvc).RegisterRoutes(api)

	complianceSvc := compliance.NewService(
		compliance.NewLegalHoldRepo(d.pool),
		compliance.NewComplianceReviewRepo(d.pool),
		compliance.NewAuditLogRepo(d.pool),
		d.tx, d.sink,
	)
	compliance.NewHandler(complianceSvc).RegisterRoutes(api)

	notificationSvc := notification.NewService(notification.NewNotificationRepo(d.pool), d.tx, d.hub)
	stream := websocket.NewHandler(d.hub, d.cfg.CORSOrigins)
	notification.NewHandler(notificationSvc, stream.Stream).RegisterRoutes(api)

	accessSvc := access.NewService(
		access.NewRoleRepo(d.pool),
		access.NewRoleAssignmentRepo(d.pool),
		access.NewMFAFactorRepo(d.pool),
		d.tx, d.sink,
	)
	access.NewHandler(accessSvc).RegisterRoutes(api)

	pharmacySvc := pharmacy.NewService(pharmacy.NewPharmacyIntegrationRepo(d.pool), d.tx, d.sink)
	pharmacy.NewHandler(pharmacySvc).RegisterRoutes(api)
}
