package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/tavi/preauth/internal/config"
	"github.com/tavi/preauth/internal/domain/application"
	"github.com/tavi/preauth/internal/domain/casefile"
	"github.com/tavi/preauth/internal/domain/summary"
	"github.com/tavi/preauth/internal/platform/auth"
	"github.com/tavi/preauth/internal/platform/db"
	"github.com/tavi/preauth/internal/platform/llm"
	"github.com/tavi/preauth/internal/platform/middleware"
)

// services are the domain services behind /api/v1.
type services struct {
	cases        *casefile.Service
	summaries    *summary.Service
	applications *application.Service
}

func newServices(repo casefile.CaseRepository, progress casefile.ProgressStore, inTx casefile.TxRunner, completer summary.Completer, logger zerolog.Logger) *services {
	cases := casefile.NewService(repo, progress, inTx, logger.With().Str("service", "casefile").Logger())
	summaries := summary.NewService(completer, cases, logger.With().Str("service", "summary").Logger())
	return &services{
		cases:        cases,
		summaries:    summaries,
		applications: application.NewService(cases, summaries, logger.With().Str("service", "application").Logger()),
	}
}

// newServer builds the echo instance with the global middleware chain and
// all routes. /health/db is only served when dbHealth is set.
func newServer(cfg *config.Config, logger zerolog.Logger, svc *services, dbHealth echo.HandlerFunc) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:  cfg.CORSOrigins,
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders:  []string{echo.HeaderAuthorization, echo.HeaderContentType, middleware.RequestIDHeader, casefile.HeaderIfMatch},
		ExposeHeaders: []string{echo.HeaderContentDisposition, application.HeaderSections, application.HeaderDegradations, casefile.HeaderETag},
	}))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			JWKSURL:    cfg.AuthJWKSURL,
			SigningKey: []byte(cfg.AuthSigningKey),
			Skipper:    auth.AuthSkipper,
		}))
	}

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	if dbHealth != nil {
		e.GET("/health/db", dbHealth)
	}

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 || rateLimitCfg.BurstSize <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1 := e.Group("/api/v1", middleware.RateLimit(rateLimitCfg))

	casefile.NewHandler(svc.cases).RegisterRoutes(apiV1)
	summary.NewHandler(svc.summaries).RegisterRoutes(apiV1)
	application.NewHandler(svc.applications).RegisterRoutes(apiV1)

	return e
}

func newProgressStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (casefile.ProgressStore, func(), error) {
	if cfg.RedisURL == "" {
		logger.Warn().Msg("REDIS_URL not set, wizard progress is kept in memory")
		return casefile.NewMemoryProgressStore(), func() {}, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}
	logger.Info().Str("addr", opts.Addr).Msg("connected to redis")
	return casefile.NewRedisProgressStore(client, cfg.ProgressTTL), func() { client.Close() }, nil
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Env)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	if cfg.IsDev() {
		logger.Warn().Msg("development mode: DevAuthMiddleware is active and every request is treated as admin")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	progress, closeProgress, err := newProgressStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to set up progress store")
	}
	defer closeProgress()

	completer := llm.NewClient(llm.Config{
		APIKey:    cfg.AnthropicAPIKey,
		BaseURL:   cfg.AnthropicBaseURL,
		Model:     cfg.AnthropicModel,
		MaxTokens: cfg.SummaryMaxTokens,
		Timeout:   cfg.LLMTimeout,
	}, logger)
	if !cfg.SummaryEnabled() {
		logger.Warn().Msg("ANTHROPIC_API_KEY not set, summary generation will fail with 502")
	}

	svc := newServices(casefile.NewCaseRepoPG(pool), progress, casefile.PoolTx(pool), completer, logger)
	e := newServer(cfg, logger, svc, db.HealthHandler(pool))

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("model", completer.Model()).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout+5*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
