package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/marketpulse/backend/config"
	"github.com/marketpulse/backend/controllers"
	"github.com/marketpulse/backend/logging"
	"github.com/marketpulse/backend/metrics"
	"github.com/marketpulse/backend/middlewares"
	"github.com/marketpulse/backend/models"
	"github.com/marketpulse/backend/repository"
	"github.com/marketpulse/backend/router"
	"github.com/marketpulse/backend/services"
	"github.com/marketpulse/backend/utils"
)

func main() {
	if err := run(); err != nil {
		slog.Error("user service stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(config.UserService)
	if err != nil {
		return err
	}
	logger := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format).With(slog.String("service", cfg.App.Name))
	slog.SetDefault(logger)
	gin.SetMode(gin.ReleaseMode)

	if err := cfg.ValidateJWT(); err != nil {
		return err
	}

	db, err := config.OpenDB(cfg)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := config.Migrate(db, &models.User{}); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	tokens := utils.NewTokenManager(cfg.JWT.Secret, cfg.JWT.TTL)
	users := services.NewUserService(repository.NewUserRepository(db), tokens, logger)

	var limiter *middlewares.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middlewares.NewRateLimiter(middlewares.RateLimiterConfig{
			RPS:   cfg.RateLimit.RPS,
			Burst: cfg.RateLimit.Burst,
		})
		defer limiter.Stop()
	}

	r := router.NewUserRouter(router.Options{
		Logger:         logger,
		AllowedOrigins: cfg.AllowedOrigins(),
		TrustedProxies: cfg.TrustedProxies(),
		Metrics:        collector,
		RateLimiter:    limiter,
		ReadyChecks: []controllers.Check{
			{Name: "postgres", Ping: sqlDB.PingContext},
		},
	}, controllers.NewAuthController(users), tokens)

	srv := &http.Server{
		Addr:              cfg.App.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
