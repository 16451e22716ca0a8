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

	"github.com/marketpulse/backend/cache"
	"github.com/marketpulse/backend/config"
	"github.com/marketpulse/backend/controllers"
	"github.com/marketpulse/backend/logging"
	"github.com/marketpulse/backend/metrics"
	"github.com/marketpulse/backend/models"
	"github.com/marketpulse/backend/repository"
	"github.com/marketpulse/backend/router"
	"github.com/marketpulse/backend/services"
	"github.com/marketpulse/backend/subscriber"
)

func main() {
	if err := run(); err != nil {
		slog.Error("article service stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(config.ArticleService)
	if err != nil {
		return err
	}
	logger := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format).With(slog.String("service", cfg.App.Name))
	slog.SetDefault(logger)
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := config.OpenDB(cfg)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := config.Migrate(db, &models.Article{}); err != nil {
		return err
	}

	rdb, err := config.OpenRedis(ctx, cfg)
	if err != nil {
		return err
	}
	defer rdb.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	var articleCache services.ArticleCache
	if cfg.Cache.Enabled {
		articleCache = cache.NewArticleCache(rdb, cfg.Cache.TTL, cache.DefaultBreakerConfig())
	}
	articles := services.NewArticleService(repository.NewArticleRepository(db), articleCache, logger)

	pubsub, err := subscriber.Subscribe(ctx, rdb, cfg.Ingestion.Channel)
	if err != nil {
		return err
	}
	logger.Info("subscribed to article channel", slog.String("channel", cfg.Ingestion.Channel))
	listener := subscriber.NewListener(pubsub, articles, collector, logger)

	r := router.NewArticleRouter(router.Options{
		Logger:         logger,
		AllowedOrigins: cfg.AllowedOrigins(),
		TrustedProxies: cfg.TrustedProxies(),
		Metrics:        collector,
		ReadyChecks: []controllers.Check{
			{Name: "postgres", Ping: sqlDB.PingContext},
			{Name: "redis", Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }},
		},
	}, controllers.NewArticleController(articles))

	srv := &http.Server{
		Addr:              cfg.App.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return listener.Run(ctx)
	})
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
