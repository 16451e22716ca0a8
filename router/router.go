package router

import (
	"log/slog"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/marketpulse/backend/controllers"
	"github.com/marketpulse/backend/metrics"
	"github.com/marketpulse/backend/middlewares"
)

const readinessTimeout = 2 * time.Second

// Options carries what both services share. Metrics and RateLimiter may be nil;
// the rate limiter only guards register and login.
type Options struct {
	Logger         *slog.Logger
	AllowedOrigins []string
	Metrics        *metrics.Collector
	RateLimiter    *middlewares.RateLimiter
	ReadyChecks    []controllers.Check
	// TrustedProxies may set X-Forwarded-For; with none, the TCP peer is the client IP.
	TrustedProxies []string
}

func NewUserRouter(opts Options, auth *controllers.AuthController, tokens middlewares.TokenParser) *gin.Engine {
	r := newEngine(opts)

	public := r.Group("/api/auth")
	{
		public.GET("/health", controllers.Health)

		limited := public.Group("")
		if opts.RateLimiter != nil {
			limited.Use(opts.RateLimiter.Middleware())
		}
		limited.POST("/register", auth.Register)
		limited.POST("/login", auth.Login)
	}

	private := r.Group("/api/auth")
	private.Use(middlewares.AuthMiddleware(tokens))
	{
		private.GET("/profile", auth.GetProfile)
		private.PUT("/profile", auth.UpdateProfile)
		private.GET("/watchlist", auth.GetWatchlist)
		private.POST("/watchlist", auth.AddToWatchlist)
		private.DELETE("/watchlist/:symbol", auth.RemoveFromWatchlist)
	}

	return r
}

func NewArticleRouter(opts Options, articles *controllers.ArticleController) *gin.Engine {
	r := newEngine(opts)

	api := r.Group("/api/articles")
	{
		api.GET("", articles.GetArticles)
		api.GET("/health", controllers.Health)
		api.GET("/:id", articles.GetArticleByID)
		api.GET("/symbol/:symbol", articles.GetArticlesBySymbol)
	}

	return r
}

func newEngine(opts Options) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := gin.New()
	if err := r.SetTrustedProxies(opts.TrustedProxies); err != nil {
		logger.Warn("ignoring invalid trusted proxies", slog.Any("error", err))
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(gin.Recovery(), middlewares.RequestLogger(logger))
	if opts.Metrics != nil {
		r.Use(middlewares.HTTPMetrics(opts.Metrics))
	}
	r.Use(cors.New(corsConfig(opts.AllowedOrigins)))

	r.GET("/readyz", controllers.Readiness(readinessTimeout, opts.ReadyChecks...))
	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}
	return r
}

// corsConfig allows every origin without credentials when the list is empty or a lone "*".
func corsConfig(allowedOrigins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middlewares.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middlewares.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) == 0 || (len(allowedOrigins) == 1 && allowedOrigins[0] == "*") {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
		return cfg
	}
	cfg.AllowOrigins = allowedOrigins
	return cfg
}
