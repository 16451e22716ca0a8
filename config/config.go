package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	UserService    = "user-service"
	ArticleService = "article-service"

	DefaultArticleChannel = "marketpulse-articles"
	DefaultAllowedOrigins = "http://localhost:3000,http://localhost:3001,http://127.0.0.1:3000,http://127.0.0.1:3001"
)

type Config struct {
	App struct {
		Name           string `mapstructure:"name"`
		Port           string `mapstructure:"port"`
		TrustedProxies string `mapstructure:"trusted_proxies"`
	} `mapstructure:"app"`
	Database struct {
		Host         string `mapstructure:"host"`
		Port         string `mapstructure:"port"`
		User         string `mapstructure:"user"`
		Password     string `mapstructure:"password"`
		Name         string `mapstructure:"name"`
		Sslmode      string `mapstructure:"sslmode"`
		Timezone     string `mapstructure:"timezone"`
		MaxIdleConns int    `mapstructure:"max_idle_conns"`
		MaxOpenConns int    `mapstructure:"max_open_conns"`
	} `mapstructure:"database"`
	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`
	JWT struct {
		Secret string        `mapstructure:"secret"`
		TTL    time.Duration `mapstructure:"ttl"`
	} `mapstructure:"jwt"`
	CORS struct {
		AllowedOrigins string `mapstructure:"allowed_origins"`
	} `mapstructure:"cors"`
	Ingestion struct {
		Channel string `mapstructure:"channel"`
	} `mapstructure:"ingestion"`
	Cache struct {
		Enabled bool          `mapstructure:"enabled"`
		TTL     time.Duration `mapstructure:"ttl"`
	} `mapstructure:"cache"`
	RateLimit struct {
		Enabled bool    `mapstructure:"enabled"`
		RPS     float64 `mapstructure:"rps"`
		Burst   int     `mapstructure:"burst"`
	} `mapstructure:"ratelimit"`
	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`
}

// Load reads config/<service>.yaml when present and applies MARKETPULSE_* environment
// overrides on top of the defaults.
func Load(service string, paths ...string) (*Config, error) {
	v := viper.New()
	setDefaults(v, service)

	v.SetConfigName(service)
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"./config", "."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix("MARKETPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, service string) {
	port := ":8083"
	if service == UserService {
		port = ":8082"
	}
	v.SetDefault("app.name", service)
	v.SetDefault("app.port", port)
	v.SetDefault("app.trusted_proxies", "")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.name", "marketpulse")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.timezone", "UTC")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 50)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.ttl", 24*time.Hour)

	v.SetDefault("cors.allowed_origins", DefaultAllowedOrigins)
	v.SetDefault("ingestion.channel", DefaultArticleChannel)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", 10*time.Minute)

	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.rps", 1.0)
	v.SetDefault("ratelimit.burst", 10)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// ValidateJWT rejects secrets an HS256 signer should not run with.
func (c *Config) ValidateJWT() error {
	secret := c.JWT.Secret
	if secret == "" {
		return errors.New("jwt.secret must be set")
	}
	if len(secret) < 32 {
		return errors.New("jwt.secret must be at least 32 characters")
	}
	if c.JWT.TTL <= 0 {
		return errors.New("jwt.ttl must be positive")
	}
	return nil
}

// AllowedOrigins splits the configured origin list on commas and newlines.
func (c *Config) AllowedOrigins() []string {
	return ParseOrigins(c.CORS.AllowedOrigins)
}

// TrustedProxies lists the proxy addresses or CIDRs whose X-Forwarded-For is
// believed. Empty means client IPs always come from the TCP peer.
func (c *Config) TrustedProxies() []string {
	return splitList(c.App.TrustedProxies)
}

func ParseOrigins(raw string) []string {
	return splitList(raw)
}

func splitList(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == '\n' || r == '\r'
	})
	origins := make([]string, 0, len(fields))
	for _, f := range fields {
		if trimmed := strings.TrimSpace(f); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
