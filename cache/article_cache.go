// Package cache keeps the sorted article list in Redis between ingestions.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sony/gobreaker"

	"github.com/marketpulse/backend/models"
)

const DefaultArticlesKey = "articles"

// BreakerConfig controls when a flapping Redis stops being consulted.
type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// ArticleCache is a JSON copy of the article list keyed by a generation counter.
// Calls fail fast with gobreaker.ErrOpenState while the breaker is open.
type ArticleCache struct {
	client  redis.Cmdable
	key     string
	ttl     time.Duration
	breaker *gobreaker.CircuitBreaker
}

func NewArticleCache(client redis.Cmdable, ttl time.Duration, cfg BreakerConfig) *ArticleCache {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "article-cache",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			slog.Warn("circuit breaker state changed",
				slog.String("circuit", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	})
	return &ArticleCache{client: client, key: DefaultArticlesKey, ttl: ttl, breaker: breaker}
}

// Get returns the list cached for the current generation. The generation is
// reported on a miss too, and must be handed back to Set.
func (c *ArticleCache) Get(ctx context.Context) ([]models.Article, int64, bool, error) {
	res, err := c.breaker.Execute(func() (interface{}, error) {
		version, err := c.client.Get(ctx, c.versionKey()).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return nil, err
		}
		data, err := c.client.Get(ctx, c.entryKey(version)).Bytes()
		if errors.Is(err, redis.Nil) {
			return entry{version: version}, nil
		}
		if err != nil {
			return nil, err
		}
		return entry{version: version, data: data}, nil
	})
	if err != nil {
		return nil, 0, false, err
	}
	e := res.(entry)
	if e.data == nil {
		return nil, e.version, false, nil
	}

	var articles []models.Article
	if err := json.Unmarshal(e.data, &articles); err != nil {
		return nil, e.version, false, fmt.Errorf("decode cached articles: %w", err)
	}
	return articles, e.version, true, nil
}

// Set stores articles under the generation they were read at. A list loaded
// before an Invalidate lands on a superseded generation and is never served.
func (c *ArticleCache) Set(ctx context.Context, version int64, articles []models.Article) error {
	articlesJSON, err := json.Marshal(articles)
	if err != nil {
		return fmt.Errorf("encode articles: %w", err)
	}
	_, err = c.breaker.Execute(func() (interface{}, error) {
		return nil, c.client.Set(ctx, c.entryKey(version), articlesJSON, c.ttl).Err()
	})
	return err
}

// Invalidate moves to a new generation; older entries expire on their TTL.
func (c *ArticleCache) Invalidate(ctx context.Context) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.client.Incr(ctx, c.versionKey()).Err()
	})
	return err
}

type entry struct {
	version int64
	data    []byte
}

func (c *ArticleCache) versionKey() string {
	return c.key + ":version"
}

func (c *ArticleCache) entryKey(version int64) string {
	return c.key + ":" + strconv.FormatInt(version, 10)
}

func (c *ArticleCache) State() gobreaker.State {
	return c.breaker.State()
}
