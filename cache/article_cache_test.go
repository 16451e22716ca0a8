package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketpulse/backend/models"
)

func newTestCache(t *testing.T, cfg BreakerConfig) (*ArticleCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr:        mr.Addr(),
		MaxRetries:  -1,
		DialTimeout: 200 * time.Millisecond,
	})
	t.Cleanup(func() { _ = client.Close() })
	return NewArticleCache(client, 10*time.Minute, cfg), mr
}

func TestArticleCache_MissSetGet(t *testing.T) {
	c, mr := newTestCache(t, DefaultBreakerConfig())
	ctx := context.Background()

	_, version, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, version)

	score := 5
	published := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	want := []models.Article{{
		ID: 1, Title: "A", Content: "B", Symbol: "ACME",
		SentimentScore: &score, SentimentLabel: "positive", PublishedAt: &published,
	}}
	require.NoError(t, c.Set(ctx, version, want))
	assert.Equal(t, 10*time.Minute, mr.TTL("articles:0"))

	got, _, ok, err := c.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0].Title)
	assert.Equal(t, 5, *got[0].SentimentScore)
	assert.True(t, published.Equal(*got[0].PublishedAt))
}

func TestArticleCache_InvalidateStartsNewGeneration(t *testing.T) {
	c, mr := newTestCache(t, DefaultBreakerConfig())
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, 0, []models.Article{{ID: 1, Title: "A"}}))
	require.NoError(t, c.Invalidate(ctx))

	v, err := mr.Get("articles:version")
	require.NoError(t, err)
	assert.Equal(t, "1", v)

	_, version, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, int64(1), version)
}

func TestArticleCache_SetOnSupersededGenerationIsNotServed(t *testing.T) {
	c, _ := newTestCache(t, DefaultBreakerConfig())
	ctx := context.Background()

	_, readAt, _, err := c.Get(ctx)
	require.NoError(t, err)

	require.NoError(t, c.Invalidate(ctx))
	require.NoError(t, c.Set(ctx, readAt, []models.Article{}))

	_, _, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestArticleCache_Expires(t *testing.T) {
	c, mr := newTestCache(t, DefaultBreakerConfig())
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, 0, []models.Article{{ID: 1, Title: "A"}}))
	mr.FastForward(11 * time.Minute)

	_, _, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestArticleCache_CorruptEntry(t *testing.T) {
	c, mr := newTestCache(t, DefaultBreakerConfig())
	require.NoError(t, mr.Set("articles:0", "not json"))

	_, _, ok, err := c.Get(context.Background())
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestArticleCache_BreakerOpensWhenRedisDown(t *testing.T) {
	c, mr := newTestCache(t, BreakerConfig{
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		FailureThreshold: 0.5,
		MinRequests:      2,
	})
	ctx := context.Background()
	mr.Close()

	for i := 0; i < 2; i++ {
		_, _, _, err := c.Get(ctx)
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, c.State())

	_, _, _, err := c.Get(ctx)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)

	assert.ErrorIs(t, c.Invalidate(ctx), gobreaker.ErrOpenState)
}
