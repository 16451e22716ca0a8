package subscriber

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-redis/redis/v8"

	"github.com/marketpulse/backend/metrics"
	"github.com/marketpulse/backend/models"
)

var ErrSubscriptionClosed = errors.New("subscription channel closed")

// Subscription is the part of *redis.PubSub the listener consumes.
type Subscription interface {
	Channel(opts ...redis.ChannelOption) <-chan *redis.Message
	Close() error
}

type ArticleSaver interface {
	SaveArticle(ctx context.Context, article *models.Article) error
}

// Recorder is satisfied by *metrics.Collector.
type Recorder interface {
	RecordMessageReceived()
	RecordArticleStored()
	RecordMessageDropped(reason string)
}

type Listener struct {
	sub     Subscription
	saver   ArticleSaver
	metrics Recorder
	logger  *slog.Logger
}

// NewListener builds a listener over an open subscription; rec may be nil.
func NewListener(sub Subscription, saver ArticleSaver, rec Recorder, logger *slog.Logger) *Listener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Listener{sub: sub, saver: saver, metrics: rec, logger: logger}
}

// Subscribe opens a subscription on channel and waits for Redis to confirm it,
// so nothing published after it returns is missed.
func Subscribe(ctx context.Context, client *redis.Client, channel string) (*redis.PubSub, error) {
	pubsub := client.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", channel, err)
	}
	return pubsub, nil
}

// Run handles messages one at a time until ctx is cancelled or the
// subscription closes. The subscription is closed on return.
func (l *Listener) Run(ctx context.Context) error {
	defer func() {
		if err := l.sub.Close(); err != nil {
			l.logger.Warn("closing article subscription failed", slog.Any("error", err))
		}
	}()

	messages := l.sub.Channel()
	l.logger.Info("article listener started")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("article listener stopped")
			return nil
		case msg, ok := <-messages:
			if !ok {
				return ErrSubscriptionClosed
			}
			_ = l.Handle(ctx, []byte(msg.Payload))
		}
	}
}

// Handle stores a single payload. Errors are logged and returned for the caller's
// benefit only; Run keeps consuming regardless.
func (l *Listener) Handle(ctx context.Context, payload []byte) error {
	l.record(func(r Recorder) { r.RecordMessageReceived() })

	article, err := decodeArticleEvent(payload, l.logger)
	if err != nil {
		reason := metrics.ReasonInvalid
		if errors.Is(err, ErrMalformedPayload) {
			reason = metrics.ReasonMalformed
		}
		l.record(func(r Recorder) { r.RecordMessageDropped(reason) })
		l.logger.Warn("dropping article event",
			slog.String("reason", reason),
			slog.Any("error", err),
			slog.Int("bytes", len(payload)),
		)
		return err
	}

	if err := l.saver.SaveArticle(ctx, article); err != nil {
		l.record(func(r Recorder) { r.RecordMessageDropped(metrics.ReasonStorage) })
		l.logger.Warn("dropping article event",
			slog.String("reason", metrics.ReasonStorage),
			slog.String("title", article.Title),
			slog.Any("error", err),
		)
		return err
	}

	l.record(func(r Recorder) { r.RecordArticleStored() })
	l.logger.Info("article stored",
		slog.Uint64("id", uint64(article.ID)),
		slog.String("symbol", article.Symbol),
	)
	return nil
}

func (l *Listener) record(fn func(Recorder)) {
	if l.metrics != nil {
		fn(l.metrics)
	}
}
