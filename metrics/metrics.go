// Package metrics exposes Prometheus collectors for ingestion and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Drop reasons recorded by the ingestion listener.
const (
	ReasonMalformed = "malformed"
	ReasonInvalid   = "invalid"
	ReasonStorage   = "storage"
)

type Collector struct {
	messagesReceived prometheus.Counter
	articlesStored   prometheus.Counter
	messagesDropped  *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	gatherer         prometheus.Gatherer
}

// NewCollector registers every collector on reg. Use prometheus.NewRegistry in tests.
func NewCollector(reg *prometheus.Registry) *Collector {
	c := &Collector{
		messagesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marketpulse_ingest_messages_received_total",
			Help: "Messages received on the article channel.",
		}),
		articlesStored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marketpulse_ingest_articles_stored_total",
			Help: "Articles persisted by the ingestion listener.",
		}),
		messagesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketpulse_ingest_messages_dropped_total",
			Help: "Messages dropped by the ingestion listener, by reason.",
		}, []string{"reason"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketpulse_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "marketpulse_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		gatherer: reg,
	}

	reg.MustRegister(
		c.messagesReceived,
		c.articlesStored,
		c.messagesDropped,
		c.httpRequests,
		c.httpDuration,
	)
	return c
}

func (c *Collector) RecordMessageReceived() {
	c.messagesReceived.Inc()
}

func (c *Collector) RecordArticleStored() {
	c.articlesStored.Inc()
}

func (c *Collector) RecordMessageDropped(reason string) {
	c.messagesDropped.WithLabelValues(reason).Inc()
}

func (c *Collector) RecordHTTPRequest(route, method string, status int, duration time.Duration) {
	c.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// Handler serves the registry this collector was built on.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}
