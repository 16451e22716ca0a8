// Package subscriber turns article events published on Redis into stored articles.
package subscriber

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/marketpulse/backend/models"
)

var (
	ErrMalformedPayload = errors.New("payload is not a JSON object")
	ErrMissingTitle     = errors.New("article title is empty")
)

// Instants only: a timestamp without a zone offset is not accepted.
var publishedAtLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
}

// DecodeArticleEvent reads one ingestion message. Fields of an unexpected shape
// fall back to their zero value instead of failing the whole message.
func DecodeArticleEvent(payload []byte) (*models.Article, error) {
	return decodeArticleEvent(payload, slog.Default())
}

func decodeArticleEvent(payload []byte, logger *slog.Logger) (*models.Article, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil || fields == nil {
		return nil, ErrMalformedPayload
	}

	article := &models.Article{
		Title:          truncate(strings.TrimSpace(stringField(fields, "title")), models.MaxTitleLength),
		Content:        truncate(strings.TrimSpace(stringField(fields, "content")), models.MaxContentLength),
		Symbol:         truncate(strings.TrimSpace(stringField(fields, "symbol")), models.MaxSymbolLength),
		SentimentScore: intField(fields, "sentiment_score"),
		SentimentLabel: truncate(strings.TrimSpace(stringField(fields, "sentiment_label")), models.MaxLabelLength),
	}

	rawPublishedAt := stringField(fields, "published_at")
	article.PublishedAt = parsePublishedAt(rawPublishedAt)
	if article.PublishedAt == nil && strings.Trim(rawPublishedAt, "\" \t\r\n") != "" {
		logger.Debug("ignoring unparsable published_at", slog.String("published_at", rawPublishedAt))
	}
	if article.Title == "" {
		return nil, ErrMissingTitle
	}
	return article, nil
}

func stringField(fields map[string]json.RawMessage, key string) string {
	raw, ok := fields[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// intField accepts a JSON number (fraction dropped) or a string holding an integer.
func intField(fields map[string]json.RawMessage, key string) *int {
	raw := bytes.TrimSpace(fields[key])
	if len(raw) == 0 {
		return nil
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return nil
		}
		return &n
	}

	var num json.Number
	if err := json.Unmarshal(raw, &num); err != nil {
		return nil
	}
	if i, err := num.Int64(); err == nil && i >= math.MinInt && i <= math.MaxInt {
		n := int(i)
		return &n
	}
	f, err := num.Float64()
	if err != nil || math.IsNaN(f) || f > math.MaxInt || f < math.MinInt {
		return nil
	}
	n := int(f)
	return &n
}

func parsePublishedAt(value string) *time.Time {
	value = strings.TrimSpace(strings.ReplaceAll(value, `"`, ""))
	if value == "" {
		return nil
	}
	for _, layout := range publishedAtLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// truncate cuts text to at most maxLen runes without splitting a code point.
func truncate(text string, maxLen int) string {
	if utf8.RuneCountInString(text) <= maxLen {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxLen])
}
