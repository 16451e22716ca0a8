package subscriber

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int { return &n }

func TestDecodeArticleEvent_FullPayload(t *testing.T) {
	payload := `{"title":"A","content":"B","symbol":"ACME","sentiment_score":5,"sentiment_label":"positive","published_at":"2024-01-01T00:00:00Z"}`

	article, err := DecodeArticleEvent([]byte(payload))
	require.NoError(t, err)

	assert.Equal(t, "A", article.Title)
	assert.Equal(t, "B", article.Content)
	assert.Equal(t, "ACME", article.Symbol)
	assert.Equal(t, intPtr(5), article.SentimentScore)
	assert.Equal(t, "positive", article.SentimentLabel)
	require.NotNil(t, article.PublishedAt)
	assert.True(t, article.PublishedAt.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, time.UTC, article.PublishedAt.Location())
}

func TestDecodeArticleEvent_SentimentScore(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want *int
	}{
		{name: "integer", raw: `7`, want: intPtr(7)},
		{name: "negative", raw: `-3`, want: intPtr(-3)},
		{name: "fraction truncated", raw: `4.9`, want: intPtr(4)},
		{name: "numeric string", raw: `"12"`, want: intPtr(12)},
		{name: "fractional string", raw: `"1.5"`, want: nil},
		{name: "word", raw: `"high"`, want: nil},
		{name: "null", raw: `null`, want: nil},
		{name: "object", raw: `{"v":1}`, want: nil},
		{name: "bool", raw: `true`, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			article, err := DecodeArticleEvent([]byte(`{"title":"t","sentiment_score":` + tt.raw + `}`))
			require.NoError(t, err)
			assert.Equal(t, tt.want, article.SentimentScore)
		})
	}

	t.Run("missing", func(t *testing.T) {
		article, err := DecodeArticleEvent([]byte(`{"title":"t"}`))
		require.NoError(t, err)
		assert.Nil(t, article.SentimentScore)
	})
}

func TestDecodeArticleEvent_PublishedAt(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want *time.Time
	}{
		{name: "utc", raw: `"2024-03-05T10:20:30Z"`, want: ptrTime(time.Date(2024, 3, 5, 10, 20, 30, 0, time.UTC))},
		{name: "fractional", raw: `"2024-03-05T10:20:30.123456Z"`, want: ptrTime(time.Date(2024, 3, 5, 10, 20, 30, 123456000, time.UTC))},
		{name: "offset normalized", raw: `"2024-03-05T12:20:30+02:00"`, want: ptrTime(time.Date(2024, 3, 5, 10, 20, 30, 0, time.UTC))},
		{name: "no offset", raw: `"2024-03-05T10:20:30"`, want: nil},
		{name: "no offset fractional", raw: `"2024-03-05T10:20:30.5"`, want: nil},
		{name: "embedded quotes", raw: `"\"2024-03-05T10:20:30Z\""`, want: ptrTime(time.Date(2024, 3, 5, 10, 20, 30, 0, time.UTC))},
		{name: "padded", raw: `"  2024-03-05T10:20:30Z "`, want: ptrTime(time.Date(2024, 3, 5, 10, 20, 30, 0, time.UTC))},
		{name: "blank", raw: `"   "`, want: nil},
		{name: "garbage", raw: `"yesterday"`, want: nil},
		{name: "date only", raw: `"2024-03-05"`, want: nil},
		{name: "number", raw: `1700000000`, want: nil},
		{name: "null", raw: `null`, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			article, err := DecodeArticleEvent([]byte(`{"title":"t","published_at":` + tt.raw + `}`))
			require.NoError(t, err, "an unusable published_at must not fail the message")
			if tt.want == nil {
				assert.Nil(t, article.PublishedAt)
				return
			}
			require.NotNil(t, article.PublishedAt)
			assert.True(t, tt.want.Equal(*article.PublishedAt), "got %s", article.PublishedAt)
		})
	}
}

func TestDecodeArticleEvent_TolerantStrings(t *testing.T) {
	payload := `{"title":"  Earnings beat  ","content":42,"symbol":null,"sentiment_label":{"x":1},"extra":"ignored"}`

	article, err := DecodeArticleEvent([]byte(payload))
	require.NoError(t, err)
	assert.Equal(t, "Earnings beat", article.Title)
	assert.Empty(t, article.Content)
	assert.Empty(t, article.Symbol)
	assert.Empty(t, article.SentimentLabel)
	assert.Nil(t, article.PublishedAt)
}

func TestDecodeArticleEvent_Truncation(t *testing.T) {
	longTitle := strings.Repeat("é", 600)
	longContent := strings.Repeat("x", 5000)

	article, err := DecodeArticleEvent([]byte(`{"title":"` + longTitle + `","content":"` + longContent + `"}`))
	require.NoError(t, err)
	assert.Equal(t, 512, len([]rune(article.Title)))
	assert.Equal(t, strings.Repeat("é", 512), article.Title)
	assert.Len(t, article.Content, 4000)
}

func TestDecodeArticleEvent_LongSymbolAndLabel(t *testing.T) {
	label := strings.Repeat("L", 40)
	symbol := strings.Repeat("S", 40)

	article, err := DecodeArticleEvent([]byte(`{"title":"t","symbol":"` + symbol + `","sentiment_label":"` + label + `"}`))
	require.NoError(t, err)
	assert.Equal(t, label, article.SentimentLabel)
	assert.Equal(t, symbol, article.Symbol)

	article, err = DecodeArticleEvent([]byte(`{"title":"t","symbol":"` + strings.Repeat("ü", 300) + `","sentiment_label":"` + strings.Repeat("x", 300) + `"}`))
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("ü", 255), article.Symbol)
	assert.Len(t, article.SentimentLabel, 255)
}

func TestDecodeArticleEvent_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantErr error
	}{
		{name: "not json", payload: `not json`, wantErr: ErrMalformedPayload},
		{name: "array", payload: `[{"title":"a"}]`, wantErr: ErrMalformedPayload},
		{name: "string", payload: `"title"`, wantErr: ErrMalformedPayload},
		{name: "null", payload: `null`, wantErr: ErrMalformedPayload},
		{name: "empty", payload: ``, wantErr: ErrMalformedPayload},
		{name: "missing title", payload: `{"content":"body"}`, wantErr: ErrMissingTitle},
		{name: "blank title", payload: `{"title":"   "}`, wantErr: ErrMissingTitle},
		{name: "numeric title", payload: `{"title":12}`, wantErr: ErrMissingTitle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			article, err := DecodeArticleEvent([]byte(tt.payload))
			assert.Nil(t, article)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func ptrTime(t time.Time) *time.Time { return &t }
