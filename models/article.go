package models

import (
	"time"
)

const (
	MaxTitleLength   = 512
	MaxContentLength = 4000
	MaxSymbolLength  = 255
	MaxLabelLength   = 255
)

// Article is one ingested news item. The mixed JSON casing is what the frontend reads.
type Article struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Title          string     `gorm:"size:512;not null" json:"title"`
	Content        string     `gorm:"size:4000" json:"content"`
	Symbol         string     `gorm:"size:255;index" json:"symbol"`
	SentimentScore *int       `json:"sentiment_score"`
	SentimentLabel string     `gorm:"size:255" json:"sentimentLabel"`
	PublishedAt    *time.Time `gorm:"index" json:"publishedAt"`
	CreatedAt      time.Time  `json:"-"`
}
