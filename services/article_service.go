package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"

	"github.com/marketpulse/backend/models"
	"github.com/marketpulse/backend/repository"
)

// ArticleCache holds the sorted article list between writes. Get reports the
// cache generation it read; Set must be given that generation so a list loaded
// before an Invalidate is never served after it.
type ArticleCache interface {
	Get(ctx context.Context) (articles []models.Article, version int64, ok bool, err error)
	Set(ctx context.Context, version int64, articles []models.Article) error
	Invalidate(ctx context.Context) error
}

type ArticleService struct {
	articles repository.ArticleRepository
	cache    ArticleCache
	logger   *slog.Logger

	// failedInvalidations counts saves whose invalidation has not reached the cache yet.
	failedInvalidations atomic.Uint64
}

// NewArticleService wires the store; cache may be nil.
func NewArticleService(articles repository.ArticleRepository, cache ArticleCache, logger *slog.Logger) *ArticleService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ArticleService{articles: articles, cache: cache, logger: logger}
}

// SaveArticle persists one ingested article and drops the cached list.
func (s *ArticleService) SaveArticle(ctx context.Context, article *models.Article) error {
	if err := s.articles.Create(ctx, article); err != nil {
		return fmt.Errorf("save article: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.failedInvalidations.Add(1)
			s.logger.Warn("article cache invalidation failed", slog.Any("error", err))
		}
	}
	return nil
}

// ListArticles returns every article, newest publishedAt first, undated last.
func (s *ArticleService) ListArticles(ctx context.Context) ([]models.Article, error) {
	useCache := s.cache != nil && s.cacheUsable(ctx)
	var version int64
	if useCache {
		cached, v, ok, err := s.cache.Get(ctx)
		switch {
		case err != nil:
			s.logger.Warn("article cache read failed", slog.Any("error", err))
			useCache = false
		case ok:
			return cached, nil
		default:
			version = v
		}
	}

	articles, err := s.articles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	if articles == nil {
		articles = []models.Article{}
	}
	SortArticles(articles)

	if useCache {
		if err := s.cache.Set(ctx, version, articles); err != nil {
			s.logger.Warn("article cache write failed", slog.Any("error", err))
		}
	}
	return articles, nil
}

// cacheUsable retries an invalidation that failed during SaveArticle. Until one
// succeeds with no newer failure in between, the cache is neither read nor written.
func (s *ArticleService) cacheUsable(ctx context.Context) bool {
	pending := s.failedInvalidations.Load()
	if pending == 0 {
		return true
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("article cache invalidation retry failed", slog.Any("error", err))
		return false
	}
	return s.failedInvalidations.CompareAndSwap(pending, 0)
}

func (s *ArticleService) GetArticle(ctx context.Context, id uint) (*models.Article, error) {
	article, err := s.articles.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrArticleNotFound
		}
		return nil, fmt.Errorf("get article: %w", err)
	}
	return article, nil
}

func (s *ArticleService) ListBySymbol(ctx context.Context, symbol string) ([]models.Article, error) {
	symbol = NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, ErrInvalidSymbol
	}
	articles, err := s.articles.ListBySymbol(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("list articles by symbol: %w", err)
	}
	if articles == nil {
		articles = []models.Article{}
	}
	SortArticles(articles)
	return articles, nil
}

// SortArticles orders by PublishedAt descending with nil treated as the earliest
// instant, then by ID descending so equal timestamps still have a fixed order.
func SortArticles(articles []models.Article) {
	sort.SliceStable(articles, func(i, j int) bool {
		a, b := articles[i].PublishedAt, articles[j].PublishedAt
		switch {
		case a == nil && b == nil:
			return articles[i].ID > articles[j].ID
		case a == nil:
			return false
		case b == nil:
			return true
		case a.Equal(*b):
			return articles[i].ID > articles[j].ID
		default:
			return a.After(*b)
		}
	})
}
