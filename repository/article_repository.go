package repository

import (
	"context"
	"strings"

	"github.com/marketpulse/backend/models"
	"gorm.io/gorm"
)

type ArticleRepository interface {
	Create(ctx context.Context, article *models.Article) error
	List(ctx context.Context) ([]models.Article, error)
	Get(ctx context.Context, id uint) (*models.Article, error)
	ListBySymbol(ctx context.Context, symbol string) ([]models.Article, error)
}

type articleRepository struct {
	db *gorm.DB
}

func NewArticleRepository(db *gorm.DB) ArticleRepository {
	return &articleRepository{db: db}
}

func (r *articleRepository) Create(ctx context.Context, article *models.Article) error {
	return translate(r.db.WithContext(ctx).Create(article).Error)
}

func (r *articleRepository) List(ctx context.Context) ([]models.Article, error) {
	var articles []models.Article
	err := r.db.WithContext(ctx).
		Order("published_at DESC NULLS LAST").
		Order("id DESC").
		Find(&articles).Error
	if err != nil {
		return nil, translate(err)
	}
	return articles, nil
}

func (r *articleRepository) Get(ctx context.Context, id uint) (*models.Article, error) {
	var article models.Article
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&article).Error; err != nil {
		return nil, translate(err)
	}
	return &article, nil
}

func (r *articleRepository) ListBySymbol(ctx context.Context, symbol string) ([]models.Article, error) {
	var articles []models.Article
	err := r.db.WithContext(ctx).
		Where("UPPER(symbol) = ?", strings.ToUpper(symbol)).
		Order("published_at DESC NULLS LAST").
		Order("id DESC").
		Find(&articles).Error
	if err != nil {
		return nil, translate(err)
	}
	return articles, nil
}
