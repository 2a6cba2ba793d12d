package news

import (
	"errors"
	"time"

	"github.com/tradesense/tradesense-api/internal/types"
	"gorm.io/gorm"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

func (d *Database) CreateArticle(article *types.NewsArticle) error {
	return d.db.Create(article).Error
}

func (d *Database) GetArticle(articleID string) (*types.NewsArticle, error) {
	var article types.NewsArticle
	if err := d.db.Where("article_id = ?", articleID).First(&article).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &article, nil
}

func (d *Database) ListArticles(category string, limit, offset int) ([]types.NewsArticle, error) {
	query := d.db.Model(&types.NewsArticle{})
	if category != "" {
		query = query.Where("category = ?", category)
	}

	var articles []types.NewsArticle
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&articles).Error; err != nil {
		return nil, err
	}
	return articles, nil
}

func (d *Database) ListArticlesSince(since time.Time, limit int) ([]types.NewsArticle, error) {
	var articles []types.NewsArticle
	if err := d.db.Where("created_at >= ?", since).
		Order("created_at DESC").
		Limit(limit).
		Find(&articles).Error; err != nil {
		return nil, err
	}
	return articles, nil
}

func (d *Database) DeleteArticle(article *types.NewsArticle) error {
	return d.db.Delete(article).Error
}
