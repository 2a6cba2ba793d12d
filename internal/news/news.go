package news

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tradesense/tradesense-api/internal/types"
	"github.com/tradesense/tradesense-api/pkg/response"
	"gorm.io/gorm"
)

var ErrArticleNotFound = errors.New("article not found")

const (
	defaultPageLimit = 20
	trendingLimit    = 10
	trendingWindow   = 24 * time.Hour
)

// CreateArticleRequest is the payload for publishing an article
type CreateArticleRequest struct {
	Title       string `json:"title" binding:"required"`
	Summary     string `json:"summary" binding:"required"`
	Source      string `json:"source"`
	Category    string `json:"category"` // market, crypto, morocco, global
	ImageURL    string `json:"image_url"`
	ExternalURL string `json:"external_url"`
}

// Service handles news article operations
type Service struct {
	db *Database
}

// NewService creates a new news service with the given database connection
func NewService(gormDB *gorm.DB) *Service {
	return &Service{
		db: NewDatabase(gormDB),
	}
}

// ListArticles returns articles, newest first
func (s *Service) ListArticles(category string, limit, offset int) ([]types.NewsArticle, error) {
	if limit <= 0 {
		limit = defaultPageLimit
	}
	return s.db.ListArticles(category, limit, offset)
}

// GetArticle returns an article by ID
func (s *Service) GetArticle(articleID string) (*types.NewsArticle, error) {
	article, err := s.db.GetArticle(articleID)
	if err != nil {
		return nil, err
	}
	if article == nil {
		return nil, ErrArticleNotFound
	}
	return article, nil
}

// CreateArticle publishes a new article
func (s *Service) CreateArticle(req CreateArticleRequest) (*types.NewsArticle, error) {
	article := &types.NewsArticle{
		ArticleID:   "ART_" + uuid.New().String(),
		Title:       req.Title,
		Summary:     req.Summary,
		Source:      req.Source,
		Category:    req.Category,
		ImageURL:    req.ImageURL,
		ExternalURL: req.ExternalURL,
		CreatedAt:   time.Now(),
	}

	if err := s.db.CreateArticle(article); err != nil {
		return nil, err
	}

	log.Info().
		Str("article_id", article.ArticleID).
		Str("category", article.Category).
		Msg("news article created")

	return article, nil
}

// DeleteArticle removes an article
func (s *Service) DeleteArticle(articleID string) error {
	article, err := s.GetArticle(articleID)
	if err != nil {
		return err
	}
	return s.db.DeleteArticle(article)
}

// GetTrending returns the most recent articles from the last 24 hours
func (s *Service) GetTrending() ([]types.NewsArticle, error) {
	return s.db.ListArticlesSince(time.Now().Add(-trendingWindow), trendingLimit)
}

// GinHandlers contains HTTP handlers for news endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for news endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

// ListArticlesHandler handles GET requests for news articles
// Query parameters: category, limit, offset
func (h *GinHandlers) ListArticlesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageLimit)))
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

		articles, err := h.service.ListArticles(c.Query("category"), limit, offset)
		response.Handle(c, articles, err)
	}
}

// GetArticleHandler handles GET requests for a single article
// URL parameter: article_id
func (h *GinHandlers) GetArticleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		article, err := h.service.GetArticle(c.Param("article_id"))
		if errors.Is(err, ErrArticleNotFound) {
			response.NotFound(c, err.Error())
			return
		}
		response.Handle(c, article, err)
	}
}

// CreateArticleHandler handles POST requests to publish an article
// Requires admin authentication
func (h *GinHandlers) CreateArticleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateArticleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		article, err := h.service.CreateArticle(req)
		response.Handle(c, article, err)
	}
}

// DeleteArticleHandler handles DELETE requests for an article
// Requires admin authentication
// URL parameter: article_id
func (h *GinHandlers) DeleteArticleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		err := h.service.DeleteArticle(c.Param("article_id"))
		if errors.Is(err, ErrArticleNotFound) {
			response.NotFound(c, err.Error())
			return
		}
		response.Handle(c, gin.H{"message": "Article deleted successfully"}, err)
	}
}

// GetTrendingHandler handles GET requests for trending news
func (h *GinHandlers) GetTrendingHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		articles, err := h.service.GetTrending()
		response.Handle(c, articles, err)
	}
}
