package community

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tradesense/tradesense-api/internal/types"
	"github.com/tradesense/tradesense-api/pkg/response"
	"gorm.io/gorm"
)

var (
	ErrPostNotFound  = errors.New("post not found")
	ErrEmptyContent  = errors.New("content is required")
	ErrNotPostAuthor = errors.New("only the author or an admin can modify this post")
)

const defaultPageLimit = 20

// CreatePostRequest is the payload for publishing a post
type CreatePostRequest struct {
	Content  string `json:"content" binding:"required"`
	Category string `json:"category"` // strategy, analysis, question, general
}

// UpdatePostRequest enumerates the mutable post fields
type UpdatePostRequest struct {
	Content  *string `json:"content"`
	Category *string `json:"category"`
}

// Service handles community feed operations
type Service struct {
	db *Database
}

// NewService creates a new community service with the given database connection
func NewService(gormDB *gorm.DB) *Service {
	return &Service{
		db: NewDatabase(gormDB),
	}
}

// ListPosts returns community posts, newest first
func (s *Service) ListPosts(category string, limit, offset int) ([]types.CommunityPost, error) {
	if limit <= 0 {
		limit = defaultPageLimit
	}
	return s.db.ListPosts(category, limit, offset)
}

// CreatePost publishes a new post for the author
func (s *Service) CreatePost(authorID string, req CreatePostRequest) (*types.CommunityPost, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, ErrEmptyContent
	}

	category := req.Category
	if category == "" {
		category = "general"
	}

	now := time.Now()
	post := &types.CommunityPost{
		PostID:    "PST_" + uuid.New().String(),
		AuthorID:  authorID,
		Content:   content,
		Category:  category,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.db.CreatePost(post); err != nil {
		return nil, err
	}

	log.Info().
		Str("post_id", post.PostID).
		Str("author_id", authorID).
		Str("category", category).
		Msg("community post created")

	return post, nil
}

// GetPost returns a post by ID
func (s *Service) GetPost(postID string) (*types.CommunityPost, error) {
	post, err := s.db.GetPost(postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	return post, nil
}

// UpdatePost applies edits to a post; only the author may edit
func (s *Service) UpdatePost(postID, userID string, req UpdatePostRequest) (*types.CommunityPost, error) {
	post, err := s.GetPost(postID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != userID {
		return nil, ErrNotPostAuthor
	}

	if req.Content != nil {
		content := strings.TrimSpace(*req.Content)
		if content == "" {
			return nil, ErrEmptyContent
		}
		post.Content = content
	}
	if req.Category != nil {
		post.Category = *req.Category
	}

	post.UpdatedAt = time.Now()
	if err := s.db.UpdatePost(post); err != nil {
		return nil, err
	}
	return post, nil
}

// DeletePost removes a post; allowed for the author or an admin
func (s *Service) DeletePost(postID, userID, role string) error {
	post, err := s.GetPost(postID)
	if err != nil {
		return err
	}
	if post.AuthorID != userID && role != "admin" {
		return ErrNotPostAuthor
	}
	return s.db.DeletePost(post)
}

// LikePost increments a post's like counter and returns the new count
func (s *Service) LikePost(postID string) (int, error) {
	post, err := s.GetPost(postID)
	if err != nil {
		return 0, err
	}

	if err := s.db.IncrementLikes(post); err != nil {
		return 0, err
	}
	return post.LikesCount, nil
}

// GinHandlers contains HTTP handlers for community endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for community endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

func pagination(c *gin.Context, defaultLimit int) (int, int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

// ListPostsHandler handles GET requests for the community feed
// Query parameters: category, limit, offset
func (h *GinHandlers) ListPostsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset := pagination(c, defaultPageLimit)
		posts, err := h.service.ListPosts(c.Query("category"), limit, offset)
		response.Handle(c, posts, err)
	}
}

// CreatePostHandler handles POST requests to publish a post
func (h *GinHandlers) CreatePostHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreatePostRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		post, err := h.service.CreatePost(c.GetString("userID"), req)
		if errors.Is(err, ErrEmptyContent) {
			response.BadRequest(c, err.Error())
			return
		}
		response.Handle(c, post, err)
	}
}

// GetPostHandler handles GET requests for a single post
// URL parameter: post_id
func (h *GinHandlers) GetPostHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		post, err := h.service.GetPost(c.Param("post_id"))
		if errors.Is(err, ErrPostNotFound) {
			response.NotFound(c, err.Error())
			return
		}
		response.Handle(c, post, err)
	}
}

// UpdatePostHandler handles PUT requests to edit a post
// URL parameter: post_id
func (h *GinHandlers) UpdatePostHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdatePostRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		post, err := h.service.UpdatePost(c.Param("post_id"), c.GetString("userID"), req)
		switch {
		case errors.Is(err, ErrPostNotFound):
			response.NotFound(c, err.Error())
		case errors.Is(err, ErrNotPostAuthor):
			response.Forbidden(c, err.Error())
		case errors.Is(err, ErrEmptyContent):
			response.BadRequest(c, err.Error())
		default:
			response.Handle(c, post, err)
		}
	}
}

// DeletePostHandler handles DELETE requests for a post
// URL parameter: post_id
func (h *GinHandlers) DeletePostHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		err := h.service.DeletePost(c.Param("post_id"), c.GetString("userID"), c.GetString("role"))
		switch {
		case errors.Is(err, ErrPostNotFound):
			response.NotFound(c, err.Error())
		case errors.Is(err, ErrNotPostAuthor):
			response.Forbidden(c, err.Error())
		default:
			response.Handle(c, gin.H{"message": "Post deleted successfully"}, err)
		}
	}
}

// LikePostHandler handles POST requests to like a post
// URL parameter: post_id
func (h *GinHandlers) LikePostHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		likes, err := h.service.LikePost(c.Param("post_id"))
		if errors.Is(err, ErrPostNotFound) {
			response.NotFound(c, err.Error())
			return
		}
		response.Handle(c, gin.H{"likes_count": likes}, err)
	}
}
