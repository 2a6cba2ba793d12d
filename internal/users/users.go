package users

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/tradesense/tradesense-api/pkg/response"
	"gorm.io/gorm"
)

var ErrUserNotFound = errors.New("user not found")

// DeletionResult reports what a cascade delete removed
type DeletionResult struct {
	UserID         string `json:"user_id"`
	Challenges     int64  `json:"challenges"`
	Trades         int64  `json:"trades"`
	CommunityPosts int64  `json:"community_posts"`
}

// Service handles user administration operations
type Service struct {
	db *Database
}

// NewService creates a new users service with the given database connection
func NewService(gormDB *gorm.DB) *Service {
	return &Service{
		db: NewDatabase(gormDB),
	}
}

// DeleteUser removes a user and everything they own: trades under each of
// their challenges, then the challenges, then their community posts, then
// the account itself. Runs in one transaction so a failure leaves the
// account intact.
func (s *Service) DeleteUser(userID string) (*DeletionResult, error) {
	user, err := s.db.GetUser(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	result, err := s.db.DeleteUserCascade(userID)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("user_id", userID).
		Int64("challenges", result.Challenges).
		Int64("trades", result.Trades).
		Int64("community_posts", result.CommunityPosts).
		Msg("user account deleted")

	return result, nil
}

// GinHandlers contains HTTP handlers for user administration endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for user administration endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

// DeleteUserHandler handles DELETE requests for a user account
// Requires admin authentication
// URL parameter: user_id
func (h *GinHandlers) DeleteUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := h.service.DeleteUser(c.Param("user_id"))
		if errors.Is(err, ErrUserNotFound) {
			response.NotFound(c, err.Error())
			return
		}
		response.Handle(c, result, err)
	}
}
