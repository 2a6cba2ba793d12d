package masterclass

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

var ErrCourseNotFound = errors.New("course not found")

const defaultPageLimit = 50

// CreateCourseRequest is the payload for adding a course to the catalog
type CreateCourseRequest struct {
	Title           string `json:"title" binding:"required"`
	Description     string `json:"description" binding:"required"`
	Level           string `json:"level" binding:"required"` // beginner, intermediate, advanced
	Category        string `json:"category"`
	DurationMinutes int    `json:"duration_minutes"`
	VideoURL        string `json:"video_url"`
	ThumbnailURL    string `json:"thumbnail_url"`
	IsPremium       bool   `json:"is_premium"`
}

// UpdateCourseRequest enumerates the mutable course fields
type UpdateCourseRequest struct {
	Title           *string `json:"title"`
	Description     *string `json:"description"`
	Level           *string `json:"level"`
	Category        *string `json:"category"`
	DurationMinutes *int    `json:"duration_minutes"`
	VideoURL        *string `json:"video_url"`
	ThumbnailURL    *string `json:"thumbnail_url"`
	IsPremium       *bool   `json:"is_premium"`
}

// Service handles masterclass catalog operations
type Service struct {
	db *Database
}

// NewService creates a new masterclass service with the given database connection
func NewService(gormDB *gorm.DB) *Service {
	return &Service{
		db: NewDatabase(gormDB),
	}
}

// ListCourses returns catalog courses, newest first
func (s *Service) ListCourses(level, category string, limit, offset int) ([]types.Course, error) {
	if limit <= 0 {
		limit = defaultPageLimit
	}
	return s.db.ListCourses(level, category, limit, offset)
}

// GetCourse returns a course by ID
func (s *Service) GetCourse(courseID string) (*types.Course, error) {
	course, err := s.db.GetCourse(courseID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, ErrCourseNotFound
	}
	return course, nil
}

// CreateCourse adds a course to the catalog
func (s *Service) CreateCourse(req CreateCourseRequest) (*types.Course, error) {
	course := &types.Course{
		CourseID:        "CRS_" + uuid.New().String(),
		Title:           req.Title,
		Description:     req.Description,
		Level:           req.Level,
		Category:        req.Category,
		DurationMinutes: req.DurationMinutes,
		VideoURL:        req.VideoURL,
		ThumbnailURL:    req.ThumbnailURL,
		IsPremium:       req.IsPremium,
		CreatedAt:       time.Now(),
	}

	if err := s.db.CreateCourse(course); err != nil {
		return nil, err
	}

	log.Info().
		Str("course_id", course.CourseID).
		Str("level", course.Level).
		Msg("course created")

	return course, nil
}

// UpdateCourse applies edits to a catalog course
func (s *Service) UpdateCourse(courseID string, req UpdateCourseRequest) (*types.Course, error) {
	course, err := s.GetCourse(courseID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		course.Title = *req.Title
	}
	if req.Description != nil {
		course.Description = *req.Description
	}
	if req.Level != nil {
		course.Level = *req.Level
	}
	if req.Category != nil {
		course.Category = *req.Category
	}
	if req.DurationMinutes != nil {
		course.DurationMinutes = *req.DurationMinutes
	}
	if req.VideoURL != nil {
		course.VideoURL = *req.VideoURL
	}
	if req.ThumbnailURL != nil {
		course.ThumbnailURL = *req.ThumbnailURL
	}
	if req.IsPremium != nil {
		course.IsPremium = *req.IsPremium
	}

	if err := s.db.UpdateCourse(course); err != nil {
		return nil, err
	}
	return course, nil
}

// DeleteCourse removes a course from the catalog
func (s *Service) DeleteCourse(courseID string) error {
	course, err := s.GetCourse(courseID)
	if err != nil {
		return err
	}
	return s.db.DeleteCourse(course)
}

// GinHandlers contains HTTP handlers for masterclass endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for masterclass endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

// ListCoursesHandler handles GET requests for the course catalog
// Query parameters: level, category, limit, offset
func (h *GinHandlers) ListCoursesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageLimit)))
		offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

		courses, err := h.service.ListCourses(c.Query("level"), c.Query("category"), limit, offset)
		response.Handle(c, courses, err)
	}
}

// GetCourseHandler handles GET requests for a single course
// URL parameter: course_id
func (h *GinHandlers) GetCourseHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		course, err := h.service.GetCourse(c.Param("course_id"))
		if errors.Is(err, ErrCourseNotFound) {
			response.NotFound(c, err.Error())
			return
		}
		response.Handle(c, course, err)
	}
}

// CreateCourseHandler handles POST requests to add a course
// Requires admin authentication
func (h *GinHandlers) CreateCourseHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateCourseRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		course, err := h.service.CreateCourse(req)
		response.Handle(c, course, err)
	}
}

// UpdateCourseHandler handles PUT requests to edit a course
// Requires admin authentication
// URL parameter: course_id
func (h *GinHandlers) UpdateCourseHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateCourseRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		course, err := h.service.UpdateCourse(c.Param("course_id"), req)
		if errors.Is(err, ErrCourseNotFound) {
			response.NotFound(c, err.Error())
			return
		}
		response.Handle(c, course, err)
	}
}

// DeleteCourseHandler handles DELETE requests for a course
// Requires admin authentication
// URL parameter: course_id
func (h *GinHandlers) DeleteCourseHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		err := h.service.DeleteCourse(c.Param("course_id"))
		if errors.Is(err, ErrCourseNotFound) {
			response.NotFound(c, err.Error())
			return
		}
		response.Handle(c, gin.H{"message": "Course deleted successfully"}, err)
	}
}
