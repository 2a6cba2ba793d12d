package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/tradesense/tradesense-api/internal/auth"
	"github.com/tradesense/tradesense-api/internal/community"
	"github.com/tradesense/tradesense-api/internal/config"
	"github.com/tradesense/tradesense-api/internal/database"
	"github.com/tradesense/tradesense-api/internal/marketdata"
	"github.com/tradesense/tradesense-api/internal/masterclass"
	"github.com/tradesense/tradesense-api/internal/news"
	"github.com/tradesense/tradesense-api/internal/trading"
	"github.com/tradesense/tradesense-api/internal/users"
	"github.com/tradesense/tradesense-api/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// init configures the application logging based on environment settings
// In development mode, it enables pretty printing with timestamps
// Debug logging can be enabled via DEBUG environment variable
func init() {
	// Configure pretty logging for development
	if os.Getenv("ENV") != "production" {
		output := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		zlog.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	// Set global log level
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if os.Getenv("DEBUG") == "true" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// main initializes and runs the trading challenge API server with graceful
// shutdown support
func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if level, err := zerolog.ParseLevel(cfg.Logger.Level); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	// Initialize database
	db, err := database.NewDatabase(cfg.Database.DSN)
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to initialize database")
	}

	// Initialize router
	router := gin.Default()

	// Initialize services and handlers
	authService := auth.NewService(db, cfg.JWT.Secret)
	authHandlers := auth.NewGinHandlers(authService)

	tradingService := trading.NewService(db)
	tradingHandlers := trading.NewGinHandlers(tradingService)

	communityService := community.NewService(db)
	communityHandlers := community.NewGinHandlers(communityService)

	newsService := news.NewService(db)
	newsHandlers := news.NewGinHandlers(newsService)

	masterclassService := masterclass.NewService(db)
	masterclassHandlers := masterclass.NewGinHandlers(masterclassService)

	marketClient := marketdata.NewYahooClient(cfg.MarketData.BaseURL, cfg.MarketData.RateLimit)
	marketService := marketdata.NewService(marketClient)
	marketHandlers := marketdata.NewGinHandlers(marketService)

	usersService := users.NewService(db)
	usersHandlers := users.NewGinHandlers(usersService)

	// Setup middleware
	router.Use(middleware.RateLimit())

	// Setup API routes
	setupRoutes(router, cfg.JWT.Secret,
		authHandlers, tradingHandlers, communityHandlers,
		newsHandlers, masterclassHandlers, marketHandlers, usersHandlers)

	// Create server
	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(cfg.Server.Port),
		Handler: router,
	}

	// Graceful shutdown setup
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("listen")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info().Msg("Shutting down server...")

	// Give outstanding operations 5 seconds to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	zlog.Info().Msg("Server exiting")
}

// setupRoutes configures all API endpoints and their handlers
// It groups routes by functionality and applies appropriate middleware:
// - Auth routes: Public endpoints for registration and login
// - Trading routes: Protected by JWT authentication
// - Admin routes: Protected by JWT authentication plus the admin role
func setupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authHandlers *auth.GinHandlers,
	tradingHandlers *trading.GinHandlers,
	communityHandlers *community.GinHandlers,
	newsHandlers *news.GinHandlers,
	masterclassHandlers *masterclass.GinHandlers,
	marketHandlers *marketdata.GinHandlers,
	usersHandlers *users.GinHandlers,
) {
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	// Auth routes
	authGroup := router.Group("/api/auth")
	{
		authGroup.POST("/register", authHandlers.RegisterHandler())
		authGroup.POST("/login", authHandlers.LoginHandler())
		authGroup.POST("/refresh", middleware.RefreshAuth(jwtSecret), authHandlers.RefreshHandler())

		authGroup.GET("/me", middleware.JWTAuth(jwtSecret), authHandlers.MeHandler())
		authGroup.PUT("/me", middleware.JWTAuth(jwtSecret), authHandlers.UpdateProfileHandler())
	}

	// Trading routes: challenges, trades and the leaderboard
	tradingGroup := router.Group("/api/trading")
	tradingGroup.Use(middleware.JWTAuth(jwtSecret))
	{
		tradingGroup.POST("/challenges", tradingHandlers.CreateChallengeHandler())
		tradingGroup.GET("/challenges", tradingHandlers.GetChallengesHandler())
		tradingGroup.GET("/challenges/:challenge_id", tradingHandlers.GetChallengeHandler())

		tradingGroup.POST("/trades", tradingHandlers.OpenTradeHandler())
		tradingGroup.POST("/trades/:trade_id/close", tradingHandlers.CloseTradeHandler())
		tradingGroup.GET("/trades", tradingHandlers.GetTradesHandler())

		tradingGroup.GET("/leaderboard", tradingHandlers.GetLeaderboardHandler())
	}

	// Market data routes
	marketGroup := router.Group("/api/market")
	marketGroup.Use(middleware.JWTAuth(jwtSecret))
	{
		marketGroup.POST("/data", marketHandlers.FetchChartHandler())
		marketGroup.POST("/data/:interval", marketHandlers.FetchChartHandler())
	}

	// Community routes
	communityGroup := router.Group("/api/community")
	communityGroup.Use(middleware.JWTAuth(jwtSecret))
	{
		communityGroup.GET("/posts", communityHandlers.ListPostsHandler())
		communityGroup.POST("/posts", communityHandlers.CreatePostHandler())
		communityGroup.GET("/posts/:post_id", communityHandlers.GetPostHandler())
		communityGroup.PUT("/posts/:post_id", communityHandlers.UpdatePostHandler())
		communityGroup.DELETE("/posts/:post_id", communityHandlers.DeletePostHandler())
		communityGroup.POST("/posts/:post_id/like", communityHandlers.LikePostHandler())
	}

	// News routes: reading is public, publishing is admin-only
	newsGroup := router.Group("/api/news")
	{
		newsGroup.GET("", newsHandlers.ListArticlesHandler())
		newsGroup.GET("/trending", newsHandlers.GetTrendingHandler())
		newsGroup.GET("/:article_id", newsHandlers.GetArticleHandler())
	}

	// Masterclass routes: browsing is public, catalog management is admin-only
	masterclassGroup := router.Group("/api/masterclass")
	{
		masterclassGroup.GET("/courses", masterclassHandlers.ListCoursesHandler())
		masterclassGroup.GET("/courses/:course_id", masterclassHandlers.GetCourseHandler())
	}

	// Admin routes
	adminGroup := router.Group("/api/admin")
	adminGroup.Use(middleware.JWTAuth(jwtSecret), middleware.AdminOnly())
	{
		adminGroup.POST("/challenges/reset-daily", tradingHandlers.ResetDailyHandler())
		adminGroup.DELETE("/users/:user_id", usersHandlers.DeleteUserHandler())

		adminGroup.POST("/news", newsHandlers.CreateArticleHandler())
		adminGroup.DELETE("/news/:article_id", newsHandlers.DeleteArticleHandler())

		adminGroup.POST("/masterclass/courses", masterclassHandlers.CreateCourseHandler())
		adminGroup.PUT("/masterclass/courses/:course_id", masterclassHandlers.UpdateCourseHandler())
		adminGroup.DELETE("/masterclass/courses/:course_id", masterclassHandlers.DeleteCourseHandler())
	}
}
