// Package server contains the HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"civicboard/internal/auth"
	"civicboard/internal/config"
	"civicboard/internal/database"
	"civicboard/internal/imagestore"
	"civicboard/internal/middleware"
	"civicboard/internal/models"
	"civicboard/internal/policy"
	"civicboard/internal/repository"
	"civicboard/internal/service"
	"civicboard/internal/session"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	userRepo       repository.UserRepository
	postRepo       repository.PostRepository
	commentRepo    repository.CommentRepository
	upvoteRepo     repository.UpvoteRepository
	banRepo        repository.BanRepository
	authService    *service.AuthService
	postService    *service.PostService
	engagement     *service.EngagementService
	moderation     *service.ModerationService
	userService    *service.UserService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	redisClient := session.InitRedis(cfg.RedisURL)

	var uploader imagestore.Uploader
	if cfg.ImageS3Bucket != "" {
		store, err := imagestore.NewS3Store(context.Background(), cfg)
		if err != nil {
			return nil, fmt.Errorf("image store setup failed: %w", err)
		}
		uploader = store
	} else {
		middleware.Logger.Warn("IMAGE_S3_BUCKET not set, posts with images will be rejected")
	}

	return NewServerWithDeps(cfg, db, redisClient, uploader)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Tests use it with SQLite, miniredis and a fake uploader. A nil redisClient
// disables token revocation; a nil uploader rejects image uploads.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, uploader imagestore.Uploader) (*Server, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT secret is required")
	}

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("civicboard-api"),
		userRepo:       repository.NewUserRepository(db),
		postRepo:       repository.NewPostRepository(db),
		commentRepo:    repository.NewCommentRepository(db),
		upvoteRepo:     repository.NewUpvoteRepository(db),
		banRepo:        repository.NewBanRepository(db),
	}

	maxUpload := int64(cfg.ImageMaxUploadSizeMB) * 1024 * 1024
	s.authService = service.NewAuthService(s.userRepo, auth.NewTokenManager(cfg.JWTSecret), session.NewRevocationStore(redisClient))
	s.postService = service.NewPostService(s.postRepo, s.commentRepo, s.upvoteRepo, uploader, maxUpload)
	s.engagement = service.NewEngagementService(s.postRepo, s.commentRepo, s.upvoteRepo)
	s.moderation = service.NewModerationService(s.userRepo, s.banRepo)
	s.userService = service.NewUserService(s.userRepo, s.postService)

	s.app = s.newApp()
	return s, nil
}

func (s *Server) newApp() *fiber.App {
	bodyLimit := (s.config.ImageMaxUploadSizeMB + 1) * 1024 * 1024
	if bodyLimit < fiber.DefaultBodyLimit {
		bodyLimit = fiber.DefaultBodyLimit
	}

	app := fiber.New(fiber.Config{
		AppName:   "CivicBoard API",
		BodyLimit: bodyLimit,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return models.RespondWithError(c, fe.Code, translateFiberError(fe))
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithAppError(c, err)
		},
	})

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// App exposes the configured Fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	app.Use(middleware.TracingMiddleware())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,PATCH,DELETE,OPTIONS",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")

	// Auth routes
	authGroup := api.Group("/auth")
	authGroup.Post("/register", s.Register)
	authGroup.Post("/login", s.Login)
	authGroup.Post("/logout", s.Logout)
	authGroup.Get("/", s.AuthRequired(), s.GetSession)

	// Post routes. Specific paths before generic /:id.
	posts := api.Group("/post")
	posts.Get("/", s.GetPosts)
	posts.Get("/nearby", s.GetNearbyPosts)
	posts.Post("/create", s.AuthRequired(), s.CreatePost)
	posts.Get("/:id/comments", s.GetComments)
	posts.Post("/:id/comment", s.AuthRequired(), s.CreateComment)
	posts.Delete("/:id/comment/:commentId", s.AuthRequired(), s.DeleteComment)
	posts.Post("/:id/upvote", s.AuthRequired(), s.ToggleUpvote)
	posts.Patch("/:id/resolve", s.AuthRequired(), s.ToggleResolved)
	posts.Get("/:id", s.GetPost)
	posts.Delete("/:id", s.AuthRequired(), s.DeletePost)

	// Profile routes
	profile := api.Group("/profile")
	profile.Get("/", s.AuthRequired(), s.GetMyProfile)
	profile.Patch("/update", s.AuthRequired(), s.UpdateMyProfile)
	profile.Get("/:id", s.GetUserProfile)

	// Admin routes
	admin := api.Group("/admin", s.AuthRequired(), s.AdminRequired())
	admin.Get("/users", s.GetAllUsers)
	admin.Post("/users/ban/:id", s.ToggleBan)
	admin.Post("/users/:id", s.ChangeUserRole)
	admin.Get("/bans", s.GetBans)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional: when it
// is not configured the check reports it as disabled.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// AuthRequired returns the authentication middleware. The session token is
// read from the "token" cookie, falling back to a Bearer header. The account
// is reloaded on every request so a ban takes effect immediately.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := s.authService.Authenticate(c.UserContext(), sessionToken(c))
		if err != nil {
			return models.RespondWithAppError(c, err)
		}

		c.Locals("user", user)
		c.Locals("userID", user.ID)
		c.SetUserContext(middleware.WithUserID(c.UserContext(), user.ID))

		return c.Next()
	}
}

// AdminRequired returns middleware that rejects non-admin users with 403.
// Must be placed after AuthRequired so that the user is available in locals.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !policy.IsAdmin(currentUser(c)) {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Admin access required"))
		}
		return c.Next()
	}
}

func sessionToken(c *fiber.Ctx) string {
	if token := c.Cookies(auth.CookieName); token != "" {
		return token
	}
	parts := strings.Fields(c.Get(fiber.HeaderAuthorization))
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return ""
}

// Start starts the server
func (s *Server) Start() error {
	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
