// Package server contains the HTTP handlers for the forum API.
package server

import (
	"context"
	"fmt"
	"time"

	_ "campusforum/docs" // swagger docs
	"campusforum/internal/auth"
	"campusforum/internal/cache"
	"campusforum/internal/config"
	"campusforum/internal/database"
	"campusforum/internal/featureflags"
	"campusforum/internal/middleware"
	"campusforum/internal/models"
	"campusforum/internal/notifications"
	"campusforum/internal/repository"
	"campusforum/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
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
	store          *repository.Store
	provider       *auth.Provider
	featureFlags   *featureflags.Manager
	services       *service.Services
}

// NewServer connects to the database and Redis and wires a server.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil; rate limiting then fails open and refresh token
// revocation is disabled.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle is required")
	}
	middleware.SetEnvironment(cfg.Env)

	store := repository.NewStore(db)
	issuer := auth.NewIssuer(auth.SettingsFromConfig(cfg))
	flags := featureflags.NewManager(cfg.FeatureFlags)
	services := service.New(store, issuer, flags, time.Now)
	services.Reports.SetEvents(notifications.NewNotifier(redisClient))

	return &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("campusforum-api"),
		store:          store,
		provider:       auth.NewProvider(issuer, store.Users, cache.NewRevocations(redisClient)),
		featureFlags:   flags,
		services:       services,
	}, nil
}

// App builds the fiber application with middleware and routes installed.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "Campus Forum API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok && fe.Code == fiber.StatusNotFound {
				return models.RespondWithError(c, models.NewNotFoundError("route", c.Path()))
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", "error", err.Error())
			return models.RespondWithError(c, models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())

	// Request ID and trace first so every later log line carries them.
	app.Use(middleware.RequestID())
	app.Use(middleware.TracingMiddleware())

	// The principal must be known before the context is enriched with userID.
	app.Use(middleware.ResolvePrincipal(s.provider))
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		MaxAge:       86400,
	}))

	perMinute := s.config.RateLimitPerMinute
	if perMinute <= 0 {
		perMinute = 300
	}
	app.Use(limiter.New(limiter.Config{
		Max:        perMinute,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || s.config.Env == "test"
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "Too many requests, please try again later.",
				Code:  models.CodeRateLimited,
			})
		},
	}))
}

// rateLimit picks the failure policy from the strict_rate_limit flag.
func (s *Server) rateLimit(limit int, window time.Duration, name string) fiber.Handler {
	policy := middleware.FailOpen
	if s.featureFlags.Global(featureflags.StrictRateLimit) {
		policy = middleware.FailClosed
	}
	return middleware.RateLimitWithPolicy(s.redis, limit, window, policy, name)
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	app.Get("/swagger/*", swagger.HandlerDefault)

	api := app.Group("/api")
	protected := middleware.AuthRequired()

	authGroup := api.Group("/auth")
	authGroup.Post("/register", s.rateLimit(5, 10*time.Minute, "register"), s.Register)
	authGroup.Post("/login", s.rateLimit(10, 5*time.Minute, "login"), s.Login)
	authGroup.Post("/refresh", s.rateLimit(30, 5*time.Minute, "refresh"), s.Refresh)

	users := api.Group("/users", protected)
	users.Post("/logout", s.Logout)
	users.Get("/me", s.GetMe)
	users.Put("/me", s.UpdateMe)
	users.Patch("/me", s.PatchMe)

	categories := api.Group("/categories")
	categories.Get("/", s.ListCategories)
	categories.Post("/", protected, s.CreateCategory)
	// Specific /:id/<action> routes before the generic /:id routes
	categories.Post("/:id/toggle_status", protected, s.ToggleCategoryStatus)
	categories.Post("/:id/archive", protected, s.ArchiveCategory)
	categories.Post("/:id/restore", protected, s.RestoreCategory)
	categories.Get("/:id", s.GetCategory)
	categories.Put("/:id", protected, s.UpdateCategory)
	categories.Patch("/:id", protected, s.UpdateCategory)
	categories.Delete("/:id", protected, s.DeleteCategory)

	posts := api.Group("/posts")
	posts.Get("/", s.ListPosts)
	posts.Get("/my-posts", protected, s.ListMyPosts)
	posts.Post("/", protected, s.CreatePost)
	posts.Post("/:id/publish", protected, s.PublishPost)
	posts.Post("/:id/archive", protected, s.ArchivePost)
	posts.Get("/:id", s.GetPost)
	posts.Put("/:id", protected, s.UpdatePost)
	posts.Patch("/:id", protected, s.UpdatePost)
	posts.Delete("/:id", protected, s.DeletePost)

	tags := api.Group("/tags")
	tags.Get("/", s.ListTags)
	tags.Post("/", protected, s.CreateTag)
	tags.Get("/:id", s.GetTag)
	tags.Delete("/:id", protected, s.DeleteTag)

	comments := api.Group("/comments", protected)
	comments.Get("/", s.ListComments)
	comments.Post("/", s.CreateComment)
	comments.Get("/:id", s.GetComment)
	comments.Put("/:id", s.UpdateComment)
	comments.Patch("/:id", s.UpdateComment)
	comments.Delete("/:id", s.DeleteComment)

	reports := api.Group("/reports", protected)
	reports.Get("/", s.ListReports)
	reports.Post("/", s.rateLimit(10, 10*time.Minute, "create_report"), s.CreateReport)
	reports.Post("/:id/review", s.ReviewReport)
	reports.Post("/:id/resolve", s.ResolveReport)
	reports.Post("/:id/dismiss", s.DismissReport)
	reports.Get("/:id", s.GetReport)

	analytics := api.Group("/analytics", protected)
	analytics.Get("/", s.PlatformAnalytics)
	analytics.Get("/category/:id", s.CategoryAnalytics)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := s.store.Ping(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	// Redis is optional: without it the API runs with rate limiting open.
	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" || redisStatus == "unhealthy" {
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

// Start starts the server
func (s *Server) Start() error {
	s.app = s.App()
	middleware.Logger.Info("server starting", "port", s.config.Port, "env", s.config.Env)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", "error", err.Error())
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", "error", cerr.Error())
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", "error", rerr.Error())
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
