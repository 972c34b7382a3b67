// Package server contains the HTTP and WebSocket handlers for the API.
package server

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"murmur/internal/config"
	"murmur/internal/database"
	"murmur/internal/media"
	"murmur/internal/middleware"
	"murmur/internal/models"
	"murmur/internal/notifications"
	"murmur/internal/repository"
	"murmur/internal/service"
	"murmur/internal/token"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"gorm.io/gorm"
)

// Deps are the already-initialized dependencies a Server is built from.
type Deps struct {
	Repos repository.Set

	// DB or Mongo is set depending on the configured driver. Both are only
	// used for readiness probes.
	DB    *gorm.DB
	Mongo *mongo.Client

	// Redis is optional. Without it rate limits fall back to memory, logout
	// cannot revoke tokens and notifications only reach local sockets.
	Redis *redis.Client

	Uploader media.Uploader
	// MediaDir is served under /media when set.
	MediaDir string
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	deps           Deps
	redis          *redis.Client
	promMiddleware *fiberprometheus.FiberPrometheus
	tokens         *token.Service

	notifier  *notifications.Notifier
	hub       *notifications.Hub
	publisher service.NotificationPublisher

	authService         *service.AuthService
	userService         *service.UserService
	postService         *service.PostService
	notificationService *service.NotificationService

	appOnce     sync.Once
	app         *fiber.App
	shutdownCtx context.Context
	shutdownFn  context.CancelFunc
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
func NewServerWithDeps(cfg *config.Config, deps Deps) (*Server, error) {
	if deps.Repos.Users == nil || deps.Repos.Posts == nil || deps.Repos.Notifications == nil {
		return nil, errors.New("server: repositories are required")
	}

	s := &Server{
		config:         cfg,
		deps:           deps,
		redis:          deps.Redis,
		promMiddleware: middleware.InitMetrics("murmur-api"),
		tokens: token.NewService(token.Options{
			Secret:       cfg.JWTSecret,
			Issuer:       cfg.JWTIssuer,
			Audience:     cfg.JWTAudience,
			SecureCookie: !cfg.IsDevelopment(),
		}, deps.Redis),
		hub: notifications.NewHub(),
	}
	s.shutdownCtx, s.shutdownFn = context.WithCancel(context.Background())

	// With Redis, notifications fan out through pub/sub so every instance
	// reaches its own sockets.
	s.publisher = s.hub
	if deps.Redis != nil {
		s.notifier = notifications.NewNotifier(deps.Redis)
		s.publisher = s.notifier
	}

	s.authService = service.NewAuthService(deps.Repos.Users)
	s.userService = service.NewUserService(deps.Repos.Users, deps.Uploader, s.publisher)
	s.postService = service.NewPostService(deps.Repos.Posts, deps.Repos.Users, deps.Uploader, s.publisher)
	s.notificationService = service.NewNotificationService(deps.Repos.Notifications)

	return s, nil
}

// App returns the Fiber app with middleware and routes installed. It is
// built once.
func (s *Server) App() *fiber.App {
	s.appOnce.Do(func() {
		app := fiber.New(fiber.Config{
			AppName: "murmur",
			// Image payloads arrive base64-encoded inside JSON bodies.
			BodyLimit:    (2*s.config.MediaMaxSizeMB + 1) * 1024 * 1024,
			ErrorHandler: s.errorHandler,
		})
		s.SetupMiddleware(app)
		s.SetupRoutes(app)
		s.app = app
	})
	return s.app
}

func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message, Code: codeForStatus(fe.Code)})
	}
	middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
	return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	// Propagate request id, user id and trace id to the logger
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New(helmet.Config{
		// Images under /media are embedded by the web client.
		CrossOriginResourcePolicy: "cross-origin",
	}))
	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:3000,http://localhost:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400,
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	if s.deps.MediaDir != "" {
		app.Static("/media", s.deps.MediaDir, fiber.Static{MaxAge: 86400})
	}

	api := app.Group("/api")

	authLimit := s.config.AuthRateLimit
	if authLimit <= 0 {
		authLimit = 10
	}
	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(s.redis, authLimit, time.Minute, "signup"), s.Signup)
	auth.Post("/login", middleware.RateLimit(s.redis, authLimit, time.Minute, "login"), s.Login)
	auth.Post("/logout", s.Logout)
	auth.Get("/me", s.AuthRequired(), s.GetMe)

	users := api.Group("/users")
	// Define /suggested BEFORE the generic /:username route
	users.Get("/suggested", s.AuthRequired(), s.GetSuggestedUsers)
	users.Post("/follow/:id", s.AuthRequired(), s.FollowUnfollowUser)
	users.Post("/update", s.AuthRequired(), s.UpdateUser)
	users.Get("/:username", s.OptionalIdentity(), s.GetUserProfile)

	posts := api.Group("/posts", s.AuthRequired())
	posts.Get("/all", s.GetAllPosts)
	posts.Get("/following", s.GetFollowingPosts)
	posts.Get("/likes/:id", s.GetLikedPosts)
	posts.Get("/user/:username", s.GetUserPosts)
	posts.Post("/create", s.CreatePost)
	posts.Post("/like/:id", s.LikeUnlikePost)
	posts.Post("/comment/:id", s.CommentOnPost)
	posts.Delete("/:id", s.DeletePost)

	notes := api.Group("/notifications", s.AuthRequired())
	notes.Get("/", s.GetNotifications)
	notes.Delete("/", s.DeleteNotifications)
	notes.Delete("/:id", s.DeleteNotification)

	api.Get("/ws", s.AuthRequired(), s.WebsocketUpgrade, s.WebsocketHandler())
}

// AuthRequired returns the identity resolver for protected routes.
func (s *Server) AuthRequired() fiber.Handler {
	return middleware.Protect(s.tokens, s.deps.Repos.Users)
}

// OptionalIdentity resolves the session cookie when present.
func (s *Server) OptionalIdentity() fiber.Handler {
	return middleware.OptionalIdentity(s.tokens, s.deps.Repos.Users)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck pings the store and Redis.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	switch {
	case s.deps.DB != nil:
		if err := database.Ping(ctx, s.deps.DB); err != nil {
			dbStatus = "unhealthy"
		}
	case s.deps.Mongo != nil:
		if err := s.deps.Mongo.Ping(ctx, readpref.Primary()); err != nil {
			dbStatus = "unhealthy"
		}
	default:
		dbStatus = "unavailable"
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

// StartRealtime subscribes the websocket hub to the notification channels.
// It is a no-op without Redis.
func (s *Server) StartRealtime() error {
	if s.notifier == nil {
		return nil
	}
	return s.hub.StartWiring(s.shutdownCtx, s.notifier)
}

// Start starts the server
func (s *Server) Start() error {
	app := s.App()
	if err := s.StartRealtime(); err != nil {
		middleware.Logger.Warn("realtime notifications disabled", slog.String("error", err.Error()))
	}
	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown stops accepting requests, stops the pub/sub subscriber and closes
// every websocket. Connections owned by the caller are not closed.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownFn()

	var errs []error
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.hub.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
