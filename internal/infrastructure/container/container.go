package container

import (
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/soulpin/soulpin-backend/internal/config"
	"github.com/soulpin/soulpin-backend/internal/delivery/http"
	"github.com/soulpin/soulpin-backend/internal/delivery/http/handler"
	"github.com/soulpin/soulpin-backend/internal/delivery/http/middleware"
	"github.com/soulpin/soulpin-backend/internal/infrastructure/database"
	"github.com/soulpin/soulpin-backend/internal/infrastructure/gemini"
	"github.com/soulpin/soulpin-backend/internal/infrastructure/realtime"
	"github.com/soulpin/soulpin-backend/internal/infrastructure/scheduler"
	"github.com/soulpin/soulpin-backend/internal/infrastructure/server"
	"github.com/soulpin/soulpin-backend/internal/repository/postgres"
	"github.com/soulpin/soulpin-backend/internal/usecase/lifecycle"
	"github.com/soulpin/soulpin-backend/internal/usecase/profile"
)

// Container holds all application dependencies
type Container struct {
	Config    *config.Config
	DB        *sqlx.DB
	Redis     *redis.Client
	Server    *server.Server
	Gemini    *gemini.Client
	Hub       *realtime.Hub
	Scheduler *scheduler.RedisScheduler
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config, logger *slog.Logger) (*Container, error) {
	// Initialize database
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Initialize Redis
	redisClient, err := database.NewRedisClient(&cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	// Initialize Gemini client. A failure disables generated text; the
	// lifecycle use case falls back to fixed copy.
	var textService lifecycle.TextService
	geminiClient, err := gemini.NewClient(cfg.Gemini.APIKey, cfg.Gemini.Model)
	if err != nil {
		logger.Warn("gemini client unavailable, using fallback text", "error", err)
	} else {
		textService = geminiClient
	}

	// Initialize repositories
	userRepo := postgres.NewUserRepository(db)
	matchRepo := postgres.NewMatchRepository(db)
	messageRepo := postgres.NewMessageRepository(db)

	// Initialize realtime hub and deferred-action scheduler
	hub := realtime.NewHub(logger)
	sched := scheduler.NewRedisScheduler(redisClient, cfg.Scheduler.PollInterval, logger)

	// Initialize use cases
	profileUseCase := profile.NewUseCase(userRepo, logger)
	lifecycleUseCase := lifecycle.NewUseCase(
		userRepo,
		matchRepo,
		messageRepo,
		textService,
		sched,
		hub,
		logger,
	)
	sched.Bind(lifecycleUseCase)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret, cfg.JWT.AccessExpiryMin)

	// Initialize handlers
	profileHandler := handler.NewProfileHandler(profileUseCase, authMiddleware)
	matchHandler := handler.NewMatchHandler(lifecycleUseCase)
	messageHandler := handler.NewMessageHandler(lifecycleUseCase, hub)

	// Initialize router
	router := http.NewRouter(
		profileHandler,
		matchHandler,
		messageHandler,
		authMiddleware,
	)

	// Setup routes
	ginRouter := router.Setup()

	// Initialize server
	srv := server.NewServer(&cfg.Server, ginRouter, logger)

	return &Container{
		Config:    cfg,
		DB:        db,
		Redis:     redisClient,
		Server:    srv,
		Gemini:    geminiClient,
		Hub:       hub,
		Scheduler: sched,
	}, nil
}

// Close closes all connections
func (c *Container) Close() error {
	if c.Gemini != nil {
		c.Gemini.Close()
	}

	// Close Redis
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			return fmt.Errorf("failed to close redis: %w", err)
		}
	}

	// Close database
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
	}

	return nil
}
