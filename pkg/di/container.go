package di

import (
	"context"
	"time"

	"lush-moments/backend/internal/agent"
	"lush-moments/backend/internal/service"
	"lush-moments/backend/pkg/cache"
	"lush-moments/backend/pkg/config"
	"lush-moments/backend/pkg/health"
	"lush-moments/backend/pkg/jwt"
	"lush-moments/backend/pkg/logger"
	"lush-moments/backend/pkg/secrets"
	sharedredis "lush-moments/backend/shared/redis"

	"gorm.io/gorm"
)

// Container holds all the dependencies for the application
type Container struct {
	DB             *gorm.DB
	Config         *config.Config
	Logger         *logger.Logger
	JWTService     *jwt.Service
	UserService    *service.UserService
	ChatService    *service.ChatService
	CatalogService *service.CatalogService
	Cache          *cache.Cache
	Redis          *sharedredis.RedisClient
	Orchestrator   *agent.Orchestrator
	Health         *health.Checker
}

// New creates a new dependency injection container
func New(db *gorm.DB, cfg *config.Config, log *logger.Logger) (*Container, error) {
	// Initialize JWT service
	jwtService := jwt.NewService(cfg.JWT.Secret, cfg.JWT.ExpiryHours)

	// Initialize secrets (Vault when configured, environment otherwise)
	if err := secrets.Init(log); err != nil {
		log.Warn("Secrets manager unavailable, using environment only", "error", err.Error())
	}

	// Shared cache layers for catalog text
	var redisClient *sharedredis.RedisClient
	if cfg.Cache.Enabled && cfg.Redis.Addr != "" {
		redisClient = sharedredis.NewRedisClient()
	}
	inProcCache := cache.NewCache()

	// Core services
	userService := service.NewUserService(db)
	chatService := service.NewChatService(db)
	catalogService := service.NewCatalogService(db, inProcCache, redisClient, log)

	// The model API key may come from Vault or the environment. A
	// missing key is not fatal: the orchestrator answers with its
	// configuration fallback and retries initialization per call.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	apiKey := secrets.GetSecretWithDefault(ctx, "openai_api_key", "")

	// Periodic component checks backing the health endpoint
	checker := health.NewChecker(log, 30*time.Second)
	checker.RegisterDatabaseCheck(func() error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Ping()
	})
	if redisClient != nil {
		checker.RegisterRedisCheck(redisClient.Ping)
	}
	checker.Start()

	orchestrator := agent.New(agent.Config{
		APIKey:       apiKey,
		BaseURL:      cfg.Agent.BaseURL,
		Model:        cfg.Agent.Model,
		Temperature:  cfg.Agent.Temperature,
		MaxTokens:    cfg.Agent.MaxTokens,
		Timeout:      cfg.Agent.Timeout,
		MaxToolSteps: cfg.Agent.MaxToolSteps,
	}, catalogService, log)

	return &Container{
		DB:             db,
		Config:         cfg,
		Logger:         log,
		JWTService:     jwtService,
		UserService:    userService,
		ChatService:    chatService,
		CatalogService: catalogService,
		Cache:          inProcCache,
		Redis:          redisClient,
		Orchestrator:   orchestrator,
		Health:         checker,
	}, nil
}
