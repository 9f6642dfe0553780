package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lush-moments/backend/internal/api"
	"lush-moments/backend/internal/ws"
	"lush-moments/backend/pkg/config"
	"lush-moments/backend/pkg/di"
	"lush-moments/backend/pkg/errors"
	"lush-moments/backend/pkg/jwt"
	"lush-moments/backend/pkg/logger"
	"lush-moments/backend/pkg/middleware"
)

// Router is the main router for the application
type Router struct {
	Engine    *gin.Engine
	Container *di.Container
	Logger    *logger.Logger
	Hub       *ws.Hub
	Gateway   *ws.Gateway
	Config    *config.Config
}

// New creates a new router with the given container
func New(container *di.Container) *Router {
	// Use the container's logger
	logger.SetGlobal(container.Logger)

	cfg := container.Config

	// Configure Gin mode based on environment
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize Gin router
	engine := gin.New()

	// Use the logger middleware first to capture all requests
	engine.Use(logger.Middleware(container.Logger))

	// Tag every request with an ID for correlation
	engine.Use(middleware.RequestIDMiddleware())

	// Add custom error handler middleware
	engine.Use(errors.ErrorHandler())

	// Add custom recovery middleware with structured logging instead of default
	engine.Use(errors.RecoveryWithLogger())

	// Create rate limiter with default options
	rateLimiter := middleware.NewRateLimiter(container.Logger)

	// Apply rate limiting to all routes
	engine.Use(rateLimiter.Middleware())

	// Connection registry and websocket gateway
	hub := ws.NewHub(container.Logger)
	gateway := ws.NewGateway(
		hub,
		container.ChatService,
		container.Orchestrator,
		container.JWTService,
		cfg,
		container.Logger,
	)

	return &Router{
		Engine:    engine,
		Container: container,
		Logger:    container.Logger,
		Hub:       hub,
		Gateway:   gateway,
		Config:    cfg,
	}
}

// SetupRoutes registers all application routes
func (r *Router) SetupRoutes() {
	// Add CORS middleware
	r.Engine.Use(corsMiddleware())

	// Create JWT auth middleware
	jwtAuth := middleware.JWTAuthMiddleware(r.Container.JWTService, r.Logger)

	// Initialize handlers
	authHandler := api.NewAuthHandler(r.Container.UserService, r.Container.JWTService, r.Logger)
	chatHandler := api.NewChatHandler(r.Container.ChatService, r.Config, r.Logger)
	adminChatHandler := api.NewAdminChatHandler(r.Container.ChatService, r.Hub, r.Logger)

	// Health endpoints
	r.setupHealthRoutes()

	// Prometheus metrics
	r.Engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API version 1 routes
	v1 := r.Engine.Group("/api/v1")

	// Public routes (no auth required)
	authRoutes := v1.Group("/auth")
	{
		authRoutes.POST("/signup", authHandler.Signup)
		authRoutes.POST("/login", authHandler.Login)
		authRoutes.GET("/me", jwtAuth, authHandler.Me)
	}

	chatRoutes := v1.Group("/chat")
	{
		chatRoutes.GET("/history/:sessionID", chatHandler.History)
		chatRoutes.GET("/session/:sessionID/status", chatHandler.SessionStatus)
		chatRoutes.POST("/merge-session", jwtAuth, chatHandler.MergeSession)
		chatRoutes.GET("/my-sessions", jwtAuth, chatHandler.MySessions)
	}

	// Operator routes (admin only)
	adminRoutes := v1.Group("/admin")
	adminRoutes.Use(jwtAuth, middleware.RequireRole(jwt.RoleAdmin))
	{
		adminRoutes.POST("/chat/:sessionID/reply", adminChatHandler.Reply)
		adminRoutes.PUT("/users/:id/role", authHandler.UpdateUserRole)
	}

	// WebSocket route
	if r.Config.Features.EnableWebSockets {
		r.Engine.GET("/ws/chat/:sessionID", r.Gateway.HandleConnection)
	}
}

// Enhance CORS middleware to explicitly allow WebSocket-specific headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		if origin != "*" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept, Accept-Encoding, X-CSRF-Token, Authorization, Origin, Upgrade, Connection, Cache-Control")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Upgrade, Connection")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
