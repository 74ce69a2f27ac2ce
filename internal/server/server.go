package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clip-share/config"
	"clip-share/internal/handler"
	"clip-share/internal/middleware"
	"clip-share/internal/redis"
	"clip-share/internal/transport/httpdto"
	"clip-share/internal/websocket"
	"clip-share/pkg/logger"

	"github.com/gin-gonic/gin"
)

type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     *config.Config
	logger     *logger.Logger
}

var (
	ReleaseMode = "release"
	DebugMode   = "debug"
	TestMode    = "test"
)

type Handlers struct {
	Upload    *handler.UploadHandler
	Clip      *handler.ClipHandler
	WebSocket *websocket.Handler
}

// Dependencies are the cross-cutting collaborators of the route table.
type Dependencies struct {
	Auth    middleware.Authenticator
	Limiter *redis.RateLimiter
	// HealthChecks run on GET /health; the first failure marks the service unhealthy.
	HealthChecks map[string]func(ctx context.Context) error
}

func New(cfg *config.Config, l *logger.Logger) *Server {
	switch cfg.AppMode {
	case ReleaseMode:
		gin.SetMode(gin.ReleaseMode)
	case TestMode:
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.MaxMultipartMemory = int64(cfg.MaxUploadMB) << 20

	return &Server{
		httpServer: &http.Server{
			Addr:    fmt.Sprintf(":%s", cfg.AppPort),
			Handler: engine,
		},
		engine: engine,
		config: cfg,
		logger: l,
	}
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) SetupRoutes(handlers *Handlers, deps Dependencies) {
	s.engine.Use(middleware.RequestIDMiddleware())
	s.engine.Use(middleware.CORSMiddleware(s.config.PublicOrigin))
	s.engine.Use(middleware.LoggingMiddleware(s.logger))
	s.engine.Use(middleware.ErrorHandler(s.logger))

	s.engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"message": "pong"}))
	})

	s.engine.GET("/health", func(c *gin.Context) {
		for name, check := range deps.HealthChecks {
			if err := check(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse(name+": "+err.Error(), "UNHEALTHY"))
				return
			}
		}
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"status": "healthy"}))
	})

	resolve := []gin.HandlerFunc{handlers.Clip.Resolve}
	if deps.Limiter != nil {
		resolve = append([]gin.HandlerFunc{middleware.ResolveRateLimitMiddleware(deps.Limiter)}, resolve...)
	}
	s.engine.GET("/clip/:id", resolve...)

	v1 := s.engine.Group("/v1")
	{
		v1.GET("/clips", middleware.OptionalAuth(deps.Auth), handlers.Clip.List)
		v1.GET("/clips/:id/link", handlers.Clip.Link)
		v1.GET("/ws", handlers.WebSocket.Connect)
	}

	authed := v1.Group("", middleware.AuthMiddleware(deps.Auth))
	{
		publish := []gin.HandlerFunc{handlers.Upload.Publish}
		if deps.Limiter != nil {
			publish = append([]gin.HandlerFunc{middleware.UploadRateLimitMiddleware(deps.Limiter)}, publish...)
		}

		authed.POST("/uploads", handlers.Upload.Submit)
		authed.GET("/uploads/:id", handlers.Upload.GetByID)
		authed.PUT("/uploads/:id/thumbnail", handlers.Upload.SelectThumbnail)
		authed.POST("/uploads/:id/publish", publish...)
		authed.DELETE("/uploads/:id", handlers.Upload.Cancel)

		authed.GET("/me/clips", handlers.Clip.ListMine)
		authed.PATCH("/clips/:id", handlers.Clip.Update)
		authed.DELETE("/clips/:id", handlers.Clip.Delete)
	}
}

// Start serves until SIGINT or SIGTERM, then shuts down gracefully and runs onShutdown.
func (s *Server) Start(onShutdown ...func()) error {
	go func() {
		s.logger.Infof("Starting the server on port %s...", s.config.AppPort)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Errorf("Error in starting the server: %s", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	s.logger.Infof("Quitting signal received.. Shutting down after 5 seconds")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	err := s.httpServer.Shutdown(ctx)
	for _, fn := range onShutdown {
		fn()
	}
	if err != nil {
		s.logger.Errorf("Error in the graceful shutdown of the server: %s", err)
		return err
	}

	s.logger.Infof("Server stopped gracefully")
	return nil
}
