package main

import (
	"context"
	"log"

	"clip-share/config"
	"clip-share/internal/events"
	"clip-share/internal/handler"
	"clip-share/internal/redis"
	"clip-share/internal/repository"
	"clip-share/internal/server"
	"clip-share/internal/services"
	"clip-share/internal/storage"
	"clip-share/internal/thumbnail"
	"clip-share/internal/websocket"
	"clip-share/pkg/database"
	"clip-share/pkg/logger"
)

func main() {
	cfg := config.LoadConfig()

	l := logger.New(cfg.AppMode)
	logger.SetGlobalLogger(l)
	defer l.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to Database
	database.Connect(cfg)
	defer database.Close()

	if err := database.ApplyRawMigrations(ctx, "migrations"); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	redis.Initialize(redis.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	redisClient := redis.GetClient()
	defer redisClient.Close()
	if err := redis.Ping(ctx, redisClient); err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}

	assets, err := storage.NewClient(ctx, storage.S3Config{
		Region:     cfg.S3Region,
		Bucket:     cfg.S3Bucket,
		AccessKey:  cfg.S3AccessKey,
		SecretKey:  cfg.S3SecretKey,
		Endpoint:   cfg.S3Endpoint,
		PublicBase: cfg.S3PublicBase,
		PresignTTL: cfg.S3PresignTTL,
	}, l)
	if err != nil {
		log.Fatalf("Failed to create s3 client: %v", err)
	}

	publisher := events.NewUserPublisher(redis.NewPublisher(redisClient))
	clipRepo := repository.NewClipRepository(database.DB)
	clipCache := redis.NewClipCache(redisClient, cfg.ClipCacheTTL)
	extractor := thumbnail.NewFFmpegExtractor(thumbnail.Config{
		FFmpegPath: cfg.FFmpegPath,
		Count:      cfg.ThumbnailCount,
	}, l)

	authService := services.NewAuthService(cfg)
	catalog := services.NewCatalogQueryService(clipRepo, assets, clipCache, publisher, services.CatalogConfig{
		PublicOrigin: cfg.PublicOrigin,
		PageSize:     cfg.PageSize,
	}, l)
	pipeline := services.NewUploadPipeline(assets, catalog, extractor, publisher,
		services.NewSessionRegistry(services.DefaultSessionRetention),
		services.PipelineConfig{
			PublicOrigin:  cfg.PublicOrigin,
			RedirectDelay: cfg.RedirectDelay,
		}, l)

	hub := websocket.NewHub()
	go hub.Run(ctx)

	bridge := websocket.NewRedisBridge(redis.NewSubscriber(redisClient), hub, l)
	go func() {
		if err := bridge.Run(ctx); err != nil {
			l.Errorf("redis bridge stopped: %v", err)
		}
	}()

	limiter := redis.NewRateLimiter(redisClient, redis.RateLimitConfig{
		UploadLimit:  cfg.UploadLimit,
		UploadWindow: cfg.UploadWindow,
	})

	srv := server.New(cfg, l)
	srv.SetupRoutes(&server.Handlers{
		Upload:    handler.NewUploadHandler(pipeline, catalog, cfg.MaxUploadMB, l),
		Clip:      handler.NewClipHandler(catalog),
		WebSocket: websocket.NewHandler(authService, hub, catalog, l),
	}, server.Dependencies{
		Auth:    authService,
		Limiter: limiter,
		HealthChecks: map[string]func(context.Context) error{
			"database": func(context.Context) error { return database.HealthCheck() },
			"redis":    func(ctx context.Context) error { return redis.Ping(ctx, redisClient) },
		},
	})

	if err := srv.Start(cancel); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}
}
