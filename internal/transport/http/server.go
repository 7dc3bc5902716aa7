package http

import (
	"context"
	"fmt"
	"log"
	stdhttp "net/http"

	"vidtube/internal/cache"
	"vidtube/internal/config"
	"vidtube/internal/database"
	"vidtube/internal/handler"
	"vidtube/internal/redis"
	"vidtube/internal/repository"
	"vidtube/internal/service"
)

func Run() error {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Redis is optional; without it channel profiles are always aggregated fresh
	var profileCache *cache.ProfileCache
	if cfg.RedisURL != "" {
		redisClient, err := redis.NewClient(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to create redis client: %w", err)
		}
		if err := redisClient.Ping(ctx); err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redisClient.Close()
		profileCache = cache.NewProfileCache(redisClient.Client)
	}

	mediaService, err := service.NewMediaService(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create media service: %w", err)
	}

	userRepo := repository.NewUserRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	videoRepo := repository.NewVideoRepository(db)

	tokenService := service.NewTokenService(cfg)
	authService := service.NewAuthService(userRepo, tokenService)
	userService := service.NewUserService(userRepo, subscriptionRepo, videoRepo, mediaService, profileCache)

	router := NewRouter(RouterConfig{
		AuthHandler: handler.NewAuthHandler(userService, authService, cfg),
		UserHandler: handler.NewUserHandler(userService),
		Tokens:      tokenService,
		Users:       userRepo,
		CORSOrigin:  cfg.CORSOrigin,
	})

	addr := ":" + cfg.ServerPort
	log.Printf("Starting server on %s", addr)
	return stdhttp.ListenAndServe(addr, router)
}
