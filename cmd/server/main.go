package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/barberia/backend/internal/auth"
	"github.com/barberia/backend/internal/config"
	"github.com/barberia/backend/internal/database"
	"github.com/barberia/backend/internal/handlers"
	"github.com/barberia/backend/internal/repositories"
	"github.com/barberia/backend/internal/router"
	"github.com/barberia/backend/internal/services"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	ctx := context.Background()

	godotenv.Load()
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Initialize database connections
	postgresPool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create postgres pool")
	}
	defer postgresPool.Close()

	accountRepo := repositories.NewPostgresAccountRepository(postgresPool)

	// Redis is optional; without it revoked tokens simply run to expiry.
	var denylist repositories.TokenDenylist
	if cfg.RedisURL != "" {
		redisClient, err := database.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create redis client")
		}
		defer redisClient.Close()
		denylist = repositories.NewRedisTokenDenylist(redisClient)
	}

	hasher := auth.NewHasher(cfg.BcryptCost)
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.JWTExpiry)
	authService := services.NewAuthService(accountRepo, denylist, hasher, tokens, log.Logger)
	authHandler := handlers.NewAuthHandler(authService, log.Logger)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: router.New(authHandler, tokens, denylist, log.Logger),
	}

	// graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info().Msg("shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Info().Str("port", cfg.ServerPort).Msg("starting server")
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server error")
	}

	log.Info().Msg("server stopped gracefully")
}
