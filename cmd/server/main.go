package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/admission-chat/internal/answer"
	"github.com/Rrens/admission-chat/internal/api"
	"github.com/Rrens/admission-chat/internal/api/middleware"
	"github.com/Rrens/admission-chat/internal/chat"
	"github.com/Rrens/admission-chat/internal/config"
	"github.com/Rrens/admission-chat/internal/domain"
	"github.com/Rrens/admission-chat/internal/logger"
	"github.com/Rrens/admission-chat/internal/repository"
	"github.com/Rrens/admission-chat/internal/repository/redis"
	"github.com/Rrens/admission-chat/internal/session"
	"github.com/Rrens/admission-chat/internal/store"
)

func main() {
	// Load .env file - try multiple locations
	envPaths := []string{".env", "../.env", "../../.env"}
	envLoaded := false
	for _, p := range envPaths {
		if err := godotenv.Load(p); err == nil {
			fmt.Printf("Loaded .env from: %s\n", p)
			envLoaded = true
			break
		}
	}
	if !envLoaded {
		fmt.Println("Warning: .env file not found in any standard location")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	logCloser, err := logger.Setup(cfg.Logging, os.Getenv("ENV") == "production")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	log.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("storage", cfg.Storage.Driver).
		Str("framing", cfg.Answer.Framing).
		Msg("Starting admission chat server")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize storage
	kv, err := repository.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open storage")
	}
	defer kv.Close()

	sessions := session.NewRepository(ctx, store.New(kv, cfg.Storage.Key, domain.EmptySessionState))
	go func() {
		if err := sessions.Watch(ctx); err != nil {
			log.Error().Err(err).Msg("Session watcher stopped")
		}
	}()

	// Initialize answer service client
	answers, err := answer.NewClient(cfg.Answer)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create answer client")
	}
	controller := chat.NewController(sessions, answers)

	// Initialize Redis rate limiting
	var limiter middleware.Limiter
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer redisClient.Close()

		limiter = redis.NewRateLimiter(redisClient, cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
	}

	// Initialize router
	router := api.NewRouter(api.Dependencies{
		Store:      kv,
		StorageKey: cfg.Storage.Key,
		Sessions:   sessions,
		Controller: controller,
		Limiter:    limiter,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		log.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal
	select {
	case <-ctx.Done():
	case err := <-errCh:
		log.Error().Err(err).Msg("Server failed")
	}

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	controller.Cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	controller.Wait()

	log.Info().Msg("Server stopped")
}
