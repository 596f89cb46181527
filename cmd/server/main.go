package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"tokokita/backend/internal/cache"
	"tokokita/backend/internal/config"
	"tokokita/backend/internal/httpapi"
	"tokokita/backend/internal/scheduler"
	"tokokita/backend/internal/service"
	"tokokita/backend/internal/store"
	"tokokita/backend/internal/store/memory"
	"tokokita/backend/internal/store/postgres"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[main] WARN: .env not loaded: %v", err)
	}

	cfg := config.Load()
	if err := validateSecurityConfig(cfg); err != nil {
		log.Fatalf("[main] %v", err)
	}

	loc, err := cfg.Location()
	if err != nil {
		log.Printf("[main] WARN: %v, falling back to UTC", err)
	}

	ctx := context.Background()

	var repo store.Repository
	var closeRepo func() error
	if cfg.DatabaseURL != "" {
		pg, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("[main] postgres: %v", err)
		}
		repo = pg
		closeRepo = pg.Close
		log.Printf("[main] using postgres store")
	} else {
		repo = memory.NewSeeded()
		log.Printf("[main] DATABASE_URL not set, using seeded in-memory store")
	}

	var alerts cache.AlertCache = cache.NoopAlertCache{}
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisAlertCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			log.Printf("[main] WARN: redis unreachable, alert cache disabled: %v", err)
		} else {
			alerts = redisCache
			defer redisCache.Close()
			log.Printf("[main] alert cache on redis %s", cfg.RedisAddr)
		}
	}

	svc := service.New(repo, alerts, loc, cfg.AlertCacheTTL())
	auth := httpapi.NewAuthManager(cfg.AuthSecret, cfg.AccessTokenTTL(), repo)
	api := httpapi.New(svc, auth, cfg.AllowedOrigin)

	digest := scheduler.New(svc, scheduler.LogNotifier{}, loc, cfg.DigestHour)
	digest.Start()
	defer digest.Stop()

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("[main] listening on %s", cfg.Address())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[main] server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("[main] shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[main] WARN: shutdown: %v", err)
	}

	if closeRepo != nil {
		if err := closeRepo(); err != nil {
			log.Printf("[main] WARN: store close: %v", err)
		}
	}
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	return nil
}
