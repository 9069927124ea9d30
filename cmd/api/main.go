package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/server"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/storage"
)

func main() {
	// Initialize configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to database", "error", err)
	}
	if err := database.RunMigrations(db, migrationsDir(), log); err != nil {
		log.Fatal("Failed to run migrations", "error", err)
	}

	var rdb *redis.Client
	var blocklist service.TokenBlocklist = service.NewMemoryBlocklist()
	if cfg.Redis.Enabled {
		rdb, err = database.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to redis", "error", err)
		}
		defer rdb.Close()
		blocklist = service.NewRedisBlocklist(rdb)
		log.Info("Connected to redis")
	} else {
		log.Warn("Redis disabled; token revocation and rate limits are per instance")
	}

	images, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		log.Fatal("Failed to initialize image storage", "error", err)
	}

	// Initialize services
	links := service.NewShortLinker(db, cfg.Recipes, log)
	relations := service.NewRelationService(db, log)
	deps := api.Dependencies{
		Config:          cfg,
		DB:              db,
		Redis:           rdb,
		Log:             log,
		Auth:            service.NewAuthService(db, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, blocklist, log),
		Users:           service.NewUserService(db, images, log),
		Recipes:         service.NewRecipeService(db, images, links, cfg.Recipes, log),
		Relations:       relations,
		Catalog:         service.NewCatalogService(db),
		Shopping:        service.NewShoppingListService(db),
		Presenter:       service.NewPresenter(db, relations),
		CreationLimiter: middleware.NewRecipeCreationRateLimiter(rdb, cfg.Recipes, log),
	}

	var opts []server.Option
	if local, ok := images.(*storage.LocalStore); ok {
		opts = append(opts, server.WithMediaRoot(cfg.Storage.MediaURL, local.Root()))
	}
	srv := server.New(deps, opts...)

	// Channel to listen for errors coming from the server
	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		if err != nil {
			log.Fatal("Server error", "error", err)
		}
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.Error("Server shutdown error", "error", err)
		return
	}
	log.Info("Server stopped")
}

func migrationsDir() string {
	if dir := os.Getenv("MIGRATIONS_DIR"); dir != "" {
		return dir
	}
	return "migrations"
}
