package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"steamvault-rest-api/internal/cache"
	"steamvault-rest-api/internal/config"
	"steamvault-rest-api/internal/fetch"
	"steamvault-rest-api/internal/handler"
	"steamvault-rest-api/internal/middleware"
	"steamvault-rest-api/internal/repository"
	"steamvault-rest-api/internal/router"
	"steamvault-rest-api/internal/service"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting SteamVault API...")

	// Load configuration
	cfg := config.MustLoad()
	log.Printf("Environment: %s", cfg.App.Environment)

	// Initialize snapshot/cache store based on config
	var snapshotStore repository.SnapshotStore
	var itemCacheStore repository.ItemCacheStore

	switch cfg.SnapshotDB.Type {
	case "postgres", "postgresql":
		pgStore, err := repository.NewPostgresStore(cfg.SnapshotDB.PostgresDSN())
		if err != nil {
			log.Fatalf("Failed to initialize PostgreSQL: %v", err)
		}
		defer pgStore.Close()
		snapshotStore = pgStore
		itemCacheStore = pgStore
		log.Println("PostgreSQL store initialized")
	default: // sqlite
		sqliteStore, err := repository.NewSQLiteStore(cfg.SnapshotDB.Path)
		if err != nil {
			log.Fatalf("Failed to initialize SQLite: %v", err)
		}
		defer sqliteStore.Close()
		snapshotStore = sqliteStore
		itemCacheStore = sqliteStore
		log.Println("SQLite store initialized")
	}

	// Initialize MySQL connection for api keys (optional)
	var err error
	var mysqlDB *sql.DB
	var apiKeyRepo *repository.MySQLAPIKeyRepository

	mysqlDSN := cfg.Database.DSN()
	mysqlDB, err = sql.Open("mysql", mysqlDSN)
	if err != nil {
		log.Printf("Warning: MySQL connection failed: %v", err)
	} else {
		mysqlDB.SetMaxOpenConns(10)
		mysqlDB.SetMaxIdleConns(5)
		mysqlDB.SetConnMaxLifetime(5 * time.Minute)

		if err := mysqlDB.Ping(); err != nil {
			log.Printf("Warning: MySQL ping failed: %v", err)
			mysqlDB.Close()
			mysqlDB = nil
		} else {
			apiKeyRepo = repository.NewMySQLAPIKeyRepository(mysqlDB)
			log.Println("MySQL repository initialized")
		}
	}
	if mysqlDB != nil {
		defer mysqlDB.Close()
	}

	// Initialize Redis client
	redisAddr := cfg.Cache.RedisAddress()
	redisClient := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: cfg.Cache.RedisPassword,
		DB:       cfg.Cache.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: Redis connection failed: %v", err)
		redisClient = nil
	} else {
		log.Println("Redis client initialized")
	}
	cancel()

	// Initialize Redis snapshot buffer and hot cache tier
	var redisBuffer *cache.RedisSnapshotBuffer
	var hotCache cache.Cache
	if redisClient != nil {
		bufferCfg := cache.RedisBufferConfig{
			Addr:          redisAddr,
			Password:      cfg.Cache.RedisPassword,
			DB:            cfg.Cache.RedisDB,
			FlushInterval: 30 * time.Second,
		}
		flushFunc := service.CreateFlushFunc(snapshotStore)
		redisBuffer, err = cache.NewRedisSnapshotBuffer(bufferCfg, flushFunc)
		if err != nil {
			log.Printf("Warning: Redis buffer initialization failed: %v", err)
		} else {
			log.Println("Redis snapshot buffer initialized")
		}
		hotCache = cache.NewRedisCache(redisClient, "")
	} else {
		hotCache = cache.NewMemoryCache()
		log.Println("Memory cache initialized (Redis unavailable)")
	}

	// Initialize the upstream fetcher
	strategies, err := fetch.ParseStrategies(cfg.Fetch.Strategies)
	if err != nil {
		log.Fatalf("Failed to parse fetch strategies: %v", err)
	}
	log.Printf("Fetch strategies configured: %d", len(strategies))

	fetcher := fetch.NewFetcher(fetch.Options{
		Strategies:  strategies,
		Timeout:     cfg.Fetch.Timeout,
		MaxAttempts: cfg.Fetch.MaxAttempts,
		BackoffBase: cfg.Fetch.BackoffBase,
		UserAgent:   cfg.Fetch.UserAgent,
	})

	// Initialize services
	inventoryService := service.NewInventoryService(service.InventoryServiceConfig{
		Fetcher:   fetcher,
		Snapshots: snapshotStore,
		ItemCache: itemCacheStore,
		Hot:       hotCache,
		Buffer:    redisBuffer,
		TTL:       cfg.Cache.TTL,
		ClearKey:  cfg.App.ClearKey,
	})

	var tokenService *service.TokenService
	if redisClient != nil {
		tokenService = service.NewTokenService(redisClient, cfg.App.TokenTTL)
	}

	// Start stale snapshot cleanup
	var cleanup *service.CleanupScheduler
	if cfg.Cleanup.Enabled {
		cleanup = service.NewCleanupScheduler(snapshotStore, service.CleanupConfig{
			StaleThreshold: cfg.Cleanup.InactiveThreshold,
			Interval:       cfg.Cleanup.Interval,
		})
		cleanup.Start()
	}

	// Initialize handlers
	healthHandler := handler.New(cfg.App.Version)
	inventoryHandler := handler.NewInventoryHandler(inventoryService)
	cacheHandler := handler.NewCacheHandler(inventoryService)
	leaderboardHandler := handler.NewLeaderboardHandler(inventoryService)
	adminHandler := handler.NewAdminHandler(redisBuffer, snapshotStore, cfg.SnapshotDB.Type, cfg.App.LoginKey)

	var authHandler *handler.AuthHandler
	if tokenService != nil && apiKeyRepo != nil {
		authHandler = handler.NewAuthHandler(tokenService, apiKeyRepo)
	}

	// Create auth middleware with injected dependencies
	authMiddleware := middleware.NewAuthMiddleware(middleware.AuthConfig{
		TokenService: tokenService,
	})

	// Create router
	r := router.New(router.Config{
		Handler:            healthHandler,
		InventoryHandler:   inventoryHandler,
		CacheHandler:       cacheHandler,
		LeaderboardHandler: leaderboardHandler,
		AdminHandler:       adminHandler,
		AuthHandler:        authHandler,
		AuthMiddleware:     authMiddleware,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on %s", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel = context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if cleanup != nil {
		cleanup.Stop()
	}

	// Close Redis buffer first (flushes pending data)
	if redisBuffer != nil {
		log.Println("Closing Redis buffer...")
		redisBuffer.Close()
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
	fmt.Println("Goodbye!")
}
