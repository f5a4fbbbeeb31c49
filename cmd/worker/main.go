package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"garagewatch/internal/config"
	"garagewatch/internal/cooldown"
	"garagewatch/internal/engine"
	"garagewatch/internal/gamelog"
	"garagewatch/internal/handler"
	"garagewatch/internal/ledger"
	"garagewatch/internal/middleware"
	"garagewatch/internal/notify"
	"garagewatch/internal/reconciler"
	"garagewatch/internal/registry"
	"garagewatch/internal/repository"
	"garagewatch/internal/resolver"
	"garagewatch/internal/router"
	"garagewatch/internal/scheduler"
	"garagewatch/internal/store"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting garagewatch worker...")

	// Load configuration
	cfg := config.MustLoad()
	log.Printf("Environment: %s", cfg.App.Environment)

	ctx := context.Background()

	// Initialize durable state stores based on config
	var factory store.Factory
	switch cfg.State.Type {
	case "sqlite":
		sqliteFactory, err := store.NewSQLiteFactory(cfg.State.Path)
		if err != nil {
			log.Fatalf("Failed to initialize SQLite state store: %v", err)
		}
		factory = sqliteFactory
		log.Println("SQLite state store initialized")
	default: // jsonfile
		factory = store.NewJSONFileFactory(cfg.State.Dir)
		log.Println("JSON file state store initialized")
	}
	defer factory.Close()

	dedupStore := mustOpen(factory, "dedup")
	registryStore := mustOpen(factory, "registry")
	pendingStore := mustOpen(factory, "pending")
	bindingStore := mustOpen(factory, "bindings")

	// Initialize MySQL connection to the game-state store (optional)
	var gameRepo repository.GameEntityRepository

	mysqlDB, err := sql.Open("mysql", cfg.Database.DSN())
	if err != nil {
		log.Printf("Warning: MySQL connection failed: %v", err)
	} else {
		mysqlDB.SetMaxOpenConns(10)
		mysqlDB.SetMaxIdleConns(5)
		mysqlDB.SetConnMaxLifetime(5 * time.Minute)

		if err := mysqlDB.Ping(); err != nil {
			log.Printf("Warning: MySQL ping failed, entity resolution degrades to standalone: %v", err)
			mysqlDB.Close()
			mysqlDB = nil
		} else {
			gameRepo = repository.NewMySQLGameEntityRepository(mysqlDB, cfg.Database.QueryTimeout)
			log.Println("Game-state repository initialized")
		}
	}
	if mysqlDB != nil {
		defer mysqlDB.Close()
	}

	// Initialize cooldown guard: Redis when reachable, memory otherwise
	var guard cooldown.Guard
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Cache.RedisAddress(),
		Password: cfg.Cache.RedisPassword,
		DB:       cfg.Cache.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		log.Printf("Warning: Redis connection failed, using in-memory cooldown guard: %v", err)
		redisClient.Close()
		memGuard := cooldown.NewMemoryGuard(cfg.Engine.CooldownWindow)
		defer memGuard.Close()
		guard = memGuard
	} else {
		guard = cooldown.NewRedisGuard(redisClient, cfg.Engine.CooldownWindow)
		log.Println("Redis cooldown guard initialized")
	}
	cancel()

	// Initialize notification channel
	var channel notify.Channel
	if cfg.Notify.BaseURL != "" {
		channel = notify.NewHTTPChannel(cfg.Notify.BaseURL, cfg.Notify.ChannelID, cfg.Notify.AuthToken, cfg.Notify.Timeout)
		log.Println("HTTP notification channel initialized")
	} else {
		channel = notify.NewLogChannel()
		log.Println("Warning: NOTIFY_BASE_URL not set, summaries go to the process log")
	}

	// Load durable state
	dedupLedger, err := ledger.Load(ctx, dedupStore)
	if err != nil {
		log.Fatalf("Failed to load dedup ledger: %v", err)
	}
	reg, err := registry.Load(ctx, registryStore)
	if err != nil {
		log.Fatalf("Failed to load registry: %v", err)
	}
	synchronizer, err := notify.LoadSynchronizer(ctx, channel, bindingStore)
	if err != nil {
		log.Fatalf("Failed to load notification bindings: %v", err)
	}
	rec, err := reconciler.Load(ctx, reg, pendingStore, guard, channel, cfg.Engine.PendingTTL)
	if err != nil {
		log.Fatalf("Failed to load reconciler: %v", err)
	}

	// Assemble the engine
	reader := gamelog.NewReader(cfg.GameLog.Dir, cfg.GameLog.FilePrefix, cfg.GameLog.FileSuffix, cfg.GameLog.ScratchDir)
	eng := engine.New(engine.Config{
		Reader:       reader,
		Resolver:     resolver.New(gameRepo),
		Ledger:       dedupLedger,
		Reconciler:   rec,
		Registry:     reg,
		Synchronizer: synchronizer,
		Repo:         gameRepo,
	})

	// Start the tick scheduler
	sched := scheduler.New(eng, cfg.Engine.PollInterval)
	sched.Start()

	// Initialize handlers
	healthHandler := handler.New(cfg.App.Version)
	commandHandler := handler.NewCommandHandler(eng)
	ownerHandler := handler.NewOwnerHandler(eng)
	engineHandler := handler.NewEngineHandler(eng)
	linkHandler := handler.NewLinkHandler(eng)

	authMiddleware := middleware.NewAuthMiddleware(middleware.AuthConfig{})

	// Create router
	r := router.New(router.Config{
		Handler:        healthHandler,
		CommandHandler: commandHandler,
		OwnerHandler:   ownerHandler,
		EngineHandler:  engineHandler,
		LinkHandler:    linkHandler,
		AuthMiddleware: authMiddleware,
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
	log.Println("Shutting down worker...")

	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Worker stopped")
}

// mustOpen opens a named store or exits.
func mustOpen(factory store.Factory, name string) store.Store {
	st, err := factory.Open(name)
	if err != nil {
		log.Fatalf("Failed to open %s store: %v", name, err)
	}
	return st
}
