package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/product-sync/app/api"
	"github.com/lysyi3m/product-sync/app/cache"
	"github.com/lysyi3m/product-sync/app/cfg"
	"github.com/lysyi3m/product-sync/app/database"
	"github.com/lysyi3m/product-sync/app/importer"
	"github.com/lysyi3m/product-sync/app/sources"
	"github.com/lysyi3m/product-sync/app/tasks"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Load configuration from environment variables and command-line flags
	appCfg, err := cfg.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	log.Println("Starting Product Sync server...")

	// Database connection
	log.Println("Connecting to database...")
	db, err := database.NewConnection(
		appCfg.DBHost, appCfg.DBPort, appCfg.DBUser,
		appCfg.DBPassword, appCfg.DBName)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()
	log.Printf("Connected to database successfully")

	// Apply schema migrations
	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		log.Fatal("Failed to run migrations:", err)
	}
	log.Printf("Database schema up to date (version: %d, dirty: %v)", version, dirty)

	// Load source configurations
	log.Printf("Loading source configurations from %s...", appCfg.SourcesDir)
	configCache := sources.NewConfigCache(appCfg.SourcesDir)
	if err := configCache.Run(); err != nil {
		log.Fatal("Failed to load source configurations:", err)
	}
	log.Printf("Loaded %d source configurations", configCache.GetConfigCount())

	// Redis connection for the aggregate cache
	log.Println("Connecting to cache...")
	aggregateCache, err := cache.NewCache(appCfg.RedisAddr)
	if err != nil {
		log.Fatal("Failed to connect to cache:", err)
	}
	defer aggregateCache.Close()
	log.Printf("Connected to cache successfully")

	// Initialize core components
	productRepo := database.NewProductRepository(db)
	coordinator := importer.NewCoordinator(productRepo, aggregateCache,
		&http.Client{}, appCfg.UserAgent)

	// Initialize and start scheduler
	log.Printf("Starting background scheduler with %d workers...", appCfg.WorkerCount)
	taskScheduler := tasks.NewScheduler(configCache, coordinator)
	taskScheduler.Start()
	defer taskScheduler.Stop()

	// Initialize HTTP server
	log.Println("Initializing HTTP server...")
	apiHandler := api.NewHandler(configCache, productRepo, aggregateCache, coordinator, taskScheduler)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey)

	// Create HTTP server with timeouts
	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start HTTP server in a goroutine
	serverErrChan := make(chan error, 1)
	go func() {
		log.Printf("Starting HTTP server on port %s", appCfg.Port)
		log.Printf("API endpoints available:")
		log.Printf("  Health check:  http://localhost:%s/health", appCfg.Port)
		log.Printf("  Items:         http://localhost:%s/api/items", appCfg.Port)
		log.Printf("  Statistics:    http://localhost:%s/api/stats/avg-price-by-category", appCfg.Port)

		if appCfg.APIAccessKey != "" {
			log.Printf("  Import:        http://localhost:%s/api/import (POST, requires API key)", appCfg.Port)
		} else {
			log.Printf("  Import:        http://localhost:%s/api/import (POST, UNPROTECTED - API_ACCESS_KEY not set)", appCfg.Port)
		}

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	log.Println("Product Sync server started successfully!")
	log.Println("Press Ctrl+C to shutdown gracefully...")

	select {
	case sig := <-sigChan:
		log.Printf("Received signal: %v", sig)
	case err := <-serverErrChan:
		log.Printf("Server error: %v", err)
	}

	// Graceful shutdown
	log.Println("Shutting down server gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	} else {
		log.Println("HTTP server stopped")
	}

	// Scheduler is stopped via defer
	log.Println("Background scheduler stopped")

	log.Println("Product Sync server shutdown complete")
}
