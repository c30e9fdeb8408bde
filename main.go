package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"farefeed/internal/api"
	"farefeed/internal/cache"
	"farefeed/internal/client"
	"farefeed/internal/config"
	"farefeed/internal/engine"
	"farefeed/internal/feed"
	"farefeed/internal/session"
	"farefeed/internal/stations"
	"farefeed/internal/storage"

	_ "farefeed/docs"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize response cache for upstream probes
	cacheManager := cache.NewManager(cfg.CacheTTL, cfg.StaleTTL)

	// Initialize persistent fare history
	storageManager, err := storage.NewStorage(cfg.DataDir)
	if err != nil {
		log.Fatal("Failed to initialize storage:", err)
	}

	// Clean up old fare records based on retention policy
	log.Printf("Cleaning up fare records older than %v", cfg.HistoryRetention)
	if err := storageManager.CleanupOldRecords(cfg.HistoryRetention); err != nil {
		log.Printf("Warning: failed to cleanup old records: %v", err)
	}

	// Process-wide provider session shared by all queries
	providerSession := session.New()
	upstreamClient := client.New(cfg, providerSession, cacheManager)

	resolver := stations.NewResolver(upstreamClient, cfg)
	fareEngine := engine.New(upstreamClient, cfg)
	assembler := feed.NewAssembler(cfg)

	// Initialize API server
	server := api.NewServer(resolver, fareEngine, assembler, storageManager, cfg)

	log.Printf("Starting fare feed server on port %d", cfg.Port)
	log.Printf("Provider: %s", cfg.ProviderURL)
	log.Printf("Data directory: %s", cfg.DataDir)
	log.Printf("Response cache TTL: %v (stale window: %v)", cfg.CacheTTL, cfg.StaleTTL)
	log.Printf("Inter-probe delay: %v", cfg.ProbeDelay)

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Create a context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start signal handler in goroutine
	go func() {
		<-sigChan
		log.Println("Received shutdown signal, stopping services...")
		if err := storageManager.Close(); err != nil {
			log.Printf("Warning: failed to close storage: %v", err)
		}
		cancel()
	}()

	// Start the server with context for graceful shutdown
	if err := server.StartWithContext(ctx); err != nil && err != context.Canceled {
		log.Fatal("Failed to start server:", err)
	}
}
