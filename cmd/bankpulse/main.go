package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bankpulse/bankpulse/internal/api"
	"github.com/bankpulse/bankpulse/internal/cache"
	"github.com/bankpulse/bankpulse/internal/compliance"
	"github.com/bankpulse/bankpulse/internal/config"
	"github.com/bankpulse/bankpulse/internal/engine"
	"github.com/bankpulse/bankpulse/internal/generator"
	"github.com/bankpulse/bankpulse/internal/randutil"
	"github.com/bankpulse/bankpulse/internal/storage"
	"github.com/bankpulse/bankpulse/internal/stream"
	"github.com/bankpulse/bankpulse/internal/underwriting"
	"github.com/bankpulse/bankpulse/internal/workerpool"
)

func main() {
	log.Println("Starting BankPulse...")

	// Load configuration
	cfg := loadConfig()

	// Shared random source; a fixed seed reproduces entire datasets
	rng := randutil.New(cfg.Generator.Seed)

	gen := generator.New(rng)
	detector := compliance.NewDetector(cfg.Compliance.Assignees)
	model := underwriting.NewModel(&underwriting.Config{
		Latency: cfg.Underwriting.Latency,
	})
	pool := workerpool.New(cfg.Underwriting.Workers, cfg.Underwriting.QueueSize)
	defer pool.Stop()
	eng := engine.New(gen, detector, model, pool)

	// Optional sinks for the live feed
	var sinks []stream.Sink

	if cfg.Database.Enabled {
		archive, err := storage.NewAlertArchive(context.Background(), cfg.Database.URL)
		if err != nil {
			log.Printf("Alert archive unavailable: %v", err)
		} else {
			defer archive.Close()
			sinks = append(sinks, archive)
		}
	}

	snapshotCache, err := cache.New(cfg.Redis.URL, cfg.Redis.Enabled)
	if err != nil {
		log.Printf("Snapshot cache unavailable: %v", err)
	} else if snapshotCache.IsEnabled() {
		defer snapshotCache.Close()
		sinks = append(sinks, snapshotCache)
	}

	coordinator := stream.NewCoordinator(&stream.Config{
		MinInterval:     cfg.Stream.MinInterval,
		MaxInterval:     cfg.Stream.MaxInterval,
		MaxTransactions: cfg.Stream.MaxTransactions,
		MaxAlerts:       cfg.Stream.MaxAlerts,
		PoolSize:        cfg.Stream.PoolSize,
	}, gen, detector, rng, sinks...)

	// Create API server
	server := api.NewServer(cfg, eng, coordinator)

	// Start HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("BankPulse API listening on port %d", cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down BankPulse...")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	coordinator.Stop()

	log.Println("BankPulse stopped")
}

func loadConfig() *config.Config {
	configPath := os.Getenv("BANKPULSE_CONFIG")
	if configPath != "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			log.Printf("Failed to load config from %s: %v, using defaults", configPath, err)
			return config.LoadFromEnv()
		}
		return cfg
	}
	return config.LoadFromEnv()
}
