package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"mercadona/snapshot/internal/config"
	"mercadona/snapshot/internal/container"
	"mercadona/snapshot/internal/domain"

	log "github.com/sirupsen/logrus"
)

// Exit codes: 0 complete snapshot, 1 fatal failure, 2 valid but incomplete
// snapshot (misses, failed categories, or interrupt).
const exitIncomplete = 2

func main() {
	log.Info("Starting Mercadona catalog snapshot...")

	// Load configuration using viper
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.Info("Configuration loaded successfully")

	// Initialize container with all dependencies
	app, err := container.New(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer app.Close()

	// An interrupt stops issuing new requests and flushes what was fetched.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Run the pipeline
	if err := app.Run(ctx); err != nil {
		if errors.Is(err, domain.ErrIncomplete) {
			log.Warnf("Snapshot incomplete: %v", err)
			app.Close()
			os.Exit(exitIncomplete)
		}
		log.Fatalf("Application exited with error: %v", err)
	}

	log.Info("Application finished successfully")
}
