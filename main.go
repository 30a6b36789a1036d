package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"backoffice/api"
	"backoffice/config"
	"backoffice/ingest"
	"backoffice/logging"
	"backoffice/scheduler"
	"backoffice/services"
	"backoffice/storage"
)

var (
	statsNow = flag.Bool("stats", false, "Print review queue stats and exit")
)

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logFile, err := logging.Setup(cfg.LogPath)
	if err != nil {
		log.Printf("Warning: could not set up file logging: %v", err)
	} else {
		defer logFile.Close()
	}

	log.Println("Starting backoffice...")

	ctx := context.Background()

	// Postgres when configured, local SQLite otherwise. Both sit behind
	// the same Store interface so nothing downstream cares.
	var store storage.Store
	if cfg.Database.URL != "" {
		store, err = storage.NewPostgresStore(ctx, cfg.Database.URL)
		if err != nil {
			log.Fatalf("Failed to connect to Postgres: %v", err)
		}
		log.Printf("Connected to Postgres: %s", maskConnectionString(cfg.Database.URL))
	} else {
		store, err = storage.NewSQLiteStore(cfg.Database.Path)
		if err != nil {
			log.Fatalf("Failed to open SQLite: %v", err)
		}
		log.Printf("SQLite database: %s", cfg.Database.Path)
	}
	defer store.Close()

	reviewService := services.NewReviewService(store)
	propertyService := services.NewPropertyService(store)

	if *statsNow {
		stats, err := reviewService.Stats(ctx)
		if err != nil {
			log.Fatalf("Stats query failed: %v", err)
		}
		for status, count := range stats {
			log.Printf("  %s: %d", status, count)
		}
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Queue consumers, one per configured scraping source.
	var consumers []*ingest.Consumer
	if cfg.AMQP.URL != "" {
		log.Printf("Loaded %d source configs", len(cfg.Sources))
		for id, source := range cfg.Sources {
			log.Printf("  - %s (%s)", source.Name, id)
			consumer := ingest.NewConsumer(cfg.AMQP.URL, cfg.AMQP.Prefetch, source, store)
			consumers = append(consumers, consumer)
			go func(c *ingest.Consumer, id string) {
				if err := c.Start(ctx); err != nil {
					log.Printf("Consumer %s stopped: %v", id, err)
				}
			}(consumer, id)
		}
	} else {
		log.Println("No AMQP_URL configured, ingest disabled")
	}

	sched := scheduler.New(cfg.Scheduler, reviewService)
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	server := api.NewServer(cfg.HTTP.Port, api.NewHandler(reviewService, propertyService))
	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("API server failed: %v", err)
		}
	}()

	log.Println("Backoffice running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")
	cancel()
	sched.Stop()
	for _, c := range consumers {
		c.Close()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Stop(shutdownCtx); err != nil {
		log.Printf("API shutdown error: %v", err)
	}
	log.Println("Goodbye!")
}

// maskConnectionString masks the password in a connection string for logging
func maskConnectionString(connStr string) string {
	start := 0
	for i := 0; i < len(connStr)-3; i++ {
		if connStr[i:i+3] == "://" {
			start = i + 3
			break
		}
	}
	if start == 0 {
		return connStr
	}

	colonIdx := -1
	atIdx := -1
	for i := start; i < len(connStr); i++ {
		if connStr[i] == ':' && colonIdx == -1 {
			colonIdx = i
		}
		if connStr[i] == '@' {
			atIdx = i
			break
		}
	}

	if colonIdx > 0 && atIdx > colonIdx {
		return connStr[:colonIdx+1] + "****" + connStr[atIdx:]
	}
	return connStr
}
