package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"foncier-search/internal/config"
	"foncier-search/internal/db"
	"foncier-search/internal/logger"
	"foncier-search/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("production").Fatal("invalid configuration", err, nil)
	}

	// Flags override the environment configuration
	dbPath := flag.String("db", cfg.Database.Path, "Path to SQLite database")
	dataDir := flag.String("data", cfg.Pipeline.DataDir, "Directory containing the source CSV files")
	workers := flag.Int("workers", cfg.Pipeline.Workers, "Number of concurrent ingestion workers")
	flag.Parse()

	log := logger.New(cfg.Server.Env)

	log.Info("starting pipeline build", map[string]interface{}{
		"db":      *dbPath,
		"data":    *dataDir,
		"workers": *workers,
	})

	database, err := db.New(*dbPath)
	if err != nil {
		log.Fatal("failed to initialize database", err, nil)
	}
	defer database.Close()

	// Handle interrupt signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Warn("received interrupt signal, shutting down", nil)
		cancel()
	}()

	p := &pipeline.Pipeline{
		DB:                 database,
		Log:                log,
		Workers:            *workers,
		CheckpointInterval: time.Duration(cfg.Pipeline.CheckpointInterval) * time.Second,
	}

	summary, err := p.Run(ctx, *dataDir)
	if err != nil {
		if ctx.Err() == context.Canceled {
			log.Warn("pipeline cancelled", nil)
			os.Exit(1)
		}
		log.Fatal("pipeline failed", err, nil)
	}

	log.Info("build finished", map[string]interface{}{
		"run_id":  summary.RunID,
		"records": summary.RecordsEmitted,
		"elapsed": summary.Elapsed.String(),
	})
}
