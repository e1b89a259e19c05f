package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"foncier-search/internal/db"
	"foncier-search/internal/logger"
)

// ErrMissingSource means a required input file is absent. The coordinator
// aborts before spawning any worker; no partial ingestion begins.
var ErrMissingSource = errors.New("required source file missing")

// Runner fans ingestion out across source files and fans the per-file stats
// back in. One worker per file, one staging table per worker, no shared
// mutable state between workers.
type Runner struct {
	DB                 *db.DB
	Log                *logger.Logger
	Workers            int
	CheckpointInterval time.Duration
}

// Run ingests every source concurrently and returns per-source stats keyed
// by source name. While workers load, the coordinator checkpoints the WAL on
// an interval (always outside worker transactions) so the on-disk log stays
// bounded during large loads.
func (r *Runner) Run(ctx context.Context, sources []Source) (map[string]Stats, error) {
	for _, src := range sources {
		if _, err := os.Stat(src.File); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingSource, src.File)
		}
	}

	workers := r.Workers
	if workers < 1 {
		workers = 1
	}

	var (
		mu      sync.Mutex
		results = make(map[string]Stats, len(sources))
	)

	// Coordinator-side WAL checkpointing while workers run.
	checkpointDone := make(chan struct{})
	checkpointStopped := make(chan struct{})
	go func() {
		defer close(checkpointStopped)
		interval := r.CheckpointInterval
		if interval <= 0 {
			interval = 30 * time.Second
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-checkpointDone:
				return
			case <-ticker.C:
				if err := r.DB.Checkpoint(); err != nil {
					r.Log.Warn("wal checkpoint failed", map[string]interface{}{"error": err.Error()})
				}
			}
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, src := range sources {
		src := src
		g.Go(func() error {
			start := time.Now()
			stats, err := LoadSource(gctx, r.DB, src)
			if err != nil {
				return fmt.Errorf("ingesting %s: %w", src.Name, err)
			}

			mu.Lock()
			results[src.Name] = stats
			mu.Unlock()

			r.Log.Info("source ingested", map[string]interface{}{
				"source":     src.Name,
				"read":       stats.Read,
				"inserted":   stats.Inserted,
				"skipped":    stats.Skipped,
				"duplicates": stats.Duplicates,
				"elapsed":    time.Since(start).String(),
			})
			return nil
		})
	}

	err := g.Wait()
	close(checkpointDone)
	<-checkpointStopped

	if err != nil {
		return results, err
	}

	if err := r.DB.Checkpoint(); err != nil {
		return results, fmt.Errorf("final checkpoint: %w", err)
	}
	return results, nil
}
