package ingest

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"foncier-search/internal/db"
)

// Stats summarizes one source file's ingestion.
type Stats struct {
	Read       int `json:"read"`
	Inserted   int `json:"inserted"`
	Skipped    int `json:"skipped"`
	Duplicates int `json:"duplicates"`
}

// LoadSource streams one delimited file into its staging table. Rows are
// transformed one at a time and flushed in batches, so memory stays bounded
// to a single batch even for files larger than RAM. Malformed rows are
// counted and dropped, never fatal.
func LoadSource(ctx context.Context, database *db.DB, src Source) (Stats, error) {
	var stats Stats

	f, err := os.Open(src.File)
	if err != nil {
		return stats, fmt.Errorf("failed to open %s: %w", src.File, err)
	}
	defer f.Close()

	reader := csv.NewReader(bufio.NewReaderSize(f, 256*1024))
	reader.Comma = src.Delimiter
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	// Header row
	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return stats, nil
		}
		return stats, fmt.Errorf("failed to read header of %s: %w", src.File, err)
	}

	batch := make([][]any, 0, src.BatchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		inserted, duplicates, err := database.BatchInsert(src.Table, src.Columns, batch)
		if err != nil {
			return err
		}
		stats.Inserted += inserted
		stats.Duplicates += duplicates
		batch = batch[:0]
		return nil
	}

	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				stats.Read++
				stats.Skipped++
				continue
			}
			return stats, fmt.Errorf("failed to read %s: %w", src.File, err)
		}

		stats.Read++
		row, ok := Transform(src.Op, fields)
		if !ok {
			stats.Skipped++
			continue
		}

		batch = append(batch, row)
		if len(batch) >= src.BatchSize {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
			if err := flush(); err != nil {
				return stats, err
			}
		}
	}

	if err := flush(); err != nil {
		return stats, err
	}
	return stats, nil
}
