package db

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaFS embed.FS

// DB wraps sqlx.DB with application-specific methods
type DB struct {
	*sqlx.DB
}

// New creates a new database connection and runs migrations.
// The database is opened in WAL mode so ingestion workers can write their
// own tables while readers stay unblocked.
func New(dbPath string) (*DB, error) {
	// Ensure directory exists
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sqlx.Connect("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=10000&_loc=UTC")
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Run migrations
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DB{db}, nil
}

// NewMemory opens a throwaway in-memory database, used by tests.
func NewMemory() (*DB, error) {
	db, err := sqlx.Connect("sqlite3", ":memory:?_foreign_keys=on&_loc=UTC")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	// Each sqlite in-memory connection is its own database; keep the pool
	// at one connection so every query sees the migrated schema.
	db.SetMaxOpenConns(1)
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return &DB{db}, nil
}

func migrate(db *sqlx.DB) error {
	schema, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema: %w", err)
	}

	_, err = db.Exec(string(schema))
	if err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	return nil
}

// Reset empties every staging and output table. Ingestion only supports
// loading into a fresh staging area; there is no incremental append.
func (db *DB) Reset() error {
	tables := []string{
		"buildings", "diagnostics", "transactions", "transaction_parcels",
		"parcel_buildings", "parcel_filiations", "subdivision_permits",
		"building_permits", "land_records",
	}
	for _, t := range tables {
		if _, err := db.Exec("DELETE FROM " + t); err != nil {
			return fmt.Errorf("failed to reset table %s: %w", t, err)
		}
	}
	return nil
}

// Checkpoint truncates the write-ahead log. The ingestion coordinator calls
// this periodically (never inside a worker transaction) to bound on-disk log
// growth during multi-gigabyte loads.
func (db *DB) Checkpoint() error {
	_, err := db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	if err != nil {
		return fmt.Errorf("wal checkpoint failed: %w", err)
	}
	return nil
}
