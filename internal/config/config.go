package config

import (
	"fmt"
	"runtime"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Pipeline PipelineConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds SQLite storage configuration.
type DatabaseConfig struct {
	Path string
}

// PipelineConfig holds ingestion and build configuration.
type PipelineConfig struct {
	DataDir            string
	Workers            int
	CheckpointInterval int // seconds between WAL checkpoints during ingestion
}

// Load reads configuration from environment variables.
// It uses viper to read values and provides sensible defaults for development.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_PATH", "data/foncier.db")
	v.SetDefault("DATA_DIR", "data/sources")
	v.SetDefault("WORKERS", runtime.NumCPU())
	v.SetDefault("CHECKPOINT_INTERVAL", 30)

	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Port: v.GetString("PORT"),
			Env:  v.GetString("ENV"),
		},
		Database: DatabaseConfig{
			Path: v.GetString("DB_PATH"),
		},
		Pipeline: PipelineConfig{
			DataDir:            v.GetString("DATA_DIR"),
			Workers:            v.GetInt("WORKERS"),
			CheckpointInterval: v.GetInt("CHECKPOINT_INTERVAL"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("DB_PATH is required")
	}
	if c.Pipeline.DataDir == "" {
		return fmt.Errorf("DATA_DIR is required")
	}
	if c.Pipeline.Workers < 1 {
		return fmt.Errorf("WORKERS must be at least 1")
	}
	if c.Pipeline.CheckpointInterval < 1 {
		return fmt.Errorf("CHECKPOINT_INTERVAL must be at least 1 second")
	}
	return nil
}
