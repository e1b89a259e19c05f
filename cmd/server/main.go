package main

import (
	"flag"
	"net/http"

	"foncier-search/internal/api"
	"foncier-search/internal/config"
	"foncier-search/internal/db"
	"foncier-search/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("production").Fatal("invalid configuration", err, nil)
	}

	// Flags override the environment configuration
	port := flag.String("port", cfg.Server.Port, "Port to listen on")
	dbPath := flag.String("db", cfg.Database.Path, "Path to SQLite database")
	flag.Parse()

	log := logger.New(cfg.Server.Env)

	database, err := db.New(*dbPath)
	if err != nil {
		log.Fatal("failed to initialize database", err, nil)
	}
	defer database.Close()

	router := api.NewRouter(database, log)

	addr := ":" + *port
	log.Info("starting server", map[string]interface{}{"addr": addr, "db": *dbPath})

	if err := http.ListenAndServe(addr, router); err != nil {
		log.Fatal("server failed", err, nil)
	}
}
