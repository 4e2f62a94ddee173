// Database migration CLI tool
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/ajitpratap0/evofunk/internal/config"
	"github.com/ajitpratap0/evofunk/internal/db"
)

func main() {
	command := flag.String("command", "migrate", "Command to run: migrate or status")
	configPath := flag.String("config", "", "Path to config file (optional)")
	dsn := flag.String("dsn", "", "Database connection string (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	config.InitLogger(cfg.App.LogLevel, cfg.App.LogFormat)

	connStr := *dsn
	if connStr == "" {
		connStr = cfg.Database.GetDSN()
	}

	ctx := context.Background()
	database, err := db.New(ctx, connStr)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close()

	switch *command {
	case "migrate":
		if err := database.Migrate(ctx); err != nil {
			log.Fatal().Err(err).Msg("Migration failed")
		}
	case "status":
		version, err := database.CurrentVersion(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Status check failed")
		}
		fmt.Printf("Current schema version: %d\n", version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\nUsage: migrate -command=[migrate|status]\n", *command)
		os.Exit(1)
	}
}
