package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/Rrens/admission-chat/internal/config"
	"github.com/Rrens/admission-chat/internal/repository"
	"github.com/Rrens/admission-chat/internal/repository/postgres"
)

// Prepares the configured storage backend: applies the postgres migrations, or
// opens the sql, mongo or file store once so its schema and directories exist.
func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if cfg.Storage.Driver == "postgres" {
		fmt.Printf("Migrating database at %s:%d...\n", cfg.Database.Host, cfg.Database.Port)
		if err := postgres.RunMigrations(cfg.Database.DSN()); err != nil {
			fmt.Fprintf(os.Stderr, "Migration failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Migrations applied")
		return
	}

	fmt.Printf("Preparing %s storage...\n", cfg.Storage.Driver)
	kv, err := repository.Open(context.Background(), cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open storage: %v\n", err)
		os.Exit(1)
	}
	if err := kv.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close storage: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Storage ready")
}
