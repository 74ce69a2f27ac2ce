package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"clip-share/config"
	"clip-share/pkg/database"
)

const usage = `
Clip Share - Database CLI Tool

Usage:
  migrate [command] [flags]

Commands:
  up          Run all SQL migrations
  down        Rollback all SQL migrations
  status      Show database connection status
  truncate    Truncate the clips table (DANGEROUS)

Flags:
  -migrations string   Path to migrations directory (default "migrations")

Examples:
  go run cmd/migrate/main.go up
  go run cmd/migrate/main.go status
  go run cmd/migrate/main.go down
`

var coreTables = []string{"clips"}

func main() {
	migrationsDir := flag.String("migrations", "migrations", "Path to migrations directory")

	flag.Usage = func() {
		fmt.Print(usage)
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	command := flag.Arg(0)

	cfg := config.LoadConfig()
	database.Connect(cfg)
	defer database.Close()

	ctx := context.Background()

	switch command {
	case "up":
		runMigrationsUp(ctx, *migrationsDir)
	case "down":
		runMigrationsDown(ctx, *migrationsDir)
	case "status":
		showStatus(ctx)
	case "truncate":
		runTruncate(ctx)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}

func runMigrationsUp(ctx context.Context, migrationsDir string) {
	log.Println("Running migrations UP...")

	if err := database.ApplyRawMigrations(ctx, migrationsDir); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("Migrations completed successfully")
}

func runMigrationsDown(ctx context.Context, migrationsDir string) {
	log.Println("Rolling back migrations...")

	if err := database.RollbackMigrations(ctx, migrationsDir); err != nil {
		log.Fatalf("Rollback failed: %v", err)
	}

	log.Println("Rollback completed successfully")
}

func showStatus(ctx context.Context) {
	log.Println("Checking database status...")

	if err := database.HealthCheck(); err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Database connection: OK")

	for _, table := range coreTables {
		exists, err := database.TableExists(ctx, table)
		if err != nil {
			log.Printf("Error checking table %s: %v", table, err)
			continue
		}
		if exists {
			count, _ := database.GetTableCount(ctx, table)
			log.Printf("Table %-20s exists (%d rows)", table, count)
		} else {
			log.Printf("Table %-20s does not exist", table)
		}
	}
}

func runTruncate(ctx context.Context) {
	log.Println("WARNING: This will TRUNCATE all tables!")

	if err := database.TruncateTables(ctx, coreTables...); err != nil {
		log.Fatalf("Truncate failed: %v", err)
	}

	log.Println("All tables truncated")
}
