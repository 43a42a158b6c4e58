// cmd/dbtools/migrate/main.go
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

func main() {
	var (
		driver         = flag.String("driver", "sqlite", "Database driver (sqlite, postgres)")
		dbPath         = flag.String("db", "", "Path to SQLite database")
		dbURL          = flag.String("url", os.Getenv("DATABASE_URL"), "Postgres connection URL")
		migrationsPath = flag.String("migrations", "", "Migrations directory (default internal/db/migrations/<driver>)")
		command        = flag.String("command", "", "Command to run (up, down, version)")
	)
	flag.Parse()

	if *command == "" {
		flag.Usage()
		os.Exit(1)
	}
	if *migrationsPath == "" {
		*migrationsPath = filepath.Join("internal", "db", "migrations", *driver)
	}

	var databaseURL string
	switch *driver {
	case "sqlite":
		if *dbPath == "" {
			log.Fatal("-db is required for sqlite")
		}
		if err := os.MkdirAll(filepath.Dir(*dbPath), 0755); err != nil {
			log.Fatalf("Failed to create database directory: %v", err)
		}
		databaseURL = fmt.Sprintf("sqlite3://%s", *dbPath)
	case "postgres":
		if *dbURL == "" {
			log.Fatal("-url or DATABASE_URL is required for postgres")
		}
		databaseURL = *dbURL
	default:
		log.Fatalf("Unsupported driver: %s", *driver)
	}

	if _, err := os.Stat(*migrationsPath); err != nil {
		log.Fatalf("Migrations directory not found: %v", err)
	}

	// Initialize migrate
	m, err := migrate.New(
		fmt.Sprintf("file://%s", *migrationsPath),
		databaseURL,
	)
	if err != nil {
		log.Fatalf("Migration init failed: %v", err)
	}
	defer m.Close()

	// Execute command
	switch *command {
	case "up":
		if err := m.Up(); err != nil && err != migrate.ErrNoChange {
			log.Fatalf("Migration up failed: %v", err)
		}
	case "down":
		if err := m.Down(); err != nil && err != migrate.ErrNoChange {
			log.Fatalf("Migration down failed: %v", err)
		}
	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			log.Fatalf("Get version failed: %v", err)
		}
		fmt.Printf("Version: %d, Dirty: %v\n", version, dirty)
	default:
		log.Fatalf("Unknown command: %s", *command)
	}
}
