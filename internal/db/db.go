// internal/db/db.go
package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/estrellaangel/VolleyTech/internal/config"
)

//go:embed migrations
var migrationsFS embed.FS

type DB struct {
	*sql.DB
	Queries *Queries
	Dialect Dialect
}

// New opens a SQLite database for the given data source name, ensures SQLite
// foreign keys are enabled in the DSN, applies embedded migrations, and
// returns a DB with queries bound to the connection.
func New(dataSourceName string) (*DB, error) {
	dataSourceName = ensureForeignKeysEnabledDSN(dataSourceName)
	sqlDB, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := runMigrations(sqlDB, DialectSQLite); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("error running migrations: %w", err)
	}

	return &DB{
		DB:      sqlDB,
		Queries: NewQueries(sqlDB, DialectSQLite),
		Dialect: DialectSQLite,
	}, nil
}

// NewFromConfig opens the configured database and applies migrations.
// "sqlite" creates the database directory if needed; "postgres" connects
// through lib/pq using the configured URL.
func NewFromConfig(cfg *config.Config) (*DB, error) {
	var (
		sqlDB   *sql.DB
		err     error
		dialect Dialect
	)

	switch cfg.Database.Driver {
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Filename), 0755); err != nil {
			return nil, fmt.Errorf("error creating database directory: %w", err)
		}
		dialect = DialectSQLite
		sqlDB, err = sql.Open("sqlite3", ensureForeignKeysEnabledDSN(cfg.Database.Filename))

	case "postgres":
		dialect = DialectPostgres
		sqlDB, err = sql.Open("postgres", cfg.Database.URL)
		if err == nil {
			sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
			sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		}

	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}

	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := runMigrations(sqlDB, dialect); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("error running migrations: %w", err)
	}

	return &DB{
		DB:      sqlDB,
		Queries: NewQueries(sqlDB, dialect),
		Dialect: dialect,
	}, nil
}

// ensureForeignKeysEnabledDSN adds `_fk=1` to a SQLite DSN unless `_fk=` is
// already present.
func ensureForeignKeysEnabledDSN(dataSourceName string) string {
	if strings.Contains(dataSourceName, "_fk=") {
		return dataSourceName
	}
	if strings.Contains(dataSourceName, "?") {
		return dataSourceName + "&_fk=1"
	}
	return dataSourceName + "?_fk=1"
}

// runMigrations applies the embedded migrations for dialect. A "no change"
// result is not an error.
func runMigrations(db *sql.DB, dialect Dialect) error {
	var (
		driver database.Driver
		err    error
	)
	switch dialect {
	case DialectSQLite:
		driver, err = sqlite3.WithInstance(db, &sqlite3.Config{})
	case DialectPostgres:
		driver, err = postgres.WithInstance(db, &postgres.Config{})
	default:
		return fmt.Errorf("no migrations for dialect %q", dialect)
	}
	if err != nil {
		return fmt.Errorf("could not create migrate driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations/"+string(dialect))
	if err != nil {
		return fmt.Errorf("could not create source: %w", err)
	}

	m, err := migrate.NewWithInstance(
		"iofs", source,
		string(dialect), driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

// WithTx returns a DB whose queries run inside tx.
func (db *DB) WithTx(tx *sql.Tx) *DB {
	return &DB{
		DB:      db.DB,
		Queries: db.Queries.WithTx(tx),
		Dialect: db.Dialect,
	}
}

// BeginTx starts a transaction
func (db *DB) BeginTx(ctx context.Context) (*sql.Tx, error) {
	tx, err := db.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("error beginning transaction: %w", err)
	}
	return tx, nil
}

// RunInTx runs the given function in a transaction
func (db *DB) RunInTx(ctx context.Context, fn func(*DB) error) error {
	tx, err := db.BeginTx(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	txDB := db.WithTx(tx)
	if err := fn(txDB); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("error rolling back: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing: %w", err)
	}

	return nil
}
