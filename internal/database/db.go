// Package database opens the sqlx pool used by the repositories.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/andresuchdata/replenish/backend-go/internal/config"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
)

const (
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"
	DriverSQLite   = "sqlite3"
)

type DB struct {
	*sqlx.DB
	sem *semaphore.Weighted
}

// NewDB creates a connection pool for the configured driver
func NewDB(cfg *config.DatabaseConfig) (*DB, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" {
		driver = DriverPostgres
	}

	dsn, err := buildDSN(driver, cfg)
	if err != nil {
		return nil, err
	}
	return Open(driver, dsn)
}

// OpenURL opens a pool from a URL: postgres:// and postgresql:// go through pgx,
// sqlite://<path> and file: through go-sqlite3
func OpenURL(url string) (*DB, error) {
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return Open(DriverPgx, url)
	case strings.HasPrefix(url, "sqlite://"):
		return Open(DriverSQLite, strings.TrimPrefix(url, "sqlite://"))
	case strings.HasPrefix(url, "file:"):
		return Open(DriverSQLite, url)
	default:
		return nil, fmt.Errorf("unsupported database url %q", url)
	}
}

// Open connects with an explicit driver name and DSN
func Open(driver, dsn string) (*DB, error) {
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("could not connect to %s database: %w", driver, err)
	}

	// Configure connection pool
	if driver == DriverSQLite {
		// a single connection keeps :memory: databases alive and serializes writers
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	log.Debug().Str("driver", driver).Msg("database pool ready")

	return &DB{
		DB:  db,
		sem: semaphore.NewWeighted(10), // Limit to 10 concurrent transactions
	}, nil
}

func buildDSN(driver string, cfg *config.DatabaseConfig) (string, error) {
	switch driver {
	case DriverPostgres, DriverPgx:
		if cfg.URL != "" {
			return cfg.URL, nil
		}
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode), nil
	case DriverSQLite:
		if cfg.URL != "" {
			return strings.TrimPrefix(cfg.URL, "sqlite://"), nil
		}
		if cfg.Path == "" {
			return "", fmt.Errorf("DB_PATH is required for the sqlite3 driver")
		}
		return cfg.Path, nil
	default:
		return "", fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
}

// IsSQLite reports whether the pool talks to SQLite
func (db *DB) IsSQLite() bool {
	return db.DriverName() == DriverSQLite
}

// WithTx executes a function within a transaction
func (db *DB) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	// Acquire semaphore
	if err := db.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("could not acquire semaphore: %w", err)
	}
	defer db.sem.Release(1)

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}

	if err := fn(tx.Tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Error().Err(rbErr).Msg("could not rollback transaction")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	return nil
}
