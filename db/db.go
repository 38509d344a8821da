// Package db provides database connectivity, transactions, and migrations for
// the SoftDesk API. PostgreSQL is reached through a pgxpool that is bridged to
// database/sql so every repository can use sqlx; SQLite (pure Go, via modernc)
// backs local runs and the test suite with the same repository code.
package db

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	// Registers the "sqlite" database/sql driver.
	_ "modernc.org/sqlite"

	"github.com/user/softdesk-go/apperror"
	"github.com/user/softdesk-go/config"
)

func init() {
	// sqlx only knows "sqlite3" as a question-mark driver out of the box.
	sqlx.BindDriver(config.DriverSQLite, sqlx.QUESTION)
}

// Open connects to the database described by cfg and returns a sqlx handle
// together with a function that releases everything Open acquired.
func Open(cfg *config.DatabaseConfig) (*sqlx.DB, func(), error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		pool, err := NewPool(cfg.Pool)
		if err != nil {
			return nil, nil, err
		}
		// Closing the *sql.DB does not close the pool underneath it.
		conn := sqlx.NewDb(stdlib.OpenDBFromPool(pool), "pgx")
		return conn, func() {
			conn.Close()
			pool.Close()
		}, nil
	case config.DriverSQLite:
		conn, err := OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return conn, func() { conn.Close() }, nil
	default:
		return nil, nil, apperror.NewConfigError(fmt.Sprintf("unsupported database driver %q", cfg.Driver), nil)
	}
}

// OpenSQLite opens (creating if needed) the SQLite database file at path with
// foreign keys enforced on every connection.
func OpenSQLite(path string) (*sqlx.DB, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, apperror.NewDatabaseError("failed to create sqlite directory", err)
		}
	}
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(wal)"
	conn, err := sqlx.Open(config.DriverSQLite, dsn)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to open sqlite database", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, apperror.NewDatabaseError(fmt.Sprintf("error connecting to sqlite database %s", path), err)
	}
	return conn, nil
}

// NewPool establishes a pgxpool connection pool.
func NewPool(cfg *config.PoolConfig) (*pgxpool.Pool, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName,
	)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, apperror.NewDatabaseError(fmt.Sprintf("error parsing DSN for database %s", cfg.DBName), err)
	}

	poolConfig.MaxConns = int32(cfg.MaxSize)
	poolConfig.MaxConnIdleTime = 10 * time.Minute
	poolConfig.MaxConnLifetime = 30 * time.Minute

	// Bound pool creation so an unreachable database fails fast.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, apperror.NewDatabaseError(fmt.Sprintf("error creating pgxpool for database %s", cfg.DBName), err)
	}

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, apperror.NewDatabaseError(fmt.Sprintf("error connecting to the database %s with pgxpool", cfg.DBName), err)
	}

	return pool, nil
}

// migrationDSN constructs a lib/pq style DSN, which is what golang-migrate's
// postgres driver expects.
func migrationDSN(cfg *config.PoolConfig) string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName,
	)
}
