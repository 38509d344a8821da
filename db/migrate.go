// Embedded golang-migrate migrations, one set per driver.

package db

import (
	"embed"
	"errors"

	"github.com/golang-migrate/migrate/v4"
	// Registers the "postgres" database driver for golang-migrate. It uses lib/pq under the hood.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/user/softdesk-go/apperror"
	"github.com/user/softdesk-go/config"
)

// Each dialect keeps its own migration directory; the schemas are kept in step by hand.
//
//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// RunMigrations applies any pending migrations for the configured driver.
// For SQLite the migrations run over conn itself; PostgreSQL migrations use a
// separate lib/pq connection built from cfg, which is what golang-migrate expects.
func RunMigrations(conn *sqlx.DB, cfg *config.DatabaseConfig) error {
	m, err := newMigrator(conn, cfg)
	if err != nil {
		return err
	}
	if cfg.Driver == config.DriverPostgres {
		// The sqlite migrator borrows conn, so only the postgres one owns resources to close.
		defer func() {
			if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
				logrus.WithFields(logrus.Fields{"source_error": srcErr, "database_error": dbErr}).
					Warn("error closing migrator")
			}
		}()
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return apperror.NewMigrationError("failed to run migrations", err)
	}

	version, dirty, err := m.Version()
	if err == nil {
		logrus.WithFields(logrus.Fields{"driver": cfg.Driver, "version": version, "dirty": dirty}).
			Info("database schema is up to date")
	}
	return nil
}

func newMigrator(conn *sqlx.DB, cfg *config.DatabaseConfig) (*migrate.Migrate, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		src, err := iofs.New(migrationsFS, "migrations/postgres")
		if err != nil {
			return nil, apperror.NewMigrationError("failed to load embedded migrations", err)
		}
		m, err := migrate.NewWithSourceInstance("iofs", src, migrationDSN(cfg.Pool))
		if err != nil {
			return nil, apperror.NewMigrationError("failed to create migrator", err)
		}
		return m, nil
	case config.DriverSQLite:
		src, err := iofs.New(migrationsFS, "migrations/sqlite")
		if err != nil {
			return nil, apperror.NewMigrationError("failed to load embedded migrations", err)
		}
		driver, err := sqlite.WithInstance(conn.DB, &sqlite.Config{})
		if err != nil {
			return nil, apperror.NewMigrationError("failed to create sqlite migration driver", err)
		}
		m, err := migrate.NewWithInstance("iofs", src, config.DriverSQLite, driver)
		if err != nil {
			return nil, apperror.NewMigrationError("failed to create migrator", err)
		}
		return m, nil
	default:
		return nil, apperror.NewConfigError("unsupported database driver "+cfg.Driver, nil)
	}
}
