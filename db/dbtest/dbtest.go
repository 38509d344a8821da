// Package dbtest opens throwaway, fully migrated SQLite databases for tests.
package dbtest

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/user/softdesk-go/config"
	"github.com/user/softdesk-go/db"
)

// New returns a migrated SQLite database living in t.TempDir. It is closed
// when the test finishes.
func New(t testing.TB) *sqlx.DB {
	t.Helper()
	cfg := &config.DatabaseConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "softdesk.db"),
	}
	conn, cleanup, err := db.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(cleanup)

	require.NoError(t, db.RunMigrations(conn, cfg))
	return conn
}

// CreateUser inserts a user directly, bypassing registration, and returns its id.
func CreateUser(t testing.TB, conn *sqlx.DB, username string, shareData bool) int64 {
	t.Helper()
	var id int64
	err := conn.Get(&id, conn.Rebind(`
		INSERT INTO users (username, password, age, can_be_contacted, can_data_be_shared, created_time)
		VALUES (?, 'not-a-hash', 30, FALSE, ?, ?)
		RETURNING id`), username, shareData, time.Now().UTC())
	require.NoError(t, err)
	return id
}

// CreateProject inserts a backend project authored by authorID, with the
// author's contributor link, and returns its id.
func CreateProject(t testing.TB, conn *sqlx.DB, authorID int64, name string) int64 {
	t.Helper()
	now := time.Now().UTC()
	var id int64
	err := conn.Get(&id, conn.Rebind(`
		INSERT INTO projects (name, description, type, author_id, created_time)
		VALUES (?, '', 'backend', ?, ?)
		RETURNING id`), name, authorID, now)
	require.NoError(t, err)
	_, err = conn.Exec(conn.Rebind(`INSERT INTO contributors (user_id, project_id, created_time) VALUES (?, ?, ?)`), authorID, id, now)
	require.NoError(t, err)
	return id
}
