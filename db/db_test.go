package db_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/softdesk-go/db"
	"github.com/user/softdesk-go/db/dbtest"
)

func insertUser(t *testing.T, q db.Queryer, username string) int64 {
	t.Helper()
	var id int64
	err := sqlx.GetContext(context.Background(), q, &id,
		q.Rebind(`INSERT INTO users (username, password, age, created_time) VALUES (?, 'x', 30, ?) RETURNING id`),
		username, time.Now().UTC())
	require.NoError(t, err)
	return id
}

func TestMigrationsCreateSchema(t *testing.T) {
	conn := dbtest.New(t)
	for _, table := range []string{"users", "projects", "contributors", "issues", "comments"} {
		var n int
		err := conn.Get(&n, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table)
		require.NoError(t, err)
		assert.Equal(t, 1, n, table)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	conn := dbtest.New(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := db.WithTx(ctx, conn, func(tx *sqlx.Tx) error {
		insertUser(t, tx, "ghost")
		return boom
	})
	require.ErrorIs(t, err, boom)

	var n int
	require.NoError(t, conn.Get(&n, `SELECT COUNT(*) FROM users`))
	assert.Zero(t, n)
}

func TestWithTxCommits(t *testing.T) {
	conn := dbtest.New(t)
	err := db.WithTx(context.Background(), conn, func(tx *sqlx.Tx) error {
		insertUser(t, tx, "alice")
		return nil
	})
	require.NoError(t, err)

	var n int
	require.NoError(t, conn.Get(&n, `SELECT COUNT(*) FROM users`))
	assert.Equal(t, 1, n)
}

func TestIsUniqueViolation(t *testing.T) {
	conn := dbtest.New(t)
	insertUser(t, conn, "alice")

	_, err := conn.Exec(`INSERT INTO users (username, password, age, created_time) VALUES ('alice', 'x', 30, ?)`, time.Now().UTC())
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err))
	assert.False(t, db.IsUniqueViolation(errors.New("other")))
	assert.False(t, db.IsUniqueViolation(nil))
}

func TestForeignKeysCascade(t *testing.T) {
	conn := dbtest.New(t)
	author := insertUser(t, conn, "alice")
	now := time.Now().UTC()

	res, err := conn.Exec(`INSERT INTO projects (name, type, author_id, created_time) VALUES ('Alpha', 'backend', ?, ?)`, author, now)
	require.NoError(t, err)
	projectID, err := res.LastInsertId()
	require.NoError(t, err)
	_, err = conn.Exec(`INSERT INTO contributors (user_id, project_id, created_time) VALUES (?, ?, ?)`, author, projectID, now)
	require.NoError(t, err)

	_, err = conn.Exec(`DELETE FROM users WHERE id = ?`, author)
	require.NoError(t, err)

	var n int
	require.NoError(t, conn.Get(&n, `SELECT COUNT(*) FROM projects`))
	assert.Zero(t, n)
	require.NoError(t, conn.Get(&n, `SELECT COUNT(*) FROM contributors`))
	assert.Zero(t, n)
}
