// SQL access for the users table.

package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/user/softdesk-go/apperror"
	"github.com/user/softdesk-go/db"
)

const userColumns = `id, username, password, age, can_be_contacted, can_data_be_shared, created_time`

// GetByID loads one user. A missing row is a NotFoundError.
func GetByID(ctx context.Context, q db.Queryer, id int64) (*User, error) {
	var u User
	err := sqlx.GetContext(ctx, q, &u, q.Rebind(`SELECT `+userColumns+` FROM users WHERE id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NewNotFoundError(fmt.Sprintf("user %d not found", id), nil)
		}
		return nil, apperror.NewDatabaseError("failed to get user", err)
	}
	return &u, nil
}

// GetByUsername loads one user by username. A missing row is a NotFoundError.
func GetByUsername(ctx context.Context, q db.Queryer, username string) (*User, error) {
	var u User
	err := sqlx.GetContext(ctx, q, &u, q.Rebind(`SELECT `+userColumns+` FROM users WHERE username = ?`), username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NewNotFoundError(fmt.Sprintf("user '%s' not found", username), nil)
		}
		return nil, apperror.NewDatabaseError("failed to get user by username", err)
	}
	return &u, nil
}

// GetMany loads the users with the given ids, keyed by id. Unknown ids are
// simply absent from the result.
func GetMany(ctx context.Context, q db.Queryer, ids []int64) (map[int64]*User, error) {
	out := make(map[int64]*User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(`SELECT `+userColumns+` FROM users WHERE id IN (?)`, ids)
	if err != nil {
		return nil, apperror.NewInternalError("failed to build user query", err)
	}
	var rows []User
	if err := sqlx.SelectContext(ctx, q, &rows, q.Rebind(query), args...); err != nil {
		return nil, apperror.NewDatabaseError("failed to list users", err)
	}
	for i := range rows {
		out[rows[i].ID] = &rows[i]
	}
	return out, nil
}

func insertUser(ctx context.Context, q db.Queryer, u *User) error {
	err := sqlx.GetContext(ctx, q, &u.ID, q.Rebind(`
		INSERT INTO users (username, password, age, can_be_contacted, can_data_be_shared, created_time)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`),
		u.Username, u.Password, u.Age, u.CanBeContacted, u.CanDataBeShared, u.CreatedTime)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return apperror.NewConflictError("username already exists", nil)
		}
		return apperror.NewDatabaseError("failed to create user", err)
	}
	return nil
}

func updateUser(ctx context.Context, q db.Queryer, u *User) error {
	_, err := q.ExecContext(ctx, q.Rebind(`
		UPDATE users
		SET username = ?, password = ?, age = ?, can_be_contacted = ?, can_data_be_shared = ?
		WHERE id = ?`),
		u.Username, u.Password, u.Age, u.CanBeContacted, u.CanDataBeShared, u.ID)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return apperror.NewConflictError("username already exists", nil)
		}
		return apperror.NewDatabaseError("failed to update user", err)
	}
	return nil
}

func listVisible(ctx context.Context, q db.Queryer, viewerID int64) ([]User, error) {
	var rows []User
	err := sqlx.SelectContext(ctx, q, &rows, q.Rebind(`
		SELECT `+userColumns+` FROM users
		WHERE can_data_be_shared = TRUE OR id = ?
		ORDER BY id`), viewerID)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to list users", err)
	}
	return rows, nil
}

func deleteUser(ctx context.Context, q db.Queryer, id int64) error {
	if _, err := q.ExecContext(ctx, q.Rebind(`DELETE FROM users WHERE id = ?`), id); err != nil {
		return apperror.NewDatabaseError("failed to delete user", err)
	}
	return nil
}
