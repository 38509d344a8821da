// SQL access for the comments table. Lookups are always scoped to the
// parent issue.

package comments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/user/softdesk-go/apperror"
	"github.com/user/softdesk-go/db"
)

const commentColumns = `id, description, issue_id, author_id, created_time`

func getInIssue(ctx context.Context, q db.Queryer, issueID int64, id uuid.UUID) (*Comment, error) {
	var c Comment
	err := sqlx.GetContext(ctx, q, &c,
		q.Rebind(`SELECT `+commentColumns+` FROM comments WHERE id = ? AND issue_id = ?`), id, issueID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NewNotFoundError(fmt.Sprintf("comment %s not found on issue %d", id, issueID), nil)
		}
		return nil, apperror.NewDatabaseError("failed to get comment", err)
	}
	return &c, nil
}

func listByIssue(ctx context.Context, q db.Queryer, issueID int64) ([]Comment, error) {
	var rows []Comment
	err := sqlx.SelectContext(ctx, q, &rows,
		q.Rebind(`SELECT `+commentColumns+` FROM comments WHERE issue_id = ? ORDER BY created_time, id`), issueID)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to list comments", err)
	}
	return rows, nil
}

func insertComment(ctx context.Context, q db.Queryer, c *Comment) error {
	_, err := q.ExecContext(ctx, q.Rebind(`
		INSERT INTO comments (id, description, issue_id, author_id, created_time)
		VALUES (?, ?, ?, ?, ?)`),
		c.ID, c.Description, c.IssueID, c.AuthorID, c.CreatedTime)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return apperror.NewConflictError("comment id already in use", err)
		}
		return apperror.NewDatabaseError("failed to create comment", err)
	}
	return nil
}

func updateComment(ctx context.Context, q db.Queryer, c *Comment) error {
	_, err := q.ExecContext(ctx, q.Rebind(`UPDATE comments SET description = ? WHERE id = ?`), c.Description, c.ID)
	if err != nil {
		return apperror.NewDatabaseError("failed to update comment", err)
	}
	return nil
}

func deleteComment(ctx context.Context, q db.Queryer, id uuid.UUID) error {
	if _, err := q.ExecContext(ctx, q.Rebind(`DELETE FROM comments WHERE id = ?`), id); err != nil {
		return apperror.NewDatabaseError("failed to delete comment", err)
	}
	return nil
}
