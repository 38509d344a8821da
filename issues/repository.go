// SQL access for the issues table. Lookups are always scoped to the
// parent project.

package issues

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/user/softdesk-go/apperror"
	"github.com/user/softdesk-go/db"
)

const issueColumns = `id, title, description, status, priority, tag, project_id, assignee_id, author_id, created_time`

// GetInProject loads an issue that belongs to projectID. An issue that does
// not exist, or lives in another project, is a NotFoundError.
func GetInProject(ctx context.Context, q db.Queryer, projectID, issueID int64) (*Issue, error) {
	var i Issue
	err := sqlx.GetContext(ctx, q, &i,
		q.Rebind(`SELECT `+issueColumns+` FROM issues WHERE id = ? AND project_id = ?`), issueID, projectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NewNotFoundError(fmt.Sprintf("issue %d not found in project %d", issueID, projectID), nil)
		}
		return nil, apperror.NewDatabaseError("failed to get issue", err)
	}
	return &i, nil
}

func listByProject(ctx context.Context, q db.Queryer, projectID int64) ([]Issue, error) {
	var rows []Issue
	err := sqlx.SelectContext(ctx, q, &rows,
		q.Rebind(`SELECT `+issueColumns+` FROM issues WHERE project_id = ? ORDER BY id`), projectID)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to list issues", err)
	}
	return rows, nil
}

func insertIssue(ctx context.Context, q db.Queryer, i *Issue) error {
	err := sqlx.GetContext(ctx, q, &i.ID, q.Rebind(`
		INSERT INTO issues (title, description, status, priority, tag, project_id, assignee_id, author_id, created_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`),
		i.Title, i.Description, i.Status, i.Priority, i.Tag, i.ProjectID, i.AssigneeID, i.AuthorID, i.CreatedTime)
	if err != nil {
		return apperror.NewDatabaseError("failed to create issue", err)
	}
	return nil
}

func updateIssue(ctx context.Context, q db.Queryer, i *Issue) error {
	_, err := q.ExecContext(ctx, q.Rebind(`
		UPDATE issues
		SET title = ?, description = ?, status = ?, priority = ?, tag = ?, assignee_id = ?
		WHERE id = ?`),
		i.Title, i.Description, i.Status, i.Priority, i.Tag, i.AssigneeID, i.ID)
	if err != nil {
		return apperror.NewDatabaseError("failed to update issue", err)
	}
	return nil
}

func deleteIssue(ctx context.Context, q db.Queryer, id int64) error {
	if _, err := q.ExecContext(ctx, q.Rebind(`DELETE FROM issues WHERE id = ?`), id); err != nil {
		return apperror.NewDatabaseError("failed to delete issue", err)
	}
	return nil
}
