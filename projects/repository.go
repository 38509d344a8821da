// SQL access for the projects table.

package projects

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/user/softdesk-go/apperror"
	"github.com/user/softdesk-go/db"
)

const projectColumns = `id, name, description, type, author_id, created_time`

// GetByID loads one project. A missing row is a NotFoundError.
func GetByID(ctx context.Context, q db.Queryer, id int64) (*Project, error) {
	var p Project
	err := sqlx.GetContext(ctx, q, &p, q.Rebind(`SELECT `+projectColumns+` FROM projects WHERE id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NewNotFoundError(fmt.Sprintf("project %d not found", id), nil)
		}
		return nil, apperror.NewDatabaseError("failed to get project", err)
	}
	return &p, nil
}

func insertProject(ctx context.Context, q db.Queryer, p *Project) error {
	err := sqlx.GetContext(ctx, q, &p.ID, q.Rebind(`
		INSERT INTO projects (name, description, type, author_id, created_time)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`),
		p.Name, p.Description, p.Type, p.AuthorID, p.CreatedTime)
	if err != nil {
		return apperror.NewDatabaseError("failed to create project", err)
	}
	return nil
}

func updateProject(ctx context.Context, q db.Queryer, p *Project) error {
	_, err := q.ExecContext(ctx, q.Rebind(`UPDATE projects SET name = ?, description = ?, type = ? WHERE id = ?`),
		p.Name, p.Description, p.Type, p.ID)
	if err != nil {
		return apperror.NewDatabaseError("failed to update project", err)
	}
	return nil
}

func deleteProject(ctx context.Context, q db.Queryer, id int64) error {
	if _, err := q.ExecContext(ctx, q.Rebind(`DELETE FROM projects WHERE id = ?`), id); err != nil {
		return apperror.NewDatabaseError("failed to delete project", err)
	}
	return nil
}

// listForMember returns the projects userID authors or contributes to.
func listForMember(ctx context.Context, q db.Queryer, userID int64) ([]Project, error) {
	var rows []Project
	err := sqlx.SelectContext(ctx, q, &rows, q.Rebind(`
		SELECT `+projectColumns+` FROM projects
		WHERE author_id = ?
		   OR id IN (SELECT project_id FROM contributors WHERE user_id = ?)
		ORDER BY id`), userID, userID)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to list projects", err)
	}
	return rows, nil
}
