// Membership queries used by every nested resource. LoadAccess builds
// the authz view of a project that issues and comments are checked against.

package contributors

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/user/softdesk-go/apperror"
	"github.com/user/softdesk-go/authz"
	"github.com/user/softdesk-go/db"
	"github.com/user/softdesk-go/users"
)

// LoadAccess builds the membership view of a project. It returns nil, nil
// when the project does not exist so callers can report the missing parent.
func LoadAccess(ctx context.Context, q db.Queryer, projectID int64) (*authz.ProjectAccess, error) {
	var authorID int64
	err := sqlx.GetContext(ctx, q, &authorID, q.Rebind(`SELECT author_id FROM projects WHERE id = ?`), projectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, apperror.NewDatabaseError("failed to load project", err)
	}

	var ids []int64
	err = sqlx.SelectContext(ctx, q, &ids, q.Rebind(`SELECT user_id FROM contributors WHERE project_id = ?`), projectID)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to load contributors", err)
	}

	access := &authz.ProjectAccess{
		ProjectID:    projectID,
		AuthorID:     authorID,
		Contributors: make(map[int64]struct{}, len(ids)),
	}
	for _, id := range ids {
		access.Contributors[id] = struct{}{}
	}
	return access, nil
}

// IsContributorOrAuthor reports whether userID may act as a member of the
// project. A missing project yields false.
func IsContributorOrAuthor(ctx context.Context, q db.Queryer, userID, projectID int64) (bool, error) {
	access, err := LoadAccess(ctx, q, projectID)
	if err != nil {
		return false, err
	}
	return access.IsContributorOrAuthor(userID), nil
}

// Add inserts a contributor link. An existing pair is a ConflictError.
func Add(ctx context.Context, q db.Queryer, userID, projectID int64) (*Contributor, error) {
	c := &Contributor{
		UserID:      userID,
		ProjectID:   projectID,
		CreatedTime: time.Now().UTC().Truncate(time.Microsecond),
	}
	err := sqlx.GetContext(ctx, q, &c.ID, q.Rebind(`
		INSERT INTO contributors (user_id, project_id, created_time)
		VALUES (?, ?, ?)
		RETURNING id`), c.UserID, c.ProjectID, c.CreatedTime)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, apperror.NewConflictError(fmt.Sprintf("user %d is already a contributor to project %d", userID, projectID), nil)
		}
		return nil, apperror.NewDatabaseError("failed to add contributor", err)
	}
	return c, nil
}

// Get loads the link between userID and projectID. A missing link is a NotFoundError.
func Get(ctx context.Context, q db.Queryer, userID, projectID int64) (*Contributor, error) {
	var c Contributor
	err := sqlx.GetContext(ctx, q, &c, q.Rebind(`
		SELECT id, user_id, project_id, created_time
		FROM contributors WHERE user_id = ? AND project_id = ?`), userID, projectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NewNotFoundError(fmt.Sprintf("user %d is not a contributor to project %d", userID, projectID), nil)
		}
		return nil, apperror.NewDatabaseError("failed to get contributor", err)
	}
	return &c, nil
}

// Remove deletes the link between userID and projectID.
func Remove(ctx context.Context, q db.Queryer, userID, projectID int64) error {
	_, err := q.ExecContext(ctx, q.Rebind(`DELETE FROM contributors WHERE user_id = ? AND project_id = ?`), userID, projectID)
	if err != nil {
		return apperror.NewDatabaseError("failed to remove contributor", err)
	}
	return nil
}

// ListMembers returns the project's contributor links with their users,
// oldest first.
func ListMembers(ctx context.Context, q db.Queryer, projectID int64) ([]Member, error) {
	var links []Contributor
	err := sqlx.SelectContext(ctx, q, &links, q.Rebind(`
		SELECT id, user_id, project_id, created_time
		FROM contributors WHERE project_id = ?
		ORDER BY id`), projectID)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to list contributors", err)
	}

	ids := make([]int64, 0, len(links))
	for _, l := range links {
		ids = append(ids, l.UserID)
	}
	byID, err := users.GetMany(ctx, q, ids)
	if err != nil {
		return nil, err
	}

	members := make([]Member, 0, len(links))
	for _, l := range links {
		members = append(members, Member{Contributor: l, User: byID[l.UserID]})
	}
	return members, nil
}
