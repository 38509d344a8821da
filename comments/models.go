// Package comments implements comments on issues. Any member of the
// issue's project may read and post them; only their author may change them.
package comments

import (
	"time"

	"github.com/google/uuid"

	"github.com/user/softdesk-go/issues"
	"github.com/user/softdesk-go/users"
)

// Comment is a comment row. IDs are random UUIDs, never sequential.
type Comment struct {
	ID          uuid.UUID `db:"id"`
	Description string    `db:"description"`
	IssueID     int64     `db:"issue_id"`
	AuthorID    int64     `db:"author_id"`
	CreatedTime time.Time `db:"created_time"`
}

// Summary is the list representation of a comment.
type Summary struct {
	ID          uuid.UUID `json:"id" swaggertype:"string" format:"uuid" example:"3f2b8c1e-5a47-4c1d-9b0e-6d2f7a9c4e11"`
	Description string    `json:"description" example:"Reproduced on staging"`
	IssueID     int64     `json:"issue_id" example:"1"`
	AuthorID    int64     `json:"author_id" example:"2"`
	CreatedTime time.Time `json:"created_time"`
}

// Summary returns the list representation of c.
func (c *Comment) Summary() Summary {
	return Summary{
		ID:          c.ID,
		Description: c.Description,
		IssueID:     c.IssueID,
		AuthorID:    c.AuthorID,
		CreatedTime: c.CreatedTime,
	}
}

// View is a comment with its issue and author loaded.
type View struct {
	Comment
	Issue  *issues.Issue
	Author *users.User
}

// Detail is the single-comment representation.
type Detail struct {
	Summary
	Issue  issues.Summary `json:"issue"`
	Author *users.Profile `json:"author"`
}

// Detail renders v for viewerID.
func (v *View) Detail(viewerID int64) Detail {
	return Detail{
		Summary: v.Comment.Summary(),
		Issue:   v.Issue.Summary(),
		Author:  users.Visible(viewerID, v.Author),
	}
}
