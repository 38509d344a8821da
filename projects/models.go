// Package projects implements the top of the resource hierarchy. A project
// is owned by its author and shared with its contributors.
package projects

import (
	"time"

	"github.com/user/softdesk-go/contributors"
	"github.com/user/softdesk-go/users"
)

// Project types.
const (
	TypeBackend  = "backend"
	TypeFrontend = "frontend"
	TypeIOS      = "ios"
	TypeAndroid  = "android"
)

// Project is a project row.
type Project struct {
	ID          int64     `db:"id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	Type        string    `db:"type"`
	AuthorID    int64     `db:"author_id"`
	CreatedTime time.Time `db:"created_time"`
}

// Summary is the list representation of a project.
type Summary struct {
	ID          int64     `json:"id" example:"1"`
	Name        string    `json:"name" example:"Alpha"`
	Description string    `json:"description" example:"Payment backend"`
	Type        string    `json:"type" example:"backend"`
	AuthorID    int64     `json:"author_id" example:"1"`
	CreatedTime time.Time `json:"created_time"`
}

// Summary returns the list representation of p.
func (p *Project) Summary() Summary {
	return Summary{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Type:        p.Type,
		AuthorID:    p.AuthorID,
		CreatedTime: p.CreatedTime,
	}
}

// View is a project with its author and contributors loaded.
type View struct {
	Project
	Author  *users.User
	Members []contributors.Member
}

// Detail is the single-project representation.
type Detail struct {
	Summary
	Author       *users.Profile          `json:"author"`
	Contributors []contributors.Response `json:"contributors"`
}

// Detail renders v for viewerID.
func (v *View) Detail(viewerID int64) Detail {
	return Detail{
		Summary:      v.Project.Summary(),
		Author:       users.Visible(viewerID, v.Author),
		Contributors: contributors.Responses(viewerID, v.Members),
	}
}
