// Package issues implements issues nested under a project: any project
// member may file and read them, only their author may change them.
package issues

import (
	"time"

	"github.com/user/softdesk-go/projects"
	"github.com/user/softdesk-go/users"
)

// Issue statuses, priorities, and tags.
const (
	StatusToDo       = "to_do"
	StatusInProgress = "in_progress"
	StatusFinished   = "finished"

	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"

	TagBug     = "bug"
	TagFeature = "feature"
	TagTask    = "task"
)

// Issue is an issue row.
type Issue struct {
	ID          int64     `db:"id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	Status      string    `db:"status"`
	Priority    string    `db:"priority"`
	Tag         string    `db:"tag"`
	ProjectID   int64     `db:"project_id"`
	AssigneeID  *int64    `db:"assignee_id"`
	AuthorID    int64     `db:"author_id"`
	CreatedTime time.Time `db:"created_time"`
}

// Summary is the list representation of an issue.
type Summary struct {
	ID          int64     `json:"id" example:"1"`
	Title       string    `json:"title" example:"Bug1"`
	Description string    `json:"description" example:"Crash on login"`
	Status      string    `json:"status" example:"to_do"`
	Priority    string    `json:"priority" example:"low"`
	Tag         string    `json:"tag" example:"bug"`
	ProjectID   int64     `json:"project_id" example:"1"`
	AssigneeID  *int64    `json:"assignee_id" example:"2"`
	AuthorID    int64     `json:"author_id" example:"1"`
	CreatedTime time.Time `json:"created_time"`
}

// Summary returns the list representation of i.
func (i *Issue) Summary() Summary {
	return Summary{
		ID:          i.ID,
		Title:       i.Title,
		Description: i.Description,
		Status:      i.Status,
		Priority:    i.Priority,
		Tag:         i.Tag,
		ProjectID:   i.ProjectID,
		AssigneeID:  i.AssigneeID,
		AuthorID:    i.AuthorID,
		CreatedTime: i.CreatedTime,
	}
}

// View is an issue with its project and people loaded.
type View struct {
	Issue
	Project  *projects.Project
	Author   *users.User
	Assignee *users.User
}

// Detail is the single-issue representation.
type Detail struct {
	Summary
	Project  projects.Summary `json:"project"`
	Author   *users.Profile   `json:"author"`
	Assignee *users.Profile   `json:"assignee"`
}

// Detail renders v for viewerID.
func (v *View) Detail(viewerID int64) Detail {
	return Detail{
		Summary:  v.Issue.Summary(),
		Project:  v.Project.Summary(),
		Author:   users.Visible(viewerID, v.Author),
		Assignee: users.Visible(viewerID, v.Assignee),
	}
}
