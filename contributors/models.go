// Package contributors is the membership registry: it records which users
// contribute to which project and answers the contributor-or-author
// question every nested permission check depends on.
package contributors

import (
	"time"

	"github.com/user/softdesk-go/users"
)

// Contributor is a (user, project) membership link.
type Contributor struct {
	ID          int64     `db:"id"`
	UserID      int64     `db:"user_id"`
	ProjectID   int64     `db:"project_id"`
	CreatedTime time.Time `db:"created_time"`
}

// Member is a contributor link together with its user.
type Member struct {
	Contributor
	User *users.User
}

// Response is the API representation of a contributor link. User is only
// present when the viewer may see that user's profile.
type Response struct {
	ID          int64          `json:"id" example:"3"`
	UserID      int64          `json:"user_id" example:"2"`
	ProjectID   int64          `json:"project_id" example:"1"`
	User        *users.Profile `json:"user"`
	CreatedTime time.Time      `json:"created_time"`
}

// Response renders m for viewerID.
func (m Member) Response(viewerID int64) Response {
	return Response{
		ID:          m.ID,
		UserID:      m.UserID,
		ProjectID:   m.ProjectID,
		User:        users.Visible(viewerID, m.User),
		CreatedTime: m.CreatedTime,
	}
}

// Responses renders a member list for viewerID.
func Responses(viewerID int64, members []Member) []Response {
	out := make([]Response, 0, len(members))
	for _, m := range members {
		out = append(out, m.Response(viewerID))
	}
	return out
}

// CreateContributorRequest adds a user to a project, addressed either by id
// or by username. Exactly one must be given.
type CreateContributorRequest struct {
	UserID   *int64  `json:"user_id,omitempty" example:"2"`
	Username *string `json:"username,omitempty" validate:"omitempty,min=1,max=150" example:"bob"`
}
