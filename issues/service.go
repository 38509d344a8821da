// Issue business logic. Every operation runs in the same order:
//
//  1. scope loads the parent project and its members. A missing project
//     leaves the scope nil, which authz reports as PARENT_NOT_FOUND.
//  2. resolve looks the issue up inside that project only. An issue of
//     another project, or no issue, leaves the object nil, which authz
//     reports as NOT_FOUND.
//  3. authz.Check decides. Reads and creation need membership; changes
//     need authorship.
//  4. Only then is anything validated against the scope (assignee
//     membership) and persisted.

package issues

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/user/softdesk-go/apperror"
	"github.com/user/softdesk-go/authz"
	"github.com/user/softdesk-go/contributors"
	"github.com/user/softdesk-go/projects"
	"github.com/user/softdesk-go/users"
)

// IssueService implements issue operations behind the authorization matrix.
type IssueService struct {
	db *sqlx.DB
}

// NewIssueService creates a new IssueService.
func NewIssueService(db *sqlx.DB) *IssueService {
	return &IssueService{db: db}
}

// List returns the project's issues. Members only.
func (s *IssueService) List(ctx context.Context, actor authz.Actor, projectID int64) ([]Issue, error) {
	scope, err := s.scope(ctx, actor, authz.ActionList, projectID)
	if err != nil {
		return nil, err
	}
	if err := authz.Check(actor, authz.ActionList, authz.KindIssue, authz.Target{Scope: scope}); err != nil {
		return nil, err
	}
	return listByProject(ctx, s.db, projectID)
}

// Create files an issue in the project with the actor as author. Members only.
func (s *IssueService) Create(ctx context.Context, actor authz.Actor, projectID int64, req CreateIssueRequest) (*View, error) {
	scope, err := s.scope(ctx, actor, authz.ActionCreate, projectID)
	if err != nil {
		return nil, err
	}
	if err := authz.Check(actor, authz.ActionCreate, authz.KindIssue, authz.Target{Scope: scope}); err != nil {
		return nil, err
	}
	if err := checkAssignee(scope, req.AssigneeID); err != nil {
		return nil, err
	}

	i := &Issue{
		Title:       req.Title,
		Description: req.Description,
		Status:      StatusToDo,
		Priority:    PriorityLow,
		Tag:         req.Tag,
		ProjectID:   projectID,
		AssigneeID:  req.AssigneeID,
		AuthorID:    actor.UserID,
		CreatedTime: time.Now().UTC().Truncate(time.Microsecond),
	}
	if req.Status != nil {
		i.Status = *req.Status
	}
	if req.Priority != nil {
		i.Priority = *req.Priority
	}
	if err := insertIssue(ctx, s.db, i); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{"issue_id": i.ID, "project_id": projectID, "author_id": actor.UserID}).
		Info("issue created")
	return s.view(ctx, i)
}

// Get returns one issue with its project, author, and assignee. Members only.
func (s *IssueService) Get(ctx context.Context, actor authz.Actor, projectID, issueID int64) (*View, error) {
	_, i, err := s.resolve(ctx, actor, authz.ActionRetrieve, projectID, issueID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, i)
}

// Update replaces the issue's mutable fields. Issue author only.
func (s *IssueService) Update(ctx context.Context, actor authz.Actor, projectID, issueID int64, req UpdateIssueRequest) (*View, error) {
	return s.patch(ctx, actor, authz.ActionUpdate, projectID, issueID, req.asPatch())
}

// Patch changes the given fields of the issue. Issue author only.
func (s *IssueService) Patch(ctx context.Context, actor authz.Actor, projectID, issueID int64, req PatchIssueRequest) (*View, error) {
	return s.patch(ctx, actor, authz.ActionPartialUpdate, projectID, issueID, req)
}

func (s *IssueService) patch(ctx context.Context, actor authz.Actor, action authz.Action, projectID, issueID int64, req PatchIssueRequest) (*View, error) {
	scope, i, err := s.resolve(ctx, actor, action, projectID, issueID)
	if err != nil {
		return nil, err
	}
	if req.AssigneeID.Set {
		if err := checkAssignee(scope, req.AssigneeID.ID); err != nil {
			return nil, err
		}
		i.AssigneeID = req.AssigneeID.ID
	}
	if req.Title != nil {
		i.Title = *req.Title
	}
	if req.Description != nil {
		i.Description = *req.Description
	}
	if req.Status != nil {
		i.Status = *req.Status
	}
	if req.Priority != nil {
		i.Priority = *req.Priority
	}
	if req.Tag != nil {
		i.Tag = *req.Tag
	}
	if err := updateIssue(ctx, s.db, i); err != nil {
		return nil, err
	}
	return s.view(ctx, i)
}

// Delete removes the issue and its comments. Issue author only.
func (s *IssueService) Delete(ctx context.Context, actor authz.Actor, projectID, issueID int64) error {
	_, i, err := s.resolve(ctx, actor, authz.ActionDestroy, projectID, issueID)
	if err != nil {
		return err
	}
	if err := deleteIssue(ctx, s.db, i.ID); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{"issue_id": i.ID, "project_id": projectID, "actor_id": actor.UserID}).
		Info("issue deleted")
	return nil
}

// checkAssignee validates that a new assignee is a member of the project at
// the time of assignment.
func checkAssignee(scope *authz.ProjectAccess, assigneeID *int64) error {
	if assigneeID == nil {
		return nil
	}
	if !scope.IsContributorOrAuthor(*assigneeID) {
		return apperror.NewValidationError(
			fmt.Sprintf("assignee %d is not a contributor of project %d", *assigneeID, scope.ProjectID), nil)
	}
	return nil
}

// scope loads the parent project's access view; nil means it does not exist.
func (s *IssueService) scope(ctx context.Context, actor authz.Actor, action authz.Action, projectID int64) (*authz.ProjectAccess, error) {
	if !actor.Authenticated {
		return nil, authz.Check(actor, action, authz.KindIssue, authz.Target{})
	}
	return contributors.LoadAccess(ctx, s.db, projectID)
}

func (s *IssueService) resolve(ctx context.Context, actor authz.Actor, action authz.Action, projectID, issueID int64) (*authz.ProjectAccess, *Issue, error) {
	scope, err := s.scope(ctx, actor, action, projectID)
	if err != nil {
		return nil, nil, err
	}
	// A nil scope skips the lookup so authz answers PARENT_NOT_FOUND; a
	// missing object stays nil so it answers NOT_FOUND instead.
	target := authz.Target{Scope: scope}
	var i *Issue
	if scope != nil {
		i, err = GetInProject(ctx, s.db, projectID, issueID)
		switch {
		case err == nil:
			target.Object = &authz.Object{AuthorID: i.AuthorID}
		case !apperror.IsNotFound(err):
			return nil, nil, err
		}
	}
	if err := authz.Check(actor, action, authz.KindIssue, target); err != nil {
		return nil, nil, err
	}
	return scope, i, nil
}

func (s *IssueService) view(ctx context.Context, i *Issue) (*View, error) {
	p, err := projects.GetByID(ctx, s.db, i.ProjectID)
	if err != nil {
		return nil, err
	}
	ids := []int64{i.AuthorID}
	if i.AssigneeID != nil {
		ids = append(ids, *i.AssigneeID)
	}
	people, err := users.GetMany(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}
	v := &View{Issue: *i, Project: p, Author: people[i.AuthorID]}
	if i.AssigneeID != nil {
		v.Assignee = people[*i.AssigneeID]
	}
	return v, nil
}
