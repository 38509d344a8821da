// Contributor endpoints: members list, only the project author adds or
// removes, and the author's own link stays.

package contributors

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/user/softdesk-go/apperror"
	"github.com/user/softdesk-go/authz"
	"github.com/user/softdesk-go/users"
)

// ContributorService manages project membership behind the authorization matrix.
type ContributorService struct {
	db *sqlx.DB
}

// NewContributorService creates a new ContributorService.
func NewContributorService(db *sqlx.DB) *ContributorService {
	return &ContributorService{db: db}
}

// List returns the project's contributors. Only members may list them.
func (s *ContributorService) List(ctx context.Context, actor authz.Actor, projectID int64) ([]Member, error) {
	scope, err := s.scope(ctx, actor, projectID)
	if err != nil {
		return nil, err
	}
	if err := authz.Check(actor, authz.ActionList, authz.KindContributor, authz.Target{Scope: scope}); err != nil {
		return nil, err
	}
	return ListMembers(ctx, s.db, projectID)
}

// Create adds a user to the project. Only the project author may do so.
func (s *ContributorService) Create(ctx context.Context, actor authz.Actor, projectID int64, req CreateContributorRequest) (*Member, error) {
	scope, err := s.scope(ctx, actor, projectID)
	if err != nil {
		return nil, err
	}
	if err := authz.Check(actor, authz.ActionCreate, authz.KindContributor, authz.Target{Scope: scope}); err != nil {
		return nil, err
	}

	var u *users.User
	switch {
	case req.UserID != nil && req.Username != nil:
		return nil, apperror.NewValidationError("give either user_id or username, not both", nil)
	case req.UserID != nil:
		u, err = users.GetByID(ctx, s.db, *req.UserID)
	case req.Username != nil:
		u, err = users.GetByUsername(ctx, s.db, *req.Username)
	default:
		return nil, apperror.NewValidationError("user_id or username is required", nil)
	}
	if err != nil {
		return nil, err
	}

	link, err := Add(ctx, s.db, u.ID, projectID)
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"project_id": projectID, "user_id": u.ID, "actor_id": actor.UserID}).
		Info("contributor added")
	return &Member{Contributor: *link, User: u}, nil
}

// Update always fails: contributor links carry nothing to change.
func (s *ContributorService) Update(ctx context.Context, actor authz.Actor, projectID, userID int64) error {
	if _, _, err := s.resolve(ctx, actor, authz.ActionUpdate, projectID, userID); err != nil {
		return err
	}
	return apperror.NewMethodNotAllowedError("contributor links cannot be updated")
}

// Delete removes a user from the project. Only the project author may do so,
// and the author's own link is never removed.
func (s *ContributorService) Delete(ctx context.Context, actor authz.Actor, projectID, userID int64) error {
	scope, link, err := s.resolve(ctx, actor, authz.ActionDestroy, projectID, userID)
	if err != nil {
		return err
	}
	// The author's own link keeps the contributor list non-empty.
	if link.UserID == scope.AuthorID {
		return apperror.NewConflictError("the project author cannot be removed from its contributors", nil)
	}
	if err := Remove(ctx, s.db, link.UserID, link.ProjectID); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{"project_id": projectID, "user_id": userID, "actor_id": actor.UserID}).
		Info("contributor removed")
	return nil
}

// scope loads the project's access view. Anonymous actors are refused before
// any lookup.
func (s *ContributorService) scope(ctx context.Context, actor authz.Actor, projectID int64) (*authz.ProjectAccess, error) {
	if !actor.Authenticated {
		return nil, authz.Check(actor, authz.ActionList, authz.KindContributor, authz.Target{})
	}
	return LoadAccess(ctx, s.db, projectID)
}

func (s *ContributorService) resolve(ctx context.Context, actor authz.Actor, action authz.Action, projectID, userID int64) (*authz.ProjectAccess, *Contributor, error) {
	scope, err := s.scope(ctx, actor, projectID)
	if err != nil {
		return nil, nil, err
	}
	target := authz.Target{Scope: scope}
	var link *Contributor
	if scope != nil {
		link, err = Get(ctx, s.db, userID, projectID)
		switch {
		case err == nil:
			target.Object = &authz.Object{AuthorID: link.UserID}
		case !apperror.IsNotFound(err):
			return nil, nil, err
		}
	}
	if err := authz.Check(actor, action, authz.KindContributor, target); err != nil {
		return nil, nil, err
	}
	return scope, link, nil
}
