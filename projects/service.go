// Project business logic. Create records the author as the first
// contributor in the same transaction; every other operation resolves the
// project, asks authz, then touches the database.

package projects

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/user/softdesk-go/apperror"
	"github.com/user/softdesk-go/authz"
	"github.com/user/softdesk-go/contributors"
	"github.com/user/softdesk-go/db"
	"github.com/user/softdesk-go/users"
)

// ProjectService implements project operations behind the authorization matrix.
type ProjectService struct {
	db *sqlx.DB
}

// NewProjectService creates a new ProjectService.
func NewProjectService(db *sqlx.DB) *ProjectService {
	return &ProjectService{db: db}
}

// Create stores a new project authored by the actor and adds the actor as
// its first contributor, atomically.
func (s *ProjectService) Create(ctx context.Context, actor authz.Actor, req CreateProjectRequest) (*Project, error) {
	if err := authz.Check(actor, authz.ActionCreate, authz.KindProject, authz.Target{}); err != nil {
		return nil, err
	}

	p := &Project{
		Name:        req.Name,
		Description: req.Description,
		Type:        req.Type,
		AuthorID:    actor.UserID,
		CreatedTime: time.Now().UTC().Truncate(time.Microsecond),
	}
	err := db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := insertProject(ctx, tx, p); err != nil {
			return err
		}
		_, err := contributors.Add(ctx, tx, actor.UserID, p.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{"project_id": p.ID, "author_id": p.AuthorID}).Info("project created")
	return p, nil
}

// List returns the projects the actor authors or contributes to.
func (s *ProjectService) List(ctx context.Context, actor authz.Actor) ([]Project, error) {
	if err := authz.Check(actor, authz.ActionList, authz.KindProject, authz.Target{}); err != nil {
		return nil, err
	}
	return listForMember(ctx, s.db, actor.UserID)
}

// Get returns a project with its author and contributors. Members only.
func (s *ProjectService) Get(ctx context.Context, actor authz.Actor, id int64) (*View, error) {
	p, err := s.resolve(ctx, actor, authz.ActionRetrieve, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, p)
}

// Update replaces the project's mutable fields. Author only.
func (s *ProjectService) Update(ctx context.Context, actor authz.Actor, id int64, req UpdateProjectRequest) (*View, error) {
	return s.patch(ctx, actor, authz.ActionUpdate, id, req.asPatch())
}

// Patch changes the given fields of the project. Author only.
func (s *ProjectService) Patch(ctx context.Context, actor authz.Actor, id int64, req PatchProjectRequest) (*View, error) {
	return s.patch(ctx, actor, authz.ActionPartialUpdate, id, req)
}

func (s *ProjectService) patch(ctx context.Context, actor authz.Actor, action authz.Action, id int64, req PatchProjectRequest) (*View, error) {
	p, err := s.resolve(ctx, actor, action, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Type != nil {
		p.Type = *req.Type
	}
	if err := updateProject(ctx, s.db, p); err != nil {
		return nil, err
	}
	return s.view(ctx, p)
}

// Delete removes the project with its issues, comments, and contributor
// links. Author only.
func (s *ProjectService) Delete(ctx context.Context, actor authz.Actor, id int64) error {
	p, err := s.resolve(ctx, actor, authz.ActionDestroy, id)
	if err != nil {
		return err
	}
	if err := deleteProject(ctx, s.db, p.ID); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{"project_id": p.ID, "actor_id": actor.UserID}).Info("project deleted")
	return nil
}

// resolve loads the project and its membership view, then consults the matrix.
func (s *ProjectService) resolve(ctx context.Context, actor authz.Actor, action authz.Action, id int64) (*Project, error) {
	if !actor.Authenticated {
		return nil, authz.Check(actor, action, authz.KindProject, authz.Target{})
	}
	p, err := GetByID(ctx, s.db, id)
	if err != nil && !apperror.IsNotFound(err) {
		return nil, err
	}
	target := authz.Target{}
	if p != nil {
		scope, err := contributors.LoadAccess(ctx, s.db, p.ID)
		if err != nil {
			return nil, err
		}
		target.Scope = scope
		target.Object = &authz.Object{AuthorID: p.AuthorID}
	}
	if err := authz.Check(actor, action, authz.KindProject, target); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProjectService) view(ctx context.Context, p *Project) (*View, error) {
	author, err := users.GetByID(ctx, s.db, p.AuthorID)
	if err != nil {
		return nil, err
	}
	members, err := contributors.ListMembers(ctx, s.db, p.ID)
	if err != nil {
		return nil, err
	}
	return &View{Project: *p, Author: author, Members: members}, nil
}
