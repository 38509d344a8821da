// Comment business logic. The chain is one level deeper than issues:
//
//  1. scope loads the project's members, then the issue inside that
//     project. A missing project or an issue of another project leaves
//     the scope nil, which authz reports as PARENT_NOT_FOUND.
//  2. resolve looks the comment up inside that issue only. A miss leaves
//     the object nil, which authz reports as NOT_FOUND.
//  3. authz.Check decides. Reads and creation need project membership;
//     changes need authorship of the comment.
//  4. The write happens last.

package comments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/user/softdesk-go/apperror"
	"github.com/user/softdesk-go/authz"
	"github.com/user/softdesk-go/contributors"
	"github.com/user/softdesk-go/issues"
	"github.com/user/softdesk-go/users"
)

// CommentService implements comment operations behind the authorization matrix.
type CommentService struct {
	db *sqlx.DB
}

// NewCommentService creates a new CommentService.
func NewCommentService(db *sqlx.DB) *CommentService {
	return &CommentService{db: db}
}

// List returns the comments on an issue, oldest first.
func (s *CommentService) List(ctx context.Context, actor authz.Actor, projectID, issueID int64) ([]Comment, error) {
	scope, _, err := s.scope(ctx, actor, authz.ActionList, projectID, issueID)
	if err != nil {
		return nil, err
	}
	if err := authz.Check(actor, authz.ActionList, authz.KindComment, authz.Target{Scope: scope}); err != nil {
		return nil, err
	}
	return listByIssue(ctx, s.db, issueID)
}

// Create posts a comment on the issue with the actor as author.
func (s *CommentService) Create(ctx context.Context, actor authz.Actor, projectID, issueID int64, req CreateCommentRequest) (*View, error) {
	scope, issue, err := s.scope(ctx, actor, authz.ActionCreate, projectID, issueID)
	if err != nil {
		return nil, err
	}
	if err := authz.Check(actor, authz.ActionCreate, authz.KindComment, authz.Target{Scope: scope}); err != nil {
		return nil, err
	}

	c := &Comment{
		ID:          uuid.New(),
		Description: req.Description,
		IssueID:     issue.ID,
		AuthorID:    actor.UserID,
		CreatedTime: time.Now().UTC().Truncate(time.Microsecond),
	}
	if err := insertComment(ctx, s.db, c); err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"comment_id": c.ID, "issue_id": issue.ID, "author_id": actor.UserID}).
		Info("comment created")
	return s.view(ctx, c, issue)
}

// Get returns one comment with its issue and author.
func (s *CommentService) Get(ctx context.Context, actor authz.Actor, projectID, issueID int64, commentID uuid.UUID) (*View, error) {
	issue, c, err := s.resolve(ctx, actor, authz.ActionRetrieve, projectID, issueID, commentID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, c, issue)
}

// Update replaces the comment's text. Comment author only.
func (s *CommentService) Update(ctx context.Context, actor authz.Actor, projectID, issueID int64, commentID uuid.UUID, req UpdateCommentRequest) (*View, error) {
	return s.patch(ctx, actor, authz.ActionUpdate, projectID, issueID, commentID, req.asPatch())
}

// Patch changes the comment's text if given. Comment author only.
func (s *CommentService) Patch(ctx context.Context, actor authz.Actor, projectID, issueID int64, commentID uuid.UUID, req PatchCommentRequest) (*View, error) {
	return s.patch(ctx, actor, authz.ActionPartialUpdate, projectID, issueID, commentID, req)
}

func (s *CommentService) patch(ctx context.Context, actor authz.Actor, action authz.Action, projectID, issueID int64, commentID uuid.UUID, req PatchCommentRequest) (*View, error) {
	issue, c, err := s.resolve(ctx, actor, action, projectID, issueID, commentID)
	if err != nil {
		return nil, err
	}
	if req.Description != nil {
		c.Description = *req.Description
		if err := updateComment(ctx, s.db, c); err != nil {
			return nil, err
		}
	}
	return s.view(ctx, c, issue)
}

// Delete removes the comment. Comment author only.
func (s *CommentService) Delete(ctx context.Context, actor authz.Actor, projectID, issueID int64, commentID uuid.UUID) error {
	_, c, err := s.resolve(ctx, actor, authz.ActionDestroy, projectID, issueID, commentID)
	if err != nil {
		return err
	}
	if err := deleteComment(ctx, s.db, c.ID); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{"comment_id": c.ID, "issue_id": issueID, "actor_id": actor.UserID}).
		Info("comment deleted")
	return nil
}

// scope resolves the project and the issue inside it. The returned access is
// nil when either parent is missing.
func (s *CommentService) scope(ctx context.Context, actor authz.Actor, action authz.Action, projectID, issueID int64) (*authz.ProjectAccess, *issues.Issue, error) {
	if !actor.Authenticated {
		return nil, nil, authz.Check(actor, action, authz.KindComment, authz.Target{})
	}
	access, err := contributors.LoadAccess(ctx, s.db, projectID)
	if err != nil || access == nil {
		return nil, nil, err
	}
	issue, err := issues.GetInProject(ctx, s.db, projectID, issueID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	return access, issue, nil
}

func (s *CommentService) resolve(ctx context.Context, actor authz.Actor, action authz.Action, projectID, issueID int64, commentID uuid.UUID) (*issues.Issue, *Comment, error) {
	scope, issue, err := s.scope(ctx, actor, action, projectID, issueID)
	if err != nil {
		return nil, nil, err
	}
	// A nil scope skips the lookup so authz answers PARENT_NOT_FOUND; a
	// missing object stays nil so it answers NOT_FOUND instead.
	target := authz.Target{Scope: scope}
	var c *Comment
	if scope != nil {
		c, err = getInIssue(ctx, s.db, issue.ID, commentID)
		switch {
		case err == nil:
			target.Object = &authz.Object{AuthorID: c.AuthorID}
		case !apperror.IsNotFound(err):
			return nil, nil, err
		}
	}
	if err := authz.Check(actor, action, authz.KindComment, target); err != nil {
		return nil, nil, err
	}
	return issue, c, nil
}

func (s *CommentService) view(ctx context.Context, c *Comment, issue *issues.Issue) (*View, error) {
	author, err := users.GetByID(ctx, s.db, c.AuthorID)
	if err != nil {
		return nil, err
	}
	return &View{Comment: *c, Issue: issue, Author: author}, nil
}
