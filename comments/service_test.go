package comments

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/softdesk-go/apperror"
	"github.com/user/softdesk-go/authz"
	"github.com/user/softdesk-go/config"
	"github.com/user/softdesk-go/contributors"
	"github.com/user/softdesk-go/db/dbtest"
	"github.com/user/softdesk-go/issues"
	"github.com/user/softdesk-go/projects"
	"github.com/user/softdesk-go/users"
)

type fixture struct {
	svc             *CommentService
	alice, bob, eve int64
	alpha, bug      int64
}

// newFixture sets up project Alpha (alice, with contributor bob) holding
// issue Bug1 filed by alice. eve is not a member.
func newFixture(t *testing.T) fixture {
	t.Helper()
	conn := dbtest.New(t)
	ctx := context.Background()
	f := fixture{svc: NewCommentService(conn)}
	f.alice = dbtest.CreateUser(t, conn, "alice", true)
	f.bob = dbtest.CreateUser(t, conn, "bob", true)
	f.eve = dbtest.CreateUser(t, conn, "eve", true)
	f.alpha = dbtest.CreateProject(t, conn, f.alice, "Alpha")
	_, err := contributors.Add(ctx, conn, f.bob, f.alpha)
	require.NoError(t, err)

	v, err := issues.NewIssueService(conn).Create(ctx, authz.User(f.alice), f.alpha,
		issues.CreateIssueRequest{Title: "Bug1", Tag: issues.TagBug})
	require.NoError(t, err)
	f.bug = v.ID
	return f
}

func TestMembersCanCommentAndRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, authz.User(f.bob), f.alpha, f.bug, CreateCommentRequest{Description: "seen it"})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, first.ID)
	assert.Equal(t, f.bob, first.AuthorID)
	assert.Equal(t, "Bug1", first.Detail(f.alice).Issue.Title)

	second, err := f.svc.Create(ctx, authz.User(f.alice), f.alpha, f.bug, CreateCommentRequest{Description: "fixing"})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	list, err := f.svc.List(ctx, authz.User(f.alice), f.alpha, f.bug)
	require.NoError(t, err)
	require.Len(t, list, 2)

	got, err := f.svc.Get(ctx, authz.User(f.alice), f.alpha, f.bug, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "seen it", got.Description)
}

func TestNonMembersAreRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, authz.User(f.eve), f.alpha, f.bug, CreateCommentRequest{Description: "hi"})
	assert.Equal(t, string(authz.ReasonNotContributor), apperror.ReasonOf(err))
	_, err = f.svc.List(ctx, authz.User(f.eve), f.alpha, f.bug)
	assert.Equal(t, string(authz.ReasonNotContributor), apperror.ReasonOf(err))
	_, err = f.svc.List(ctx, authz.Anonymous, f.alpha, f.bug)
	assert.True(t, apperror.IsAuthError(err))
}

func TestMissingParentsAreNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.List(ctx, authz.User(f.alice), f.alpha, f.bug+100)
	assert.Equal(t, string(authz.ReasonParentNotFound), apperror.ReasonOf(err))

	// An issue addressed through the wrong project does not exist there.
	beta := dbtest.CreateProject(t, f.svc.db, f.alice, "Beta")
	_, err = f.svc.Create(ctx, authz.User(f.alice), beta, f.bug, CreateCommentRequest{Description: "x"})
	assert.Equal(t, string(authz.ReasonParentNotFound), apperror.ReasonOf(err))

	_, err = f.svc.Get(ctx, authz.User(f.alice), f.alpha, f.bug, uuid.New())
	assert.Equal(t, string(authz.ReasonNotFound), apperror.ReasonOf(err))
}

func TestOnlyTheCommentAuthorMayChangeIt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.svc.Create(ctx, authz.User(f.bob), f.alpha, f.bug, CreateCommentRequest{Description: "draft"})
	require.NoError(t, err)

	// Not even the project or issue author.
	_, err = f.svc.Update(ctx, authz.User(f.alice), f.alpha, f.bug, c.ID, UpdateCommentRequest{Description: "edited"})
	assert.Equal(t, string(authz.ReasonNotAuthor), apperror.ReasonOf(err))
	err = f.svc.Delete(ctx, authz.User(f.alice), f.alpha, f.bug, c.ID)
	assert.Equal(t, string(authz.ReasonNotAuthor), apperror.ReasonOf(err))

	desc := "final"
	v, err := f.svc.Patch(ctx, authz.User(f.bob), f.alpha, f.bug, c.ID, PatchCommentRequest{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "final", v.Description)

	require.NoError(t, f.svc.Delete(ctx, authz.User(f.bob), f.alpha, f.bug, c.ID))
	_, err = f.svc.Get(ctx, authz.User(f.bob), f.alpha, f.bug, c.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestProjectDeleteRemovesComments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.svc.Create(ctx, authz.User(f.bob), f.alpha, f.bug, CreateCommentRequest{Description: "doomed"})
	require.NoError(t, err)

	require.NoError(t, projects.NewProjectService(f.svc.db).Delete(ctx, authz.User(f.alice), f.alpha))

	_, err = f.svc.Get(ctx, authz.User(f.bob), f.alpha, f.bug, c.ID)
	assert.True(t, apperror.IsNotFound(err))

	var n int
	require.NoError(t, f.svc.db.Get(&n, `SELECT COUNT(*) FROM comments`))
	assert.Zero(t, n)
}

func TestUserDeleteRemovesAuthoredWorkAndClearsAssignments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	issueSvc := issues.NewIssueService(f.svc.db)

	own, err := issueSvc.Create(ctx, authz.User(f.bob), f.alpha, issues.CreateIssueRequest{Title: "Bug2", Tag: issues.TagTask})
	require.NoError(t, err)
	c, err := f.svc.Create(ctx, authz.User(f.bob), f.alpha, f.bug, CreateCommentRequest{Description: "mine"})
	require.NoError(t, err)
	bob := f.bob
	_, err = issueSvc.Patch(ctx, authz.User(f.alice), f.alpha, f.bug,
		issues.PatchIssueRequest{AssigneeID: issues.OptionalID{Set: true, ID: &bob}})
	require.NoError(t, err)

	userSvc := users.NewUserService(f.svc.db, config.UsersConfig{MinAge: 15})
	require.NoError(t, userSvc.Delete(ctx, authz.User(f.bob), f.bob))

	_, err = issues.GetInProject(ctx, f.svc.db, f.alpha, own.ID)
	assert.True(t, apperror.IsNotFound(err))
	_, err = f.svc.Get(ctx, authz.User(f.alice), f.alpha, f.bug, c.ID)
	assert.True(t, apperror.IsNotFound(err))

	assigned, err := issues.GetInProject(ctx, f.svc.db, f.alpha, f.bug)
	require.NoError(t, err)
	assert.Nil(t, assigned.AssigneeID)
}
