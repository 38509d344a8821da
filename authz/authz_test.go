package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/user/softdesk-go/apperror"
)

const (
	author      int64 = 1
	contributor int64 = 2
	outsider    int64 = 3
)

func alpha() *ProjectAccess {
	return &ProjectAccess{
		ProjectID:    10,
		AuthorID:     author,
		Contributors: map[int64]struct{}{contributor: {}},
	}
}

func TestIsContributorOrAuthor(t *testing.T) {
	p := alpha()
	assert.True(t, p.IsContributorOrAuthor(author))
	assert.True(t, p.IsContributorOrAuthor(contributor))
	assert.False(t, p.IsContributorOrAuthor(outsider))

	// The author keeps standing without a contributor row.
	p.Contributors = map[int64]struct{}{}
	assert.True(t, p.IsContributorOrAuthor(author))
	assert.False(t, p.IsContributorOrAuthor(contributor))

	var missing *ProjectAccess
	assert.False(t, missing.IsContributorOrAuthor(author))
}

func TestDecide(t *testing.T) {
	ownedBy := func(id int64) *Object { return &Object{AuthorID: id} }

	tests := []struct {
		name   string
		actor  Actor
		action Action
		kind   Kind
		target Target
		want   Reason
	}{
		{"anonymous cannot list projects", Anonymous, ActionList, KindProject, Target{}, ReasonNotAuthenticated},
		{"anonymous can register", Anonymous, ActionCreate, KindUser, Target{}, ReasonNone},
		{"anonymous cannot list users", Anonymous, ActionList, KindUser, Target{}, ReasonNotAuthenticated},
		{"unknown action", User(author), Action("archive"), KindProject, Target{}, ReasonUnknownAction},

		{"any user lists projects", User(outsider), ActionList, KindProject, Target{}, ReasonNone},
		{"any user creates projects", User(outsider), ActionCreate, KindProject, Target{}, ReasonNone},
		{"contributor retrieves project", User(contributor), ActionRetrieve, KindProject, Target{Scope: alpha(), Object: ownedBy(author)}, ReasonNone},
		{"outsider cannot retrieve project", User(outsider), ActionRetrieve, KindProject, Target{Scope: alpha(), Object: ownedBy(author)}, ReasonNotContributor},
		{"missing project", User(author), ActionRetrieve, KindProject, Target{}, ReasonNotFound},
		{"author updates project", User(author), ActionUpdate, KindProject, Target{Scope: alpha(), Object: ownedBy(author)}, ReasonNone},
		{"contributor cannot patch project", User(contributor), ActionPartialUpdate, KindProject, Target{Scope: alpha(), Object: ownedBy(author)}, ReasonNotAuthor},
		{"contributor cannot delete project", User(contributor), ActionDestroy, KindProject, Target{Scope: alpha(), Object: ownedBy(author)}, ReasonNotAuthor},

		{"issue under missing project", User(author), ActionCreate, KindIssue, Target{}, ReasonParentNotFound},
		{"missing project wins over membership", User(outsider), ActionList, KindIssue, Target{}, ReasonParentNotFound},
		{"contributor lists issues", User(contributor), ActionList, KindIssue, Target{Scope: alpha()}, ReasonNone},
		{"author creates issue", User(author), ActionCreate, KindIssue, Target{Scope: alpha()}, ReasonNone},
		{"outsider cannot list issues", User(outsider), ActionList, KindIssue, Target{Scope: alpha()}, ReasonNotContributor},
		{"outsider cannot retrieve issue", User(outsider), ActionRetrieve, KindIssue, Target{Scope: alpha(), Object: ownedBy(author)}, ReasonNotContributor},
		{"missing issue", User(contributor), ActionRetrieve, KindIssue, Target{Scope: alpha()}, ReasonNotFound},
		{"issue author updates", User(contributor), ActionUpdate, KindIssue, Target{Scope: alpha(), Object: ownedBy(contributor)}, ReasonNone},
		{"project author cannot update other's issue", User(author), ActionUpdate, KindIssue, Target{Scope: alpha(), Object: ownedBy(contributor)}, ReasonNotAuthor},
		{"removed author updates own issue", User(outsider), ActionPartialUpdate, KindIssue, Target{Scope: alpha(), Object: ownedBy(outsider)}, ReasonNone},
		{"outsider updating issue is not the author", User(outsider), ActionUpdate, KindIssue, Target{Scope: alpha(), Object: ownedBy(contributor)}, ReasonNotAuthor},

		{"contributor comments", User(contributor), ActionCreate, KindComment, Target{Scope: alpha()}, ReasonNone},
		{"outsider cannot comment", User(outsider), ActionCreate, KindComment, Target{Scope: alpha()}, ReasonNotContributor},
		{"comment author deletes", User(author), ActionDestroy, KindComment, Target{Scope: alpha(), Object: ownedBy(author)}, ReasonNone},
		{"other contributor cannot delete comment", User(contributor), ActionDestroy, KindComment, Target{Scope: alpha(), Object: ownedBy(author)}, ReasonNotAuthor},
		{"removed author deletes own comment", User(outsider), ActionDestroy, KindComment, Target{Scope: alpha(), Object: ownedBy(outsider)}, ReasonNone},
		{"outsider updating comment is not the author", User(outsider), ActionUpdate, KindComment, Target{Scope: alpha(), Object: ownedBy(author)}, ReasonNotAuthor},
		{"comment under missing issue", User(author), ActionList, KindComment, Target{}, ReasonParentNotFound},

		{"contributor lists contributors", User(contributor), ActionList, KindContributor, Target{Scope: alpha()}, ReasonNone},
		{"outsider cannot list contributors", User(outsider), ActionList, KindContributor, Target{Scope: alpha()}, ReasonNotContributor},
		{"author adds contributor", User(author), ActionCreate, KindContributor, Target{Scope: alpha()}, ReasonNone},
		{"contributor cannot add contributor", User(contributor), ActionCreate, KindContributor, Target{Scope: alpha()}, ReasonNotAuthor},
		{"author removes contributor", User(author), ActionDestroy, KindContributor, Target{Scope: alpha(), Object: ownedBy(contributor)}, ReasonNone},
		{"contributor cannot remove contributor", User(contributor), ActionDestroy, KindContributor, Target{Scope: alpha(), Object: ownedBy(contributor)}, ReasonNotAuthor},
		{"contributor links are never updated", User(author), ActionUpdate, KindContributor, Target{Scope: alpha(), Object: ownedBy(contributor)}, ReasonActionNotAllowed},

		{"user lists users", User(outsider), ActionList, KindUser, Target{}, ReasonNone},
		{"user retrieves self", User(outsider), ActionRetrieve, KindUser, Target{Object: ownedBy(outsider)}, ReasonNone},
		{"user cannot retrieve other", User(outsider), ActionRetrieve, KindUser, Target{Object: ownedBy(author)}, ReasonNotSelf},
		{"user cannot delete other", User(outsider), ActionDestroy, KindUser, Target{Object: ownedBy(author)}, ReasonNotSelf},
		{"missing user", User(outsider), ActionUpdate, KindUser, Target{}, ReasonNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(tt.actor, tt.action, tt.kind, tt.target)
			assert.Equal(t, tt.want == ReasonNone, d.Allowed, d.String())
			assert.Equal(t, tt.want, d.Reason)
		})
	}
}

func TestDecisionErr(t *testing.T) {
	assert.NoError(t, allow().Err())

	tests := []struct {
		reason Reason
		status int
	}{
		{ReasonNotAuthenticated, 401},
		{ReasonNotAuthor, 403},
		{ReasonNotContributor, 403},
		{ReasonNotSelf, 403},
		{ReasonParentNotFound, 404},
		{ReasonNotFound, 404},
		{ReasonActionNotAllowed, 405},
		{ReasonUnknownAction, 400},
	}
	for _, tt := range tests {
		err := deny(tt.reason).Err()
		ae, ok := apperror.FromError(err)
		if assert.True(t, ok, tt.reason) {
			assert.Equal(t, tt.status, ae.StatusCode(), tt.reason)
			assert.Equal(t, string(tt.reason), ae.Reason)
		}
	}
}

func TestDecisionString(t *testing.T) {
	assert.Equal(t, "allow", allow().String())
	assert.Equal(t, "deny (NOT_AUTHOR)", deny(ReasonNotAuthor).String())
}
