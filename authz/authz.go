// Package authz evaluates the SoftDesk permission matrix.
//
// Decide is a pure function: handlers resolve the acting identity, the
// parent project (when the resource is nested), and the target object, then
// ask Decide whether the action may proceed. Decide never touches storage,
// which keeps every rule table-testable.
package authz

import (
	"fmt"

	"github.com/user/softdesk-go/apperror"
)

// Action is a request verb in the resource vocabulary.
type Action string

const (
	ActionList          Action = "list"
	ActionRetrieve      Action = "retrieve"
	ActionCreate        Action = "create"
	ActionUpdate        Action = "update"
	ActionPartialUpdate Action = "partial_update"
	ActionDestroy       Action = "destroy"
)

// objectScoped reports whether the action addresses one existing object.
func (a Action) objectScoped() bool {
	switch a {
	case ActionRetrieve, ActionUpdate, ActionPartialUpdate, ActionDestroy:
		return true
	}
	return false
}

func (a Action) known() bool {
	switch a {
	case ActionList, ActionCreate:
		return true
	}
	return a.objectScoped()
}

// Kind names a resource type.
type Kind string

const (
	KindProject     Kind = "project"
	KindIssue       Kind = "issue"
	KindComment     Kind = "comment"
	KindContributor Kind = "contributor"
	KindUser        Kind = "user"
)

// nested reports whether resources of this kind live under a project.
func (k Kind) nested() bool {
	switch k {
	case KindIssue, KindComment, KindContributor:
		return true
	}
	return false
}

// Reason explains a denial. The zero value means the action was allowed.
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonNotAuthenticated Reason = "NOT_AUTHENTICATED"
	ReasonNotAuthor        Reason = "NOT_AUTHOR"
	ReasonNotContributor   Reason = "NOT_CONTRIBUTOR"
	ReasonNotSelf          Reason = "NOT_SELF"
	ReasonParentNotFound   Reason = "PARENT_NOT_FOUND"
	ReasonNotFound         Reason = "NOT_FOUND"
	ReasonActionNotAllowed Reason = "ACTION_NOT_ALLOWED"
	ReasonUnknownAction    Reason = "UNKNOWN_ACTION"
)

// String returns a human-readable reason.
func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "allowed"
	case ReasonNotAuthenticated:
		return "authentication credentials were not provided"
	case ReasonNotAuthor:
		return "only the author may perform this action"
	case ReasonNotContributor:
		return "only project contributors may perform this action"
	case ReasonNotSelf:
		return "users may only act on their own account"
	case ReasonParentNotFound:
		return "parent resource not found"
	case ReasonNotFound:
		return "resource not found"
	case ReasonActionNotAllowed:
		return "action is not allowed on this resource"
	case ReasonUnknownAction:
		return "unknown action"
	default:
		return string(r)
	}
}

// Actor is the identity performing a request.
type Actor struct {
	UserID        int64
	Authenticated bool
}

// Anonymous is the actor for requests without credentials.
var Anonymous = Actor{}

// User returns an authenticated actor.
func User(id int64) Actor {
	return Actor{UserID: id, Authenticated: true}
}

// ProjectAccess is the membership view of one project: its author and the
// users holding a contributor link.
type ProjectAccess struct {
	ProjectID    int64
	AuthorID     int64
	Contributors map[int64]struct{}
}

// IsContributorOrAuthor is the single membership predicate. The author
// counts as a contributor whether or not a contributor row exists.
func (p *ProjectAccess) IsContributorOrAuthor(userID int64) bool {
	if p == nil {
		return false
	}
	if userID == p.AuthorID {
		return true
	}
	_, ok := p.Contributors[userID]
	return ok
}

// Object is the resolved target of an object-scoped action. For users,
// AuthorID is the user's own id.
type Object struct {
	AuthorID int64
}

// Target carries whatever the handler could resolve before asking. A nil
// Scope for a nested kind means the parent does not exist; a nil Object for
// an object-scoped action means the target does not exist. For project
// actions on an existing project, Scope is that project's access view.
type Target struct {
	Scope  *ProjectAccess
	Object *Object
}

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Reason  Reason
}

func allow() Decision        { return Decision{Allowed: true} }
func deny(r Reason) Decision { return Decision{Reason: r} }

// String returns "allow" or "deny" with the reason.
func (d Decision) String() string {
	if d.Allowed {
		return "allow"
	}
	return fmt.Sprintf("deny (%s)", d.Reason)
}

// Err converts a denial into the matching application error; it returns nil
// when the decision allows the action.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	msg := d.Reason.String()
	var ae *apperror.AppError
	switch d.Reason {
	case ReasonNotAuthenticated:
		ae = apperror.NewAuthError(msg, nil)
	case ReasonNotAuthor, ReasonNotContributor, ReasonNotSelf:
		return apperror.NewPermissionDenied(string(d.Reason), msg)
	case ReasonParentNotFound, ReasonNotFound:
		ae = apperror.NewNotFoundError(msg, nil)
	case ReasonActionNotAllowed:
		ae = apperror.NewMethodNotAllowedError(msg)
	default:
		ae = apperror.NewBadRequestError(msg, nil)
	}
	return ae.WithReason(string(d.Reason))
}

// Decide evaluates the permission matrix.
//
// Evaluation order:
//
//  1. Unknown actions are rejected.
//  2. Every action except user registration requires an authenticated actor.
//  3. Nested kinds require a resolved parent scope; otherwise the parent
//     is reported missing, never a permission problem.
//  4. Object-scoped actions require a resolved object.
//  5. The per-kind rule decides.
func Decide(actor Actor, action Action, kind Kind, target Target) Decision {
	if !action.known() {
		return deny(ReasonUnknownAction)
	}
	if !actor.Authenticated && !(kind == KindUser && action == ActionCreate) {
		return deny(ReasonNotAuthenticated)
	}
	if kind.nested() && target.Scope == nil {
		return deny(ReasonParentNotFound)
	}
	if action.objectScoped() && target.Object == nil {
		return deny(ReasonNotFound)
	}

	switch kind {
	case KindProject:
		return decideProject(actor, action, target)
	case KindIssue, KindComment:
		return decideOwned(actor, action, target)
	case KindContributor:
		return decideContributor(actor, action, target)
	case KindUser:
		return decideUser(actor, action, target)
	default:
		return deny(ReasonActionNotAllowed)
	}
}

func decideProject(actor Actor, action Action, target Target) Decision {
	switch action {
	case ActionList, ActionCreate:
		// Listing is filtered to the actor's memberships by the caller.
		return allow()
	case ActionRetrieve:
		if !target.Scope.IsContributorOrAuthor(actor.UserID) {
			return deny(ReasonNotContributor)
		}
		return allow()
	default:
		if target.Object.AuthorID != actor.UserID {
			return deny(ReasonNotAuthor)
		}
		return allow()
	}
}

// decideOwned covers issues and comments: membership for reading and
// creating, authorship alone for changing. An author who has left the
// project still owns what they wrote.
func decideOwned(actor Actor, action Action, target Target) Decision {
	switch action {
	case ActionList, ActionRetrieve, ActionCreate:
		if !target.Scope.IsContributorOrAuthor(actor.UserID) {
			return deny(ReasonNotContributor)
		}
		return allow()
	default:
		if target.Object.AuthorID != actor.UserID {
			return deny(ReasonNotAuthor)
		}
		return allow()
	}
}

func decideContributor(actor Actor, action Action, target Target) Decision {
	switch action {
	case ActionUpdate, ActionPartialUpdate:
		return deny(ReasonActionNotAllowed)
	case ActionList, ActionRetrieve:
		if !target.Scope.IsContributorOrAuthor(actor.UserID) {
			return deny(ReasonNotContributor)
		}
		return allow()
	default:
		if target.Scope.AuthorID != actor.UserID {
			return deny(ReasonNotAuthor)
		}
		return allow()
	}
}

func decideUser(actor Actor, action Action, target Target) Decision {
	switch action {
	case ActionList, ActionCreate:
		return allow()
	default:
		if target.Object.AuthorID != actor.UserID {
			return deny(ReasonNotSelf)
		}
		return allow()
	}
}

// Check is Decide followed by Err, for handlers that only need the error.
func Check(actor Actor, action Action, kind Kind, target Target) error {
	return Decide(actor, action, kind, target).Err()
}
