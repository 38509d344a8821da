// Request-context helpers that carry the authenticated user id.

package auth

import (
	"context"

	"github.com/user/softdesk-go/authz"
)

// ContextKey is a type used for context keys to avoid collisions.
type ContextKey string

// UserIDKey is the key used to store the authenticated user's id in the request context.
const UserIDKey ContextKey = "userID"

// NewContextWithUserID returns a child context carrying the authenticated user id.
func NewContextWithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// GetUserIDFromContext retrieves the userID from the request context.
// Returns 0 and false if no authenticated user is attached.
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(UserIDKey).(int64)
	return userID, ok && userID > 0
}

// ActorFromContext returns the acting identity for authorization checks.
// Requests that did not pass through JWTMiddleware are anonymous.
func ActorFromContext(ctx context.Context) authz.Actor {
	if id, ok := GetUserIDFromContext(ctx); ok {
		return authz.User(id)
	}
	return authz.Anonymous
}
