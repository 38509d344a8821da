// JWTMiddleware guards protected routes: it checks the Bearer access
// token, confirms the user still exists, and puts the user id in the
// request context.

package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/user/softdesk-go/apperror"
	"github.com/user/softdesk-go/authz"
	"github.com/user/softdesk-go/config"
	"github.com/user/softdesk-go/httpx"
)

// UserChecker confirms that the account named by a valid token still exists.
type UserChecker interface {
	UserExists(ctx context.Context, userID int64) (bool, error)
}

func notAuthenticated(msg string, err error) error {
	return apperror.NewAuthError(msg, err).WithReason(string(authz.ReasonNotAuthenticated))
}

// JWTMiddleware verifies the Bearer access token and adds the user id to the
// request context. Refresh tokens are rejected. When users is non-nil, tokens
// for deleted accounts are rejected too.
func JWTMiddleware(cfg *config.AuthConfig, users UserChecker) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				httpx.WriteError(w, r, notAuthenticated("authorization header is missing", nil))
				return
			}

			parts := strings.Fields(authHeader)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				httpx.WriteError(w, r, notAuthenticated("authorization header format must be Bearer {token}", nil))
				return
			}

			claims, err := ValidateToken(cfg.JWTSecret, parts[1], tokenTypeAccess)
			if err != nil {
				logrus.WithError(err).Debug("rejected access token")
				httpx.WriteError(w, r, notAuthenticated("invalid or expired token", err))
				return
			}

			if users != nil {
				exists, err := users.UserExists(r.Context(), claims.UserID)
				if err != nil {
					httpx.WriteError(w, r, err)
					return
				}
				if !exists {
					httpx.WriteError(w, r, notAuthenticated("user no longer exists", nil))
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(NewContextWithUserID(r.Context(), claims.UserID)))
		})
	}
}
