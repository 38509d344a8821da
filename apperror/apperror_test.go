package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCode(t *testing.T) {
	cases := []struct {
		err  *AppError
		want int
	}{
		{NewAuthError("no token", nil), http.StatusUnauthorized},
		{NewPermissionDenied("NOT_AUTHOR", "not the author"), http.StatusForbidden},
		{NewNotFoundError("missing", nil), http.StatusNotFound},
		{NewValidationError("bad age", nil), http.StatusBadRequest},
		{NewBadRequestError("bad json", nil), http.StatusBadRequest},
		{NewConflictError("dup", nil), http.StatusConflict},
		{NewMethodNotAllowedError("nope"), http.StatusMethodNotAllowed},
		{NewPayloadTooLargeError("big", nil), http.StatusRequestEntityTooLarge},
		{NewDatabaseError("db", nil), http.StatusInternalServerError},
		{NewAppError(UnknownError, "?", nil), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.err.StatusCode(), tc.err.Message)
	}
}

func TestFromErrorFollowsWrapping(t *testing.T) {
	base := NewPermissionDenied("NOT_CONTRIBUTOR", "not a contributor")
	wrapped := fmt.Errorf("listing issues: %w", base)

	ae, ok := FromError(wrapped)
	require.True(t, ok)
	assert.Equal(t, "NOT_CONTRIBUTOR", ae.Reason)
	assert.Equal(t, "NOT_CONTRIBUTOR", ReasonOf(wrapped))
	assert.True(t, IsUnauthorizedError(wrapped))

	_, ok = FromError(errors.New("plain"))
	assert.False(t, ok)
	_, ok = FromError(nil)
	assert.False(t, ok)
}

func TestToResponseHidesUnderlyingError(t *testing.T) {
	err := NewDatabaseError("failed to load project", errors.New("connection reset"))
	assert.Equal(t, "failed to load project: connection reset", err.Error())
	assert.Equal(t, ErrorResponse{Error: "failed to load project"}, err.ToResponse())
}

func TestWithReasonCopies(t *testing.T) {
	orig := NewUnauthorizedError("denied", nil)
	tagged := orig.WithReason("NOT_SELF")
	assert.Empty(t, orig.Reason)
	assert.Equal(t, "NOT_SELF", tagged.Reason)
}
