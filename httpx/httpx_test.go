package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/softdesk-go/apperror"
)

type sample struct {
	Name string  `json:"name" validate:"required,max=5"`
	Kind *string `json:"kind,omitempty" validate:"omitempty,oneof=a b"`
}

func decodeBody(t *testing.T, body string) (sample, error) {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	var s sample
	err := Decode(r, &s)
	return s, err
}

func TestDecode(t *testing.T) {
	s, err := decodeBody(t, `{"name":"abc","kind":"a"}`)
	require.NoError(t, err)
	assert.Equal(t, "abc", s.Name)
	require.NotNil(t, s.Kind)
	assert.Equal(t, "a", *s.Kind)
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		errType  apperror.ErrorType
		contains string
	}{
		{"empty body", ``, apperror.BadRequestError, "required"},
		{"not an object", `[1,2]`, apperror.BadRequestError, "JSON object"},
		{"immutable keys", `{"name":"abc","author":3,"id":1}`, apperror.ValidationError, "author, id"},
		{"unknown key", `{"name":"abc","colour":"red"}`, apperror.ValidationError, "unknown field"},
		{"wrong type", `{"name":5}`, apperror.ValidationError, "name"},
		{"missing required", `{}`, apperror.ValidationError, "name is required"},
		{"too long", `{"name":"abcdefgh"}`, apperror.ValidationError, "at most 5"},
		{"bad enum", `{"name":"abc","kind":"z"}`, apperror.ValidationError, "one of"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeBody(t, tt.body)
			ae, ok := apperror.FromError(err)
			require.True(t, ok, "%v", err)
			assert.Equal(t, tt.errType, ae.Type)
			assert.Contains(t, ae.Message, tt.contains)
		})
	}
}

func TestDecodeRefusesOversizedBody(t *testing.T) {
	body := `{"name":"` + strings.Repeat("a", maxBodyBytes) + `"}`
	_, err := decodeBody(t, body)
	ae, ok := apperror.FromError(err)
	require.True(t, ok, "%v", err)
	assert.Equal(t, apperror.PayloadTooLargeError, ae.Type)
	assert.Equal(t, http.StatusRequestEntityTooLarge, ae.StatusCode())
	assert.Contains(t, ae.Message, "exceeds 1048576 bytes")

	w := httptest.NewRecorder()
	WriteError(w, httptest.NewRequest(http.MethodPost, "/", nil), err)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestDecodeAcceptsBodyAtLimit(t *testing.T) {
	prefix, suffix := `{"name":"abc","kind":"a"`, `}`
	pad := strings.Repeat(" ", maxBodyBytes-len(prefix)-len(suffix))
	s, err := decodeBody(t, prefix+pad+suffix)
	require.NoError(t, err)
	assert.Equal(t, "abc", s.Name)
}

func TestWriteError(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	w := httptest.NewRecorder()
	WriteError(w, r, apperror.NewPermissionDenied("NOT_AUTHOR", "only the author may do that"))
	assert.Equal(t, http.StatusForbidden, w.Code)
	var body apperror.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "NOT_AUTHOR", body.Reason)

	w = httptest.NewRecorder()
	WriteError(w, r, errors.New("disk on fire"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "disk on fire")
}

func TestWriteJSONNoContent(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSON(w, http.StatusNoContent, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestIDParam(t *testing.T) {
	router := chi.NewRouter()
	var got int64
	var gotErr error
	router.Get("/projects/{projectID}", func(w http.ResponseWriter, r *http.Request) {
		got, gotErr = IDParam(r, "projectID")
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/projects/42", nil))
	require.NoError(t, gotErr)
	assert.Equal(t, int64(42), got)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/projects/abc", nil))
	assert.True(t, apperror.IsNotFound(gotErr))

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/projects/0", nil))
	assert.True(t, apperror.IsNotFound(gotErr))
}
