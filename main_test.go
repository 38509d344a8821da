package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/softdesk-go/config"
	"github.com/user/softdesk-go/db/dbtest"
)

type client struct {
	t   *testing.T
	srv *httptest.Server
}

func newClient(t *testing.T) *client {
	t.Helper()
	cfg := &config.AppConfig{
		Auth: &config.AuthConfig{
			JWTSecret:            "test-secret",
			AccessTokenDuration:  time.Minute,
			RefreshTokenDuration: time.Hour,
		},
		Users: &config.UsersConfig{MinAge: 15},
	}
	srv := httptest.NewServer(newRouter(dbtest.New(t), cfg))
	t.Cleanup(srv.Close)
	return &client{t: t, srv: srv}
}

// do sends body as JSON and decodes the JSON response, if any.
func (c *client) do(method, path, token string, body any) (int, map[string]any) {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, c.srv.URL+path, &buf)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.srv.Client().Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	var out map[string]any
	if resp.StatusCode != http.StatusNoContent {
		var raw any
		if err := json.NewDecoder(resp.Body).Decode(&raw); err == nil {
			if m, ok := raw.(map[string]any); ok {
				out = m
			} else {
				out = map[string]any{"items": raw}
			}
		}
	}
	return resp.StatusCode, out
}

func (c *client) register(username string, share bool) (int64, string) {
	c.t.Helper()
	status, body := c.do(http.MethodPost, "/api/users", "", map[string]any{
		"username": username, "password": "pw-" + username, "age": 30, "can_data_be_shared": share,
	})
	require.Equal(c.t, http.StatusCreated, status, body)

	status, tokens := c.do(http.MethodPost, "/api/token", "", map[string]any{
		"username": username, "password": "pw-" + username,
	})
	require.Equal(c.t, http.StatusOK, status, tokens)
	return int64(body["id"].(float64)), tokens["access_token"].(string)
}

func TestProjectLifecycleOverHTTP(t *testing.T) {
	c := newClient(t)
	_, alice := c.register("alice", true)
	bobID, bob := c.register("bob", false)
	_, carol := c.register("carol", true)

	status, project := c.do(http.MethodPost, "/api/projects", alice, map[string]any{"name": "Alpha", "type": "backend"})
	require.Equal(t, http.StatusCreated, status, project)
	projectPath := fmt.Sprintf("/api/projects/%d", int64(project["id"].(float64)))

	status, body := c.do(http.MethodPost, projectPath+"/contributors", alice, map[string]any{"username": "bob"})
	require.Equal(t, http.StatusCreated, status, body)

	status, issue := c.do(http.MethodPost, projectPath+"/issues", bob, map[string]any{
		"title": "Bug1", "tag": "bug", "assignee_id": bobID,
	})
	require.Equal(t, http.StatusCreated, status, issue)
	assert.Equal(t, "to_do", issue["status"])
	assert.NotNil(t, issue["author"], "bob always sees his own profile")
	issuePath := fmt.Sprintf("%s/issues/%d", projectPath, int64(issue["id"].(float64)))

	status, body = c.do(http.MethodGet, issuePath, alice, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Nil(t, body["author"], "bob does not share his data")
	assert.Equal(t, "Alpha", body["project"].(map[string]any)["name"])

	status, body = c.do(http.MethodGet, issuePath, carol, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "NOT_CONTRIBUTOR", body["reason"])
	status, body = c.do(http.MethodGet, projectPath+"/issues", carol, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "NOT_CONTRIBUTOR", body["reason"])

	status, body = c.do(http.MethodPatch, issuePath, alice, map[string]any{"title": "mine"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "NOT_AUTHOR", body["reason"])

	status, body = c.do(http.MethodPatch, issuePath, bob, map[string]any{"project_id": 99})
	assert.Equal(t, http.StatusBadRequest, status, body)

	status, body = c.do(http.MethodPut, fmt.Sprintf("%s/contributors/%d", projectPath, bobID), alice, map[string]any{})
	assert.Equal(t, http.StatusMethodNotAllowed, status)
	assert.Equal(t, "ACTION_NOT_ALLOWED", body["reason"])

	status, comment := c.do(http.MethodPost, issuePath+"/comments", bob, map[string]any{"description": "needs repro"})
	require.Equal(t, http.StatusCreated, status, comment)
	commentPath := issuePath + "/comments/" + comment["id"].(string)

	status, body = c.do(http.MethodDelete, commentPath, alice, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "NOT_AUTHOR", body["reason"])
	status, _ = c.do(http.MethodGet, commentPath, alice, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = c.do(http.MethodGet, issuePath+"/comments/not-a-uuid", bob, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = c.do(http.MethodDelete, projectPath, alice, nil)
	require.Equal(t, http.StatusNoContent, status)

	status, _ = c.do(http.MethodGet, issuePath, alice, nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = c.do(http.MethodGet, commentPath, alice, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	c := newClient(t)

	status, body := c.do(http.MethodGet, "/api/projects", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "NOT_AUTHENTICATED", body["reason"])

	status, _ = c.do(http.MethodGet, "/api/users", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = c.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestRegistrationRejectsUnderageUsers(t *testing.T) {
	c := newClient(t)

	status, body := c.do(http.MethodPost, "/api/users", "", map[string]any{
		"username": "kid", "password": "pw", "age": 12,
	})
	assert.Equal(t, http.StatusBadRequest, status, body)
}
