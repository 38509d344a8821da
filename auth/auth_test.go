package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/user/softdesk-go/apperror"
	"github.com/user/softdesk-go/config"
	"github.com/user/softdesk-go/db/dbtest"
)

var testAuthConfig = config.AuthConfig{
	JWTSecret:            "test-secret",
	AccessTokenDuration:  15 * time.Minute,
	RefreshTokenDuration: time.Hour,
}

func seedUser(t *testing.T, conn *sqlx.DB, username, password string) int64 {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	var id int64
	err = conn.Get(&id, conn.Rebind(`INSERT INTO users (username, password, age, created_time) VALUES (?, ?, 30, ?) RETURNING id`),
		username, string(hash), time.Now().UTC())
	require.NoError(t, err)
	return id
}

func TestLogin(t *testing.T) {
	conn := dbtest.New(t)
	svc := NewAuthService(conn, testAuthConfig)
	id := seedUser(t, conn, "alice", "s3cret-pass")
	ctx := context.Background()

	tokens, err := svc.Login(ctx, LoginRequest{Username: "alice", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", tokens.TokenType)
	assert.Equal(t, int64(900), tokens.ExpiresIn)

	claims, err := ValidateToken(testAuthConfig.JWTSecret, tokens.AccessToken, tokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)

	_, err = svc.Login(ctx, LoginRequest{Username: "alice", Password: "wrong"})
	assert.True(t, apperror.IsAuthError(err))
	_, err = svc.Login(ctx, LoginRequest{Username: "nobody", Password: "wrong"})
	assert.True(t, apperror.IsAuthError(err))
}

func TestRefreshToken(t *testing.T) {
	conn := dbtest.New(t)
	svc := NewAuthService(conn, testAuthConfig)
	id := seedUser(t, conn, "alice", "s3cret-pass")
	ctx := context.Background()

	tokens, err := svc.IssueTokens(id)
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, tokens.RefreshToken, refreshed.RefreshToken)
	_, err = ValidateToken(testAuthConfig.JWTSecret, refreshed.AccessToken, tokenTypeAccess)
	require.NoError(t, err)

	// An access token is not a refresh token.
	_, err = svc.RefreshToken(ctx, tokens.AccessToken)
	assert.True(t, apperror.IsAuthError(err))

	_, err = conn.Exec(conn.Rebind(`DELETE FROM users WHERE id = ?`), id)
	require.NoError(t, err)
	_, err = svc.RefreshToken(ctx, tokens.RefreshToken)
	assert.True(t, apperror.IsAuthError(err))
}

func TestValidateTokenRejectsForeignSecret(t *testing.T) {
	other := NewAuthService(nil, config.AuthConfig{JWTSecret: "other", AccessTokenDuration: time.Minute, RefreshTokenDuration: time.Minute})
	tokens, err := other.IssueTokens(7)
	require.NoError(t, err)

	_, err = ValidateToken(testAuthConfig.JWTSecret, tokens.AccessToken, tokenTypeAccess)
	assert.Error(t, err)
}

func protected(checker UserChecker) http.Handler {
	r := chi.NewRouter()
	r.Use(JWTMiddleware(&testAuthConfig, checker))
	r.Get("/me", func(w http.ResponseWriter, r *http.Request) {
		id, ok := GetUserIDFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		actor := ActorFromContext(r.Context())
		json.NewEncoder(w).Encode(map[string]interface{}{"id": id, "authenticated": actor.Authenticated})
	})
	return r
}

func TestJWTMiddleware(t *testing.T) {
	svc := NewAuthService(nil, testAuthConfig)
	tokens, err := svc.IssueTokens(42)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Token " + tokens.AccessToken, http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"refresh token", "Bearer " + tokens.RefreshToken, http.StatusUnauthorized},
		{"access token", "Bearer " + tokens.AccessToken, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			protected(nil).ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.status == http.StatusUnauthorized {
				assert.Contains(t, w.Body.String(), "NOT_AUTHENTICATED")
			}
		})
	}
}

type fakeChecker map[int64]bool

func (f fakeChecker) UserExists(_ context.Context, id int64) (bool, error) { return f[id], nil }

func TestJWTMiddlewareRejectsDeletedUser(t *testing.T) {
	svc := NewAuthService(nil, testAuthConfig)
	tokens, err := svc.IssueTokens(42)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)

	w := httptest.NewRecorder()
	protected(fakeChecker{42: false}).ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	protected(fakeChecker{42: true}).ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `"id":42`))
}

func TestLoginHandler(t *testing.T) {
	conn := dbtest.New(t)
	seedUser(t, conn, "alice", "s3cret-pass")
	r := chi.NewRouter()
	r.Route("/api/token", NewHandlers(NewAuthService(conn, testAuthConfig)).RegisterRoutes)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/token", strings.NewReader(`{"username":"alice","password":"s3cret-pass"}`)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var tokens TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tokens))
	assert.NotEmpty(t, tokens.AccessToken)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/token/refresh", strings.NewReader(`{"refresh_token":"`+tokens.RefreshToken+`"}`)))
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/token", strings.NewReader(`{"username":"alice"}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
