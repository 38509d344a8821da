package users

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/user/softdesk-go/apperror"
	"github.com/user/softdesk-go/authz"
	"github.com/user/softdesk-go/config"
	"github.com/user/softdesk-go/db/dbtest"
)

func intPtr(v int) *int       { return &v }
func boolPtr(v bool) *bool    { return &v }
func strPtr(v string) *string { return &v }

func newService(t *testing.T) (*UserService, *sqlx.DB) {
	t.Helper()
	conn := dbtest.New(t)
	return NewUserService(conn, config.UsersConfig{MinAge: 15}), conn
}

func TestCreateEnforcesMinimumAge(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, authz.Anonymous, CreateUserRequest{Username: "young", Password: "pw", Age: intPtr(14)})
	assert.True(t, apperror.IsValidationError(err))

	u, err := svc.Create(ctx, authz.Anonymous, CreateUserRequest{Username: "old-enough", Password: "pw", Age: intPtr(15)})
	require.NoError(t, err)
	assert.Equal(t, 15, u.Age)
	assert.NotZero(t, u.ID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("pw")))
}

func TestCreateDuplicateUsername(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	req := CreateUserRequest{Username: "alice", Password: "pw", Age: intPtr(30)}

	_, err := svc.Create(ctx, authz.Anonymous, req)
	require.NoError(t, err)
	_, err = svc.Create(ctx, authz.Anonymous, req)
	assert.True(t, apperror.IsConflictError(err))
}

func TestListHonoursDataSharing(t *testing.T) {
	svc, conn := newService(t)
	alice := dbtest.CreateUser(t, conn, "alice", true)
	bob := dbtest.CreateUser(t, conn, "bob", false)
	dbtest.CreateUser(t, conn, "carol", false)

	list, err := svc.List(context.Background(), authz.User(bob))
	require.NoError(t, err)
	var ids []int64
	for _, u := range list {
		ids = append(ids, u.ID)
	}
	assert.ElementsMatch(t, []int64{alice, bob}, ids)

	_, err = svc.List(context.Background(), authz.Anonymous)
	assert.True(t, apperror.IsAuthError(err))
}

func TestSelfOnlyOperations(t *testing.T) {
	svc, conn := newService(t)
	ctx := context.Background()
	alice := dbtest.CreateUser(t, conn, "alice", true)
	bob := dbtest.CreateUser(t, conn, "bob", true)

	_, err := svc.Get(ctx, authz.User(bob), alice)
	assert.Equal(t, string(authz.ReasonNotSelf), apperror.ReasonOf(err))

	_, err = svc.Patch(ctx, authz.User(bob), alice, PatchUserRequest{Age: intPtr(40)})
	assert.Equal(t, string(authz.ReasonNotSelf), apperror.ReasonOf(err))

	err = svc.Delete(ctx, authz.User(bob), alice)
	assert.Equal(t, string(authz.ReasonNotSelf), apperror.ReasonOf(err))

	_, err = svc.Get(ctx, authz.User(bob), 9999)
	assert.True(t, apperror.IsNotFound(err))

	u, err := svc.Get(ctx, authz.User(alice), alice)
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
}

func TestUpdateAndPatch(t *testing.T) {
	svc, conn := newService(t)
	ctx := context.Background()
	alice := dbtest.CreateUser(t, conn, "alice", false)
	dbtest.CreateUser(t, conn, "bob", false)

	u, err := svc.Patch(ctx, authz.User(alice), alice, PatchUserRequest{CanDataBeShared: boolPtr(true)})
	require.NoError(t, err)
	assert.True(t, u.CanDataBeShared)
	assert.Equal(t, 30, u.Age)

	_, err = svc.Patch(ctx, authz.User(alice), alice, PatchUserRequest{Age: intPtr(10)})
	assert.True(t, apperror.IsValidationError(err))

	_, err = svc.Patch(ctx, authz.User(alice), alice, PatchUserRequest{Username: strPtr("bob")})
	assert.True(t, apperror.IsConflictError(err))

	u, err = svc.Update(ctx, authz.User(alice), alice, UpdateUserRequest{
		Username:        "alice2",
		Age:             intPtr(31),
		CanBeContacted:  boolPtr(true),
		CanDataBeShared: boolPtr(false),
		Password:        strPtr("new-password"),
	})
	require.NoError(t, err)
	assert.Equal(t, "alice2", u.Username)
	assert.True(t, u.CanBeContacted)

	stored, err := GetByID(ctx, conn, alice)
	require.NoError(t, err)
	assert.Equal(t, 31, stored.Age)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("new-password")))
}

func TestDeleteSelf(t *testing.T) {
	svc, conn := newService(t)
	ctx := context.Background()
	alice := dbtest.CreateUser(t, conn, "alice", false)

	require.NoError(t, svc.Delete(ctx, authz.User(alice), alice))
	_, err := GetByID(ctx, conn, alice)
	assert.True(t, apperror.IsNotFound(err))
}

func TestGetMany(t *testing.T) {
	_, conn := newService(t)
	alice := dbtest.CreateUser(t, conn, "alice", false)
	bob := dbtest.CreateUser(t, conn, "bob", false)

	got, err := GetMany(context.Background(), conn, []int64{alice, bob, 12345})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, "bob", got[bob].Username)

	got, err = GetMany(context.Background(), conn, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestVisible(t *testing.T) {
	private := &User{ID: 1, Username: "private"}
	shared := &User{ID: 2, Username: "shared", CanDataBeShared: true}

	assert.Nil(t, Visible(2, private))
	require.NotNil(t, Visible(1, private))
	require.NotNil(t, Visible(1, shared))
	assert.Equal(t, "shared", Visible(1, shared).Username)
	assert.Nil(t, Visible(1, nil))
}
