// Account logic: age gate, bcrypt hashing, consent-aware listing, and
// self-only changes. Deleting a user cascades to their projects, issues,
// comments, and memberships, and clears issues assigned to them.

package users

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/user/softdesk-go/apperror"
	"github.com/user/softdesk-go/authz"
	"github.com/user/softdesk-go/config"
)

// UserService implements account operations behind the authorization matrix.
type UserService struct {
	db     *sqlx.DB
	minAge int
}

// NewUserService creates a new UserService.
func NewUserService(db *sqlx.DB, cfg config.UsersConfig) *UserService {
	return &UserService{db: db, minAge: cfg.MinAge}
}

func (s *UserService) checkAge(age int) error {
	if age < s.minAge {
		return apperror.NewValidationError(fmt.Sprintf("age must be at least %d", s.minAge), nil)
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", apperror.NewInternalError("failed to hash password", err)
	}
	return string(hashed), nil
}

// Create registers a new account. It is open to anonymous actors.
func (s *UserService) Create(ctx context.Context, actor authz.Actor, req CreateUserRequest) (*User, error) {
	if err := authz.Check(actor, authz.ActionCreate, authz.KindUser, authz.Target{}); err != nil {
		return nil, err
	}
	if req.Age == nil {
		return nil, apperror.NewValidationError("age is required", nil)
	}
	if err := s.checkAge(*req.Age); err != nil {
		return nil, err
	}

	hashed, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	u := &User{
		Username:        req.Username,
		Password:        hashed,
		Age:             *req.Age,
		CanBeContacted:  req.CanBeContacted,
		CanDataBeShared: req.CanDataBeShared,
		CreatedTime:     time.Now().UTC().Truncate(time.Microsecond),
	}
	if err := insertUser(ctx, s.db, u); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{"user_id": u.ID, "username": u.Username}).Info("user registered")
	return u, nil
}

// List returns the users that opted into data sharing, plus the actor.
func (s *UserService) List(ctx context.Context, actor authz.Actor) ([]User, error) {
	if err := authz.Check(actor, authz.ActionList, authz.KindUser, authz.Target{}); err != nil {
		return nil, err
	}
	return listVisible(ctx, s.db, actor.UserID)
}

// resolve loads the target user and checks the action against it. A missing
// user yields the matrix's NOT_FOUND denial.
func (s *UserService) resolve(ctx context.Context, actor authz.Actor, action authz.Action, id int64) (*User, error) {
	if !actor.Authenticated {
		return nil, authz.Check(actor, action, authz.KindUser, authz.Target{})
	}
	u, err := GetByID(ctx, s.db, id)
	target := authz.Target{}
	switch {
	case err == nil:
		target.Object = &authz.Object{AuthorID: u.ID}
	case !apperror.IsNotFound(err):
		return nil, err
	}
	if err := authz.Check(actor, action, authz.KindUser, target); err != nil {
		return nil, err
	}
	return u, nil
}

// Get returns the actor's own account.
func (s *UserService) Get(ctx context.Context, actor authz.Actor, id int64) (*User, error) {
	return s.resolve(ctx, actor, authz.ActionRetrieve, id)
}

// Update replaces every mutable field of the actor's own account.
func (s *UserService) Update(ctx context.Context, actor authz.Actor, id int64, req UpdateUserRequest) (*User, error) {
	u, err := s.resolve(ctx, actor, authz.ActionUpdate, id)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, u, req.asPatch())
}

// Patch changes the given fields of the actor's own account.
func (s *UserService) Patch(ctx context.Context, actor authz.Actor, id int64, req PatchUserRequest) (*User, error) {
	u, err := s.resolve(ctx, actor, authz.ActionPartialUpdate, id)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, u, req)
}

func (s *UserService) apply(ctx context.Context, u *User, req PatchUserRequest) (*User, error) {
	if req.Username != nil {
		u.Username = *req.Username
	}
	if req.Age != nil {
		if err := s.checkAge(*req.Age); err != nil {
			return nil, err
		}
		u.Age = *req.Age
	}
	if req.CanBeContacted != nil {
		u.CanBeContacted = *req.CanBeContacted
	}
	if req.CanDataBeShared != nil {
		u.CanDataBeShared = *req.CanDataBeShared
	}
	if req.Password != nil {
		hashed, err := hashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		u.Password = hashed
	}
	if err := updateUser(ctx, s.db, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Delete removes the actor's own account. Projects, issues, and comments they
// authored and their contributor links go with it; issues assigned to them
// become unassigned.
func (s *UserService) Delete(ctx context.Context, actor authz.Actor, id int64) error {
	u, err := s.resolve(ctx, actor, authz.ActionDestroy, id)
	if err != nil {
		return err
	}
	if err := deleteUser(ctx, s.db, u.ID); err != nil {
		return err
	}
	logrus.WithField("user_id", u.ID).Info("user deleted")
	return nil
}
