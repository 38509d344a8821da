// Package users manages accounts: public registration, self-service updates,
// and the consent-aware profile shown to other users.
package users

import "time"

// User is an account row. Password holds the bcrypt hash and is never serialized.
type User struct {
	ID              int64     `db:"id"`
	Username        string    `db:"username"`
	Password        string    `db:"password"`
	Age             int       `db:"age"`
	CanBeContacted  bool      `db:"can_be_contacted"`
	CanDataBeShared bool      `db:"can_data_be_shared"`
	CreatedTime     time.Time `db:"created_time"`
}

// Profile is the API representation of a user.
type Profile struct {
	ID              int64     `json:"id" example:"1"`
	Username        string    `json:"username" example:"alice"`
	Age             int       `json:"age" example:"30"`
	CanBeContacted  bool      `json:"can_be_contacted" example:"false"`
	CanDataBeShared bool      `json:"can_data_be_shared" example:"true"`
	CreatedTime     time.Time `json:"created_time"`
}

// Profile returns the API representation of u.
func (u *User) Profile() Profile {
	return Profile{
		ID:              u.ID,
		Username:        u.Username,
		Age:             u.Age,
		CanBeContacted:  u.CanBeContacted,
		CanDataBeShared: u.CanDataBeShared,
		CreatedTime:     u.CreatedTime,
	}
}

// Visible applies the data-sharing consent: it returns the subject's profile
// when the subject opted in or is the viewer, and nil otherwise. Every place
// that embeds another user's details goes through it.
func Visible(viewerID int64, subject *User) *Profile {
	if subject == nil {
		return nil
	}
	if !subject.CanDataBeShared && subject.ID != viewerID {
		return nil
	}
	p := subject.Profile()
	return &p
}
