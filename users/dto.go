// Request payloads for registration and profile changes.

package users

// CreateUserRequest is the public registration payload.
type CreateUserRequest struct {
	Username        string `json:"username" validate:"required,max=150" example:"alice"`
	Password        string `json:"password" validate:"required,max=128" example:"strongpassword123"`
	Age             *int   `json:"age" validate:"required" example:"30"`
	CanBeContacted  bool   `json:"can_be_contacted" example:"false"`
	CanDataBeShared bool   `json:"can_data_be_shared" example:"true"`
}

// UpdateUserRequest replaces every mutable field (PUT). Password is optional;
// when omitted the current one is kept.
type UpdateUserRequest struct {
	Username        string  `json:"username" validate:"required,max=150" example:"alice"`
	Password        *string `json:"password,omitempty" validate:"omitempty,max=128"`
	Age             *int    `json:"age" validate:"required" example:"31"`
	CanBeContacted  *bool   `json:"can_be_contacted" validate:"required" example:"true"`
	CanDataBeShared *bool   `json:"can_data_be_shared" validate:"required" example:"true"`
}

// PatchUserRequest changes any subset of the mutable fields (PATCH).
type PatchUserRequest struct {
	Username        *string `json:"username,omitempty" validate:"omitempty,min=1,max=150"`
	Password        *string `json:"password,omitempty" validate:"omitempty,min=1,max=128"`
	Age             *int    `json:"age,omitempty"`
	CanBeContacted  *bool   `json:"can_be_contacted,omitempty"`
	CanDataBeShared *bool   `json:"can_data_be_shared,omitempty"`
}

func (req UpdateUserRequest) asPatch() PatchUserRequest {
	return PatchUserRequest{
		Username:        &req.Username,
		Password:        req.Password,
		Age:             req.Age,
		CanBeContacted:  req.CanBeContacted,
		CanDataBeShared: req.CanDataBeShared,
	}
}
