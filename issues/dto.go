// Request payloads for issues. OptionalID tells an explicit null assignee
// apart from an absent one in PATCH bodies.

package issues

import (
	"bytes"
	"encoding/json"

	"github.com/user/softdesk-go/apperror"
)

// CreateIssueRequest is the payload for filing an issue. Status defaults to
// to_do and priority to low.
type CreateIssueRequest struct {
	Title       string  `json:"title" validate:"required,max=255" example:"Bug1"`
	Description string  `json:"description" example:"Crash on login"`
	Status      *string `json:"status,omitempty" validate:"omitempty,oneof=to_do in_progress finished" example:"to_do"`
	Priority    *string `json:"priority,omitempty" validate:"omitempty,oneof=low medium high" example:"low"`
	Tag         string  `json:"tag" validate:"required,oneof=bug feature task" example:"bug"`
	AssigneeID  *int64  `json:"assignee_id,omitempty" example:"2"`
}

// UpdateIssueRequest replaces every mutable field (PUT). A missing or null
// assignee_id clears the assignee.
type UpdateIssueRequest struct {
	Title       string  `json:"title" validate:"required,max=255"`
	Description *string `json:"description" validate:"required"`
	Status      string  `json:"status" validate:"required,oneof=to_do in_progress finished"`
	Priority    string  `json:"priority" validate:"required,oneof=low medium high"`
	Tag         string  `json:"tag" validate:"required,oneof=bug feature task"`
	AssigneeID  *int64  `json:"assignee_id"`
}

// PatchIssueRequest changes any subset of the mutable fields (PATCH).
type PatchIssueRequest struct {
	Title       *string    `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Description *string    `json:"description,omitempty"`
	Status      *string    `json:"status,omitempty" validate:"omitempty,oneof=to_do in_progress finished"`
	Priority    *string    `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
	Tag         *string    `json:"tag,omitempty" validate:"omitempty,oneof=bug feature task"`
	AssigneeID  OptionalID `json:"assignee_id" swaggertype:"integer"`
}

// OptionalID tells an absent JSON field apart from an explicit null.
type OptionalID struct {
	Set bool   // the key was present
	ID  *int64 // nil when the value was null
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *OptionalID) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.ID = nil
		return nil
	}
	var id int64
	if err := json.Unmarshal(data, &id); err != nil {
		return apperror.NewValidationError("assignee_id must be an integer or null", err)
	}
	o.ID = &id
	return nil
}

func (req UpdateIssueRequest) asPatch() PatchIssueRequest {
	return PatchIssueRequest{
		Title:       &req.Title,
		Description: req.Description,
		Status:      &req.Status,
		Priority:    &req.Priority,
		Tag:         &req.Tag,
		AssigneeID:  OptionalID{Set: true, ID: req.AssigneeID},
	}
}
