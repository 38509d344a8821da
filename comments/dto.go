// Request payloads for comments.

package comments

// CreateCommentRequest is the payload for posting a comment.
type CreateCommentRequest struct {
	Description string `json:"description" validate:"required,max=4000" example:"Reproduced on staging"`
}

// UpdateCommentRequest replaces the comment's text (PUT).
type UpdateCommentRequest struct {
	Description string `json:"description" validate:"required,max=4000"`
}

// PatchCommentRequest changes the comment's text if present (PATCH).
type PatchCommentRequest struct {
	Description *string `json:"description,omitempty" validate:"omitempty,min=1,max=4000"`
}

func (req UpdateCommentRequest) asPatch() PatchCommentRequest {
	return PatchCommentRequest{Description: &req.Description}
}
