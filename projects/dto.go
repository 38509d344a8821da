// Request payloads for creating and changing projects.

package projects

// CreateProjectRequest is the payload for creating a project.
type CreateProjectRequest struct {
	Name        string `json:"name" validate:"required,max=255" example:"Alpha"`
	Description string `json:"description" example:"Payment backend"`
	Type        string `json:"type" validate:"required,oneof=backend frontend ios android" example:"backend"`
}

// UpdateProjectRequest replaces every mutable field (PUT).
type UpdateProjectRequest struct {
	Name        string  `json:"name" validate:"required,max=255" example:"Alpha"`
	Description *string `json:"description" validate:"required" example:"Payment backend"`
	Type        string  `json:"type" validate:"required,oneof=backend frontend ios android" example:"backend"`
}

// PatchProjectRequest changes any subset of the mutable fields (PATCH).
type PatchProjectRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description,omitempty"`
	Type        *string `json:"type,omitempty" validate:"omitempty,oneof=backend frontend ios android"`
}

func (req UpdateProjectRequest) asPatch() PatchProjectRequest {
	return PatchProjectRequest{
		Name:        &req.Name,
		Description: req.Description,
		Type:        &req.Type,
	}
}
