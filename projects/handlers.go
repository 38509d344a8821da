// HTTP handlers for /api/projects. Each handler decodes the request, calls
// ProjectService with the actor from the request context, and writes JSON.

package projects

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/user/softdesk-go/auth"
	"github.com/user/softdesk-go/httpx"
)

// ProjectHandlers provides HTTP handlers for projects.
type ProjectHandlers struct {
	service *ProjectService
}

// NewProjectHandlers creates new ProjectHandlers.
func NewProjectHandlers(service *ProjectService) *ProjectHandlers {
	return &ProjectHandlers{service: service}
}

// RegisterRoutes mounts the project routes. nested mounts the sub-resources
// (contributors, issues) under /{projectID}.
func (h *ProjectHandlers) RegisterRoutes(r chi.Router, nested func(r chi.Router)) {
	r.Get("/", h.HandleList())
	r.Post("/", h.HandleCreate())
	r.Route("/{projectID}", func(r chi.Router) {
		r.Get("/", h.HandleGet())
		r.Put("/", h.HandleUpdate())
		r.Patch("/", h.HandlePatch())
		r.Delete("/", h.HandleDelete())
		if nested != nil {
			nested(r)
		}
	})
}

// HandleList godoc
// @Summary List projects
// @Description Lists the projects the caller authors or contributes to.
// @Tags projects
// @Produce json
// @Security BearerAuth
// @Success 200 {array} Summary
// @Failure 401 {object} apperror.ErrorResponse
// @Router /api/projects [get]
func (h *ProjectHandlers) HandleList() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := h.service.List(r.Context(), auth.ActorFromContext(r.Context()))
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		out := make([]Summary, 0, len(list))
		for i := range list {
			out = append(out, list[i].Summary())
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}

// HandleCreate godoc
// @Summary Create a project
// @Description Creates a project; the caller becomes its author and first contributor.
// @Tags projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param project body CreateProjectRequest true "Project"
// @Success 201 {object} Summary
// @Failure 400 {object} apperror.ErrorResponse
// @Router /api/projects [post]
func (h *ProjectHandlers) HandleCreate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateProjectRequest
		if err := httpx.Decode(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		p, err := h.service.Create(r.Context(), auth.ActorFromContext(r.Context()), req)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, p.Summary())
	}
}

// HandleGet godoc
// @Summary Get a project
// @Tags projects
// @Produce json
// @Security BearerAuth
// @Param projectID path int true "Project ID"
// @Success 200 {object} Detail
// @Failure 403 {object} apperror.ErrorResponse "NOT_CONTRIBUTOR"
// @Failure 404 {object} apperror.ErrorResponse
// @Router /api/projects/{projectID} [get]
func (h *ProjectHandlers) HandleGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := httpx.IDParam(r, "projectID")
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		actor := auth.ActorFromContext(r.Context())
		v, err := h.service.Get(r.Context(), actor, id)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, v.Detail(actor.UserID))
	}
}

// HandleUpdate godoc
// @Summary Replace a project
// @Tags projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param projectID path int true "Project ID"
// @Param project body UpdateProjectRequest true "All mutable fields"
// @Success 200 {object} Detail
// @Failure 403 {object} apperror.ErrorResponse "NOT_AUTHOR"
// @Router /api/projects/{projectID} [put]
func (h *ProjectHandlers) HandleUpdate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := httpx.IDParam(r, "projectID")
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		var req UpdateProjectRequest
		if err := httpx.Decode(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		actor := auth.ActorFromContext(r.Context())
		v, err := h.service.Update(r.Context(), actor, id, req)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, v.Detail(actor.UserID))
	}
}

// HandlePatch godoc
// @Summary Update a project
// @Tags projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param projectID path int true "Project ID"
// @Param project body PatchProjectRequest true "Fields to change"
// @Success 200 {object} Detail
// @Failure 403 {object} apperror.ErrorResponse "NOT_AUTHOR"
// @Router /api/projects/{projectID} [patch]
func (h *ProjectHandlers) HandlePatch() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := httpx.IDParam(r, "projectID")
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		var req PatchProjectRequest
		if err := httpx.Decode(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		actor := auth.ActorFromContext(r.Context())
		v, err := h.service.Patch(r.Context(), actor, id, req)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, v.Detail(actor.UserID))
	}
}

// HandleDelete godoc
// @Summary Delete a project
// @Description Deletes the project with its issues, comments, and contributors.
// @Tags projects
// @Security BearerAuth
// @Param projectID path int true "Project ID"
// @Success 204
// @Failure 403 {object} apperror.ErrorResponse "NOT_AUTHOR"
// @Router /api/projects/{projectID} [delete]
func (h *ProjectHandlers) HandleDelete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := httpx.IDParam(r, "projectID")
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		if err := h.service.Delete(r.Context(), auth.ActorFromContext(r.Context()), id); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusNoContent, nil)
	}
}
