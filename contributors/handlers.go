// HTTP handlers for /api/projects/{projectID}/contributors.

package contributors

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/user/softdesk-go/auth"
	"github.com/user/softdesk-go/httpx"
)

// ContributorHandlers provides HTTP handlers for project membership.
type ContributorHandlers struct {
	service *ContributorService
}

// NewContributorHandlers creates new ContributorHandlers.
func NewContributorHandlers(service *ContributorService) *ContributorHandlers {
	return &ContributorHandlers{service: service}
}

// RegisterRoutes mounts the routes under /projects/{projectID}/contributors.
func (h *ContributorHandlers) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleList())
	r.Post("/", h.HandleCreate())
	r.Put("/{userID}", h.HandleUpdate())
	r.Patch("/{userID}", h.HandleUpdate())
	r.Delete("/{userID}", h.HandleDelete())
}

// HandleList godoc
// @Summary List contributors
// @Tags contributors
// @Produce json
// @Security BearerAuth
// @Param projectID path int true "Project ID"
// @Success 200 {array} Response
// @Failure 403 {object} apperror.ErrorResponse "NOT_CONTRIBUTOR"
// @Failure 404 {object} apperror.ErrorResponse "PARENT_NOT_FOUND"
// @Router /api/projects/{projectID}/contributors [get]
func (h *ContributorHandlers) HandleList() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := httpx.IDParam(r, "projectID")
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		actor := auth.ActorFromContext(r.Context())
		members, err := h.service.List(r.Context(), actor, projectID)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, Responses(actor.UserID, members))
	}
}

// HandleCreate godoc
// @Summary Add a contributor
// @Description Adds a user, by id or username, to the project. Project author only.
// @Tags contributors
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param projectID path int true "Project ID"
// @Param contributor body CreateContributorRequest true "User to add"
// @Success 201 {object} Response
// @Failure 403 {object} apperror.ErrorResponse "NOT_AUTHOR"
// @Failure 404 {object} apperror.ErrorResponse
// @Failure 409 {object} apperror.ErrorResponse "Already a contributor"
// @Router /api/projects/{projectID}/contributors [post]
func (h *ContributorHandlers) HandleCreate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := httpx.IDParam(r, "projectID")
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		var req CreateContributorRequest
		if err := httpx.Decode(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		actor := auth.ActorFromContext(r.Context())
		member, err := h.service.Create(r.Context(), actor, projectID, req)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, member.Response(actor.UserID))
	}
}

// HandleUpdate rejects every change to a contributor link with 405.
func (h *ContributorHandlers) HandleUpdate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := httpx.IDParam(r, "projectID")
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		userID, err := httpx.IDParam(r, "userID")
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteError(w, r, h.service.Update(r.Context(), auth.ActorFromContext(r.Context()), projectID, userID))
	}
}

// HandleDelete godoc
// @Summary Remove a contributor
// @Tags contributors
// @Security BearerAuth
// @Param projectID path int true "Project ID"
// @Param userID path int true "User ID"
// @Success 204
// @Failure 403 {object} apperror.ErrorResponse "NOT_AUTHOR"
// @Failure 404 {object} apperror.ErrorResponse
// @Router /api/projects/{projectID}/contributors/{userID} [delete]
func (h *ContributorHandlers) HandleDelete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := httpx.IDParam(r, "projectID")
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		userID, err := httpx.IDParam(r, "userID")
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		if err := h.service.Delete(r.Context(), auth.ActorFromContext(r.Context()), projectID, userID); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusNoContent, nil)
	}
}
