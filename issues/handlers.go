// HTTP handlers for /api/projects/{projectID}/issues.

package issues

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/user/softdesk-go/auth"
	"github.com/user/softdesk-go/httpx"
)

// IssueHandlers provides HTTP handlers for issues.
type IssueHandlers struct {
	service *IssueService
}

// NewIssueHandlers creates new IssueHandlers.
func NewIssueHandlers(service *IssueService) *IssueHandlers {
	return &IssueHandlers{service: service}
}

// RegisterRoutes mounts the routes under /projects/{projectID}/issues.
// nested mounts the sub-resources (comments) under /{issueID}.
func (h *IssueHandlers) RegisterRoutes(r chi.Router, nested func(r chi.Router)) {
	r.Get("/", h.HandleList())
	r.Post("/", h.HandleCreate())
	r.Route("/{issueID}", func(r chi.Router) {
		r.Get("/", h.HandleGet())
		r.Put("/", h.HandleUpdate())
		r.Patch("/", h.HandlePatch())
		r.Delete("/", h.HandleDelete())
		if nested != nil {
			nested(r)
		}
	})
}

func ids(r *http.Request) (projectID, issueID int64, err error) {
	if projectID, err = httpx.IDParam(r, "projectID"); err != nil {
		return 0, 0, err
	}
	issueID, err = httpx.IDParam(r, "issueID")
	return projectID, issueID, err
}

// HandleList godoc
// @Summary List issues
// @Tags issues
// @Produce json
// @Security BearerAuth
// @Param projectID path int true "Project ID"
// @Success 200 {array} Summary
// @Failure 403 {object} apperror.ErrorResponse "NOT_CONTRIBUTOR"
// @Failure 404 {object} apperror.ErrorResponse "PARENT_NOT_FOUND"
// @Router /api/projects/{projectID}/issues [get]
func (h *IssueHandlers) HandleList() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := httpx.IDParam(r, "projectID")
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		list, err := h.service.List(r.Context(), auth.ActorFromContext(r.Context()), projectID)
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
// @Summary Create an issue
// @Tags issues
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param projectID path int true "Project ID"
// @Param issue body CreateIssueRequest true "Issue"
// @Success 201 {object} Detail
// @Failure 400 {object} apperror.ErrorResponse "Validation failed, e.g. assignee is not a contributor"
// @Failure 403 {object} apperror.ErrorResponse "NOT_CONTRIBUTOR"
// @Failure 404 {object} apperror.ErrorResponse "PARENT_NOT_FOUND"
// @Router /api/projects/{projectID}/issues [post]
func (h *IssueHandlers) HandleCreate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := httpx.IDParam(r, "projectID")
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		var req CreateIssueRequest
		if err := httpx.Decode(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		actor := auth.ActorFromContext(r.Context())
		v, err := h.service.Create(r.Context(), actor, projectID, req)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, v.Detail(actor.UserID))
	}
}

// HandleGet godoc
// @Summary Get an issue
// @Tags issues
// @Produce json
// @Security BearerAuth
// @Param projectID path int true "Project ID"
// @Param issueID path int true "Issue ID"
// @Success 200 {object} Detail
// @Failure 403 {object} apperror.ErrorResponse "NOT_CONTRIBUTOR"
// @Failure 404 {object} apperror.ErrorResponse
// @Router /api/projects/{projectID}/issues/{issueID} [get]
func (h *IssueHandlers) HandleGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, issueID, err := ids(r)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		actor := auth.ActorFromContext(r.Context())
		v, err := h.service.Get(r.Context(), actor, projectID, issueID)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, v.Detail(actor.UserID))
	}
}

// HandleUpdate godoc
// @Summary Replace an issue
// @Tags issues
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param projectID path int true "Project ID"
// @Param issueID path int true "Issue ID"
// @Param issue body UpdateIssueRequest true "All mutable fields"
// @Success 200 {object} Detail
// @Failure 403 {object} apperror.ErrorResponse "NOT_AUTHOR"
// @Router /api/projects/{projectID}/issues/{issueID} [put]
func (h *IssueHandlers) HandleUpdate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, issueID, err := ids(r)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		var req UpdateIssueRequest
		if err := httpx.Decode(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		actor := auth.ActorFromContext(r.Context())
		v, err := h.service.Update(r.Context(), actor, projectID, issueID, req)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, v.Detail(actor.UserID))
	}
}

// HandlePatch godoc
// @Summary Update an issue
// @Tags issues
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param projectID path int true "Project ID"
// @Param issueID path int true "Issue ID"
// @Param issue body PatchIssueRequest true "Fields to change; assignee_id may be null"
// @Success 200 {object} Detail
// @Failure 403 {object} apperror.ErrorResponse "NOT_AUTHOR"
// @Router /api/projects/{projectID}/issues/{issueID} [patch]
func (h *IssueHandlers) HandlePatch() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, issueID, err := ids(r)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		var req PatchIssueRequest
		if err := httpx.Decode(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		actor := auth.ActorFromContext(r.Context())
		v, err := h.service.Patch(r.Context(), actor, projectID, issueID, req)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, v.Detail(actor.UserID))
	}
}

// HandleDelete godoc
// @Summary Delete an issue
// @Tags issues
// @Security BearerAuth
// @Param projectID path int true "Project ID"
// @Param issueID path int true "Issue ID"
// @Success 204
// @Failure 403 {object} apperror.ErrorResponse "NOT_AUTHOR"
// @Router /api/projects/{projectID}/issues/{issueID} [delete]
func (h *IssueHandlers) HandleDelete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, issueID, err := ids(r)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		if err := h.service.Delete(r.Context(), auth.ActorFromContext(r.Context()), projectID, issueID); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusNoContent, nil)
	}
}
