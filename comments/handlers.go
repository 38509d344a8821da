// HTTP handlers for /api/projects/{projectID}/issues/{issueID}/comments.
// Comment ids are UUIDs; an id that does not parse is reported as not found.

package comments

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/user/softdesk-go/apperror"
	"github.com/user/softdesk-go/auth"
	"github.com/user/softdesk-go/httpx"
)

// CommentHandlers provides HTTP handlers for comments.
type CommentHandlers struct {
	service *CommentService
}

// NewCommentHandlers creates new CommentHandlers.
func NewCommentHandlers(service *CommentService) *CommentHandlers {
	return &CommentHandlers{service: service}
}

// RegisterRoutes mounts the routes under /projects/{projectID}/issues/{issueID}/comments.
func (h *CommentHandlers) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleList())
	r.Post("/", h.HandleCreate())
	r.Get("/{commentID}", h.HandleGet())
	r.Put("/{commentID}", h.HandleUpdate())
	r.Patch("/{commentID}", h.HandlePatch())
	r.Delete("/{commentID}", h.HandleDelete())
}

type path struct {
	projectID, issueID int64
	commentID          uuid.UUID
}

func parentIDs(r *http.Request) (p path, err error) {
	if p.projectID, err = httpx.IDParam(r, "projectID"); err != nil {
		return p, err
	}
	p.issueID, err = httpx.IDParam(r, "issueID")
	return p, err
}

// paths parses every id in the URL. A malformed comment id can name no
// comment, so it is a NotFoundError like a malformed integer id.
func paths(r *http.Request) (path, error) {
	p, err := parentIDs(r)
	if err != nil {
		return p, err
	}
	raw := chi.URLParam(r, "commentID")
	if p.commentID, err = uuid.Parse(raw); err != nil {
		return p, apperror.NewNotFoundError(fmt.Sprintf("comment '%s' not found", raw), nil)
	}
	return p, nil
}

// HandleList godoc
// @Summary List comments on an issue
// @Tags comments
// @Produce json
// @Security BearerAuth
// @Param projectID path int true "Project ID"
// @Param issueID path int true "Issue ID"
// @Success 200 {array} Summary
// @Failure 403 {object} apperror.ErrorResponse "NOT_CONTRIBUTOR"
// @Failure 404 {object} apperror.ErrorResponse "PARENT_NOT_FOUND"
// @Router /api/projects/{projectID}/issues/{issueID}/comments [get]
func (h *CommentHandlers) HandleList() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := parentIDs(r)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		list, err := h.service.List(r.Context(), auth.ActorFromContext(r.Context()), p.projectID, p.issueID)
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
// @Summary Comment on an issue
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param projectID path int true "Project ID"
// @Param issueID path int true "Issue ID"
// @Param comment body CreateCommentRequest true "Comment"
// @Success 201 {object} Detail
// @Failure 403 {object} apperror.ErrorResponse "NOT_CONTRIBUTOR"
// @Failure 404 {object} apperror.ErrorResponse "PARENT_NOT_FOUND"
// @Router /api/projects/{projectID}/issues/{issueID}/comments [post]
func (h *CommentHandlers) HandleCreate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := parentIDs(r)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		var req CreateCommentRequest
		if err := httpx.Decode(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		actor := auth.ActorFromContext(r.Context())
		v, err := h.service.Create(r.Context(), actor, p.projectID, p.issueID, req)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, v.Detail(actor.UserID))
	}
}

// HandleGet godoc
// @Summary Get a comment
// @Tags comments
// @Produce json
// @Security BearerAuth
// @Param projectID path int true "Project ID"
// @Param issueID path int true "Issue ID"
// @Param commentID path string true "Comment ID" format(uuid)
// @Success 200 {object} Detail
// @Failure 404 {object} apperror.ErrorResponse
// @Router /api/projects/{projectID}/issues/{issueID}/comments/{commentID} [get]
func (h *CommentHandlers) HandleGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := paths(r)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		actor := auth.ActorFromContext(r.Context())
		v, err := h.service.Get(r.Context(), actor, p.projectID, p.issueID, p.commentID)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, v.Detail(actor.UserID))
	}
}

// HandleUpdate godoc
// @Summary Replace a comment
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param projectID path int true "Project ID"
// @Param issueID path int true "Issue ID"
// @Param commentID path string true "Comment ID" format(uuid)
// @Param comment body UpdateCommentRequest true "Comment"
// @Success 200 {object} Detail
// @Failure 403 {object} apperror.ErrorResponse "NOT_AUTHOR"
// @Router /api/projects/{projectID}/issues/{issueID}/comments/{commentID} [put]
func (h *CommentHandlers) HandleUpdate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := paths(r)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		var req UpdateCommentRequest
		if err := httpx.Decode(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		actor := auth.ActorFromContext(r.Context())
		v, err := h.service.Update(r.Context(), actor, p.projectID, p.issueID, p.commentID, req)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, v.Detail(actor.UserID))
	}
}

// HandlePatch godoc
// @Summary Update a comment
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param projectID path int true "Project ID"
// @Param issueID path int true "Issue ID"
// @Param commentID path string true "Comment ID" format(uuid)
// @Param comment body PatchCommentRequest true "Fields to change"
// @Success 200 {object} Detail
// @Failure 403 {object} apperror.ErrorResponse "NOT_AUTHOR"
// @Router /api/projects/{projectID}/issues/{issueID}/comments/{commentID} [patch]
func (h *CommentHandlers) HandlePatch() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := paths(r)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		var req PatchCommentRequest
		if err := httpx.Decode(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		actor := auth.ActorFromContext(r.Context())
		v, err := h.service.Patch(r.Context(), actor, p.projectID, p.issueID, p.commentID, req)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, v.Detail(actor.UserID))
	}
}

// HandleDelete godoc
// @Summary Delete a comment
// @Tags comments
// @Security BearerAuth
// @Param projectID path int true "Project ID"
// @Param issueID path int true "Issue ID"
// @Param commentID path string true "Comment ID" format(uuid)
// @Success 204
// @Failure 403 {object} apperror.ErrorResponse "NOT_AUTHOR"
// @Router /api/projects/{projectID}/issues/{issueID}/comments/{commentID} [delete]
func (h *CommentHandlers) HandleDelete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := paths(r)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		if err := h.service.Delete(r.Context(), auth.ActorFromContext(r.Context()), p.projectID, p.issueID, p.commentID); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusNoContent, nil)
	}
}
