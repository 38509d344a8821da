// HTTP handlers for /api/users. Registration is public, the rest sits
// behind the JWT middleware.

package users

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/user/softdesk-go/auth"
	"github.com/user/softdesk-go/httpx"
)

// UserHandlers provides HTTP handlers for account management.
type UserHandlers struct {
	service *UserService
}

// NewUserHandlers creates new UserHandlers.
func NewUserHandlers(service *UserService) *UserHandlers {
	return &UserHandlers{service: service}
}

// RegisterRoutes mounts the user routes. Registration is public; everything
// else goes through requireAuth.
func (h *UserHandlers) RegisterRoutes(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.Post("/", h.HandleCreate())
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/", h.HandleList())
		r.Get("/{userID}", h.HandleGet())
		r.Put("/{userID}", h.HandleUpdate())
		r.Patch("/{userID}", h.HandlePatch())
		r.Delete("/{userID}", h.HandleDelete())
	})
}

// HandleCreate godoc
// @Summary Register a user
// @Description Creates an account. Users younger than the configured minimum age are rejected.
// @Tags users
// @Accept json
// @Produce json
// @Param user body CreateUserRequest true "Account details"
// @Success 201 {object} Profile
// @Failure 400 {object} apperror.ErrorResponse "Validation failed"
// @Failure 409 {object} apperror.ErrorResponse "Username already exists"
// @Router /api/users [post]
func (h *UserHandlers) HandleCreate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateUserRequest
		if err := httpx.Decode(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		u, err := h.service.Create(r.Context(), auth.ActorFromContext(r.Context()), req)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, u.Profile())
	}
}

// HandleList godoc
// @Summary List users
// @Description Lists users who agreed to share their data, plus the caller.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {array} Profile
// @Failure 401 {object} apperror.ErrorResponse
// @Router /api/users [get]
func (h *UserHandlers) HandleList() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := h.service.List(r.Context(), auth.ActorFromContext(r.Context()))
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		out := make([]Profile, 0, len(list))
		for i := range list {
			out = append(out, list[i].Profile())
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}

// HandleGet godoc
// @Summary Get a user
// @Description Returns the caller's own account.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param userID path int true "User ID"
// @Success 200 {object} Profile
// @Failure 403 {object} apperror.ErrorResponse "NOT_SELF"
// @Failure 404 {object} apperror.ErrorResponse
// @Router /api/users/{userID} [get]
func (h *UserHandlers) HandleGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := httpx.IDParam(r, "userID")
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		u, err := h.service.Get(r.Context(), auth.ActorFromContext(r.Context()), id)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, u.Profile())
	}
}

// HandleUpdate godoc
// @Summary Replace a user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param userID path int true "User ID"
// @Param user body UpdateUserRequest true "All mutable fields"
// @Success 200 {object} Profile
// @Failure 400 {object} apperror.ErrorResponse
// @Failure 403 {object} apperror.ErrorResponse "NOT_SELF"
// @Router /api/users/{userID} [put]
func (h *UserHandlers) HandleUpdate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := httpx.IDParam(r, "userID")
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		var req UpdateUserRequest
		if err := httpx.Decode(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		u, err := h.service.Update(r.Context(), auth.ActorFromContext(r.Context()), id, req)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, u.Profile())
	}
}

// HandlePatch godoc
// @Summary Update a user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param userID path int true "User ID"
// @Param user body PatchUserRequest true "Fields to change"
// @Success 200 {object} Profile
// @Failure 400 {object} apperror.ErrorResponse
// @Failure 403 {object} apperror.ErrorResponse "NOT_SELF"
// @Router /api/users/{userID} [patch]
func (h *UserHandlers) HandlePatch() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := httpx.IDParam(r, "userID")
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		var req PatchUserRequest
		if err := httpx.Decode(r, &req); err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		u, err := h.service.Patch(r.Context(), auth.ActorFromContext(r.Context()), id, req)
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, u.Profile())
	}
}

// HandleDelete godoc
// @Summary Delete a user
// @Description Deletes the caller's account and everything they authored.
// @Tags users
// @Security BearerAuth
// @Param userID path int true "User ID"
// @Success 204
// @Failure 403 {object} apperror.ErrorResponse "NOT_SELF"
// @Router /api/users/{userID} [delete]
func (h *UserHandlers) HandleDelete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := httpx.IDParam(r, "userID")
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
