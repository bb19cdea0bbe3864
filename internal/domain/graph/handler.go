package graph

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hridesh-bharati/jibzo-sub000/internal/domain/directory"
	"github.com/hridesh-bharati/jibzo-sub000/internal/middleware"
	"github.com/hridesh-bharati/jibzo-sub000/internal/pkg/response"
	"github.com/hridesh-bharati/jibzo-sub000/internal/pkg/validator"
)

// Handler exposes the relation engine over HTTP. The acting identity is
// always the authenticated subject from the JWT; no handler reads an
// actor id from the request.
type Handler struct {
	engine *Engine
}

// NewHandler creates relation handler
func NewHandler(engine *Engine) *Handler {
	return &Handler{engine: engine}
}

// Follow handles POST /users/{id}/follow
func (h *Handler) Follow(w http.ResponseWriter, r *http.Request) {
	actorID, targetID, ok := h.pair(w, r)
	if !ok {
		return
	}

	outcome, err := h.engine.Follow(r.Context(), actorID, targetID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.Created(w, FollowResponse{Outcome: outcome})
}

// Unfollow handles DELETE /users/{id}/follow
func (h *Handler) Unfollow(w http.ResponseWriter, r *http.Request) {
	actorID, targetID, ok := h.pair(w, r)
	if !ok {
		return
	}
	if err := h.engine.Unfollow(r.Context(), actorID, targetID); err != nil {
		h.writeError(w, err)
		return
	}
	response.NoContent(w)
}

// CancelRequest handles DELETE /users/{id}/request
func (h *Handler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	actorID, targetID, ok := h.pair(w, r)
	if !ok {
		return
	}
	if err := h.engine.CancelRequest(r.Context(), actorID, targetID); err != nil {
		h.writeError(w, err)
		return
	}
	response.NoContent(w)
}

// AcceptRequest handles POST /users/{id}/request/accept
func (h *Handler) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	actorID, targetID, ok := h.pair(w, r)
	if !ok {
		return
	}
	if err := h.engine.AcceptRequest(r.Context(), actorID, targetID); err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, map[string]string{"status": "accepted"})
}

// DeclineRequest handles POST /users/{id}/request/decline
func (h *Handler) DeclineRequest(w http.ResponseWriter, r *http.Request) {
	actorID, targetID, ok := h.pair(w, r)
	if !ok {
		return
	}
	if err := h.engine.DeclineRequest(r.Context(), actorID, targetID); err != nil {
		h.writeError(w, err)
		return
	}
	response.NoContent(w)
}

// RemoveFollower handles DELETE /users/{id}/follower
func (h *Handler) RemoveFollower(w http.ResponseWriter, r *http.Request) {
	actorID, targetID, ok := h.pair(w, r)
	if !ok {
		return
	}
	if err := h.engine.RemoveFollower(r.Context(), actorID, targetID); err != nil {
		h.writeError(w, err)
		return
	}
	response.NoContent(w)
}

// Block handles POST /users/{id}/block
func (h *Handler) Block(w http.ResponseWriter, r *http.Request) {
	actorID, targetID, ok := h.pair(w, r)
	if !ok {
		return
	}
	if err := h.engine.Block(r.Context(), actorID, targetID); err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, map[string]string{"status": "blocked"})
}

// Unblock handles DELETE /users/{id}/block
func (h *Handler) Unblock(w http.ResponseWriter, r *http.Request) {
	actorID, targetID, ok := h.pair(w, r)
	if !ok {
		return
	}
	if err := h.engine.Unblock(r.Context(), actorID, targetID); err != nil {
		h.writeError(w, err)
		return
	}
	response.NoContent(w)
}

// Relations handles GET /users/me/relations
func (h *Handler) Relations(w http.ResponseWriter, r *http.Request) {
	actorID := middleware.GetUserID(r.Context())
	if actorID == "" {
		response.Unauthorized(w, "unauthorized")
		return
	}

	list, err := h.engine.Relations(r.Context(), actorID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, list)
}

// Purge handles DELETE /admin/users/{id}/relations. The body must repeat
// the uid being purged.
func (h *Handler) Purge(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "id")

	var req PurgeRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Struct(req); details != nil {
		response.ValidationError(w, details)
		return
	}
	if req.UID != uid {
		response.BadRequest(w, "confirmation uid does not match")
		return
	}

	if err := h.engine.PurgeUser(r.Context(), uid); err != nil {
		h.writeError(w, err)
		return
	}
	response.NoContent(w)
}

// PutProfile handles PUT /admin/users/{id}/profile, the registration
// collaborator's write path into the store.
func (h *Handler) PutProfile(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "id")
	if !validator.IsUID(uid) {
		response.BadRequest(w, "invalid user id")
		return
	}

	var req PutProfileRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Struct(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	p := &directory.Profile{
		UID:         uid,
		Username:    req.Username,
		DisplayName: req.DisplayName,
		PhotoURL:    req.PhotoURL,
	}
	if err := h.engine.PutProfile(r.Context(), p); err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, p)
}

// pair extracts the authenticated actor and the target from the request.
func (h *Handler) pair(w http.ResponseWriter, r *http.Request) (actorID, targetID string, ok bool) {
	actorID = middleware.GetUserID(r.Context())
	if actorID == "" {
		response.Unauthorized(w, "unauthorized")
		return "", "", false
	}

	targetID = chi.URLParam(r, "id")
	if !validator.IsUID(targetID) {
		response.BadRequest(w, "invalid user id")
		return "", "", false
	}
	return actorID, targetID, true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidOperation):
		response.BadRequest(w, err.Error())
	case errors.Is(err, ErrNotFound):
		response.NotFound(w, "user not found")
	case errors.Is(err, ErrPermissionDenied):
		response.Forbidden(w, "permission denied")
	case errors.Is(err, ErrStoreUnavailable):
		response.ServiceUnavailable(w, "relation store unavailable, retry the request")
	default:
		response.InternalError(w)
	}
}
