package notification

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hridesh-bharati/jibzo-sub000/internal/middleware"
	"github.com/hridesh-bharati/jibzo-sub000/internal/pkg/response"
	"github.com/hridesh-bharati/jibzo-sub000/internal/pkg/validator"
)

// Handler handles notification HTTP requests
type Handler struct {
	repo Repository
}

// NewHandler creates notification handler
func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

// RegisterTokenRequest for POST /notifications/device-tokens
type RegisterTokenRequest struct {
	Token string `json:"token" validate:"required,min=8,max=512"`
}

// List handles GET /notifications
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, "unauthorized")
		return
	}

	limit := queryInt(r, "limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	items, err := h.repo.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}
	if items == nil {
		items = []*Notification{}
	}
	response.OK(w, items)
}

// UnreadCount handles GET /notifications/unread-count
func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, "unauthorized")
		return
	}

	count, err := h.repo.CountUnreadByUser(r.Context(), userID)
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, map[string]int{"unread": count})
}

// MarkRead handles POST /notifications/{id}/read
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, "unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid notification id")
		return
	}

	if err := h.repo.MarkAsRead(r.Context(), userID, id); err != nil {
		response.InternalError(w)
		return
	}
	response.NoContent(w)
}

// MarkAllRead handles POST /notifications/read-all
func (h *Handler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, "unauthorized")
		return
	}

	if err := h.repo.MarkAllAsRead(r.Context(), userID); err != nil {
		response.InternalError(w)
		return
	}
	response.NoContent(w)
}

// RegisterToken handles POST /notifications/device-tokens
func (h *Handler) RegisterToken(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req RegisterTokenRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Struct(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	t := &DeviceToken{Token: req.Token, UserID: userID, CreatedAt: time.Now()}
	if err := h.repo.SaveDeviceToken(r.Context(), t); err != nil {
		response.InternalError(w)
		return
	}
	response.Created(w, t)
}

// RemoveToken handles DELETE /notifications/device-tokens/{token}
func (h *Handler) RemoveToken(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, "unauthorized")
		return
	}

	token := chi.URLParam(r, "token")
	if token == "" {
		response.BadRequest(w, "missing token")
		return
	}

	if err := h.repo.DeleteDeviceToken(r.Context(), userID, token); err != nil {
		response.InternalError(w)
		return
	}
	response.NoContent(w)
}

func queryInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
