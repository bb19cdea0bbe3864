package notification

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns notifications router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(authMiddleware)

	r.Get("/notifications", h.List)
	r.Get("/notifications/unread-count", h.UnreadCount)
	r.Post("/notifications/{id}/read", h.MarkRead)
	r.Post("/notifications/read-all", h.MarkAllRead)

	r.Post("/notifications/device-tokens", h.RegisterToken)
	r.Delete("/notifications/device-tokens/{token}", h.RemoveToken)

	return r
}
