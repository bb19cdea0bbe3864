package graph

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hridesh-bharati/jibzo-sub000/internal/middleware"
)

// Routes returns the relation router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	// All routes require authentication
	r.Use(authMiddleware)

	// Follow lifecycle
	r.Post("/users/{id}/follow", h.Follow)
	r.Delete("/users/{id}/follow", h.Unfollow)
	r.Delete("/users/{id}/request", h.CancelRequest)
	r.Post("/users/{id}/request/accept", h.AcceptRequest)
	r.Post("/users/{id}/request/decline", h.DeclineRequest)
	r.Delete("/users/{id}/follower", h.RemoveFollower)

	// Blocking
	r.Post("/users/{id}/block", h.Block)
	r.Delete("/users/{id}/block", h.Unblock)

	// Read model
	r.Get("/users/me/relations", h.Relations)

	// Collaborator entry points, admin only
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole("admin"))
		r.Delete("/admin/users/{id}/relations", h.Purge)
		r.Put("/admin/users/{id}/profile", h.PutProfile)
	})

	return r
}
