/*
server.go - Router setup for the HR calculation core API

PURPOSE:

	Assembles the chi router: middleware, CORS, and the /api route tree.
	The router carries no state of its own; everything lives on Handler.

SEE ALSO:
  - handlers.go: Endpoint implementations
  - cmd/server: Production wiring (sqlite store, graceful shutdown)
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter builds the HTTP router with all routes and middleware.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/leave", func(r chi.Router) {
			r.Get("/policies/{type}", h.ResolvePolicy)
			r.Post("/requests/{id}/approve", h.ApproveRequest)
			r.Post("/requests/{id}/reject", h.RejectRequest)
		})

		r.Route("/employees/{id}", func(r chi.Router) {
			r.Get("/balance", h.GetBalance)
			r.Get("/transactions", h.GetTransactions)
			r.Post("/requests", h.SubmitRequest)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/adjustments", h.CreateAdjustment)
			r.Post("/balances/lock", h.SetBalanceLock)
		})

		r.Route("/attendance", func(r chi.Router) {
			r.Post("/records", h.BuildRecord)
			r.Get("/summary", h.GetSummary)
		})

		r.Route("/payroll", func(r chi.Router) {
			r.Post("/calculate", h.Calculate)
			r.Post("/impact", h.Impact)
			r.Get("/settings", h.GetSettings)
			r.Put("/settings", h.ReplaceSettings)
			r.Post("/postings", h.PostPayroll)
			r.Post("/postings/{id}/reverse", h.ReversePosting)
		})
	})

	return r
}
