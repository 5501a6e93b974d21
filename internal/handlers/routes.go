package handlers

import (
	"net/http"

	"bidmarket/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// Routes mounts the API under /api. Every route except /ping requires a
// bearer token signed with secret.
func Routes(h *Handler, secret []byte) http.Handler {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", h.PingHandler)
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(secret))
			protected(r, h)
		})
	})
	return r
}

// protected registers the authenticated routes.
func protected(r chi.Router, h *Handler) {
	customer := middleware.RequireRole(middleware.RoleCustomer)
	supplier := middleware.RequireRole(middleware.RoleSupplier)

	r.Route("/requests", func(r chi.Router) {
		r.With(customer).Post("/", h.CreateRequestHandler)
		r.Route("/{requestId}", func(r chi.Router) {
			r.Get("/", h.GetRequestHandler)
			r.With(customer).Patch("/", h.EditRequestHandler)
			r.With(customer).Post("/cancel", h.CancelRequestHandler)
			r.With(customer).Get("/history", h.GetRequestHistoryHandler)
			r.Get("/bids", h.GetBidsForRequestHandler)
			r.With(supplier).Post("/bids", h.CreateBidHandler)
		})
	})

	r.Route("/bids/{bidId}", func(r chi.Router) {
		r.Get("/", h.GetBidHandler)
		r.With(supplier).Patch("/", h.EditBidHandler)
		r.With(supplier).Post("/cancel", h.CancelBidHandler)
		r.With(customer).Post("/accept", h.AcceptBidHandler)
		r.With(customer).Post("/reject", h.RejectBidHandler)
	})

	r.Route("/orders/{orderId}", func(r chi.Router) {
		r.Get("/", h.GetOrderHandler)
		r.Get("/history", h.GetOrderHistoryHandler)
		r.With(supplier).Put("/status", h.ChangeOrderStatusHandler)
		r.With(supplier).Post("/updates", h.AddOrderUpdateHandler)
		r.With(customer).Post("/cancel", h.CancelOrderHandler)
		r.With(customer).Post("/confirm-delivery", h.ConfirmDeliveryHandler)
		r.With(customer).Post("/complete", h.CompleteOrderHandler)
	})

	r.With(middleware.RequireRole(middleware.RoleService)).
		Post("/internal/requests/{requestId}/category", h.AssignCategoryHandler)
}
