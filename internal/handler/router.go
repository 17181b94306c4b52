package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mmeshcher/boutique-system/internal/middleware"
	"github.com/mmeshcher/boutique-system/internal/model"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewRouter собирает маршруты сервиса boutique.
func NewRouter(h *Handler, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics)
	r.Use(middleware.GzipMiddleware)

	roleLookup := func(ctx context.Context, userID int64) (model.Role, error) {
		c, err := h.svc.GetClient(ctx, userID)
		if err != nil {
			return "", err
		}
		return c.Role, nil
	}

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", h.Login)

		// маршруты, требующие аутентификации
		r.Group(func(r chi.Router) {
			r.Use(h.auth.Middleware)

			r.Post("/auth/logout", h.Logout)
			r.Get("/auth/me", h.Me)
			r.Get("/clients/me/profile", h.Profile)

			r.Get("/products", h.ListProducts)
			r.Get("/products/{id}", h.GetProduct)

			r.Post("/orders", h.CreateOrder)
			r.Get("/orders/{id}", h.GetOrder)
			r.Get("/orders/client/{id}", h.ListOrdersByClient)

			r.Get("/payments/{id}", h.GetPayment)
			r.Get("/payments/order/{id}", h.ListPaymentsByOrder)

			// маршруты администратора
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin(roleLookup))

				r.Get("/clients", h.ListClients)
				r.Post("/clients", h.CreateClient)
				r.Get("/clients/{id}", h.GetClient)
				r.Put("/clients/{id}", h.UpdateClient)
				r.Delete("/clients/{id}", h.DeleteClient)

				r.Post("/products", h.CreateProduct)
				r.Put("/products/{id}", h.UpdateProduct)
				r.Delete("/products/{id}", h.DeleteProduct)

				r.Get("/orders", h.ListOrders)
				r.Get("/orders/status/{status}", h.ListOrdersByStatus)
				r.Put("/orders/{id}/confirm", h.ConfirmOrder)
				r.Put("/orders/{id}/cancel", h.CancelOrder)

				r.Get("/payments", h.ListPayments)
				r.Post("/payments", h.CreatePayment)
				r.Put("/payments/{id}/clear", h.ClearPayment)
				r.Put("/payments/{id}/reject", h.RejectPayment)

				r.Get("/stats", h.GetStats)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		h.writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}
