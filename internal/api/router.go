/**
 * @description
 * This file sets up the HTTP router. It defines the API endpoints, associates
 * them with their corresponding handlers, and applies middleware for logging,
 * panic recovery, timeouts, and authentication.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 * - github.com/prometheus/client_golang: The /metrics scrape endpoint.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Routes creates and returns the service router.
func Routes(h *Handlers, jwtSecret string) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	r.Handle("/metrics", promhttp.Handler())

	// Public endpoints: account creation, login, code flows, and webhooks.
	r.Post("/auth/register", h.RegisterHandler)
	r.Post("/auth/login", h.LoginHandler)
	r.Post("/auth/code", h.RequestCodeHandler)
	r.Post("/auth/verify", h.VerifyEmailHandler)
	r.Post("/auth/reset-password", h.ResetPasswordHandler)

	r.Post("/webhooks/paystack", h.GatewayWebhookHandler)
	r.Post("/webhooks/vendor", h.VendorWebhookHandler)

	// Group routes that require authentication.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(jwtSecret))

		r.Get("/me", h.ProfileHandler)
		r.Post("/me/password", h.ChangePasswordHandler)
		r.Post("/me/pin", h.SetPINHandler)
		r.Post("/me/dedicated-account", h.RequestDVAHandler)

		r.Get("/catalog", h.CatalogHandler)
		r.Get("/validate/meter", h.ValidateMeterHandler)
		r.Get("/validate/iuc", h.ValidateIUCHandler)
		r.Get("/transactions", h.ListTransactionsHandler)

		r.Post("/purchases/data", h.BuyDataHandler)
		r.Post("/purchases/airtime", h.BuyAirtimeHandler)
		r.Post("/purchases/electricity", h.BuyElectricityHandler)
		r.Post("/purchases/cable", h.BuyCableHandler)
		r.Post("/purchases/education-pin", h.BuyEducationPinHandler)

		// Administrative endpoints.
		r.Group(func(r chi.Router) {
			r.Use(AdminOnly)

			r.Get("/admin/pricing", h.ListPricingRulesHandler)
			r.Post("/admin/pricing", h.UpsertPricingRuleHandler)
			r.Post("/admin/charges", h.SetChargeHandler)
			r.Get("/admin/exams", h.ListExamsHandler)
			r.Post("/admin/exams", h.SetExamHandler)
			r.Get("/admin/providers", h.ListProvidersHandler)
			r.Post("/admin/providers", h.SetProviderHandler)
			r.Get("/admin/users", h.ListUsersHandler)
			r.Put("/admin/users/{id}/active", h.SetUserActiveHandler)
			r.Delete("/admin/users/{id}", h.DeleteUserHandler)
			r.Get("/admin/transactions", h.ListAllTransactionsHandler)
		})
	})

	return r
}
