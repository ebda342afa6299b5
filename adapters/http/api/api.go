// Package api provides HTTP handlers for the marketplace REST API.
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/Heht571/LLMRouter/adapters/auth"
	"github.com/Heht571/LLMRouter/app"
	"github.com/Heht571/LLMRouter/ports"
)

// Handler provides the marketplace API endpoints.
type Handler struct {
	accounts *app.AccountService
	registry *app.RegistryService
	subs     *app.SubscriptionService
	usage    *app.UsageService
	tokens   *auth.TokenService
	logger   zerolog.Logger
}

// Deps contains dependencies for the API handler.
type Deps struct {
	Accounts *app.AccountService
	Registry *app.RegistryService
	Subs     *app.SubscriptionService
	Usage    *app.UsageService
	Tokens   *auth.TokenService
	Logger   zerolog.Logger
}

// NewHandler creates a new API handler.
func NewHandler(deps Deps) *Handler {
	return &Handler{
		accounts: deps.Accounts,
		registry: deps.Registry,
		subs:     deps.Subs,
		usage:    deps.Usage,
		tokens:   deps.Tokens,
		logger:   deps.Logger,
	}
}

// Router returns the API router, mounted under /api/v1.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()

	// Public endpoints
	r.Post("/auth/register", h.RegisterAccount)
	r.Post("/auth/login", h.Login)

	// Authenticated endpoints
	r.Group(func(r chi.Router) {
		r.Use(h.AuthMiddleware)

		r.Get("/auth/account", h.GetAccount)
		r.Post("/auth/change-password", h.ChangePassword)
		r.Get("/auth/profile", h.GetProfile)
		r.Put("/auth/profile", h.UpdateProfile)
		r.Get("/auth/settings", h.GetSettings)
		r.Put("/auth/settings", h.UpdateSettings)

		// Seller surface
		r.Group(func(r chi.Router) {
			r.Use(h.RequireRole(ports.RoleSeller))

			r.Get("/seller/services", h.ListSellerServices)
			r.Post("/seller/services", h.RegisterService)
			r.Get("/seller/services/{id}", h.GetSellerService)
			r.Put("/seller/services/{id}", h.UpdateService)
			r.Delete("/seller/services/{id}", h.DeactivateService)
			r.Put("/seller/services/{id}/pricing", h.SetPricing)
			r.Get("/seller/services/{id}/documentation", h.GetSellerDocumentation)
			r.Post("/seller/services/{id}/documentation", h.CreateDocumentation)
			r.Put("/seller/services/{id}/documentation", h.UpdateDocumentation)
			r.Delete("/seller/services/{id}/documentation", h.DeleteDocumentation)
			r.Get("/seller/account-settings", h.AccountSettings)
			r.Get("/seller/usage", h.SellerUsage)
			r.Get("/seller/usage/timeseries", h.SellerTimeseries)
			r.Get("/seller/usage/recent", h.SellerRecentCalls)
		})

		// Buyer surface
		r.Group(func(r chi.Router) {
			r.Use(h.RequireRole(ports.RoleBuyer))

			r.Get("/buyer/services", h.BrowseServices)
			r.Get("/buyer/services/{id}", h.ServiceDetail)
			r.Get("/buyer/services/{id}/documentation", h.BuyerDocumentation)
			r.Post("/buyer/services/{id}/subscribe", h.Subscribe)
			r.Get("/buyer/subscriptions", h.ListSubscriptions)
			r.Delete("/buyer/subscriptions/{id}", h.Unsubscribe)
			r.Get("/buyer/account-settings", h.AccountSettings)
			r.Get("/buyer/usage", h.BuyerUsage)
			r.Get("/buyer/usage/timeseries", h.BuyerTimeseries)
			r.Get("/buyer/usage/recent", h.BuyerRecentCalls)
		})
	})

	return r
}
