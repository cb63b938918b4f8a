package handlers

import (
	"net/http"

	"timebank/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.Logger)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{h.cfg.AllowedOrigins},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	authed := middleware.Auth(h.cfg.JWTSecret)

	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.With(authed).Get("/me", h.Me)
	})

	router.Group(func(r chi.Router) {
		r.Use(authed)

		r.With(middleware.RequireCapability(h.users, "can_allocate")).Post("/projects", h.RegisterProject)
		r.With(middleware.RequireCapability(h.users, "can_allocate")).Post("/resources", h.RegisterResource)
		r.With(middleware.RequireCapability(h.users, "can_allocate")).Post("/projects/members", h.AddProjectMember)
		r.With(middleware.RequireCapability(h.users, "can_allocate")).Put("/users/{name}/capabilities", h.SetUserCapabilities)

		r.With(middleware.RequireCapability(h.users, "can_allocate")).Post("/allocations", h.CreateAllocation)
		r.Get("/allocations", h.ListAllocations)
		r.Get("/allocations/{id}", h.AllocationDetail)

		r.With(middleware.RequireCapability(h.users, "can_hold")).Post("/holds", h.CreateHold)
		r.With(middleware.RequireCapability(h.users, "can_hold")).Post("/holds/{id}/release", h.ReleaseHold)

		r.With(middleware.RequireCapability(h.users, "can_charge")).Post("/charges", h.CreateCharge)
		r.With(middleware.RequireCapability(h.users, "can_refund")).Post("/charges/{id}/refunds", h.CreateRefund)
		r.Get("/charges/{id}/refunds", h.ListRefunds)

		r.With(middleware.RequireCapability(h.users, "can_allocate")).Put("/limits", h.SetCreditLimit)
		r.With(middleware.RequireCapability(h.users, "can_allocate")).Put("/factors", h.SetUnitFactor)
		r.Get("/limits", h.ListCreditLimits)
		r.Get("/factors", h.ListUnitFactors)

		r.Get("/projects/{name}/balance", h.ProjectBalance)
		r.With(middleware.RequireCapability(h.users, "can_request")).Get("/reports/usage", h.UsageReport)
		r.Get("/reports/audit", h.ListAuditLogs)
		r.Get("/jobs", h.ListJobs)
		r.With(middleware.RequireCapability(h.users, "can_charge")).Post("/jobs", h.IngestJob)
	})

	router.With(authed).Get("/ws/balances", h.WSBalances)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return router
}
