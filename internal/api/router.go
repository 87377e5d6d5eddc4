// Package api assembles the HTTP surface: routes, middleware, handlers.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/dvloznov/wealth-tracker/internal/api/handlers"
	"github.com/dvloznov/wealth-tracker/internal/api/middleware"
	"github.com/dvloznov/wealth-tracker/internal/jobs"
	"github.com/dvloznov/wealth-tracker/internal/store"
)

// Deps carries everything the router needs. Scanner and Archiver may be nil
// when the corresponding integrations are not configured.
type Deps struct {
	Store     *store.Store
	JobStore  jobs.JobStore
	Scanner   handlers.ReceiptScanner
	Archiver  handlers.ReceiptArchiver
	JWTSecret string
	Log       zerolog.Logger
}

// NewRouter builds the full route tree.
func NewRouter(d Deps) http.Handler {
	accounts := handlers.NewAccountsHandler(d.Store, d.Log)
	transactions := handlers.NewTransactionsHandler(d.Store, d.Log)
	budgets := handlers.NewBudgetsHandler(d.Store, d.Log)
	dashboard := handlers.NewDashboardHandler(d.Store, d.Log)
	receipts := handlers.NewReceiptsHandler(d.Scanner, d.Archiver, d.Log)
	jobsHandler := handlers.NewJobsHandler(d.JobStore, d.Log)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.Log))
	r.Use(middleware.Recovery(d.Log))
	r.Use(middleware.CORS)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(d.JWTSecret))

		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", accounts.Create)
			r.Get("/", accounts.List)
			r.Get("/{id}", accounts.Get)
			r.Put("/{id}/default", accounts.SetDefault)
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Post("/", transactions.Create)
			r.Get("/", transactions.List)
			r.Get("/{id}", transactions.Get)
			r.Post("/delete", transactions.Delete)
		})

		r.Route("/budget", func(r chi.Router) {
			r.Get("/", budgets.Get)
			r.Put("/", budgets.Upsert)
		})

		r.Get("/dashboard", dashboard.Summary)
		r.Post("/receipts/scan", receipts.Scan)

		r.Route("/jobs", func(r chi.Router) {
			r.Get("/", jobsHandler.List)
			r.Get("/{id}", jobsHandler.Get)
		})
	})

	return r
}
