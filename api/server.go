/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Structured request logging (httplog, ECS schema)
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/configurations/*  Overtime configurations (band sets)
  /api/calculate         Ad-hoc calculation
  /api/employees/*       Employees and their overtime history
  /api/requests/*        Overtime requests and their workflow
  /api/holidays/*        Holidays per work calendar
  /api/reports/*         Overtime reporting
  /api/assets/*          Assets, their recurrence and maintenance history
  /api/maintenance/*     Recurrence preview, teams and maintenance requests
  /metrics               Prometheus scrape endpoint
  /health                Liveness

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/warp/overtime-engine/metrics"
)

// RouterOptions tunes the middleware stack.
type RouterOptions struct {
	CORSOrigins []string
	LogLevel    slog.Level
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:*", "http://127.0.0.1:*"}
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(httplog.RequestLogger(h.Logger, &httplog.Options{
		Level:  opts.LogLevel,
		Schema: httplog.SchemaECS,
	}))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Configuration routes
		r.Route("/configurations", func(r chi.Router) {
			r.Get("/", h.ListConfigurations)
			r.Post("/", h.CreateConfiguration)
			r.Get("/{id}", h.GetConfiguration)
			r.Put("/{id}", h.UpdateConfiguration)
			r.Delete("/{id}", h.DeleteConfiguration)
			r.Post("/{id}/validate", h.ValidateConfiguration)
			r.Post("/{id}/activate", h.ActivateConfiguration)
			r.Post("/{id}/draft", h.DraftConfiguration)
		})

		r.Post("/calculate", h.Calculate)

		// Employee routes
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Get("/{id}", h.GetEmployee)
			r.Get("/{id}/requests", h.GetEmployeeRequests)
		})

		// Request routes
		r.Route("/requests", func(r chi.Router) {
			r.Post("/", h.CreateRequest)
			r.Get("/{id}", h.GetRequest)
			r.Put("/{id}", h.UpdateRequest)
			r.Delete("/{id}", h.DeleteRequest)
			r.Post("/{id}/{action}", h.RequestAction)
		})

		// Holiday routes
		r.Route("/holidays", func(r chi.Router) {
			r.Get("/", h.ListHolidays)
			r.Post("/", h.CreateHoliday)
			r.Delete("/{id}", h.DeleteHoliday)
		})

		r.Get("/reports/overtime", h.OvertimeReport)

		// Asset routes
		r.Route("/assets", func(r chi.Router) {
			r.Get("/", h.ListAssets)
			r.Post("/", h.CreateAsset)
			r.Get("/{id}", h.GetAsset)
			r.Put("/{id}", h.UpdateAsset)
			r.Delete("/{id}", h.DeleteAsset)
			r.Post("/{id}/status/{status}", h.SetAssetStatus)
			r.Post("/{id}/schedule", h.GenerateAssetSchedule)
			r.Get("/{id}/requests", h.GetAssetRequests)
		})

		// Maintenance routes
		r.Route("/maintenance", func(r chi.Router) {
			r.Post("/schedule", h.PreviewSchedule)
			r.Get("/teams", h.ListTeams)
			r.Post("/teams", h.SaveTeam)
			r.Route("/requests", func(r chi.Router) {
				r.Get("/", h.ListMaintenanceRequests)
				r.Post("/", h.CreateMaintenanceRequest)
				r.Get("/{id}", h.GetMaintenanceRequest)
				r.Put("/{id}", h.UpdateMaintenanceRequest)
				r.Delete("/{id}", h.DeleteMaintenanceRequest)
				r.Post("/{id}/{action}", h.MaintenanceRequestAction)
			})
		})
	})

	return r
}
