// Package router assembles the HTTP routes and middleware chain.
package router

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/housetable/vetclinic/internal/handler"
	"github.com/housetable/vetclinic/internal/middleware"
)

// Deps holds everything the router mounts.
type Deps struct {
	Logger *slog.Logger

	Index        *handler.Handler
	Health       *handler.HealthHandler
	Metrics      *handler.MetricsHandler // nil hides /metrics
	Patients     *handler.PatientHandler
	Appointments *handler.AppointmentHandler
	Reports      *handler.ReportHandler

	Security  middleware.SecurityConfig
	CORS      middleware.CORSConfig
	RateLimit middleware.RateLimitConfig
}

// New configures the chi router with all routes and middleware.
func New(d Deps) *chi.Mux {
	if d.Security.MaxRequestBodySize <= 0 {
		d.Security.MaxRequestBodySize = middleware.DefaultSecurityConfig().MaxRequestBodySize
	}
	if d.RateLimit.Logger == nil {
		d.RateLimit.Logger = d.Logger
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.Recoverer(d.Logger))
	r.Use(middleware.Security(d.Security))
	r.Use(middleware.CORS(d.CORS))
	r.Use(middleware.MaxBodySize(d.Security.MaxRequestBodySize))

	// Probes
	r.Get("/healthz", d.Health.Healthz)
	r.Get("/readyz", d.Health.Readyz)
	if d.Metrics != nil {
		r.Get("/metrics", d.Metrics.Metrics)
	}

	r.Get("/", d.Index.Index)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RateLimitIP(d.RateLimit))

		r.Get("/health", d.Health.Health)

		r.Route("/patients", func(r chi.Router) {
			r.Post("/", d.Patients.Create)
			r.Get("/", d.Patients.List)
			r.Get("/{id}", d.Patients.Get)
			r.Put("/{id}", d.Patients.Update)
			r.Delete("/{id}", d.Patients.Delete)
		})

		r.Route("/appointments", func(r chi.Router) {
			r.Post("/", d.Appointments.Create)
			r.Get("/day", d.Appointments.ListForDay)
			r.Get("/unpaid", d.Appointments.ListUnpaid)
			r.Get("/{patientId}", d.Appointments.ListByPatient)
			r.Put("/{id}", d.Appointments.Update)
			r.Delete("/{id}", d.Appointments.Delete)
		})

		r.Route("/bill", func(r chi.Router) {
			r.Get("/paid", d.Reports.Paid)
			r.Get("/unpaid", d.Reports.Unpaid)
			r.Get("/balance", d.Reports.Balance)
			r.Get("/{patientId}", d.Reports.RemainingBill)
		})

		r.Route("/pet", func(r chi.Router) {
			r.Get("/popular", d.Reports.MostPopularPet)
			r.Get("/total", d.Reports.TotalByPet)
		})
	})

	// 404 and 405 handlers
	r.NotFound(d.Index.NotFound)
	r.MethodNotAllowed(d.Index.MethodNotAllowed)

	return r
}
