package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/azellar/backend/internal/contact"
	"github.com/azellar/backend/internal/enrollment"
	"github.com/azellar/backend/internal/health"
	"github.com/azellar/backend/internal/obs"
	"github.com/azellar/backend/internal/security"
)

// Deps carries everything the HTTP surface needs. Zero values disable the
// optional layers.
type Deps struct {
	Logger          zerolog.Logger
	CORSOrigins     []string
	MaxBodyBytes    int64
	SecurityHeaders bool
	Tracing         bool

	// Metrics instruments requests; Gatherer, when set, is served on /metrics.
	Metrics  *obs.HTTPMetrics
	Gatherer prometheus.Gatherer

	Contact    contact.Sender
	Enrollment enrollment.Sender
	// Readiness backs /api/ready. Nil means always ready.
	Readiness *health.Readiness
	Now       func() time.Time
}

// NewRouter assembles the middleware chain and routes.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if d.Tracing {
		r.Use(obs.TracingMiddleware)
	}
	if d.Metrics != nil {
		r.Use(obs.HTTPObs{Metrics: d.Metrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: d.Logger}.Middleware)
	r.Use(security.CORS(d.CORSOrigins))
	r.Use(security.Headers{Enable: d.SecurityHeaders}.Middleware)

	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	healthHandler := health.Handler{Now: d.Now, Readiness: d.Readiness}
	r.Get("/", healthHandler.Root)

	contactHandler := &contact.Handler{Sender: d.Contact, Logger: d.Logger.With().Str("component", "contact").Logger()}
	enrollmentHandler := &enrollment.Handler{Sender: d.Enrollment, Logger: d.Logger.With().Str("component", "enrollment").Logger()}

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", healthHandler.Health)
		api.Get("/ready", healthHandler.Ready)

		api.Group(func(g chi.Router) {
			g.Use(security.BodyLimit{Max: d.MaxBodyBytes}.Middleware)
			g.Post("/send-contact-email", contactHandler.Send)
			g.Post("/send-enrollment-email", enrollmentHandler.Send)
		})
	})

	return r
}
