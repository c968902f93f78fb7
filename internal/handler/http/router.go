package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/catalogadmin/pkg/health"
	"github.com/utafrali/catalogadmin/pkg/middleware"
)

// AdminRole is the token role allowed to use the dashboard.
const AdminRole = "admin"

// RouterConfig wires the router's collaborators.
type RouterConfig struct {
	ServiceName string
	Products    ProductService
	Sessions    Sessions
	Health      *health.Handler
	Metrics     *middleware.HTTPMetrics
	Gatherer    prometheus.Gatherer
	Validate    middleware.TokenValidator
	CORS        middleware.CORSConfig
	RateLimit   int
	RateWindow  time.Duration
	Logger      *slog.Logger
}

// NewRouter creates a chi router with all catalog admin routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.Tracing(cfg.ServiceName))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Handler)
	}
	r.Use(middleware.CORS(cfg.CORS))

	// Health and metrics
	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	products := NewProductHandler(cfg.Products, cfg.Logger)
	dashboard := NewDashboardHandler(cfg.Sessions, cfg.Products, cfg.Logger)
	summary := NewSummaryHandler(cfg.Products, cfg.Logger)

	authenticated := func(r chi.Router) {
		r.Use(middleware.Auth(cfg.Validate))
		r.Use(middleware.RequireRole(AdminRole))
		r.Use(middleware.RequestLogger(cfg.Logger))
		if cfg.RateLimit > 0 {
			r.Use(middleware.RateLimit(cfg.RateLimit, cfg.RateWindow))
		}
	}

	r.Route("/api/v1", func(r chi.Router) {
		authenticated(r)

		r.Route("/products", func(r chi.Router) {
			r.Get("/", products.ListProducts)
			r.Get("/top", products.TopProducts)
			r.Get("/{id}", products.GetProduct)
			r.Delete("/{id}", products.DeleteProduct)
		})

		r.Route("/dashboard", func(r chi.Router) {
			r.Get("/state", dashboard.State)
			r.Put("/lang", dashboard.ChangeLang)
			r.Put("/page", dashboard.ChangePage)
			r.Put("/search", dashboard.Search)
			r.Put("/view", dashboard.ChangeView)

			r.Post("/products/{id}/details", dashboard.ShowDetails)
			r.Post("/products/{id}/confirm-delete", dashboard.ConfirmDelete)

			r.Get("/dialogs", dashboard.ListDialogs)
			r.Get("/dialogs/{dialogId}", dashboard.GetDialog)
			r.Post("/dialogs/{dialogId}/resolve", dashboard.ResolveDialog)
			r.Delete("/dialogs/{dialogId}", dashboard.DismissDialog)

			r.Get("/summary", summary.Summary)
		})
	})

	r.Group(func(r chi.Router) {
		authenticated(r)
		r.Get("/dashboard/charts/{by}", summary.Chart)
	})

	return r
}
