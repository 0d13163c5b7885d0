package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/clangauge0314/react-fashion-ecommerce/internal/service"
	"github.com/clangauge0314/react-fashion-ecommerce/pkg/health"
	"github.com/clangauge0314/react-fashion-ecommerce/pkg/middleware"
)

// NewRouter creates a chi router with all catalog service routes registered.
// uploadDir is served read-only under /uploads/ so stored derivatives are
// publicly retrievable by their key.
func NewRouter(
	catalogService *service.CatalogService,
	healthHandler *health.Handler,
	validate middleware.TokenValidator,
	uploadDir string,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(CORS)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("catalog"))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Static derivative files
	fileServer := http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploadDir)))
	r.Get("/uploads/*", fileServer.ServeHTTP)

	// Product API endpoints
	productHandler := NewProductHandler(catalogService, logger)

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		// Public reads
		r.Get("/", productHandler.ListProducts)
		r.Get("/{id}", productHandler.GetProduct)

		// Authorized writes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(validate))

			r.Post("/", productHandler.CreateProduct)
			r.Put("/{id}", productHandler.UpdateProduct)
			r.Delete("/{id}", productHandler.DeleteProduct)
		})
	})

	return r
}
