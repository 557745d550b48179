package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/weather-lookup/internal/domain"
)

// Server exposes the weather API plus health, readiness, and metrics
// endpoints.
type Server struct {
	httpServer *http.Server
	weather    domain.WeatherProvider
	validate   *validator.Validate
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the /api/weather routes and the
// /healthz, /readyz, and /metrics operational routes.
func NewServer(addr string, weather domain.WeatherProvider, ready sharedobs.ReadinessChecker, corsOrigin string, logger *slog.Logger) *Server {
	r := chi.NewRouter()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      gzhttp.GzipHandler(r),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		weather:  weather,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}

	r.Use(recoverer(logger))
	r.Use(requestID)
	r.Use(requestLogger(logger))

	r.Get("/healthz", sharedobs.LivenessHandler())
	r.Get("/readyz", sharedobs.ReadinessHandler(ready))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/weather", func(r chi.Router) {
		r.Use(cors(corsOrigin))
		r.Get("/city/{name}", s.handleCity)
		r.Get("/coordinates", s.handleCoordinates)
		r.Get("/health", s.handleAPIHealth)
	})

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
