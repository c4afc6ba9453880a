package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/userdesk/userdesk/internal/handler"
	"github.com/userdesk/userdesk/internal/middleware"
)

// RouterConfig carries what the API router needs.
type RouterConfig struct {
	Users   *handler.UserHandler
	Health  *handler.HealthHandler
	Metrics http.Handler
	Logger  *slog.Logger

	AllowedOrigins     []string
	MaxRequestBodySize int64
	IsDevelopment      bool
}

// NewRouter configures the chi router with all routes and middleware.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()
	h := handler.New(cfg.Logger)

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recoverer(cfg.Logger))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment}))

	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.AllowedOrigins
	r.Use(middleware.CORS(cors))

	r.Get("/", h.Hello)
	r.Get("/healthz", cfg.Health.Healthz)
	r.Get("/readyz", cfg.Health.Readyz)
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	r.Route("/api/users", func(r chi.Router) {
		if cfg.MaxRequestBodySize > 0 {
			r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))
		}
		cfg.Users.Routes(r)
	})

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}
