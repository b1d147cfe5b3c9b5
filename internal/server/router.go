package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iudanet/agroprofile/internal/server/handlers"
	"github.com/iudanet/agroprofile/internal/server/middleware"
	"github.com/iudanet/agroprofile/internal/server/storage"
)

// Tokens выпускает и проверяет сессионные токены
type Tokens interface {
	handlers.TokenIssuer
	middleware.TokenValidator
}

// RouterDeps зависимости роутера
type RouterDeps struct {
	Logger   *slog.Logger
	Users    storage.UserStorage
	Tokens   Tokens
	Limiter  *middleware.RateLimiter
	Registry *prometheus.Registry
	Version  string
}

// NewRouter регистрирует маршруты API.
// Цепочка: recovery -> logging -> metrics -> router -> (rate limit | auth) -> handler
func NewRouter(deps RouterDeps) http.Handler {
	authHandler := handlers.NewAuthHandler(deps.Logger, deps.Users, deps.Tokens)
	healthHandler := handlers.NewHealthHandler(deps.Logger, deps.Users, deps.Version)
	metrics := middleware.NewMetrics(deps.Registry)

	r := chi.NewRouter()
	r.Use(
		middleware.RecoveryMiddleware(deps.Logger),
		middleware.LoggingWithSkip(deps.Logger, []string{"/metrics"}),
		metrics.Middleware,
	)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		handlers.WriteError(deps.Logger, w, "route not found", http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		handlers.WriteError(deps.Logger, w, "method not allowed", http.StatusMethodNotAllowed)
	})

	// Публичные эндпоинты, register и login под rate limit
	r.Group(func(r chi.Router) {
		if deps.Limiter != nil {
			r.Use(deps.Limiter.Middleware)
		}
		r.Post("/api/v1/auth/register", authHandler.Register)
		r.Post("/api/v1/auth/login", authHandler.Login)
	})
	r.Get("/api/v1/health", healthHandler.Health)

	// Требуют Bearer токен
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(deps.Logger, deps.Tokens))
		r.Get("/api/v1/auth/profile", authHandler.GetProfile)
		r.Put("/api/v1/auth/profile", authHandler.UpdateProfile)
		r.Delete("/api/v1/auth/profile", authHandler.DeleteAccount)
	})

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))

	return r
}
