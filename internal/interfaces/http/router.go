package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/ipede/oauth2-server/internal/application"
	"github.com/ipede/oauth2-server/internal/domain"
	"github.com/ipede/oauth2-server/internal/infrastructure/keys"
	"github.com/ipede/oauth2-server/internal/interfaces/http/handlers"
	"github.com/ipede/oauth2-server/internal/interfaces/http/middleware/ratelimit"
	"go.uber.org/zap"
)

// Deps are the already-wired collaborators the router exposes over HTTP.
// Ping reports storage readiness; it is nil for the in-memory backend.
type Deps struct {
	Authenticator *application.ClientAuthenticator
	Dispatcher    *application.Dispatcher
	ClientRepo    domain.ClientRepository
	TokenService  domain.TokenService
	KeySet        *keys.Set
	Ping          func() error
}

type Router struct {
	router *chi.Mux
}

func NewRouter(deps Deps, logger *zap.Logger) *Router {
	oauth2Handler := handlers.NewOAuth2Handler(
		deps.Authenticator,
		deps.Dispatcher,
		deps.ClientRepo,
		deps.TokenService,
		logger,
	)
	jwksHandler := handlers.NewJWKSHandler(deps.KeySet, logger)

	router := createRouter()

	rateLimiter := ratelimit.NewRateLimiter(100, 200, 3*time.Minute)
	router.Use(rateLimiter.Middleware)

	// Health check endpoints
	router.Group(func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})

		r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
			if deps.Ping != nil {
				if err := deps.Ping(); err != nil {
					logger.Error("Storage health check failed", zap.Error(err))
					w.WriteHeader(http.StatusServiceUnavailable)
					w.Write([]byte("Storage connection failed"))
					return
				}
			}
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("Ready"))
		})

		r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("Alive"))
		})
	})

	router.Get("/.well-known/jwks.json", jwksHandler.Keys)

	router.Route("/oauth2", func(r chi.Router) {
		r.Get("/authorize", oauth2Handler.Authorize)
		r.Post("/token", oauth2Handler.Token)
		r.Post("/revoke", oauth2Handler.Revoke)
	})

	return &Router{router: router}
}

func createRouter() *chi.Mux {
	router := chi.NewRouter()

	// Add middleware
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Timeout(60 * time.Second))

	return router
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}
