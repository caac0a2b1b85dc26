// Package api wires the HTTP surface: routing, middleware order, and the
// handlers' dependencies.
package api

import (
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/calagora/server/internal/api/handlers"
	"github.com/calagora/server/internal/api/middleware"
	"github.com/calagora/server/internal/audit"
	"github.com/calagora/server/internal/auth"
	"github.com/calagora/server/internal/auth/oauth"
	"github.com/calagora/server/internal/config"
	"github.com/calagora/server/internal/domain/events"
	"github.com/calagora/server/internal/domain/users"
	"github.com/calagora/server/internal/metrics"
	"github.com/calagora/server/internal/storage"
)

// BuildInfo carries the ldflags-injected build metadata down to the
// version and health endpoints.
type BuildInfo struct {
	Version   string
	GitCommit string
	BuildDate string
}

// NewRouter assembles the full handler chain. The repository and database
// pinger are injected so tests can run the router against fakes.
func NewRouter(cfg config.Config, logger zerolog.Logger, repo storage.Repository, db handlers.Pinger, build BuildInfo) http.Handler {
	usersService := users.NewService(repo.Users(), logger)
	eventsService := events.NewService(repo.Events(), logger)

	usersHandler := handlers.NewUsersHandler(usersService, cfg.Environment)
	eventsHandler := handlers.NewEventsHandler(eventsService, cfg.Environment)
	healthHandler := handlers.NewHealthHandler(db, build.Version, build.GitCommit)

	// Mutating routes require a session only when OAuth login is
	// configured; an unconfigured deployment runs the API open.
	guard := func(next http.Handler) http.Handler { return next }
	var sessions *auth.SessionManager
	if cfg.OAuth.Enabled() {
		sessions = auth.NewSessionManager(cfg.Session.Secret, cfg.Session.Expiry, "calagora")
		guard = middleware.SessionAuth(sessions, cfg.Environment)
	}

	mux := http.NewServeMux()
	mux.Handle("/healthz", http.HandlerFunc(healthHandler.Healthz))
	mux.Handle("/readyz", http.HandlerFunc(healthHandler.Readyz))
	mux.Handle("/version", VersionHandler(build.Version, build.GitCommit, build.BuildDate))
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	mux.Handle("/api/v1/users", methodMux(map[string]http.Handler{
		http.MethodGet:  http.HandlerFunc(usersHandler.List),
		http.MethodPost: guard(http.HandlerFunc(usersHandler.Create)),
	}))
	mux.Handle("/api/v1/users/{id}", methodMux(map[string]http.Handler{
		http.MethodGet:    http.HandlerFunc(usersHandler.Get),
		http.MethodPatch:  guard(http.HandlerFunc(usersHandler.Update)),
		http.MethodDelete: guard(http.HandlerFunc(usersHandler.Delete)),
	}))

	mux.Handle("/api/v1/events", methodMux(map[string]http.Handler{
		http.MethodGet:  http.HandlerFunc(eventsHandler.List),
		http.MethodPost: guard(http.HandlerFunc(eventsHandler.Create)),
	}))
	mux.Handle("/api/v1/events/{id}", methodMux(map[string]http.Handler{
		http.MethodGet:    http.HandlerFunc(eventsHandler.Get),
		http.MethodPatch:  guard(http.HandlerFunc(eventsHandler.Update)),
		http.MethodDelete: guard(http.HandlerFunc(eventsHandler.Delete)),
	}))

	if sessions != nil {
		mountAuthRoutes(mux, cfg, usersService, sessions)
	}

	chain := middleware.RateLimit(cfg.RateLimit)(mux)
	chain = audit.NewLogger(logger).Middleware(chain)
	chain = metrics.HTTPMiddleware(chain)
	chain = middleware.RequestLogging(logger)(chain)
	chain = middleware.CorrelationID(logger)(chain)
	return chain
}

func mountAuthRoutes(mux *http.ServeMux, cfg config.Config, usersService *users.Service, sessions *auth.SessionManager) {
	secure := strings.HasPrefix(cfg.Server.BaseURL, "https://")
	client := oauth.NewClient(oauth.Config{
		ClientID:     cfg.OAuth.ClientID,
		ClientSecret: cfg.OAuth.ClientSecret,
		CallbackURL:  cfg.OAuth.CallbackURL,
	})
	authHandler := handlers.NewAuthHandler(usersService, sessions, client, cfg.Environment, secure)

	loginTier := middleware.WithRateLimitTierHandler(middleware.TierLogin)
	sessionAuth := middleware.SessionAuth(sessions, cfg.Environment)

	mux.Handle("/auth/github/login", loginTier(http.HandlerFunc(authHandler.Login)))
	mux.Handle("/auth/github/callback", loginTier(http.HandlerFunc(authHandler.Callback)))
	mux.Handle("/auth/logout", methodMux(map[string]http.Handler{
		http.MethodPost: http.HandlerFunc(authHandler.Logout),
	}))
	mux.Handle("/auth/me", sessionAuth(http.HandlerFunc(authHandler.Me)))
}

func methodMux(handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := handlers[r.Method]; ok {
			handler.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Allow", allowedMethods(handlers))
		w.WriteHeader(http.StatusMethodNotAllowed)
	})
}

func allowedMethods(handlers map[string]http.Handler) string {
	methods := make([]string, 0, len(handlers))
	for method := range handlers {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}

// Listener timeouts applied by the serve command.
const (
	ReadTimeout  = 15 * time.Second
	WriteTimeout = 30 * time.Second
	IdleTimeout  = 60 * time.Second
)
