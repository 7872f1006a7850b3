package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/mcoot/roster/internal/api/apierr"
	"github.com/mcoot/roster/internal/api/handler"
	"github.com/mcoot/roster/internal/api/middleware"
	"github.com/mcoot/roster/internal/api/sse"
	"github.com/mcoot/roster/internal/dependencies/clock"
	basemiddleware "github.com/mcoot/roster/internal/middleware"
	"github.com/mcoot/roster/internal/services/auth"
	"github.com/mcoot/roster/internal/services/roster"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger        *slog.Logger
	Clock         clock.Clock
	AuthService   *auth.Service
	RosterService *roster.Service
	// Hub serves /api/events. Nil disables the change feed.
	Hub *sse.Hub
	// Registry receives the HTTP metrics and is served at /metrics. Nil disables both.
	Registry *prometheus.Registry
	// StorageDriver is reported by the health endpoint
	StorageDriver string
	// AllowedOrigins for CORS. Empty allows any origin.
	AllowedOrigins []string
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		apierr.WriteError(w, apierr.NewNotFoundError())
	})
	// Each subrouter resolves method mismatches itself
	methodNotAllowed := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		apierr.WriteError(w, apierr.NewMethodNotAllowedError())
	})
	r.MethodNotAllowedHandler = methodNotAllowed

	// Create handlers
	authHandler := handler.NewAuthHandler(cfg.AuthService, cfg.Clock)
	teamHandler := handler.NewTeamHandler(cfg.RosterService)
	playerHandler := handler.NewPlayerHandler(cfg.RosterService)
	configHandler := handler.NewConfigHandler(cfg.RosterService)
	imageHandler := handler.NewImageHandler(cfg.RosterService, cfg.Logger)
	healthHandler := handler.NewHealthHandler(cfg.StorageDriver, cfg.Hub)

	// Create middleware
	authMiddleware := middleware.Auth(cfg.AuthService)
	loggingMiddleware := basemiddleware.Logging(cfg.Logger)
	recoveryMiddleware := basemiddleware.Recovery(cfg.Logger, writePanicResponse)

	// Logging wraps recovery so a recovered panic is logged with its request ID and 500 status
	r.Use(loggingMiddleware)
	r.Use(recoveryMiddleware)
	if cfg.Registry != nil {
		r.Use(basemiddleware.NewMetrics(cfg.Registry).Middleware)
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api").Subrouter()
	api.MethodNotAllowedHandler = methodNotAllowed

	// Auth routes
	api.HandleFunc("/auth/login", authHandler.Login).Methods(http.MethodPost)
	api.Handle("/auth/logout", authMiddleware(http.HandlerFunc(authHandler.Logout))).Methods(http.MethodPost)
	api.Handle("/auth/session", authMiddleware(http.HandlerFunc(authHandler.Session))).Methods(http.MethodGet)

	// Reads are public
	api.HandleFunc("/teams", teamHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/teams/{id}", teamHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/teams/{id}/players", teamHandler.Players).Methods(http.MethodGet)
	api.HandleFunc("/players", playerHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/players/{id}", playerHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/config", configHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/health", healthHandler.Health).Methods(http.MethodGet)

	// Mutations require a session
	protected := api.NewRoute().Subrouter()
	protected.MethodNotAllowedHandler = methodNotAllowed
	protected.Use(authMiddleware)
	protected.HandleFunc("/teams", teamHandler.Create).Methods(http.MethodPost)
	protected.HandleFunc("/teams/{id}", teamHandler.Update).Methods(http.MethodPut)
	protected.HandleFunc("/teams/{id}", teamHandler.Delete).Methods(http.MethodDelete)
	protected.HandleFunc("/players", playerHandler.Create).Methods(http.MethodPost)
	protected.HandleFunc("/players/{id}", playerHandler.Update).Methods(http.MethodPut)
	protected.HandleFunc("/players/{id}", playerHandler.Delete).Methods(http.MethodDelete)
	protected.HandleFunc("/players/{id}/image", playerHandler.UploadImage).Methods(http.MethodPost)
	protected.HandleFunc("/config", configHandler.Update).Methods(http.MethodPut)

	if cfg.Hub != nil {
		eventsHandler := handler.NewEventsHandler(cfg.Hub)
		api.HandleFunc("/events", eventsHandler.Stream).Methods(http.MethodGet)
	}

	r.HandleFunc("/images/{key:.+}", imageHandler.Serve).Methods(http.MethodGet, http.MethodHead)

	return corsHandler(cfg.AllowedOrigins).Handler(r)
}

func corsHandler(origins []string) *cors.Cors {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodDelete,
		},
		AllowedHeaders: []string{"Authorization", "Content-Type", basemiddleware.RequestIDHeader},
		ExposedHeaders: []string{basemiddleware.RequestIDHeader},
		MaxAge:         600,
	})
}

// writePanicResponse answers a recovered panic with the usual JSON error envelope
func writePanicResponse(w http.ResponseWriter, _ *http.Request, _ any) {
	apierr.WriteError(w, apierr.NewInternalError())
}
