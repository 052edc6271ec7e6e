package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/talentquiz/internal/attempt"
	"github.com/gokatarajesh/talentquiz/internal/auth"
	"github.com/gokatarajesh/talentquiz/internal/catalog"
	"github.com/gokatarajesh/talentquiz/internal/config"
	"github.com/gokatarajesh/talentquiz/internal/generation"
	"github.com/gokatarajesh/talentquiz/internal/logging"
	httperrors "github.com/gokatarajesh/talentquiz/pkg/http/errors"
)

// Pinger reports whether a dependency is reachable.
type Pinger func(ctx context.Context) error

// Handlers groups everything the API server routes to.
type Handlers struct {
	Tokens     auth.TokenValidator
	Catalog    *catalog.HTTPHandlers
	Generation *generation.HTTPHandlers
	Attempts   *attempt.HTTPHandlers
	AttemptWS  http.Handler
	Metrics    http.Handler
	// Dependencies are checked by /readyz.
	Dependencies map[string]Pinger
}

// NewHTTPServer wires health, metrics and API routes behind the shared
// middleware chain.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, h Handlers) *http.Server {
	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: NewHandler(cfg, logger, h),
	}
}

// NewHandler builds the routed handler without binding an address.
func NewHandler(cfg *config.App, logger zerolog.Logger, h Handlers) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		for name, ping := range h.Dependencies {
			if err := ping(r.Context()); err != nil {
				reqLogger := logging.FromContext(r.Context())
				reqLogger.Error().Err(err).Str("dependency", name).Msg("dependency ping failed")
				httperrors.RespondError(w, http.StatusBadGateway, httperrors.ErrCodeUpstreamError, name+" unavailable")
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	})

	if h.Metrics != nil {
		mux.Handle("GET /metrics", h.Metrics)
	}
	if h.Catalog != nil {
		h.Catalog.Register(mux)
	}
	if h.Generation != nil {
		h.Generation.Register(mux)
	}
	if h.Attempts != nil {
		h.Attempts.Register(mux)
	}
	if h.AttemptWS != nil {
		mux.Handle("GET /ws/attempts/{id}", auth.RequireAuth(h.AttemptWS))
	}

	var handler http.Handler = mux
	handler = auth.AuthMiddleware(h.Tokens, logger)(handler)
	handler = cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		ExposedHeaders:   []string{logging.RequestIDHeader},
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           cfg.CORS.MaxAge,
	})(handler)
	handler = logging.Middleware(logger)(handler)
	handler = middleware.RealIP(handler)
	handler = middleware.Recoverer(handler)
	return handler
}
