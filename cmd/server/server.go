// cmd/server/server.go
package main

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/estrellaangel/VolleyTech/internal/api"
	apievents "github.com/estrellaangel/VolleyTech/internal/api/events"
	"github.com/estrellaangel/VolleyTech/internal/api/identities"
	"github.com/estrellaangel/VolleyTech/internal/api/imports"
	"github.com/estrellaangel/VolleyTech/internal/api/mappings"
	"github.com/estrellaangel/VolleyTech/internal/api/stats"
	"github.com/estrellaangel/VolleyTech/internal/catalog"
	"github.com/estrellaangel/VolleyTech/internal/config"
)

func newServer(cfg *config.Config, a *app) *http.Server {
	router := http.NewServeMux()

	// Register routes
	registerRoutes(router, a)

	// Innermost first: the session sees the request-scoped logger.
	middleware := []api.Middleware{api.WithSession(a.directory)}
	if a.limiter != nil {
		middleware = append(middleware, a.limiter.Middleware(cfg.HTTP.TrustProxy))
	}
	middleware = append(middleware,
		api.WithCORS(cfg.HTTP.CORSAllowOrigins),
		api.WithLogging,
		api.WithRecovery,
		api.WithRequestID,
	)
	handler := api.ChainMiddleware(router, middleware...)

	return &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.App.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func registerRoutes(mux *http.ServeMux, a *app) {
	stats.InitHandlers(catalog.Default())
	mappings.InitHandlers(a.profiles, catalog.Default())
	identities.InitHandlers(a.resolver, a.directory)
	apievents.InitHandlers(a.events, a.directory)
	imports.InitHandlers(a.importer)

	// Health check
	mux.HandleFunc("GET /health", handleHealth(a))

	// Stat catalog and column mapping
	mux.HandleFunc("GET /api/v1/stats/catalog", stats.HandleCatalog)
	mux.HandleFunc("POST /api/v1/mappings/suggest", mappings.HandleSuggest)
	mux.HandleFunc("GET /api/v1/mappings/profiles/{source}/{teamId}", mappings.HandleGetProfile)
	mux.HandleFunc("POST /api/v1/mappings/profiles/{source}/{teamId}", mappings.HandleCreateProfile)
	mux.HandleFunc("PUT /api/v1/mappings/profiles/{source}/{teamId}", mappings.HandleUpdateProfile)
	mux.HandleFunc("POST /api/v1/mappings/apply", mappings.HandleApply)
	mux.HandleFunc("POST /api/v1/imports/{source}/{teamId}", imports.HandleImport)

	// External player identities
	mux.HandleFunc("POST /api/v1/identities/key", identities.HandleKey)
	mux.HandleFunc("POST /api/v1/identities/resolve", identities.HandleResolve)
	mux.HandleFunc("POST /api/v1/identities/links", identities.HandleLink)
	mux.HandleFunc("GET /api/v1/identities/players/{playerId}/refs", identities.HandlePlayerRefs)

	// Calendar
	mux.HandleFunc("GET /api/v1/events", apievents.HandleListEvents)
	mux.HandleFunc("POST /api/v1/events", apievents.HandleCreateEvent)
	mux.HandleFunc("POST /api/v1/events/personal", apievents.HandleCreatePersonalEvent)
	mux.HandleFunc("PUT /api/v1/events/{eventId}", apievents.HandleUpdateEvent)
}

// handleHealth reports 503 while the database or redis is unreachable.
func handleHealth(a *app) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := a.ping(ctx); err != nil {
			log.Ctx(r.Context()).Error().Err(err).Msg("Health check failed")
			http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}
}
