package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/vocdoni/demos-tally/log"
	"github.com/vocdoni/demos-tally/metrics"
	stg "github.com/vocdoni/demos-tally/storage"
	"github.com/vocdoni/demos-tally/types"
)

// APIConfig type represents the configuration for the API HTTP server.
// It includes the host, port and an existing storage instance.
type APIConfig struct {
	Host    string
	Port    int
	Storage *stg.Storage
	// DisableServer only builds the router, without listening. Used by
	// tests serving the router through httptest.
	DisableServer bool
}

// API is the bulletin board data service. It serves the elections and
// ballots to the trustees and collects the results they submit.
type API struct {
	router  *chi.Mux
	storage *stg.Storage
	server  *http.Server
}

// New creates a new API instance with the given configuration and starts
// the HTTP server.
func New(conf *APIConfig) (*API, error) {
	if conf == nil {
		return nil, fmt.Errorf("missing API configuration")
	}
	if conf.Storage == nil {
		return nil, fmt.Errorf("missing storage instance")
	}
	a := &API{
		storage: conf.Storage,
	}

	// Initialize router
	a.initRouter()
	if conf.DisableServer {
		return a, nil
	}
	a.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", conf.Host, conf.Port),
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Infow("Starting API server", "host", conf.Host, "port", conf.Port)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("failed to start the API server: %v", err)
		}
	}()
	return a, nil
}

// Shutdown stops the HTTP server, waiting for the active requests until ctx
// is done.
func (a *API) Shutdown(ctx context.Context) error {
	if a.server == nil {
		return nil
	}
	return a.server.Shutdown(ctx)
}

// Router returns the chi router for testing purposes
func (a *API) Router() *chi.Mux {
	return a.router
}

// registerHandlers registers all the API handlers.
func (a *API) registerHandlers() {
	log.Infow("register handler", "endpoint", PingEndpoint, "method", "GET")
	a.router.Get(PingEndpoint, func(w http.ResponseWriter, r *http.Request) {
		httpWriteOK(w)
	})
	log.Infow("register handler", "endpoint", MetricsEndpoint, "method", "GET")
	a.router.Method(http.MethodGet, MetricsEndpoint, metrics.Handler())

	log.Infow("register handler", "endpoint", ElectionsEndpoint, "method", "GET")
	a.router.Get(ElectionsEndpoint, a.elections)
	log.Infow("register handler", "endpoint", ElectionEndpoint, "method", "GET")
	a.router.Get(ElectionEndpoint, a.election)
	log.Infow("register handler", "endpoint", ElectionEndpoint, "method", "POST")
	a.router.Post(ElectionEndpoint, a.newElection)
	log.Infow("register handler", "endpoint", ElectionEndpoint, "method", "PATCH")
	a.router.Patch(ElectionEndpoint, a.submitElectionResult)
	log.Infow("register handler", "endpoint", ElectionResultEndpoint, "method", "GET")
	a.router.Get(ElectionResultEndpoint, a.electionResult)

	log.Infow("register handler", "endpoint", BallotsEndpoint, "method", "GET")
	a.router.Get(BallotsEndpoint, a.ballots)
	log.Infow("register handler", "endpoint", BallotsEndpoint, "method", "POST")
	a.router.Post(BallotsEndpoint, a.newBallots)
	log.Infow("register handler", "endpoint", BallotEndpoint, "method", "GET")
	a.router.Get(BallotEndpoint, a.ballot)
	log.Infow("register handler", "endpoint", BallotEndpoint, "method", "PATCH")
	a.router.Patch(BallotEndpoint, a.submitBallotResult)
	log.Infow("register handler", "endpoint", BallotResultEndpoint, "method", "GET")
	a.router.Get(BallotResultEndpoint, a.ballotResult)
}

// initRouter creates the router with all the routes and middleware.
func (a *API) initRouter() {
	// Create the router with a basic middleware stack
	a.router = chi.NewRouter()
	a.router.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}).Handler)
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Throttle(100))
	a.router.Use(middleware.ThrottleBacklog(5000, 40000, 60*time.Second))
	a.router.Use(middleware.Timeout(45 * time.Second))
	a.router.Use(countRequests)

	// Register the API handlers
	a.registerHandlers()
}

// countRequests updates the request counter once the route is resolved.
func countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)
		route := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		metrics.APIRequests.WithLabelValues(route, r.Method).Inc()
	})
}

// storageError maps a storage error to the API error returned to clients.
func storageError(err error, notFound Error) Error {
	switch {
	case errors.Is(err, stg.ErrNotFound):
		return notFound.WithErr(err)
	case errors.Is(err, stg.ErrInvalidKey):
		return ErrMalformedSlug.WithErr(err)
	case errors.Is(err, types.ErrConsistency):
		return ErrInvalidResult.WithErr(err)
	default:
		return ErrGenericInternalServerError.WithErr(err)
	}
}
