package routes

import (
	"net/http"

	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/api/handlers"
	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/api/middleware"
	"github.com/ethan-saco/radiololgy-ct-protocoling/internal/infrastructure/observability"
)

// ReadinessCheck reports whether downstream dependencies are reachable.
type ReadinessCheck func() error

// Router holds all route handlers

type Router struct {
	mux *http.ServeMux

	recommendationHandler *handlers.RecommendationHandler

	protocolHandler *handlers.ProtocolHandler

	cacheMiddleware *middleware.CacheMiddleware
	metrics         *observability.Metrics
	readiness       ReadinessCheck
}

// NewRouter creates a new router

func NewRouter(

	recommendationHandler *handlers.RecommendationHandler,

	protocolHandler *handlers.ProtocolHandler,

	cacheMiddleware *middleware.CacheMiddleware,

	metrics *observability.Metrics,

	readiness ReadinessCheck,

) *Router {

	return &Router{

		mux: http.NewServeMux(),

		recommendationHandler: recommendationHandler,

		protocolHandler: protocolHandler,

		cacheMiddleware: cacheMiddleware,
		metrics:         metrics,
		readiness:       readiness,
	}

}

// SetupRoutes configures all application routes

func (r *Router) SetupRoutes() http.Handler {

	// Health check endpoint

	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {

		w.WriteHeader(http.StatusOK)

		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}

	})

	// Readiness endpoint; fails while dependencies are unreachable

	r.mux.HandleFunc("GET /ready", func(w http.ResponseWriter, req *http.Request) {

		if r.readiness != nil {
			if err := r.readiness(); err != nil {
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
		}

		w.WriteHeader(http.StatusOK)

		if _, err := w.Write([]byte("READY")); err != nil {
			return
		}

	})

	// Recommendation endpoints

	r.mux.HandleFunc("POST /api/recommendations", r.recommendationHandler.CreateRecommendation)

	r.mux.HandleFunc("GET /api/recommendations", r.recommendationHandler.ListRecommendations)

	r.mux.HandleFunc("GET /api/recommendations/flagged", r.recommendationHandler.ListFlagged)

	r.mux.HandleFunc("GET /api/recommendations/{id}", r.recommendationHandler.GetRecommendation)

	// Protocol library endpoints

	r.mux.HandleFunc("GET /api/protocols", r.protocolHandler.ListProtocols)

	r.mux.HandleFunc("GET /api/protocols/search", r.protocolHandler.SearchProtocols)

	r.mux.HandleFunc("GET /api/protocols/{name}", r.protocolHandler.GetProtocol)

	// Apply middleware in reverse order (last middleware wraps first)
	// CORS must be outermost so cached responses also get CORS headers.

	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	// Apply cache middleware if available
	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)

	// Apply HTTP performance optimizations (compression, ETag, cache headers)
	handler = middleware.ResponseOptimization(handler)

	// CORS wraps everything so headers are set even on cache HITs
	handler = middleware.CORSMiddleware(handler)

	return handler
}
