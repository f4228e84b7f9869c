// Package v1 provides the REST API handlers for the federated resolver.
package v1

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/bibliofed/bibliofed/internal/service"
	"github.com/bibliofed/bibliofed/pkg/ident"
	"github.com/bibliofed/bibliofed/pkg/logger"
	"github.com/bibliofed/bibliofed/pkg/versions"
)

// unaryTimeout bounds the non-streaming routes. The search route is exempt:
// its response lives as long as the slowest backend stream.
const unaryTimeout = 15 * time.Second

// Routes defines the routes for the resolver API with dependency injection
type Routes struct {
	service service.ResolverService
}

// NewRoutes creates a new Routes instance with the provided service
func NewRoutes(svc service.ResolverService) *Routes {
	return &Routes{
		service: svc,
	}
}

// Router creates a new router for the resolver API
func Router(svc service.ResolverService) http.Handler {
	routes := NewRoutes(svc)

	r := chi.NewRouter()

	r.With(middleware.Timeout(unaryTimeout)).Get("/libraries", routes.getLibraries)
	r.Get("/search", routes.search)

	return r
}

// getLibraries handles GET /api/v1/libraries
//
// @Summary		List all libraries
// @Description	List every library across all registered catalog backends
// @Tags			resolver
// @Produce		json
// @Success		200	{object}	LibrariesResponse
// @Failure		502	{object}	ErrorResponse
// @Router			/api/v1/libraries [get]
func (rr *Routes) getLibraries(w http.ResponseWriter, r *http.Request) {
	libs, err := rr.service.GetLibraries(r.Context())
	if err != nil {
		logger.Errorf("Failed to list libraries: %v", err)
		var adapterErr *service.AdapterError
		if errors.As(err, &adapterErr) {
			rr.writeErrorResponse(w, "Backend listing failed: "+adapterErr.Error(), http.StatusBadGateway)
			return
		}
		rr.writeErrorResponse(w, "Failed to list libraries", http.StatusInternalServerError)
		return
	}

	resp := LibrariesResponse{Libraries: make([]Library, 0, len(libs))}
	for _, lib := range libs {
		resp.Libraries = append(resp.Libraries, convertLibrary(lib))
	}

	rr.writeJSONResponse(w, resp)
}

// search handles GET /api/v1/search
//
// @Summary		Federated search
// @Description	Stream search matches from the backends owning the scoping ids, as NDJSON with one entity per line
// @Tags			resolver
// @Produce		json
// @Param			term		query	string	true	"Search term"
// @Param			library_id	query	[]string	false	"Namespaced library ids restricting the search"
// @Success		200	{object}	SearchResponse
// @Failure		400	{object}	ErrorResponse
// @Router			/api/v1/search [get]
func (rr *Routes) search(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("term")
	if term == "" {
		rr.writeErrorResponse(w, "Missing required query parameter: term", http.StatusBadRequest)
		return
	}
	libraryIDs := r.URL.Query()["library_id"]

	stream, err := rr.service.Search(r.Context(), term, libraryIDs)
	if err != nil {
		logger.Errorf("Failed to start search: %v", err)
		if errors.Is(err, ident.ErrMalformedIdentifier) {
			rr.writeErrorResponse(w, "Invalid library id: "+err.Error(), http.StatusBadRequest)
			return
		}
		rr.writeErrorResponse(w, "Failed to start search", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)

	flusher, canFlush := w.(http.Flusher)
	enc := json.NewEncoder(w)

	for res := range stream {
		if res.Err != nil {
			// The status line is already out; the only honest way to
			// surface a mid-stream failure is to sever the connection
			// so the client cannot mistake a truncated stream for a
			// complete one.
			logger.Errorf("Search stream failed: %v", res.Err)
			panic(http.ErrAbortHandler)
		}

		envelope := SearchResponse{Entities: []SearchEntity{convertEntity(res.Entity)}}
		if err := enc.Encode(envelope); err != nil {
			// Client went away; the request context cancellation stops
			// the merge.
			logger.Debugf("Search stream write failed: %v", err)
			return
		}
		if canFlush {
			flusher.Flush()
		}
	}
}

// SystemRouter creates a router for the health, readiness, and version
// endpoints
func SystemRouter(svc service.ResolverService) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", healthHandler)
	r.Get("/readiness", readinessHandler(svc))
	r.Get("/version", versionHandler)

	return r
}

// healthHandler handles health check requests
//
// @Summary		Health check
// @Description	Check if the resolver API is healthy
// @Tags			system
// @Produce		json
// @Success		200	{object}	map[string]string
// @Router			/health [get]
func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

// readinessHandler handles readiness check requests
//
// @Summary		Readiness check
// @Description	Check if the resolver has backends registered and can serve queries
// @Tags			system
// @Produce		json
// @Success		200	{object}	map[string]string
// @Failure		503	{object}	ErrorResponse
// @Router			/readiness [get]
func readinessHandler(svc service.ResolverService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.CheckReadiness(r.Context()); err != nil {
			errorResp := ErrorResponse{
				Error: "Resolver not ready: " + err.Error(),
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			if encodeErr := json.NewEncoder(w).Encode(errorResp); encodeErr != nil {
				logger.Errorf("Failed to encode readiness error response: %v", encodeErr)
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	}
}

// versionHandler handles version information requests
//
// @Summary		Version information
// @Description	Get version information about the resolver API
// @Tags			system
// @Produce		json
// @Success		200	{object}	map[string]string
// @Router			/version [get]
func versionHandler(w http.ResponseWriter, _ *http.Request) {
	info := versions.GetVersionInfo()

	response := map[string]string{
		"version":    info.Version,
		"commit":     info.Commit,
		"build_date": info.BuildDate,
		"go_version": info.GoVersion,
		"platform":   info.Platform,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Errorf("Failed to encode version info: %v", err)
	}
}

// writeJSONResponse writes a JSON response with the given data
func (*Routes) writeJSONResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Errorf("Failed to encode JSON response: %v", err)
	}
}

// writeErrorResponse writes a standardized error response
func (*Routes) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	errorResp := ErrorResponse{
		Error: message,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(errorResp); err != nil {
		logger.Errorf("Failed to encode error response: %v", err)
	}
}
