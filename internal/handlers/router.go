// File: internal/handlers/router.go
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iyunix/go-docchat/internal/middleware"
	"github.com/iyunix/go-docchat/internal/ratelimit"
)

// Pinger reports whether a dependency is reachable.
type Pinger func(ctx context.Context) error

// RouterDeps collects what NewRouter wires together. Limiter and Health
// may be nil; an empty AllowedOrigins admits no cross-origin callers.
type RouterDeps struct {
	Conversations  *ConversationHandler
	Limiter        *ratelimit.MemoryRateLimiter
	Health         Pinger
	Logger         Logger
	AllowedOrigins []string
}

// NewRouter returns the API wrapped in CORS, which has to sit outside the
// mux so preflight requests are answered before route matching.
func NewRouter(deps RouterDeps) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RecoverPanic(deps.Logger))
	r.Use(middleware.LoggingMiddleware(deps.Logger))

	r.HandleFunc("/health", healthHandler(deps.Health)).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	c := deps.Conversations
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/conversations", c.ListConversations).Methods("GET")
	jsonOnly := middleware.RequireContentType("application/json")
	api.Handle("/conversations/new", jsonOnly(http.HandlerFunc(c.NewConversation))).Methods("POST")
	api.HandleFunc("/conversations/{id:[0-9]+}", c.SelectConversation).Methods("GET")
	api.HandleFunc("/conversations/{id:[0-9]+}", c.DeleteConversation).Methods("DELETE")
	api.HandleFunc("/conversations/{id:[0-9]+}/export", c.ExportConversation).Methods("GET")
	api.Handle("/copy", jsonOnly(http.HandlerFunc(c.Copy))).Methods("POST")
	api.HandleFunc("/state", c.GetState).Methods("GET")
	api.Handle("/log", jsonOnly(http.HandlerFunc(NewClientLogHandler(deps.Logger).LogClientEvent))).Methods("POST")

	// Loading and asking call the completion backend, so they are limited.
	limited := func(h http.HandlerFunc) http.Handler { return h }
	if deps.Limiter != nil {
		mw := middleware.RateLimitMiddleware(deps.Limiter, "completion", deps.Logger)
		limited = func(h http.HandlerFunc) http.Handler { return mw(h) }
	}
	api.Handle("/conversations", limited(c.LoadDocument)).Methods("POST")
	api.Handle("/ask", jsonOnly(limited(c.Ask))).Methods("POST")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, "Not found", http.StatusNotFound)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	})
	return middleware.CORS(deps.AllowedOrigins)(r)
}

func healthHandler(ping Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "database": "down"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
