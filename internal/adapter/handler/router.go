package handler

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires the REST endpoints. An empty authToken disables auth.
func NewRouter(h *RestHandler, authToken string) *mux.Router {
	router := mux.NewRouter()

	// Health check
	router.HandleFunc("/api/v1/health", h.Health).Methods("GET")

	// Trust score endpoints
	router.HandleFunc("/api/v1/trustscore", h.GetTrustScore).Methods("GET")
	router.HandleFunc("/api/v1/trustscore", h.PostTrustScore).Methods("POST")
	router.HandleFunc("/api/v1/trustscore/history", h.GetHistory).Methods("GET")
	router.HandleFunc("/api/v1/trustscore/history/latest", h.GetLatestScore).Methods("GET")

	// Metrics endpoint (requires authentication)
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Middleware
	router.Use(handlers.RecoveryHandler(handlers.PrintRecoveryStack(true)))
	router.Use(loggingMiddleware)
	router.Use(authMiddleware(authToken))

	if authToken == "" {
		log.Println("⚠️  Warning: REST_API_AUTH_TOKEN not set - auth disabled")
	}

	return router
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("→ %s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
		log.Printf("← %s %s (%v)", r.Method, r.URL.Path, time.Since(start))
	})
}

func authMiddleware(expectedToken string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Skip auth for health check and development mode
			if r.URL.Path == "/api/v1/health" || expectedToken == "" {
				next.ServeHTTP(w, r)
				return
			}

			if r.Header.Get("Authorization") != "Bearer "+expectedToken {
				writeError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
