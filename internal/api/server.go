package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/overlaylabs/arshare/internal/ratelimit"
	"github.com/overlaylabs/arshare/pkg/models"
)

// SetupRoutes configures all HTTP routes
func (h *Handler) SetupRoutes(limiter *ratelimit.Limiter, shareRequestsPerHour int, frontendURL string) *mux.Router {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()

	// Scene creation is rate limited; each share uploads two images.
	limited := api.PathPrefix("").Subrouter()
	limited.Use(RateLimitMiddleware(limiter, shareRequestsPerHour))
	limited.HandleFunc("/share", h.ShareScene).Methods("POST", "OPTIONS")

	// Fetching a shared scene is not rate limited - viewers may retry.
	api.HandleFunc("/ar-experience/{id}", h.GetExperience).Methods("GET")

	// Liveness probes
	api.HandleFunc("/health", h.Health).Methods("GET")
	r.HandleFunc("/health", h.Health).Methods("GET")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{
			Success: false,
			Message: "API endpoint not found",
		})
	})

	r.Use(corsMiddleware(frontendURL))

	return r
}

// corsMiddleware allows the configured frontend origin to call the API
func corsMiddleware(origin string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Set("Access-Control-Allow-Credentials", "true")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
