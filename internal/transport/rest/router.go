package rest

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gsjt/internal/config"
	"gsjt/internal/metrics"
	"gsjt/internal/service"
	"gsjt/internal/transport/rest/handler"
	"gsjt/internal/transport/rest/middleware"
	"gsjt/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	Config         *config.Config
	CatalogService *service.CatalogService
	AssessService  *service.AssessmentService
	AuthService    *service.AuthService
	WSHub          *ws.Hub
	Metrics        *metrics.Metrics
	// Gatherer backs /metrics; nil uses the default registry
	Gatherer prometheus.Gatherer
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()
	cfg := c.Config

	// Initialize handlers
	scenarioHandler := handler.NewScenarioHandler(c.CatalogService)
	candidateHandler := handler.NewCandidateHandler(c.AssessService)
	resultHandler := handler.NewResultHandler(c.AssessService)
	authHandler := handler.NewAuthHandler(c.AuthService)
	wsHandler := ws.NewHandler(c.WSHub, cfg.HTTP.AllowedOrigins)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)
	limit := func(h http.HandlerFunc) http.Handler { return h }
	if cfg.RateLimit.Enabled() {
		limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, cfg.RateLimit.TrustProxy)
		limit = func(h http.HandlerFunc) http.Handler { return limiter.Limit(h) }
	}

	// CORS middleware (apply first)
	r.Use(corsMiddleware(cfg.HTTP))
	r.Use(middleware.Logging(c.Metrics))

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	gatherer := c.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Admin routes first so /results/leaderboard wins over /results/{candidate_id}
	adminRoutes := api.NewRoute().Subrouter()
	adminRoutes.Use(authMW.RequireAdmin)

	adminRoutes.HandleFunc("/results", resultHandler.List).Methods("GET", "OPTIONS")
	adminRoutes.HandleFunc("/results/leaderboard", resultHandler.Leaderboard).Methods("GET", "OPTIONS")
	adminRoutes.HandleFunc("/results/{candidate_id}", resultHandler.Delete).Methods("DELETE", "OPTIONS")
	adminRoutes.HandleFunc("/ws/admin", wsHandler.AdminWS).Methods("GET")

	// Public routes
	api.HandleFunc("/test", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","message":"backend is running"}`))
	}).Methods("GET")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	api.HandleFunc("/scenarios", scenarioHandler.List).Methods("GET", "OPTIONS")
	api.HandleFunc("/scenarios/{id}", scenarioHandler.Get).Methods("GET", "OPTIONS")
	api.Handle("/candidates/{id}/start", limit(candidateHandler.Start)).Methods("POST", "OPTIONS")
	api.Handle("/candidates/{id}/answer", limit(candidateHandler.SaveAnswer)).Methods("POST", "OPTIONS")
	api.Handle("/results/submit", limit(resultHandler.Submit)).Methods("POST", "OPTIONS")
	api.HandleFunc("/results/{candidate_id}", resultHandler.Get).Methods("GET", "OPTIONS")

	api.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"API route not found"}`))
	})

	if spa := spaHandler(cfg.FrontendDist); spa != nil {
		r.PathPrefix("/").Handler(spa)
	}

	return r
}

// spaHandler serves the built frontend, falling back to index.html for
// client-side routes. It returns nil when dir has no index.html.
func spaHandler(dir string) http.Handler {
	if dir == "" {
		return nil
	}
	index := filepath.Join(dir, "index.html")
	if _, err := os.Stat(index); err != nil {
		return nil
	}
	files := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(dir, filepath.Clean("/"+r.URL.Path))
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			files.ServeHTTP(w, r)
			return
		}
		http.ServeFile(w, r, index)
	})
}

func corsMiddleware(cfg config.HTTPConfig) mux.MiddlewareFunc {
	allowedOrigins := cfg.AllowedOrigins
	if allowedOrigins == "" {
		allowedOrigins = "*"
	}
	allowedMethods := cfg.AllowedMethods
	if allowedMethods == "" {
		allowedMethods = "GET, POST, PUT, DELETE, OPTIONS"
	}
	allowedHeaders := cfg.AllowedHeaders
	if allowedHeaders == "" {
		allowedHeaders = "Content-Type, Authorization"
	}

	origins := strings.Split(allowedOrigins, ",")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", matchOrigin(origins, r.Header.Get("Origin")))
			w.Header().Set("Access-Control-Allow-Methods", allowedMethods)
			w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// matchOrigin echoes origin when it is on the list. A single entry is
// returned as is, which covers "*".
func matchOrigin(origins []string, origin string) string {
	if len(origins) == 1 {
		return strings.TrimSpace(origins[0])
	}
	for _, o := range origins {
		if strings.TrimSpace(o) == origin {
			return origin
		}
	}
	return strings.TrimSpace(origins[0])
}
