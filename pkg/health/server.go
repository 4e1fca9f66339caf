package health

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/schedpay/relayer/pkg/executor"
	"github.com/schedpay/relayer/pkg/supervisor"
)

// Server represents a health check HTTP server
type Server struct {
	port          string
	sup           *supervisor.Supervisor
	metricsAPIKey string
}

// NewServer creates a new health check server
func NewServer(port string, sup *supervisor.Supervisor) *Server {
	return &Server{
		port:          port,
		sup:           sup,
		metricsAPIKey: os.Getenv("METRICS_API_KEY"),
	}
}

// metricsAuthMiddleware is a middleware that checks for a valid API key
func (s *Server) metricsAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip auth if no API key is configured
		if s.metricsAPIKey == "" {
			next.ServeHTTP(w, r)
			return
		}

		// Get API key from Authorization header
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Missing Authorization header", http.StatusUnauthorized)
			return
		}

		// Check if the header has the correct format
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "Invalid Authorization header format", http.StatusUnauthorized)
			return
		}

		// Validate API key
		if parts[1] != s.metricsAPIKey {
			http.Error(w, "Invalid API key", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Start starts the health check server
func (s *Server) Start() {
	// Health check endpoint
	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Readiness check: the gateway must be up and the liveness probe recent
	http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if s.sup.Handle() == nil || !s.sup.Healthy() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("Gateway not connected"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("Ready"))
	})

	// Relay status endpoint
	http.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		status := map[string]interface{}{
			"active_loops": executor.ActiveLoops(),
			"reset_count":  s.sup.ResetCount(),
			"healthy":      s.sup.Healthy(),
		}

		if handle := s.sup.Handle(); handle != nil {
			conn := handle.Resolve()
			status["relay_address"] = conn.RelayAddress().Hex()
			status["registry_address"] = conn.RegistryAddress().Hex()

			if blockNumber, err := conn.LatestBlockNumber(r.Context()); err == nil {
				status["latest_block"] = blockNumber
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(status); err != nil {
			log.Printf("Error encoding status JSON: %v", err)
		}
	})

	// Expose Prometheus metrics with API key authentication
	http.Handle("/metrics", s.metricsAuthMiddleware(promhttp.Handler()))

	log.Printf("Starting health and metrics server on port %s", s.port)
	if err := http.ListenAndServe(":"+s.port, nil); err != nil {
		log.Printf("Health server error: %v", err)
	}
}
