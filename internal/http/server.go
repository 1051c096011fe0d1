package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

type Server struct {
	http.Server
	store       Store
	reports     ReportRunner
	rateLimiter *rateLimiter

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
// reports may be nil when no mail channel is configured; the manual trigger
// then reports the service as unconfigured.
func NewServer(addr string, store Store, reports ReportRunner) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		store:       store,
		reports:     reports,
		rateLimiter: newRateLimiter(),
	}

	mux.HandleFunc("GET /api/health", s.handleHealth)

	mux.HandleFunc("GET /api/projects", s.withMiddleware(s.handleListProjects))
	mux.HandleFunc("POST /api/projects", s.withMiddleware(s.handleCreateProject))
	mux.HandleFunc("GET /api/projects/{id}", s.withMiddleware(s.handleGetProject))
	mux.HandleFunc("PUT /api/projects/{id}", s.withMiddleware(s.handleUpdateProject))
	mux.HandleFunc("DELETE /api/projects/{id}", s.withMiddleware(s.handleDeleteProject))

	mux.HandleFunc("GET /api/time-entries", s.withMiddleware(s.handleListTimeEntries))
	mux.HandleFunc("POST /api/time-entries", s.withMiddleware(s.handleCreateTimeEntry))
	mux.HandleFunc("GET /api/time-entries/{id}", s.withMiddleware(s.handleGetTimeEntry))
	mux.HandleFunc("PUT /api/time-entries/{id}", s.withMiddleware(s.handleUpdateTimeEntry))
	mux.HandleFunc("DELETE /api/time-entries/{id}", s.withMiddleware(s.handleDeleteTimeEntry))

	mux.HandleFunc("GET /api/mileage-entries", s.withMiddleware(s.handleListMileageEntries))
	mux.HandleFunc("POST /api/mileage-entries", s.withMiddleware(s.handleCreateMileageEntry))
	mux.HandleFunc("GET /api/mileage-entries/{id}", s.withMiddleware(s.handleGetMileageEntry))
	mux.HandleFunc("PUT /api/mileage-entries/{id}", s.withMiddleware(s.handleUpdateMileageEntry))
	mux.HandleFunc("DELETE /api/mileage-entries/{id}", s.withMiddleware(s.handleDeleteMileageEntry))

	mux.HandleFunc("POST /api/test-email", s.withMiddleware(s.handleTestEmail))

	return s
}

// withMiddleware adds security headers, rate limiting, and request logging.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		// Rate limit only writes; reads stay cheap and unthrottled.
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", clientIP)
	}
}

type requestIDKey struct{}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// Shutdown stops the HTTP server and the rate limiter cleanup goroutine.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stopCleanup()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
