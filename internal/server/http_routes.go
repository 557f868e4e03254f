package server

import (
	"net/http"
	"strings"

	"resumelens/internal/observability"
)

// setupRoutes builds the mux. Health and stats are open; everything else
// goes through rate limiting, auth, and the request size cap, in that order.
func (s *Server) setupRoutes(om *observability.ObservabilityManager) *http.ServeMux {
	mux := http.NewServeMux()

	rateLimitHandler := s.createRateLimitMiddleware(om)
	requestLimitHandler := s.requestSizeLimitMiddleware()

	protected := func(h http.HandlerFunc) http.HandlerFunc {
		return rateLimitHandler(s.authMiddleware(requestLimitHandler(h)))
	}

	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/stats", s.statsHandler)

	mux.HandleFunc("POST /analyze", protected(s.createAnalyzeHandler(om)))

	mux.HandleFunc("POST /sessions", protected(s.createSessionCreateHandler(om)))
	mux.HandleFunc("GET /sessions/{id}", protected(s.getSessionHandler))
	mux.HandleFunc("DELETE /sessions/{id}", protected(s.deleteSessionHandler))
	mux.HandleFunc("POST /sessions/{id}/reanalyze", protected(s.createReanalyzeHandler(om)))
	mux.HandleFunc("POST /sessions/{id}/suggestions/{sid}/adopt", protected(s.createTransitionHandler(om, "adopt")))
	mux.HandleFunc("POST /sessions/{id}/suggestions/{sid}/ignore", protected(s.createTransitionHandler(om, "ignore")))
	mux.HandleFunc("POST /sessions/{id}/suggestions/{sid}/modify", protected(s.createTransitionHandler(om, "modify")))
	mux.HandleFunc("POST /sessions/{id}/suggestions/{sid}/apply", protected(s.createApplyHandler(om)))

	return mux
}

// apiKeyFromRequest reads the key from X-API-Key, falling back to an
// Authorization Bearer token.
func apiKeyFromRequest(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return token
	}
	return ""
}

// authMiddleware rejects requests without a valid API key. Auth is off
// entirely when no keys are configured.
func (s *Server) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.authEnabled() {
			next(w, r)
			return
		}

		apiKey := apiKeyFromRequest(r)
		if apiKey == "" {
			s.Logger.Info("Authentication failed: missing API key",
				"endpoint", r.URL.Path,
				"client_ip", r.RemoteAddr)
			writeErrorResponse(w, "Missing API key", "X-API-Key header or Authorization Bearer token required", http.StatusUnauthorized)
			return
		}

		if !s.validAPIKey(apiKey) {
			s.Logger.Info("Authentication failed: invalid API key",
				"endpoint", r.URL.Path,
				"client_ip", r.RemoteAddr,
				"api_key_prefix", maskAPIKey(apiKey))
			writeErrorResponse(w, "Invalid API key", "Unauthorized access", http.StatusUnauthorized)
			return
		}

		s.Logger.Debug("API authentication successful",
			"endpoint", r.URL.Path,
			"client_ip", r.RemoteAddr,
			"api_key_prefix", maskAPIKey(apiKey))

		next(w, r)
	}
}

// requestSizeLimitMiddleware caps request bodies at MaxRequestSize.
func (s *Server) requestSizeLimitMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if s.MaxRequestSize > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, s.MaxRequestSize)
			}
			next(w, r)
		}
	}
}

// maskAPIKey keeps only a short prefix of the key for log lines.
func maskAPIKey(apiKey string) string {
	if len(apiKey) <= 8 {
		return "****"
	}
	return apiKey[:8] + "****"
}
