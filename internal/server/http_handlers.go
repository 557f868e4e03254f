package server

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log"
	"net/http"

	"resumelens/internal/errors"
)

// healthHandler reports service liveness plus scorer and session state.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"status":  "healthy",
		"service": "resumelens",
		"version": s.Version,
		"scoring": map[string]any{
			"provider": s.AppConfig.Scoring.Provider,
		},
		"sessions": s.Sessions.Stats(),
	}
	if s.apiKeyWatcher != nil {
		response["api_key_watcher"] = s.apiKeyWatcher.Status()
	}

	writeJSONResponse(w, http.StatusOK, response)
}

// statsHandler reports server, session, and rate-limit statistics.
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"service": "resumelens",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
		},
		"sessions": s.Sessions.Stats(),
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{"enabled": false}
	}
	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_ip":            s.RateLimit.ByIP,
			"by_api_key":       s.RateLimit.ByAPIKey,
		}
	}

	writeJSONResponse(w, http.StatusOK, response)
}

// parseJSONRequest decodes the request body into v, translating the
// MaxBytesReader limit error into something the client can act on.
func parseJSONRequest(r *http.Request, v any) error {
	if r.Header.Get("Content-Type") != "application/json" {
		return fmt.Errorf("content-type must be application/json")
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			log.Printf("Failed to close request body: %v", err)
		}
	}()

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if stderrors.As(err, &maxBytesErr) {
			return fmt.Errorf("request body too large (limit is %d bytes)", maxBytesErr.Limit)
		}
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	return nil
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, error, message string, statusCode int) {
	writeJSONResponse(w, statusCode, ErrorResponse{
		Error:   error,
		Message: message,
	})
}

// writeAppError maps an application error to an HTTP status code and writes
// the error response. Validation maps to 400, missing resources to 404,
// lifecycle and patch conflicts to 409, and scorer failures to 502.
func writeAppError(w http.ResponseWriter, logger *errors.Logger, err error) {
	var status int
	var label string

	switch errors.TypeOf(err) {
	case errors.ErrorTypeValidation:
		status = http.StatusBadRequest
		label = "Invalid input"
	case errors.ErrorTypeNotFound:
		status = http.StatusNotFound
		label = "Not found"
	case errors.ErrorTypePatch:
		status = http.StatusConflict
		label = "Patch not applicable"
	case errors.ErrorTypeConflict:
		status = http.StatusConflict
		label = "Conflict"
	case errors.ErrorTypeScorer:
		status = http.StatusBadGateway
		label = "Scoring failed"
	default:
		status = http.StatusInternalServerError
		label = "Internal error"
	}

	if logger != nil && status >= 500 {
		logger.LogError(err, "Request failed", "status", status)
	}

	writeErrorResponse(w, label, err.Error(), status)
}
