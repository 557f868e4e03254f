package scorer

import (
	"resumelens/internal/config"
	"resumelens/internal/errors"

	"github.com/sony/gobreaker/v2"
	"google.golang.org/genai"
)

// ScorerCircuitBreaker guards remote scoring calls. When the upstream model
// keeps failing the breaker opens and calls fail fast instead of burning
// retries against a dead endpoint. A nil breaker passes calls straight
// through, so callers never need to check whether breaking is enabled.
type ScorerCircuitBreaker struct {
	cb *gobreaker.CircuitBreaker[*genai.GenerateContentResponse]
}

// NewScorerCircuitBreaker builds a breaker from configuration, or returns
// nil when disabled.
func NewScorerCircuitBreaker(cfg config.CircuitBreakerConfig, logger *errors.Logger) *ScorerCircuitBreaker {
	if !cfg.Enabled {
		return nil
	}

	settings := gobreaker.Settings{
		Name:        "scorer-gemini",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
				"max_requests", cfg.MaxRequests,
				"failure_threshold", cfg.FailureThreshold)
		},
	}

	return &ScorerCircuitBreaker{
		cb: gobreaker.NewCircuitBreaker[*genai.GenerateContentResponse](settings),
	}
}

// Execute runs fn under the breaker, or directly when the breaker is nil.
func (cb *ScorerCircuitBreaker) Execute(fn func() (*genai.GenerateContentResponse, error)) (*genai.GenerateContentResponse, error) {
	if cb == nil || cb.cb == nil {
		return fn()
	}
	return cb.cb.Execute(fn)
}

// GetStats reports the breaker's name, state, and counters.
func (cb *ScorerCircuitBreaker) GetStats() map[string]any {
	if cb == nil || cb.cb == nil {
		return map[string]any{"enabled": false}
	}
	return map[string]any{
		"enabled": true,
		"name":    cb.cb.Name(),
		"state":   cb.cb.State().String(),
		"counts":  cb.cb.Counts(),
	}
}

// IsHealthy reports whether calls are flowing (breaker closed or absent).
func (cb *ScorerCircuitBreaker) IsHealthy() bool {
	return cb == nil || cb.cb == nil || cb.cb.State() == gobreaker.StateClosed
}
