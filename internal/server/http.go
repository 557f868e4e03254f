package server

import (
	"sync"
	"time"

	"resumelens/internal/config"
	"resumelens/internal/engine"
	resumelensErrors "resumelens/internal/errors"
	"resumelens/internal/types"
)

// CreateSessionRequest represents the request body for creating an analysis session
type CreateSessionRequest struct {
	ResumeText     string   `json:"resumeText"`
	JobTitle       string   `json:"jobTitle,omitempty"`
	JobDescription string   `json:"jobDescription,omitempty"`
	Keywords       []string `json:"keywords,omitempty"`
}

// ModifySuggestionRequest represents the request body for modifying a suggestion
type ModifySuggestionRequest struct {
	Text string `json:"text"`
}

// SessionResponse represents the session state returned by the API
type SessionResponse struct {
	SessionID   string                           `json:"sessionId"`
	CreatedAt   time.Time                        `json:"createdAt"`
	WorkingText string                           `json:"workingText"`
	States      map[string]types.SuggestionState `json:"suggestionStates"`
	Analysis    *types.AnalysisResult            `json:"analysis"`
}

// TransitionResponse represents the result of a suggestion lifecycle transition
type TransitionResponse struct {
	SessionID string                `json:"sessionId"`
	State     types.SuggestionState `json:"state"`
}

// ApplyResponse represents the result of applying a suggestion patch
type ApplyResponse struct {
	SessionID   string `json:"sessionId"`
	WorkingText string `json:"workingText"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	// Analysis engine shared by all sessions
	Engine *engine.Engine

	// Session store
	Sessions *SessionStore

	// API Authentication. Guarded by apiKeyMu because keys can be
	// rotated at runtime by the Vault watcher.
	apiKeyMu sync.RWMutex
	APIKeys  map[string]bool

	// API key rotation from Vault
	apiKeyWatcher *APIKeyWatcher

	// Timeout configurations
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Request size limit
	MaxRequestSize int64

	// Rate limiting
	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	// Logger
	Logger *resumelensErrors.Logger
}

// ServerConfig holds configuration for creating a Server instance
type ServerConfig struct {
	Host           string
	Port           string
	Version        string
	APIKeys        []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxRequestSize int64
	RateLimit      *config.RateLimitConfig
	Sessions       config.SessionsConfig
}

// NewServer creates a new Server instance from a ServerConfig struct
func NewServer(appCfg *config.Config, cfg ServerConfig, eng *engine.Engine, logger *resumelensErrors.Logger) *Server {
	// Convert API keys slice to map for O(1) lookup
	apiKeyMap := make(map[string]bool)
	for _, key := range cfg.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	var rateLimiter *RateLimiter
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(
			cfg.RateLimit.RequestsPerMin,
			cfg.RateLimit.BurstCapacity,
			logger,
		)
	}

	return &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        cfg.Version,
		AppConfig:      appCfg,
		Engine:         eng,
		Sessions:       NewSessionStore(cfg.Sessions, logger),
		APIKeys:        apiKeyMap,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxRequestSize: cfg.MaxRequestSize,
		RateLimit:      cfg.RateLimit,
		RateLimiter:    rateLimiter,
		Logger:         logger,
	}
}

// authEnabled reports whether API key authentication is configured
func (s *Server) authEnabled() bool {
	s.apiKeyMu.RLock()
	defer s.apiKeyMu.RUnlock()
	return len(s.APIKeys) > 0
}

// validAPIKey checks an API key against the current key set
func (s *Server) validAPIKey(key string) bool {
	s.apiKeyMu.RLock()
	defer s.apiKeyMu.RUnlock()
	return s.APIKeys[key]
}

// setAPIKeys replaces the API key set. Called by the Vault watcher on rotation.
func (s *Server) setAPIKeys(keys []string) {
	apiKeyMap := make(map[string]bool)
	for _, key := range keys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	s.apiKeyMu.Lock()
	s.APIKeys = apiKeyMap
	s.apiKeyMu.Unlock()
}

// sessionResponse builds the API view of a session
func sessionResponse(sess *engine.Session) SessionResponse {
	return SessionResponse{
		SessionID:   sess.ID(),
		CreatedAt:   sess.CreatedAt(),
		WorkingText: sess.WorkingText(),
		States:      sess.States(),
		Analysis:    sess.Result(),
	}
}
