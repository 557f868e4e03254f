package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
//
// API key precedence, highest first: Vault (when enabled), config file,
// environment variables (RESUMELENS_SCORING_GEMINI_APIKEY etc.), defaults.
type Config struct {
	Scoring       ScoringConfig       `mapstructure:"scoring"`
	Server        ServerConfig        `mapstructure:"server"`
	App           AppConfig           `mapstructure:"app"`
	Vault         VaultConfig         `mapstructure:"vault"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// ScoringConfig holds analysis engine configuration
type ScoringConfig struct {
	// Provider selects the scorer backend: "rules" (deterministic, default)
	// or "gemini" (remote model-assisted scoring).
	Provider string `mapstructure:"provider"`

	Weights        WeightsConfig `mapstructure:"weights"`
	MaxSuggestions int           `mapstructure:"maxSuggestions"`
	ScorerTimeout  time.Duration `mapstructure:"scorerTimeout"`

	// PolicyFile points at an optional scoring policy file that can be
	// hot-reloaded at runtime (see PolicyWatcher).
	PolicyFile string `mapstructure:"policyFile"`

	Gemini GeminiScorerConfig `mapstructure:"gemini"`
}

// WeightsConfig holds the per-dimension weights used to compute the overall
// score. The four weights must sum to 1.0.
type WeightsConfig struct {
	Keyword      float64 `mapstructure:"keyword"`
	Grammar      float64 `mapstructure:"grammar"`
	Format       float64 `mapstructure:"format"`
	Quantitative float64 `mapstructure:"quantitative"`
}

// GeminiScorerConfig holds configuration for the remote scorer backend
type GeminiScorerConfig struct {
	Model          string               `mapstructure:"model"`
	APIKey         string               `mapstructure:"apiKey"`
	Timeout        time.Duration        `mapstructure:"timeout"`
	MaxRetries     int                  `mapstructure:"maxRetries"`
	Temperature    float32              `mapstructure:"temperature"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuitBreaker"`
}

// CircuitBreakerConfig represents circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`          // Whether circuit breaker is enabled
	MaxRequests      uint32        `mapstructure:"maxRequests"`      // Max requests allowed when half-open
	Interval         time.Duration `mapstructure:"interval"`         // Interval to clear counts
	Timeout          time.Duration `mapstructure:"timeout"`          // Timeout for half-open to open
	MinRequests      uint32        `mapstructure:"minRequests"`      // Minimum requests before tripping
	FailureThreshold float64       `mapstructure:"failureThreshold"` // Failure ratio threshold (0.0-1.0)
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout  time.Duration `mapstructure:"idleTimeout"`

	// API Authentication
	APIKeys []string `mapstructure:"apiKeys"` // Valid API keys for authentication

	// Rate Limiting Configuration
	RateLimit RateLimitConfig `mapstructure:"rateLimit"`

	// Session store configuration
	Sessions SessionsConfig `mapstructure:"sessions"`
}

// SessionsConfig holds in-memory session store configuration
type SessionsConfig struct {
	TTL             time.Duration `mapstructure:"ttl"`             // Idle time before a session is evicted
	CleanupInterval time.Duration `mapstructure:"cleanupInterval"` // How often expired sessions are swept
	MaxSessions     int           `mapstructure:"maxSessions"`     // Hard cap on concurrent sessions (0 = unlimited)
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled        bool `mapstructure:"enabled"`        // Enable/disable rate limiting
	RequestsPerMin int  `mapstructure:"requestsPerMin"` // Requests allowed per minute
	BurstCapacity  int  `mapstructure:"burstCapacity"`  // Burst capacity for token bucket
	ByIP           bool `mapstructure:"byIP"`           // Enable per-IP rate limiting
	ByAPIKey       bool `mapstructure:"byAPIKey"`       // Enable per-API-key rate limiting
}

// AppConfig holds general application configuration
type AppConfig struct {
	LogLevel         string   `mapstructure:"logLevel"`
	DefaultFormat    string   `mapstructure:"defaultFormat"`
	SupportedFormats []string `mapstructure:"supportedFormats"`
	MaxFileSize      int64    `mapstructure:"maxFileSize"`
	MaxResumeLength  int      `mapstructure:"maxResumeLength"` // Max resume text length in bytes
}

// ObservabilityConfig holds observability configuration
type ObservabilityConfig struct {
	Enabled         bool              `mapstructure:"enabled"`
	ServiceName     string            `mapstructure:"serviceName"`
	ServiceVersion  string            `mapstructure:"serviceVersion"`
	ServiceInstance string            `mapstructure:"serviceInstance"`
	ConsoleOutput   bool              `mapstructure:"consoleOutput"`
	SampleRate      float64           `mapstructure:"sampleRate"`
	Tracing         TracingConfig     `mapstructure:"tracing"`
	Metrics         MetricsConfig     `mapstructure:"metrics"`
	Console         ConsoleConfig     `mapstructure:"console"`
	Prometheus      PrometheusConfig  `mapstructure:"prometheus"`
	OTLP            OTLPConfig        `mapstructure:"otlp"`
	HealthCheck     HealthCheckConfig `mapstructure:"healthCheck"`
}

// TracingConfig holds tracing configuration
type TracingConfig struct {
	Enabled    bool    `mapstructure:"enabled"`
	SampleRate float64 `mapstructure:"sampleRate"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	CollectionInterval time.Duration `mapstructure:"collectionInterval"`
}

// ConsoleConfig holds console output configuration
type ConsoleConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	PrettyPrint bool `mapstructure:"prettyPrint"`
}

// PrometheusConfig holds Prometheus configuration
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Port     string `mapstructure:"port"`
}

// OTLPConfig holds OTLP exporter configuration
type OTLPConfig struct {
	Enabled  bool              `mapstructure:"enabled"`
	Endpoint string            `mapstructure:"endpoint"`
	Insecure bool              `mapstructure:"insecure"`
	Headers  map[string]string `mapstructure:"headers"`
}

// HealthCheckConfig holds health check configuration
type HealthCheckConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// LoadConfig resolves configuration from defaults, an optional YAML config
// file (/etc/resumelens, $HOME/.resumelens, or the working directory), and
// RESUMELENS_* environment variables, then validates the result.
func LoadConfig() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("RESUMELENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/resumelens/")
	v.AddConfigPath("$HOME/.resumelens")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyFallbacks()
	config.logSummary(v.ConfigFileUsed())

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &config, nil
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Scoring
	v.SetDefault("scoring.provider", "rules")
	v.SetDefault("scoring.weights.keyword", 0.4)
	v.SetDefault("scoring.weights.grammar", 0.2)
	v.SetDefault("scoring.weights.format", 0.2)
	v.SetDefault("scoring.weights.quantitative", 0.2)
	v.SetDefault("scoring.maxSuggestions", 10)
	v.SetDefault("scoring.scorerTimeout", 30*time.Second)
	v.SetDefault("scoring.policyFile", "")

	// Remote scorer
	v.SetDefault("scoring.gemini.model", "gemini-2.0-flash")
	v.SetDefault("scoring.gemini.apiKey", "")
	v.SetDefault("scoring.gemini.timeout", 60*time.Second)
	v.SetDefault("scoring.gemini.maxRetries", 2)
	v.SetDefault("scoring.gemini.temperature", 0.1)
	v.SetDefault("scoring.gemini.circuitBreaker.enabled", true)
	v.SetDefault("scoring.gemini.circuitBreaker.maxRequests", 3)
	v.SetDefault("scoring.gemini.circuitBreaker.interval", 60*time.Second)
	v.SetDefault("scoring.gemini.circuitBreaker.timeout", 60*time.Second)
	v.SetDefault("scoring.gemini.circuitBreaker.minRequests", 3)
	v.SetDefault("scoring.gemini.circuitBreaker.failureThreshold", 0.6)

	// Server
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", 30*time.Second)
	v.SetDefault("server.writeTimeout", 30*time.Second)
	v.SetDefault("server.idleTimeout", 120*time.Second)
	v.SetDefault("server.apiKeys", []string{})
	v.SetDefault("server.rateLimit.enabled", false)
	v.SetDefault("server.rateLimit.requestsPerMin", 60)
	v.SetDefault("server.rateLimit.burstCapacity", 10)
	v.SetDefault("server.rateLimit.byIP", true)
	v.SetDefault("server.rateLimit.byAPIKey", false)
	v.SetDefault("server.sessions.ttl", 30*time.Minute)
	v.SetDefault("server.sessions.cleanupInterval", 5*time.Minute)
	v.SetDefault("server.sessions.maxSessions", 0)

	// App
	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.defaultFormat", "json")
	v.SetDefault("app.supportedFormats", []string{"json", "text", "markdown"})
	v.SetDefault("app.maxFileSize", 1024*1024) // 1MB
	v.SetDefault("app.maxResumeLength", 512*1024)

	// Vault
	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.tokenFile", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.pollInterval", "1m")
	v.SetDefault("vault.secrets.apiKeys", "")
	v.SetDefault("vault.secrets.geminiKey", "")

	// Observability
	v.SetDefault("observability.enabled", true)
	v.SetDefault("observability.serviceName", "resumelens")
	v.SetDefault("observability.serviceVersion", "")  // falls back to the app version
	v.SetDefault("observability.serviceInstance", "") // derived from hostname when empty
	v.SetDefault("observability.consoleOutput", false)
	v.SetDefault("observability.sampleRate", 1.0)
	v.SetDefault("observability.tracing.enabled", true)
	v.SetDefault("observability.tracing.sampleRate", 1.0)
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.collectionInterval", 15*time.Second)
	v.SetDefault("observability.console.enabled", false)
	v.SetDefault("observability.console.prettyPrint", true)
	v.SetDefault("observability.prometheus.enabled", true)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.prometheus.port", "9090")
	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "http://localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
	v.SetDefault("observability.otlp.headers", map[string]string{})
	v.SetDefault("observability.healthCheck.timeout", 15*time.Second)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Scoring.Provider {
	case "rules":
		// No credentials needed for the deterministic backend
	case "gemini":
		if c.Scoring.Gemini.APIKey == "" {
			return fmt.Errorf("gemini API key is required for the gemini scorer (set RESUMELENS_SCORING_GEMINI_APIKEY environment variable)")
		}
		if c.Scoring.Gemini.Timeout <= 0 {
			return fmt.Errorf("gemini scorer timeout must be positive")
		}
	default:
		return fmt.Errorf("invalid scoring provider: %s (must be 'rules' or 'gemini')", c.Scoring.Provider)
	}

	if err := c.Scoring.Weights.Validate(); err != nil {
		return err
	}

	if c.Scoring.MaxSuggestions <= 0 {
		return fmt.Errorf("scoring.maxSuggestions must be positive")
	}

	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	if c.Server.Sessions.TTL <= 0 {
		return fmt.Errorf("server.sessions.ttl must be positive")
	}

	validFormats := make(map[string]bool)
	for _, format := range c.App.SupportedFormats {
		validFormats[format] = true
	}
	if !validFormats[c.App.DefaultFormat] {
		return fmt.Errorf("invalid default format: %s", c.App.DefaultFormat)
	}

	return nil
}

// Validate checks the weights are individually sane and sum to 1.0
func (w WeightsConfig) Validate() error {
	for name, value := range map[string]float64{
		"keyword":      w.Keyword,
		"grammar":      w.Grammar,
		"format":       w.Format,
		"quantitative": w.Quantitative,
	} {
		if value < 0 || value > 1 {
			return fmt.Errorf("scoring weight %s must be in [0,1], got %v", name, value)
		}
	}

	sum := w.Keyword + w.Grammar + w.Format + w.Quantitative
	if sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("scoring weights must sum to 1.0, got %v", sum)
	}
	return nil
}

// applyFallbacks fills values viper cannot express: comma-separated env
// lists, the legacy GEMINI_API_KEY variable, and derived defaults.
func (c *Config) applyFallbacks() {
	if len(c.Server.APIKeys) == 0 {
		if apiKeysEnv := os.Getenv("RESUMELENS_SERVER_APIKEYS"); apiKeysEnv != "" {
			for _, key := range strings.Split(apiKeysEnv, ",") {
				if key = strings.TrimSpace(key); key != "" {
					c.Server.APIKeys = append(c.Server.APIKeys, key)
				}
			}
		}
	}

	if c.Scoring.Gemini.APIKey == "" {
		c.Scoring.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")
	}

	if c.Observability.ServiceInstance == "" {
		if hostname, err := os.Hostname(); err == nil {
			c.Observability.ServiceInstance = fmt.Sprintf("%s-%s", c.Observability.ServiceName, hostname)
		} else {
			c.Observability.ServiceInstance = fmt.Sprintf("%s-1", c.Observability.ServiceName)
		}
	}

	if c.App.LogLevel == "debug" && !c.Observability.ConsoleOutput {
		c.Observability.ConsoleOutput = true
	}
}

// logSummary prints the resolved configuration with secrets masked. This
// runs before the structured logger exists, so it uses the standard logger.
func (c *Config) logSummary(configFileUsed string) {
	if configFileUsed != "" {
		log.Printf("[CONFIG] Config file: %s", configFileUsed)
	} else {
		log.Println("[CONFIG] Config file: none (defaults and environment only)")
	}

	log.Printf("[CONFIG] Scoring provider: %s", c.Scoring.Provider)
	log.Printf("[CONFIG] Scoring weights: keyword=%.2f grammar=%.2f format=%.2f quantitative=%.2f",
		c.Scoring.Weights.Keyword, c.Scoring.Weights.Grammar, c.Scoring.Weights.Format, c.Scoring.Weights.Quantitative)
	log.Printf("[CONFIG] Max suggestions: %d", c.Scoring.MaxSuggestions)
	if c.Scoring.Provider == "gemini" {
		log.Printf("[CONFIG] Gemini model: %s", c.Scoring.Gemini.Model)
		if c.Scoring.Gemini.APIKey != "" {
			log.Println("[CONFIG] Gemini API key: ***CONFIGURED***")
		} else {
			log.Println("[CONFIG] Gemini API key: ***NOT SET***")
		}
	}
	log.Printf("[CONFIG] Server address: %s:%s", c.Server.Host, c.Server.Port)
	log.Printf("[CONFIG] Log level: %s", c.App.LogLevel)
	log.Printf("[CONFIG] Vault enabled: %t", c.Vault.Enabled)
	log.Printf("[CONFIG] Observability enabled: %t", c.Observability.Enabled)
}
