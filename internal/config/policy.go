package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"resumelens/internal/errors"
)

// Policy holds the runtime-tunable scoring knobs. It is loaded from the
// optional policy file and can be hot-reloaded without a restart; everything
// not set in the file falls back to the static configuration.
type Policy struct {
	Weights        WeightsConfig       `mapstructure:"weights"`
	MaxSuggestions int                 `mapstructure:"maxSuggestions"`
	StopWords      []string            `mapstructure:"stopWords"`      // Extra stop words for keyword extraction
	ImpactWords    []string            `mapstructure:"impactWords"`    // Extra impact verbs for achievement detection
	KeywordWeights map[string]float64  `mapstructure:"keywordWeights"` // Per-keyword importance overrides (0.0-1.0)
	SectionAliases map[string][]string `mapstructure:"sectionAliases"` // Extra heading aliases per canonical section
}

// DefaultPolicy returns a policy derived from the static scoring configuration.
func DefaultPolicy(cfg ScoringConfig) *Policy {
	return &Policy{
		Weights:        cfg.Weights,
		MaxSuggestions: cfg.MaxSuggestions,
	}
}

// LoadPolicyFile reads and validates a scoring policy file (YAML).
func LoadPolicyFile(path string, base ScoringConfig) (*Policy, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Start from the static configuration so a partial policy file works
	v.SetDefault("weights.keyword", base.Weights.Keyword)
	v.SetDefault("weights.grammar", base.Weights.Grammar)
	v.SetDefault("weights.format", base.Weights.Format)
	v.SetDefault("weights.quantitative", base.Weights.Quantitative)
	v.SetDefault("maxSuggestions", base.MaxSuggestions)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("failed to read policy file %s", path), err)
	}

	var policy Policy
	if err := v.Unmarshal(&policy); err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("failed to parse policy file %s", path), err)
	}

	if err := policy.Validate(); err != nil {
		return nil, err
	}

	return &policy, nil
}

// Validate checks the policy values are usable.
func (p *Policy) Validate() error {
	if err := p.Weights.Validate(); err != nil {
		return errors.NewConfigError(errors.ErrCodeInvalidConfig, "invalid policy weights", err)
	}
	if p.MaxSuggestions <= 0 {
		return errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("policy maxSuggestions must be positive, got %d", p.MaxSuggestions), nil)
	}
	for keyword, weight := range p.KeywordWeights {
		if weight < 0 || weight > 1 {
			return errors.NewConfigError(errors.ErrCodeInvalidConfig,
				fmt.Sprintf("policy keyword weight for %q must be in [0,1], got %v", keyword, weight), nil)
		}
	}
	return nil
}

// PolicyWatcher watches the scoring policy file for changes and delivers
// reloaded policies to a callback. Invalid policy files are logged and
// skipped; the previous policy stays in effect.
type PolicyWatcher struct {
	mu sync.RWMutex

	policyFile string
	base       ScoringConfig

	lastModTime time.Time

	fsWatcher     *fsnotify.Watcher
	debounceDelay time.Duration
	debounceTimer *time.Timer

	stopChan   chan struct{}
	reloadChan chan struct{}

	onReload func(*Policy)
	logger   *errors.Logger

	running bool
}

// NewPolicyWatcher creates a watcher for the given policy file. The callback
// runs on the watcher goroutine with each successfully reloaded policy.
func NewPolicyWatcher(policyFile string, base ScoringConfig, onReload func(*Policy), logger *errors.Logger) *PolicyWatcher {
	return &PolicyWatcher{
		policyFile:    policyFile,
		base:          base,
		debounceDelay: time.Second,
		stopChan:      make(chan struct{}),
		reloadChan:    make(chan struct{}, 1), // Buffered to prevent blocking
		onReload:      onReload,
		logger:        logger,
	}
}

// Start begins watching the policy file for changes
func (pw *PolicyWatcher) Start() error {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	if pw.running {
		return fmt.Errorf("policy watcher is already running")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	pw.fsWatcher = watcher

	if stat, err := os.Stat(pw.policyFile); err == nil {
		pw.lastModTime = stat.ModTime()
	}

	if err := pw.addFileToWatcher(); err != nil {
		if closeErr := watcher.Close(); closeErr != nil && pw.logger != nil {
			pw.logger.LogError(closeErr, "Failed to close file watcher during cleanup")
		}
		return err
	}

	pw.running = true
	go pw.watchLoop()

	if pw.logger != nil {
		pw.logger.Info("Scoring policy watcher started",
			"file", pw.policyFile,
			"debounce_delay", pw.debounceDelay)
	}
	return nil
}

// Stop stops the policy file watcher
func (pw *PolicyWatcher) Stop() error {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	if !pw.running {
		return nil
	}

	close(pw.stopChan)

	if pw.debounceTimer != nil {
		pw.debounceTimer.Stop()
	}

	if pw.fsWatcher != nil {
		if err := pw.fsWatcher.Close(); err != nil {
			if pw.logger != nil {
				pw.logger.LogError(err, "Failed to close file system watcher")
			}
			return err
		}
	}

	pw.running = false

	if pw.logger != nil {
		pw.logger.Info("Scoring policy watcher stopped")
	}
	return nil
}

// addFileToWatcher adds the policy file and its directory to the watcher.
// Watching the directory catches atomic writes (rename operations).
func (pw *PolicyWatcher) addFileToWatcher() error {
	if err := pw.fsWatcher.Add(pw.policyFile); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to watch policy file %s: %w", pw.policyFile, err)
		}
	}

	dir := filepath.Dir(pw.policyFile)
	if err := pw.fsWatcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	return nil
}

// watchLoop is the main event loop for file watching
func (pw *PolicyWatcher) watchLoop() {
	for {
		select {
		case event, ok := <-pw.fsWatcher.Events:
			if !ok {
				return
			}

			if pw.shouldProcessEvent(event) {
				pw.scheduleReload()
			}

		case err, ok := <-pw.fsWatcher.Errors:
			if !ok {
				return
			}
			if pw.logger != nil {
				pw.logger.LogError(err, "Policy file watcher error")
			}

		case <-pw.reloadChan:
			// Debounced reload trigger
			if pw.hasFileChanged() {
				pw.reload()
			}

		case <-pw.stopChan:
			return
		}
	}
}

// shouldProcessEvent determines if a file system event should trigger a reload check
func (pw *PolicyWatcher) shouldProcessEvent(event fsnotify.Event) bool {
	if event.Name != pw.policyFile && filepath.Base(event.Name) != filepath.Base(pw.policyFile) {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

// hasFileChanged checks if the policy file has been modified since last check
func (pw *PolicyWatcher) hasFileChanged() bool {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	stat, err := os.Stat(pw.policyFile)
	if err != nil {
		return false
	}

	if pw.lastModTime.IsZero() || stat.ModTime().After(pw.lastModTime) {
		pw.lastModTime = stat.ModTime()
		return true
	}
	return false
}

// reload loads the policy file and delivers it to the callback. A policy
// that fails to load or validate is dropped so the previous one stays live.
func (pw *PolicyWatcher) reload() {
	policy, err := LoadPolicyFile(pw.policyFile, pw.base)
	if err != nil {
		if pw.logger != nil {
			pw.logger.LogError(err, "Failed to reload scoring policy, keeping previous policy",
				"file", pw.policyFile)
		}
		return
	}

	if pw.logger != nil {
		pw.logger.Info("Scoring policy reloaded",
			"file", pw.policyFile,
			"max_suggestions", policy.MaxSuggestions)
	}
	pw.onReload(policy)
}

// scheduleReload schedules a debounced reload
func (pw *PolicyWatcher) scheduleReload() {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	if pw.debounceTimer != nil {
		pw.debounceTimer.Stop()
	}

	pw.debounceTimer = time.AfterFunc(pw.debounceDelay, func() {
		select {
		case pw.reloadChan <- struct{}{}:
		default:
			// Reload already scheduled
		}
	})
}

// IsRunning returns whether the watcher is currently running
func (pw *PolicyWatcher) IsRunning() bool {
	pw.mu.RLock()
	defer pw.mu.RUnlock()
	return pw.running
}
