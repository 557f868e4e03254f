package server

import (
	"fmt"
	"sync"
	"time"

	"resumelens/internal/config"
	"resumelens/internal/errors"
)

// VaultClientInterface is the slice of the Vault client the watcher needs.
type VaultClientInterface interface {
	GetSecretV2(path string) (*config.VaultSecret, error)
	GetStringSecret(path, key string) (string, error)
	GetStringSliceSecret(path, key string) ([]string, error)
}

// APIKeyReloadCallback receives each new API key set, or the error that
// prevented fetching one.
type APIKeyReloadCallback func(keys []string, err error)

// APIKeyWatcher polls a Vault KV-v2 secret and invokes the reload callback
// whenever the secret's version advances. A nil logger disables logging.
type APIKeyWatcher struct {
	mu sync.RWMutex

	client         VaultClientInterface
	secretPath     string
	pollInterval   time.Duration
	reloadCallback APIKeyReloadCallback
	logger         *errors.Logger

	stopChan    chan struct{}
	running     bool
	lastVersion int64
}

// NewAPIKeyWatcher creates a new APIKeyWatcher
func NewAPIKeyWatcher(client VaultClientInterface, secretPath string, pollInterval time.Duration, reloadCallback APIKeyReloadCallback, logger *errors.Logger) *APIKeyWatcher {
	return &APIKeyWatcher{
		client:         client,
		secretPath:     secretPath,
		pollInterval:   pollInterval,
		reloadCallback: reloadCallback,
		logger:         logger,
		stopChan:       make(chan struct{}),
	}
}

func (aw *APIKeyWatcher) logInfo(msg string, args ...any) {
	if aw.logger != nil {
		aw.logger.Info(msg, args...)
	}
}

func (aw *APIKeyWatcher) logError(err error, msg string) {
	if aw.logger != nil {
		aw.logger.LogError(err, msg)
	}
}

// Start launches the polling goroutine.
func (aw *APIKeyWatcher) Start() error {
	aw.mu.Lock()
	defer aw.mu.Unlock()
	if aw.running {
		return fmt.Errorf("api key watcher is already running")
	}
	aw.running = true
	go aw.pollLoop()
	aw.logInfo("API key watcher started", "secret_path", aw.secretPath, "poll_interval", aw.pollInterval)
	return nil
}

// Stop terminates the polling goroutine. Stopping a stopped watcher is a
// no-op.
func (aw *APIKeyWatcher) Stop() error {
	aw.mu.Lock()
	defer aw.mu.Unlock()
	if !aw.running {
		return nil
	}
	close(aw.stopChan)
	aw.running = false
	aw.logInfo("API key watcher stopped")
	return nil
}

func (aw *APIKeyWatcher) pollLoop() {
	ticker := time.NewTicker(aw.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			aw.poll()
		case <-aw.stopChan:
			return
		}
	}
}

// poll runs one version check and, if the secret moved, one key fetch.
func (aw *APIKeyWatcher) poll() {
	changed, err := aw.checkForUpdates()
	if err != nil {
		aw.logError(err, "Failed to check Vault for updates")
		return
	}
	if !changed {
		return
	}

	aw.logInfo("Vault secret changed, fetching new API keys")
	keys, err := aw.client.GetStringSliceSecret(aw.secretPath, "keys")
	if err != nil {
		err = fmt.Errorf("failed to fetch api keys from vault: %w", err)
		aw.logError(err, "Failed to fetch new API keys from Vault")
		aw.reloadCallback(nil, err)
		return
	}

	aw.logInfo("New API keys fetched from Vault, triggering rotation", "count", len(keys))
	aw.reloadCallback(keys, nil)
}

// checkForUpdates reports whether the secret version advanced past the last
// one seen, and records it.
func (aw *APIKeyWatcher) checkForUpdates() (bool, error) {
	secret, err := aw.client.GetSecretV2(aw.secretPath)
	if err != nil {
		return false, fmt.Errorf("failed to read secret: %w", err)
	}
	if secret.Version > aw.lastVersion {
		aw.lastVersion = secret.Version
		return true, nil
	}
	return false, nil
}

// Status summarizes the watcher for the health endpoint.
func (aw *APIKeyWatcher) Status() map[string]any {
	aw.mu.RLock()
	defer aw.mu.RUnlock()
	return map[string]any{
		"running":       aw.running,
		"poll_interval": aw.pollInterval.String(),
		"secret_path":   aw.secretPath,
		"last_version":  aw.lastVersion,
	}
}
