package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"resumelens/internal/config"
	"resumelens/internal/observability"
)

// Start brings the server up: observability, Vault-backed key rotation,
// routes, and the listener. It blocks until a shutdown signal arrives or
// the listener fails.
func (s *Server) Start() error {
	obsConfig := observability.GetObservabilityConfig(s.AppConfig, s.Version)
	om, err := observability.NewObservabilityManager(obsConfig, s.AppConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := om.Shutdown(ctx); err != nil {
			s.Logger.LogError(err, "Failed to shutdown observability")
		}
	}()

	if err := s.startAPIKeyWatcher(); err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.Host, s.Port),
		Handler:      om.HTTPMiddleware()(s.setupRoutes(om)),
		ReadTimeout:  s.ReadTimeout,
		WriteTimeout: s.WriteTimeout,
		IdleTimeout:  s.IdleTimeout,
	}

	s.displayServerInfo()

	return s.serveUntilSignal(httpServer)
}

// startAPIKeyWatcher enables Vault-backed API key rotation when both Vault
// and a key path are configured.
func (s *Server) startAPIKeyWatcher() error {
	vaultCfg := s.AppConfig.Vault
	if !vaultCfg.Enabled || vaultCfg.Secrets.APIKeys == "" {
		return nil
	}

	client, err := config.NewVaultClient(vaultCfg, s.Logger)
	if err != nil {
		return fmt.Errorf("failed to create vault client for api key rotation: %w", err)
	}
	if client == nil {
		return nil
	}

	pollInterval := vaultCfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = time.Minute
	}

	s.apiKeyWatcher = NewAPIKeyWatcher(client, vaultCfg.Secrets.APIKeys, pollInterval, func(keys []string, err error) {
		if err != nil {
			s.Logger.LogError(err, "API key rotation failed, keeping current keys")
			return
		}
		s.setAPIKeys(keys)
		s.Logger.Info("API keys rotated from Vault", "count", len(keys))
	}, s.Logger)

	return s.apiKeyWatcher.Start()
}

// serveUntilSignal runs the listener and drains it cleanly on
// SIGINT/SIGTERM.
func (s *Server) serveUntilSignal(server *http.Server) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.Logger.Info("Starting HTTP server", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server failed to start: %w", err)
	case sig := <-quit:
		s.Logger.Info("Received shutdown signal, starting graceful shutdown",
			"signal", sig.String())
		return s.shutdown(server)
	}
}

// shutdown stops the background components and drains in-flight requests,
// forcing the listener closed if the grace period elapses.
func (s *Server) shutdown(server *http.Server) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if s.apiKeyWatcher != nil {
		if err := s.apiKeyWatcher.Stop(); err != nil {
			s.Logger.LogError(err, "Failed to stop API key watcher")
		}
	}

	s.Sessions.Close()

	if s.RateLimiter != nil {
		s.RateLimiter.Close()
	}

	s.Logger.Info("Shutting down HTTP server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		s.Logger.LogError(err, "Failed to shutdown server gracefully, forcing close")
		return server.Close()
	}

	s.Logger.Info("Server shutdown completed successfully")
	return nil
}
