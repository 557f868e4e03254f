package cli

import (
	"resumelens/internal/config"
	"resumelens/internal/server"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for resume analysis sessions",
	Long: `Start an HTTP server that provides REST API endpoints for resume
analysis and suggestion lifecycle management.

Available endpoints:
- POST /analyze: One-shot resume analysis
- POST /sessions: Create an analysis session
- GET /sessions/{id}: Get session state
- POST /sessions/{id}/reanalyze: Reanalyze the working document
- POST /sessions/{id}/suggestions/{sid}/adopt|ignore|modify: Suggestion lifecycle transitions
- POST /sessions/{id}/suggestions/{sid}/apply: Apply a suggestion patch
- GET /health: Health check endpoint
- GET /stats: Server statistics and rate limiting info`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from config)")

	// Bind flags to viper config keys
	bindFlag := func(key, flagName string) {
		if err := viper.BindPFlag(key, serveCmd.Flags().Lookup(flagName)); err != nil {
			panic(err)
		}
	}

	bindFlag("server.port", "port")
	bindFlag("server.host", "host")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	eng, err := newEngine(cfg, logger)
	if err != nil {
		return err
	}

	// Reload the scoring policy on file changes while the server runs
	if cfg.Scoring.PolicyFile != "" {
		watcher := config.NewPolicyWatcher(cfg.Scoring.PolicyFile, cfg.Scoring, eng.SetPolicy, logger)
		if err := watcher.Start(); err != nil {
			return err
		}
		defer func() {
			if err := watcher.Stop(); err != nil {
				logger.LogError(err, "Failed to stop policy watcher")
			}
		}()
	}

	serverCfg := server.ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Version:        Version,
		APIKeys:        cfg.Server.APIKeys,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxRequestSize: cfg.App.MaxFileSize,
		RateLimit:      &cfg.Server.RateLimit,
		Sessions:       cfg.Server.Sessions,
	}
	return server.NewServer(cfg, serverCfg, eng, logger).Start()
}
