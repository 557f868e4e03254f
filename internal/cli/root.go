package cli

import (
	"context"

	"resumelens/internal/config"
	"resumelens/internal/errors"

	"github.com/spf13/cobra"
)

// Unexported key types keep context values private to this package.
type (
	configKeyType struct{}
	loggerKeyType struct{}
)

var (
	configKey = configKeyType{}
	loggerKey = loggerKeyType{}
)

var rootCmd = &cobra.Command{
	Use:   "resumelens",
	Short: "A CLI tool for analyzing and improving resumes",
	Long: `Resumelens analyzes a resume against a target job across four
dimensions (keywords, grammar, format, quantified achievements), produces
prioritized improvement suggestions, and can apply suggestion patches to
produce an improved resume.`,
}

// Execute runs the root command with the config and logger threaded through
// the command context so every subcommand can reach them.
func Execute(ctx context.Context, cfg *config.Config, logger *errors.Logger) error {
	ctx = context.WithValue(ctx, configKey, cfg)
	ctx = context.WithValue(ctx, loggerKey, logger)
	rootCmd.SetContext(ctx)
	return rootCmd.Execute()
}

func getConfigFromContext(ctx context.Context) *config.Config {
	cfg, ok := ctx.Value(configKey).(*config.Config)
	if !ok {
		panic("config missing from command context")
	}
	return cfg
}

func getLoggerFromContext(ctx context.Context) *errors.Logger {
	logger, ok := ctx.Value(loggerKey).(*errors.Logger)
	if !ok {
		panic("logger missing from command context")
	}
	return logger
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(optimizeCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}
