package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/pulse/internal/config"
	"github.com/okian/pulse/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	configFile string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "pulse",
	Short: "Employee sentiment snapshot service",
	Long: `pulse keeps an in-memory snapshot of employee feedback, classifies every
record into a sentiment quadrant, and serves aggregate views plus
natural-language analysis over HTTP.

Configuration is layered: defaults, .env, a YAML file (--config or
PULSE_CONFIG) and PULSE_* environment variables.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML config file (overrides PULSE_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(serveCmd, importCmd, generateCmd, probeCmd)
}

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Stderr.WriteString("pulse: " + err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}

// loadConfig loads the layered configuration and initialises logging from it.
func loadConfig(ctx context.Context) (*config.Config, error) {
	if configFile != "" {
		if err := os.Setenv("PULSE_CONFIG", configFile); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := logger.InitWithOptions(cfg.LoggerOptions()); err != nil {
		return nil, err
	}
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	if err := logger.SetLevelString(level); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", level), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return cfg, nil
}

// initPlainLogging sets up stdout logging for commands that need no config.
func initPlainLogging() error {
	if err := logger.Init(); err != nil {
		return err
	}
	if verbose {
		return logger.SetLevelString("debug")
	}
	return nil
}

// syncLogger flushes the rotating log file, if any.
func syncLogger(ctx context.Context) {
	if err := logger.Sync(); err != nil {
		logger.Get().Error(ctx, "failed to sync logger", logger.Error(err))
	}
}
