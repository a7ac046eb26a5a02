package main

import (
	"context"
	"time"

	"github.com/okian/pulse/internal/smoke"
	"github.com/spf13/cobra"
)

const defaultProbeTimeout = 2 * time.Minute

var probeCfg smoke.Config

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Check a running server's endpoints for consistency",
	Long: `Fetches /status, /summary and /employees (unfiltered and per quadrant)
and verifies that the distribution sums to the total, that every filter
returns exactly its quadrant's records in snapshot order, and that an
unknown quadrant returns an empty list.

Example:
  pulse probe --url http://localhost:9080 --reload`,
	Args: cobra.NoArgs,
	RunE: runProbe,
}

func init() {
	probeCmd.Flags().StringVar(&probeCfg.BaseURL, "url", smoke.DefaultBaseURL, "Base URL of the service")
	probeCmd.Flags().DurationVar(&probeCfg.Timeout, "timeout", smoke.DefaultTimeout, "HTTP request timeout")
	probeCmd.Flags().IntVar(&probeCfg.Workers, "workers", smoke.DefaultWorkers, "Concurrent filter requests")
	probeCmd.Flags().BoolVar(&probeCfg.Reload, "reload", false, "POST /reload-data before probing")
}

func runProbe(cmd *cobra.Command, _ []string) error {
	if err := initPlainLogging(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), defaultProbeTimeout)
	defer cancel()

	cfg := probeCfg
	cfg.Verbose = verbose
	stats, err := smoke.Run(ctx, &cfg)
	if err != nil {
		return err
	}
	cmd.Printf("OK: generation %d, %d employees, %d requests in %s\n",
		stats.Generation, stats.TotalEmployees, stats.Requests, stats.Duration.Round(time.Millisecond))
	return nil
}
