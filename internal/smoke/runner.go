package smoke

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/okian/pulse/internal/domain/quadrant"
	"github.com/okian/pulse/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// Run probes a running service and checks that its read endpoints agree with
// each other: the quadrant distribution sums to the total, every filter
// returns exactly the records of its quadrant, and unknown filters are empty.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	cfg = withDefaults(cfg)
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get().Named("smoke")

	log.Info(ctx, "starting probe",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("workers", cfg.Workers),
		logger.String("timeout", cfg.Timeout.String()),
		logger.Bool("reload", cfg.Reload))

	client := newHTTPClient(cfg.BaseURL, cfg.Timeout)

	if err := checkServiceHealth(ctx, client, stats); err != nil {
		return stats, err
	}

	if cfg.Reload {
		if err := client.do(ctx, http.MethodPost, "/reload-data", nil, http.StatusOK, nil); err != nil {
			var se *StatusError
			if errors.As(err, &se) && se.Code == http.StatusNotFound {
				return stats, fmt.Errorf("%w: reload returned no rows", ErrNotLoaded)
			}
			return stats, err
		}
		stats.Requests++
		stats.Reloaded = true
	}

	var st Status
	if err := client.do(ctx, http.MethodGet, "/status", nil, http.StatusOK, &st); err != nil {
		return stats, err
	}
	stats.Requests++
	if !st.DataLoaded {
		return stats, ErrNotLoaded
	}

	var before Summary
	if err := client.do(ctx, http.MethodGet, "/summary", nil, http.StatusOK, &before); err != nil {
		return stats, err
	}
	var all []Employee
	if err := client.do(ctx, http.MethodGet, "/employees", nil, http.StatusOK, &all); err != nil {
		return stats, err
	}
	stats.Requests += 2

	filtered, err := fetchFilters(ctx, client, cfg.Workers)
	stats.Requests += len(filtered)
	if err != nil {
		return stats, err
	}

	var after Summary
	if err := client.do(ctx, http.MethodGet, "/summary", nil, http.StatusOK, &after); err != nil {
		return stats, err
	}
	stats.Requests++
	if before.Generation != after.Generation {
		return stats, fmt.Errorf("%w: generation %d -> %d", ErrSnapshotChanged, before.Generation, after.Generation)
	}

	if err := verifySummary(before, all); err != nil {
		return stats, err
	}
	for label, got := range filtered {
		want := before.QuadrantDistribution[label]
		if err := verifyFilter(label, want, got, all); err != nil {
			return stats, err
		}
		if cfg.Verbose {
			log.Info(ctx, "filter verified", logger.String("quadrant", label), logger.Int("records", len(got)))
		}
	}

	stats.Generation = before.Generation
	stats.TotalEmployees = before.TotalEmployees
	stats.Distribution = before.QuadrantDistribution
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(ctx, log, stats)
	return stats, nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *HTTPClient, stats *Stats) error {
	if err := client.do(ctx, http.MethodGet, "/healthz", nil, http.StatusOK, nil); err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	stats.Requests++
	return nil
}

// fetchFilters requests every quadrant filter, plus Unknown and a label that
// matches nothing, with at most workers requests in flight.
func fetchFilters(ctx context.Context, client *HTTPClient, workers int) (map[string][]Employee, error) {
	labels := make([]string, 0, len(quadrant.Labels())+2)
	for _, l := range quadrant.Labels() {
		labels = append(labels, string(l))
	}
	labels = append(labels, string(quadrant.Unknown), unknownFilter)

	var mu sync.Mutex
	out := make(map[string][]Employee, len(labels))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, label := range labels {
		g.Go(func() error {
			var recs []Employee
			q := url.Values{"quadrant": []string{label}}
			if err := client.do(gctx, http.MethodGet, "/employees", q, http.StatusOK, &recs); err != nil {
				return err
			}
			if recs == nil {
				return fmt.Errorf("%w: filter %s returned null", ErrInconsistent, label)
			}
			mu.Lock()
			out[label] = recs
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return out, err
	}
	return out, nil
}

func withDefaults(cfg *Config) *Config {
	c := Config{}
	if cfg != nil {
		c = *cfg
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	return &c
}

// displayFinalStats logs the probe statistics.
func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	log.Info(ctx, "probe passed",
		logger.Any("generation", stats.Generation),
		logger.Int("totalEmployees", stats.TotalEmployees),
		logger.Any("distribution", stats.Distribution),
		logger.Int("requests", stats.Requests),
		logger.Bool("reloaded", stats.Reloaded),
		logger.String("duration", stats.Duration.String()))
}
