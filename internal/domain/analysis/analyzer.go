// Package analysis answers natural-language questions about a snapshot by
// delegating to a text completion service with a bounded dataset context.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/okian/pulse/internal/domain/model"
	"github.com/okian/pulse/pkg/logger"
	"github.com/okian/pulse/pkg/metrics"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// Default analyzer configuration constants.
const (
	defaultTimeout = 30 * time.Second
	maxAttempts    = 2
)

// Completer is the external completion service.
type Completer interface {
	// Complete returns the model's text for prompt, honoring ctx for deadlines.
	Complete(ctx context.Context, prompt string) (string, error)
}

// Result is a complete answer. A failed call never yields a partial Result.
type Result struct {
	Analysis   string `json:"analysis"`
	Generation uint64 `json:"-"`
	Cached     bool   `json:"-"`
}

// Analyzer builds prompts from snapshots and calls the Completer.
type Analyzer struct {
	completer Completer
	limits    Limits
	timeout   time.Duration
	cacheTTL  time.Duration
	cache     *gocache.Cache
	group     singleflight.Group
	logger    logger.Logger
}

// Option applies a configuration option to the Analyzer.
type Option func(*Analyzer)

// WithLimits sets the context size limits.
func WithLimits(l Limits) Option {
	return func(a *Analyzer) {
		a.limits = l.withDefaults()
	}
}

// WithTimeout sets the per-attempt completion timeout.
func WithTimeout(d time.Duration) Option {
	return func(a *Analyzer) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithCacheTTL enables answer caching per (snapshot, query). Zero disables it.
func WithCacheTTL(d time.Duration) Option {
	return func(a *Analyzer) {
		a.cacheTTL = d
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.logger = l
		}
	}
}

// New creates an Analyzer. A nil completer leaves the analyzer permanently not ready.
func New(completer Completer, opts ...Option) *Analyzer {
	a := &Analyzer{
		completer: completer,
		limits:    DefaultLimits(),
		timeout:   defaultTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = logger.Get().Named("analysis")
	}
	if a.cacheTTL > 0 {
		a.cache = gocache.New(a.cacheTTL, 2*a.cacheTTL)
	}
	return a
}

// Configured reports whether a completion service is available.
func (a *Analyzer) Configured() bool {
	return a != nil && a.completer != nil
}

// Prompt assembles the full prompt for query over snap.
func (a *Analyzer) Prompt(snap *model.Snapshot, query string) string {
	return "Context:\n" + BuildContext(snap, a.limits) +
		"\n\nQuestion: " + query +
		"\n\nProvide a detailed analysis."
}

// Answer validates the request, then asks the completion service about snap.
// The completion service is never contacted for an invalid query or a snapshot
// without records.
func (a *Analyzer) Answer(ctx context.Context, query string, snap *model.Snapshot) (Result, error) {
	const op = "analysis.answer"
	query = strings.TrimSpace(query)
	if query == "" {
		metrics.RecordAnalysisRequest("invalid_query")
		return Result{}, fmt.Errorf("%s: %w", op, ErrInvalidQuery)
	}
	if !snap.Ready() {
		metrics.RecordAnalysisRequest("not_ready")
		return Result{}, fmt.Errorf("%s: no data loaded: %w", op, ErrNotReady)
	}
	if !a.Configured() {
		metrics.RecordAnalysisRequest("not_ready")
		return Result{}, fmt.Errorf("%s: completion service not configured: %w", op, ErrNotReady)
	}

	key := snap.ID + "\x00" + query
	if a.cache != nil {
		if v, ok := a.cache.Get(key); ok {
			metrics.RecordAnalysisRequest("cached")
			return Result{Analysis: v.(string), Generation: snap.Generation, Cached: true}, nil
		}
	}

	// The shared call outlives any single caller; each attempt is still
	// bounded by a.timeout.
	shared := context.WithoutCancel(ctx)
	ch := a.group.DoChan(key, func() (interface{}, error) {
		return a.complete(shared, a.Prompt(snap, query))
	})
	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		metrics.RecordAnalysisRequest("cancelled")
		return Result{}, fmt.Errorf("%s: %w", op, errors.Join(ErrServiceUnavailable, ctx.Err()))
	}
	v, err := res.Val, res.Err
	if err != nil {
		metrics.RecordAnalysisRequest("unavailable")
		a.logger.Error(ctx, "analysis failed",
			logger.Int("generation", int(snap.Generation)),
			logger.Error(err),
		)
		return Result{}, fmt.Errorf("%s: %w", op, err)
	}
	text := v.(string)
	if a.cache != nil {
		a.cache.SetDefault(key, text)
	}
	metrics.RecordAnalysisRequest("ok")
	if res.Shared {
		a.logger.Debug(ctx, "analysis shared with concurrent caller", logger.String("snapshot", snap.ID))
	}
	return Result{Analysis: text, Generation: snap.Generation}, nil
}

// complete calls the completer with a per-attempt timeout, retrying once on a
// timeout or a transient failure.
func (a *Analyzer) complete(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		start := time.Now()
		text, err := a.attempt(ctx, prompt)
		metrics.RecordAnalysisLatency(float64(time.Since(start).Milliseconds()))
		if err == nil {
			return text, nil
		}
		lastErr = err
		if ctx.Err() != nil || !retryable(err) {
			break
		}
		a.logger.Warn(ctx, "completion attempt failed; retrying",
			logger.Int("attempt", attempt),
			logger.Error(err),
		)
	}
	return "", errors.Join(ErrServiceUnavailable, lastErr)
}

func (a *Analyzer) attempt(ctx context.Context, prompt string) (string, error) {
	cctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	return a.completer.Complete(cctx, prompt)
}

func retryable(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrTransient)
}
