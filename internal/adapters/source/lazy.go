package source

import (
	"context"
	"errors"
	"sync"

	"github.com/okian/pulse/internal/domain/model"
	"github.com/okian/pulse/pkg/logger"
)

// Lazy defers opening the configured source until the first fetch and retries
// the open on every later fetch until it succeeds. A service can therefore
// start while its database is still unreachable.
type Lazy struct {
	cfg    Config
	opts   []Option
	logger logger.Logger

	mu      sync.Mutex
	src     Source
	closeFn func() error
}

// NewLazy returns a Lazy source for cfg.
func NewLazy(cfg Config, opts ...Option) *Lazy {
	o := buildOptions(opts)
	return &Lazy{cfg: cfg, opts: opts, logger: o.logger}
}

// FetchAll opens the underlying source if needed and reads every row.
func (l *Lazy) FetchAll(ctx context.Context) ([]model.RawRow, error) {
	src, err := l.open(ctx)
	if err != nil {
		return nil, err
	}
	return src.FetchAll(ctx)
}

func (l *Lazy) open(ctx context.Context) (Source, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.src != nil {
		return l.src, nil
	}
	src, closeFn, err := Open(ctx, l.cfg, l.opts...)
	if err != nil {
		if !errors.Is(err, ErrInvalidConfig) {
			l.logger.Warn(ctx, "data source not reachable yet", logger.String("driver", l.cfg.Driver), logger.Error(err))
		}
		return nil, err
	}
	l.src, l.closeFn = src, closeFn
	l.logger.Info(ctx, "data source opened", logger.String("driver", l.cfg.Driver))
	return src, nil
}

// Close releases the underlying source if it was opened.
func (l *Lazy) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closeFn == nil {
		return nil
	}
	err := l.closeFn()
	l.src, l.closeFn = nil, nil
	return err
}
