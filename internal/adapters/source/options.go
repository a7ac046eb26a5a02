package source

import (
	"github.com/okian/pulse/pkg/logger"
)

// Option applies a configuration option to database-backed sources and the importer.
type Option func(*options)

type options struct {
	logger logger.Logger
}

// WithLogger sets the logger that receives SQL traces.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.Get().Named("source")
	}
	return o
}
