package pipeline

import (
	"runtime"
	"time"

	"github.com/TrevorS/dbscan"
	"github.com/TrevorS/dbscan/internal/featureset"
	"github.com/TrevorS/dbscan/internal/logging"
	"github.com/TrevorS/dbscan/internal/metrics"
)

// DefaultTimeout bounds a single clustering request.
const DefaultTimeout = 30 * time.Second

type options struct {
	logger        *logging.Logger
	metrics       metrics.Collector
	registry      *featureset.Registry
	config        dbscan.Config
	maxConcurrent int64
	timeout       time.Duration
}

func defaultOptions() options {
	return options{
		logger:        logging.Noop(),
		metrics:       metrics.Noop{},
		registry:      featureset.Default(),
		config:        dbscan.DefaultConfig(),
		maxConcurrent: int64(runtime.NumCPU()),
		timeout:       DefaultTimeout,
	}
}

// Option configures a Service.
type Option func(*options)

// WithLogger configures structured logging.
//
// If nil is passed, logging is disabled.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) {
		if l == nil {
			l = logging.Noop()
		}
		o.logger = l
	}
}

// WithMetrics configures the run metrics collector.
//
// If nil is passed, metrics are discarded.
func WithMetrics(c metrics.Collector) Option {
	return func(o *options) {
		if c == nil {
			c = metrics.Noop{}
		}
		o.metrics = c
	}
}

// WithRegistry replaces the built-in feature sets.
func WithRegistry(r *featureset.Registry) Option {
	return func(o *options) {
		if r != nil {
			o.registry = r
		}
	}
}

// WithConfig sets the clustering configuration used for every request.
func WithConfig(cfg dbscan.Config) Option {
	return func(o *options) {
		o.config = cfg
	}
}

// WithMaxConcurrent limits how many clustering computations run at once.
// Requests beyond the limit wait for a slot. Values < 1 are ignored.
func WithMaxConcurrent(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxConcurrent = int64(n)
		}
	}
}

// WithTimeout bounds each request, fetch included. Values <= 0 are ignored.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}
