package streamgo

import (
	"github.com/benbjohnson/clock"

	"github.com/hupe1980/streamgo/blobstore"
	"github.com/hupe1980/streamgo/priority"
)

// PositionResolver maps an asset path to its world position, when one
// is known. Returning false falls back to a neutral default distance.
type PositionResolver func(path string) ([3]float32, bool)

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	clock            clock.Clock
	store            blobstore.Store
	weights          priority.Weights
	positionResolver PositionResolver
}

// Option configures Manager constructor behavior.
type Option func(*options)

// WithLogger configures the logger used by the manager and every
// component it creates.
//
// If nil is passed, NoopLogger is used.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetrics configures the metrics collector.
//
// If nil is passed, NoopMetrics is used.
func WithMetrics(m MetricsCollector) Option {
	return func(o *options) {
		if m == nil {
			m = NewNoopMetrics()
		}
		o.metricsCollector = m
	}
}

// WithClock configures the time source. Tests use a mock clock to
// drive idle cleanup and recency scoring without sleeping.
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		if c == nil {
			c = clock.New()
		}
		o.clock = c
	}
}

// WithStore replaces the default local filesystem store rooted at
// Config.AssetRoot with a custom asset source.
func WithStore(s blobstore.Store) Option {
	return func(o *options) {
		o.store = s
	}
}

// WithPriorityWeights overrides the default factor weights of the
// priority scorer.
func WithPriorityWeights(w priority.Weights) Option {
	return func(o *options) {
		o.weights = w
	}
}

// WithPositionResolver supplies per-asset world positions so Update
// can score real camera distances. Without one, every tracked asset is
// scored at a fixed nominal distance.
func WithPositionResolver(r PositionResolver) Option {
	return func(o *options) {
		o.positionResolver = r
	}
}

func defaultOptions() *options {
	return &options{
		logger:           NoopLogger(),
		metricsCollector: NewNoopMetrics(),
		clock:            clock.New(),
		weights:          priority.DefaultWeights(),
	}
}
