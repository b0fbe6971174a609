// Package metrics provides Prometheus collectors for the reconciliation
// engine.
//
// A nil *Recorder is valid and records nothing, so packages can accept an
// optional recorder without guarding every call.
//
// Metrics collected (namespace "weave" by default):
//   - weave_evaluations_total: expressions evaluated, by path (bare, general)
//   - weave_evaluation_errors_total: failed evaluations, by kind
//   - weave_expression_cache_events_total: cache hits, misses and evictions
//   - weave_expression_cache_entries: compiled programs currently cached
//   - weave_fragment_operations_total: mounts, unmounts and list item work
//   - weave_update_duration_seconds: duration of a full update pass
//   - weave_patches_total: patches produced by update passes
//   - weave_handler_calls_total: event handler invocations, by result
//   - weave_nested_propagations_total: nested-component input writes, by mode
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Config configures the collectors.
type Config struct {
	// Namespace is the metrics namespace (default: "weave").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for update duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry receives the collectors. Default: a fresh registry, so
	// several views in one process never collide.
	Registry *prometheus.Registry
}

// Option configures the collectors.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "weave",
		Buckets:   prometheus.DefBuckets,
	}
}

// Recorder holds the engine's collectors.
type Recorder struct {
	registry *prometheus.Registry

	evaluations        *prometheus.CounterVec
	evaluationErrors   *prometheus.CounterVec
	cacheEvents        *prometheus.CounterVec
	cacheEntries       prometheus.Gauge
	fragmentOps        *prometheus.CounterVec
	updateDuration     prometheus.Histogram
	patches            prometheus.Counter
	handlerCalls       *prometheus.CounterVec
	nestedPropagations *prometheus.CounterVec
}

// New creates and registers the collectors.
func New(opts ...Option) *Recorder {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.Registry == nil {
		config.Registry = prometheus.NewRegistry()
	}
	factory := promauto.With(config.Registry)

	counterVec := func(name, help string, labels ...string) *prometheus.CounterVec {
		return factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		}, labels)
	}

	return &Recorder{
		registry: config.Registry,

		evaluations:      counterVec("evaluations_total", "Total number of expressions evaluated", "path"),
		evaluationErrors: counterVec("evaluation_errors_total", "Total number of failed expression evaluations", "kind"),
		cacheEvents:      counterVec("expression_cache_events_total", "Compiled expression cache hits, misses and evictions", "event"),
		cacheEntries: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "expression_cache_entries",
			Help:        "Number of compiled expressions currently cached",
			ConstLabels: config.ConstLabels,
		}),
		fragmentOps: counterVec("fragment_operations_total", "Structural fragment operations", "op"),
		updateDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "update_duration_seconds",
			Help:        "Duration of a full update pass in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),
		patches: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "patches_total",
			Help:        "Total number of patches produced by update passes",
			ConstLabels: config.ConstLabels,
		}),
		handlerCalls:       counterVec("handler_calls_total", "Event handler invocations", "result"),
		nestedPropagations: counterVec("nested_propagations_total", "Nested component input writes", "mode"),
	}
}

// Registry returns the registry holding the collectors.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Evaluation records an evaluation on the bare or general path.
func (r *Recorder) Evaluation(path string) {
	if r != nil {
		r.evaluations.WithLabelValues(path).Inc()
	}
}

// EvaluationError records a failed evaluation. kind is syntax, reference,
// type, or call.
func (r *Recorder) EvaluationError(kind string) {
	if r != nil {
		r.evaluationErrors.WithLabelValues(kind).Inc()
	}
}

// CacheHit records a compiled-expression cache hit.
func (r *Recorder) CacheHit() {
	if r != nil {
		r.cacheEvents.WithLabelValues("hit").Inc()
	}
}

// CacheMiss records a compiled-expression cache miss.
func (r *Recorder) CacheMiss() {
	if r != nil {
		r.cacheEvents.WithLabelValues("miss").Inc()
	}
}

// CacheEviction records an LRU eviction.
func (r *Recorder) CacheEviction() {
	if r != nil {
		r.cacheEvents.WithLabelValues("eviction").Inc()
	}
}

// CacheSize reports the number of cached programs.
func (r *Recorder) CacheSize(n int) {
	if r != nil {
		r.cacheEntries.Set(float64(n))
	}
}

// FragmentOp records a structural operation: mount, unmount, item_create,
// item_remove, item_update, rebuild.
func (r *Recorder) FragmentOp(op string) {
	if r != nil {
		r.fragmentOps.WithLabelValues(op).Inc()
	}
}

// UpdateDuration records the duration of an update pass in seconds.
func (r *Recorder) UpdateDuration(seconds float64) {
	if r != nil {
		r.updateDuration.Observe(seconds)
	}
}

// Patches records patches produced by an update pass.
func (r *Recorder) Patches(count int) {
	if r != nil {
		r.patches.Add(float64(count))
	}
}

// HandlerCall records an event handler invocation. result is ok, error,
// or prevented.
func (r *Recorder) HandlerCall(result string) {
	if r != nil {
		r.handlerCalls.WithLabelValues(result).Inc()
	}
}

// NestedPropagation records a nested input write. mode is backing,
// setter, deferred, or error.
func (r *Recorder) NestedPropagation(mode string) {
	if r != nil {
		r.nestedPropagations.WithLabelValues(mode).Inc()
	}
}
