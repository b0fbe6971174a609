package weave

import (
	"log/slog"

	"github.com/vango-dev/weave/pkg/expr"
	"github.com/vango-dev/weave/pkg/metrics"
	"github.com/vango-dev/weave/pkg/nested"
)

// =============================================================================
// Configuration Types
// =============================================================================

// DefaultTracerName is the OpenTelemetry tracer used for update spans.
const DefaultTracerName = "weave"

// Config configures a View.
type Config struct {
	// Logger receives expression, handler, and propagation failures.
	// If nil, slog.Default() is used.
	Logger *slog.Logger

	// Metrics records evaluation, cache, and reconciliation metrics.
	// Nil disables metrics.
	Metrics *metrics.Recorder

	// Cache holds compiled expressions. Views rendering the same templates
	// may share one. If nil, a cache of CacheSize entries is created.
	Cache *expr.Cache

	// CacheSize bounds the expression cache created when Cache is nil.
	// Default: 1024.
	CacheSize int

	// Components maps custom element tags to nested components.
	Components *nested.Registry

	// HostTag is the tag of the element the template is parsed into.
	// Default: "div".
	HostTag string

	// TracerName names the tracer resolved from the global provider.
	// Default: "weave".
	TracerName string

	// OnDeferred is called from a background goroutine when deferred
	// nested-component writes become ready. The owner should call Flush
	// from its own goroutine.
	OnDeferred func()
}

func (c Config) withDefaults() Config {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.CacheSize <= 0 {
		c.CacheSize = expr.DefaultCacheSize
	}
	if c.HostTag == "" {
		c.HostTag = "div"
	}
	if c.TracerName == "" {
		c.TracerName = DefaultTracerName
	}
	return c
}
