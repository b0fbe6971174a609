// Package weave renders HTML templates against live data and keeps the
// rendered tree in sync as the data changes.
//
// A template is ordinary HTML with a few declarations:
//
//	<ul>
//	  <li for-each="todo in todos" key="todo.id" :class.done="todo.done">
//	    {{ todo.title }}
//	    <button @click="remove">x</button>
//	  </li>
//	</ul>
//	<p if="todos.length === 0">Nothing to do.</p>
//
// Usage:
//
//	model := scope.NewModel(scope.Context{"todos": todos})
//	model.Method("remove", func(ev *dom.Event, ctx scope.Context) { ... })
//
//	view, err := weave.New(markup, model, weave.Config{})
//	if err != nil {
//	    return err
//	}
//	defer view.Cleanup()
//
//	if _, err := view.Update(ctx, nil); err != nil { // first render
//	    return err
//	}
//	html := view.HTML()
//
//	patches, err := view.Update(ctx, scope.Context{"filter": "open"})
//	if err != nil {
//	    return err
//	}
//
// Every Update returns the mutations it made to the connected tree as
// dom.Patch values, which a transport can forward to a browser.
package weave

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	werrors "github.com/vango-dev/weave/internal/errors"
	"github.com/vango-dev/weave/pkg/dom"
	"github.com/vango-dev/weave/pkg/events"
	"github.com/vango-dev/weave/pkg/expr"
	"github.com/vango-dev/weave/pkg/fragment"
	"github.com/vango-dev/weave/pkg/metrics"
	"github.com/vango-dev/weave/pkg/nested"
	"github.com/vango-dev/weave/pkg/render"
	"github.com/vango-dev/weave/pkg/scope"
	"github.com/vango-dev/weave/pkg/state"
)

// ErrClosed is returned by operations on a View after Cleanup.
var ErrClosed = errors.New("weave: view closed")

// ErrUnknownNode is returned by Dispatch for an ID not in the tree.
var ErrUnknownNode = errors.New("weave: unknown node")

// View hosts one template for one component. A View is not safe for
// concurrent use; callers serialize Update, Dispatch, Flush, and Cleanup.
type View struct {
	doc    *dom.Document
	host   *dom.Node
	comp   scope.Component
	frag   *fragment.Fragment
	eval   *expr.Evaluator
	table  *state.Table
	nested *nested.Updater

	data    scope.Context
	closed  bool
	logger  *slog.Logger
	metrics *metrics.Recorder
	tracer  trace.Tracer
}

// New parses template for comp. A nil comp gets an empty scope.Model.
// Structural template errors are returned as *errors.WeaveError values.
// Nothing is rendered until the first Update.
func New(template string, comp scope.Component, cfg Config) (*View, error) {
	cfg = cfg.withDefaults()
	if comp == nil {
		comp = scope.NewModel(nil)
	}
	logger := cfg.Logger.With("component", "weave")

	cache := cfg.Cache
	if cache == nil {
		cache = expr.NewCache(cfg.CacheSize)
	}
	eval := expr.NewEvaluator(comp,
		expr.WithCache(cache),
		expr.WithLogger(cfg.Logger.With("component", "expr")),
		expr.WithMetrics(cfg.Metrics))

	table := state.NewTable()
	updater := nested.NewUpdater(eval,
		nested.WithLogger(cfg.Logger.With("component", "nested")),
		nested.WithMetrics(cfg.Metrics),
		nested.WithNotify(cfg.OnDeferred))

	doc := dom.NewDocument()
	host := doc.CreateElement(cfg.HostTag)
	if err := doc.ParseInto(host, template); err != nil {
		return nil, werrors.New("W142").Wrap(err)
	}

	frag, err := fragment.ParseRoot(host, fragment.Config{
		Component: comp,
		Evaluator: eval,
		State:     table,
		Events: events.NewParser(table,
			events.WithLogger(cfg.Logger.With("component", "events")),
			events.WithMetrics(cfg.Metrics)),
		Registry: cfg.Components,
		Nested:   updater,
		Logger:   cfg.Logger.With("component", "fragment"),
		Metrics:  cfg.Metrics,
	})
	if err != nil {
		updater.Close()
		return nil, err
	}
	// The host is connected only after parsing so the initial tree is not
	// reported as patches.
	doc.Root().AppendChild(host)
	doc.TakePatches()

	return &View{
		doc:     doc,
		host:    host,
		comp:    comp,
		frag:    frag,
		eval:    eval,
		table:   table,
		nested:  updater,
		logger:  logger,
		metrics: cfg.Metrics,
		tracer:  otel.Tracer(cfg.TracerName),
	}, nil
}

// =============================================================================
// Reconciliation
// =============================================================================

// Context returns the context the next update would use for data:
// component methods, overridden by the component's properties, overridden
// by data.
func (v *View) Context(data scope.Context) scope.Context {
	methods := v.comp.Methods()
	base := make(scope.Context, len(methods))
	for name, fn := range methods {
		base[name] = fn
	}
	return scope.Merge(base, v.comp.Context(), data)
}

// Update reconciles the tree against data and returns the resulting
// patches. data replaces the data of the previous update.
func (v *View) Update(ctx context.Context, data scope.Context) ([]dom.Patch, error) {
	if v.closed {
		return nil, ErrClosed
	}
	v.data = data
	return v.reconcile(ctx, "weave.update")
}

// Refresh reconciles again with the data of the last Update, picking up
// changes made to the component itself.
func (v *View) Refresh(ctx context.Context) ([]dom.Patch, error) {
	if v.closed {
		return nil, ErrClosed
	}
	return v.reconcile(ctx, "weave.refresh")
}

func (v *View) reconcile(ctx context.Context, name string) ([]dom.Patch, error) {
	_, span := v.tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	start := time.Now()
	v.frag.Update(v.Context(v.data))
	patches := v.doc.TakePatches()
	elapsed := time.Since(start)

	v.metrics.UpdateDuration(elapsed.Seconds())
	v.metrics.Patches(len(patches))
	span.SetAttributes(
		attribute.Int("weave.patches", len(patches)),
		attribute.Int("weave.state_entries", v.table.Len()),
	)
	v.logger.Debug("reconciled", "patches", len(patches), "duration", elapsed)
	return patches, nil
}

// Dispatch fires an event of type typ at the node with the given ID,
// bubbling to its ancestors, then refreshes the view. It returns the
// patches produced by the refresh.
func (v *View) Dispatch(ctx context.Context, id dom.NodeID, typ string, detail any) ([]dom.Patch, error) {
	if v.closed {
		return nil, ErrClosed
	}
	target := v.doc.Find(id)
	if target == nil || !target.IsConnected() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}

	_, span := v.tracer.Start(ctx, "weave.dispatch", trace.WithAttributes(
		attribute.String("weave.event_type", typ),
		attribute.String("weave.event_target", id.String()),
	))
	ev := dom.NewEvent(typ, detail)
	target.DispatchEvent(ev)
	span.SetAttributes(attribute.Bool("weave.default_prevented", ev.DefaultPrevented()))
	span.End()

	return v.Refresh(ctx)
}

// Flush applies nested-component writes that became ready since the last
// update and returns the patches they caused.
func (v *View) Flush() []dom.Patch {
	if v.closed {
		return nil
	}
	if v.nested.Flush() == 0 {
		return nil
	}
	return v.doc.TakePatches()
}

// PendingDeferred returns the number of nested-component writes waiting
// for their instance to become ready.
func (v *View) PendingDeferred() int {
	return v.nested.Pending()
}

// Cleanup releases the view: fragments are torn down, listeners detached,
// and deferred nested-component writes cancelled. Cleanup is idempotent.
func (v *View) Cleanup() {
	if v.closed {
		return
	}
	v.closed = true
	v.frag.Cleanup()
	v.nested.Close()
	v.doc.TakePatches()
}

// =============================================================================
// Accessors
// =============================================================================

// HTML renders the current tree.
func (v *View) HTML() string {
	var buf bytes.Buffer
	if err := render.NewRenderer(render.RendererConfig{}).RenderChildren(&buf, v.host); err != nil {
		v.logger.Error("render failed", "error", err)
	}
	return buf.String()
}

// Host returns the element the template was parsed into.
func (v *View) Host() *dom.Node { return v.host }

// Document returns the document that owns the tree.
func (v *View) Document() *dom.Document { return v.doc }

// Component returns the owning component.
func (v *View) Component() scope.Component { return v.comp }

// Data returns the data of the last Update.
func (v *View) Data() scope.Context { return v.data }

// Fragment returns the root fragment.
func (v *View) Fragment() *fragment.Fragment { return v.frag }

// Evaluator returns the view's expression evaluator.
func (v *View) Evaluator() *expr.Evaluator { return v.eval }
