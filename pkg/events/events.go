// Package events binds "@event" declarations in a template to methods on
// the owning component.
//
// A declaration such as @click="save" attaches a listener for "click" that
// calls the component method named save. Handlers may take the event and
// the context they were rendered under; returning false prevents the
// default action and stops propagation.
package events

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/vango-dev/weave/pkg/directive"
	"github.com/vango-dev/weave/pkg/dom"
	"github.com/vango-dev/weave/pkg/metrics"
	"github.com/vango-dev/weave/pkg/scope"
	"github.com/vango-dev/weave/pkg/state"
)

// Prefix marks an event handler declaration attribute.
const Prefix = "@"

// Handler is the normalized form of a component method bound to an event.
// ctx is the reconciliation or loop context, or nil.
type Handler func(ev *dom.Event, ctx scope.Context) bool

// Adapt converts a component method to a Handler. It reports false for
// values that are not a supported handler signature:
//
//	func()
//	func(*dom.Event)
//	func(scope.Context)
//	func(*dom.Event, scope.Context)
//
// each optionally returning bool.
func Adapt(fn any) (Handler, bool) {
	switch f := fn.(type) {
	case nil:
		return nil, false
	case Handler:
		return f, f != nil
	case func(*dom.Event, scope.Context) bool:
		return f, f != nil
	case func():
		return func(*dom.Event, scope.Context) bool { f(); return true }, f != nil
	case func() bool:
		return func(*dom.Event, scope.Context) bool { return f() }, f != nil
	case func(*dom.Event):
		return func(ev *dom.Event, _ scope.Context) bool { f(ev); return true }, f != nil
	case func(*dom.Event) bool:
		return func(ev *dom.Event, _ scope.Context) bool { return f(ev) }, f != nil
	case func(scope.Context):
		return func(_ *dom.Event, ctx scope.Context) bool { f(ctx); return true }, f != nil
	case func(scope.Context) bool:
		return func(_ *dom.Event, ctx scope.Context) bool { return f(ctx) }, f != nil
	case func(*dom.Event, scope.Context):
		return func(ev *dom.Event, ctx scope.Context) bool { f(ev, ctx); return true }, f != nil
	}
	return nil, false
}

// Parser attaches and detaches handler listeners, tracking them in a state
// table so that re-parsing a node replaces rather than duplicates them.
type Parser struct {
	table   *state.Table
	logger  *slog.Logger
	metrics *metrics.Recorder
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sets the logger for handler failures.
func WithLogger(l *slog.Logger) Option {
	return func(p *Parser) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(r *metrics.Recorder) Option {
	return func(p *Parser) {
		p.metrics = r
	}
}

// NewParser creates a parser that records listeners in table.
func NewParser(table *state.Table, opts ...Option) *Parser {
	p := &Parser{
		table:  table,
		logger: slog.Default().With("component", "events"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse attaches listeners for every handler declaration under root that
// names a method of comp. Declarations naming no callable method are
// skipped. A non-empty ctx is passed to every handler; otherwise each
// handler receives the loop context of its element at the time it fires.
// With skipNested set, elements still carrying an unprocessed directive
// are not entered. Parse returns the number of listeners attached.
func (p *Parser) Parse(root *dom.Node, comp scope.Component, ctx scope.Context, skipNested bool) int {
	if comp == nil {
		return 0
	}
	methods := comp.Methods()
	attached := 0
	root.Walk(func(n *dom.Node) bool {
		if !n.IsElement() {
			return true
		}
		if skipNested && n != root {
			if kind, _ := directive.Detect(n); kind != directive.None {
				return false
			}
		}
		for _, attr := range n.Attrs() {
			if !strings.HasPrefix(attr.Key, Prefix) || len(attr.Key) == len(Prefix) {
				continue
			}
			name := strings.TrimSpace(attr.Value)
			h, ok := Adapt(methods[name])
			if !ok {
				p.logger.Debug("event handler not found", "event", attr.Key, "method", name)
				continue
			}
			p.attach(n, attr.Key[len(Prefix):], name, h, ctx)
			attached++
		}
		return true
	})
	return attached
}

// attach replaces any listener previously bound for typ on n.
func (p *Parser) attach(n *dom.Node, typ, method string, h Handler, ctx scope.Context) {
	entry := p.table.Ensure(n.ID)
	if old := entry.EventListeners[typ]; old != nil {
		n.RemoveEventListener(typ, old)
	}
	if entry.EventListeners == nil {
		entry.EventListeners = make(map[string]*dom.Listener)
	}

	explicit := ctx
	l := dom.NewListener(func(ev *dom.Event) {
		handlerCtx := explicit
		if len(handlerCtx) == 0 {
			handlerCtx = p.table.LoopContext(n)
		}
		p.invoke(method, h, ev, handlerCtx)
	})
	entry.EventListeners[typ] = l
	n.AddEventListener(typ, l)
}

func (p *Parser) invoke(method string, h Handler, ev *dom.Event, ctx scope.Context) {
	defer func() {
		if r := recover(); r != nil {
			p.metrics.HandlerCall("error")
			p.logger.Error("event handler panicked",
				"method", method,
				"event", ev.Type,
				"error", fmt.Errorf("%v", r))
		}
	}()
	if !h(ev, ctx) {
		ev.PreventDefault()
		ev.StopPropagation()
		p.metrics.HandlerCall("prevented")
		return
	}
	p.metrics.HandlerCall("ok")
}

// DetachTree removes every listener this parser attached under root.
func (p *Parser) DetachTree(root *dom.Node) {
	root.Walk(func(n *dom.Node) bool {
		entry, ok := p.table.Get(n.ID)
		if !ok {
			return true
		}
		for typ, l := range entry.EventListeners {
			n.RemoveEventListener(typ, l)
		}
		entry.EventListeners = nil
		return true
	})
}
