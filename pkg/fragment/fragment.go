package fragment

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/vango-dev/weave/pkg/binding"
	"github.com/vango-dev/weave/pkg/directive"
	"github.com/vango-dev/weave/pkg/dom"
	"github.com/vango-dev/weave/pkg/events"
	"github.com/vango-dev/weave/pkg/expr"
	"github.com/vango-dev/weave/pkg/metrics"
	"github.com/vango-dev/weave/pkg/nested"
	"github.com/vango-dev/weave/pkg/scope"
	"github.com/vango-dev/weave/pkg/state"
)

// RefAttr requests that a node be exposed on the owning component.
const RefAttr = "ref"

// IndexName is the context name bound to an item's position.
const IndexName = "index"

// Type is the kind of a fragment.
type Type uint8

const (
	TypeRoot Type = iota
	TypeIf
	TypeForEach
)

func (t Type) String() string {
	switch t {
	case TypeRoot:
		return "root"
	case TypeIf:
		return "if"
	case TypeForEach:
		return "for-each"
	default:
		return "unknown"
	}
}

// Config holds the collaborators shared by a fragment tree. Zero fields
// get defaults in ParseRoot.
type Config struct {
	Component scope.Component
	Evaluator *expr.Evaluator
	State     *state.Table
	Events    *events.Parser
	Registry  *nested.Registry
	Nested    *nested.Updater
	Logger    *slog.Logger
	Metrics   *metrics.Recorder
}

// Fragment is one reconciliation unit: the root, an if block, or a
// for-each block.
type Fragment struct {
	typ    Type
	cfg    *Config
	root   *dom.Node             // TypeRoot
	desc   *directive.Descriptor // TypeIf, TypeForEach
	parent scope.Context
	closed atomic.Bool

	mounted *dom.Node // TypeIf

	items []*dom.Node       // TypeForEach, in rendered order
	keyed map[any]*dom.Node // TypeForEach with a key expression
}

var _ state.Child = (*Fragment)(nil)

// ParseRoot validates the template under root and parses it into a root
// fragment. Structural errors in any directive, however deeply nested, are
// returned here.
//
// root must be connected to its document before the first Update: bindings
// on disconnected nodes are discarded during an update.
func ParseRoot(root *dom.Node, cfg Config) (*Fragment, error) {
	if err := directive.Validate(root); err != nil {
		return nil, err
	}
	c := cfg
	if c.Logger == nil {
		c.Logger = slog.Default().With("component", "fragment")
	}
	if c.State == nil {
		c.State = state.NewTable()
	}
	if c.Evaluator == nil {
		c.Evaluator = expr.NewEvaluator(c.Component, expr.WithMetrics(c.Metrics))
	}
	if c.Events == nil {
		c.Events = events.NewParser(c.State, events.WithLogger(c.Logger), events.WithMetrics(c.Metrics))
	}
	if c.Nested == nil {
		c.Nested = nested.NewUpdater(c.Evaluator, nested.WithLogger(c.Logger), nested.WithMetrics(c.Metrics))
	}

	f := &Fragment{typ: TypeRoot, cfg: &c, root: root}
	if err := f.mountUnit(root); err != nil {
		return nil, err
	}
	return f, nil
}

func newFragment(cfg *Config, d *directive.Descriptor) *Fragment {
	f := &Fragment{cfg: cfg, desc: d}
	switch d.Kind {
	case directive.If:
		f.typ = TypeIf
	case directive.ForEach:
		f.typ = TypeForEach
		if d.Keyed() {
			f.keyed = make(map[any]*dom.Node)
		}
	}
	return f
}

// Type returns the fragment type.
func (f *Fragment) Type() Type {
	return f.typ
}

// Descriptor returns the directive an if or for-each fragment was built
// from, or nil for the root.
func (f *Fragment) Descriptor() *directive.Descriptor {
	return f.desc
}

// Placeholder returns the anchor node of an if or for-each fragment.
func (f *Fragment) Placeholder() *dom.Node {
	if f.desc == nil {
		return nil
	}
	return f.desc.Placeholder
}

// Mounted returns the live clone of an if fragment, or nil.
func (f *Fragment) Mounted() *dom.Node {
	return f.mounted
}

// Items returns the rendered item nodes of a for-each fragment in order.
func (f *Fragment) Items() []*dom.Node {
	return append([]*dom.Node(nil), f.items...)
}

// Children returns the fragments discovered directly in this fragment's
// units: the root, the mounted clone, or every item.
func (f *Fragment) Children() []*Fragment {
	var units []*dom.Node
	switch f.typ {
	case TypeRoot:
		units = []*dom.Node{f.root}
	case TypeIf:
		if f.mounted != nil {
			units = []*dom.Node{f.mounted}
		}
	case TypeForEach:
		units = f.items
	}
	var out []*Fragment
	for _, n := range units {
		entry, ok := f.cfg.State.Get(n.ID)
		if !ok {
			continue
		}
		for _, c := range entry.ChildFragments {
			if cf, ok := c.(*Fragment); ok {
				out = append(out, cf)
			}
		}
	}
	return out
}

// Context returns the context of the last update.
func (f *Fragment) Context() scope.Context {
	return f.parent
}

// Closed reports whether Cleanup has run.
func (f *Fragment) Closed() bool {
	return f.closed.Load()
}

// Update reconciles the fragment against ctx. It is a no-op after
// Cleanup.
func (f *Fragment) Update(ctx scope.Context) {
	if f.closed.Load() {
		return
	}
	f.parent = ctx
	switch f.typ {
	case TypeRoot:
		f.updateUnit(f.root, ctx)
	case TypeIf:
		f.updateIf(ctx)
	case TypeForEach:
		f.updateForEach(ctx)
	}
}

// Cleanup permanently tears the fragment down: mounted clones and items
// are removed and their bindings, listeners, and state are released. The
// root node itself stays in place. Cleanup is idempotent.
func (f *Fragment) Cleanup() {
	if !f.closed.CompareAndSwap(false, true) {
		return
	}
	switch f.typ {
	case TypeRoot:
		f.releaseUnit(f.root)
	case TypeIf:
		if f.mounted != nil {
			f.teardownUnit(f.mounted)
			f.mounted = nil
		}
	case TypeForEach:
		f.teardownItems()
	}
}

func (f *Fragment) updateIf(ctx scope.Context) {
	v := f.cfg.Evaluator.Evaluate(f.desc.Expression, ctx)
	show := v != expr.EvaluationError && expr.Truthy(v)

	switch {
	case show && f.mounted == nil:
		clone := f.desc.Template.CloneDeep()
		if err := f.mountUnit(clone); err != nil {
			f.cfg.Logger.Error("if mount failed", "expr", f.desc.Expression, "error", err)
			return
		}
		f.insert(clone, f.desc.Placeholder)
		f.mounted = clone
		f.cfg.Metrics.FragmentOp("mount")
		f.updateUnit(clone, ctx)
	case show:
		f.updateUnit(f.mounted, ctx)
	case f.mounted != nil:
		f.teardownUnit(f.mounted)
		f.mounted = nil
		f.cfg.Metrics.FragmentOp("unmount")
	}
}

// insert places n before ref under the placeholder's parent.
func (f *Fragment) insert(n, ref *dom.Node) {
	parent := f.desc.Placeholder.Parent
	if parent == nil {
		panic(fmt.Sprintf("fragment: %s placeholder has no parent", f.typ))
	}
	parent.InsertBefore(n, ref)
}

// mountUnit parses a freshly created unit: directives become child
// fragments, nested hosts get instances, declarations become bindings and
// listeners, and refs are published. The result is stored under n.
func (f *Fragment) mountUnit(n *dom.Node) error {
	descs, err := directive.Scan(n)
	if err != nil {
		return err
	}
	if f.cfg.Registry != nil {
		f.cfg.Registry.Attach(n)
	}
	bindings := binding.ParseTree(n, binding.WithKeep(nested.IsInput))
	if f.cfg.Component != nil {
		f.cfg.Events.Parse(n, f.cfg.Component, nil, true)
	}

	entry := f.cfg.State.Ensure(n.ID)
	entry.Bindings = bindings
	entry.ChildFragments = entry.ChildFragments[:0]
	entry.Nested = entry.Nested[:0]
	n.Walk(func(el *dom.Node) bool {
		if !el.IsElement() {
			return true
		}
		if name, ok := el.Attr(RefAttr); ok {
			if f.cfg.Component != nil {
				f.cfg.Component.SetRef(name, el)
			}
			el.StripAttr(RefAttr)
		}
		if _, ok := nested.InstanceOf(el); ok {
			entry.Nested = append(entry.Nested, el)
		}
		return true
	})
	for _, d := range descs {
		entry.ChildFragments = append(entry.ChildFragments, newFragment(f.cfg, d))
	}
	return nil
}

// updateUnit applies a unit's bindings, child fragments, and nested
// inputs under ctx.
func (f *Fragment) updateUnit(n *dom.Node, ctx scope.Context) {
	entry := f.cfg.State.Ensure(n.ID)
	entry.LoopContext = ctx

	binding.UpdateBindings(entry.Bindings, f.cfg.Evaluator, ctx)
	entry.Bindings = binding.FilterDisconnected(entry.Bindings)

	for _, c := range entry.ChildFragments {
		c.Update(ctx)
	}

	if len(entry.Nested) > 0 {
		hosts := entry.Nested[:0]
		for _, h := range entry.Nested {
			if h.IsConnected() {
				hosts = append(hosts, h)
			}
		}
		entry.Nested = hosts
		f.cfg.Nested.UpdateHosts(hosts, ctx)
	}
}

// teardownUnit detaches a unit from the tree and releases it.
func (f *Fragment) teardownUnit(n *dom.Node) {
	n.Remove()
	f.releaseUnit(n)
}

// releaseUnit cleans up a unit's child fragments, listeners, and state.
func (f *Fragment) releaseUnit(n *dom.Node) {
	if entry, ok := f.cfg.State.Get(n.ID); ok {
		for _, c := range entry.ChildFragments {
			c.Cleanup()
		}
	}
	f.cfg.Events.DetachTree(n)
	f.cfg.State.ClearTree(n)
}
