package weave

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/weave/pkg/dom"
	"github.com/vango-dev/weave/pkg/metrics"
	"github.com/vango-dev/weave/pkg/nested"
	"github.com/vango-dev/weave/pkg/scope"

	werrors "github.com/vango-dev/weave/internal/errors"
)

func testConfig() Config {
	return Config{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func mustView(t *testing.T, markup string, comp scope.Component, cfg Config) *View {
	t.Helper()
	v, err := New(markup, comp, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(v.Cleanup)
	return v
}

func find(root *dom.Node, tag string) *dom.Node {
	var found *dom.Node
	root.Walk(func(n *dom.Node) bool {
		if found == nil && n.Tag == tag {
			found = n
		}
		return found == nil
	})
	return found
}

func TestFirstRender(t *testing.T) {
	model := scope.NewModel(scope.Context{"title": "Todos"})
	v := mustView(t, `<h1>{{ title }}</h1><ul><li for-each="t in todos">{{ t }}</li></ul>`, model, testConfig())

	if got := v.HTML(); got != "<h1></h1><ul></ul>" {
		t.Errorf("HTML() before update = %q", got)
	}
	if _, err := v.Update(context.Background(), scope.Context{"todos": []string{"a", "b"}}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	want := "<h1>Todos</h1><ul><li>a</li><li>b</li></ul>"
	if got := v.HTML(); got != want {
		t.Errorf("HTML() = %q, want %q", got, want)
	}
}

func TestContextPrecedence(t *testing.T) {
	model := scope.NewModel(scope.Context{"name": "component", "shadow": "component"})
	model.Method("shadow", func() {})
	model.Method("greet", func(s string) string { return "hi " + s })
	v := mustView(t, "", model, testConfig())

	ctx := v.Context(scope.Context{"name": "data"})
	if ctx["name"] != "data" {
		t.Errorf("name = %v, want data", ctx["name"])
	}
	if ctx["shadow"] != "component" {
		t.Errorf("shadow = %v, want the component property over the method", ctx["shadow"])
	}
	if _, ok := ctx["greet"].(func(string) string); !ok {
		t.Errorf("greet = %T, want the method", ctx["greet"])
	}
}

func TestUpdateReturnsPatches(t *testing.T) {
	v := mustView(t, `<p if="on">{{ msg }}</p>`, nil, testConfig())
	ctx := context.Background()

	v.Update(ctx, scope.Context{"on": false, "msg": "x"})
	patches, err := v.Update(ctx, scope.Context{"on": true, "msg": "x"})
	if err != nil {
		t.Fatal(err)
	}
	if got := dom.CountOps(patches)[dom.PatchInsertNode]; got != 1 {
		t.Errorf("InsertNode patches = %d, want 1", got)
	}
	patches, _ = v.Update(ctx, scope.Context{"on": true, "msg": "y"})
	want := map[dom.PatchOp]int{dom.PatchSetText: 1}
	if diff := cmp.Diff(want, dom.CountOps(patches)); diff != "" {
		t.Errorf("patches (-want +got):\n%s", diff)
	}
}

func TestDispatchRefreshes(t *testing.T) {
	model := scope.NewModel(scope.Context{"count": 0})
	model.Method("inc", func() {
		n, _ := model.Property("count")
		model.Set("count", n.(int)+1)
	})
	v := mustView(t, `<button @click="inc">{{ count }}</button>`, model, testConfig())
	ctx := context.Background()
	v.Update(ctx, nil)

	button := find(v.Host(), "button")
	patches, err := v.Dispatch(ctx, button.ID, "click", nil)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(patches) != 1 || patches[0].Op != dom.PatchSetText || patches[0].Value != "1" {
		t.Errorf("patches = %+v, want one SetText to 1", patches)
	}
	if got := v.HTML(); got != "<button>1</button>" {
		t.Errorf("HTML() = %q", got)
	}

	if _, err := v.Dispatch(ctx, dom.NodeID(9999), "click", nil); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("Dispatch(unknown) error = %v, want ErrUnknownNode", err)
	}
}

func TestItemHandlersSeeLoopContext(t *testing.T) {
	model := scope.NewModel(nil)
	var removed any
	model.Method("remove", func(ev *dom.Event, ctx scope.Context) {
		removed = ctx["item"]
	})
	v := mustView(t, `<li for-each="item in items"><a @click="remove">{{ item }}</a></li>`, model, testConfig())
	ctx := context.Background()
	v.Update(ctx, scope.Context{"items": []any{"x", "y"}})

	var links []*dom.Node
	v.Host().Walk(func(n *dom.Node) bool {
		if n.Tag == "a" {
			links = append(links, n)
		}
		return true
	})
	if len(links) != 2 {
		t.Fatalf("%d links, want 2", len(links))
	}
	if _, err := v.Dispatch(ctx, links[1].ID, "click", nil); err != nil {
		t.Fatal(err)
	}
	if removed != "y" {
		t.Errorf("handler item = %v, want y", removed)
	}
}

func TestStructuralErrors(t *testing.T) {
	tests := []struct {
		markup string
		code   string
	}{
		{`<li for-each="x of xs"></li>`, "W101"},
		{`<li for-each=" in xs"></li>`, "W102"},
		{`<li for-each="x in "></li>`, "W103"},
		{`<li if="a" for-each="x in xs"></li>`, "W104"},
		{`<li if=""></li>`, "W105"},
		{`<div><p><b if="a"><i for-each="x"></i></b></p></div>`, "W101"},
	}
	for _, tt := range tests {
		_, err := New(tt.markup, nil, testConfig())
		if !werrors.HasCode(err, tt.code) {
			t.Errorf("New(%q) error = %v, want %s", tt.markup, err, tt.code)
		}
	}
}

func TestCleanup(t *testing.T) {
	v, err := New(`<p if="on">x</p>`, nil, testConfig())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	v.Update(ctx, scope.Context{"on": true})
	v.Cleanup()
	v.Cleanup()

	if got := v.HTML(); got != "" {
		t.Errorf("HTML() after Cleanup = %q", got)
	}
	if _, err := v.Update(ctx, nil); !errors.Is(err, ErrClosed) {
		t.Errorf("Update after Cleanup error = %v, want ErrClosed", err)
	}
}

// slowCard becomes ready when its channel is closed.
type slowCard struct {
	ready chan struct{}
	label any
}

func (c *slowCard) Inputs() []string       { return []string{"label"} }
func (c *slowCard) Ready() <-chan struct{} { return c.ready }
func (c *slowCard) Connected() bool        { return true }
func (c *slowCard) SetProperty(name string, v any) error {
	c.label = v
	return nil
}

func TestDeferredNestedWrites(t *testing.T) {
	card := &slowCard{ready: make(chan struct{})}
	reg := nested.NewRegistry()
	reg.Register("x-card", func(*dom.Node) nested.Instance { return card })

	notified := make(chan struct{}, 1)
	cfg := testConfig()
	cfg.Components = reg
	cfg.OnDeferred = func() { notified <- struct{}{} }
	v := mustView(t, `<x-card :label="name"></x-card>`, nil, cfg)

	v.Update(context.Background(), scope.Context{"name": "first"})
	v.Update(context.Background(), scope.Context{"name": "second"})
	if card.label != nil {
		t.Fatalf("label = %v before ready", card.label)
	}

	close(card.ready)
	<-notified
	v.Flush()
	if card.label != "second" {
		t.Errorf("label = %v, want the latest value", card.label)
	}
	if n := v.PendingDeferred(); n != 0 {
		t.Errorf("PendingDeferred() = %d, want 0", n)
	}
}

func TestUpdateMetrics(t *testing.T) {
	rec := metrics.New()
	cfg := testConfig()
	cfg.Metrics = rec
	v := mustView(t, `<span>{{ n }}</span>`, nil, cfg)
	v.Update(context.Background(), scope.Context{"n": 1})
	v.Update(context.Background(), scope.Context{"n": 2})

	families, err := rec.Registry().Gather()
	if err != nil {
		t.Fatal(err)
	}
	var observed uint64
	for _, mf := range families {
		if mf.GetName() == "weave_update_duration_seconds" {
			observed = mf.GetMetric()[0].GetHistogram().GetSampleCount()
		}
	}
	if observed != 2 {
		t.Errorf("update observations = %d, want 2", observed)
	}
}
