package nested

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/vango-dev/weave/pkg/dom"
	"github.com/vango-dev/weave/pkg/expr"
	"github.com/vango-dev/weave/pkg/scope"
)

// card is a test instance with a public setter and optional backing.
type card struct {
	mu        sync.Mutex
	inputs    []string
	ready     chan struct{}
	connected bool
	props     map[string]any
	sets      int
	failOn    string
	panicOn   string
}

func newCard(ready bool, inputs ...string) *card {
	c := &card{inputs: inputs, ready: make(chan struct{}), connected: true, props: map[string]any{}}
	if ready {
		close(c.ready)
	}
	return c
}

func (c *card) Inputs() []string       { return c.inputs }
func (c *card) Ready() <-chan struct{} { return c.ready }

func (c *card) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *card) SetProperty(name string, v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if name == c.failOn {
		return errors.New("rejected")
	}
	if name == c.panicOn {
		panic("setter exploded")
	}
	c.props[name] = v
	c.sets++
	return nil
}

func (c *card) prop(name string) any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.props[name]
}

// backedCard stores inputs in backing fields and counts updates.
type backedCard struct {
	*card
	backing map[string]any
	updates int
}

func (b *backedCard) SetBacking(name string, v any) bool {
	if name != "title" {
		return false
	}
	b.backing[name] = v
	return true
}

func (b *backedCard) Update(scope.Context) { b.updates++ }

func newTestUpdater(opts ...Option) *Updater {
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	ev := expr.NewEvaluator(nil, expr.WithCache(expr.NewCache(16)), expr.WithLogger(quiet))
	return NewUpdater(ev, append([]Option{WithLogger(quiet)}, opts...)...)
}

// host builds <x-card> with the given declarations and attaches inst.
func host(inst Instance, attrs ...string) (*dom.Node, *dom.Node) {
	doc := dom.NewDocument()
	root := doc.CreateElement("div")
	doc.Root().AppendChild(root)
	el := doc.CreateElement("x-card")
	for i := 0; i+1 < len(attrs); i += 2 {
		el.SetAttr(attrs[i], attrs[i+1])
	}
	el.SetComponent(inst)
	root.AppendChild(el)
	return root, el
}

func TestRegistryAttach(t *testing.T) {
	reg := NewRegistry()
	made := 0
	reg.Register("X-Card", func(*dom.Node) Instance { made++; return newCard(true, "title") })

	doc := dom.NewDocument()
	root := doc.CreateElement("div")
	if err := doc.ParseInto(root, `<x-card></x-card><p><x-card></x-card></p><y-other></y-other>`); err != nil {
		t.Fatalf("ParseInto: %v", err)
	}
	if got := len(reg.Attach(root)); got != 2 {
		t.Errorf("Attach created %d, want 2", got)
	}
	if got := len(reg.Attach(root)); got != 0 {
		t.Errorf("second Attach created %d, want 0", got)
	}
	if made != 2 {
		t.Errorf("factory called %d times, want 2", made)
	}
	if !IsInput(root.FirstChild, "title") || IsInput(root.FirstChild, "other") {
		t.Error("IsInput did not match the instance inputs")
	}
}

func TestUpdateWritesReadyInstance(t *testing.T) {
	u := newTestUpdater()
	c := newCard(true, "userName", "count")
	root, _ := host(c, ":username", "user.name", ":count", "n + 1", ":ignored", "x", "class", "c")

	u.Update(root, scope.Context{"user": map[string]any{"name": "Ada"}, "n": 1})
	if got := c.prop("userName"); got != "Ada" {
		t.Errorf("userName = %v, want Ada", got)
	}
	if got := c.prop("count"); got != float64(2) {
		t.Errorf("count = %v, want 2", got)
	}
	if _, ok := c.props["ignored"]; ok {
		t.Error("non-input declaration was written")
	}
}

func TestUpdatePrefersBacking(t *testing.T) {
	u := newTestUpdater()
	b := &backedCard{card: newCard(true, "title", "size"), backing: map[string]any{}}
	root, _ := host(b, ":title", "'hello'", ":size", "3")

	u.Update(root, scope.Context{})
	if b.backing["title"] != "hello" {
		t.Errorf("backing title = %v, want hello", b.backing["title"])
	}
	if _, ok := b.props["title"]; ok {
		t.Error("title went through the setter")
	}
	if b.prop("size") != float64(3) {
		t.Errorf("size = %v, want setter write", b.prop("size"))
	}
	if b.updates != 1 {
		t.Errorf("updates = %d, want 1", b.updates)
	}
}

func TestPropagationErrorsAreIsolated(t *testing.T) {
	u := newTestUpdater()
	c := newCard(true, "a", "b", "c")
	c.failOn = "a"
	c.panicOn = "b"
	root, _ := host(c, ":a", "1", ":b", "2", ":c", "3")

	u.Update(root, scope.Context{})
	if c.prop("c") != float64(3) {
		t.Errorf("c = %v; a failing sibling stopped propagation", c.prop("c"))
	}
}

func TestDeferredUntilReady(t *testing.T) {
	notified := make(chan struct{}, 4)
	u := newTestUpdater(WithNotify(func() { notified <- struct{}{} }))
	c := newCard(false, "title")
	root, _ := host(c, ":title", "title")

	u.Update(root, scope.Context{"title": "first"})
	u.Update(root, scope.Context{"title": "second"})
	if c.sets != 0 {
		t.Fatalf("wrote %d times before ready", c.sets)
	}
	if u.Pending() != 1 {
		t.Errorf("Pending() = %d, want one waiting instance", u.Pending())
	}

	close(c.ready)
	u.Wait()
	<-notified

	if n := u.Flush(); n != 1 {
		t.Errorf("Flush ran %d writes, want 1", n)
	}
	if got := c.prop("title"); got != "second" {
		t.Errorf("title = %v, want the latest value", got)
	}
}

func TestDeferredSkipsDisconnected(t *testing.T) {
	u := newTestUpdater()
	c := newCard(false, "title")
	root, _ := host(c, ":title", "'x'")

	u.Update(root, scope.Context{})
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()
	close(c.ready)
	u.Wait()
	u.Flush()

	if c.sets != 0 {
		t.Errorf("wrote %d times to a disconnected instance", c.sets)
	}
}

func TestCloseCancelsDeferred(t *testing.T) {
	u := newTestUpdater()
	c := newCard(false, "title")
	root, _ := host(c, ":title", "'x'")

	u.Update(root, scope.Context{})
	u.Close()
	u.Close()
	u.Wait()

	close(c.ready)
	if n := u.Flush(); n != 0 {
		t.Errorf("Flush after Close ran %d writes", n)
	}

	// Ready instances are still written synchronously after Close.
	u.Update(root, scope.Context{})
	if c.sets != 1 {
		t.Errorf("sets = %d, want 1", c.sets)
	}
}

func TestCloseRacesWithReady(t *testing.T) {
	for i := 0; i < 50; i++ {
		u := newTestUpdater()
		c := newCard(false, "title")
		root, _ := host(c, ":title", "'x'")
		u.Update(root, scope.Context{})

		var wg sync.WaitGroup
		wg.Add(2)
		go func() { defer wg.Done(); close(c.ready) }()
		go func() { defer wg.Done(); u.Close() }()
		wg.Wait()
		u.Wait()
		if n := u.Flush(); n != 0 {
			t.Fatalf("Flush after Close ran %d writes", n)
		}
	}
}
