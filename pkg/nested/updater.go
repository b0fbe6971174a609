package nested

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/vango-dev/weave/pkg/binding"
	"github.com/vango-dev/weave/pkg/dom"
	"github.com/vango-dev/weave/pkg/metrics"
	"github.com/vango-dev/weave/pkg/scope"
)

// Updater writes evaluated input declarations into nested instances.
type Updater struct {
	ev      binding.Evaluator
	logger  *slog.Logger
	metrics *metrics.Recorder
	notify  func()

	mu      sync.Mutex
	pending []func()
	waiting map[Instance]*deferred
	done    chan struct{}
	closed  bool
	waiters sync.WaitGroup
}

// deferred holds the latest values for an instance that is not ready.
type deferred struct {
	values []input
}

type input struct {
	name  string
	value any
}

// Option configures an Updater.
type Option func(*Updater)

// WithLogger sets the logger for propagation failures.
func WithLogger(l *slog.Logger) Option {
	return func(u *Updater) {
		if l != nil {
			u.logger = l
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(r *metrics.Recorder) Option {
	return func(u *Updater) {
		u.metrics = r
	}
}

// WithNotify sets a callback run, from another goroutine, whenever a
// deferred update becomes ready to flush.
func WithNotify(fn func()) Option {
	return func(u *Updater) {
		u.notify = fn
	}
}

// NewUpdater creates an updater that evaluates declarations with ev.
func NewUpdater(ev binding.Evaluator, opts ...Option) *Updater {
	u := &Updater{
		ev:      ev,
		logger:  slog.Default().With("component", "nested"),
		waiting: make(map[Instance]*deferred),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Update evaluates the input declarations of every instance hosted under
// root against ctx and writes them. See UpdateHosts.
func (u *Updater) Update(root *dom.Node, ctx scope.Context) {
	var hosts []*dom.Node
	root.Walk(func(n *dom.Node) bool {
		if _, ok := InstanceOf(n); ok {
			hosts = append(hosts, n)
		}
		return true
	})
	u.UpdateHosts(hosts, ctx)
}

// UpdateHosts evaluates the input declarations of each host's instance
// against ctx and writes them. Ready instances are written now; others are
// written by the first Flush after they become ready. Work queued by
// earlier updates is flushed first.
func (u *Updater) UpdateHosts(hosts []*dom.Node, ctx scope.Context) {
	u.Flush()
	for _, n := range hosts {
		inst, ok := InstanceOf(n)
		if !ok {
			continue
		}
		values := u.evaluate(n, inst, ctx)
		if len(values) == 0 {
			continue
		}
		select {
		case <-inst.Ready():
			u.apply(inst, values)
		default:
			u.deferUntilReady(inst, values)
		}
	}
}

// evaluate reads the host's declarations that target inputs.
func (u *Updater) evaluate(host *dom.Node, inst Instance, ctx scope.Context) []input {
	var values []input
	for _, attr := range host.Attrs() {
		if !strings.HasPrefix(attr.Key, binding.Prefix) {
			continue
		}
		name, ok := matchInput(inst, attr.Key[len(binding.Prefix):])
		if !ok {
			continue
		}
		values = append(values, input{name: name, value: u.ev.Evaluate(attr.Value, ctx)})
	}
	return values
}

// apply writes values into inst. Each property is isolated: a failing or
// panicking setter is logged and the rest are still written.
func (u *Updater) apply(inst Instance, values []input) {
	backed, hasBacking := inst.(Backed)
	wroteBacking := false
	for _, in := range values {
		mode, err := u.set(inst, backed, hasBacking, in)
		if err != nil {
			u.metrics.NestedPropagation("error")
			u.logger.Warn("nested property propagation failed", "input", in.name, "error", err)
			continue
		}
		u.metrics.NestedPropagation(mode)
		if mode == "backing" {
			wroteBacking = true
		}
	}
	if wroteBacking {
		u.safely("update", func() { backed.Update(scope.Context{}) })
	}
}

func (u *Updater) set(inst Instance, backed Backed, hasBacking bool, in input) (mode string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	if hasBacking && backed.SetBacking(in.name, in.value) {
		return "backing", nil
	}
	return "setter", inst.SetProperty(in.name, in.value)
}

func (u *Updater) safely(what string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			u.metrics.NestedPropagation("error")
			u.logger.Warn("nested component "+what+" panicked", "error", fmt.Errorf("%v", r))
		}
	}()
	fn()
}

// deferUntilReady records values for an instance that is not ready yet. One waiter
// runs per instance; later updates replace the values it will write.
func (u *Updater) deferUntilReady(inst Instance, values []input) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed {
		return
	}
	u.metrics.NestedPropagation("deferred")
	if d, ok := u.waiting[inst]; ok {
		d.values = values
		return
	}
	d := &deferred{values: values}
	u.waiting[inst] = d

	u.waiters.Add(1)
	go func() {
		defer u.waiters.Done()
		select {
		case <-inst.Ready():
		case <-u.done:
			return
		}
		u.mu.Lock()
		if u.closed {
			u.mu.Unlock()
			return
		}
		delete(u.waiting, inst)
		u.pending = append(u.pending, func() {
			if !inst.Connected() {
				return
			}
			u.apply(inst, d.values)
		})
		notify := u.notify
		u.mu.Unlock()
		if notify != nil {
			notify()
		}
	}()
}

// Flush runs deferred writes whose instances have become ready and
// returns how many ran. Writes to instances that have disconnected in the
// meantime are dropped.
func (u *Updater) Flush() int {
	u.mu.Lock()
	if u.closed {
		u.mu.Unlock()
		return 0
	}
	work := u.pending
	u.pending = nil
	u.mu.Unlock()

	for _, fn := range work {
		fn()
	}
	return len(work)
}

// Pending returns the number of writes waiting for Flush plus instances
// still waiting to become ready.
func (u *Updater) Pending() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.pending) + len(u.waiting)
}

// Wait blocks until every waiter has either queued its write or been
// cancelled. It does not return while an instance stays not ready.
func (u *Updater) Wait() {
	u.waiters.Wait()
}

// Close cancels all deferred writes. It is safe to call more than once
// and concurrently with waiters resolving.
func (u *Updater) Close() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed {
		return
	}
	u.closed = true
	close(u.done)
	u.pending = nil
	u.waiting = make(map[Instance]*deferred)
}
