// Package nested propagates parent context into nested component
// instances hosted inside a template.
//
// A nested component is an element whose tag is registered in a Registry.
// Its inputs are declared on the host element as ":"-prefixed attributes
// naming one of the instance's Inputs. On every update the Updater
// evaluates those declarations and writes the results into the instance,
// deferring the write until the instance reports it is ready.
package nested

import (
	"sort"
	"strings"
	"sync"

	"github.com/vango-dev/weave/pkg/dom"
	"github.com/vango-dev/weave/pkg/scope"
)

// Instance is a nested component.
type Instance interface {
	// Inputs returns the names of the properties the parent may set.
	Inputs() []string

	// SetProperty sets a property through the public setter, which
	// schedules the instance's own update.
	SetProperty(name string, value any) error

	// Ready is closed once the instance can accept properties.
	Ready() <-chan struct{}

	// Connected reports whether the instance is still live.
	Connected() bool
}

// Backed is implemented by instances whose properties have backing
// storage that can be written without triggering an update per property.
type Backed interface {
	// SetBacking writes the backing field for name and reports whether
	// such a field exists.
	SetBacking(name string, value any) bool

	// Update runs the instance's update once after backing writes.
	Update(ctx scope.Context)
}

// Factory creates the instance hosted by an element.
type Factory func(host *dom.Node) Instance

// Registry maps custom element tags to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register associates tag with f. Tags are case-insensitive.
func (r *Registry) Register(tag string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[strings.ToLower(tag)] = f
}

// Lookup returns the factory for tag.
func (r *Registry) Lookup(tag string) (Factory, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[strings.ToLower(tag)]
	return f, ok
}

// Tags returns the registered tags in order.
func (r *Registry) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tags := make([]string, 0, len(r.factories))
	for tag := range r.factories {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Attach creates an instance for every registered host under root that
// has none yet, and returns the instances created.
func (r *Registry) Attach(root *dom.Node) []Instance {
	var created []Instance
	root.Walk(func(n *dom.Node) bool {
		if !n.IsElement() || n.Component() != nil {
			return true
		}
		f, ok := r.Lookup(n.Tag)
		if !ok {
			return true
		}
		if inst := f(n); inst != nil {
			n.SetComponent(inst)
			created = append(created, inst)
		}
		return true
	})
	return created
}

// InstanceOf returns the nested instance hosted by n.
func InstanceOf(n *dom.Node) (Instance, bool) {
	if !n.IsElement() {
		return nil, false
	}
	inst, ok := n.Component().(Instance)
	return inst, ok
}

// IsInput reports whether the declaration name on n targets an input of
// the instance n hosts. It is used to keep such declarations out of the
// ordinary binding pass.
func IsInput(n *dom.Node, name string) bool {
	inst, ok := InstanceOf(n)
	if !ok {
		return false
	}
	_, ok = matchInput(inst, name)
	return ok
}

// matchInput maps a declaration name, which the HTML parser lower-cases,
// to the instance's spelling of the input.
func matchInput(inst Instance, name string) (string, bool) {
	for _, in := range inst.Inputs() {
		if strings.EqualFold(in, name) {
			return in, true
		}
	}
	return "", false
}
