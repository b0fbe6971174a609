// Package scope defines the evaluation context and the owning-component
// contract shared by the reconciliation packages.
package scope

import (
	"sort"

	"github.com/vango-dev/weave/pkg/dom"
)

// Context maps names to values for one reconciliation pass. A Context is
// never mutated once handed to the engine; With and Merge return copies.
type Context map[string]any

// Merge layers contexts left to right; later layers win.
func Merge(layers ...Context) Context {
	size := 0
	for _, l := range layers {
		size += len(l)
	}
	out := make(Context, size)
	for _, l := range layers {
		for k, v := range l {
			out[k] = v
		}
	}
	return out
}

// With returns a copy of c with name bound to value.
func (c Context) With(name string, value any) Context {
	out := make(Context, len(c)+1)
	for k, v := range c {
		out[k] = v
	}
	out[name] = value
	return out
}

// Keys returns the sorted names bound in c.
func (c Context) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Lookup returns the value bound to name.
func (c Context) Lookup(name string) (any, bool) {
	v, ok := c[name]
	return v, ok
}

// Component is the owning component a template is reconciled for.
type Component interface {
	// Context returns the component's derived reactive properties.
	Context() Context

	// Methods returns callable methods keyed by name. Values are Go
	// functions; event handlers and expression calls adapt them.
	Methods() map[string]any

	// Property returns a private or public property not exposed through
	// Context.
	Property(name string) (any, bool)

	// SetRef receives nodes declared with ref="name".
	SetRef(name string, node *dom.Node)
}
