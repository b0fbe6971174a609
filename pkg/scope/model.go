package scope

import (
	"sync"

	"github.com/vango-dev/weave/pkg/dom"
)

// Model is a map-backed Component. It is the component used by the CLI
// and the live server, and a convenient base for tests.
type Model struct {
	mu      sync.RWMutex
	props   Context
	private map[string]any
	methods map[string]any
	refs    map[string]*dom.Node
}

// NewModel creates a Model with the given reactive properties.
func NewModel(props Context) *Model {
	if props == nil {
		props = Context{}
	}
	return &Model{
		props:   props,
		private: make(map[string]any),
		methods: make(map[string]any),
		refs:    make(map[string]*dom.Node),
	}
}

// Context returns a snapshot of the reactive properties.
func (m *Model) Context() Context {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Merge(m.props)
}

// Set replaces a reactive property.
func (m *Model) Set(name string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := m.props.With(name, value)
	m.props = next
}

// SetPrivate stores a property reachable only through bare-path lookup.
func (m *Model) SetPrivate(name string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.private[name] = value
}

// Property implements Component.
func (m *Model) Property(name string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if v, ok := m.private[name]; ok {
		return v, true
	}
	v, ok := m.props[name]
	return v, ok
}

// Method registers a callable method.
func (m *Model) Method(name string, fn any) *Model {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.methods[name] = fn
	return m
}

// Methods implements Component.
func (m *Model) Methods() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]any, len(m.methods))
	for k, v := range m.methods {
		out[k] = v
	}
	return out
}

// SetRef implements Component.
func (m *Model) SetRef(name string, node *dom.Node) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refs[name] = node
}

// Ref returns a node registered with ref="name".
func (m *Model) Ref(name string) *dom.Node {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.refs[name]
}
