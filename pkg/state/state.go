// Package state keeps reconciliation metadata for tree nodes in a side
// table keyed by node identity, so the nodes themselves stay plain.
package state

import (
	"sync"

	"github.com/vango-dev/weave/pkg/binding"
	"github.com/vango-dev/weave/pkg/dom"
	"github.com/vango-dev/weave/pkg/scope"
)

// Child is a reconciliation unit owned by a node, such as a fragment
// discovered inside a list item.
type Child interface {
	Update(ctx scope.Context)
	Cleanup()
}

// Entry is the metadata held for one node.
type Entry struct {
	// LoopContext is the context the node was rendered under, used by
	// event handlers fired after the pass that created it.
	LoopContext scope.Context

	// EventListeners holds the listener attached per event type.
	EventListeners map[string]*dom.Listener

	// Bindings are the bindings rooted at this node.
	Bindings []*binding.Binding

	// ChildFragments are the fragments discovered within the node.
	ChildFragments []Child

	// Nested are the nested-component hosts within the node, excluding
	// those inside child fragments.
	Nested []*dom.Node

	// ForEachItem is the collection item a list node renders.
	ForEachItem any

	// Key is the node's key in a keyed list.
	Key any
}

// Store associates entries with nodes.
type Store interface {
	Get(id dom.NodeID) (*Entry, bool)
	Set(id dom.NodeID, e *Entry)
	Clear(id dom.NodeID)
}

// Table is a concurrency-safe Store. Entries are not released when a node
// is dropped; callers clear them when a node is permanently removed.
type Table struct {
	mu      sync.RWMutex
	entries map[dom.NodeID]*Entry
}

var _ Store = (*Table)(nil)

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{entries: make(map[dom.NodeID]*Entry)}
}

// Get returns the entry for id.
func (t *Table) Get(id dom.NodeID) (*Entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[id]
	return e, ok
}

// Set replaces the entry for id.
func (t *Table) Set(id dom.NodeID, e *Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[id] = e
}

// Ensure returns the entry for id, creating an empty one if needed.
func (t *Table) Ensure(id dom.NodeID) *Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[id]
	if !ok {
		e = &Entry{}
		t.entries[id] = e
	}
	return e
}

// Clear removes the entry for id.
func (t *Table) Clear(id dom.NodeID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, id)
}

// ClearTree removes the entries for root and all of its descendants.
func (t *Table) ClearTree(root *dom.Node) {
	t.mu.Lock()
	defer t.mu.Unlock()
	root.Walk(func(n *dom.Node) bool {
		delete(t.entries, n.ID)
		return true
	})
}

// Len returns the number of entries.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Nearest returns the entry of n or of its closest ancestor that has one.
func (t *Table) Nearest(n *dom.Node) (*Entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for cur := n; cur != nil; cur = cur.Parent {
		if e, ok := t.entries[cur.ID]; ok {
			return e, true
		}
	}
	return nil, false
}

// LoopContext returns the LoopContext of the nearest entry above n that
// carries one.
func (t *Table) LoopContext(n *dom.Node) scope.Context {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for cur := n; cur != nil; cur = cur.Parent {
		if e, ok := t.entries[cur.ID]; ok && e.LoopContext != nil {
			return e.LoopContext
		}
	}
	return nil
}
