package dom

import "sync"

// Document owns a tree and the patch log for its connected nodes.
type Document struct {
	root *Node

	mu      sync.Mutex
	counter uint32
	patches []Patch
}

// NewDocument creates an empty document.
func NewDocument() *Document {
	d := &Document{}
	d.root = d.newNode(KindRoot)
	return d
}

// Root returns the document root. Nodes are connected when their ancestor
// chain reaches it.
func (d *Document) Root() *Node {
	return d.root
}

// CreateElement creates a detached element.
func (d *Document) CreateElement(tag string) *Node {
	n := d.newNode(KindElement)
	n.Tag = tag
	return n
}

// CreateText creates a detached text node.
func (d *Document) CreateText(s string) *Node {
	n := d.newNode(KindText)
	n.Text = s
	return n
}

// CreateComment creates a detached comment node.
func (d *Document) CreateComment(s string) *Node {
	n := d.newNode(KindComment)
	n.Text = s
	return n
}

// TakePatches returns the recorded patches and clears the log.
func (d *Document) TakePatches() []Patch {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := d.patches
	d.patches = nil
	return out
}

// PendingPatches returns the number of patches not yet taken.
func (d *Document) PendingPatches() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.patches)
}

// LastID returns the most recently allocated NodeID.
func (d *Document) LastID() NodeID {
	d.mu.Lock()
	defer d.mu.Unlock()
	return NodeID(d.counter)
}

// Find returns the connected node with the given ID.
func (d *Document) Find(id NodeID) *Node {
	var found *Node
	d.root.Walk(func(n *Node) bool {
		if found != nil {
			return false
		}
		if n.ID == id {
			found = n
			return false
		}
		return true
	})
	return found
}

func (d *Document) newNode(kind Kind) *Node {
	d.mu.Lock()
	d.counter++
	id := NodeID(d.counter)
	d.mu.Unlock()
	return &Node{ID: id, Kind: kind, doc: d}
}

func (d *Document) append(p Patch) {
	d.mu.Lock()
	d.patches = append(d.patches, p)
	d.mu.Unlock()
}
