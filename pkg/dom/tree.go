package dom

// IsConnected reports whether n is attached to its document's root.
func (n *Node) IsConnected() bool {
	if n == nil || n.doc == nil {
		return false
	}
	for cur := n; cur != nil; cur = cur.Parent {
		if cur == n.doc.root {
			return true
		}
	}
	return false
}

// Contains reports whether other is n or a descendant of n.
func (n *Node) Contains(other *Node) bool {
	for cur := other; cur != nil; cur = cur.Parent {
		if cur == n {
			return true
		}
	}
	return false
}

// Children returns the direct children of n.
func (n *Node) Children() []*Node {
	var out []*Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

// Walk visits n and its descendants in document order. Returning false
// from fn skips the visited node's descendants. The next sibling is read
// before a node is visited, so fn may replace the node it is given.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		c.Walk(fn)
		c = next
	}
}

// AppendChild appends c as the last child of n.
func (n *Node) AppendChild(c *Node) {
	n.InsertBefore(c, nil)
}

// InsertBefore inserts c before ref, or at the end when ref is nil. If c
// is already in a tree it is moved, and a move of a connected node within
// the same document is recorded as a single MoveNode patch.
func (n *Node) InsertBefore(c, ref *Node) {
	if ref != nil && ref.Parent != n {
		panic("dom: InsertBefore called with a reference node that is not a child")
	}
	if c == ref {
		return
	}
	if c.Parent == n && c.NextSibling == ref {
		return
	}

	wasConnected := c.IsConnected()
	oldParent := c.Parent
	if oldParent != nil {
		oldParent.unlink(c)
	}
	n.link(c, ref)

	nowConnected := n.IsConnected()
	switch {
	case wasConnected && nowConnected:
		n.doc.append(Patch{Op: PatchMoveNode, Target: c.ID, Parent: n.ID, Before: idOf(ref)})
	case nowConnected:
		n.doc.append(Patch{Op: PatchInsertNode, Target: c.ID, Parent: n.ID, Before: idOf(ref), Node: c})
	case wasConnected:
		oldParent.doc.append(Patch{Op: PatchRemoveNode, Target: c.ID, Parent: oldParent.ID})
	}
}

// RemoveChild detaches c from n.
func (n *Node) RemoveChild(c *Node) {
	if c.Parent != n {
		panic("dom: RemoveChild called for a non-child node")
	}
	wasConnected := c.IsConnected()
	n.unlink(c)
	if wasConnected {
		n.doc.append(Patch{Op: PatchRemoveNode, Target: c.ID, Parent: n.ID})
	}
}

// Remove detaches n from its parent, if any.
func (n *Node) Remove() {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// ReplaceWith puts replacement in n's position and detaches n.
func (n *Node) ReplaceWith(replacement *Node) {
	parent := n.Parent
	if parent == nil {
		return
	}
	parent.InsertBefore(replacement, n)
	parent.RemoveChild(n)
}

// CloneDeep copies n and its subtree. Attributes and properties are
// copied; listeners and hosted components are not. Clones get fresh IDs
// and are detached.
func (n *Node) CloneDeep() *Node {
	c := n.doc.newNode(n.Kind)
	c.Tag = n.Tag
	c.Text = n.Text
	if len(n.attrs) > 0 {
		c.attrs = make([]Attr, len(n.attrs))
		copy(c.attrs, n.attrs)
	}
	if len(n.props) > 0 {
		c.props = make(map[string]any, len(n.props))
		for k, v := range n.props {
			c.props[k] = v
		}
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.link(child.CloneDeep(), nil)
	}
	return c
}

// link attaches c before ref without recording anything.
func (n *Node) link(c, ref *Node) {
	c.Parent = n
	if ref == nil {
		c.PrevSibling = n.LastChild
		c.NextSibling = nil
		if n.LastChild != nil {
			n.LastChild.NextSibling = c
		} else {
			n.FirstChild = c
		}
		n.LastChild = c
		return
	}
	c.NextSibling = ref
	c.PrevSibling = ref.PrevSibling
	if ref.PrevSibling != nil {
		ref.PrevSibling.NextSibling = c
	} else {
		n.FirstChild = c
	}
	ref.PrevSibling = c
}

// unlink detaches c without recording anything.
func (n *Node) unlink(c *Node) {
	if c.PrevSibling != nil {
		c.PrevSibling.NextSibling = c.NextSibling
	} else {
		n.FirstChild = c.NextSibling
	}
	if c.NextSibling != nil {
		c.NextSibling.PrevSibling = c.PrevSibling
	} else {
		n.LastChild = c.PrevSibling
	}
	c.Parent = nil
	c.PrevSibling = nil
	c.NextSibling = nil
}

func idOf(n *Node) NodeID {
	if n == nil {
		return 0
	}
	return n.ID
}
