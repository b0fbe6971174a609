package dom

import (
	"strconv"
	"strings"
)

// Kind is the node type discriminator.
type Kind uint8

const (
	KindElement Kind = iota // <div>, <li>, etc.
	KindText                // Plain text node
	KindComment             // Comment, used for placeholders
	KindRoot                // Document root
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	case KindComment:
		return "Comment"
	case KindRoot:
		return "Root"
	default:
		return "Unknown"
	}
}

// NodeID identifies a node within its Document.
type NodeID uint32

// String returns the hydration-style form of the ID ("h12").
func (id NodeID) String() string {
	if id == 0 {
		return ""
	}
	return "h" + strconv.FormatUint(uint64(id), 10)
}

// ParseNodeID parses the form produced by NodeID.String.
func ParseNodeID(s string) (NodeID, bool) {
	if !strings.HasPrefix(s, "h") {
		return 0, false
	}
	n, err := strconv.ParseUint(s[1:], 10, 32)
	if err != nil || n == 0 {
		return 0, false
	}
	return NodeID(n), true
}

// Attr is a single element attribute.
type Attr struct {
	Key   string
	Value string
}

// Node is a node in a live tree.
type Node struct {
	ID   NodeID
	Kind Kind
	Tag  string // Element tag name, lower case
	Text string // For KindText and KindComment

	Parent      *Node
	FirstChild  *Node
	LastChild   *Node
	PrevSibling *Node
	NextSibling *Node

	doc       *Document
	attrs     []Attr
	props     map[string]any
	listeners map[string][]*Listener
	component any
}

// Document returns the document that owns n.
func (n *Node) Document() *Document {
	return n.doc
}

// IsElement reports whether n is an element node.
func (n *Node) IsElement() bool {
	return n != nil && n.Kind == KindElement
}

// Attrs returns a copy of the element's attributes in document order.
func (n *Node) Attrs() []Attr {
	out := make([]Attr, len(n.attrs))
	copy(out, n.attrs)
	return out
}

// Attr returns the value of the named attribute.
func (n *Node) Attr(key string) (string, bool) {
	for _, a := range n.attrs {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// HasAttr reports whether the named attribute is present.
func (n *Node) HasAttr(key string) bool {
	_, ok := n.Attr(key)
	return ok
}

// SetAttr sets an attribute, recording a patch if the value changed.
func (n *Node) SetAttr(key, value string) {
	for i := range n.attrs {
		if n.attrs[i].Key == key {
			if n.attrs[i].Value == value {
				return
			}
			n.attrs[i].Value = value
			n.record(Patch{Op: PatchSetAttr, Target: n.ID, Key: key, Value: value})
			return
		}
	}
	n.attrs = append(n.attrs, Attr{Key: key, Value: value})
	n.record(Patch{Op: PatchSetAttr, Target: n.ID, Key: key, Value: value})
}

// RemoveAttr removes an attribute, recording a patch if it was present.
func (n *Node) RemoveAttr(key string) {
	for i := range n.attrs {
		if n.attrs[i].Key == key {
			n.attrs = append(n.attrs[:i], n.attrs[i+1:]...)
			n.record(Patch{Op: PatchRemoveAttr, Target: n.ID, Key: key})
			return
		}
	}
}

// StripAttr removes a declaration attribute without recording a patch.
// Directive and binding parsers use it to consume template syntax.
func (n *Node) StripAttr(key string) {
	for i := range n.attrs {
		if n.attrs[i].Key == key {
			n.attrs = append(n.attrs[:i], n.attrs[i+1:]...)
			return
		}
	}
}

// SetText updates a text or comment node.
func (n *Node) SetText(s string) {
	if n.Text == s {
		return
	}
	n.Text = s
	if n.Kind == KindText {
		n.record(Patch{Op: PatchSetText, Target: n.ID, Value: s})
	}
}

// TextContent returns the concatenated text of n and its descendants.
func (n *Node) TextContent() string {
	if n.Kind == KindText {
		return n.Text
	}
	var b strings.Builder
	n.Walk(func(c *Node) bool {
		if c.Kind == KindText {
			b.WriteString(c.Text)
		}
		return true
	})
	return b.String()
}

// Prop returns a live property value (value, checked, selected).
func (n *Node) Prop(name string) (any, bool) {
	v, ok := n.props[name]
	return v, ok
}

func (n *Node) setProp(name string, v any) bool {
	if old, ok := n.props[name]; ok && old == v {
		return false
	}
	if n.props == nil {
		n.props = make(map[string]any)
	}
	n.props[name] = v
	return true
}

// SetValue sets the form-control value property.
func (n *Node) SetValue(v string) {
	if n.setProp("value", v) {
		n.record(Patch{Op: PatchSetValue, Target: n.ID, Value: v})
	}
}

// Value returns the form-control value, falling back to the value attribute.
func (n *Node) Value() string {
	if v, ok := n.props["value"].(string); ok {
		return v
	}
	v, _ := n.Attr("value")
	return v
}

// SetChecked sets the checked property.
func (n *Node) SetChecked(b bool) {
	if n.setProp("checked", b) {
		n.record(Patch{Op: PatchSetChecked, Target: n.ID, Value: strconv.FormatBool(b)})
	}
}

// Checked returns the checked property, falling back to the attribute.
func (n *Node) Checked() bool {
	if v, ok := n.props["checked"].(bool); ok {
		return v
	}
	return n.HasAttr("checked")
}

// SetSelected sets the selected property.
func (n *Node) SetSelected(b bool) {
	if n.setProp("selected", b) {
		n.record(Patch{Op: PatchSetSelected, Target: n.ID, Value: strconv.FormatBool(b)})
	}
}

// Selected returns the selected property, falling back to the attribute.
func (n *Node) Selected() bool {
	if v, ok := n.props["selected"].(bool); ok {
		return v
	}
	return n.HasAttr("selected")
}

// SetBoolAttr adds or removes a boolean attribute such as disabled.
func (n *Node) SetBoolAttr(key string, on bool) {
	if on {
		n.SetAttr(key, "")
	} else {
		n.RemoveAttr(key)
	}
}

// Classes returns the element's class list.
func (n *Node) Classes() []string {
	v, _ := n.Attr("class")
	return strings.Fields(v)
}

// HasClass reports whether the class list contains name.
func (n *Node) HasClass(name string) bool {
	for _, c := range n.Classes() {
		if c == name {
			return true
		}
	}
	return false
}

// ToggleClass adds or removes a class.
func (n *Node) ToggleClass(name string, on bool) {
	classes := n.Classes()
	idx := -1
	for i, c := range classes {
		if c == name {
			idx = i
			break
		}
	}
	switch {
	case on && idx < 0:
		classes = append(classes, name)
	case !on && idx >= 0:
		classes = append(classes[:idx], classes[idx+1:]...)
	default:
		return
	}
	if len(classes) == 0 {
		n.RemoveAttr("class")
		return
	}
	n.SetAttr("class", strings.Join(classes, " "))
}

type styleDecl struct {
	prop  string
	value string
}

func parseStyle(s string) []styleDecl {
	var decls []styleDecl
	for _, part := range strings.Split(s, ";") {
		prop, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		prop = strings.TrimSpace(prop)
		if prop == "" {
			continue
		}
		decls = append(decls, styleDecl{prop: prop, value: strings.TrimSpace(value)})
	}
	return decls
}

// Style returns the value of a style property from the style attribute.
func (n *Node) Style(prop string) string {
	v, _ := n.Attr("style")
	for _, d := range parseStyle(v) {
		if d.prop == prop {
			return d.value
		}
	}
	return ""
}

// SetStyle sets a style property. An empty value removes it.
func (n *Node) SetStyle(prop, value string) {
	current, _ := n.Attr("style")
	decls := parseStyle(current)
	found := false
	out := decls[:0]
	for _, d := range decls {
		if d.prop == prop {
			found = true
			if value == "" {
				continue
			}
			d.value = value
		}
		out = append(out, d)
	}
	if !found && value != "" {
		out = append(out, styleDecl{prop: prop, value: value})
	}
	if len(out) == 0 {
		n.RemoveAttr("style")
		return
	}
	parts := make([]string, len(out))
	for i, d := range out {
		parts[i] = d.prop + ": " + d.value
	}
	n.SetAttr("style", strings.Join(parts, "; "))
}

// Component returns the component instance hosted by this element, if any.
func (n *Node) Component() any {
	return n.component
}

// SetComponent attaches a hosted component instance to the element.
func (n *Node) SetComponent(c any) {
	n.component = c
}

// record appends a patch when n is attached to its document.
func (n *Node) record(p Patch) {
	if n.doc != nil && n.IsConnected() {
		n.doc.append(p)
	}
}
