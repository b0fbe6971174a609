package binding

import (
	"regexp"
	"strings"

	"github.com/vango-dev/weave/pkg/dom"
)

var interpolation = regexp.MustCompile(`\{\{\s*(.+?)\s*\}\}`)

// Option configures ParseTree.
type Option func(*parseConfig)

type parseConfig struct {
	keep func(n *dom.Node, name string) bool
	skip func(n *dom.Node) bool
}

// WithKeep leaves declarations for which keep returns true untouched: no
// binding is created and the attribute is not stripped. name is the
// declaration without its prefix.
func WithKeep(keep func(n *dom.Node, name string) bool) Option {
	return func(c *parseConfig) {
		c.keep = keep
	}
}

// WithSkip stops the walk from descending into nodes for which skip
// returns true. The node's own declarations are still read.
func WithSkip(skip func(n *dom.Node) bool) Option {
	return func(c *parseConfig) {
		c.skip = skip
	}
}

// ParseTree creates bindings for every declaration and interpolation under
// root, in document order. Declaration attributes are stripped once bound
// and interpolated text nodes are split.
func ParseTree(root *dom.Node, opts ...Option) []*Binding {
	var config parseConfig
	for _, opt := range opts {
		opt(&config)
	}

	var bindings []*Binding
	root.Walk(func(n *dom.Node) bool {
		switch n.Kind {
		case dom.KindText:
			bindings = append(bindings, SplitText(n)...)
		case dom.KindElement:
			bindings = append(bindings, parseElement(n, config.keep)...)
			if config.skip != nil && n != root && config.skip(n) {
				return false
			}
		}
		return true
	})
	return bindings
}

func parseElement(n *dom.Node, keep func(*dom.Node, string) bool) []*Binding {
	var bindings []*Binding
	for _, attr := range n.Attrs() {
		if !strings.HasPrefix(attr.Key, Prefix) {
			continue
		}
		if keep != nil && keep(n, attr.Key[len(Prefix):]) {
			continue
		}
		if b := CreateFromDeclaration(n, attr); b != nil {
			bindings = append(bindings, b)
			n.StripAttr(attr.Key)
		}
	}
	return bindings
}

// SplitText replaces a text node containing "{{ expr }}" spans with a run
// of static and dynamic text nodes, and returns one binding per dynamic
// node. A text node without spans is left alone.
func SplitText(n *dom.Node) []*Binding {
	text := n.Text
	matches := interpolation.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 || n.Parent == nil {
		return nil
	}

	doc := n.Document()
	parent := n.Parent
	var bindings []*Binding
	last := 0
	for _, m := range matches {
		if m[0] > last {
			parent.InsertBefore(doc.CreateText(text[last:m[0]]), n)
		}
		dynamic := doc.CreateText("")
		parent.InsertBefore(dynamic, n)
		target := dynamic
		bindings = append(bindings, &Binding{
			Expression: text[m[2]:m[3]],
			Target:     target,
			Kind:       KindText,
			Update: func(v any) {
				target.SetText(Format(v))
			},
		})
		last = m[1]
	}
	if last < len(text) {
		parent.InsertBefore(doc.CreateText(text[last:]), n)
	}
	parent.RemoveChild(n)
	return bindings
}
