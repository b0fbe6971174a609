// Package binding turns ":"-prefixed attribute declarations and "{{ }}"
// text spans into live bindings between an expression and a node.
package binding

import (
	"strings"

	"github.com/vango-dev/weave/pkg/dom"
	"github.com/vango-dev/weave/pkg/expr"
	"github.com/vango-dev/weave/pkg/scope"
)

// Prefix marks a binding declaration attribute.
const Prefix = ":"

// Kind identifies what a binding writes to.
type Kind uint8

const (
	KindText Kind = iota
	KindAttribute
	KindProperty
	KindClass
	KindStyle
	KindHTML
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindAttribute:
		return "attribute"
	case KindProperty:
		return "property"
	case KindClass:
		return "class"
	case KindStyle:
		return "style"
	case KindHTML:
		return "html"
	default:
		return "unknown"
	}
}

// Evaluator evaluates an expression against a context. *expr.Evaluator
// satisfies it.
type Evaluator interface {
	Evaluate(expression string, ctx scope.Context) any
}

// Binding is a live association between an expression and one write on a
// target node.
type Binding struct {
	Expression string
	Target     *dom.Node
	Kind       Kind
	Name       string // attribute, property, class, or style name

	// Update writes an evaluated value to Target.
	Update func(value any)
}

// Apply evaluates the expression and writes the result.
func (b *Binding) Apply(ev Evaluator, ctx scope.Context) {
	b.Update(ev.Evaluate(b.Expression, ctx))
}

// Connected reports whether the target is attached to the live tree.
func (b *Binding) Connected() bool {
	return b.Target.IsConnected()
}

// propertySetters are form-control properties written through the node's
// property API rather than as attributes.
var propertySetters = map[string]func(n *dom.Node, v any){
	"value": func(n *dom.Node, v any) {
		n.SetValue(Format(v))
	},
	"checked": func(n *dom.Node, v any) {
		n.SetChecked(expr.Truthy(v))
	},
	"selected": func(n *dom.Node, v any) {
		n.SetSelected(expr.Truthy(v))
	},
	"disabled": func(n *dom.Node, v any) {
		n.SetBoolAttr("disabled", expr.Truthy(v))
	},
	"readonly": func(n *dom.Node, v any) {
		n.SetBoolAttr("readonly", expr.Truthy(v))
	},
}

// CreateFromDeclaration builds the binding declared by attr on node. It
// returns nil if attr is not a binding declaration. The declaration
// attribute itself is left in place.
func CreateFromDeclaration(node *dom.Node, attr dom.Attr) *Binding {
	if !strings.HasPrefix(attr.Key, Prefix) || len(attr.Key) == len(Prefix) {
		return nil
	}
	name := attr.Key[len(Prefix):]
	b := &Binding{Expression: strings.TrimSpace(attr.Value), Target: node}

	switch {
	case strings.EqualFold(name, "innerhtml"):
		b.Kind = KindHTML
		b.Update = func(v any) {
			if err := node.SetInnerHTML(Format(v)); err != nil {
				_ = node.SetInnerHTML("")
			}
		}

	case strings.HasPrefix(name, "class."):
		b.Kind = KindClass
		b.Name = name[len("class."):]
		b.Update = func(v any) {
			node.ToggleClass(b.Name, v != expr.EvaluationError && expr.Truthy(v))
		}

	case strings.HasPrefix(name, "style."):
		b.Kind = KindStyle
		b.Name = name[len("style."):]
		b.Update = func(v any) {
			node.SetStyle(b.Name, Format(v))
		}

	default:
		b.Name = name
		if set, ok := propertySetters[strings.ToLower(name)]; ok {
			b.Kind = KindProperty
			b.Update = func(v any) { set(node, v) }
			break
		}
		b.Kind = KindAttribute
		b.Update = func(v any) {
			if expr.IsAbsent(v) {
				node.RemoveAttr(name)
				return
			}
			node.SetAttr(name, Format(v))
		}
	}
	return b
}

// Format converts a value to display text. Absent values format as "".
func Format(v any) string {
	if expr.IsAbsent(v) {
		return ""
	}
	return expr.ToString(v)
}

// UpdateBindings applies each binding whose target is still connected.
// Disconnected bindings are skipped, not removed; see FilterDisconnected.
func UpdateBindings(bindings []*Binding, ev Evaluator, ctx scope.Context) {
	for _, b := range bindings {
		if !b.Connected() {
			continue
		}
		b.Apply(ev, ctx)
	}
}

// FilterDisconnected drops bindings whose target has left the live tree.
// It reuses the backing array of bindings.
func FilterDisconnected(bindings []*Binding) []*Binding {
	kept := bindings[:0]
	for _, b := range bindings {
		if b.Connected() {
			kept = append(kept, b)
		}
	}
	for i := len(kept); i < len(bindings); i++ {
		bindings[i] = nil
	}
	return kept
}
