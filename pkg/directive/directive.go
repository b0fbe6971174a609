// Package directive extracts structural directives (if, for-each) from a
// template, leaving a placeholder comment where each directive element
// stood and keeping the element as a reusable template.
package directive

import (
	"fmt"
	"strings"

	"github.com/vango-dev/weave/internal/errors"
	"github.com/vango-dev/weave/pkg/dom"
)

// Directive attribute names.
const (
	AttrIf      = "if"
	AttrForEach = "for-each"
	AttrKey     = "key"
)

// Kind identifies a structural directive.
type Kind uint8

const (
	None Kind = iota
	If
	ForEach
)

func (k Kind) String() string {
	switch k {
	case If:
		return "if"
	case ForEach:
		return "for-each"
	default:
		return "none"
	}
}

// Descriptor is an extracted directive.
type Descriptor struct {
	Kind       Kind
	Expression string // guard for If, collection for ForEach

	ItemName      string // ForEach only
	KeyExpression string // ForEach only; empty selects positional reconciliation

	// Placeholder is the comment left in the element's former position.
	Placeholder *dom.Node

	// Template is the detached element with its directive attributes
	// removed. It is cloned for every mount or item.
	Template *dom.Node
}

// Keyed reports whether a for-each directive has a key expression.
func (d *Descriptor) Keyed() bool {
	return d.KeyExpression != ""
}

// Detect returns the directive carried by el. An element carrying both
// directives is an error.
func Detect(el *dom.Node) (Kind, error) {
	if !el.IsElement() {
		return None, nil
	}
	hasIf := el.HasAttr(AttrIf)
	hasForEach := el.HasAttr(AttrForEach)
	switch {
	case hasIf && hasForEach:
		return None, errors.New("W104").WithElement(Describe(el))
	case hasIf:
		return If, nil
	case hasForEach:
		return ForEach, nil
	}
	return None, nil
}

// ParseIf extracts an if directive from el. It returns nil if el has none.
func ParseIf(el *dom.Node) (*Descriptor, error) {
	if !el.HasAttr(AttrIf) {
		return nil, nil
	}
	expression, err := ifExpression(el)
	if err != nil {
		return nil, err
	}
	d := &Descriptor{Kind: If, Expression: expression}
	el.StripAttr(AttrIf)
	extract(el, d)
	return d, nil
}

func ifExpression(el *dom.Node) (string, error) {
	value, _ := el.Attr(AttrIf)
	expression := strings.TrimSpace(value)
	if expression == "" {
		return "", errors.New("W105").
			WithElement(Describe(el)).
			WithExample(`<p if="user.loggedIn">Welcome back</p>`)
	}
	return expression, nil
}

// ParseForEach extracts a for-each directive from el. It returns nil if el
// has none. The declaration is "<item> in <collection>", split on the
// first " in ".
func ParseForEach(el *dom.Node) (*Descriptor, error) {
	if !el.HasAttr(AttrForEach) {
		return nil, nil
	}
	item, collection, err := forEachClauses(el)
	if err != nil {
		return nil, err
	}
	d := &Descriptor{Kind: ForEach, Expression: collection, ItemName: item}
	if key, ok := el.Attr(AttrKey); ok {
		d.KeyExpression = strings.TrimSpace(key)
		el.StripAttr(AttrKey)
	}
	el.StripAttr(AttrForEach)
	extract(el, d)
	return d, nil
}

func forEachClauses(el *dom.Node) (item, collection string, err error) {
	value, _ := el.Attr(AttrForEach)
	item, collection, found := strings.Cut(value, " in ")
	if !found {
		return "", "", errors.New("W101").
			WithElement(Describe(el)).
			WithSuggestion(fmt.Sprintf(`Write the declaration as "item in %s"`, strings.TrimSpace(value))).
			WithExample(`<li for-each="item in items" key="item.id">{{ item.label }}</li>`)
	}
	item, collection = strings.TrimSpace(item), strings.TrimSpace(collection)
	if item == "" {
		return "", "", errors.New("W102").WithElement(Describe(el))
	}
	if collection == "" {
		return "", "", errors.New("W103").WithElement(Describe(el))
	}
	return item, collection, nil
}

// extract swaps el for a placeholder comment and keeps el as the template.
func extract(el *dom.Node, d *Descriptor) {
	d.Placeholder = el.Document().CreateComment(d.Kind.String())
	if el.Parent != nil {
		el.ReplaceWith(d.Placeholder)
	}
	d.Template = el
}

// Parse extracts whichever directive el carries. It returns nil for an
// element without one.
func Parse(el *dom.Node) (*Descriptor, error) {
	kind, err := Detect(el)
	if err != nil {
		return nil, err
	}
	switch kind {
	case If:
		return ParseIf(el)
	case ForEach:
		return ParseForEach(el)
	}
	return nil, nil
}

// Scan extracts the outermost directives below root, in document order.
// Directives inside an extracted template are left for the fragment that
// instantiates it. A directive on root itself is an error. Scan stops at
// the first malformed directive, after extracting the ones before it; use
// Validate to check a template up front.
func Scan(root *dom.Node) ([]*Descriptor, error) {
	kind, err := Detect(root)
	if err != nil {
		return nil, err
	}
	if kind != None {
		return nil, errors.New("W106").WithElement(Describe(root))
	}

	var found []*Descriptor
	root.Walk(func(n *dom.Node) bool {
		if err != nil || n == root {
			return err == nil
		}
		var d *Descriptor
		if d, err = Parse(n); err != nil || d != nil {
			if d != nil {
				found = append(found, d)
			}
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// Validate checks every directive below root, including those nested in
// other directives, without modifying the tree. It reports the same errors
// Scan would report as the templates are instantiated.
func Validate(root *dom.Node) error {
	kind, err := Detect(root)
	if err != nil {
		return err
	}
	if kind != None {
		return errors.New("W106").WithElement(Describe(root))
	}
	root.Walk(func(n *dom.Node) bool {
		if err != nil {
			return false
		}
		if n == root {
			return true
		}
		var k Kind
		if k, err = Detect(n); err != nil {
			return false
		}
		switch k {
		case If:
			_, err = ifExpression(n)
		case ForEach:
			_, _, err = forEachClauses(n)
		}
		return err == nil
	})
	return err
}

// Describe renders the opening tag of el for error messages.
func Describe(el *dom.Node) string {
	if !el.IsElement() {
		return el.Kind.String()
	}
	var b strings.Builder
	b.WriteString("<")
	b.WriteString(el.Tag)
	for _, a := range el.Attrs() {
		fmt.Fprintf(&b, " %s=%q", a.Key, a.Value)
	}
	b.WriteString(">")
	return b.String()
}
