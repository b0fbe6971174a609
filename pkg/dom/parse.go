package dom

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ParseFragment parses markup into detached nodes owned by d. Tag and
// attribute names are lower-cased by the HTML tokenizer.
func (d *Document) ParseFragment(markup string) ([]*Node, error) {
	context := &html.Node{Type: html.ElementNode, Data: "template", DataAtom: atom.Template}
	parsed, err := html.ParseFragment(strings.NewReader(markup), context)
	if err != nil {
		return nil, fmt.Errorf("dom: parse fragment: %w", err)
	}
	nodes := make([]*Node, 0, len(parsed))
	for _, hn := range parsed {
		if n := d.convert(hn); n != nil {
			nodes = append(nodes, n)
		}
	}
	return nodes, nil
}

// ParseInto parses markup and appends the result to parent.
func (d *Document) ParseInto(parent *Node, markup string) error {
	nodes, err := d.ParseFragment(markup)
	if err != nil {
		return err
	}
	for _, n := range nodes {
		parent.AppendChild(n)
	}
	return nil
}

func (d *Document) convert(hn *html.Node) *Node {
	var n *Node
	switch hn.Type {
	case html.ElementNode:
		n = d.CreateElement(hn.Data)
		for _, a := range hn.Attr {
			key := a.Key
			if a.Namespace != "" {
				key = a.Namespace + ":" + key
			}
			n.attrs = append(n.attrs, Attr{Key: key, Value: a.Val})
		}
	case html.TextNode:
		n = d.CreateText(hn.Data)
	case html.CommentNode:
		n = d.CreateComment(hn.Data)
	default:
		return nil
	}
	for c := hn.FirstChild; c != nil; c = c.NextSibling {
		if child := d.convert(c); child != nil {
			n.link(child, nil)
		}
	}
	return n
}

// SetInnerHTML replaces the children of n with parsed markup. A connected
// node records one SetHTML patch instead of per-child patches.
func (n *Node) SetInnerHTML(markup string) error {
	nodes, err := n.doc.ParseFragment(markup)
	if err != nil {
		return err
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.unlink(c)
		c = next
	}
	for _, c := range nodes {
		n.link(c, nil)
	}
	n.record(Patch{Op: PatchSetHTML, Target: n.ID, Value: markup})
	return nil
}
