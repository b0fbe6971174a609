package render

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/vango-dev/weave/pkg/dom"
)

// RendererConfig configures the HTML renderer.
type RendererConfig struct {
	// Pretty enables indented output. Whitespace-only text nodes are
	// dropped in pretty mode.
	Pretty bool

	// Indent is the string used for each indentation level in pretty mode.
	// Defaults to two spaces if not specified.
	Indent string

	// HydrationIDs adds data-hid and data-on-<event> markers to elements
	// with event listeners.
	HydrationIDs bool

	// Comments controls whether comment nodes (including directive
	// placeholders) are emitted.
	Comments bool
}

// Renderer serializes dom trees to HTML.
type Renderer struct {
	config RendererConfig
}

// NewRenderer creates a new Renderer with the given configuration.
func NewRenderer(config RendererConfig) *Renderer {
	if config.Indent == "" {
		config.Indent = "  "
	}
	return &Renderer{config: config}
}

// RenderToString renders node to an HTML string. Root nodes render their
// children only.
func (r *Renderer) RenderToString(node *dom.Node) (string, error) {
	var buf bytes.Buffer
	if err := r.RenderToWriter(&buf, node); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderToWriter streams node to w.
func (r *Renderer) RenderToWriter(w io.Writer, node *dom.Node) error {
	return r.renderNode(w, node, 0)
}

// RenderChildren renders the children of node without node itself.
func (r *Renderer) RenderChildren(w io.Writer, node *dom.Node) error {
	for c := node.FirstChild; c != nil; c = c.NextSibling {
		if err := r.renderNode(w, c, 0); err != nil {
			return err
		}
	}
	return nil
}

// renderNode dispatches rendering based on node kind.
func (r *Renderer) renderNode(w io.Writer, node *dom.Node, depth int) error {
	if node == nil {
		return nil
	}

	switch node.Kind {
	case dom.KindElement:
		return r.renderElement(w, node, depth)
	case dom.KindText:
		return r.renderText(w, node, depth)
	case dom.KindComment:
		return r.renderComment(w, node, depth)
	case dom.KindRoot:
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			if err := r.renderNode(w, c, depth); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("render: unknown node kind: %d", node.Kind)
	}
}

// renderElement renders an element with its attributes and children.
func (r *Renderer) renderElement(w io.Writer, node *dom.Node, depth int) error {
	tag := node.Tag

	if r.config.Pretty && depth > 0 {
		r.writeIndent(w, depth)
	}

	if _, err := io.WriteString(w, "<"+tag); err != nil {
		return err
	}
	if err := r.renderAttributes(w, node); err != nil {
		return err
	}
	if _, err := io.WriteString(w, ">"); err != nil {
		return err
	}

	if voidElements[tag] {
		r.newline(w)
		return nil
	}

	if rawTextElements[tag] {
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			if c.Kind == dom.KindText {
				if _, err := io.WriteString(w, c.Text); err != nil {
					return err
				}
			}
		}
	} else {
		hasBlockChildren := node.FirstChild != nil && !inlineElements[tag]
		if r.config.Pretty && hasBlockChildren {
			r.newline(w)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			if err := r.renderNode(w, c, depth+1); err != nil {
				return err
			}
		}
		if r.config.Pretty && hasBlockChildren {
			r.writeIndent(w, depth)
		}
	}

	if _, err := fmt.Fprintf(w, "</%s>", tag); err != nil {
		return err
	}
	r.newline(w)
	return nil
}

// renderText renders a text node with HTML escaping.
func (r *Renderer) renderText(w io.Writer, node *dom.Node, depth int) error {
	text := node.Text
	if r.config.Pretty {
		if strings.TrimSpace(text) == "" {
			return nil
		}
		if node.Parent != nil && !inlineElements[node.Parent.Tag] {
			r.writeIndent(w, depth)
			defer r.newline(w)
			text = strings.TrimSpace(text)
		}
	}
	_, err := io.WriteString(w, escapeHTML(text))
	return err
}

// renderComment renders a comment when comments are enabled.
func (r *Renderer) renderComment(w io.Writer, node *dom.Node, depth int) error {
	if !r.config.Comments {
		return nil
	}
	if r.config.Pretty {
		r.writeIndent(w, depth)
	}
	_, err := io.WriteString(w, "<!--"+escapeComment(node.Text)+"-->")
	r.newline(w)
	return err
}

// renderAttributes renders attributes in document order, reflecting live
// form properties over their initial attribute values.
func (r *Renderer) renderAttributes(w io.Writer, node *dom.Node) error {
	_, hasValue := node.Prop("value")
	_, hasChecked := node.Prop("checked")
	_, hasSelected := node.Prop("selected")

	for _, a := range node.Attrs() {
		// Declaration syntax is consumed by the engine, never rendered.
		if strings.HasPrefix(a.Key, "@") || strings.HasPrefix(a.Key, ":") {
			continue
		}
		switch {
		case a.Key == "value" && hasValue,
			a.Key == "checked" && hasChecked,
			a.Key == "selected" && hasSelected:
			continue
		}
		if err := writeAttr(w, a.Key, a.Value); err != nil {
			return err
		}
	}

	if hasValue {
		if err := writeAttr(w, "value", node.Value()); err != nil {
			return err
		}
	}
	if hasChecked && node.Checked() {
		if err := writeAttr(w, "checked", ""); err != nil {
			return err
		}
	}
	if hasSelected && node.Selected() {
		if err := writeAttr(w, "selected", ""); err != nil {
			return err
		}
	}

	if r.config.HydrationIDs && node.ListenerCount("") > 0 {
		if _, err := fmt.Fprintf(w, ` data-hid="%s"`, node.ID); err != nil {
			return err
		}
		for _, typ := range node.EventTypes() {
			if _, err := fmt.Fprintf(w, ` data-on-%s="true"`, escapeAttr(typ)); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeAttr(w io.Writer, key, value string) error {
	if booleanAttrs[key] && value == "" {
		_, err := fmt.Fprintf(w, " %s", key)
		return err
	}
	_, err := fmt.Fprintf(w, ` %s="%s"`, key, escapeAttr(value))
	return err
}

func (r *Renderer) newline(w io.Writer) {
	if r.config.Pretty {
		io.WriteString(w, "\n")
	}
}

// writeIndent writes indentation for pretty printing.
func (r *Renderer) writeIndent(w io.Writer, depth int) {
	for i := 0; i < depth; i++ {
		io.WriteString(w, r.config.Indent)
	}
}

// String renders node with the default configuration, returning the
// empty string on error.
func String(node *dom.Node) string {
	s, _ := NewRenderer(RendererConfig{}).RenderToString(node)
	return s
}
