package render

import (
	"fmt"
	"io"

	"github.com/vango-dev/weave/pkg/dom"
)

// PageData contains all data needed to render a complete HTML page around
// a live tree.
type PageData struct {
	// Body is the node whose children become the page body.
	Body *dom.Node

	// Title is the page title
	Title string

	// StyleSheets contains paths to external stylesheets
	StyleSheets []string

	// Styles contains inline CSS styles
	Styles []string

	// ClientScript is inline JavaScript appended to the body.
	ClientScript string

	// SocketPath is exposed to the client script as window.__WEAVE_SOCKET__.
	SocketPath string

	// Lang is the language attribute for the html element
	// Defaults to "en" if not specified
	Lang string
}

// RenderPage renders a complete HTML document to the given writer.
func (r *Renderer) RenderPage(w io.Writer, page PageData) error {
	lang := page.Lang
	if lang == "" {
		lang = "en"
	}

	if _, err := fmt.Fprintf(w, "<!DOCTYPE html>\n<html lang=\"%s\">\n", escapeAttr(lang)); err != nil {
		return err
	}
	if err := r.renderHead(w, page); err != nil {
		return err
	}

	if _, err := io.WriteString(w, "<body>\n"); err != nil {
		return err
	}
	if page.Body != nil {
		if err := r.RenderChildren(w, page.Body); err != nil {
			return err
		}
	}
	if err := r.renderClientScript(w, page); err != nil {
		return err
	}
	_, err := io.WriteString(w, "</body>\n</html>\n")
	return err
}

// renderHead renders the document head section.
func (r *Renderer) renderHead(w io.Writer, page PageData) error {
	if _, err := io.WriteString(w, "<head>\n  <meta charset=\"utf-8\">\n"); err != nil {
		return err
	}
	if page.Title != "" {
		if _, err := fmt.Fprintf(w, "  <title>%s</title>\n", escapeHTML(page.Title)); err != nil {
			return err
		}
	}
	for _, href := range page.StyleSheets {
		if _, err := fmt.Fprintf(w, `  <link rel="stylesheet" href="%s">`+"\n", escapeAttr(href)); err != nil {
			return err
		}
	}
	for _, style := range page.Styles {
		if _, err := fmt.Fprintf(w, "  <style>%s</style>\n", style); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "</head>\n")
	return err
}

// renderClientScript injects the socket path and the client script.
func (r *Renderer) renderClientScript(w io.Writer, page PageData) error {
	if page.SocketPath != "" {
		if _, err := fmt.Fprintf(w, `<script>window.__WEAVE_SOCKET__="%s";</script>`+"\n",
			escapeAttr(page.SocketPath)); err != nil {
			return err
		}
	}
	if page.ClientScript != "" {
		if _, err := fmt.Fprintf(w, "<script>%s</script>\n", page.ClientScript); err != nil {
			return err
		}
	}
	return nil
}
