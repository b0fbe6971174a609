// Package render serializes a live dom tree to HTML.
//
// The renderer is used for the initial page of a live view, for the CLI's
// render command, and for the markup of inserted subtrees sent to clients.
// It handles:
//
//   - HTML5 void elements and raw-text elements (script, style)
//   - Text and attribute escaping
//   - Boolean attributes and live form properties (value, checked, selected)
//   - Hydration IDs for elements with event listeners
//   - Optional pretty printing
//
// Template declaration syntax (attributes starting with "@") is never
// emitted. Elements with listeners receive data-hid and data-on-<event>
// markers so a client can route events back by node ID.
//
// # Basic Usage
//
//	r := render.NewRenderer(render.RendererConfig{})
//	html, err := r.RenderToString(view.Host())
package render
