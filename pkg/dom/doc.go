// Package dom provides the live, mutable node tree that Weave reconciles.
//
// Unlike a virtual tree that is rebuilt and diffed on every render, a dom
// tree is long-lived: fragments insert, move, and remove nodes in place and
// every mutation of a connected node is appended to the owning Document's
// patch log. The log can be drained and shipped to a client, rendered, or
// inspected in tests.
//
// # Core Types
//
// Document owns a root node and allocates stable NodeIDs. Node is an
// element, text, comment, or root node linked to its parent and siblings.
// Patch describes a single mutation.
//
// # Identity
//
// A NodeID is assigned once when the node is created and never reused in
// the same Document, so side tables can key auxiliary state by ID without
// holding the node itself.
//
// # Parsing
//
// ParseFragment turns HTML markup into detached nodes owned by the
// Document, using the HTML5 template insertion mode so that table rows and
// cells survive outside a table.
package dom
