// Package live serves a View over HTTP for interactive preview.
//
// Routes:
//
//	GET  /          the rendered page with the client script
//	GET  /ws        websocket stream of update messages; also accepts events
//	POST /context   merge a JSON object into the view data and reconcile
//	POST /events    dispatch {"id": "h12", "type": "click", "detail": ...}
//	GET  /metrics   Prometheus metrics, when a recorder is configured
//	GET  /healthz   liveness
//
// Every reconciliation is broadcast to connected clients as a Message
// carrying the patch list and the re-rendered markup. The bundled client
// replaces the root markup and forwards events from elements rendered with
// data-on-<type> markers.
//
// The View is only touched while holding the server's mutex, so
// reconciliation stays single-threaded no matter how many requests and
// sockets are active.
package live
