package live

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/weave"
	"github.com/vango-dev/weave/pkg/dom"
	"github.com/vango-dev/weave/pkg/metrics"
	"github.com/vango-dev/weave/pkg/render"
	"github.com/vango-dev/weave/pkg/scope"
)

// MaxBodyBytes bounds request bodies for /context and /events.
const MaxBodyBytes = 1 << 20

// Config configures a Server.
type Config struct {
	// Addr is the listen address for ListenAndServe.
	Addr string

	// Title is the page title.
	Title string

	// AllowedOrigins are accepted for websocket connections. Empty means
	// same-origin only.
	AllowedOrigins []string

	// Metrics is exposed at /metrics when non-nil.
	Metrics *metrics.Recorder

	// Logger is the structured logger. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Event is the body of POST /events and of client websocket messages.
type Event struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Detail any    `json:"detail,omitempty"`
}

// Result is the response to POST /context and POST /events.
type Result struct {
	Patches int    `json:"patches"`
	Error   string `json:"error,omitempty"`
}

// Server serves one View.
type Server struct {
	mu       sync.Mutex
	view     *weave.View
	hub      *Hub
	cfg      Config
	logger   *slog.Logger
	router   chi.Router
	deferred chan struct{}
}

// New creates a server and the View it serves. viewCfg.OnDeferred is
// replaced so that ready nested-component writes are flushed and
// broadcast.
func New(template string, comp scope.Component, viewCfg weave.Config, cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	s := &Server{
		cfg:      cfg,
		logger:   cfg.Logger.With("component", "live"),
		deferred: make(chan struct{}, 1),
	}
	s.hub = NewHub(cfg.AllowedOrigins, s.logger)

	viewCfg.OnDeferred = s.notifyDeferred
	if viewCfg.Metrics == nil {
		viewCfg.Metrics = cfg.Metrics
	}
	view, err := weave.New(template, comp, viewCfg)
	if err != nil {
		return nil, err
	}
	s.view = view
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handlePage)
	r.Get("/ws", s.handleSocket)
	r.Post("/context", s.handleContext)
	r.Post("/events", s.handleEvent)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	if s.cfg.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.cfg.Metrics.Registry(), promhttp.HandlerOpts{}))
	}
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Hub returns the websocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// =============================================================================
// View access
// =============================================================================

// Update replaces the view data, reconciles, and broadcasts the result.
func (s *Server) Update(ctx context.Context, data scope.Context) ([]dom.Patch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	patches, err := s.view.Update(ctx, data)
	if err != nil {
		return nil, err
	}
	s.publish(patches)
	return patches, nil
}

// Merge layers data over the current view data and reconciles.
func (s *Server) Merge(ctx context.Context, data scope.Context) ([]dom.Patch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	patches, err := s.view.Update(ctx, scope.Merge(s.view.Data(), data))
	if err != nil {
		return nil, err
	}
	s.publish(patches)
	return patches, nil
}

// Dispatch fires an event and broadcasts the result.
func (s *Server) Dispatch(ctx context.Context, ev Event) ([]dom.Patch, error) {
	id, ok := dom.ParseNodeID(ev.ID)
	if !ok {
		return nil, weave.ErrUnknownNode
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	patches, err := s.view.Dispatch(ctx, id, ev.Type, ev.Detail)
	if err != nil {
		return nil, err
	}
	s.publish(patches)
	return patches, nil
}

// Flush applies ready nested-component writes and broadcasts them.
func (s *Server) Flush() []dom.Patch {
	s.mu.Lock()
	defer s.mu.Unlock()
	patches := s.view.Flush()
	if len(patches) > 0 {
		s.publish(patches)
	}
	return patches
}

// HTML renders the current tree with hydration markers.
func (s *Server) HTML() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.render()
}

// render must be called with s.mu held.
func (s *Server) render() string {
	var buf bytes.Buffer
	r := render.NewRenderer(render.RendererConfig{HydrationIDs: true})
	if err := r.RenderChildren(&buf, s.view.Host()); err != nil {
		s.logger.Error("render failed", "error", err)
	}
	return buf.String()
}

// publish broadcasts the result of a reconciliation. It must be called
// with s.mu held so clients receive updates in the order they were made.
func (s *Server) publish(patches []dom.Patch) {
	s.hub.Broadcast(Message{Type: MessageUpdate, Patches: EncodePatches(patches), HTML: s.render()})
}

func (s *Server) notifyDeferred() {
	select {
	case s.deferred <- struct{}{}:
	default:
	}
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	s.mu.Lock()
	err := render.NewRenderer(render.RendererConfig{HydrationIDs: true}).RenderPage(&buf, render.PageData{
		Body:         s.view.Document().Root(),
		Title:        s.cfg.Title,
		ClientScript: ClientScript,
		SocketPath:   "/ws",
	})
	s.mu.Unlock()
	if err != nil {
		s.logger.Error("render page failed", "error", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	s.hub.Serve(w, r, func(data []byte) {
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			s.logger.Debug("bad socket message", "error", err)
			return
		}
		if _, err := s.Dispatch(r.Context(), ev); err != nil {
			s.logger.Warn("dispatch failed", "id", ev.ID, "type", ev.Type, "error", err)
			s.hub.Broadcast(Message{Type: MessageError, Error: err.Error()})
		}
	})
}

func (s *Server) handleContext(w http.ResponseWriter, r *http.Request) {
	var data map[string]any
	if err := decodeBody(w, r, &data); err != nil {
		writeResult(w, http.StatusBadRequest, Result{Error: err.Error()})
		return
	}
	patches, err := s.Merge(r.Context(), data)
	if err != nil {
		writeResult(w, http.StatusConflict, Result{Error: err.Error()})
		return
	}
	writeResult(w, http.StatusOK, Result{Patches: len(patches)})
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	var ev Event
	if err := decodeBody(w, r, &ev); err != nil {
		writeResult(w, http.StatusBadRequest, Result{Error: err.Error()})
		return
	}
	patches, err := s.Dispatch(r.Context(), ev)
	switch {
	case errors.Is(err, weave.ErrUnknownNode):
		writeResult(w, http.StatusNotFound, Result{Error: err.Error()})
	case err != nil:
		writeResult(w, http.StatusConflict, Result{Error: err.Error()})
	default:
		writeResult(w, http.StatusOK, Result{Patches: len(patches)})
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	return dec.Decode(v)
}

func writeResult(w http.ResponseWriter, status int, res Result) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(res)
}

// =============================================================================
// Lifecycle
// =============================================================================

// ListenAndServe serves until ctx is cancelled, then shuts down
// gracefully and releases the view.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case <-s.deferred:
				s.Flush()
			case <-done:
				return
			}
		}
	}()

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.Close()
	return err
}

// Close disconnects all clients and releases the view.
func (s *Server) Close() {
	s.hub.Close()
	s.mu.Lock()
	s.view.Cleanup()
	s.mu.Unlock()
}
