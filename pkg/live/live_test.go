package live

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/weave"
	"github.com/vango-dev/weave/pkg/dom"
	"github.com/vango-dev/weave/pkg/metrics"
	"github.com/vango-dev/weave/pkg/scope"
)

const counterTemplate = `<p>{{ label }}: {{ count }}</p><button @click="inc">+</button>`

func newTestServer(t *testing.T) (*Server, *scope.Model) {
	t.Helper()
	model := scope.NewModel(scope.Context{"count": 0})
	model.Method("inc", func() {
		n, _ := model.Property("count")
		model.Set("count", n.(int)+1)
	})
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := New(counterTemplate, model, weave.Config{Logger: quiet}, Config{
		Title:   "Counter",
		Metrics: metrics.New(),
		Logger:  quiet,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(s.Close)
	if _, err := s.Update(context.Background(), scope.Context{"label": "Count"}); err != nil {
		t.Fatal(err)
	}
	return s, model
}

func buttonID(s *Server) string {
	var id string
	s.view.Host().Walk(func(n *dom.Node) bool {
		if n.Tag == "button" {
			id = n.ID.String()
		}
		return true
	})
	return id
}

func TestPage(t *testing.T) {
	s, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"<title>Counter</title>",
		"<p>Count: 0</p>",
		`data-on-click="true"`,
		`window.__WEAVE_SOCKET__="/ws"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestPostContext(t *testing.T) {
	s, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/context", strings.NewReader(`{"label": "Clicks"}`))
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var res Result
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatal(err)
	}
	if res.Patches != 1 {
		t.Errorf("Patches = %d, want 1", res.Patches)
	}
	if got := s.HTML(); !strings.Contains(got, "<p>Clicks: 0</p>") {
		t.Errorf("HTML() = %q", got)
	}

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest("POST", "/context", strings.NewReader(`[1, 2]`)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("non-object body status = %d, want 400", rec.Code)
	}
}

func TestPostEvents(t *testing.T) {
	s, _ := newTestServer(t)
	body := `{"id": "` + buttonID(s) + `", "type": "click"}`
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest("POST", "/events", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if got := s.HTML(); !strings.Contains(got, "<p>Count: 1</p>") {
		t.Errorf("HTML() = %q", got)
	}

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest("POST", "/events", strings.NewReader(`{"id": "h9999", "type": "click"}`)))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown node status = %d, want 404", rec.Code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	s, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("healthz = %d %q", rec.Code, rec.Body)
	}

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "weave_update_duration_seconds") {
		t.Error("metrics output lacks update duration")
	}
}

func TestSocketBroadcastAndEvents(t *testing.T) {
	s, _ := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(5 * time.Second)
	for s.Hub().ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	ev, _ := json.Marshal(Event{ID: buttonID(s), Type: "click"})
	if err := conn.WriteMessage(websocket.TextMessage, ev); err != nil {
		t.Fatal(err)
	}

	conn.SetReadDeadline(deadline)
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if msg.Type != MessageUpdate {
		t.Errorf("Type = %q, want update", msg.Type)
	}
	if len(msg.Patches) != 1 || msg.Patches[0].Op != "SetText" || msg.Patches[0].Value != "1" {
		t.Errorf("Patches = %+v, want one SetText", msg.Patches)
	}
	if !strings.Contains(msg.HTML, "<p>Count: 1</p>") {
		t.Errorf("HTML = %q", msg.HTML)
	}
}

func TestConcurrentMergesArriveInOrder(t *testing.T) {
	s, _ := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(5 * time.Second)
	for s.Hub().ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := s.Merge(context.Background(), scope.Context{"label": fmt.Sprintf("L%d", i)}); err != nil {
				t.Errorf("Merge: %v", err)
			}
		}(i)
	}
	wg.Wait()

	conn.SetReadDeadline(deadline)
	var last Message
	for i := 0; i < n; i++ {
		if err := conn.ReadJSON(&last); err != nil {
			t.Fatalf("ReadJSON %d: %v", i, err)
		}
	}
	if got, want := last.HTML, s.HTML(); got != want {
		t.Errorf("last broadcast HTML = %q, want %q", got, want)
	}
}

func TestSocketRejectsForeignOrigin(t *testing.T) {
	s, _ := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	header := http.Header{"Origin": []string{"http://evil.example"}}
	if _, _, err := websocket.DefaultDialer.Dial(wsURL, header); err == nil {
		t.Error("Dial with a foreign origin succeeded")
	}
}

func TestEncodePatches(t *testing.T) {
	doc := dom.NewDocument()
	li := doc.CreateElement("li")
	li.AppendChild(doc.CreateText("x"))
	doc.Root().AppendChild(li)

	got := EncodePatches(doc.TakePatches())
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0].Op != "InsertNode" || got[0].HTML != "<li>x</li>" {
		t.Errorf("patch = %+v", got[0])
	}
}
