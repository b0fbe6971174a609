package render

import (
	"strings"
	"testing"

	"github.com/vango-dev/weave/pkg/dom"
)

func parse(t *testing.T, markup string) (*dom.Document, *dom.Node) {
	t.Helper()
	doc := dom.NewDocument()
	host := doc.CreateElement("div")
	doc.Root().AppendChild(host)
	if err := doc.ParseInto(host, markup); err != nil {
		t.Fatal(err)
	}
	return doc, host
}

func TestRenderElement(t *testing.T) {
	_, host := parse(t, `<p class="a" title="x &quot;y&quot;">Hi &amp; bye</p>`)
	got := String(host.FirstChild)
	want := `<p class="a" title="x &quot;y&quot;">Hi &amp; bye</p>`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRenderVoidAndBoolean(t *testing.T) {
	_, host := parse(t, `<input type="checkbox" disabled>`)
	got := String(host.FirstChild)
	if got != `<input type="checkbox" disabled>` {
		t.Errorf("got %q", got)
	}
}

func TestRenderSkipsDeclarations(t *testing.T) {
	_, host := parse(t, `<button @click="save" :title="t">Go</button>`)
	got := String(host.FirstChild)
	if got != `<button>Go</button>` {
		t.Errorf("got %q", got)
	}
}

func TestRenderLiveProperties(t *testing.T) {
	_, host := parse(t, `<input value="initial" type="checkbox">`)
	input := host.FirstChild
	input.SetValue("typed")
	input.SetChecked(true)

	got := String(input)
	want := `<input type="checkbox" value="typed" checked>`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRenderHydrationIDs(t *testing.T) {
	_, host := parse(t, `<button>Go</button>`)
	btn := host.FirstChild
	btn.AddEventListener("click", dom.NewListener(func(*dom.Event) {}))

	r := NewRenderer(RendererConfig{HydrationIDs: true})
	got, err := r.RenderToString(btn)
	if err != nil {
		t.Fatal(err)
	}
	want := `<button data-hid="` + btn.ID.String() + `" data-on-click="true">Go</button>`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRenderComments(t *testing.T) {
	_, host := parse(t, `<!--if--><b>x</b>`)
	if got := String(host); strings.Contains(got, "<!--") {
		t.Errorf("comments rendered by default: %q", got)
	}
	r := NewRenderer(RendererConfig{Comments: true})
	got, _ := r.RenderToString(host)
	if !strings.Contains(got, "<!--if-->") {
		t.Errorf("comment missing: %q", got)
	}
}

func TestRenderRawText(t *testing.T) {
	_, host := parse(t, `<script>if (a < b) {}</script>`)
	if got := String(host.FirstChild); got != `<script>if (a < b) {}</script>` {
		t.Errorf("got %q", got)
	}
}

func TestRenderPretty(t *testing.T) {
	_, host := parse(t, "<ul>\n  <li>a</li>\n</ul>")
	r := NewRenderer(RendererConfig{Pretty: true})
	got, _ := r.RenderToString(host.FirstChild)
	want := "<ul>\n  <li>\n    a\n  </li>\n</ul>\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRenderPage(t *testing.T) {
	_, host := parse(t, `<main>hi</main>`)
	var b strings.Builder
	err := NewRenderer(RendererConfig{}).RenderPage(&b, PageData{
		Body:         host,
		Title:        "T & U",
		SocketPath:   "/ws",
		ClientScript: "start()",
	})
	if err != nil {
		t.Fatal(err)
	}
	out := b.String()
	for _, want := range []string{
		"<!DOCTYPE html>",
		`<html lang="en">`,
		"<title>T &amp; U</title>",
		"<main>hi</main>",
		`window.__WEAVE_SOCKET__="/ws"`,
		"<script>start()</script>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("page missing %q:\n%s", want, out)
		}
	}
}
