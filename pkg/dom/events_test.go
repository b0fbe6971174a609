package dom

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDispatchBubbles(t *testing.T) {
	doc := NewDocument()
	nodes, _ := doc.ParseFragment(`<ul><li><button>x</button></li></ul>`)
	ul := nodes[0]
	li := ul.FirstChild
	btn := li.FirstChild

	var seen []string
	ul.AddEventListener("click", NewListener(func(e *Event) { seen = append(seen, "ul") }))
	li.AddEventListener("click", NewListener(func(e *Event) {
		seen = append(seen, "li")
		if e.Target != btn || e.CurrentTarget != li {
			t.Errorf("target/current = %v/%v", e.Target, e.CurrentTarget)
		}
	}))
	btn.AddEventListener("click", NewListener(func(e *Event) { seen = append(seen, "button") }))

	if !btn.DispatchEvent(NewEvent("click", nil)) {
		t.Error("DispatchEvent() = false, want true")
	}
	if diff := cmp.Diff([]string{"button", "li", "ul"}, seen); diff != "" {
		t.Errorf("bubble order mismatch (-want +got):\n%s", diff)
	}
}

func TestStopPropagationAndPreventDefault(t *testing.T) {
	doc := NewDocument()
	nodes, _ := doc.ParseFragment(`<div><a>x</a></div>`)
	div := nodes[0]
	a := div.FirstChild

	outer := 0
	div.AddEventListener("click", NewListener(func(*Event) { outer++ }))
	a.AddEventListener("click", NewListener(func(e *Event) {
		e.PreventDefault()
		e.StopPropagation()
	}))

	if a.DispatchEvent(NewEvent("click", nil)) {
		t.Error("DispatchEvent() = true, want false after PreventDefault")
	}
	if outer != 0 {
		t.Errorf("outer listener ran %d times, want 0", outer)
	}
}

func TestRemoveEventListener(t *testing.T) {
	doc := NewDocument()
	n := doc.CreateElement("button")
	l := NewListener(func(*Event) {})
	n.AddEventListener("click", l)
	n.AddEventListener("click", l)
	if got := n.ListenerCount("click"); got != 1 {
		t.Errorf("ListenerCount() = %d, want 1", got)
	}
	if !n.RemoveEventListener("click", l) {
		t.Error("RemoveEventListener() = false, want true")
	}
	if n.RemoveEventListener("click", l) {
		t.Error("second RemoveEventListener() = true, want false")
	}
	if len(n.EventTypes()) != 0 {
		t.Errorf("EventTypes() = %v, want none", n.EventTypes())
	}
}
