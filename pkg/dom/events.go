package dom

import "sort"

// Event is dispatched to a node and bubbles to its ancestors.
type Event struct {
	Type          string
	Target        *Node
	CurrentTarget *Node
	Detail        any

	defaultPrevented   bool
	propagationStopped bool
}

// NewEvent creates an event of the given type.
func NewEvent(typ string, detail any) *Event {
	return &Event{Type: typ, Detail: detail}
}

// PreventDefault marks the event's default action as canceled.
func (e *Event) PreventDefault() { e.defaultPrevented = true }

// StopPropagation stops the event from bubbling past the current node.
func (e *Event) StopPropagation() { e.propagationStopped = true }

// DefaultPrevented reports whether PreventDefault was called.
func (e *Event) DefaultPrevented() bool { return e.defaultPrevented }

// PropagationStopped reports whether StopPropagation was called.
func (e *Event) PropagationStopped() bool { return e.propagationStopped }

// Listener is a registered event callback. Listeners are compared by
// pointer identity, so keep the value returned by NewListener to remove it.
type Listener struct {
	handle func(*Event)
}

// NewListener wraps fn as a Listener.
func NewListener(fn func(*Event)) *Listener {
	return &Listener{handle: fn}
}

// AddEventListener registers l for events of the given type. Adding the
// same listener twice has no effect.
func (n *Node) AddEventListener(typ string, l *Listener) {
	for _, existing := range n.listeners[typ] {
		if existing == l {
			return
		}
	}
	if n.listeners == nil {
		n.listeners = make(map[string][]*Listener)
	}
	n.listeners[typ] = append(n.listeners[typ], l)
}

// RemoveEventListener unregisters l and reports whether it was registered.
func (n *Node) RemoveEventListener(typ string, l *Listener) bool {
	list := n.listeners[typ]
	for i, existing := range list {
		if existing == l {
			list = append(list[:i], list[i+1:]...)
			if len(list) == 0 {
				delete(n.listeners, typ)
			} else {
				n.listeners[typ] = list
			}
			return true
		}
	}
	return false
}

// ListenerCount returns the number of listeners for typ, or for all types
// when typ is empty.
func (n *Node) ListenerCount(typ string) int {
	if typ != "" {
		return len(n.listeners[typ])
	}
	total := 0
	for _, list := range n.listeners {
		total += len(list)
	}
	return total
}

// EventTypes returns the sorted event types with registered listeners.
func (n *Node) EventTypes() []string {
	types := make([]string, 0, len(n.listeners))
	for typ := range n.listeners {
		types = append(types, typ)
	}
	sort.Strings(types)
	return types
}

// DispatchEvent delivers ev to n and then to each ancestor until
// propagation is stopped. It returns false if the default was prevented.
func (n *Node) DispatchEvent(ev *Event) bool {
	ev.Target = n
	for cur := n; cur != nil; cur = cur.Parent {
		ev.CurrentTarget = cur
		list := append([]*Listener(nil), cur.listeners[ev.Type]...)
		for _, l := range list {
			l.handle(ev)
		}
		if ev.propagationStopped {
			break
		}
	}
	ev.CurrentTarget = nil
	return !ev.defaultPrevented
}
