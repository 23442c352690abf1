package maphost

import (
	"cmp"
	"slices"

	"github.com/joeblew999/plat-waterfront/internal/geo"
)

// EventKind names an event the host emits.
type EventKind string

const (
	// EventMove fires on every pan, zoom or rotate.
	EventMove EventKind = "move"
	// EventStyleRequested fires when a style swap starts.
	EventStyleRequested EventKind = "style.requested"
	// EventStyleReady fires once per swap when its resources are loaded.
	// Its scope is the swap's generation (see Swap.Scope).
	EventStyleReady EventKind = "styledata"
	// EventMouseMove and EventMouseLeave are scoped to a layer id.
	EventMouseMove  EventKind = "mousemove"
	EventMouseLeave EventKind = "mouseleave"
	// EventElementEnter and EventElementLeave are DOM events scoped to an element id.
	EventElementEnter EventKind = "element.mouseenter"
	EventElementLeave EventKind = "element.mouseleave"
	// EventScene fires when an element is added or removed.
	EventScene EventKind = "scene"
	// EventLayers fires when sources or layers change.
	EventLayers EventKind = "layers"
	// EventFeatureState fires after SetFeatureState.
	EventFeatureState EventKind = "featurestate"
)

// Event is delivered to handlers. Only the fields relevant to Kind are set.
type Event struct {
	Kind  EventKind
	Scope string

	Camera   geo.Camera  // EventMove
	Features []FeatureID // EventMouseMove, topmost first
	Swap     Swap        // EventStyleRequested, EventStyleReady

	Element Element // EventScene, element events
	Removed bool    // EventScene

	Feature FeatureKey   // EventFeatureState
	State   FeatureState // EventFeatureState
}

// Handler receives host events.
type Handler func(Event)

type listener struct {
	id    uint64
	kind  EventKind
	scope string
	once  bool
	fn    Handler
}

// Subscription is a registered handler. Release it when the component that
// owns the handler is torn down.
type Subscription struct {
	host *Host
	id   uint64
}

// Release unregisters the handler. Safe to call more than once.
func (s *Subscription) Release() {
	if s == nil || s.host == nil {
		return
	}
	delete(s.host.listeners, s.id)
	s.host = nil
}

// Active reports whether the handler is still registered.
func (s *Subscription) Active() bool {
	if s == nil || s.host == nil {
		return false
	}
	_, ok := s.host.listeners[s.id]
	return ok
}

// On registers fn for events of kind. An empty scope matches every scope;
// otherwise only events with the same scope are delivered.
func (h *Host) On(kind EventKind, scope string, fn Handler) *Subscription {
	return h.subscribe(kind, scope, fn, false)
}

// Once is like On but the handler is released before its first call.
func (h *Host) Once(kind EventKind, scope string, fn Handler) *Subscription {
	return h.subscribe(kind, scope, fn, true)
}

func (h *Host) subscribe(kind EventKind, scope string, fn Handler, once bool) *Subscription {
	h.nextListener++
	id := h.nextListener
	h.listeners[id] = &listener{id: id, kind: kind, scope: scope, once: once, fn: fn}
	return &Subscription{host: h, id: id}
}

// Listeners returns the number of registered handlers.
func (h *Host) Listeners() int {
	return len(h.listeners)
}

// emit delivers e to matching handlers in registration order. Handlers
// released by an earlier handler in the same dispatch are skipped.
func (h *Host) emit(e Event) {
	var matched []*listener
	for _, l := range h.listeners {
		if l.kind != e.Kind {
			continue
		}
		if l.scope != "" && l.scope != e.Scope {
			continue
		}
		matched = append(matched, l)
	}
	slices.SortFunc(matched, func(a, b *listener) int {
		return cmp.Compare(a.id, b.id)
	})

	for _, l := range matched {
		if _, ok := h.listeners[l.id]; !ok {
			continue
		}
		if l.once {
			delete(h.listeners, l.id)
		}
		l.fn(e)
	}
}
