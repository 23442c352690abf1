package maphost

import (
	"fmt"
	"slices"

	"github.com/joeblew999/plat-waterfront/internal/geo"
)

// ElementKind distinguishes markers from popups.
type ElementKind string

const (
	KindMarker ElementKind = "marker"
	KindPopup  ElementKind = "popup"
)

// Element is a DOM element anchored to a coordinate on the map.
type Element struct {
	ID         string         `json:"id" doc:"Element id"`
	Kind       ElementKind    `json:"kind" enum:"marker,popup" doc:"Element kind"`
	Coordinate geo.Coordinate `json:"coordinate" doc:"Anchor as [lng, lat]"`
	// Class is the CSS class of a custom marker; empty for the default marker.
	Class string `json:"class,omitempty" doc:"CSS class of a custom marker element"`
	// Owner links a popup to its marker element.
	Owner       string `json:"owner,omitempty" doc:"Owning marker id (popups)"`
	HTML        string `json:"html,omitempty" doc:"Popup HTML"`
	Offset      int    `json:"offset,omitempty" doc:"Popup offset in pixels"`
	CloseButton bool   `json:"closeButton,omitempty" doc:"Whether the popup has a close button"`
}

// NewElementID returns an id unique within this host.
func (h *Host) NewElementID(kind ElementKind) string {
	h.nextElement++
	return fmt.Sprintf("%s-%d", kind, h.nextElement)
}

// AddElement attaches el to the map and emits EventScene.
func (h *Host) AddElement(el Element) error {
	if h.destroyed {
		return ErrDestroyed
	}
	if _, ok := h.elements[el.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateElement, el.ID)
	}
	h.elements[el.ID] = el
	h.elementOrder = append(h.elementOrder, el.ID)
	h.emit(Event{Kind: EventScene, Scope: el.ID, Element: el})
	return nil
}

// RemoveElement detaches the element with id. It reports false when the
// element was not attached.
func (h *Host) RemoveElement(id string) bool {
	el, ok := h.elements[id]
	if !ok {
		return false
	}
	delete(h.elements, id)
	h.elementOrder = slices.DeleteFunc(h.elementOrder, func(s string) bool { return s == id })
	h.emit(Event{Kind: EventScene, Scope: id, Element: el, Removed: true})
	return true
}

// Element returns the attached element with id.
func (h *Host) Element(id string) (Element, bool) {
	el, ok := h.elements[id]
	return el, ok
}

// Elements returns attached elements in attach order.
func (h *Host) Elements() []Element {
	out := make([]Element, 0, len(h.elementOrder))
	for _, id := range h.elementOrder {
		out = append(out, h.elements[id])
	}
	return out
}

// ElementsOf returns attached elements of one kind in attach order.
func (h *Host) ElementsOf(kind ElementKind) []Element {
	var out []Element
	for _, id := range h.elementOrder {
		if el := h.elements[id]; el.Kind == kind {
			out = append(out, el)
		}
	}
	return out
}

// ElementEnter delivers a DOM mouseenter on the element.
func (h *Host) ElementEnter(id string) error {
	return h.elementEvent(EventElementEnter, id)
}

// ElementLeave delivers a DOM mouseleave on the element.
func (h *Host) ElementLeave(id string) error {
	return h.elementEvent(EventElementLeave, id)
}

func (h *Host) elementEvent(kind EventKind, id string) error {
	if h.destroyed {
		return ErrDestroyed
	}
	el, ok := h.elements[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownElement, id)
	}
	h.emit(Event{Kind: kind, Scope: id, Element: el})
	return nil
}
