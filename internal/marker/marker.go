// Package marker places marker+popup pairs on a map host and keeps the
// popup visibility in step with hover on the marker element.
package marker

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/joeblew999/plat-waterfront/internal/geo"
	"github.com/joeblew999/plat-waterfront/internal/maphost"
)

// CustomMarkerClass is the CSS class of the primary marker element.
const CustomMarkerClass = "custom-marker"

// PopupOffset is the popup's pixel offset from its anchor.
const PopupOffset = 25

// PopupState is Hidden or Visible.
type PopupState int

const (
	Hidden PopupState = iota
	Visible
)

func (s PopupState) String() string {
	if s == Visible {
		return "visible"
	}
	return "hidden"
}

// Visual describes a custom marker element. A nil *Visual selects the
// library's default marker.
type Visual struct {
	Class string
}

// Spec describes one marker to place.
type Spec struct {
	Coordinate geo.Coordinate
	Visual     *Visual
	Content    string
}

// Layout is the fixed set of markers a map shows.
type Layout struct {
	Primary   Spec
	Secondary *Spec
}

// DefaultLayout returns the primary custom marker at poi and a default
// marker offset east by offset degrees of longitude.
func DefaultLayout(poi geo.Coordinate, offset float64, primaryHTML, secondaryHTML string) Layout {
	return Layout{
		Primary: Spec{
			Coordinate: poi,
			Visual:     &Visual{Class: CustomMarkerClass},
			Content:    primaryHTML,
		},
		Secondary: &Spec{
			Coordinate: poi.Offset(offset, 0),
			Content:    secondaryHTML,
		},
	}
}

// Popup is the hover popup owned by a marker.
type Popup struct {
	owner      string
	html       string
	coordinate geo.Coordinate
	state      PopupState
	elementID  string
}

// State returns the current visibility.
func (p *Popup) State() PopupState { return p.state }

// HTML returns the popup content.
func (p *Popup) HTML() string { return p.html }

// Coordinate returns where the popup is shown.
func (p *Popup) Coordinate() geo.Coordinate { return p.coordinate }

// ElementID returns the popup's element id while visible, or "".
func (p *Popup) ElementID() string { return p.elementID }

// Handle is one placed marker.
type Handle struct {
	id         string
	coordinate geo.Coordinate
	visual     *Visual
	popup      *Popup
	subs       []*maphost.Subscription
	removed    bool
}

// ID returns the marker's element id.
func (h *Handle) ID() string { return h.id }

// Coordinate returns the marker's anchor.
func (h *Handle) Coordinate() geo.Coordinate { return h.coordinate }

// Custom reports whether the marker uses a custom element.
func (h *Handle) Custom() bool { return h.visual != nil }

// Popup returns the marker's popup.
func (h *Handle) Popup() *Popup { return h.popup }

// Removed reports whether Teardown has run.
func (h *Handle) Removed() bool { return h.removed }

// Manager owns the markers of one map host.
type Manager struct {
	host      *maphost.Host
	layout    Layout
	primary   *Handle
	secondary *Handle
	log       zerolog.Logger
}

// NewManager creates a manager that places layout on host.
func NewManager(host *maphost.Host, layout Layout, log zerolog.Logger) *Manager {
	return &Manager{host: host, layout: layout, log: log}
}

// Primary returns the current primary marker, or nil.
func (m *Manager) Primary() *Handle { return m.primary }

// Secondary returns the current secondary marker, or nil.
func (m *Manager) Secondary() *Handle { return m.secondary }

// PlaceMarker attaches a marker at coord and binds hover on its element to
// its popup. The popup element is only attached while visible.
func (m *Manager) PlaceMarker(coord geo.Coordinate, visual *Visual, content string) (*Handle, error) {
	el := maphost.Element{
		ID:         m.host.NewElementID(maphost.KindMarker),
		Kind:       maphost.KindMarker,
		Coordinate: coord,
	}
	if visual != nil {
		el.Class = visual.Class
	}
	if err := m.host.AddElement(el); err != nil {
		return nil, fmt.Errorf("placing marker: %w", err)
	}

	h := &Handle{
		id:         el.ID,
		coordinate: coord,
		visual:     visual,
		popup:      &Popup{owner: el.ID, html: content, coordinate: coord},
	}
	h.subs = []*maphost.Subscription{
		m.host.On(maphost.EventElementEnter, el.ID, func(maphost.Event) { m.show(h.popup) }),
		m.host.On(maphost.EventElementLeave, el.ID, func(maphost.Event) { m.hide(h.popup) }),
	}

	m.log.Debug().Str("marker", el.ID).Stringer("at", coord).Bool("custom", visual != nil).Msg("marker placed")
	return h, nil
}

func (m *Manager) show(p *Popup) {
	if p.state == Visible {
		return
	}
	el := maphost.Element{
		ID:         m.host.NewElementID(maphost.KindPopup),
		Kind:       maphost.KindPopup,
		Coordinate: p.coordinate,
		Owner:      p.owner,
		HTML:       p.html,
		Offset:     PopupOffset,
	}
	if err := m.host.AddElement(el); err != nil {
		m.log.Warn().Err(err).Str("marker", p.owner).Msg("popup not shown")
		return
	}
	p.elementID = el.ID
	p.state = Visible
}

func (m *Manager) hide(p *Popup) {
	if p.state == Hidden {
		return
	}
	m.host.RemoveElement(p.elementID)
	p.elementID = ""
	p.state = Hidden
}

// Teardown removes the marker element, force-hides its popup and releases
// its hover bindings. Calling it again is a no-op.
func (m *Manager) Teardown(h *Handle) {
	if h == nil || h.removed {
		return
	}
	for _, sub := range h.subs {
		sub.Release()
	}
	h.subs = nil
	m.hide(h.popup)
	m.host.RemoveElement(h.id)
	h.removed = true

	m.log.Debug().Str("marker", h.id).Msg("marker removed")
}

// ResetDefaultLayout tears down the current markers and places the layout
// again.
func (m *Manager) ResetDefaultLayout() error {
	m.Teardown(m.primary)
	m.Teardown(m.secondary)
	m.primary, m.secondary = nil, nil

	p := m.layout.Primary
	primary, err := m.PlaceMarker(p.Coordinate, p.Visual, p.Content)
	if err != nil {
		return fmt.Errorf("primary: %w", err)
	}
	m.primary = primary

	if s := m.layout.Secondary; s != nil {
		secondary, err := m.PlaceMarker(s.Coordinate, s.Visual, s.Content)
		if err != nil {
			return fmt.Errorf("secondary: %w", err)
		}
		m.secondary = secondary
	}
	return nil
}
