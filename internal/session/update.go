package session

import (
	"github.com/joeblew999/plat-waterfront/internal/maphost"
	"github.com/joeblew999/plat-waterfront/internal/mapstyle"
)

// UpdateKind names what an Update carries.
type UpdateKind string

const (
	// UpdateBounds carries the bounds readout text.
	UpdateBounds UpdateKind = "bounds"
	// UpdateStyle carries a requested style swap.
	UpdateStyle UpdateKind = "style"
	// UpdateScene carries an element that was attached or removed.
	UpdateScene UpdateKind = "scene"
	// UpdateLayers carries the full source and layer registration.
	UpdateLayers UpdateKind = "layers"
	// UpdateFeatureState carries one feature's merged state.
	UpdateFeatureState UpdateKind = "featurestate"
)

// Update is pushed to the browser glue of a session.
type Update struct {
	Kind UpdateKind `json:"kind"`

	Bounds string          `json:"bounds,omitempty"`
	Style  mapstyle.Choice `json:"style,omitempty"`
	Swap   *maphost.Swap   `json:"swap,omitempty"`

	Element *maphost.Element `json:"element,omitempty"`
	Removed bool             `json:"removed,omitempty"`

	Sources []maphost.Source `json:"sources,omitempty"`
	Layers  []maphost.Layer  `json:"layers,omitempty"`

	Feature *maphost.FeatureKey  `json:"feature,omitempty"`
	State   maphost.FeatureState `json:"state,omitempty"`
}
