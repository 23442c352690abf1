package maphost

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
)

// Source is a vector tile source registered with the current style.
type Source struct {
	ID   string `json:"id" doc:"Source id" example:"waterfront"`
	Type string `json:"type" doc:"Source type" example:"vector"`
	URL  string `json:"url" doc:"Tileset URL" example:"mapbox://user.tileset"`
}

// Layer is a style layer drawing one source layer.
type Layer struct {
	ID          string         `json:"id" doc:"Layer id" example:"waterfront-layer"`
	Type        string         `json:"type" doc:"Layer type" example:"fill"`
	Source      string         `json:"source" doc:"Source id"`
	SourceLayer string         `json:"source-layer" doc:"Layer name inside the tileset"`
	Paint       map[string]any `json:"paint,omitempty" doc:"Paint properties (style expressions)"`
}

// FeatureID identifies a vector feature within its source layer.
type FeatureID string

// FeatureKey addresses one feature for feature-state updates.
type FeatureKey struct {
	Source      string    `json:"source"`
	SourceLayer string    `json:"sourceLayer"`
	ID          FeatureID `json:"id"`
}

// FeatureState is per-feature ephemeral state such as {"hover": true}.
type FeatureState map[string]any

// FeatureStateAt pairs a key with its state for listings.
type FeatureStateAt struct {
	FeatureKey
	State FeatureState `json:"state"`
}

// AddSource registers a source with the current style.
func (h *Host) AddSource(src Source) error {
	if h.destroyed {
		return ErrDestroyed
	}
	if _, ok := h.sources[src.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateSource, src.ID)
	}
	h.sources[src.ID] = src
	h.sourceOrder = append(h.sourceOrder, src.ID)
	h.emit(Event{Kind: EventLayers, Scope: src.ID})
	return nil
}

// AddLayer registers a layer. Its source must already exist.
func (h *Host) AddLayer(l Layer) error {
	if h.destroyed {
		return ErrDestroyed
	}
	if _, ok := h.layers[l.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateLayer, l.ID)
	}
	if _, ok := h.sources[l.Source]; !ok {
		return fmt.Errorf("%w: %s (layer %s)", ErrUnknownSource, l.Source, l.ID)
	}
	h.layers[l.ID] = l
	h.layerOrder = append(h.layerOrder, l.ID)
	h.emit(Event{Kind: EventLayers, Scope: l.ID})
	return nil
}

// Layer returns the layer with id.
func (h *Host) Layer(id string) (Layer, bool) {
	l, ok := h.layers[id]
	return l, ok
}

// Layers returns layers in registration order.
func (h *Host) Layers() []Layer {
	out := make([]Layer, 0, len(h.layerOrder))
	for _, id := range h.layerOrder {
		out = append(out, h.layers[id])
	}
	return out
}

// Sources returns sources in registration order.
func (h *Host) Sources() []Source {
	out := make([]Source, 0, len(h.sourceOrder))
	for _, id := range h.sourceOrder {
		out = append(out, h.sources[id])
	}
	return out
}

// FeatureKeyFor builds the feature-state key for a feature of layerID.
func (h *Host) FeatureKeyFor(layerID string, id FeatureID) (FeatureKey, error) {
	l, ok := h.layers[layerID]
	if !ok {
		return FeatureKey{}, fmt.Errorf("%w: %s", ErrUnknownLayer, layerID)
	}
	return FeatureKey{Source: l.Source, SourceLayer: l.SourceLayer, ID: id}, nil
}

// SetFeatureState merges state into the feature's state.
func (h *Host) SetFeatureState(key FeatureKey, state FeatureState) error {
	if h.destroyed {
		return ErrDestroyed
	}
	if _, ok := h.sources[key.Source]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSource, key.Source)
	}
	cur, ok := h.featureStates[key]
	if !ok {
		cur = FeatureState{}
		h.featureStates[key] = cur
	}
	maps.Copy(cur, state)
	h.emit(Event{Kind: EventFeatureState, Scope: key.Source, Feature: key, State: maps.Clone(cur)})
	return nil
}

// FeatureState returns a copy of the feature's state.
func (h *Host) FeatureState(key FeatureKey) FeatureState {
	return maps.Clone(h.featureStates[key])
}

// FeatureStates lists every feature with recorded state.
func (h *Host) FeatureStates() []FeatureStateAt {
	out := make([]FeatureStateAt, 0, len(h.featureStates))
	for k, s := range h.featureStates {
		out = append(out, FeatureStateAt{FeatureKey: k, State: maps.Clone(s)})
	}
	slices.SortFunc(out, func(a, b FeatureStateAt) int {
		return cmp.Or(
			cmp.Compare(a.Source, b.Source),
			cmp.Compare(a.SourceLayer, b.SourceLayer),
			cmp.Compare(a.ID, b.ID),
		)
	})
	return out
}

// PointerMove delivers a layer-scoped mousemove with the features under
// the pointer, topmost first.
func (h *Host) PointerMove(layerID string, features []FeatureID) error {
	if h.destroyed {
		return ErrDestroyed
	}
	if _, ok := h.layers[layerID]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownLayer, layerID)
	}
	h.emit(Event{Kind: EventMouseMove, Scope: layerID, Features: features})
	return nil
}

// PointerLeave delivers a layer-scoped mouseleave.
func (h *Host) PointerLeave(layerID string) error {
	if h.destroyed {
		return ErrDestroyed
	}
	if _, ok := h.layers[layerID]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownLayer, layerID)
	}
	h.emit(Event{Kind: EventMouseLeave, Scope: layerID})
	return nil
}
