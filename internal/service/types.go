// Package service contains the shared, persisted state of plat-waterfront.
package service

import "github.com/joeblew999/plat-waterfront/internal/maphost"

// LayerConfig is one interactive fill layer drawn over every map style.
// Huma reads the tags for OpenAPI and validation.
type LayerConfig struct {
	ID           string  `json:"id,omitempty" doc:"Layer id; the source id is derived from it" example:"waterfront"`
	Name         string  `json:"name" required:"true" minLength:"1" maxLength:"100" doc:"Display name" example:"Waterfront"`
	TilesetURL   string  `json:"tilesetUrl" required:"true" doc:"Vector tileset URL" example:"mapbox://user.tileset"`
	SourceLayer  string  `json:"sourceLayer" required:"true" doc:"Layer name inside the tileset" example:"waterfront"`
	Opacity      float64 `json:"opacity,omitempty" minimum:"0" maximum:"1" default:"0.2" doc:"Fill opacity when not hovered"`
	HoverOpacity float64 `json:"hoverOpacity,omitempty" minimum:"0" maximum:"1" default:"0.4" doc:"Fill opacity of the hovered feature"`
	Interactive  bool    `json:"interactive" default:"true" doc:"Whether hovering highlights features"`
	Order        int     `json:"order,omitempty" doc:"Draw order; lower draws first"`
}

// SourceID returns the id of the layer's vector source.
func (c LayerConfig) SourceID() string { return c.ID }

// LayerID returns the id of the style layer.
func (c LayerConfig) LayerID() string { return c.ID + "-layer" }

// Source returns the vector source registration.
func (c LayerConfig) Source() maphost.Source {
	return maphost.Source{ID: c.SourceID(), Type: "vector", URL: c.TilesetURL}
}

// Layer returns the fill layer registration. Fill and outline colors come
// from each feature's "fill" and "stroke" properties.
func (c LayerConfig) Layer() maphost.Layer {
	return maphost.Layer{
		ID:          c.LayerID(),
		Type:        "fill",
		Source:      c.SourceID(),
		SourceLayer: c.SourceLayer,
		Paint: map[string]any{
			"fill-color": []any{"get", "fill"},
			"fill-opacity": []any{
				"case",
				[]any{"boolean", []any{"feature-state", "hover"}, false},
				c.HoverOpacity,
				c.Opacity,
			},
			"fill-outline-color": []any{"get", "stroke"},
		},
	}
}

// DefaultLayers are the layers a fresh data dir starts with.
func DefaultLayers() []LayerConfig {
	return []LayerConfig{
		{
			ID:           "waterfront",
			Name:         "Waterfront",
			TilesetURL:   "mapbox://tingyun6046710542.cmaubh2ku26xm1nl3gd1jwvqc-8fa66",
			SourceLayer:  "waterfront",
			Opacity:      0.2,
			HoverOpacity: 0.4,
			Interactive:  true,
			Order:        1,
		},
		{
			ID:           "waterfront-buildings",
			Name:         "Waterfront buildings",
			TilesetURL:   "mapbox://tingyun6046710542.cmauiefxv0wqi1mphi07if5re-5oypb",
			SourceLayer:  "waterfront-buildings",
			Opacity:      0.2,
			HoverOpacity: 0.4,
			Interactive:  true,
			Order:        2,
		},
	}
}
