// Package mapui contains the Datastar endpoints behind the map page: the
// update stream and the reports the browser glue sends back.
package mapui

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog"

	"github.com/joeblew999/plat-waterfront/internal/api"
	"github.com/joeblew999/plat-waterfront/internal/config"
	"github.com/joeblew999/plat-waterfront/internal/geo"
	"github.com/joeblew999/plat-waterfront/internal/humastar"
	"github.com/joeblew999/plat-waterfront/internal/maphost"
	"github.com/joeblew999/plat-waterfront/internal/mapstyle"
	"github.com/joeblew999/plat-waterfront/internal/session"
	"github.com/joeblew999/plat-waterfront/internal/templates"
)

// Tag marks the operations of this package in the OpenAPI document.
const Tag = "map-ui"

// Custom DOM events dispatched to the page.
const (
	EventSync         = "map-sync"
	EventSetStyle     = "map-set-style"
	EventScene        = "map-scene"
	EventLayers       = "map-layers"
	EventFeatureState = "map-feature-state"
)

// Handler serves the map page and its endpoints.
type Handler struct {
	humastar.Handler
	sessions *session.Registry
	cfg      config.Config
	catalog  mapstyle.Catalog
	api      huma.API
	log      zerolog.Logger
}

// NewHandler creates the map UI handler.
func NewHandler(sessions *session.Registry, renderer *templates.Renderer, cfg config.Config, catalog mapstyle.Catalog, log zerolog.Logger) *Handler {
	return &Handler{
		Handler:  humastar.Handler{Renderer: renderer},
		sessions: sessions,
		cfg:      cfg,
		catalog:  catalog,
		log:      log.With().Str("component", "mapui").Logger(),
	}
}

func (h *Handler) RegisterRoutes(a huma.API) {
	h.api = a

	huma.Register(a, huma.Operation{
		OperationID: "map-events",
		Method:      http.MethodGet,
		Path:        "/api/v1/map/{session}/events",
		Summary:     "Stream map updates",
		Tags:        []string{Tag},
		Extensions:  map[string]any{humastar.SSEExtension: true},
	}, h.Events)
	huma.Register(a, huma.Operation{
		OperationID: "map-select-style",
		Method:      http.MethodPost,
		Path:        "/api/v1/map/{session}/style",
		Summary:     "Select a map style from the mapstyle signal",
		Tags:        []string{Tag},
	}, h.SelectStyle)
	huma.Register(a, huma.Operation{
		OperationID: "map-style-ready",
		Method:      http.MethodPost,
		Path:        "/api/v1/map/{session}/style-ready",
		Summary:     "Report that a style finished loading",
		Tags:        []string{Tag},
	}, h.StyleReady)
	huma.Register(a, huma.Operation{
		OperationID: "map-camera",
		Method:      http.MethodPost,
		Path:        "/api/v1/map/{session}/camera",
		Summary:     "Report the camera after a move",
		Tags:        []string{Tag},
	}, h.Camera)
	huma.Register(a, huma.Operation{
		OperationID: "map-marker-hover",
		Method:      http.MethodPost,
		Path:        "/api/v1/map/{session}/markers/{element}/hover",
		Summary:     "Report the pointer entering or leaving a marker",
		Tags:        []string{Tag},
	}, h.MarkerHover)
	huma.Register(a, huma.Operation{
		OperationID: "map-layer-pointer",
		Method:      http.MethodPost,
		Path:        "/api/v1/map/{session}/layers/{layer}/pointer",
		Summary:     "Report the pointer moving over or leaving a layer",
		Tags:        []string{Tag},
	}, h.LayerPointer)
}

func (h *Handler) session(id string) (*session.Session, error) {
	s, ok := h.sessions.Get(id)
	if !ok {
		return nil, huma.Error404NotFound("session not found")
	}
	return s, nil
}

// Events sends the current state, then every update until the client goes
// away or the session closes.
func (h *Handler) Events(ctx context.Context, input *api.SessionInput) (*huma.StreamResponse, error) {
	s, err := h.session(input.Session)
	if err != nil {
		return nil, err
	}
	return h.Stream(func(sse humastar.SSE) {
		reqCtx := sse.Context()
		updates := s.Subscribe()
		defer s.Unsubscribe(updates)

		snap, err := s.Snapshot(reqCtx)
		if err != nil {
			sse.Error(err.Error())
			sse.Replace(h.Fragment("map-error", err.Error()), "#map-error")
			return
		}
		sse.Signals(map[string]any{"mapstyle": snap.Style, "bounds": snap.Bounds, "error": ""})
		if err := sse.Event(EventSync, snap.Map); err != nil {
			return
		}

		for {
			select {
			case <-reqCtx.Done():
				return
			case <-s.Done():
				return
			case u, ok := <-updates:
				if !ok {
					return
				}
				if err := send(sse, u); err != nil {
					h.log.Debug().Err(err).Str("session", s.ID()).Msg("stream closed")
					return
				}
			}
		}
	}), nil
}

func send(sse humastar.SSE, u session.Update) error {
	switch u.Kind {
	case session.UpdateBounds:
		return sse.Signals(map[string]any{"bounds": u.Bounds})
	case session.UpdateStyle:
		if err := sse.Signals(map[string]any{"mapstyle": u.Style}); err != nil {
			return err
		}
		return sse.Event(EventSetStyle, u.Swap)
	case session.UpdateScene:
		return sse.Event(EventScene, u)
	case session.UpdateLayers:
		return sse.Event(EventLayers, u)
	case session.UpdateFeatureState:
		return sse.Event(EventFeatureState, u)
	}
	return nil
}

// SelectStyleInput carries the Datastar signals of the style switcher.
type SelectStyleInput struct {
	api.SessionInput
	humastar.SignalsInput
}

// SelectStyle reads the mapstyle signal and switches the map to it.
func (h *Handler) SelectStyle(ctx context.Context, input *SelectStyleInput) (*huma.StreamResponse, error) {
	s, err := h.session(input.Session)
	if err != nil {
		return nil, err
	}
	signals, err := input.MustParse()
	if err != nil {
		return nil, err
	}
	choice, err := mapstyle.Parse(signals.String("mapstyle"))
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}
	changed, err := s.SelectStyle(ctx, choice)
	if err != nil {
		return nil, api.SessionError(err)
	}
	h.log.Debug().Str("session", s.ID()).Str("style", string(choice)).Bool("changed", changed).Msg("style selected")

	return h.Stream(func(sse humastar.SSE) {
		sse.Signals(map[string]any{"mapstyle": choice, "error": ""})
	}), nil
}

// StyleReadyInput reports a loaded style swap.
type StyleReadyInput struct {
	api.SessionInput
	Body struct {
		Generation uint64 `json:"generation" minimum:"1" doc:"Swap generation the browser finished loading"`
	}
}

func (h *Handler) StyleReady(ctx context.Context, input *StyleReadyInput) (*struct{}, error) {
	s, err := h.session(input.Session)
	if err != nil {
		return nil, err
	}
	if err := s.StyleLoaded(ctx, input.Body.Generation); err != nil {
		return nil, api.SessionError(err)
	}
	return &struct{}{}, nil
}

// CameraInput reports the camera after a move.
type CameraInput struct {
	api.SessionInput
	Body geo.Camera
}

// Resolve rejects centers outside the WGS84 range.
func (i *CameraInput) Resolve(ctx huma.Context) []error {
	c := i.Body.Center
	if c.Valid() {
		return nil
	}
	return []error{&huma.ErrorDetail{
		Location: "body.center",
		Message:  "expected [lng, lat] with lng in [-180, 180] and lat in [-90, 90]",
		Value:    c,
	}}
}

func (h *Handler) Camera(ctx context.Context, input *CameraInput) (*struct{}, error) {
	s, err := h.session(input.Session)
	if err != nil {
		return nil, err
	}
	if err := s.MoveCamera(ctx, input.Body); err != nil {
		return nil, api.SessionError(err)
	}
	return &struct{}{}, nil
}

// MarkerHoverInput reports mouseenter or mouseleave on a marker element.
type MarkerHoverInput struct {
	api.SessionInput
	Element string `path:"element" doc:"Marker element id"`
	Body    struct {
		Enter bool `json:"enter" doc:"True for mouseenter, false for mouseleave"`
	}
}

func (h *Handler) MarkerHover(ctx context.Context, input *MarkerHoverInput) (*struct{}, error) {
	s, err := h.session(input.Session)
	if err != nil {
		return nil, err
	}
	if err := s.MarkerHover(ctx, input.Element, input.Body.Enter); err != nil {
		return nil, api.SessionError(err)
	}
	return &struct{}{}, nil
}

// LayerPointerInput reports mousemove (features under the pointer, top
// first) or mouseleave on a layer.
type LayerPointerInput struct {
	api.SessionInput
	Layer string `path:"layer" doc:"Layer id" example:"waterfront-layer"`
	Body  struct {
		Features []string `json:"features,omitempty" doc:"Feature ids under the pointer, top first"`
		Leave    bool     `json:"leave,omitempty" doc:"True when the pointer left the layer"`
	}
}

func (h *Handler) LayerPointer(ctx context.Context, input *LayerPointerInput) (*struct{}, error) {
	s, err := h.session(input.Session)
	if err != nil {
		return nil, err
	}
	if input.Body.Leave {
		err = s.PointerLeave(ctx, input.Layer)
	} else {
		ids := make([]maphost.FeatureID, len(input.Body.Features))
		for i, f := range input.Body.Features {
			ids[i] = maphost.FeatureID(f)
		}
		err = s.PointerMove(ctx, input.Layer, ids)
	}
	if err != nil {
		return nil, api.SessionError(err)
	}
	return &struct{}{}, nil
}
