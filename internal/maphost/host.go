// Package maphost models the single map instance of a session: its camera,
// its current style, the elements and layers attached to it, and the
// events it emits. The browser's mapbox-gl map mirrors this state.
//
// A Host is not safe for concurrent use. A session drives it from one loop.
package maphost

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/joeblew999/plat-waterfront/internal/geo"
	"github.com/joeblew999/plat-waterfront/internal/mapstyle"
)

var (
	ErrMissingContainer = errors.New("map container is missing")
	ErrDestroyed        = errors.New("map has been destroyed")
	ErrUnknownSwap      = errors.New("unknown or completed style swap")
	ErrUnknownElement   = errors.New("unknown element")
	ErrDuplicateElement = errors.New("element already attached")
	ErrUnknownLayer     = errors.New("unknown layer")
	ErrDuplicateLayer   = errors.New("layer already exists")
	ErrUnknownSource    = errors.New("unknown source")
	ErrDuplicateSource  = errors.New("source already exists")
	ErrInvalidCamera    = errors.New("invalid camera")
)

// ControlNavigation is the zoom/rotate control added at construction.
const ControlNavigation = "navigation"

// Options configures a new Host.
type Options struct {
	Container string
	Center    geo.Coordinate
	Zoom      float64
	Style     mapstyle.Choice
	StyleURL  string
	Viewport  geo.Viewport
}

// Swap is one requested style replacement.
type Swap struct {
	Generation uint64          `json:"generation" doc:"Swap sequence number, starting at 1 for the initial style"`
	Style      mapstyle.Choice `json:"style" doc:"Style key"`
	URL        string          `json:"url" doc:"Style URL"`
}

// Scope returns the event scope used for this swap's ready signal.
func (s Swap) Scope() string {
	return "swap:" + strconv.FormatUint(s.Generation, 10)
}

// Host is the map instance.
type Host struct {
	container   string
	controls    []string
	attribution bool
	camera      geo.Camera
	destroyed   bool

	style      Swap
	loaded     Swap
	generation uint64
	pending    map[uint64]Swap

	elements     map[string]Element
	elementOrder []string
	nextElement  uint64

	sources       map[string]Source
	sourceOrder   []string
	layers        map[string]Layer
	layerOrder    []string
	featureStates map[FeatureKey]FeatureState

	listeners    map[uint64]*listener
	nextListener uint64
}

// New creates the map bound to opts.Container with the navigation control
// and without the attribution control. The initial style load is pending
// as generation 1 until CompleteStyle(1).
func New(opts Options) (*Host, error) {
	if opts.Container == "" {
		return nil, ErrMissingContainer
	}
	style := opts.Style
	if style == "" {
		style = mapstyle.Default
	}

	h := &Host{
		container:   opts.Container,
		controls:    []string{ControlNavigation},
		attribution: false,
		camera: geo.Camera{
			Center:   opts.Center,
			Zoom:     opts.Zoom,
			Viewport: opts.Viewport,
		},
		pending:       make(map[uint64]Swap),
		elements:      make(map[string]Element),
		sources:       make(map[string]Source),
		layers:        make(map[string]Layer),
		featureStates: make(map[FeatureKey]FeatureState),
		listeners:     make(map[uint64]*listener),
	}
	h.generation = 1
	h.style = Swap{Generation: 1, Style: style, URL: opts.StyleURL}
	h.pending[1] = h.style
	return h, nil
}

// Container returns the id of the element the map is mounted in.
func (h *Host) Container() string { return h.container }

// Controls returns the controls added to the map.
func (h *Host) Controls() []string { return append([]string(nil), h.controls...) }

// Attribution reports whether the default attribution control is shown.
func (h *Host) Attribution() bool { return h.attribution }

// Destroyed reports whether Destroy has been called.
func (h *Host) Destroyed() bool { return h.destroyed }

// Destroy releases every handler and detaches everything from the map.
func (h *Host) Destroy() {
	if h.destroyed {
		return
	}
	h.destroyed = true
	h.listeners = make(map[uint64]*listener)
	h.elements = make(map[string]Element)
	h.elementOrder = nil
	h.clearStyleScoped()
	h.pending = make(map[uint64]Swap)
}

// Camera returns the current camera.
func (h *Host) Camera() geo.Camera { return h.camera }

// MoveCamera records a pan/zoom/rotate and emits EventMove synchronously.
func (h *Host) MoveCamera(cam geo.Camera) error {
	if h.destroyed {
		return ErrDestroyed
	}
	if cam.Viewport.Width <= 0 || cam.Viewport.Height <= 0 {
		cam.Viewport = h.camera.Viewport
	}
	if !cam.Valid() {
		return fmt.Errorf("%w: center %s zoom %g", ErrInvalidCamera, cam.Center, cam.Zoom)
	}
	h.camera = cam
	h.emit(Event{Kind: EventMove, Camera: cam})
	return nil
}

// Bounds returns the visible rectangle for the current camera.
func (h *Host) Bounds() geo.Bounds {
	return h.camera.Bounds()
}

// Style returns the most recently requested style.
func (h *Host) Style() Swap { return h.style }

// LoadedStyle returns the last style whose ready signal fired. Its
// generation is 0 until the initial style has loaded.
func (h *Host) LoadedStyle() Swap { return h.loaded }

// Pending returns whether generation is still waiting for its ready signal.
func (h *Host) Pending(generation uint64) bool {
	_, ok := h.pending[generation]
	return ok
}

// SetStyle starts replacing the style. The camera is kept. The returned
// swap's ready signal fires when CompleteStyle is called with its
// generation; earlier swaps that are still pending stay pending.
func (h *Host) SetStyle(choice mapstyle.Choice, url string) (Swap, error) {
	if h.destroyed {
		return Swap{}, ErrDestroyed
	}
	h.generation++
	swap := Swap{Generation: h.generation, Style: choice, URL: url}
	h.pending[swap.Generation] = swap
	h.style = swap
	h.emit(Event{Kind: EventStyleRequested, Scope: swap.Scope(), Swap: swap})
	return swap, nil
}

// CompleteStyle marks a swap's resources as loaded. Sources, layers and
// feature state belong to the previous style and are discarded before the
// one-shot EventStyleReady is emitted. A swap superseded by a later
// request still emits its ready signal but leaves the map untouched.
func (h *Host) CompleteStyle(generation uint64) (Swap, error) {
	if h.destroyed {
		return Swap{}, ErrDestroyed
	}
	swap, ok := h.pending[generation]
	if !ok {
		return Swap{}, fmt.Errorf("%w: %d", ErrUnknownSwap, generation)
	}
	delete(h.pending, generation)

	if generation == h.style.Generation {
		h.loaded = swap
		h.clearStyleScoped()
		h.emit(Event{Kind: EventLayers})
	}
	h.emit(Event{Kind: EventStyleReady, Scope: swap.Scope(), Swap: swap})
	return swap, nil
}

// Superseded reports whether a later style request replaced generation.
func (h *Host) Superseded(generation uint64) bool {
	return generation < h.style.Generation
}

func (h *Host) clearStyleScoped() {
	h.sources = make(map[string]Source)
	h.sourceOrder = nil
	h.layers = make(map[string]Layer)
	h.layerOrder = nil
	h.featureStates = make(map[FeatureKey]FeatureState)
}

// Snapshot is a read-only copy of the host state.
type Snapshot struct {
	Container     string           `json:"container" doc:"Mount element id"`
	Controls      []string         `json:"controls" doc:"Attached map controls"`
	Attribution   bool             `json:"attribution" doc:"Whether the attribution control is shown"`
	Camera        geo.Camera       `json:"camera" doc:"Current camera"`
	Bounds        geo.Bounds       `json:"bounds" doc:"Visible rectangle as [[west, south], [east, north]]"`
	Style         Swap             `json:"style" doc:"Most recently requested style"`
	Loaded        Swap             `json:"loaded" doc:"Most recently loaded style"`
	Elements      []Element        `json:"elements" doc:"Attached markers and popups"`
	Sources       []Source         `json:"sources" doc:"Registered vector sources"`
	Layers        []Layer          `json:"layers" doc:"Registered layers"`
	FeatureStates []FeatureStateAt `json:"featureStates" doc:"Recorded feature states"`
}

// Snapshot copies the current state.
func (h *Host) Snapshot() Snapshot {
	return Snapshot{
		Container:     h.container,
		Controls:      h.Controls(),
		Attribution:   h.attribution,
		Camera:        h.camera,
		Bounds:        h.Bounds(),
		Style:         h.style,
		Loaded:        h.loaded,
		Elements:      h.Elements(),
		Sources:       h.Sources(),
		Layers:        h.Layers(),
		FeatureStates: h.FeatureStates(),
	}
}
