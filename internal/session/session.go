// Package session owns one browser map: the host and the components that
// drive it, run on a single loop goroutine. HTTP handlers reach a session
// through Do and its typed wrappers; the browser glue follows it through
// Subscribe.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/joeblew999/plat-waterfront/internal/bounds"
	"github.com/joeblew999/plat-waterfront/internal/config"
	"github.com/joeblew999/plat-waterfront/internal/db"
	"github.com/joeblew999/plat-waterfront/internal/geo"
	"github.com/joeblew999/plat-waterfront/internal/hover"
	"github.com/joeblew999/plat-waterfront/internal/maphost"
	"github.com/joeblew999/plat-waterfront/internal/mapstyle"
	"github.com/joeblew999/plat-waterfront/internal/marker"
	"github.com/joeblew999/plat-waterfront/internal/service"
	"github.com/joeblew999/plat-waterfront/internal/styleswitch"
)

const instrumentationName = "github.com/joeblew999/plat-waterfront/internal/session"

// ErrClosed is returned for operations on a closed session.
var ErrClosed = errors.New("session closed")

// Recorder stores journal entries.
type Recorder interface {
	Record(ctx context.Context, e db.Entry) error
}

// Options configures new sessions.
type Options struct {
	Config  config.Config
	Catalog mapstyle.Catalog
	Layers  styleswitch.LayerSource

	// PrimaryHTML and SecondaryHTML are the popup contents.
	PrimaryHTML   string
	SecondaryHTML string

	// Journal is optional.
	Journal Recorder
	Log     zerolog.Logger
}

// Session is one live map.
type Session struct {
	id     string
	opened time.Time

	host     *maphost.Host
	markers  *marker.Manager
	hover    *hover.Controller
	styles   *styleswitch.Controller
	reporter *bounds.Reporter
	bounds   string

	updates *service.Bus[Update]
	journal Recorder
	log     zerolog.Logger
	moves   metric.Int64Counter

	ops        chan func()
	done       chan struct{}
	closeOnce  sync.Once
	lastActive atomic.Int64
}

// New builds a session with the default style and starts its loop.
func New(opts Options) (*Session, error) {
	cfg := opts.Config
	id := uuid.NewString()
	log := opts.Log.With().Str("session", id).Logger()

	url, err := opts.Catalog.URL(mapstyle.Default)
	if err != nil {
		return nil, err
	}
	host, err := maphost.New(maphost.Options{
		Container: cfg.Map.Container,
		Center:    cfg.POI.Coordinate(),
		Zoom:      cfg.Map.Zoom,
		Style:     mapstyle.Default,
		StyleURL:  url,
		Viewport:  cfg.Viewport(),
	})
	if err != nil {
		return nil, fmt.Errorf("creating map: %w", err)
	}

	moves, err := otel.Meter(instrumentationName).Int64Counter(
		"map.camera.moves",
		metric.WithDescription("Camera moves reported by browsers"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating moves counter: %w", err)
	}

	s := &Session{
		id:      id,
		opened:  time.Now(),
		host:    host,
		updates: service.NewBus[Update](256),
		journal: opts.Journal,
		log:     log,
		moves:   moves,
		ops:     make(chan func()),
		done:    make(chan struct{}),
	}
	s.touch()

	layout := marker.DefaultLayout(cfg.POI.Coordinate(), cfg.POI.SecondaryOffset, opts.PrimaryHTML, opts.SecondaryHTML)
	s.markers = marker.NewManager(host, layout, log)
	s.hover = hover.NewController(host, log)
	s.styles, err = styleswitch.New(host, s.markers, s.hover, opts.Catalog, opts.Layers, log)
	if err != nil {
		return nil, err
	}
	s.reporter = bounds.NewReporter(host, func(text string) {
		s.bounds = text
		s.updates.Publish(Update{Kind: UpdateBounds, Bounds: text})
	})

	s.forward()
	if err := s.styles.Start(); err != nil {
		return nil, err
	}
	s.reporter.Start()

	go s.run()
	s.record("session.opened", string(mapstyle.Default))
	log.Info().Msg("session opened")
	return s, nil
}

// forward republishes host events as updates.
func (s *Session) forward() {
	s.host.On(maphost.EventStyleRequested, "", func(e maphost.Event) {
		swap := e.Swap
		s.updates.Publish(Update{Kind: UpdateStyle, Style: swap.Style, Swap: &swap})
	})
	s.host.On(maphost.EventScene, "", func(e maphost.Event) {
		el := e.Element
		s.updates.Publish(Update{Kind: UpdateScene, Element: &el, Removed: e.Removed})
	})
	s.host.On(maphost.EventLayers, "", func(maphost.Event) {
		s.updates.Publish(Update{Kind: UpdateLayers, Sources: s.host.Sources(), Layers: s.host.Layers()})
	})
	s.host.On(maphost.EventFeatureState, "", func(e maphost.Event) {
		key := e.Feature
		s.updates.Publish(Update{Kind: UpdateFeatureState, Feature: &key, State: e.State})
	})
}

func (s *Session) run() {
	for {
		select {
		case op := <-s.ops:
			op()
		case <-s.done:
			return
		}
	}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Opened returns when the session was created.
func (s *Session) Opened() time.Time { return s.opened }

// LastActive returns when the session last ran an operation.
func (s *Session) LastActive() time.Time { return time.Unix(0, s.lastActive.Load()) }

// Done is closed when the session closes.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) touch() { s.lastActive.Store(time.Now().UnixNano()) }

// Do runs fn on the session loop and returns its error.
func (s *Session) Do(ctx context.Context, fn func() error) error {
	errc := make(chan error, 1)
	select {
	case s.ops <- func() { errc <- fn() }:
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	s.touch()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SelectStyle switches the map style. It reports whether a swap started.
func (s *Session) SelectStyle(ctx context.Context, choice mapstyle.Choice) (bool, error) {
	var changed bool
	err := s.Do(ctx, func() error {
		var err error
		changed, err = s.styles.Select(choice)
		if changed {
			s.record("style.requested", string(choice))
		}
		return err
	})
	return changed, err
}

// StyleLoaded reports that the browser finished loading a style swap.
func (s *Session) StyleLoaded(ctx context.Context, generation uint64) error {
	return s.Do(ctx, func() error {
		swap, err := s.host.CompleteStyle(generation)
		if err != nil {
			return err
		}
		detail := string(swap.Style)
		if s.host.Superseded(generation) {
			detail += " (superseded)"
		}
		s.record("style.ready", detail)
		return nil
	})
}

// MoveCamera records a camera reported by the browser.
func (s *Session) MoveCamera(ctx context.Context, cam geo.Camera) error {
	return s.Do(ctx, func() error {
		if err := s.host.MoveCamera(cam); err != nil {
			return err
		}
		s.moves.Add(context.Background(), 1)
		return nil
	})
}

// MarkerHover delivers mouseenter (enter) or mouseleave on a marker element.
func (s *Session) MarkerHover(ctx context.Context, element string, enter bool) error {
	return s.Do(ctx, func() error {
		if enter {
			return s.host.ElementEnter(element)
		}
		return s.host.ElementLeave(element)
	})
}

// PointerMove delivers a layer mousemove with the features under the pointer.
func (s *Session) PointerMove(ctx context.Context, layer string, features []maphost.FeatureID) error {
	return s.Do(ctx, func() error {
		return s.host.PointerMove(layer, features)
	})
}

// PointerLeave delivers a layer mouseleave.
func (s *Session) PointerLeave(ctx context.Context, layer string) error {
	return s.Do(ctx, func() error {
		return s.host.PointerLeave(layer)
	})
}

// Snapshot is the state of a session.
type Snapshot struct {
	ID      string                       `json:"id" doc:"Session id"`
	Opened  time.Time                    `json:"opened" doc:"When the session was created"`
	Style   mapstyle.Choice              `json:"style" enum:"street,mono,night" doc:"Selected style"`
	Bounds  string                       `json:"bounds" doc:"Bounds readout text"`
	Hovered map[string]maphost.FeatureID `json:"hovered" doc:"Hovered feature per interactive layer"`
	Markers []MarkerState                `json:"markers" doc:"Placed markers, primary first"`
	Map     maphost.Snapshot             `json:"map" doc:"Map host state"`
}

// MarkerState describes one placed marker.
type MarkerState struct {
	ID         string         `json:"id" doc:"Marker element id"`
	Role       string         `json:"role" enum:"primary,secondary" doc:"Marker role"`
	Coordinate geo.Coordinate `json:"coordinate" doc:"Anchor as [lng, lat]"`
	Popup      string         `json:"popup" enum:"hidden,visible" doc:"Popup visibility"`
}

// Snapshot copies the session state.
func (s *Session) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := s.Do(ctx, func() error {
		snap = Snapshot{
			ID:      s.id,
			Opened:  s.opened,
			Style:   s.styles.Current(),
			Bounds:  s.bounds,
			Hovered: map[string]maphost.FeatureID{},
			Map:     s.host.Snapshot(),
		}
		for _, l := range s.host.Layers() {
			if id, ok := s.hover.Hovered(l.ID); ok {
				snap.Hovered[l.ID] = id
			}
		}
		snap.Markers = appendMarker(snap.Markers, "primary", s.markers.Primary())
		snap.Markers = appendMarker(snap.Markers, "secondary", s.markers.Secondary())
		return nil
	})
	return snap, err
}

func appendMarker(out []MarkerState, role string, h *marker.Handle) []MarkerState {
	if h == nil {
		return out
	}
	return append(out, MarkerState{
		ID:         h.ID(),
		Role:       role,
		Coordinate: h.Coordinate(),
		Popup:      h.Popup().State().String(),
	})
}

// Subscribe returns a channel of updates. It is closed when the session
// closes or on Unsubscribe.
func (s *Session) Subscribe() chan Update { return s.updates.Subscribe() }

// Unsubscribe stops delivery to ch.
func (s *Session) Unsubscribe(ch chan Update) { s.updates.Unsubscribe(ch) }

// Watched reports whether any subscriber is attached.
func (s *Session) Watched() bool { return s.updates.Len() > 0 }

// Close destroys the map and stops the loop. Calling it again is a no-op.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		_ = s.Do(context.Background(), func() error {
			s.reporter.Stop()
			s.hover.DetachAll()
			s.host.Destroy()
			s.record("session.closed", "")
			return nil
		})
		close(s.done)
		s.updates.Close()
		s.log.Info().Msg("session closed")
	})
}

func (s *Session) record(kind, detail string) {
	if s.journal == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.journal.Record(ctx, db.Entry{Session: s.id, Kind: kind, Detail: detail}); err != nil {
		s.log.Warn().Err(err).Str("kind", kind).Msg("journal")
	}
}
