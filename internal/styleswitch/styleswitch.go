// Package styleswitch handles style selection and re-initializes the map
// scene every time a requested style finishes loading.
package styleswitch

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/joeblew999/plat-waterfront/internal/hover"
	"github.com/joeblew999/plat-waterfront/internal/maphost"
	"github.com/joeblew999/plat-waterfront/internal/mapstyle"
	"github.com/joeblew999/plat-waterfront/internal/marker"
)

const instrumentationName = "github.com/joeblew999/plat-waterfront/internal/styleswitch"

// ErrNoMap is returned by Select when there is no live map.
var ErrNoMap = errors.New("no map to switch")

// LayerSet is what gets registered on every loaded style.
type LayerSet struct {
	Sources []maphost.Source
	Layers  []maphost.Layer
	// Interactive lists the layer ids that get hover highlighting.
	Interactive []string
}

// LayerSource supplies the current LayerSet.
type LayerSource interface {
	LayerSet() LayerSet
}

// LayerSetFunc adapts a function to LayerSource.
type LayerSetFunc func() LayerSet

func (f LayerSetFunc) LayerSet() LayerSet { return f() }

// Controller owns the current style selection of one host.
type Controller struct {
	host    *maphost.Host
	markers *marker.Manager
	hover   *hover.Controller
	catalog mapstyle.Catalog
	layers  LayerSource
	log     zerolog.Logger

	current mapstyle.Choice
	latest  uint64
	ready   *maphost.Subscription

	swaps metric.Int64Counter
}

// New creates a controller. Call Start once before Select.
func New(host *maphost.Host, markers *marker.Manager, hv *hover.Controller, catalog mapstyle.Catalog, layers LayerSource, log zerolog.Logger) (*Controller, error) {
	swaps, err := otel.Meter(instrumentationName).Int64Counter(
		"map.style.swaps",
		metric.WithDescription("Style swaps requested"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating swaps counter: %w", err)
	}
	return &Controller{
		host:    host,
		markers: markers,
		hover:   hv,
		catalog: catalog,
		layers:  layers,
		log:     log,
		swaps:   swaps,
	}, nil
}

// Start places the default markers and waits for the initial style to load.
func (c *Controller) Start() error {
	if c.host == nil || c.host.Destroyed() {
		return ErrNoMap
	}
	style := c.host.Style()
	c.current = style.Style
	c.track(style)
	if err := c.markers.ResetDefaultLayout(); err != nil {
		return fmt.Errorf("initial markers: %w", err)
	}
	return nil
}

// Current returns the selected style.
func (c *Controller) Current() mapstyle.Choice { return c.current }

// Latest returns the generation of the most recent swap.
func (c *Controller) Latest() uint64 { return c.latest }

// Select switches to choice. It reports false when choice is already the
// selection. Ready signals of swaps superseded by this one are ignored.
func (c *Controller) Select(choice mapstyle.Choice) (bool, error) {
	if c.host == nil || c.host.Destroyed() {
		return false, ErrNoMap
	}
	url, err := c.catalog.URL(choice)
	if err != nil {
		return false, err
	}
	if choice == c.current {
		return false, nil
	}

	swap, err := c.host.SetStyle(choice, url)
	if err != nil {
		return false, fmt.Errorf("set style: %w", err)
	}
	c.current = choice
	c.track(swap)
	c.swaps.Add(context.Background(), 1, metric.WithAttributes(attribute.String("style", string(choice))))

	c.log.Info().Str("style", string(choice)).Uint64("generation", swap.Generation).Msg("style requested")
	return true, nil
}

func (c *Controller) track(swap maphost.Swap) {
	c.ready.Release()
	c.latest = swap.Generation
	c.ready = c.host.Once(maphost.EventStyleReady, swap.Scope(), c.onReady)
}

func (c *Controller) onReady(e maphost.Event) {
	if e.Swap.Generation != c.latest {
		c.log.Debug().Uint64("generation", e.Swap.Generation).Msg("superseded style ready ignored")
		return
	}
	c.ready = nil
	if err := c.Reinitialize(); err != nil {
		c.log.Error().Err(err).Uint64("generation", e.Swap.Generation).Msg("re-initialization incomplete")
		return
	}
	c.log.Info().Str("style", string(e.Swap.Style)).Uint64("generation", e.Swap.Generation).Msg("style ready")
}

// Reinitialize recreates the markers, registers every source and layer on
// the loaded style and re-attaches hover to the interactive layers. It
// keeps going past individual failures and returns them joined.
func (c *Controller) Reinitialize() error {
	var errs []error
	if err := c.markers.ResetDefaultLayout(); err != nil {
		errs = append(errs, fmt.Errorf("markers: %w", err))
	}

	set := c.layers.LayerSet()
	for _, src := range set.Sources {
		if err := c.host.AddSource(src); err != nil {
			errs = append(errs, fmt.Errorf("source: %w", err))
		}
	}
	for _, l := range set.Layers {
		if err := c.host.AddLayer(l); err != nil {
			errs = append(errs, fmt.Errorf("layer: %w", err))
		}
	}

	c.hover.DetachAll()
	for _, id := range set.Interactive {
		if err := c.hover.Attach(id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
