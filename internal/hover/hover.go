// Package hover keeps a "hover" feature-state flag on the feature under the
// pointer, one tracked feature per interactive layer.
package hover

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/joeblew999/plat-waterfront/internal/maphost"
)

// StateKey is the feature-state key the layer paint reads.
const StateKey = "hover"

type binding struct {
	layer   string
	hovered *maphost.FeatureKey
	subs    []*maphost.Subscription
}

// Controller owns the hover bindings of one host.
type Controller struct {
	host     *maphost.Host
	bindings map[string]*binding
	log      zerolog.Logger
}

// NewController creates a controller with no layers attached.
func NewController(host *maphost.Host, log zerolog.Logger) *Controller {
	return &Controller{
		host:     host,
		bindings: make(map[string]*binding),
		log:      log,
	}
}

// Attach binds pointer events on layerID. Attaching a layer again drops
// the old binding and its tracked feature.
func (c *Controller) Attach(layerID string) error {
	if _, ok := c.host.Layer(layerID); !ok {
		return fmt.Errorf("hover attach: %w: %s", maphost.ErrUnknownLayer, layerID)
	}
	c.Detach(layerID)

	b := &binding{layer: layerID}
	b.subs = []*maphost.Subscription{
		c.host.On(maphost.EventMouseMove, layerID, func(e maphost.Event) { c.move(b, e.Features) }),
		c.host.On(maphost.EventMouseLeave, layerID, func(maphost.Event) { c.leave(b) }),
	}
	c.bindings[layerID] = b

	c.log.Debug().Str("layer", layerID).Msg("hover attached")
	return nil
}

// Detach releases the binding of layerID. The tracked feature, if any, is
// forgotten without touching its state.
func (c *Controller) Detach(layerID string) {
	b, ok := c.bindings[layerID]
	if !ok {
		return
	}
	for _, sub := range b.subs {
		sub.Release()
	}
	b.subs = nil
	b.hovered = nil
	delete(c.bindings, layerID)
}

// DetachAll releases every binding.
func (c *Controller) DetachAll() {
	for id := range c.bindings {
		c.Detach(id)
	}
}

// Attached reports whether layerID has a binding.
func (c *Controller) Attached(layerID string) bool {
	_, ok := c.bindings[layerID]
	return ok
}

// Hovered returns the tracked feature of layerID.
func (c *Controller) Hovered(layerID string) (maphost.FeatureID, bool) {
	b, ok := c.bindings[layerID]
	if !ok || b.hovered == nil {
		return "", false
	}
	return b.hovered.ID, true
}

func (c *Controller) move(b *binding, features []maphost.FeatureID) {
	if len(features) == 0 {
		return
	}
	key, err := c.host.FeatureKeyFor(b.layer, features[0])
	if err != nil {
		c.log.Warn().Err(err).Str("layer", b.layer).Msg("hover move")
		return
	}
	if b.hovered != nil && *b.hovered == key {
		return
	}
	if b.hovered != nil {
		c.set(*b.hovered, false)
	}
	c.set(key, true)
	b.hovered = &key
}

func (c *Controller) leave(b *binding) {
	if b.hovered == nil {
		return
	}
	c.set(*b.hovered, false)
	b.hovered = nil
}

func (c *Controller) set(key maphost.FeatureKey, on bool) {
	if err := c.host.SetFeatureState(key, maphost.FeatureState{StateKey: on}); err != nil {
		c.log.Warn().Err(err).Str("source", key.Source).Str("feature", string(key.ID)).Msg("feature state")
	}
}
