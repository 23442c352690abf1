package session

import (
	"github.com/joeblew999/plat-waterfront/internal/service"
	"github.com/joeblew999/plat-waterfront/internal/styleswitch"
)

// LayerSet converts layer configs into the registrations made on every
// loaded style.
func LayerSet(configs []service.LayerConfig) styleswitch.LayerSet {
	var set styleswitch.LayerSet
	for _, c := range configs {
		set.Sources = append(set.Sources, c.Source())
		set.Layers = append(set.Layers, c.Layer())
		if c.Interactive {
			set.Interactive = append(set.Interactive, c.LayerID())
		}
	}
	return set
}

// ServiceLayers reads the layer service on every style load, so edits
// apply from the next style swap on.
func ServiceLayers(svc *service.LayerService) styleswitch.LayerSource {
	return styleswitch.LayerSetFunc(func() styleswitch.LayerSet {
		return LayerSet(svc.List())
	})
}
