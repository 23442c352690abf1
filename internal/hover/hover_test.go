package hover

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-waterfront/internal/geo"
	"github.com/joeblew999/plat-waterfront/internal/maphost"
)

const (
	waterfront = "waterfront-layer"
	buildings  = "waterfront-buildings-layer"
)

func setup(t *testing.T) (*maphost.Host, *Controller) {
	t.Helper()
	host, err := maphost.New(maphost.Options{
		Container: "map",
		Center:    geo.NewCoordinate(-123.113952, 49.28843),
		Zoom:      16,
	})
	require.NoError(t, err)
	registerLayers(t, host)
	return host, NewController(host, zerolog.Nop())
}

func registerLayers(t *testing.T, host *maphost.Host) {
	t.Helper()
	require.NoError(t, host.AddSource(maphost.Source{ID: "waterfront", Type: "vector"}))
	require.NoError(t, host.AddSource(maphost.Source{ID: "waterfront-buildings", Type: "vector"}))
	require.NoError(t, host.AddLayer(maphost.Layer{ID: waterfront, Type: "fill", Source: "waterfront", SourceLayer: "waterfront"}))
	require.NoError(t, host.AddLayer(maphost.Layer{ID: buildings, Type: "fill", Source: "waterfront-buildings", SourceLayer: "waterfront-buildings"}))
}

// flagged returns the ids of features whose hover flag is set.
func flagged(host *maphost.Host, source string) []maphost.FeatureID {
	var out []maphost.FeatureID
	for _, fs := range host.FeatureStates() {
		if fs.Source == source && fs.State[StateKey] == true {
			out = append(out, fs.ID)
		}
	}
	return out
}

func TestAttach_UnknownLayer(t *testing.T) {
	_, c := setup(t)
	assert.ErrorIs(t, c.Attach("missing"), maphost.ErrUnknownLayer)
	assert.False(t, c.Attached("missing"))
}

func TestMove_FlagsFirstFeature(t *testing.T) {
	host, c := setup(t)
	require.NoError(t, c.Attach(waterfront))

	require.NoError(t, host.PointerMove(waterfront, []maphost.FeatureID{"a", "b"}))

	id, ok := c.Hovered(waterfront)
	require.True(t, ok)
	assert.Equal(t, maphost.FeatureID("a"), id)
	assert.Equal(t, []maphost.FeatureID{"a"}, flagged(host, "waterfront"))
}

func TestMove_SwitchingFeatures(t *testing.T) {
	host, c := setup(t)
	require.NoError(t, c.Attach(waterfront))

	require.NoError(t, host.PointerMove(waterfront, []maphost.FeatureID{"a"}))
	require.NoError(t, host.PointerMove(waterfront, []maphost.FeatureID{"b"}))

	assert.Equal(t, []maphost.FeatureID{"b"}, flagged(host, "waterfront"))
	key, err := host.FeatureKeyFor(waterfront, "a")
	require.NoError(t, err)
	assert.Equal(t, false, host.FeatureState(key)[StateKey])
}

func TestMove_SameFeatureIsNoop(t *testing.T) {
	host, c := setup(t)
	require.NoError(t, c.Attach(waterfront))

	updates := 0
	host.On(maphost.EventFeatureState, "", func(maphost.Event) { updates++ })

	require.NoError(t, host.PointerMove(waterfront, []maphost.FeatureID{"a"}))
	require.NoError(t, host.PointerMove(waterfront, []maphost.FeatureID{"a"}))

	assert.Equal(t, 1, updates)
}

func TestMove_EmptyFeaturesIgnored(t *testing.T) {
	host, c := setup(t)
	require.NoError(t, c.Attach(waterfront))

	require.NoError(t, host.PointerMove(waterfront, nil))

	_, ok := c.Hovered(waterfront)
	assert.False(t, ok)
	assert.Empty(t, host.FeatureStates())
}

func TestLeave_ClearsFlag(t *testing.T) {
	host, c := setup(t)
	require.NoError(t, c.Attach(waterfront))

	require.NoError(t, host.PointerMove(waterfront, []maphost.FeatureID{"a"}))
	require.NoError(t, host.PointerLeave(waterfront))

	_, ok := c.Hovered(waterfront)
	assert.False(t, ok)
	assert.Empty(t, flagged(host, "waterfront"))

	// A second leave with nothing tracked changes nothing.
	require.NoError(t, host.PointerLeave(waterfront))
	assert.Empty(t, flagged(host, "waterfront"))
}

func TestLayersTrackedIndependently(t *testing.T) {
	host, c := setup(t)
	require.NoError(t, c.Attach(waterfront))
	require.NoError(t, c.Attach(buildings))

	require.NoError(t, host.PointerMove(waterfront, []maphost.FeatureID{"a"}))
	require.NoError(t, host.PointerMove(buildings, []maphost.FeatureID{"x"}))
	require.NoError(t, host.PointerLeave(buildings))

	assert.Equal(t, []maphost.FeatureID{"a"}, flagged(host, "waterfront"))
	assert.Empty(t, flagged(host, "waterfront-buildings"))
}

func TestReattach_ReleasesOldBinding(t *testing.T) {
	host, c := setup(t)
	require.NoError(t, c.Attach(waterfront))
	before := host.Listeners()

	require.NoError(t, c.Attach(waterfront))
	assert.Equal(t, before, host.Listeners())

	updates := 0
	host.On(maphost.EventFeatureState, "", func(maphost.Event) { updates++ })
	require.NoError(t, host.PointerMove(waterfront, []maphost.FeatureID{"a"}))
	assert.Equal(t, 1, updates, "only one binding reacts")
}

func TestDetachAll_AfterStyleSwap(t *testing.T) {
	host, c := setup(t)
	require.NoError(t, c.Attach(waterfront))
	require.NoError(t, c.Attach(buildings))
	require.NoError(t, host.PointerMove(waterfront, []maphost.FeatureID{"a"}))

	_, err := host.CompleteStyle(1)
	require.NoError(t, err)
	c.DetachAll()
	assert.Equal(t, 0, host.Listeners())

	registerLayers(t, host)
	require.NoError(t, c.Attach(waterfront))

	_, ok := c.Hovered(waterfront)
	assert.False(t, ok, "hover state resets with the style")
	require.NoError(t, host.PointerMove(waterfront, []maphost.FeatureID{"b"}))
	assert.Equal(t, []maphost.FeatureID{"b"}, flagged(host, "waterfront"))
}
