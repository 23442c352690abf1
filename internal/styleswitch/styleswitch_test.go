package styleswitch

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-waterfront/internal/geo"
	"github.com/joeblew999/plat-waterfront/internal/hover"
	"github.com/joeblew999/plat-waterfront/internal/maphost"
	"github.com/joeblew999/plat-waterfront/internal/mapstyle"
	"github.com/joeblew999/plat-waterfront/internal/marker"
)

var poi = geo.NewCoordinate(-123.113952, 49.28843)

const primaryHTML = "<div><strong>Vancouver Convention Centre</strong><p>1055 Canada Pl, Vancouver, BC</p></div>"

func waterfrontLayers() LayerSet {
	return LayerSet{
		Sources: []maphost.Source{
			{ID: "waterfront", Type: "vector", URL: "mapbox://me.waterfront"},
			{ID: "waterfront-buildings", Type: "vector", URL: "mapbox://me.buildings"},
		},
		Layers: []maphost.Layer{
			{ID: "waterfront-layer", Type: "fill", Source: "waterfront", SourceLayer: "waterfront"},
			{ID: "waterfront-buildings-layer", Type: "fill", Source: "waterfront-buildings", SourceLayer: "waterfront-buildings"},
		},
		Interactive: []string{"waterfront-layer", "waterfront-buildings-layer"},
	}
}

type fixture struct {
	host    *maphost.Host
	markers *marker.Manager
	hover   *hover.Controller
	ctrl    *Controller
}

func setup(t *testing.T) *fixture {
	t.Helper()
	catalog, err := mapstyle.NewCatalog("mapbox://styles/me/street", "mapbox://styles/me/mono")
	require.NoError(t, err)
	street, err := catalog.URL(mapstyle.Street)
	require.NoError(t, err)

	host, err := maphost.New(maphost.Options{
		Container: "map",
		Center:    poi,
		Zoom:      16,
		Style:     mapstyle.Street,
		StyleURL:  street,
	})
	require.NoError(t, err)

	log := zerolog.Nop()
	markers := marker.NewManager(host, marker.DefaultLayout(poi, 0.001, primaryHTML, "<div>Marker</div>"), log)
	hv := hover.NewController(host, log)
	ctrl, err := New(host, markers, hv, catalog, LayerSetFunc(waterfrontLayers), log)
	require.NoError(t, err)
	require.NoError(t, ctrl.Start())

	return &fixture{host: host, markers: markers, hover: hv, ctrl: ctrl}
}

func (f *fixture) complete(t *testing.T, generation uint64) {
	t.Helper()
	_, err := f.host.CompleteStyle(generation)
	require.NoError(t, err)
}

func (f *fixture) assertDefaultLayout(t *testing.T) {
	t.Helper()
	markers := f.host.ElementsOf(maphost.KindMarker)
	require.Len(t, markers, 2)
	assert.True(t, markers[0].Coordinate.Equal(poi))
	assert.Equal(t, marker.CustomMarkerClass, markers[0].Class)
	assert.True(t, markers[1].Coordinate.Equal(poi.Offset(0.001, 0)))
	assert.Empty(t, markers[1].Class)
	assert.Empty(t, f.host.ElementsOf(maphost.KindPopup))
}

func TestStart_PlacesMarkersAndWaitsForInitialStyle(t *testing.T) {
	f := setup(t)

	f.assertDefaultLayout(t)
	assert.Empty(t, f.host.Layers(), "layers wait for the style")
	assert.Equal(t, mapstyle.Street, f.ctrl.Current())

	f.complete(t, 1)

	f.assertDefaultLayout(t)
	assert.Len(t, f.host.Layers(), 2)
	assert.True(t, f.hover.Attached("waterfront-layer"))
	assert.True(t, f.hover.Attached("waterfront-buildings-layer"))
}

func TestSelect_SameStyleIsNoop(t *testing.T) {
	f := setup(t)

	changed, err := f.ctrl.Select(mapstyle.Street)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, uint64(1), f.host.Style().Generation)
}

func TestSelect_UnknownStyle(t *testing.T) {
	f := setup(t)

	_, err := f.ctrl.Select(mapstyle.Choice("sepia"))
	assert.ErrorIs(t, err, mapstyle.ErrUnknownStyle)
}

func TestSelect_NoMap(t *testing.T) {
	f := setup(t)
	f.host.Destroy()

	_, err := f.ctrl.Select(mapstyle.Night)
	assert.ErrorIs(t, err, ErrNoMap)
}

func TestSelect_EveryStyleRestoresLayout(t *testing.T) {
	f := setup(t)
	f.complete(t, 1)

	for _, choice := range []mapstyle.Choice{mapstyle.Mono, mapstyle.Night, mapstyle.Street} {
		t.Run(string(choice), func(t *testing.T) {
			old := f.markers.Primary()

			changed, err := f.ctrl.Select(choice)
			require.NoError(t, err)
			require.True(t, changed)
			assert.Empty(t, f.host.Layers(), "nothing registered before ready")

			f.complete(t, f.ctrl.Latest())

			assert.True(t, old.Removed())
			f.assertDefaultLayout(t)
			assert.Equal(t, choice, f.host.LoadedStyle().Style)
			assert.Len(t, f.host.Layers(), 2)
			assert.True(t, f.hover.Attached("waterfront-layer"))
		})
	}
}

func TestSelect_HoverWorksAfterSwap(t *testing.T) {
	f := setup(t)
	f.complete(t, 1)

	_, err := f.ctrl.Select(mapstyle.Night)
	require.NoError(t, err)
	f.complete(t, f.ctrl.Latest())

	require.NoError(t, f.host.PointerMove("waterfront-layer", []maphost.FeatureID{"12"}))
	id, ok := f.hover.Hovered("waterfront-layer")
	require.True(t, ok)
	assert.Equal(t, maphost.FeatureID("12"), id)

	key, err := f.host.FeatureKeyFor("waterfront-layer", "12")
	require.NoError(t, err)
	assert.Equal(t, true, f.host.FeatureState(key)[hover.StateKey])
}

func TestSelect_SupersededReadyIgnored(t *testing.T) {
	f := setup(t)
	f.complete(t, 1)

	_, err := f.ctrl.Select(mapstyle.Mono)
	require.NoError(t, err)
	mono := f.ctrl.Latest()
	_, err = f.ctrl.Select(mapstyle.Night)
	require.NoError(t, err)
	night := f.ctrl.Latest()

	f.complete(t, night)
	primary := f.markers.Primary()
	f.complete(t, mono)

	assert.Same(t, primary, f.markers.Primary(), "stale ready does not rebuild")
	assert.Equal(t, mapstyle.Night, f.ctrl.Current())
	assert.Equal(t, mapstyle.Night, f.host.LoadedStyle().Style)
	assert.Len(t, f.host.Layers(), 2)
	f.assertDefaultLayout(t)
}

func TestScenario_HoverThenNight(t *testing.T) {
	f := setup(t)
	f.complete(t, 1)

	primary := f.markers.Primary()
	require.NoError(t, f.host.ElementEnter(primary.ID()))
	popups := f.host.ElementsOf(maphost.KindPopup)
	require.Len(t, popups, 1)
	assert.Contains(t, popups[0].HTML, "Vancouver Convention Centre")

	require.NoError(t, f.host.ElementLeave(primary.ID()))
	assert.Empty(t, f.host.ElementsOf(maphost.KindPopup))

	_, err := f.ctrl.Select(mapstyle.Night)
	require.NoError(t, err)
	f.complete(t, f.ctrl.Latest())

	assert.True(t, primary.Removed())
	_, ok := f.host.Element(primary.ID())
	assert.False(t, ok)
	f.assertDefaultLayout(t)
}

func TestReinitialize_ReportsLayerErrors(t *testing.T) {
	f := setup(t)
	f.complete(t, 1)

	err := f.ctrl.Reinitialize()
	assert.ErrorIs(t, err, maphost.ErrDuplicateSource)
	assert.ErrorIs(t, err, maphost.ErrDuplicateLayer)
	f.assertDefaultLayout(t)
}
