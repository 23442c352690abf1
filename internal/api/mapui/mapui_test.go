package mapui

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-waterfront/internal/config"
	"github.com/joeblew999/plat-waterfront/internal/mapstyle"
	"github.com/joeblew999/plat-waterfront/internal/service"
	"github.com/joeblew999/plat-waterfront/internal/session"
	"github.com/joeblew999/plat-waterfront/internal/styleswitch"
	"github.com/joeblew999/plat-waterfront/internal/templates"
	"github.com/joeblew999/plat-waterfront/web"
)

type fixture struct {
	api      humatest.TestAPI
	sessions *session.Registry
	handler  *Handler
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)
	catalog, err := cfg.Catalog()
	require.NoError(t, err)

	assets, err := web.Load("")
	require.NoError(t, err)
	renderer, err := templates.New(assets.Templates)
	require.NoError(t, err)
	primary, secondary, err := PopupHTML(renderer, cfg.POI)
	require.NoError(t, err)

	sessions, err := session.NewRegistry(session.Options{
		Config:        cfg,
		Catalog:       catalog,
		Layers:        styleswitch.LayerSetFunc(func() styleswitch.LayerSet { return session.LayerSet(service.DefaultLayers()) }),
		PrimaryHTML:   primary,
		SecondaryHTML: secondary,
		Log:           zerolog.Nop(),
	}, time.Hour)
	require.NoError(t, err)
	t.Cleanup(sessions.CloseAll)

	// Streaming handlers unwrap the stdlib request, so the test API runs on
	// the humago adapter.
	api := humatest.Wrap(t, humago.New(http.NewServeMux(), huma.DefaultConfig("test", "1.0.0")))
	h := NewHandler(sessions, renderer, cfg, catalog, zerolog.Nop())
	h.RegisterRoutes(api)
	return fixture{api: api, sessions: sessions, handler: h}
}

func (f fixture) open(t *testing.T) *session.Session {
	t.Helper()
	s, err := f.sessions.Create()
	require.NoError(t, err)
	return s
}

func snapshot(t *testing.T, s *session.Session) session.Snapshot {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)
	return snap
}

func TestSelectStyle(t *testing.T) {
	f := newFixture(t)
	s := f.open(t)
	path := "/api/v1/map/" + s.ID() + "/style"

	resp := f.api.Post(path, map[string]any{"mapstyle": "mono"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Contains(t, resp.Body.String(), "datastar-patch-signals")
	assert.Contains(t, resp.Body.String(), "mono")
	assert.Equal(t, mapstyle.Mono, snapshot(t, s).Style)

	// Selecting the current style again is accepted.
	resp = f.api.Post(path, map[string]any{"mapstyle": "mono"})
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestSelectStyle_BadInput(t *testing.T) {
	f := newFixture(t)
	s := f.open(t)
	path := "/api/v1/map/" + s.ID() + "/style"

	resp := f.api.Post(path, map[string]any{"mapstyle": "neon"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = f.api.Post(path, strings.NewReader("{"))
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = f.api.Post("/api/v1/map/nope/style", map[string]any{"mapstyle": "mono"})
	assert.Equal(t, http.StatusNotFound, resp.Code)

	assert.Equal(t, mapstyle.Default, snapshot(t, s).Style)
}

func TestStyleReady(t *testing.T) {
	f := newFixture(t)
	s := f.open(t)
	path := "/api/v1/map/" + s.ID() + "/style-ready"

	resp := f.api.Post(path, map[string]any{"generation": 1})
	assert.Equal(t, http.StatusNoContent, resp.Code, resp.Body.String())
	assert.NotEmpty(t, snapshot(t, s).Map.Layers)

	resp = f.api.Post(path, map[string]any{"generation": 1})
	assert.Equal(t, http.StatusConflict, resp.Code, "already completed")

	resp = f.api.Post(path, map[string]any{"generation": 0})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}

func TestCamera(t *testing.T) {
	f := newFixture(t)
	s := f.open(t)
	before := snapshot(t, s).Bounds

	resp := f.api.Post("/api/v1/map/"+s.ID()+"/camera", map[string]any{
		"center":   []float64{-123.12, 49.29},
		"zoom":     14,
		"viewport": map[string]any{"width": 800, "height": 600},
	})
	require.Equal(t, http.StatusNoContent, resp.Code, resp.Body.String())

	after := snapshot(t, s)
	assert.InDelta(t, 14.0, after.Map.Camera.Zoom, 1e-9)
	assert.True(t, strings.HasPrefix(after.Bounds, "Bounds: "))
	assert.NotEqual(t, before, after.Bounds)
}

func TestCamera_RejectsOutOfRangeCenter(t *testing.T) {
	f := newFixture(t)
	s := f.open(t)
	before := snapshot(t, s)

	resp := f.api.Post("/api/v1/map/"+s.ID()+"/camera", map[string]any{
		"center":   []float64{0, 100},
		"zoom":     3,
		"viewport": map[string]any{"width": 800, "height": 600},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code, resp.Body.String())

	after := snapshot(t, s)
	assert.Equal(t, before.Bounds, after.Bounds)
	_, err := json.Marshal(after)
	require.NoError(t, err)
}

func TestMarkerHover(t *testing.T) {
	f := newFixture(t)
	s := f.open(t)
	snap := snapshot(t, s)
	require.NotEmpty(t, snap.Markers)
	primary := snap.Markers[0].ID

	resp := f.api.Post("/api/v1/map/"+s.ID()+"/markers/"+primary+"/hover", map[string]any{"enter": true})
	assert.Equal(t, http.StatusNoContent, resp.Code, resp.Body.String())

	resp = f.api.Post("/api/v1/map/"+s.ID()+"/markers/"+primary+"/hover", map[string]any{"enter": false})
	assert.Equal(t, http.StatusNoContent, resp.Code)

	resp = f.api.Post("/api/v1/map/"+s.ID()+"/markers/marker-999/hover", map[string]any{"enter": true})
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestLayerPointer(t *testing.T) {
	f := newFixture(t)
	s := f.open(t)
	require.NoError(t, s.StyleLoaded(context.Background(), 1))
	path := "/api/v1/map/" + s.ID() + "/layers/waterfront-layer/pointer"

	resp := f.api.Post(path, map[string]any{"features": []string{"4", "9"}})
	require.Equal(t, http.StatusNoContent, resp.Code, resp.Body.String())
	assert.EqualValues(t, "4", snapshot(t, s).Hovered["waterfront-layer"])

	resp = f.api.Post(path, map[string]any{"leave": true})
	require.Equal(t, http.StatusNoContent, resp.Code)
	assert.Empty(t, snapshot(t, s).Hovered)
}

func TestEvents_SendsStateFirst(t *testing.T) {
	f := newFixture(t)
	s := f.open(t)

	go func() {
		time.Sleep(200 * time.Millisecond)
		f.sessions.Close(s.ID())
	}()

	resp := f.api.Get("/api/v1/map/" + s.ID() + "/events")
	require.Equal(t, http.StatusOK, resp.Code)
	body := resp.Body.String()
	assert.Contains(t, body, "datastar-patch-signals")
	assert.Contains(t, body, "Bounds: ")
	assert.Contains(t, body, EventSync)

	resp = f.api.Get("/api/v1/map/nope/events")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestPage(t *testing.T) {
	f := newFixture(t)

	rec := httptest.NewRecorder()
	f.handler.Page(rec, httptest.NewRequest(http.MethodGet, "/map", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, f.sessions.Len())

	id := f.sessions.List()[0].ID()
	body := rec.Body.String()
	assert.Contains(t, body, `id="map"`)
	assert.Contains(t, body, `id="map-boot"`)
	assert.Contains(t, body, "/api/v1/map/"+id+"/events")
	assert.Contains(t, body, "/api/v1/map/"+id+"/style")
	assert.Contains(t, body, "Vancouver Convention Centre")
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestPopupHTML(t *testing.T) {
	assets, err := web.Load("")
	require.NoError(t, err)
	renderer, err := templates.New(assets.Templates)
	require.NoError(t, err)

	primary, secondary, err := PopupHTML(renderer, config.POI{
		Name:            "Canada Place",
		Address:         "999 Canada Pl",
		Lng:             -123.11,
		Lat:             49.28,
		SecondaryOffset: 0.001,
	})
	require.NoError(t, err)
	assert.Contains(t, primary, "<strong>Canada Place</strong>")
	assert.Contains(t, primary, "999 Canada Pl")
	assert.Contains(t, secondary, "49.280000, -123.109000")
}
