package mapui

import (
	"net/http"

	"github.com/joeblew999/plat-waterfront/internal/config"
	"github.com/joeblew999/plat-waterfront/internal/geo"
	"github.com/joeblew999/plat-waterfront/internal/humastar"
	"github.com/joeblew999/plat-waterfront/internal/maphost"
	"github.com/joeblew999/plat-waterfront/internal/mapstyle"
	"github.com/joeblew999/plat-waterfront/internal/templates"
)

// bootConfig is read by map.js before the SSE stream opens.
type bootConfig struct {
	AccessToken string            `json:"accessToken"`
	Container   string            `json:"container"`
	Center      geo.Coordinate    `json:"center"`
	Zoom        float64           `json:"zoom"`
	Style       maphost.Swap      `json:"style"`
	Routes      map[string]string `json:"routes"`
}

type pageData struct {
	Title     string
	Container string
	Styles    []mapstyle.Entry
	Current   mapstyle.Choice
	Bounds    string
	Page      humastar.PageData
	Boot      bootConfig
}

// Page opens a session and renders the map page bound to it.
func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Create()
	if err != nil {
		h.log.Error().Err(err).Msg("opening map session")
		http.Error(w, "map unavailable: "+err.Error(), http.StatusInternalServerError)
		return
	}
	snap, err := s.Snapshot(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	page, err := humastar.BuildPageData(h.api, Tag,
		map[string]string{"session": s.ID()},
		map[string]any{"mapstyle": snap.Style, "bounds": snap.Bounds, "error": ""},
	)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := pageData{
		Title:     h.cfg.POI.Name,
		Container: snap.Map.Container,
		Styles:    h.catalog.Entries(),
		Current:   snap.Style,
		Bounds:    snap.Bounds,
		Page:      page,
		Boot: bootConfig{
			AccessToken: h.cfg.Mapbox.AccessToken,
			Container:   snap.Map.Container,
			Center:      snap.Map.Camera.Center,
			Zoom:        snap.Map.Camera.Zoom,
			Style:       snap.Map.Style,
			Routes:      page.Routes,
		},
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := h.Renderer.Execute(w, "map-page", data); err != nil {
		h.log.Error().Err(err).Str("session", s.ID()).Msg("rendering map page")
	}
}

// PopupHTML renders the primary (point of interest) and secondary popup
// contents.
func PopupHTML(r *templates.Renderer, poi config.POI) (primary, secondary string, err error) {
	primary, err = r.Render("popup-primary", poi)
	if err != nil {
		return "", "", err
	}
	at := poi.Coordinate().Offset(poi.SecondaryOffset, 0)
	secondary, err = r.Render("popup-secondary", map[string]float64{"Lng": at.Lng(), "Lat": at.Lat()})
	if err != nil {
		return "", "", err
	}
	return primary, secondary, nil
}
