// Package server assembles the plat-waterfront HTTP server.
package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/rs/zerolog"

	"github.com/joeblew999/plat-waterfront/internal/api"
	"github.com/joeblew999/plat-waterfront/internal/api/mapui"
	"github.com/joeblew999/plat-waterfront/internal/config"
	"github.com/joeblew999/plat-waterfront/internal/db"
	"github.com/joeblew999/plat-waterfront/internal/humastar"
	"github.com/joeblew999/plat-waterfront/internal/service"
	"github.com/joeblew999/plat-waterfront/internal/session"
	"github.com/joeblew999/plat-waterfront/internal/templates"
	"github.com/joeblew999/plat-waterfront/web"
)

// sweepInterval is how often idle sessions are looked for.
const sweepInterval = time.Minute

// Config holds the server configuration.
type Config struct {
	Host      string
	Port      string
	DataDir   string
	ConfigDir string
	// WebDir serves templates and static files from disk instead of the
	// embedded copies.
	WebDir string
	Log    zerolog.Logger
}

// Server is the waterfront HTTP server.
type Server struct {
	config   Config
	log      zerolog.Logger
	mux      *http.ServeMux
	humaAPI  huma.API
	links    *humastar.Links
	db       *sql.DB
	journal  *db.Journal
	changes  *service.Bus[service.Change]
	services *api.Services
	sessions *session.Registry
	mapUI    *mapui.Handler
	renderer *templates.Renderer
	assets   web.Assets
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// New creates the server and starts its background work. Call Close to
// stop it.
func New(cfg Config) (*Server, error) {
	log := cfg.Log

	mapCfg, err := config.Load(cfg.ConfigDir)
	if err != nil {
		return nil, err
	}
	catalog, err := mapCfg.Catalog()
	if err != nil {
		return nil, fmt.Errorf("style catalog: %w", err)
	}

	assets, err := web.Load(cfg.WebDir)
	if err != nil {
		return nil, err
	}
	renderer, err := templates.New(assets.Templates)
	if err != nil {
		return nil, err
	}
	primary, secondary, err := mapui.PopupHTML(renderer, mapCfg.POI)
	if err != nil {
		return nil, fmt.Errorf("rendering popups: %w", err)
	}

	mux := http.NewServeMux()
	links := humastar.NewLinks()

	// Create Huma API with humago (pure stdlib) adapter
	humaConfig := huma.DefaultConfig("plat-waterfront API", api.Version)
	humaConfig.Info.Description = "Map sessions for the waterfront demo: style switching, markers and popups, hover highlighting and viewport bounds."
	humaConfig.Servers = []*huma.Server{
		{URL: fmt.Sprintf("http://%s:%s", cfg.Host, cfg.Port), Description: "Local server"},
	}
	// Disable $schema property in responses (cleaner JSON)
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}
	humaConfig.Transformers = append(humaConfig.Transformers, links.Transformer())

	humaAPI := humago.New(mux, humaConfig)

	s := &Server{
		config:   cfg,
		log:      log,
		mux:      mux,
		humaAPI:  humaAPI,
		links:    links,
		changes:  service.NewBus[service.Change](64),
		renderer: renderer,
		assets:   assets,
	}

	// The journal is optional; the map works without it.
	conn, err := db.Open(context.Background(), db.Config{DataDir: cfg.DataDir})
	if err != nil {
		log.Warn().Err(err).Msg("journal disabled")
	} else {
		s.db = conn
		s.journal = db.NewJournal(conn)
	}

	layers := service.NewLayerService(cfg.DataDir, s.changes, log)
	s.services = &api.Services{Layer: layers, Catalog: catalog}

	opts := session.Options{
		Config:        mapCfg,
		Catalog:       catalog,
		Layers:        session.ServiceLayers(layers),
		PrimaryHTML:   primary,
		SecondaryHTML: secondary,
		Log:           log,
	}
	if s.journal != nil {
		opts.Journal = s.journal
	}
	s.sessions, err = session.NewRegistry(opts, mapCfg.Session.IdleTimeout)
	if err != nil {
		s.closeDB()
		return nil, err
	}
	s.mapUI = mapui.NewHandler(s.sessions, renderer, mapCfg, catalog, log)

	s.routes()

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	changes := s.changes.Subscribe()
	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		s.sessions.Run(ctx, sweepInterval)
	}()
	go func() {
		defer s.wg.Done()
		s.watchLayers(ctx, changes)
	}()
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// OpenAPI returns the generated OpenAPI document.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

// Sessions returns the session registry.
func (s *Server) Sessions() *session.Registry {
	return s.sessions
}

// Close stops background work, closes every session and the database.
func (s *Server) Close() error {
	s.cancel()
	s.wg.Wait()
	s.sessions.CloseAll()
	s.changes.Close()
	return s.closeDB()
}

func (s *Server) closeDB() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Server) routes() {
	// Register Huma REST API routes (OpenAPI-documented JSON endpoints)
	api.RegisterRoutes(s.humaAPI, s.services)
	api.NewInfoHandler(s.config.DataDir, s.db != nil, s.sessions).RegisterRoutes(s.humaAPI)
	api.NewDBHandler(s.db).RegisterRoutes(s.humaAPI)
	api.NewSessionHandler(s.sessions).RegisterRoutes(s.humaAPI)

	// Datastar endpoints behind the map page
	s.mapUI.RegisterRoutes(s.humaAPI)

	s.links.Auto(s.humaAPI, mapui.Tag)

	// Static files and pages
	s.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(s.assets.Static)))
	page := s.mapUI.Page
	if s.config.WebDir != "" {
		page = s.reloading(page)
	}
	s.mux.HandleFunc("GET /map", page)
	s.mux.HandleFunc("GET /{$}", s.handleRoot)
}

// reloading re-parses the templates under the web dir before each page
// load, so edits show up without a restart.
func (s *Server) reloading(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.renderer.Reload(); err != nil {
			s.log.Warn().Err(err).Msg("template reload failed, keeping previous templates")
		}
		next(w, r)
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	for _, link := range s.links.For("/health") {
		w.Header().Add("Link", link)
	}
	w.Header().Add("Link", `</map>; rel="map"`)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"service":  "plat-waterfront",
		"status":   "running",
		"sessions": s.sessions.Len(),
	})
}

// watchLayers journals layer edits. They reach open maps on their next
// style load.
func (s *Server) watchLayers(ctx context.Context, changes chan service.Change) {
	defer s.changes.Unsubscribe(changes)
	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-changes:
			if !ok {
				return
			}
			s.log.Info().Str("layer", c.ID).Str("action", c.Action).Msg("layer changed")
			if s.journal == nil {
				continue
			}
			rctx, cancel := context.WithTimeout(ctx, 2*time.Second)
			err := s.journal.Record(rctx, db.Entry{Kind: "layer." + c.Action, Detail: c.ID})
			cancel()
			if err != nil {
				s.log.Warn().Err(err).Msg("journal")
			}
		}
	}
}
