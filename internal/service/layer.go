package service

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

var (
	ErrLayerNotFound = errors.New("layer not found")
	ErrLayerExists   = errors.New("layer already exists")
	ErrInvalidLayer  = errors.New("invalid layer")
)

// LayerService manages the interactive layer configurations.
type LayerService struct {
	dataDir string
	layers  map[string]LayerConfig
	mu      sync.RWMutex
	bus     *Bus[Change]
	log     zerolog.Logger
}

// NewLayerService loads layers.json from dataDir. A missing file starts
// from DefaultLayers.
func NewLayerService(dataDir string, bus *Bus[Change], log zerolog.Logger) *LayerService {
	s := &LayerService{
		dataDir: dataDir,
		layers:  make(map[string]LayerConfig),
		bus:     bus,
		log:     log.With().Str("component", "layers").Logger(),
	}
	s.loadFromDisk()
	return s
}

// List returns all layers in draw order.
func (s *LayerService) List() []LayerConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]LayerConfig, 0, len(s.layers))
	for _, l := range s.layers {
		out = append(out, l)
	}
	slices.SortFunc(out, func(a, b LayerConfig) int {
		return cmp.Or(cmp.Compare(a.Order, b.Order), cmp.Compare(a.ID, b.ID))
	})
	return out
}

// Get returns a layer by ID.
func (s *LayerService) Get(id string) (LayerConfig, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	layer, ok := s.layers[id]
	return layer, ok
}

// Create adds a layer. The ID is derived from the name when empty.
func (s *LayerService) Create(layer LayerConfig) (LayerConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if layer.ID == "" {
		layer.ID = generateID(layer.Name)
	}
	if err := validate(layer); err != nil {
		return LayerConfig{}, err
	}
	if _, exists := s.layers[layer.ID]; exists {
		return LayerConfig{}, fmt.Errorf("%w: %q", ErrLayerExists, layer.ID)
	}

	s.layers[layer.ID] = layer
	if err := s.saveToDisk(); err != nil {
		delete(s.layers, layer.ID)
		return LayerConfig{}, err
	}
	s.publish(ActionCreated, layer.ID)
	return layer, nil
}

// Update replaces a layer by ID.
func (s *LayerService) Update(id string, layer LayerConfig) (LayerConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, exists := s.layers[id]
	if !exists {
		return LayerConfig{}, fmt.Errorf("%w: %q", ErrLayerNotFound, id)
	}
	layer.ID = id
	if err := validate(layer); err != nil {
		return LayerConfig{}, err
	}

	s.layers[id] = layer
	if err := s.saveToDisk(); err != nil {
		s.layers[id] = prev
		return LayerConfig{}, err
	}
	s.publish(ActionUpdated, id)
	return layer, nil
}

// Delete removes a layer by ID.
func (s *LayerService) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, exists := s.layers[id]
	if !exists {
		return fmt.Errorf("%w: %q", ErrLayerNotFound, id)
	}

	delete(s.layers, id)
	if err := s.saveToDisk(); err != nil {
		s.layers[id] = prev
		return err
	}
	s.publish(ActionDeleted, id)
	return nil
}

func (s *LayerService) publish(action, id string) {
	if s.bus != nil {
		s.bus.Publish(Change{Resource: "layers", Action: action, ID: id})
	}
}

func validate(l LayerConfig) error {
	switch {
	case l.ID == "":
		return fmt.Errorf("%w: empty id", ErrInvalidLayer)
	case l.TilesetURL == "":
		return fmt.Errorf("%w: %s has no tileset URL", ErrInvalidLayer, l.ID)
	case l.SourceLayer == "":
		return fmt.Errorf("%w: %s has no source layer", ErrInvalidLayer, l.ID)
	}
	return nil
}

func (s *LayerService) configFile() string {
	return filepath.Join(s.dataDir, "layers.json")
}

func (s *LayerService) loadFromDisk() {
	data, err := os.ReadFile(s.configFile())
	if err != nil {
		for _, l := range DefaultLayers() {
			s.layers[l.ID] = l
		}
		return
	}

	var layers map[string]LayerConfig
	if err := json.Unmarshal(data, &layers); err != nil {
		s.log.Warn().Err(err).Str("file", s.configFile()).Msg("ignoring unreadable layers file")
		for _, l := range DefaultLayers() {
			s.layers[l.ID] = l
		}
		return
	}
	if layers == nil {
		layers = make(map[string]LayerConfig)
	}
	s.layers = layers
}

func (s *LayerService) saveToDisk() error {
	if err := os.MkdirAll(s.dataDir, 0755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	data, err := json.MarshalIndent(s.layers, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(s.configFile(), data, 0644); err != nil {
		return fmt.Errorf("writing layers: %w", err)
	}
	return nil
}

// generateID creates a URL-safe ID from a name.
func generateID(name string) string {
	id := strings.ToLower(strings.TrimSpace(name))
	id = strings.ReplaceAll(id, " ", "-")
	var result strings.Builder
	for _, r := range id {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			result.WriteRune(r)
		}
	}
	return result.String()
}
