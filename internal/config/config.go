// Package config loads the map configuration: the mapbox access token,
// style URLs, the point of interest and session settings.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/joeblew999/plat-waterfront/internal/geo"
	"github.com/joeblew999/plat-waterfront/internal/mapstyle"
)

// FileName is the optional config file looked up in the config dir.
const FileName = "waterfront.cfg.json"

// POI is the point of interest the markers are placed at.
type POI struct {
	Name            string  `mapstructure:"name"`
	Address         string  `mapstructure:"address"`
	Lng             float64 `mapstructure:"lng"`
	Lat             float64 `mapstructure:"lat"`
	SecondaryOffset float64 `mapstructure:"secondaryOffset"`
}

// Coordinate returns the POI location.
func (p POI) Coordinate() geo.Coordinate { return geo.NewCoordinate(p.Lng, p.Lat) }

// Map holds the initial map settings.
type Map struct {
	Container string  `mapstructure:"container"`
	Zoom      float64 `mapstructure:"zoom"`
	Viewport  struct {
		Width  float64 `mapstructure:"width"`
		Height float64 `mapstructure:"height"`
	} `mapstructure:"viewport"`
}

// Config is the loaded configuration.
type Config struct {
	Mapbox struct {
		AccessToken string `mapstructure:"accessToken"`
	} `mapstructure:"mapbox"`
	Styles struct {
		Street string `mapstructure:"street"`
		Mono   string `mapstructure:"mono"`
	} `mapstructure:"styles"`
	Map     Map `mapstructure:"map"`
	POI     POI `mapstructure:"poi"`
	Session struct {
		IdleTimeout time.Duration `mapstructure:"idleTimeout"`
	} `mapstructure:"session"`
}

// Catalog builds the style catalog from the configured URLs.
func (c Config) Catalog() (mapstyle.Catalog, error) {
	return mapstyle.NewCatalog(c.Styles.Street, c.Styles.Mono)
}

// Viewport returns the default viewport size.
func (c Config) Viewport() geo.Viewport {
	return geo.Viewport{Width: c.Map.Viewport.Width, Height: c.Map.Viewport.Height}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mapbox.accessToken", "")
	v.SetDefault("styles.street", "mapbox://styles/mapbox/streets-v12")
	v.SetDefault("styles.mono", "mapbox://styles/mapbox/light-v11")

	v.SetDefault("map.container", "map")
	v.SetDefault("map.zoom", 16)
	v.SetDefault("map.viewport.width", 1280)
	v.SetDefault("map.viewport.height", 720)

	v.SetDefault("poi.name", "Vancouver Convention Centre")
	v.SetDefault("poi.address", "1055 Canada Pl, Vancouver, BC")
	v.SetDefault("poi.lng", -123.113952)
	v.SetDefault("poi.lat", 49.28843)
	v.SetDefault("poi.secondaryOffset", 0.001)

	v.SetDefault("session.idleTimeout", "30m")
}

var envKeys = map[string]string{
	"mapbox.accessToken": "MAPBOX_ACCESS_TOKEN",
	"styles.street":      "MAPBOX_STYLE_STREET",
	"styles.mono":        "MAPBOX_STYLE_MONO",
}

// Load reads FileName from configDir when present, applies defaults and
// environment overrides. A missing file is not an error.
func Load(configDir string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	for key, env := range envKeys {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("binding %s: %w", env, err)
		}
	}

	v.SetConfigName(FileName)
	v.SetConfigType("json")
	if configDir != "" {
		v.AddConfigPath(configDir)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if cfg.Map.Container == "" {
		return Config{}, errors.New("map.container must not be empty")
	}
	return cfg, nil
}
