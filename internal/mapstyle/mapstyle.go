// Package mapstyle defines the closed set of map styles a session can show.
package mapstyle

import (
	"errors"
	"fmt"
	"strings"
)

// Choice is one of the predefined map styles.
type Choice string

const (
	Street Choice = "street"
	Mono   Choice = "mono"
	Night  Choice = "night"
)

// Default is the style a new map starts with.
const Default = Street

// NightURL is the built-in dark style; it is not configurable.
const NightURL = "mapbox://styles/mapbox/dark-v11"

// ErrUnknownStyle is returned for a key outside the enumeration.
var ErrUnknownStyle = errors.New("unknown map style")

// Choices returns every style in display order.
func Choices() []Choice {
	return []Choice{Street, Mono, Night}
}

// Parse converts a UI value into a Choice.
func Parse(s string) (Choice, error) {
	c := Choice(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStyle, s)
	}
	return c, nil
}

// Valid reports whether c is part of the enumeration.
func (c Choice) Valid() bool {
	switch c {
	case Street, Mono, Night:
		return true
	}
	return false
}

// Label returns the human-readable name shown next to the radio control.
func (c Choice) Label() string {
	switch c {
	case Street:
		return "Street"
	case Mono:
		return "Mono"
	case Night:
		return "Night"
	}
	return string(c)
}

// Catalog maps each Choice to a style URL.
type Catalog struct {
	urls map[Choice]string
}

// NewCatalog builds a catalog from the two configured style identifiers.
// Night always resolves to NightURL.
func NewCatalog(streetURL, monoURL string) (Catalog, error) {
	if streetURL == "" {
		return Catalog{}, fmt.Errorf("style %q has no URL", Street)
	}
	if monoURL == "" {
		return Catalog{}, fmt.Errorf("style %q has no URL", Mono)
	}
	return Catalog{urls: map[Choice]string{
		Street: streetURL,
		Mono:   monoURL,
		Night:  NightURL,
	}}, nil
}

// URL returns the style URL for c.
func (c Catalog) URL(choice Choice) (string, error) {
	url, ok := c.urls[choice]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStyle, choice)
	}
	return url, nil
}

// Entry is one catalog row.
type Entry struct {
	Key   Choice `json:"key" enum:"street,mono,night" doc:"Style key" example:"street"`
	Label string `json:"label" doc:"Display label" example:"Street"`
	URL   string `json:"url" doc:"Style URL" example:"mapbox://styles/mapbox/dark-v11"`
}

// Entries lists the catalog in display order.
func (c Catalog) Entries() []Entry {
	entries := make([]Entry, 0, len(c.urls))
	for _, choice := range Choices() {
		entries = append(entries, Entry{Key: choice, Label: choice.Label(), URL: c.urls[choice]})
	}
	return entries
}
