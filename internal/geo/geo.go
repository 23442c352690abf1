// Package geo holds the coordinate, bounds and camera types shared by the
// map session, and the viewport math used to derive bounds from a camera.
package geo

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/danielgtaylor/huma/v2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// TileSize is the pixel size of a world tile at zoom 0 in mapbox-gl.
const TileSize = 512

// earthRadius matches the spherical mercator radius used by orb/project.
const earthRadius = 6378137.0

// maxMercator is the mercator extent in meters (the square world's half side).
var maxMercator = math.Pi * earthRadius

// Coordinate is a (longitude, latitude) pair.
type Coordinate orb.Point

// NewCoordinate returns the coordinate at lng, lat.
func NewCoordinate(lng, lat float64) Coordinate {
	return Coordinate{lng, lat}
}

// Lng returns the longitude.
func (c Coordinate) Lng() float64 { return c[0] }

// Lat returns the latitude.
func (c Coordinate) Lat() float64 { return c[1] }

// Point returns the coordinate as an orb.Point.
func (c Coordinate) Point() orb.Point { return orb.Point(c) }

// Offset returns a new coordinate shifted by dLng, dLat degrees.
func (c Coordinate) Offset(dLng, dLat float64) Coordinate {
	return Coordinate{c[0] + dLng, c[1] + dLat}
}

// Equal reports whether both coordinates are the same point.
func (c Coordinate) Equal(o Coordinate) bool {
	return orb.Point(c).Equal(orb.Point(o))
}

// Valid reports whether the coordinate is a finite point with longitude in
// [-180, 180] and latitude in [-90, 90].
func (c Coordinate) Valid() bool {
	lng, lat := c[0], c[1]
	return !math.IsNaN(lng) && !math.IsNaN(lat) &&
		lng >= -180 && lng <= 180 && lat >= -90 && lat <= 90
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f,%.6f", c[0], c[1])
}

// Bounds is a geographic rectangle (south-west / north-east corners).
type Bounds orb.Bound

// NewBounds returns the rectangle spanned by the two corners.
func NewBounds(sw, ne Coordinate) Bounds {
	return Bounds{Min: orb.Point(sw), Max: orb.Point(ne)}
}

func (b Bounds) West() float64  { return b.Min[0] }
func (b Bounds) South() float64 { return b.Min[1] }
func (b Bounds) East() float64  { return b.Max[0] }
func (b Bounds) North() float64 { return b.Max[1] }

// SouthWest returns the south-west corner.
func (b Bounds) SouthWest() Coordinate { return Coordinate(b.Min) }

// NorthEast returns the north-east corner.
func (b Bounds) NorthEast() Coordinate { return Coordinate(b.Max) }

// IsEmpty reports whether the rectangle has no area.
func (b Bounds) IsEmpty() bool {
	return b.Min[0] >= b.Max[0] || b.Min[1] >= b.Max[1]
}

// Contains reports whether c lies inside the rectangle.
func (b Bounds) Contains(c Coordinate) bool {
	return orb.Bound(b).Contains(orb.Point(c))
}

// Center returns the midpoint of the rectangle.
func (b Bounds) Center() Coordinate {
	return Coordinate(orb.Bound(b).Center())
}

// MarshalJSON encodes the bounds as [[west, south], [east, north]].
func (b Bounds) MarshalJSON() ([]byte, error) {
	return json.Marshal([2][2]float64{
		{b.Min[0], b.Min[1]},
		{b.Max[0], b.Max[1]},
	})
}

// Schema describes the JSON form of Bounds in the OpenAPI document.
func (Bounds) Schema(huma.Registry) *huma.Schema {
	two := 2
	corner := &huma.Schema{
		Type:     huma.TypeArray,
		Items:    &huma.Schema{Type: huma.TypeNumber},
		MinItems: &two,
		MaxItems: &two,
	}
	return &huma.Schema{
		Type:        huma.TypeArray,
		Description: "[[west, south], [east, north]]",
		Items:       corner,
		MinItems:    &two,
		MaxItems:    &two,
	}
}

// UnmarshalJSON decodes [[west, south], [east, north]].
func (b *Bounds) UnmarshalJSON(data []byte) error {
	var v [2][2]float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	b.Min = orb.Point{v[0][0], v[0][1]}
	b.Max = orb.Point{v[1][0], v[1][1]}
	return nil
}

// Viewport is the size of the map canvas in CSS pixels.
type Viewport struct {
	Width  float64 `json:"width" minimum:"1" doc:"Canvas width in CSS pixels" example:"1280"`
	Height float64 `json:"height" minimum:"1" doc:"Canvas height in CSS pixels" example:"720"`
}

// Camera is the map's view state.
type Camera struct {
	Center   Coordinate `json:"center" doc:"Map center as [lng, lat]"`
	Zoom     float64    `json:"zoom" minimum:"0" maximum:"24" doc:"Zoom level"`
	Bearing  float64    `json:"bearing,omitempty" doc:"Rotation in degrees"`
	Viewport Viewport   `json:"viewport" doc:"Canvas size"`
}

// Valid reports whether the camera has a valid center, a finite zoom and
// bearing, and yields finite bounds.
func (c Camera) Valid() bool {
	if !c.Center.Valid() || math.IsNaN(c.Zoom) || math.IsInf(c.Zoom, 0) ||
		math.IsNaN(c.Bearing) || math.IsInf(c.Bearing, 0) {
		return false
	}
	b := c.Bounds()
	for _, v := range []float64{b.Min[0], b.Min[1], b.Max[0], b.Max[1]} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// MetersPerPixel returns the ground resolution at the camera's zoom on the
// mercator plane.
func (c Camera) MetersPerPixel() float64 {
	worldPx := TileSize * math.Exp2(c.Zoom)
	return 2 * maxMercator / worldPx
}

// Bounds returns the axis-aligned rectangle covering the visible canvas.
// A rotated camera yields the envelope of the rotated canvas corners.
func (c Camera) Bounds() Bounds {
	mpp := c.MetersPerPixel()
	halfW := c.Viewport.Width / 2
	halfH := c.Viewport.Height / 2

	rad := c.Bearing * math.Pi / 180
	cos, sin := math.Abs(math.Cos(rad)), math.Abs(math.Sin(rad))
	dx := (halfW*cos + halfH*sin) * mpp
	dy := (halfW*sin + halfH*cos) * mpp

	center := project.Point(c.Center.Point(), project.WGS84.ToMercator)
	sw := project.Point(orb.Point{center[0] - dx, clampMercator(center[1] - dy)}, project.Mercator.ToWGS84)
	ne := project.Point(orb.Point{center[0] + dx, clampMercator(center[1] + dy)}, project.Mercator.ToWGS84)

	return Bounds{Min: sw, Max: ne}
}

func clampMercator(y float64) float64 {
	return math.Max(-maxMercator, math.Min(maxMercator, y))
}
