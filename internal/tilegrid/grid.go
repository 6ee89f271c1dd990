// Package tilegrid addresses the BNG-projected coverage tile pyramid:
// projected coordinate to tile index and in-tile pixel offset, and tile
// index back to its bounding rectangle.
package tilegrid

import (
	"fmt"
	"math"

	"coverage-route-service/internal/domain"
	"coverage-route-service/internal/ports"
)

// TileSizePixels is the fixed edge length of every coverage tile.
const TileSizePixels = 256

// Config parameterizes the grid. Resolutions holds meters-per-pixel for
// zoom 0 upward and must halve at each level.
type Config struct {
	OriginX     float64
	OriginY     float64
	Resolutions []float64
}

// DefaultConfig is the canonical grid: origin (0,0), zooms 0-11,
// resolution 2867.2 m/px at zoom 0 (2.8 m/px at zoom 10). Earlier parameter
// sets that floated around the tile endpoint are deprecated; this one is the
// set validated against live reference tiles.
func DefaultConfig() Config {
	res := make([]float64, 12)
	res[0] = 2867.2
	for z := 1; z < len(res); z++ {
		res[z] = res[z-1] / 2
	}
	return Config{OriginX: 0, OriginY: 0, Resolutions: res}
}

// DefaultZoom is the zoom level coverage lookups run at.
const DefaultZoom = 8

// ZoomRangeError reports a zoom level outside the configured pyramid.
type ZoomRangeError struct {
	Zoom int
	Max  int
}

func (e *ZoomRangeError) Error() string {
	return fmt.Sprintf("zoom %d outside supported range 0-%d", e.Zoom, e.Max)
}

// Tile index within the pyramid. Row addressing follows the TMS convention:
// tile Y grows northward with the projected axis.
type TileIndex struct {
	X, Y, Zoom int
}

// Pixel position inside a decoded tile raster. Row 0 is the tile's north
// edge, so Y here is inverted relative to the projected axis.
type PixelOffset struct {
	X, Y int
}

// Rectangle in projected meters. West/south edges are inclusive, east/north
// exclusive, matching the floor-division tile assignment.
type Bounds struct {
	West, South, East, North float64
}

// GeographicBounds is a tile footprint in WGS84 degrees.
type GeographicBounds struct {
	West, South, East, North float64
}

// Grid resolves tile addresses for one configured pyramid.
type Grid struct {
	cfg Config
}

func New(cfg Config) *Grid { return &Grid{cfg: cfg} }

// Resolution returns meters-per-pixel at the given zoom.
func (g *Grid) Resolution(zoom int) (float64, error) {
	if zoom < 0 || zoom >= len(g.cfg.Resolutions) {
		return 0, &ZoomRangeError{Zoom: zoom, Max: len(g.cfg.Resolutions) - 1}
	}
	return g.cfg.Resolutions[zoom], nil
}

// TileSpan returns the projected width of one tile at the given zoom.
func (g *Grid) TileSpan(zoom int) (float64, error) {
	res, err := g.Resolution(zoom)
	if err != nil {
		return 0, err
	}
	return res * TileSizePixels, nil
}

// ToTile resolves the tile containing a projected coordinate. A coordinate
// exactly on a tile's west or south edge belongs to that tile; one on the
// east or north edge belongs to the neighbor. Easting/northing range is not
// validated.
func (g *Grid) ToTile(p domain.Projected, zoom int) (TileIndex, error) {
	span, err := g.TileSpan(zoom)
	if err != nil {
		return TileIndex{}, err
	}

	return TileIndex{
		X:    int(math.Floor((p.Easting - g.cfg.OriginX) / span)),
		Y:    int(math.Floor((p.Northing - g.cfg.OriginY) / span)),
		Zoom: zoom,
	}, nil
}

// ToPixelOffset resolves the raster pixel under a projected coordinate
// within its tile. The row subtraction flips the south-up projected axis
// into north-down raster rows.
func (g *Grid) ToPixelOffset(p domain.Projected, zoom int) (PixelOffset, error) {
	res, err := g.Resolution(zoom)
	if err != nil {
		return PixelOffset{}, err
	}
	span := res * TileSizePixels

	inTileX := math.Mod(p.Easting-g.cfg.OriginX, span)
	if inTileX < 0 {
		inTileX += span
	}
	inTileY := math.Mod(p.Northing-g.cfg.OriginY, span)
	if inTileY < 0 {
		inTileY += span
	}

	return PixelOffset{
		X: int(math.Floor(inTileX / res)),
		Y: (TileSizePixels - 1) - int(math.Floor(inTileY/res)),
	}, nil
}

// TileBounds returns the projected rectangle covered by a tile. It is the
// exact inverse of ToTile for any interior point.
func (g *Grid) TileBounds(t TileIndex) (Bounds, error) {
	span, err := g.TileSpan(t.Zoom)
	if err != nil {
		return Bounds{}, err
	}

	return Bounds{
		West:  float64(t.X)*span + g.cfg.OriginX,
		East:  float64(t.X+1)*span + g.cfg.OriginX,
		South: float64(t.Y)*span + g.cfg.OriginY,
		North: float64(t.Y+1)*span + g.cfg.OriginY,
	}, nil
}

// TileBoundsGeographic projects the two opposite corners of a tile's bounds
// back to WGS84 through the injected projector.
func (g *Grid) TileBoundsGeographic(t TileIndex, proj ports.Projector) (GeographicBounds, error) {
	b, err := g.TileBounds(t)
	if err != nil {
		return GeographicBounds{}, err
	}

	sw := proj.ToGeographic(domain.Projected{Easting: b.West, Northing: b.South})
	ne := proj.ToGeographic(domain.Projected{Easting: b.East, Northing: b.North})

	return GeographicBounds{
		West:  sw.Lon,
		South: sw.Lat,
		East:  ne.Lon,
		North: ne.Lat,
	}, nil
}
