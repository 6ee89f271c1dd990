package tilegrid

import (
	"errors"
	"math"
	"testing"

	"coverage-route-service/internal/domain"
	"coverage-route-service/internal/geodesy"
)

func TestResolutionPyramid(t *testing.T) {
	g := New(DefaultConfig())

	res0, err := g.Resolution(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for z := 0; z < 12; z++ {
		res, err := g.Resolution(z)
		if err != nil {
			t.Fatalf("zoom %d: %v", z, err)
		}

		want := res0 / math.Pow(2, float64(z))
		if math.Abs(res-want) > 1e-9 {
			t.Errorf("resolution[%d] = %v, want %v", z, res, want)
		}

		span, err := g.TileSpan(z)
		if err != nil {
			t.Fatalf("zoom %d: %v", z, err)
		}
		if math.Abs(span-res*TileSizePixels) > 1e-9 {
			t.Errorf("tileSpan(%d) = %v, want %v", z, span, res*TileSizePixels)
		}
	}

	if math.Abs(mustResolution(t, g, 10)-2.8) > 1e-9 {
		t.Errorf("resolution[10] = %v, want 2.8", mustResolution(t, g, 10))
	}
}

func mustResolution(t *testing.T, g *Grid, zoom int) float64 {
	t.Helper()
	res, err := g.Resolution(zoom)
	if err != nil {
		t.Fatalf("resolution(%d): %v", zoom, err)
	}
	return res
}

func TestZoomOutOfRange(t *testing.T) {
	g := New(DefaultConfig())

	for _, zoom := range []int{-1, 12, 100} {
		_, err := g.ToTile(domain.Projected{Easting: 1000, Northing: 1000}, zoom)
		var zre *ZoomRangeError
		if !errors.As(err, &zre) {
			t.Errorf("zoom %d: got %v, want ZoomRangeError", zoom, err)
		}
	}
}

func TestBoundsAdjacency(t *testing.T) {
	g := New(DefaultConfig())

	cases := []TileIndex{
		{X: 0, Y: 0, Zoom: 0},
		{X: 12, Y: 40, Zoom: 8},
		{X: 511, Y: 1023, Zoom: 11},
		{X: -3, Y: 7, Zoom: 5},
	}

	for _, tile := range cases {
		b, err := g.TileBounds(tile)
		if err != nil {
			t.Fatalf("bounds %+v: %v", tile, err)
		}

		east, err := g.TileBounds(TileIndex{X: tile.X + 1, Y: tile.Y, Zoom: tile.Zoom})
		if err != nil {
			t.Fatalf("east neighbor %+v: %v", tile, err)
		}
		if b.East != east.West {
			t.Errorf("tile %+v: east edge %v != neighbor west edge %v", tile, b.East, east.West)
		}

		north, err := g.TileBounds(TileIndex{X: tile.X, Y: tile.Y + 1, Zoom: tile.Zoom})
		if err != nil {
			t.Fatalf("north neighbor %+v: %v", tile, err)
		}
		if b.North != north.South {
			t.Errorf("tile %+v: north edge %v != neighbor south edge %v", tile, b.North, north.South)
		}
	}
}

func TestBoundsRoundTrip(t *testing.T) {
	g := New(DefaultConfig())

	cases := []TileIndex{
		{X: 0, Y: 0, Zoom: 0},
		{X: 185, Y: 62, Zoom: 8},
		{X: 3, Y: 9, Zoom: 2},
		{X: 1500, Y: 700, Zoom: 11},
	}

	for _, tile := range cases {
		b, err := g.TileBounds(tile)
		if err != nil {
			t.Fatalf("bounds %+v: %v", tile, err)
		}

		center := domain.Projected{
			Easting:  (b.West + b.East) / 2,
			Northing: (b.South + b.North) / 2,
		}
		got, err := g.ToTile(center, tile.Zoom)
		if err != nil {
			t.Fatalf("toTile %+v: %v", tile, err)
		}
		if got != tile {
			t.Errorf("round trip: center of %+v resolved to %+v", tile, got)
		}
	}
}

// A coordinate on the shared edge between two tiles must belong to the
// east/north tile; samples on tile borders depend on this.
func TestEdgeOwnership(t *testing.T) {
	g := New(DefaultConfig())

	tile := TileIndex{X: 10, Y: 20, Zoom: 8}
	b, err := g.TileBounds(tile)
	if err != nil {
		t.Fatalf("bounds: %v", err)
	}

	onWest, err := g.ToTile(domain.Projected{Easting: b.West, Northing: b.South + 1}, 8)
	if err != nil {
		t.Fatalf("toTile west edge: %v", err)
	}
	if onWest.X != tile.X {
		t.Errorf("west edge belongs to tile %d, want %d", onWest.X, tile.X)
	}

	onEast, err := g.ToTile(domain.Projected{Easting: b.East, Northing: b.South + 1}, 8)
	if err != nil {
		t.Fatalf("toTile east edge: %v", err)
	}
	if onEast.X != tile.X+1 {
		t.Errorf("east edge belongs to tile %d, want %d", onEast.X, tile.X+1)
	}
}

func TestPixelOffsetInversion(t *testing.T) {
	g := New(DefaultConfig())

	res := mustResolution(t, g, 8)
	span := res * TileSizePixels

	// Just inside the south-west corner of tile (1,1): raster column 0,
	// bottom raster row.
	p := domain.Projected{Easting: span + res/2, Northing: span + res/2}
	px, err := g.ToPixelOffset(p, 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if px.X != 0 || px.Y != TileSizePixels-1 {
		t.Errorf("south-west corner pixel = %+v, want {0 %d}", px, TileSizePixels-1)
	}

	// Just inside the north edge: raster row 0.
	p = domain.Projected{Easting: span + res/2, Northing: 2*span - res/2}
	px, err = g.ToPixelOffset(p, 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if px.Y != 0 {
		t.Errorf("north edge pixel row = %d, want 0", px.Y)
	}
}

// A stable reference point: Charing Cross at the default zoom. Documents
// the canonical grid constants in executable form.
func TestKnownReferenceTile(t *testing.T) {
	g := New(DefaultConfig())
	proj := geodesy.NewOSGB36()

	p := proj.ToProjected(domain.Coordinates{Lat: 51.5073, Lon: -0.1276})

	tile, err := g.ToTile(p, DefaultZoom)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// easting ~530047 / (11.2 * 256) = 184, northing ~180380 / 2867.2 = 62
	if tile.X != 184 || tile.Y != 62 {
		t.Errorf("reference tile = %+v, want {184 62 %d}", tile, DefaultZoom)
	}
}
