// Package raster reads single pixels out of coverage tile images and
// classifies their color against the operator palette.
package raster

import (
	"bytes"
	"fmt"
	"image"
	"math"
	"strconv"
	"strings"

	_ "image/png" // tile endpoint serves PNG

	"coverage-route-service/internal/domain"
)

// RGBA color with 8-bit channels.
type Color struct {
	R, G, B, A uint8
}

// DefaultTolerance is the maximum color distance accepted by Classify.
// Anti-aliased tile edges drift a few units per channel off the palette.
const DefaultTolerance = 10.0

// PaletteEntry binds one coverage level to its reference tile color.
type PaletteEntry struct {
	Level       domain.Level
	Hex         string
	Description string
}

// Palette returns the canonical five-level coverage palette in tie-break
// order. When two entries are exactly equidistant from a sample the earlier
// one wins; the slice order is therefore part of the contract.
func Palette() []PaletteEntry {
	return []PaletteEntry{
		{Level: domain.LevelBest, Hex: "1f9d40", Description: "Good coverage outdoors and in-home"},
		{Level: domain.LevelGood, Hex: "7cc242", Description: "Good coverage outdoors, variable in-home"},
		{Level: domain.LevelFair, Hex: "f9e04a", Description: "Variable coverage outdoors"},
		{Level: domain.LevelLimited, Hex: "f68d2e", Description: "Limited coverage outdoors"},
		{Level: domain.LevelNone, Hex: "d1304c", Description: "Poor to no coverage outdoors"},
	}
}

// ExtractPixel decodes a tile image and reads the pixel at (x, y). The
// coordinates are clamped into image bounds, so an offset computed for a
// 256px tile still reads sensibly from a short or malformed tile.
func ExtractPixel(tileImage []byte, x, y int) (Color, error) {
	img, _, err := image.Decode(bytes.NewReader(tileImage))
	if err != nil {
		return Color{}, fmt.Errorf("extract pixel: decode tile image: %w", err)
	}

	b := img.Bounds()
	if x < b.Min.X {
		x = b.Min.X
	} else if x >= b.Max.X {
		x = b.Max.X - 1
	}
	if y < b.Min.Y {
		y = b.Min.Y
	} else if y >= b.Max.Y {
		y = b.Max.Y - 1
	}

	r, g, bl, a := img.At(x, y).RGBA()
	return Color{
		R: uint8(r >> 8),
		G: uint8(g >> 8),
		B: uint8(bl >> 8),
		A: uint8(a >> 8),
	}, nil
}

// ToHex renders a color as a lowercase 6-hex-digit string without prefix.
func (c Color) ToHex() string {
	return fmt.Sprintf("%02x%02x%02x", c.R, c.G, c.B)
}

// FromHex parses a 6-hex-digit color, with or without a leading '#'.
// Shorthand 3-digit forms and anything else malformed return ok=false.
func FromHex(hex string) (Color, bool) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return Color{}, false
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, false
	}

	return Color{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
		A: 0xff,
	}, true
}

// ColorDistance is the Euclidean distance between two colors in RGB space.
// Alpha is ignored; the palette is fully opaque.
func ColorDistance(a, b Color) float64 {
	dr := float64(a.R) - float64(b.R)
	dg := float64(a.G) - float64(b.G)
	db := float64(a.B) - float64(b.B)
	return math.Sqrt(dr*dr + dg*dg + db*db)
}

// Classify maps a pixel color to the nearest palette level within tolerance.
// Returns LevelUnknown when no entry qualifies. A malformed hex string also
// classifies as unknown rather than erroring; unmapped water/background
// pixels take this path constantly.
func Classify(hex string, palette []PaletteEntry, tolerance float64) domain.Level {
	c, ok := FromHex(hex)
	if !ok {
		return domain.LevelUnknown
	}

	best := domain.LevelUnknown
	bestDist := math.Inf(1)

	for _, entry := range palette {
		ref, ok := FromHex(entry.Hex)
		if !ok {
			continue
		}

		d := ColorDistance(c, ref)
		if d <= tolerance && d < bestDist {
			bestDist = d
			best = entry.Level
		}
	}

	return best
}
