// Package polyline decodes and encodes Google's polyline algorithm, the
// geometry format the routing provider returns. Precision is the standard
// 5 decimal places.
package polyline

import (
	"math"

	"coverage-route-service/internal/domain"
)

// Decode converts a polyline-encoded string into coordinates. An empty
// string decodes to nil.
func Decode(encoded string) []domain.Coordinates {
	if encoded == "" {
		return nil
	}

	var coords []domain.Coordinates
	index := 0
	lat := 0
	lon := 0

	for index < len(encoded) {
		latDelta, next := decodeValue(encoded, index)
		index = next
		lat += latDelta

		lonDelta, next := decodeValue(encoded, index)
		index = next
		lon += lonDelta

		coords = append(coords, domain.Coordinates{
			Lat: float64(lat) / 1e5,
			Lon: float64(lon) / 1e5,
		})
	}

	return coords
}

func decodeValue(encoded string, index int) (int, int) {
	shift := 0
	result := 0

	for index < len(encoded) {
		b := int(encoded[index]) - 63
		index++
		result |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			break
		}
	}

	if result&1 != 0 {
		return ^(result >> 1), index
	}
	return result >> 1, index
}

// Encode converts coordinates into a polyline-encoded string.
func Encode(coords []domain.Coordinates) string {
	if len(coords) == 0 {
		return ""
	}

	encoded := make([]byte, 0, len(coords)*4)
	prevLat := 0
	prevLon := 0

	for _, c := range coords {
		lat := int(math.Round(c.Lat * 1e5))
		lon := int(math.Round(c.Lon * 1e5))

		encoded = encodeValue(encoded, lat-prevLat)
		encoded = encodeValue(encoded, lon-prevLon)

		prevLat = lat
		prevLon = lon
	}

	return string(encoded)
}

func encodeValue(buf []byte, value int) []byte {
	if value < 0 {
		value = ^(value << 1)
	} else {
		value <<= 1
	}

	for value >= 0x20 {
		buf = append(buf, byte((value&0x1f)|0x20)+63)
		value >>= 5
	}
	return append(buf, byte(value)+63)
}
