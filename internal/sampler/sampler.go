// Package sampler interpolates evenly spaced points along a route polyline
// using great-circle distance.
package sampler

import (
	"math"

	"coverage-route-service/internal/domain"
)

const earthRadiusMeters = 6371000.0

func toRad(deg float64) float64 { return deg * math.Pi / 180 }

// GreatCircleDistance returns the haversine distance in meters between two
// points. Symmetric; zero for identical points.
func GreatCircleDistance(a, b domain.Coordinates) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusMeters * c
}

// TotalDistance sums consecutive segment distances over a polyline.
func TotalDistance(polyline []domain.Coordinates) float64 {
	var total float64
	for i := 1; i < len(polyline); i++ {
		total += GreatCircleDistance(polyline[i-1], polyline[i])
	}
	return total
}

func validatePolyline(polyline []domain.Coordinates) error {
	if len(polyline) < 2 {
		return domain.NewValidationError("polyline must contain at least 2 points")
	}
	return nil
}

func lerp(a, b domain.Coordinates, t float64) domain.Coordinates {
	return domain.Coordinates{
		Lat: a.Lat + (b.Lat-a.Lat)*t,
		Lon: a.Lon + (b.Lon-a.Lon)*t,
	}
}

// SampleAtInterval emits points along the polyline roughly every
// intervalMeters. The first vertex is always emitted at distance 0, each
// segment is split into ceil(len/interval) equal steps, and cumulative
// distances are non-decreasing with the final point at total route length.
func SampleAtInterval(polyline []domain.Coordinates, intervalMeters float64) ([]domain.SampledPoint, error) {
	if err := validatePolyline(polyline); err != nil {
		return nil, err
	}
	if intervalMeters <= 0 {
		return nil, domain.NewValidationError("interval must be positive")
	}

	out := []domain.SampledPoint{{Coordinates: polyline[0], DistanceMeters: 0}}
	cumulative := 0.0

	for i := 1; i < len(polyline); i++ {
		segStart, segEnd := polyline[i-1], polyline[i]
		segLen := GreatCircleDistance(segStart, segEnd)
		if segLen == 0 {
			continue
		}

		steps := int(math.Ceil(segLen / intervalMeters))
		for s := 1; s <= steps; s++ {
			t := float64(s) / float64(steps)
			out = append(out, domain.SampledPoint{
				Coordinates:    lerp(segStart, segEnd, t),
				DistanceMeters: cumulative + segLen*t,
			})
		}
		cumulative += segLen
	}

	return out, nil
}

// SampleByCount returns exactly targetCount points spread evenly by distance
// along the polyline. The first point coincides with the route start, the
// last with the route end. A degenerate route (total distance 0) collapses
// to a single point at the start.
func SampleByCount(polyline []domain.Coordinates, targetCount int) ([]domain.SampledPoint, error) {
	if err := validatePolyline(polyline); err != nil {
		return nil, err
	}
	if targetCount < 2 {
		return nil, domain.NewValidationError("target count must be at least 2")
	}

	// Cumulative distance table over segments.
	cumulative := make([]float64, len(polyline))
	for i := 1; i < len(polyline); i++ {
		cumulative[i] = cumulative[i-1] + GreatCircleDistance(polyline[i-1], polyline[i])
	}
	total := cumulative[len(cumulative)-1]

	if total == 0 {
		return []domain.SampledPoint{{Coordinates: polyline[0], DistanceMeters: 0}}, nil
	}

	out := make([]domain.SampledPoint, 0, targetCount)
	seg := 1
	for i := 0; i < targetCount; i++ {
		target := float64(i) / float64(targetCount-1) * total

		for seg < len(polyline)-1 && cumulative[seg] < target {
			seg++
		}

		segLen := cumulative[seg] - cumulative[seg-1]
		t := 0.0
		if segLen > 0 {
			t = (target - cumulative[seg-1]) / segLen
		}
		if t < 0 {
			t = 0
		} else if t > 1 {
			t = 1
		}

		out = append(out, domain.SampledPoint{
			Coordinates:    lerp(polyline[seg-1], polyline[seg], t),
			DistanceMeters: target,
		})
	}

	return out, nil
}
