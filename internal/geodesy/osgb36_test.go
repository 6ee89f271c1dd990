package geodesy

import (
	"math"
	"testing"

	"coverage-route-service/internal/domain"
)

// Reference values from Ordnance Survey worked examples and the OS
// coordinate transformation tool, accurate to a few meters after the
// single-step Helmert shift.
func TestToProjectedKnownPoints(t *testing.T) {
	proj := NewOSGB36()

	tests := []struct {
		name     string
		coord    domain.Coordinates
		easting  float64
		northing float64
		tol      float64
	}{
		{
			name:     "london charing cross",
			coord:    domain.Coordinates{Lat: 51.5073, Lon: -0.1276},
			easting:  530047,
			northing: 180380,
			tol:      15,
		},
		{
			name:     "edinburgh castle",
			coord:    domain.Coordinates{Lat: 55.9486, Lon: -3.1999},
			easting:  325153,
			northing: 673524,
			tol:      15,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := proj.ToProjected(tc.coord)
			if math.Abs(p.Easting-tc.easting) > tc.tol {
				t.Errorf("easting = %.1f, want %.1f +/- %.0f", p.Easting, tc.easting, tc.tol)
			}
			if math.Abs(p.Northing-tc.northing) > tc.tol {
				t.Errorf("northing = %.1f, want %.1f +/- %.0f", p.Northing, tc.northing, tc.tol)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	proj := NewOSGB36()

	coords := []domain.Coordinates{
		{Lat: 51.5073, Lon: -0.1276},
		{Lat: 55.9486, Lon: -3.1999},
		{Lat: 50.2660, Lon: -5.0527},
		{Lat: 57.1497, Lon: -2.0943},
	}

	for _, c := range coords {
		got := proj.ToGeographic(proj.ToProjected(c))
		if math.Abs(got.Lat-c.Lat) > 1e-5 || math.Abs(got.Lon-c.Lon) > 1e-5 {
			t.Errorf("round trip %v -> %v", c, got)
		}
	}
}

func TestNaNPropagates(t *testing.T) {
	proj := NewOSGB36()

	p := proj.ToProjected(domain.Coordinates{Lat: math.NaN(), Lon: -0.1})
	if !math.IsNaN(p.Easting) || !math.IsNaN(p.Northing) {
		t.Fatalf("NaN input produced %v, want NaN easting and northing", p)
	}

	c := proj.ToGeographic(domain.Projected{Easting: math.NaN(), Northing: 180000})
	if !math.IsNaN(c.Lat) && !math.IsNaN(c.Lon) {
		t.Fatalf("NaN easting produced %v, want NaN output", c)
	}
}
