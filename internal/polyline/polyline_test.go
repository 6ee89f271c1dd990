package polyline

import (
	"math"
	"testing"

	"coverage-route-service/internal/domain"
)

// The documented example from Google's polyline algorithm reference.
func TestDecodeReferenceString(t *testing.T) {
	coords := Decode("_p~iF~ps|U_ulLnnqC_mqNvxq`@")

	want := []domain.Coordinates{
		{Lat: 38.5, Lon: -120.2},
		{Lat: 40.7, Lon: -120.95},
		{Lat: 43.252, Lon: -126.453},
	}

	if len(coords) != len(want) {
		t.Fatalf("got %d coords, want %d", len(coords), len(want))
	}
	for i := range want {
		if math.Abs(coords[i].Lat-want[i].Lat) > 1e-5 || math.Abs(coords[i].Lon-want[i].Lon) > 1e-5 {
			t.Errorf("coord %d = %+v, want %+v", i, coords[i], want[i])
		}
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	coords := []domain.Coordinates{
		{Lat: 51.50735, Lon: -0.12776},
		{Lat: 51.50852, Lon: -0.12411},
		{Lat: 51.51023, Lon: -0.11987},
	}

	got := Decode(Encode(coords))
	if len(got) != len(coords) {
		t.Fatalf("got %d coords, want %d", len(got), len(coords))
	}
	for i := range coords {
		if math.Abs(got[i].Lat-coords[i].Lat) > 1e-5 || math.Abs(got[i].Lon-coords[i].Lon) > 1e-5 {
			t.Errorf("coord %d = %+v, want %+v", i, got[i], coords[i])
		}
	}
}

func TestDecodeEmpty(t *testing.T) {
	if got := Decode(""); got != nil {
		t.Errorf("Decode(\"\") = %v, want nil", got)
	}
}
