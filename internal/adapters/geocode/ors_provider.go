// Package geocode adapts OpenRouteService behind the Geocoder and
// RouteProvider ports.
package geocode

import (
	"errors"
	"net/http"
	"strings"
	"time"
)

// ORSProvider implements geocoding and routing against OpenRouteService.
//
// It coordinates:
//   - Location normalization
//   - Geocode search bounded to GB
//   - Directions requests with encoded-polyline geometry
//   - External API calls with retry/backoff
//
// The provider is safe for concurrent use.
type ORSProvider struct {
	session *http.Client
	apiKey  string
	baseURL string
}

func NewORSProvider(apiKey string) (*ORSProvider, error) {
	if apiKey == "" {
		return nil, errors.New("ORS api key is empty")
	}

	return &ORSProvider{
		session: &http.Client{Timeout: 10 * time.Second},
		apiKey:  apiKey,
		baseURL: "https://api.openrouteservice.org",
	}, nil
}

// normalize ensures consistent lookups by collapsing whitespace.
func (o *ORSProvider) normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
