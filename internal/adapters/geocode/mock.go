package geocode

import (
	"context"
	"fmt"

	"coverage-route-service/internal/domain"
	"coverage-route-service/internal/ports"
)

// MockGeocoder resolves from a fixed table. Unknown locations fail the way
// the live geocoder does.
type MockGeocoder struct {
	Locations map[string]domain.Coordinates
	Calls     int
}

func (m *MockGeocoder) Resolve(ctx context.Context, location string) (domain.Coordinates, error) {
	m.Calls++
	c, ok := m.Locations[location]
	if !ok {
		return domain.Coordinates{}, fmt.Errorf("location %q not found", location)
	}
	return c, nil
}

// MockRouteProvider returns a canned polyline and counts invocations so
// tests can assert route-reuse behavior.
type MockRouteProvider struct {
	Routes map[string]ports.Route
	Calls  int
	Err    error
}

func routeKey(origin, destination domain.Coordinates, profile ports.TravelProfile) string {
	return fmt.Sprintf("%v|%v|%s", origin, destination, profile)
}

func (m *MockRouteProvider) GetRoute(
	ctx context.Context,
	origin, destination domain.Coordinates,
	profile ports.TravelProfile,
) (ports.Route, error) {
	m.Calls++
	if m.Err != nil {
		return ports.Route{}, m.Err
	}

	r, ok := m.Routes[routeKey(origin, destination, profile)]
	if !ok {
		return ports.Route{}, fmt.Errorf("no route between %v and %v", origin, destination)
	}
	return r, nil
}

// AddRoute registers a canned route for the given endpoints and profile.
func (m *MockRouteProvider) AddRoute(origin, destination domain.Coordinates, profile ports.TravelProfile, r ports.Route) {
	if m.Routes == nil {
		m.Routes = make(map[string]ports.Route)
	}
	m.Routes[routeKey(origin, destination, profile)] = r
}
