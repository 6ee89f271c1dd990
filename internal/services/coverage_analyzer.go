package services

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"coverage-route-service/internal/domain"
	"coverage-route-service/internal/metrics"
	"coverage-route-service/internal/platform/obs"
	"coverage-route-service/internal/ports"
	"coverage-route-service/internal/raster"
	"coverage-route-service/internal/sampler"
	"coverage-route-service/internal/tilecache"
	"coverage-route-service/internal/tilegrid"
)

// State of a coverage analysis run. Failed is reachable from every
// non-terminal state.
type State string

const (
	StateIdle                 State = "idle"
	StateValidatingInput      State = "validating_input"
	StateResolvingCoordinates State = "resolving_coordinates"
	StateFetchingRoute        State = "fetching_route"
	StateSampling             State = "sampling"
	StateResolvingCoverage    State = "resolving_coverage"
	StateComplete             State = "complete"
	StateFailed               State = "failed"
)

// Progress is reported to the caller's observer after each major step and
// after each processed sample point. Percent is monotonically increasing
// within one run.
type Progress struct {
	Percent float64
	Phase   string
}

// ProgressFunc observes analysis progress. May be nil.
type ProgressFunc func(Progress)

// Config tunes one analyzer. Zero values take the reference defaults.
type Config struct {
	// Number of points SampleByCount targets on a live route.
	SampleCount int
	// Points processed between throttle pauses, and the pause length.
	// The delay is a deliberate rate limiter for the tile endpoint.
	BatchSize  int
	BatchDelay time.Duration
	// Tile pyramid zoom coverage lookups run at.
	Zoom int
	// Color-match tolerance for classification.
	Tolerance float64
	// Operators to resolve per point. Defaults to all.
	Operators []domain.Operator
}

func (c Config) withDefaults() Config {
	if c.SampleCount == 0 {
		c.SampleCount = 500
	}
	if c.BatchSize == 0 {
		c.BatchSize = 5
	}
	if c.BatchDelay == 0 {
		c.BatchDelay = 500 * time.Millisecond
	}
	if c.Zoom == 0 {
		c.Zoom = tilegrid.DefaultZoom
	}
	if c.Tolerance == 0 {
		c.Tolerance = raster.DefaultTolerance
	}
	if len(c.Operators) == 0 {
		c.Operators = domain.AllOperators()
	}
	return c
}

// Request describes one analysis: free-text endpoints plus travel profile.
// SampleCount overrides the configured default when positive.
type Request struct {
	Start       string
	End         string
	Profile     ports.TravelProfile
	SampleCount int
}

// Analysis is the complete outcome of a successful run. Results are ordered
// by cumulative distance; entries may carry per-operator error annotations.
type Analysis struct {
	Results []domain.CoverageResult
	Route   ports.Route
	Stats   domain.CacheStats
}

// Accepts postcodes and street addresses; rejects control characters and
// anything too short to geocode. Validation runs before any network call.
var locationPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 ,.'&()-]{1,99}$`)

type cachedRoute struct {
	start   string
	end     string
	profile ports.TravelProfile
	route   ports.Route
}

// CoverageAnalyzer sequences validation, geocoding, routing, sampling and
// per-point coverage resolution. One analyzer runs one analysis at a time;
// construct separate instances for concurrent runs (cache and stats are
// per-instance).
type CoverageAnalyzer struct {
	geocoder  ports.Geocoder
	routes    ports.RouteProvider
	projector ports.Projector
	grid      *tilegrid.Grid
	cache     *tilecache.Cache
	palette   []raster.PaletteEntry
	cfg       Config

	state     State
	lastRoute *cachedRoute
}

func NewCoverageAnalyzer(
	geocoder ports.Geocoder,
	routes ports.RouteProvider,
	projector ports.Projector,
	grid *tilegrid.Grid,
	cache *tilecache.Cache,
	cfg Config,
) *CoverageAnalyzer {
	return &CoverageAnalyzer{
		geocoder:  geocoder,
		routes:    routes,
		projector: projector,
		grid:      grid,
		cache:     cache,
		palette:   raster.Palette(),
		cfg:       cfg.withDefaults(),
		state:     StateIdle,
	}
}

// State returns the analyzer's current phase.
func (a *CoverageAnalyzer) State() State { return a.state }

// Stats exposes the underlying tile cache counters.
func (a *CoverageAnalyzer) Stats() domain.CacheStats { return a.cache.Stats() }

// ClearCache empties both tile cache tiers.
func (a *CoverageAnalyzer) ClearCache(ctx context.Context) { a.cache.Clear(ctx) }

type progressTracker struct {
	fn   ProgressFunc
	last float64
}

func (p *progressTracker) report(percent float64, phase string) {
	if percent < p.last {
		percent = p.last
	}
	p.last = percent
	if p.fn != nil {
		p.fn(Progress{Percent: percent, Phase: phase})
	}
}

func (a *CoverageAnalyzer) fail(err error) error {
	a.state = StateFailed
	metrics.AnalysesFailedTotal.Inc()
	return err
}

// Analyze runs the full pipeline. Validation and route-acquisition failures
// abort the run; failures while resolving a single (point, operator) pair
// are recorded on that pair and processing continues.
func (a *CoverageAnalyzer) Analyze(ctx context.Context, req Request, onProgress ProgressFunc) (_ *Analysis, err error) {
	defer obs.Time(ctx, "coverage.Analyze")(&err)

	metrics.AnalysesTotal.Inc()
	started := time.Now()
	progress := &progressTracker{fn: onProgress}

	a.state = StateValidatingInput
	progress.report(0, "Validating input")

	start := strings.TrimSpace(req.Start)
	end := strings.TrimSpace(req.End)
	if !locationPattern.MatchString(start) {
		return nil, a.fail(domain.NewValidationError(fmt.Sprintf("start location %q is not a valid postcode or address", req.Start)))
	}
	if !locationPattern.MatchString(end) {
		return nil, a.fail(domain.NewValidationError(fmt.Sprintf("end location %q is not a valid postcode or address", req.End)))
	}
	if req.Profile == "" {
		req.Profile = ports.ProfileDriving
	}

	a.state = StateResolvingCoordinates
	progress.report(5, "Resolving coordinates")

	// Same start and end: no route, no sampling. One point at distance 0.
	if strings.EqualFold(start, end) {
		startCoord, err := a.geocoder.Resolve(ctx, start)
		if err != nil {
			return nil, a.fail(fmt.Errorf("resolving coordinates: %w", err))
		}

		a.state = StateResolvingCoverage
		progress.report(40, "Resolving coverage")

		point := domain.SampledPoint{Coordinates: startCoord, DistanceMeters: 0}
		result := a.resolvePoint(ctx, point)
		result.Label = start

		a.state = StateComplete
		progress.report(100, "Complete")
		metrics.AnalysisDurationMs.Observe(float64(time.Since(started).Milliseconds()))

		return &Analysis{
			Results: []domain.CoverageResult{result},
			Stats:   a.cache.Stats(),
		}, nil
	}

	startCoord, err := a.geocoder.Resolve(ctx, start)
	if err != nil {
		return nil, a.fail(fmt.Errorf("resolving coordinates for %q: %w", start, err))
	}
	endCoord, err := a.geocoder.Resolve(ctx, end)
	if err != nil {
		return nil, a.fail(fmt.Errorf("resolving coordinates for %q: %w", end, err))
	}

	a.state = StateFetchingRoute
	progress.report(15, "Fetching route")

	route, err := a.routeFor(ctx, start, end, req.Profile, startCoord, endCoord)
	if err != nil {
		return nil, a.fail(fmt.Errorf("fetching route: %w", err))
	}

	a.state = StateSampling
	progress.report(30, "Sampling route")

	sampleCount := a.cfg.SampleCount
	if req.SampleCount > 0 {
		sampleCount = req.SampleCount
	}
	points, err := sampler.SampleByCount(route.Polyline, sampleCount)
	if err != nil {
		return nil, a.fail(fmt.Errorf("sampling route: %w", err))
	}

	a.state = StateResolvingCoverage
	progress.report(40, "Resolving coverage")

	results := make([]domain.CoverageResult, 0, len(points))
	for i, point := range points {
		// Samples run strictly in index order; progress reporting and
		// cache accounting depend on it.
		result := a.resolvePoint(ctx, point)
		switch i {
		case 0:
			result.Label = start
		case len(points) - 1:
			result.Label = end
		}
		results = append(results, result)

		progress.report(40+55*float64(i+1)/float64(len(points)), "Resolving coverage")

		// Throttle between batches so a 500-point run does not hammer
		// the tile endpoint. Cancellation leaves a prefix-complete
		// result set behind; the cache stays consistent.
		if (i+1)%a.cfg.BatchSize == 0 && i != len(points)-1 {
			select {
			case <-ctx.Done():
				return nil, a.fail(ctx.Err())
			case <-time.After(a.cfg.BatchDelay):
			}
		}
	}

	a.state = StateComplete
	progress.report(100, "Complete")
	metrics.AnalysisDurationMs.Observe(float64(time.Since(started).Milliseconds()))

	return &Analysis{
		Results: results,
		Route:   route,
		Stats:   a.cache.Stats(),
	}, nil
}

// routeFor returns the cached polyline when the (start, end, profile)
// triple matches the immediately preceding successful run, avoiding a
// second routing call. The cache holds exactly one entry.
func (a *CoverageAnalyzer) routeFor(
	ctx context.Context,
	start, end string,
	profile ports.TravelProfile,
	startCoord, endCoord domain.Coordinates,
) (ports.Route, error) {
	if c := a.lastRoute; c != nil && c.start == start && c.end == end && c.profile == profile {
		return c.route, nil
	}

	route, err := a.routes.GetRoute(ctx, startCoord, endCoord, profile)
	if err != nil {
		return ports.Route{}, err
	}

	a.lastRoute = &cachedRoute{start: start, end: end, profile: profile, route: route}
	return route, nil
}

// resolvePoint classifies coverage for every operator at one sample point.
// A failure for one operator is recorded on that operator's entry and never
// aborts the others.
func (a *CoverageAnalyzer) resolvePoint(ctx context.Context, point domain.SampledPoint) domain.CoverageResult {
	networks := make(map[domain.Operator]domain.NetworkResult, len(a.cfg.Operators))

	projected := a.projector.ToProjected(point.Coordinates)

	for _, op := range a.cfg.Operators {
		networks[op] = a.resolveOperator(ctx, op, projected)
	}

	return domain.CoverageResult{Point: point, Networks: networks}
}

func (a *CoverageAnalyzer) resolveOperator(ctx context.Context, op domain.Operator, projected domain.Projected) domain.NetworkResult {
	result := domain.NetworkResult{Operator: op, Level: domain.LevelUnknown}

	if math.IsNaN(projected.Easting) || math.IsNaN(projected.Northing) {
		result.Error = "point projects outside the grid"
		metrics.SampleErrorsTotal.WithLabelValues(string(op)).Inc()
		return result
	}

	tile, err := a.grid.ToTile(projected, a.cfg.Zoom)
	if err != nil {
		result.Error = err.Error()
		metrics.SampleErrorsTotal.WithLabelValues(string(op)).Inc()
		return result
	}
	pixel, err := a.grid.ToPixelOffset(projected, a.cfg.Zoom)
	if err != nil {
		result.Error = err.Error()
		metrics.SampleErrorsTotal.WithLabelValues(string(op)).Inc()
		return result
	}

	data, err := a.cache.Fetch(ctx, op, tile.X, tile.Y)
	if err != nil {
		result.Error = err.Error()
		metrics.SampleErrorsTotal.WithLabelValues(string(op)).Inc()
		return result
	}

	color, err := raster.ExtractPixel(data, pixel.X, pixel.Y)
	if err != nil {
		result.Error = err.Error()
		metrics.SampleErrorsTotal.WithLabelValues(string(op)).Inc()
		return result
	}

	result.Color = color.ToHex()
	result.Level = raster.Classify(result.Color, a.palette, a.cfg.Tolerance)
	return result
}
