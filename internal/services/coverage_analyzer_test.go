package services

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"coverage-route-service/internal/adapters/geocode"
	"coverage-route-service/internal/domain"
	"coverage-route-service/internal/geodesy"
	"coverage-route-service/internal/ports"
	"coverage-route-service/internal/tilecache"
	"coverage-route-service/internal/tilegrid"
)

// solidTileFetcher serves uniform-color PNG tiles, optionally failing for
// one operator.
type solidTileFetcher struct {
	tile    []byte
	failFor domain.Operator
	calls   int
}

func newSolidTileFetcher(t *testing.T, c color.RGBA) *solidTileFetcher {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 256, 256))
	for y := 0; y < 256; y++ {
		for x := 0; x < 256; x++ {
			img.Set(x, y, c)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode tile: %v", err)
	}
	return &solidTileFetcher{tile: buf.Bytes()}
}

func (f *solidTileFetcher) FetchTile(ctx context.Context, op domain.Operator, zoom, x, y int) ([]byte, error) {
	f.calls++
	if op == f.failFor {
		return nil, errors.New("tile endpoint down")
	}
	return f.tile, nil
}

var (
	testStart = domain.Coordinates{Lat: 51.5073, Lon: -0.1276}
	testEnd   = domain.Coordinates{Lat: 51.7520, Lon: -1.2577}
)

func newTestAnalyzer(t *testing.T, fetcher *solidTileFetcher, cfg Config) (*CoverageAnalyzer, *geocode.MockGeocoder, *geocode.MockRouteProvider) {
	t.Helper()

	geocoder := &geocode.MockGeocoder{Locations: map[string]domain.Coordinates{
		"SW1A 1AA": testStart,
		"OX1 1PT":  testEnd,
	}}

	router := &geocode.MockRouteProvider{}
	router.AddRoute(testStart, testEnd, ports.ProfileDriving, ports.Route{
		Polyline:            []domain.Coordinates{testStart, testEnd},
		TotalDistanceMeters: 90000,
	})

	cache := tilecache.New(fetcher, nil, tilegrid.DefaultZoom, "v1")
	analyzer := NewCoverageAnalyzer(
		geocoder, router, geodesy.NewOSGB36(), tilegrid.New(tilegrid.DefaultConfig()), cache, cfg,
	)
	return analyzer, geocoder, router
}

func fastConfig() Config {
	return Config{SampleCount: 10, BatchSize: 5, BatchDelay: time.Millisecond}
}

func TestAnalyzeFullRun(t *testing.T) {
	fetcher := newSolidTileFetcher(t, color.RGBA{R: 0x1f, G: 0x9d, B: 0x40, A: 0xff})
	analyzer, _, _ := newTestAnalyzer(t, fetcher, fastConfig())

	var percents []float64
	result, err := analyzer.Analyze(context.Background(), Request{
		Start:   "SW1A 1AA",
		End:     "OX1 1PT",
		Profile: ports.ProfileDriving,
	}, func(p Progress) { percents = append(percents, p.Percent) })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if analyzer.State() != StateComplete {
		t.Errorf("state = %v, want complete", analyzer.State())
	}
	if len(result.Results) != 10 {
		t.Fatalf("got %d results, want 10", len(result.Results))
	}

	if result.Results[0].Label != "SW1A 1AA" {
		t.Errorf("first label = %q", result.Results[0].Label)
	}
	if result.Results[9].Label != "OX1 1PT" {
		t.Errorf("last label = %q", result.Results[9].Label)
	}

	for i, r := range result.Results {
		if i > 0 && r.Point.DistanceMeters < result.Results[i-1].Point.DistanceMeters {
			t.Fatalf("distances not monotone at %d", i)
		}
		for op, n := range r.Networks {
			if n.Error != "" {
				t.Fatalf("point %d operator %s: unexpected error %q", i, op, n.Error)
			}
			if n.Level != domain.LevelBest {
				t.Errorf("point %d operator %s: level = %v, want LevelBest", i, op, n.Level)
			}
		}
	}

	if len(percents) == 0 {
		t.Fatal("no progress reported")
	}
	for i := 1; i < len(percents); i++ {
		if percents[i] < percents[i-1] {
			t.Fatalf("progress regressed: %v -> %v", percents[i-1], percents[i])
		}
	}
	if percents[len(percents)-1] != 100 {
		t.Errorf("final progress = %v, want 100", percents[len(percents)-1])
	}

	if result.Stats.TilesFetched == 0 {
		t.Error("stats recorded no fetches")
	}
}

func TestAnalyzeSampleCountOverride(t *testing.T) {
	fetcher := newSolidTileFetcher(t, color.RGBA{R: 0x1f, G: 0x9d, B: 0x40, A: 0xff})
	analyzer, _, _ := newTestAnalyzer(t, fetcher, fastConfig())

	result, err := analyzer.Analyze(context.Background(), Request{
		Start: "SW1A 1AA", End: "OX1 1PT", Profile: ports.ProfileDriving, SampleCount: 4,
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Results) != 4 {
		t.Errorf("got %d results, want the requested 4", len(result.Results))
	}
}

func TestAnalyzeRejectsMalformedInput(t *testing.T) {
	fetcher := newSolidTileFetcher(t, color.RGBA{A: 0xff})
	analyzer, geocoder, _ := newTestAnalyzer(t, fetcher, fastConfig())

	_, err := analyzer.Analyze(context.Background(), Request{Start: "", End: "OX1 1PT"}, nil)
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("got %v, want ValidationError", err)
	}

	if geocoder.Calls != 0 {
		t.Errorf("geocoder called %d times before validation", geocoder.Calls)
	}
	if analyzer.State() != StateFailed {
		t.Errorf("state = %v, want failed", analyzer.State())
	}
}

func TestAnalyzeRouteReuse(t *testing.T) {
	fetcher := newSolidTileFetcher(t, color.RGBA{R: 0x1f, G: 0x9d, B: 0x40, A: 0xff})
	analyzer, _, router := newTestAnalyzer(t, fetcher, fastConfig())

	req := Request{Start: "SW1A 1AA", End: "OX1 1PT", Profile: ports.ProfileDriving}

	if _, err := analyzer.Analyze(context.Background(), req, nil); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if _, err := analyzer.Analyze(context.Background(), req, nil); err != nil {
		t.Fatalf("second run: %v", err)
	}

	if router.Calls != 1 {
		t.Errorf("routing calls = %d, want 1 (second run reuses the polyline)", router.Calls)
	}

	// A different profile is a different triple; the size-1 cache misses.
	req.Profile = ports.ProfileWalking
	router.AddRoute(testStart, testEnd, ports.ProfileWalking, ports.Route{
		Polyline: []domain.Coordinates{testStart, testEnd},
	})
	if _, err := analyzer.Analyze(context.Background(), req, nil); err != nil {
		t.Fatalf("third run: %v", err)
	}
	if router.Calls != 2 {
		t.Errorf("routing calls = %d, want 2 after profile change", router.Calls)
	}
}

func TestAnalyzeSameStartAndEnd(t *testing.T) {
	fetcher := newSolidTileFetcher(t, color.RGBA{R: 0x1f, G: 0x9d, B: 0x40, A: 0xff})
	analyzer, _, router := newTestAnalyzer(t, fetcher, fastConfig())

	result, err := analyzer.Analyze(context.Background(), Request{Start: "SW1A 1AA", End: "SW1A 1AA"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if router.Calls != 0 {
		t.Errorf("routing calls = %d, want 0", router.Calls)
	}
	if len(result.Results) != 1 {
		t.Fatalf("got %d results, want 1", len(result.Results))
	}
	if result.Results[0].Point.DistanceMeters != 0 {
		t.Errorf("distance = %v, want 0", result.Results[0].Point.DistanceMeters)
	}
}

func TestAnalyzePartialFailureIsolated(t *testing.T) {
	fetcher := newSolidTileFetcher(t, color.RGBA{R: 0x1f, G: 0x9d, B: 0x40, A: 0xff})
	fetcher.failFor = domain.OperatorThree
	analyzer, _, _ := newTestAnalyzer(t, fetcher, fastConfig())

	result, err := analyzer.Analyze(context.Background(), Request{
		Start: "SW1A 1AA", End: "OX1 1PT", Profile: ports.ProfileDriving,
	}, nil)
	if err != nil {
		t.Fatalf("run should complete despite per-operator failures: %v", err)
	}

	if len(result.Results) != 10 {
		t.Fatalf("got %d results, want all 10", len(result.Results))
	}

	for i, r := range result.Results {
		failed := r.Networks[domain.OperatorThree]
		if failed.Error == "" {
			t.Errorf("point %d: expected error annotation for three", i)
		}
		if failed.Level != domain.LevelUnknown {
			t.Errorf("point %d: failed operator level = %v, want unknown", i, failed.Level)
		}

		ok := r.Networks[domain.OperatorEE]
		if ok.Error != "" || ok.Level != domain.LevelBest {
			t.Errorf("point %d: healthy operator affected: %+v", i, ok)
		}
	}
}

func TestAnalyzeCancellation(t *testing.T) {
	fetcher := newSolidTileFetcher(t, color.RGBA{R: 0x1f, G: 0x9d, B: 0x40, A: 0xff})
	cfg := Config{SampleCount: 20, BatchSize: 1, BatchDelay: time.Hour}
	analyzer, _, _ := newTestAnalyzer(t, fetcher, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := analyzer.Analyze(ctx, Request{
			Start: "SW1A 1AA", End: "OX1 1PT", Profile: ports.ProfileDriving,
		}, nil)
		done <- err
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("got %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("cancellation did not interrupt the batch delay")
	}

	if analyzer.State() != StateFailed {
		t.Errorf("state = %v, want failed", analyzer.State())
	}
}
