// Package tiles fetches coverage tile images from the proprietary tile
// endpoint over HTTP.
package tiles

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"coverage-route-service/internal/domain"
	"coverage-route-service/internal/metrics"
	"coverage-route-service/internal/platform/obs"
)

// FetchError annotates a tile fetch failure with the full tile address for
// diagnostics.
type FetchError struct {
	Operator domain.Operator
	Zoom     int
	X        int
	Y        int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch tile %s/%d/%d/%d: %v", e.Operator, e.Zoom, e.X, e.Y, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// HTTPFetcher retrieves tiles via parameterized GET against the tile API.
// Transient failures are retried with exponential backoff. Safe for
// concurrent use.
type HTTPFetcher struct {
	session *http.Client
	baseURL string
	version string
}

// NewHTTPFetcher builds a fetcher for the given endpoint base and
// cache-busting version string.
func NewHTTPFetcher(baseURL, version string) (*HTTPFetcher, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("tile API base URL is empty")
	}
	if strings.TrimSpace(version) == "" {
		return nil, errors.New("tile version is empty")
	}

	return &HTTPFetcher{
		session: &http.Client{Timeout: 10 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		version: version,
	}, nil
}

// Version returns the cache-busting version embedded in tile URLs.
func (f *HTTPFetcher) Version() string { return f.version }

// FetchTile GETs one 256x256 PNG tile.
func (f *HTTPFetcher) FetchTile(ctx context.Context, op domain.Operator, zoom, x, y int) (_ []byte, err error) {
	defer obs.Time(ctx, "tiles.FetchTile")(&err)

	if !op.Valid() {
		return nil, &FetchError{Operator: op, Zoom: zoom, X: x, Y: y, Err: errors.New("unknown operator")}
	}

	url := fmt.Sprintf("%s/%s/%d/%d/%d.png?v=%s", f.baseURL, op, zoom, x, y, f.version)

	start := time.Now()
	resp, err := f.doWithRetry(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	})
	if err != nil {
		return nil, &FetchError{Operator: op, Zoom: zoom, X: x, Y: y, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Operator: op, Zoom: zoom, X: x, Y: y, Err: fmt.Errorf("read body: %w", err)}
	}

	metrics.TilesFetchedTotal.WithLabelValues(string(op)).Inc()
	metrics.TileFetchDurationMs.Observe(float64(time.Since(start).Milliseconds()))
	return data, nil
}

type httpStatusError struct {
	Code int
	Body string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("Code %d: %s", e.Code, e.Body)
}

func (f *HTTPFetcher) do(req *http.Request) (*http.Response, error) {
	resp, err := f.session.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &httpStatusError{
			Code: resp.StatusCode,
			Body: strings.TrimSpace(string(b)),
		}
	}
	return resp, nil
}

// doWithRetry retries transient failures (network errors, 429/5xx responses)
// with exponential backoff while respecting context cancellation.
func (f *HTTPFetcher) doWithRetry(
	ctx context.Context,
	makeReq func() (*http.Request, error),
) (*http.Response, error) {
	const maxAttempts = 3
	backoff := 200 * time.Millisecond

	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := makeReq()
		if err != nil {
			return nil, fmt.Errorf("make request: %w", err)
		}

		resp, err := f.do(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		retry := false
		var he *httpStatusError
		if errors.As(err, &he) {
			switch he.Code {
			case 429, 500, 502, 503, 504:
				retry = true
			}
		}

		var netErr net.Error
		if !retry && errors.As(err, &netErr) {
			retry = true
		}

		if !retry || attempt == maxAttempts {
			return nil, lastErr
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		backoff *= 2
	}

	return nil, lastErr
}
