// Package fetcher loads the latest.json snapshot the dashboard renders.
package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"uptimeboard/internal/models"
)

// DefaultSource is the location of the snapshot relative to the dashboard root.
const DefaultSource = "./data/latest.json"

var (
	// ErrFetch reports that the snapshot could not be retrieved.
	ErrFetch = errors.New("fetch snapshot")
	// ErrDecode reports that the snapshot body is not valid JSON.
	ErrDecode = errors.New("decode snapshot")
)

// Fetcher retrieves a parsed snapshot from a fixed location.
type Fetcher interface {
	Fetch(ctx context.Context) (models.CheckSnapshot, error)
}

// New picks an HTTP or file fetcher based on the source scheme.
func New(source string) Fetcher {
	if source == "" {
		source = DefaultSource
	}
	lower := strings.ToLower(source)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return NewHTTP(source, nil)
	}
	return &FileFetcher{Path: source}
}

// HTTPFetcher performs one GET per Fetch with cache bypass headers.
type HTTPFetcher struct {
	URL string
	HC  *http.Client
}

// NewHTTP builds an HTTP fetcher. A nil client gets a default with timeouts.
func NewHTTP(url string, hc *http.Client) *HTTPFetcher {
	if hc == nil {
		hc = &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				DialContext:         (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
				MaxIdleConns:        10,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 5 * time.Second,
			},
		}
	}
	return &HTTPFetcher{URL: url, HC: hc}
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context) (models.CheckSnapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return models.CheckSnapshot{}, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-store, no-cache")
	req.Header.Set("Pragma", "no-cache")

	res, err := f.HC.Do(req)
	if err != nil {
		return models.CheckSnapshot{}, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, res.Body)
		return models.CheckSnapshot{}, fmt.Errorf("%w: http %d", ErrFetch, res.StatusCode)
	}
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return models.CheckSnapshot{}, fmt.Errorf("%w: read body: %v", ErrFetch, err)
	}
	return decode(body)
}

// FileFetcher reads the snapshot straight from disk, which never goes through a cache.
type FileFetcher struct {
	Path string
}

// Fetch implements Fetcher.
func (f *FileFetcher) Fetch(ctx context.Context) (models.CheckSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return models.CheckSnapshot{}, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	body, err := os.ReadFile(f.Path)
	if err != nil {
		return models.CheckSnapshot{}, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	return decode(body)
}

func decode(body []byte) (models.CheckSnapshot, error) {
	var snap models.CheckSnapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return models.CheckSnapshot{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return snap, nil
}
