package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/thingsiplay/emojicherrypick/internal/errors"
)

// maxDatabaseBytes bounds the size of a downloaded emojis.json.
const maxDatabaseBytes = 32 << 20

// Fetcher retrieves the raw emoji database.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher downloads the database over HTTP(S).
type HTTPFetcher struct {
	Client    *http.Client
	UserAgent string
}

// NewHTTPFetcher returns a fetcher with the given request timeout.
// A zero timeout means no timeout.
func NewHTTPFetcher(timeout time.Duration, userAgent string) *HTTPFetcher {
	return &HTTPFetcher{
		Client:    &http.Client{Timeout: timeout},
		UserAgent: userAgent,
	}
}

// Fetch downloads url and returns the body. Every failure is a FETCH_FAILED error.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.NewFetchFailed(url, err)
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.NewFetchFailed(url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewFetchFailed(url, fmt.Errorf("server returned status: %s", resp.Status))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDatabaseBytes+1))
	if err != nil {
		return nil, errors.NewFetchFailed(url, err)
	}
	if len(data) > maxDatabaseBytes {
		return nil, errors.NewFetchFailed(url, fmt.Errorf("response larger than %d bytes", maxDatabaseBytes))
	}
	return data, nil
}
