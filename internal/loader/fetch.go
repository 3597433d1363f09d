package loader

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vk/assetgridgo/internal/eventbus"
)

// errAborted marks a fetch cancelled by the timeout manager, so the failure
// is classified as a timeout rather than a transport error.
var errAborted = errors.New("attempt aborted by timeout")

// Fetcher retrieves one URL: http(s) from a CDN, or a plain path from the
// local assets directory. The outcome is a Cause, never an error; callers
// only need to distinguish failure classes, not inspect them.
type Fetcher struct {
	client    *http.Client
	assetsDir string
}

// NewFetcher builds a fetcher with a pooled transport. Per-attempt deadlines
// come from the timeout manager via context, so the client itself carries no
// timeout.
func NewFetcher(assetsDir string) *Fetcher {
	return &Fetcher{
		assetsDir: assetsDir,
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Fetch retrieves the URL and discards the body. CauseNone means success.
func (f *Fetcher) Fetch(ctx context.Context, url string) eventbus.Cause {
	if isLocalURL(url) {
		return f.fetchLocal(url)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return eventbus.CauseBadConfig
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(context.Cause(ctx), errAborted) {
			return eventbus.CauseTimeout
		}
		return eventbus.CauseFetchError
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return eventbus.CauseHTTPStatus
	}
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		if errors.Is(context.Cause(ctx), errAborted) {
			return eventbus.CauseTimeout
		}
		return eventbus.CauseFetchError
	}
	return eventbus.CauseNone
}

func (f *Fetcher) fetchLocal(url string) eventbus.Cause {
	path := url
	if !filepath.IsAbs(path) {
		path = filepath.Join(f.assetsDir, path)
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return eventbus.CauseFetchError
	}
	return eventbus.CauseNone
}

// isLocalURL reports whether the URL names a file rather than a network
// endpoint.
func isLocalURL(url string) bool {
	return !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://")
}
