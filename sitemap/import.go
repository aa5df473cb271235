package sitemap

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"
)

var importClient = &http.Client{
	Timeout: 30 * time.Second,
	Transport: &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	},
}

// Import reads a previously published sitemap from a URL or a local file,
// dispatching on the http:// or https:// prefix. Transport failures surface
// as ErrFetch, parse failures as ErrMalformedDocument.
func Import(ctx context.Context, urlOrPath string) (*Sitemap, error) {
	if strings.HasPrefix(urlOrPath, "http://") || strings.HasPrefix(urlOrPath, "https://") {
		return importFromURL(ctx, urlOrPath)
	}
	return importFromFile(urlOrPath)
}

func importFromURL(ctx context.Context, rawURL string) (*Sitemap, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	resp, err := importClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", ErrFetch, rawURL, err)
	}
	defer resp.Body.Close() //nolint:errcheck // response body already consumed

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: get %s: status %d", ErrFetch, rawURL, resp.StatusCode)
	}
	return Deserialize(resp.Body)
}

func importFromFile(path string) (*Sitemap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrFetch, path, err)
	}
	defer f.Close() //nolint:errcheck // read-only file

	return Deserialize(f)
}
