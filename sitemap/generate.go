package sitemap

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/rssblue/auto-sitemap/crawler"
	md5hash "github.com/rssblue/auto-sitemap/internal/hash/md5"
)

// PageSource produces the raw pages of a website reachable from a seed URL.
// Implementations may fetch in parallel but must serialize calls to visit.
type PageSource interface {
	Crawl(ctx context.Context, seed *url.URL, visit func(pageURL *url.URL, body []byte)) error
}

// Hasher computes the content fingerprint stored with each page.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// Generator builds fresh sitemaps from crawl output. Every generated entry
// carries a provisional lastmod of "now"; CombineWithOldSitemap decides which
// of them survive.
type Generator struct {
	source PageSource
	hasher Hasher
	now    func() time.Time
}

// GeneratorOption customizes a Generator.
type GeneratorOption func(*Generator)

// WithHasher overrides the default MD5 fingerprinter.
func WithHasher(h Hasher) GeneratorOption {
	return func(g *Generator) { g.hasher = h }
}

// WithNow overrides the clock used for provisional timestamps.
func WithNow(now func() time.Time) GeneratorOption {
	return func(g *Generator) { g.now = now }
}

// NewGenerator creates a Generator over the given page source.
func NewGenerator(source PageSource, opts ...GeneratorOption) *Generator {
	g := &Generator{
		source: source,
		hasher: md5hash.New(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate crawls the website at seedURL and returns a sitemap with one entry
// per discovered page. Fails with ErrFetch when the seed is unreachable; a
// failed generation never returns a partial sitemap.
func (g *Generator) Generate(ctx context.Context, seedURL string) (*Sitemap, error) {
	seed, err := parseWebsiteURL(seedURL)
	if err != nil {
		return nil, err
	}

	s := New()
	var hashErr error
	err = g.source.Crawl(ctx, seed, func(pageURL *url.URL, body []byte) {
		hash, err := g.hasher.Hash(normalizeContent(body))
		if err != nil {
			if hashErr == nil {
				hashErr = fmt.Errorf("fingerprint %s: %w", pageURL, err)
			}
			return
		}
		s.Upsert(Page{URL: pageURL, LastMod: g.now(), Hash: hash})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	if hashErr != nil {
		return nil, hashErr
	}
	return s, nil
}

// GenerateByCrawling crawls the website at seedURL with the default
// Colly-backed collector and returns the resulting sitemap.
func GenerateByCrawling(ctx context.Context, seedURL string, cfg crawler.Config, logger *zap.Logger) (*Sitemap, error) {
	return NewGenerator(crawler.New(cfg, logger)).Generate(ctx, seedURL)
}
