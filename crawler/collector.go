// Package crawler discovers the reachable pages of a website using the Colly
// library and feeds their raw content to a consumer, one page per location.
package crawler

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

// Config holds the settings for a crawl session.
type Config struct {
	UserAgent      string
	MaxDepth       int // 0 means unlimited
	Concurrency    int
	Delay          time.Duration
	RequestTimeout time.Duration
	RespectRobots  bool
}

// Collector implements a breadth-style link-following crawl of a single host.
type Collector struct {
	cfg    Config
	logger *zap.Logger
}

// New creates a Colly-backed collector.
func New(cfg Config, logger *zap.Logger) *Collector {
	if cfg.UserAgent == "" {
		cfg.UserAgent = "auto-sitemap-bot/1.0"
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{cfg: cfg, logger: logger}
}

// Crawl visits every HTML page reachable from seed on the seed's host and
// calls visit exactly once per page location with the response body. Calls to
// visit are serialized even though fetches run in parallel. Individual page
// failures are logged and skipped; a seed that cannot be fetched fails the
// whole crawl.
func (c *Collector) Crawl(ctx context.Context, seed *url.URL, visit func(pageURL *url.URL, body []byte)) error {
	collector, err := c.initCollector(ctx, seed)
	if err != nil {
		return err
	}

	var (
		mu      sync.Mutex
		seen    = make(map[string]bool)
		seedErr error
	)
	seedKey := seed.String()

	collector.OnResponse(func(r *colly.Response) {
		if r.StatusCode != 200 || len(r.Body) == 0 {
			c.logger.Warn("Skipping response",
				zap.String("url", r.Request.URL.String()),
				zap.Int("status_code", r.StatusCode),
			)
			return
		}
		if ct := r.Headers.Get("Content-Type"); ct != "" && !strings.Contains(ct, "html") {
			return
		}
		pageURL := *r.Request.URL
		body := append([]byte(nil), r.Body...)

		mu.Lock()
		defer mu.Unlock()
		if seen[pageURL.String()] {
			return
		}
		seen[pageURL.String()] = true
		visit(&pageURL, body)
	})

	collector.OnError(func(r *colly.Response, err error) {
		c.logger.Warn("Request failed",
			zap.String("url", r.Request.URL.String()),
			zap.Int("status_code", r.StatusCode),
			zap.Error(err),
		)
		mu.Lock()
		defer mu.Unlock()
		if r.Request.URL.String() == seedKey && seedErr == nil {
			seedErr = err
		}
	})

	if err := collector.Visit(seed.String()); err != nil {
		return fmt.Errorf("visit seed %s: %w", seed, err)
	}
	collector.Wait()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("crawl canceled: %w", err)
	}
	if seedErr != nil {
		return fmt.Errorf("fetch seed %s: %w", seed, seedErr)
	}
	return nil
}

func (c *Collector) initCollector(ctx context.Context, seed *url.URL) (*colly.Collector, error) {
	collector := colly.NewCollector(
		colly.AllowedDomains(seed.Hostname()),
		colly.MaxDepth(c.cfg.MaxDepth),
		colly.UserAgent(c.cfg.UserAgent),
		colly.Async(true),
	)
	collector.AllowURLRevisit = false
	collector.IgnoreRobotsTxt = !c.cfg.RespectRobots
	collector.SetRequestTimeout(c.cfg.RequestTimeout)

	if err := collector.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: c.cfg.Concurrency,
		Delay:       c.cfg.Delay,
	}); err != nil {
		return nil, fmt.Errorf("set collector limits: %w", err)
	}

	collector.OnRequest(func(r *colly.Request) {
		// AllowedDomains ignores ports; pin the exact host so a crawl of
		// localhost:8000 never leaks onto a neighboring port.
		if ctx.Err() != nil || r.URL.Host != seed.Host {
			r.Abort()
		}
	})

	collector.OnHTML("a[href]", func(e *colly.HTMLElement) {
		if err := e.Request.Visit(e.Attr("href")); err != nil {
			c.logger.Debug("Skipping link",
				zap.String("href", e.Attr("href")),
				zap.Error(err),
			)
		}
	})

	return collector, nil
}
