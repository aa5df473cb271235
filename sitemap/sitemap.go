// Package sitemap maintains a website sitemap whose lastmod timestamps track
// actual content changes rather than generation time. A sitemap generated by
// crawling carries an MD5 fingerprint per page; combining it with a previously
// published sitemap carries old timestamps forward for pages whose fingerprint
// is unchanged.
package sitemap

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"
)

// Page is one entry of the sitemap.
type Page struct {
	// URL is the absolute page location and the entry's identity key.
	URL *url.URL
	// LastMod is the last point at which the page content was observed to change.
	LastMod time.Time
	// Hash is the lowercase hex MD5 digest of the page's normalized content.
	// Empty when unknown (e.g. imported from a document without the
	// fingerprint extension); such entries are always treated as changed.
	Hash string
}

// Sitemap holds pages keyed by URL, preserving insertion order.
type Sitemap struct {
	pages []Page
	index map[string]int
}

// New returns an empty sitemap.
func New() *Sitemap {
	return &Sitemap{index: make(map[string]int)}
}

// Upsert inserts a page or replaces the page already held for the same URL.
func (s *Sitemap) Upsert(page Page) {
	if s.index == nil {
		s.index = make(map[string]int)
	}
	key := page.URL.String()
	if i, ok := s.index[key]; ok {
		s.pages[i] = page
		return
	}
	s.index[key] = len(s.pages)
	s.pages = append(s.pages, page)
}

// Lookup returns the page held for the given URL.
func (s *Sitemap) Lookup(u *url.URL) (Page, bool) {
	i, ok := s.index[u.String()]
	if !ok {
		return Page{}, false
	}
	return s.pages[i], true
}

// Pages returns the entries in insertion order. The returned slice is shared;
// callers must not grow it.
func (s *Sitemap) Pages() []Page {
	return s.pages
}

// Len returns the number of entries.
func (s *Sitemap) Len() int {
	return len(s.pages)
}

// SortByURL sorts pages lexicographically by URL for reproducible documents.
func (s *Sitemap) SortByURL() {
	sort.SliceStable(s.pages, func(i, j int) bool {
		return s.pages[i].URL.String() < s.pages[j].URL.String()
	})
	s.reindex()
}

// UpdateDomain rewrites the scheme, host, and port of every page URL.
// Useful when the sitemap was generated against a locally served copy of a
// website (e.g. localhost:8000) that deploys to a different domain.
// Pages that differed only by host or port collapse into one entry, last
// writer wins, so locations stay unique.
func (s *Sitemap) UpdateDomain(newDomain string) error {
	target, err := parseWebsiteURL(newDomain)
	if err != nil {
		return err
	}
	rewritten := New()
	for _, page := range s.pages {
		u := *page.URL
		u.Scheme = target.Scheme
		u.Host = target.Host
		page.URL = &u
		rewritten.Upsert(page)
	}
	s.pages = rewritten.pages
	s.index = rewritten.index
	return nil
}

func (s *Sitemap) reindex() {
	s.index = make(map[string]int, len(s.pages))
	for i, p := range s.pages {
		s.index[p.URL.String()] = i
	}
}

// parseWebsiteURL parses an absolute http(s) URL.
func parseWebsiteURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("url %q should start with http:// or https://", raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("url %q has no host", raw)
	}
	if u.Path == "" {
		u.Path = "/"
	}
	return u, nil
}

// normalizeContent trims surrounding whitespace and normalizes line endings so
// the same page served with \n and \r\n fingerprints identically.
func normalizeContent(body []byte) []byte {
	normalized := strings.ReplaceAll(strings.TrimSpace(string(body)), "\r\n", "\n")
	return []byte(normalized)
}
