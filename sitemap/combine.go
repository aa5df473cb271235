package sitemap

import (
	"net/url"
	"sort"
)

// UpdateInfo reports what changed between two sitemap generations. Each slice
// is sorted by URL string.
type UpdateInfo struct {
	// NewPages were not present in the old sitemap.
	NewPages []*url.URL
	// UpdatedPages were present but their fingerprint changed or could not be
	// compared.
	UpdatedPages []*url.URL
	// UnchangedPages kept their old lastmod because the fingerprint matched.
	UnchangedPages []*url.URL
	// RemovedPages were present in the old sitemap but are no longer reachable.
	RemovedPages []*url.URL
}

// CombineWithOldSitemap merges a freshly crawled sitemap with a previously
// published one. Pages whose fingerprint matches the old sitemap keep the old
// lastmod; new pages, changed pages, and pages whose fingerprint cannot be
// compared on either side keep the provisional crawl-time lastmod. Pages
// present only in the old sitemap are dropped. The receiver is updated in
// place; old is never mutated.
func (s *Sitemap) CombineWithOldSitemap(old *Sitemap) UpdateInfo {
	var info UpdateInfo

	remaining := make(map[string]Page, old.Len())
	for _, page := range old.Pages() {
		remaining[page.URL.String()] = page
	}

	for i := range s.pages {
		page := &s.pages[i]
		oldPage, ok := remaining[page.URL.String()]
		if !ok {
			info.NewPages = append(info.NewPages, page.URL)
			continue
		}
		delete(remaining, page.URL.String())

		// A missing fingerprint or lastmod on either side means equality
		// cannot be proven; keep the provisional timestamp.
		if oldPage.Hash != "" && !oldPage.LastMod.IsZero() && oldPage.Hash == page.Hash {
			page.LastMod = oldPage.LastMod
			info.UnchangedPages = append(info.UnchangedPages, page.URL)
			continue
		}
		info.UpdatedPages = append(info.UpdatedPages, page.URL)
	}

	for _, page := range remaining {
		info.RemovedPages = append(info.RemovedPages, page.URL)
	}

	info.sort()
	return info
}

func (info *UpdateInfo) sort() {
	for _, urls := range [][]*url.URL{info.NewPages, info.UpdatedPages, info.UnchangedPages, info.RemovedPages} {
		sort.Slice(urls, func(i, j int) bool {
			return urls[i].String() < urls[j].String()
		})
	}
}
