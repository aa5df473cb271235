package sitemap

import (
	"encoding/xml"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/antchfx/xmlquery"
)

const (
	sitemapNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"
	xhtmlNamespace   = "http://www.w3.org/1999/xhtml"

	// hashMetaName identifies the vendor meta element carrying the content
	// fingerprint. The element name is reserved so documents round-trip.
	hashMetaName = "auto_sitemap_md5_hash"
	hashLen      = 32
)

type urlsetXML struct {
	XMLName    xml.Name `xml:"urlset"`
	Namespace  string   `xml:"xmlns,attr"`
	XHTMLSpace string   `xml:"xmlns:xhtml,attr"`
	URLs       []urlXML `xml:"url"`
}

type urlXML struct {
	Loc     string   `xml:"loc"`
	LastMod string   `xml:"lastmod"`
	Meta    *metaXML `xml:"xhtml:meta,omitempty"`
}

type metaXML struct {
	Name    string `xml:"name,attr"`
	Content string `xml:"content,attr"`
}

// Serialize writes the sitemap as an XML urlset document. Entries are written
// in model order; a page with a fingerprint gets an xhtml:meta side channel
// that standard sitemap consumers ignore.
func (s *Sitemap) Serialize(w io.Writer) error {
	doc := urlsetXML{
		Namespace:  sitemapNamespace,
		XHTMLSpace: xhtmlNamespace,
		URLs:       make([]urlXML, 0, s.Len()),
	}
	for _, page := range s.Pages() {
		if page.URL == nil {
			return fmt.Errorf("serialize sitemap: page has no URL")
		}
		if page.LastMod.IsZero() {
			return fmt.Errorf("serialize sitemap: page %s has no lastmod", page.URL)
		}
		entry := urlXML{
			Loc:     page.URL.String(),
			LastMod: page.LastMod.UTC().Format(time.RFC3339),
		}
		if page.Hash != "" {
			entry.Meta = &metaXML{Name: hashMetaName, Content: page.Hash}
		}
		doc.URLs = append(doc.URLs, entry)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("serialize sitemap: %w", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("serialize sitemap: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("serialize sitemap: %w", err)
	}
	return nil
}

// Deserialize parses an XML urlset document into a sitemap. Unrecognized
// elements and attributes are ignored for forward compatibility; entries
// without the fingerprint extension parse with an empty Hash.
func Deserialize(r io.Reader) (*Sitemap, error) {
	doc, err := xmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if xmlquery.FindOne(doc, "//urlset") == nil {
		return nil, fmt.Errorf("%w: missing urlset root element", ErrMalformedDocument)
	}

	s := New()
	for _, node := range xmlquery.Find(doc, "//urlset/url") {
		page, err := parsePage(node)
		if err != nil {
			return nil, err
		}
		s.Upsert(page)
	}
	return s, nil
}

func parsePage(node *xmlquery.Node) (Page, error) {
	var (
		page    Page
		lastmod string
	)
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type != xmlquery.ElementNode {
			continue
		}
		switch child.Data {
		case "loc":
			loc := strings.TrimSpace(child.InnerText())
			u, err := url.Parse(loc)
			if err != nil {
				return Page{}, fmt.Errorf("%w: invalid loc %q: %v", ErrMalformedDocument, loc, err)
			}
			page.URL = u
		case "lastmod":
			lastmod = strings.TrimSpace(child.InnerText())
		case "meta":
			name := strings.TrimSpace(child.SelectAttr("name"))
			content := strings.TrimSpace(child.SelectAttr("content"))
			if name == hashMetaName && len(content) == hashLen {
				page.Hash = content
			}
		}
	}

	if page.URL == nil {
		return Page{}, fmt.Errorf("%w: url entry is missing loc", ErrMalformedDocument)
	}
	if lastmod == "" {
		return Page{}, fmt.Errorf("%w: url entry %s is missing lastmod", ErrMalformedDocument, page.URL)
	}
	t, err := parseLastMod(lastmod)
	if err != nil {
		return Page{}, err
	}
	page.LastMod = t
	return page, nil
}

// parseLastMod accepts the sitemap protocol's W3C datetime convention: a full
// date-time or a bare date (taken as midnight UTC).
func parseLastMod(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrTimestampFormat, value)
}
