package scraper

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ShopScoutAI/shopscout-mvp/engine/domain"
)

// Source is one external retail site. Implementations build a search URL
// for a query and extract product candidates from raw result markup.
// Field extraction is tolerant: a field its selectors cannot resolve
// becomes "" without affecting sibling fields or other listings.
type Source interface {
	Name() domain.Source
	SearchURL(query string) string
	Parse(body io.Reader) []domain.Product
}

// Sources returns the registered sources in merge order.
func Sources() []Source {
	return []Source{Amazon{}, Flipkart{}}
}

// firstText walks a selector fallback chain and returns the trimmed text
// of the first match, or "" when the chain is exhausted.
func firstText(s *goquery.Selection, selectors ...string) string {
	for _, sel := range selectors {
		n := s.Find(sel).First()
		if n.Length() == 0 {
			continue
		}
		if t := strings.TrimSpace(n.Text()); t != "" {
			return t
		}
	}
	return ""
}

// firstAttr is firstText for attribute values.
func firstAttr(s *goquery.Selection, attr string, selectors ...string) string {
	for _, sel := range selectors {
		v, ok := s.Find(sel).First().Attr(attr)
		if ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// absoluteLink resolves a relative listing path against the site origin.
// Already-absolute links pass through; unresolved links stay "".
func absoluteLink(origin, path string) string {
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return origin + path
}
