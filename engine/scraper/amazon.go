package scraper

import (
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ShopScoutAI/shopscout-mvp/engine/domain"
)

const amazonOrigin = "https://www.amazon.in"

// Amazon extracts listings from Amazon search result pages.
type Amazon struct{}

func (Amazon) Name() domain.Source { return domain.SourceAmazon }

func (Amazon) SearchURL(query string) string {
	return amazonOrigin + "/s?k=" + url.QueryEscape(query)
}

// Parse extracts one candidate per search-result card. Unparseable markup
// yields zero candidates.
func (a Amazon) Parse(body io.Reader) []domain.Product {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil
	}

	var products []domain.Product
	doc.Find(`div[data-component-type="s-search-result"]`).Each(func(_ int, card *goquery.Selection) {
		products = append(products, domain.Product{
			Source:      domain.SourceAmazon,
			Title:       amazonTitle(card),
			Link:        absoluteLink(amazonOrigin, firstAttr(card, "href", "a.a-link-normal.s-underline-text.s-underline-link-text.s-link-style.a-text-normal")),
			Image:       firstAttr(card, "src", "img.s-image"),
			Rating:      firstText(card, "span.a-icon-alt"),
			ReviewCount: firstText(card, "span.a-size-base.s-underline-text"),
			Price:       amazonPrice(card),
		})
	})
	return products
}

// amazonTitle prefers the single full-title node. Sparse cards split the
// brand and title across two nodes, so fall back to concatenating them.
// The brand node carries exactly the two base classes; an attribute-exact
// selector keeps it from matching the title node as well.
func amazonTitle(card *goquery.Selection) string {
	if t := firstText(card, "span.a-size-medium.a-color-base.a-text-normal"); t != "" {
		return t
	}
	brand := firstText(card, `span[class="a-size-base-plus a-color-base"]`)
	title := firstText(card, "span.a-size-base-plus.a-color-base.a-text-normal")
	return strings.TrimSpace(brand + " " + title)
}

// amazonPrice returns "Rs." + the whole-rupee amount, or "" when the card
// carries no price. The sentinel substitution happens at write time.
func amazonPrice(card *goquery.Selection) string {
	p := firstText(card, "span.a-price-whole")
	if p == "" {
		return ""
	}
	return "Rs." + p
}
