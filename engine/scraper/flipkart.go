package scraper

import (
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ShopScoutAI/shopscout-mvp/engine/domain"
)

const flipkartOrigin = "https://www.flipkart.com"

// reviewTrimmer strips the parentheses Flipkart wraps review counts in.
var reviewTrimmer = strings.NewReplacer("(", "", ")", "")

// Flipkart extracts listings from Flipkart search result pages.
type Flipkart struct{}

func (Flipkart) Name() domain.Source { return domain.SourceFlipkart }

func (Flipkart) SearchURL(query string) string {
	return flipkartOrigin + "/search?q=" + url.QueryEscape(query)
}

// Parse extracts one candidate per product card. Flipkart renders two card
// layouts (list and grid), hence the double card selector and the
// secondary image/link selectors.
func (f Flipkart) Parse(body io.Reader) []domain.Product {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil
	}

	var products []domain.Product
	doc.Find("div.slAVV4, div._1sdMkc.LFEi7Z").Each(func(_ int, card *goquery.Selection) {
		products = append(products, domain.Product{
			Source:      domain.SourceFlipkart,
			Title:       flipkartTitle(card),
			Link:        absoluteLink(flipkartOrigin, firstAttr(card, "href", "a.VJA3rP", "a.rPDeLR")),
			Image:       firstAttr(card, "src", "img.DByuf4", "img._53J4C-"),
			Rating:      firstText(card, "div.XQDdHH"),
			ReviewCount: flipkartReviews(card),
			Price:       firstText(card, "div.Nx9bqj"),
		})
	})
	return products
}

// flipkartTitle reads the title attribute of the primary anchor; sparse
// cards fall back to a brand node plus a secondary titled anchor.
func flipkartTitle(card *goquery.Selection) string {
	if t := firstAttr(card, "title", "a.wjcEIp"); t != "" {
		return t
	}
	brand := firstText(card, "div.syl9yP")
	title := firstAttr(card, "title", "a.WKTcLC")
	return strings.TrimSpace(brand + " " + title)
}

func flipkartReviews(card *goquery.Selection) string {
	r := firstText(card, "span.Wphh3N")
	if r == "" {
		return ""
	}
	return strings.TrimSpace(reviewTrimmer.Replace(r))
}
