// Package domain defines the product record types, storage sentinels, and
// validation shared by the scraper, catalog, and ingest packages. It acts as
// the validation gate at pipeline entry points.
package domain

// Source identifies the retail site a product was scraped from.
type Source string

const (
	SourceAmazon   Source = "amazon"
	SourceFlipkart Source = "flipkart"
)

// ValidSources is the set of recognised scrape sources.
var ValidSources = map[Source]bool{
	SourceAmazon: true, SourceFlipkart: true,
}

// Sentinel strings substituted for missing optional fields before storage.
// The vector store only accepts string payload values, so the write path
// never stores raw nulls or numbers.
const (
	NoRating            = "No rating available"
	NoReviews           = "No reviews"
	NoPrice             = "Price not available"
	UnknownAvailability = "Unknown"
)

// Product is a single scraped listing, parsed but not yet persisted.
// Optional fields hold "" until CoerceForStorage runs.
type Product struct {
	Source       Source `json:"source"`
	Title        string `json:"title"`
	Link         string `json:"link"`
	Image        string `json:"image"`
	Rating       string `json:"rating"`
	ReviewCount  string `json:"review_count"`
	Price        string `json:"price"`
	Availability string `json:"availability"`
}

// CachedMatch is the caller-facing shape of a similarity hit.
type CachedMatch struct {
	Name    string `json:"name"`
	Price   string `json:"price"`
	URL     string `json:"url"`
	Image   string `json:"image"`
	Rating  string `json:"rating"`
	Reviews string `json:"reviews"`

	// Score is the cosine similarity that admitted this match. It is used
	// for threshold filtering only and never serialised downstream.
	Score float32 `json:"-"`
}

// CoerceForStorage replaces missing optional fields with their sentinel
// strings. Title is left untouched: records without one never reach storage.
func CoerceForStorage(p Product) Product {
	if p.Rating == "" {
		p.Rating = NoRating
	}
	if p.ReviewCount == "" {
		p.ReviewCount = NoReviews
	}
	if p.Price == "" {
		p.Price = NoPrice
	}
	if p.Availability == "" {
		p.Availability = UnknownAvailability
	}
	return p
}
