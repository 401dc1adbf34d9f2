package scraper

import (
	"strings"
	"testing"

	"github.com/ShopScoutAI/shopscout-mvp/engine/domain"
)

const flipkartListCard = `
<html><body>
<div class="slAVV4">
  <a class="wjcEIp" title="Acme Wireless Mouse 2.0" href="/x"></a>
  <a class="VJA3rP" href="/acme-mouse-2/p/itm123"></a>
  <img class="DByuf4" src="https://rukmini.example/mouse2.jpg"/>
  <div class="XQDdHH">4.1</div>
  <span class="Wphh3N">(2,340)</span>
  <div class="Nx9bqj">Rs.1099</div>
</div>
</body></html>`

const flipkartGridCard = `
<html><body>
<div class="_1sdMkc LFEi7Z">
  <div class="syl9yP">Acme</div>
  <a class="WKTcLC" title="Trail Shoes" href="/y"></a>
  <a class="rPDeLR" href="/acme-shoes/p/itm456"></a>
  <img class="_53J4C-" src="https://rukmini.example/shoes.jpg"/>
</div>
</body></html>`

func TestFlipkartParse_ListCard(t *testing.T) {
	products := Flipkart{}.Parse(strings.NewReader(flipkartListCard))
	if len(products) != 1 {
		t.Fatalf("len = %d, want 1", len(products))
	}

	p := products[0]
	if p.Source != domain.SourceFlipkart {
		t.Errorf("source = %q", p.Source)
	}
	if p.Title != "Acme Wireless Mouse 2.0" {
		t.Errorf("title = %q", p.Title)
	}
	if p.Link != "https://www.flipkart.com/acme-mouse-2/p/itm123" {
		t.Errorf("link = %q", p.Link)
	}
	if p.Image != "https://rukmini.example/mouse2.jpg" {
		t.Errorf("image = %q", p.Image)
	}
	if p.Rating != "4.1" {
		t.Errorf("rating = %q", p.Rating)
	}
	if p.ReviewCount != "2,340" {
		t.Errorf("review count should have parens stripped: %q", p.ReviewCount)
	}
	if p.Price != "Rs.1099" {
		t.Errorf("price = %q", p.Price)
	}
}

func TestFlipkartParse_GridCardFallbacks(t *testing.T) {
	products := Flipkart{}.Parse(strings.NewReader(flipkartGridCard))
	if len(products) != 1 {
		t.Fatalf("len = %d, want 1", len(products))
	}

	p := products[0]
	if p.Title != "Acme Trail Shoes" {
		t.Errorf("title = %q, want brand+title concatenation", p.Title)
	}
	if p.Link != "https://www.flipkart.com/acme-shoes/p/itm456" {
		t.Errorf("secondary link selector: %q", p.Link)
	}
	if p.Image != "https://rukmini.example/shoes.jpg" {
		t.Errorf("secondary image selector: %q", p.Image)
	}
	// Absent price stays empty; the sentinel is applied at write time.
	if p.Price != "" {
		t.Errorf("price = %q, want empty", p.Price)
	}
}

func TestFlipkartSearchURL(t *testing.T) {
	got := Flipkart{}.SearchURL("trail shoes")
	if got != "https://www.flipkart.com/search?q=trail+shoes" {
		t.Errorf("url = %q", got)
	}
}
