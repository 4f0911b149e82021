package scrape

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/guarzo/bidgap/internal/model"
)

// HiBid scrapes hibid.com auction pages. Selectors go in fallback lists
// because the site's markup shifts between auction houses; a missing node
// yields a missing field, never an error.
type HiBid struct {
	client *Client
}

func NewHiBid(client *Client) *HiBid {
	return &HiBid{client: client}
}

// ScrapeAuction fetches an auction catalog page and returns the auction
// header plus one Lot per catalog entry.
func (h *HiBid) ScrapeAuction(ctx context.Context, auctionURL string) (*model.Auction, error) {
	doc, err := h.client.Document(ctx, auctionURL)
	if err != nil {
		return nil, fmt.Errorf("scrape auction: %w", err)
	}
	auction := ParseAuction(doc, auctionURL)
	if len(auction.Lots) == 0 {
		return auction, fmt.Errorf("no lots found at %s", auctionURL)
	}
	return auction, nil
}

// ScrapeLot fetches a single lot page and returns the product details the
// listing exposes plus the live lot state.
func (h *HiBid) ScrapeLot(ctx context.Context, lotURL string) (*model.Product, *model.Lot, error) {
	doc, err := h.client.Document(ctx, lotURL)
	if err != nil {
		return nil, nil, fmt.Errorf("scrape lot: %w", err)
	}
	product, lot := ParseLot(doc, lotURL)
	return product, lot, nil
}

// ParseAuction extracts the auction header and catalog entries from a
// parsed catalog page. Split from fetching so tests run on static HTML.
func ParseAuction(doc *goquery.Document, auctionURL string) *model.Auction {
	auction := &model.Auction{
		URL:   auctionURL,
		Title: firstText(doc.Selection, "h1.auction-title", "div.auction-header h1", "h1"),
		Date:  firstText(doc.Selection, "span.auction-date", "div.auction-date"),
	}

	doc.Find("div.lot-tile, div.lot-item, article.lot").Each(func(i int, s *goquery.Selection) {
		lot := model.Lot{
			LotNumber:  strings.TrimPrefix(firstText(s, "span.lot-number", "div.lot-number"), "Lot "),
			Name:       firstText(s, "h2.lot-title", "a.lot-title", "h2"),
			CurrentBid: ParseMoney(firstText(s, "span.current-bid-amount", "div.bid-amount", "span.lot-high-bid")),
		}
		if href, ok := s.Find("a").First().Attr("href"); ok {
			lot.URL = resolveURL(auctionURL, href)
		}
		if lot.Name != "" || lot.LotNumber != "" {
			auction.Lots = append(auction.Lots, lot)
		}
	})

	return auction
}

// ParseLot extracts product details and bid state from a lot detail page.
func ParseLot(doc *goquery.Document, lotURL string) (*model.Product, *model.Lot) {
	details := detailMap(doc)

	product := &model.Product{
		UPC:                details["upc"],
		Name:               firstText(doc.Selection, "h1.lot-title", "h1"),
		Brand:              details["brand"],
		Model:              details["model"],
		Condition:          details["condition"],
		Functionality:      details["functionality"],
		DamageDescription:  details["damage description"],
		MissingDescription: details["missing item description"],
		Notes:              details["notes"],
		Damaged:            isYes(details["damage"]),
		MissingItems:       isYes(details["missing items"]),
	}

	lot := &model.Lot{
		LotNumber:  strings.TrimPrefix(firstText(doc.Selection, "span.lot-number", "div.lot-number"), "Lot "),
		UPC:        product.UPC,
		Name:       product.Name,
		CurrentBid: ParseMoney(firstText(doc.Selection, "span.current-bid-amount", "div.bid-amount", "span[data-bid-amount]")),
		URL:        lotURL,
	}

	return product, lot
}

// detailMap flattens the lot page's label/value detail rows into a
// lower-cased lookup.
func detailMap(doc *goquery.Document) map[string]string {
	details := make(map[string]string)
	doc.Find("div.lot-detail-row, tr.detail-row, dl.lot-details > div").Each(func(i int, s *goquery.Selection) {
		label := firstText(s, "span.detail-label", "th", "dt")
		value := firstText(s, "span.detail-value", "td", "dd")
		label = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(label), ":"))
		if label != "" && value != "" {
			details[label] = value
		}
	})
	return details
}

// ParseMoney extracts a dollar amount like "$1,234.56" or "1234.56".
// Returns nil when the text carries no parseable amount, keeping the
// nil-means-missing convention intact.
func ParseMoney(text string) *float64 {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	cleaned := strings.NewReplacer("$", "", ",", "", "USD", "").Replace(text)
	cleaned = strings.TrimSpace(cleaned)
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || v < 0 {
		return nil
	}
	return &v
}

func firstText(s *goquery.Selection, selectors ...string) string {
	for _, sel := range selectors {
		if node := s.Find(sel).First(); node.Length() > 0 {
			if text := strings.TrimSpace(node.Text()); text != "" {
				return text
			}
		}
	}
	return ""
}

func isYes(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true":
		return true
	}
	return false
}

func resolveURL(base, href string) string {
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	h, err := url.Parse(href)
	if err != nil {
		return href
	}
	return b.ResolveReference(h).String()
}
