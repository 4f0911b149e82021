package model

import (
	"time"

	"github.com/guarzo/bidgap/internal/pricing"
)

// Product is the record a liquidation lot resolves to, keyed by UPC.
// Research fields are *float64: nil means the source had no data, a pointer
// to zero means a real zero price. They cross into the pricing engine via
// Observations, never by coercing nil to 0.
type Product struct {
	UPC   string `json:"upc"`
	Name  string `json:"name"`
	Brand string `json:"brand,omitempty"`
	Model string `json:"model,omitempty"`

	// What the auction listing said about this particular lot.
	Condition          string `json:"condition,omitempty"`
	Functionality      string `json:"functionality,omitempty"`
	Damaged            bool   `json:"damaged,omitempty"`
	MissingItems       bool   `json:"missing_items,omitempty"`
	DamageDescription  string `json:"damage_description,omitempty"`
	MissingDescription string `json:"missing_description,omitempty"`
	Notes              string `json:"notes,omitempty"`

	// Marketplace research (eBay).
	EbaySoldLow        *float64 `json:"ebay_sold_low,omitempty"`
	EbaySoldAverage    *float64 `json:"ebay_sold_average,omitempty"`
	EbaySoldHigh       *float64 `json:"ebay_sold_high,omitempty"`
	EbayListedAverage  *float64 `json:"ebay_listed_average,omitempty"`
	EbayShippingAvg    *float64 `json:"ebay_shipping_average,omitempty"`
	EbayActiveListings int      `json:"ebay_active_listings,omitempty"`

	// Retail research (Amazon).
	AmazonPrice              *float64 `json:"amazon_price,omitempty"`
	AmazonStarRating         *float64 `json:"amazon_star_rating,omitempty"`
	AmazonReviewCount        int      `json:"amazon_review_count,omitempty"`
	AmazonFrequentlyReturned bool     `json:"amazon_frequently_returned,omitempty"`

	// Engine outputs, written back by the batch calculator.
	GrandAveragePrice *float64 `json:"grand_average_price,omitempty"`
	RecommendedMaxBid *float64 `json:"recommended_max_bid,omitempty"`
	CurrentMargin     *float64 `json:"current_margin,omitempty"`

	LastResearched time.Time `json:"last_researched,omitempty"`
	LastUpdated    time.Time `json:"last_updated,omitempty"`
}

// Observations exposes the product's price signals in the order the
// original tool averaged them: marketplace sold average, marketplace listed
// average, retail price. Order does not affect the mean.
func (p *Product) Observations() []pricing.Observation {
	return []pricing.Observation{
		{Source: pricing.MarketplaceSoldAverage, Amount: pricing.FromPtr(p.EbaySoldAverage)},
		{Source: pricing.MarketplaceListedAverage, Amount: pricing.FromPtr(p.EbayListedAverage)},
		{Source: pricing.RetailPrice, Amount: pricing.FromPtr(p.AmazonPrice)},
	}
}

// ApplyDerived writes engine outputs back onto the record. Absent outputs
// clear the field rather than leaving a stale number behind.
func (p *Product) ApplyDerived(d pricing.Derived) {
	p.GrandAveragePrice = d.RepresentativePrice.Ptr()
	p.RecommendedMaxBid = d.RecommendedMaxBid.Ptr()
	p.CurrentMargin = d.CurrentMargin.Ptr()
	p.LastUpdated = time.Now()
}

// Lot is one item in a scraped auction.
type Lot struct {
	LotNumber  string   `json:"lot_number"`
	UPC        string   `json:"upc,omitempty"`
	Name       string   `json:"name"`
	CurrentBid *float64 `json:"current_bid,omitempty"`
	URL        string   `json:"url,omitempty"`
}

// Auction is a scraped auction listing page.
type Auction struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Date  string `json:"date,omitempty"`
	Lots  []Lot  `json:"lots"`
}
