package research

import (
	"context"
	"strings"
)

// Query carries the identifiers used to search for comparable listings.
type Query struct {
	Name  string
	Brand string
	Model string
	UPC   string
}

// Terms joins the populated identifiers into a search string.
func (q Query) Terms() string {
	parts := make([]string, 0, 4)
	for _, s := range []string{q.Name, q.Brand, q.Model, q.UPC} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// Findings is one provider's view of market pricing for a product. Every
// numeric field is optional: nil means the provider found nothing for it,
// which downstream code must keep distinct from a found zero.
type Findings struct {
	// Marketplace stats over completed sales.
	SoldLow     *float64
	SoldAverage *float64
	SoldHigh    *float64

	// Marketplace stats over active listings.
	ListedAverage   *float64
	ShippingAverage *float64
	ListingCount    int

	// Retail signals.
	RetailPrice        *float64
	StarRating         *float64
	ReviewCount        int
	FrequentlyReturned bool
}

// Provider produces price findings for a query. Implementations follow the
// same contract as the scrapers they wrap: partial data is normal, a nil
// field is not an error.
type Provider interface {
	// Available reports whether the provider is configured and usable.
	Available() bool
	// Name identifies the provider in logs and reports.
	Name() string
	// Research looks up market data for the query.
	Research(ctx context.Context, q Query) (*Findings, error)
}
