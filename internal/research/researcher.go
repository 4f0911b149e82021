package research

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/guarzo/bidgap/internal/model"
)

// Researcher fans a product out to every available provider and merges the
// findings back onto the record. A provider error skips that provider but
// keeps whatever the others found.
type Researcher struct {
	providers []Provider
	log       zerolog.Logger
}

// NewResearcher builds a researcher over the given providers. Unavailable
// providers are dropped up front.
func NewResearcher(log zerolog.Logger, providers ...Provider) *Researcher {
	avail := make([]Provider, 0, len(providers))
	for _, p := range providers {
		if p != nil && p.Available() {
			avail = append(avail, p)
		}
	}
	return &Researcher{providers: avail, log: log}
}

// Providers reports the names of the active providers.
func (r *Researcher) Providers() []string {
	names := make([]string, len(r.providers))
	for i, p := range r.providers {
		names[i] = p.Name()
	}
	return names
}

// Research queries every provider for the product and merges the results
// in. LastResearched is stamped when at least one provider answered, even
// with empty findings, so stale-data tracking reflects the attempt.
func (r *Researcher) Research(ctx context.Context, p *model.Product) error {
	q := Query{Name: p.Name, Brand: p.Brand, Model: p.Model, UPC: p.UPC}

	answered := false
	for _, prov := range r.providers {
		if err := ctx.Err(); err != nil {
			return err
		}
		f, err := prov.Research(ctx, q)
		if err != nil {
			r.log.Warn().Err(err).Str("provider", prov.Name()).Str("upc", p.UPC).Msg("research failed")
			continue
		}
		merge(p, f)
		answered = true
	}
	if answered {
		p.LastResearched = time.Now()
	}
	return nil
}

// merge copies populated findings onto the product. Nil fields leave the
// existing value alone so a provider that found nothing cannot erase an
// earlier result.
func merge(p *model.Product, f *Findings) {
	if f == nil {
		return
	}
	if f.SoldLow != nil {
		p.EbaySoldLow = f.SoldLow
	}
	if f.SoldAverage != nil {
		p.EbaySoldAverage = f.SoldAverage
	}
	if f.SoldHigh != nil {
		p.EbaySoldHigh = f.SoldHigh
	}
	if f.ListedAverage != nil {
		p.EbayListedAverage = f.ListedAverage
	}
	if f.ShippingAverage != nil {
		p.EbayShippingAvg = f.ShippingAverage
	}
	if f.ListingCount > 0 {
		p.EbayActiveListings = f.ListingCount
	}
	if f.RetailPrice != nil {
		p.AmazonPrice = f.RetailPrice
	}
	if f.StarRating != nil {
		p.AmazonStarRating = f.StarRating
	}
	if f.ReviewCount > 0 {
		p.AmazonReviewCount = f.ReviewCount
	}
	if f.FrequentlyReturned {
		p.AmazonFrequentlyReturned = true
	}
}
