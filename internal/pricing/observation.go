package pricing

import "math"

// Source identifies where a price observation came from.
type Source string

const (
	MarketplaceSoldAverage   Source = "marketplace_sold_average"
	MarketplaceListedAverage Source = "marketplace_listed_average"
	RetailPrice              Source = "retail_price"
)

// Observation is a single sourced price point feeding the aggregator.
// An ML prediction or any future source plugs in the same way.
type Observation struct {
	Source Source
	Amount Amount
}

// Aggregate blends any number of observations into a representative price:
// the unweighted arithmetic mean of the present values, every source counted
// equally regardless of how many samples sit behind it. Absent observations
// are skipped. Negative, NaN and infinite values are treated as corrupt
// input and skipped too, so the representative price is never negative.
// A present zero counts. Returns absent when nothing usable remains; callers
// must propagate that rather than substitute a default.
func Aggregate(obs []Observation) Amount {
	var sum float64
	var n int
	for _, o := range obs {
		v, ok := o.Amount.Value()
		if !ok || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return Absent()
	}
	return AmountOf(sum / float64(n))
}
