package pricing

import "math"

// The engine is pure: no state, no I/O, no logging. Every data problem
// (missing observations, a degenerate fee combination, a zero base price)
// comes back as an absent Amount, never a panic and never a zero that could
// pass for a real result. Calls are safe to run concurrently; the FeeModel
// is taken by value.

// RecommendedMaxBid computes the highest bid that still meets the
// configured minimum margin when the item later resells at rep.
//
// FeeDriven:
//
//	bid = (R·(1 − listing − promote − minMargin) − sellerFee − shipCost)
//	      / (1 + premium + tax)
//
// SimpleCap:
//
//	bid = min(R · maxBidPercent/100, R)
//
// Returns absent when rep is absent, the model is unrecognized, or the
// denominator is zero.
func RecommendedMaxBid(rep Amount, fees FeeModel) Amount {
	r, ok := rep.Value()
	if !ok {
		return Absent()
	}
	switch fees.Model {
	case SimpleCap:
		bid := r * fees.MaxBidPercent / 100
		return finiteAmount(math.Min(bid, r))
	case FeeDriven:
		den := fees.costDenominator()
		if den == 0 {
			return Absent()
		}
		num := r*(1-fees.ListingFeeRate-fees.PromoteFeeRate-fees.MinMarginRate) -
			fees.FlatSellerFee - fees.FlatShipToSelfCost
		return finiteAmount(num / den)
	default:
		return Absent()
	}
}

// MarginAtBid computes the profit margin, as a percentage of rep, realized
// if the lot is won at bid and later resold at rep. Absent when rep is
// absent or exactly zero (the margin divides by it). A negative result is a
// valid answer, meaning the bid loses money, and is distinct from absent.
//
// FeeDriven pairs with RecommendedMaxBid so that feeding the recommended
// bid back in yields exactly MinMarginRate·100.
func MarginAtBid(bid float64, rep Amount, fees FeeModel) Amount {
	r, ok := rep.Value()
	if !ok || r == 0 {
		return Absent()
	}
	switch fees.Model {
	case SimpleCap:
		return finiteAmount((r - bid) / r * 100)
	case FeeDriven:
		totalCost := bid*fees.costDenominator() + fees.FlatShipToSelfCost
		revenue := r*(1-fees.ListingFeeRate-fees.PromoteFeeRate) - fees.FlatSellerFee
		return finiteAmount((revenue - totalCost) / r * 100)
	default:
		return Absent()
	}
}

// Derived is the engine's output record: constructed, read, discarded.
type Derived struct {
	RepresentativePrice Amount
	RecommendedMaxBid   Amount
	CurrentMargin       Amount

	fees FeeModel
}

// Derive aggregates the observations and runs both formulas. currentBid may
// be absent (no live auction data), in which case CurrentMargin is absent.
func Derive(obs []Observation, currentBid Amount, fees FeeModel) Derived {
	rep := Aggregate(obs)
	d := Derived{
		RepresentativePrice: rep,
		RecommendedMaxBid:   RecommendedMaxBid(rep, fees),
		fees:                fees,
	}
	if bid, ok := currentBid.Value(); ok {
		d.CurrentMargin = MarginAtBid(bid, rep, fees)
	}
	return d
}

// MarginAt re-evaluates the margin for an arbitrary bid against the same
// representative price and fee model.
func (d Derived) MarginAt(bid float64) Amount {
	return MarginAtBid(bid, d.RepresentativePrice, d.fees)
}

// InsufficientData reports whether every output is absent, the case the
// reporting layer surfaces as "insufficient data to calculate" rather than
// a row of zeroes.
func (d Derived) InsufficientData() bool {
	return !d.RepresentativePrice.Present() &&
		!d.RecommendedMaxBid.Present() &&
		!d.CurrentMargin.Present()
}

func finiteAmount(v float64) Amount {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Absent()
	}
	return AmountOf(v)
}
