package pricing

import (
	"fmt"
	"math"
)

// BidModel selects which bid/margin formula pair the engine applies.
type BidModel string

const (
	// FeeDriven solves for the bid that still clears MinMarginRate after
	// the full fee stack on both the buy and resale side.
	FeeDriven BidModel = "fee_driven"
	// SimpleCap is the degenerate model for deployments without a fee
	// breakdown: bid a flat percentage of the representative price.
	SimpleCap BidModel = "simple_cap"
)

// FeeModel is the full set of rate and flat-fee parameters for one
// calculation. Build it once, validate it once, then treat it as read-only:
// the engine takes it by value so an in-flight calculation can never see a
// caller's later edits.
type FeeModel struct {
	Model BidModel `yaml:"model"`

	// Rates, each a fraction of price in [0, 1).
	ListingFeeRate   float64 `yaml:"listing_fee_rate"`
	PromoteFeeRate   float64 `yaml:"promote_fee_rate"`
	MinMarginRate    float64 `yaml:"min_margin_rate"`
	BuyerPremiumRate float64 `yaml:"buyer_premium_rate"`
	SalesTaxRate     float64 `yaml:"sales_tax_rate"`

	// Flat dollar amounts.
	FlatSellerFee      float64 `yaml:"flat_seller_fee"`
	FlatShipToSelfCost float64 `yaml:"flat_ship_to_self_cost"`

	// SimpleCap only: bid this percentage of the representative price.
	MaxBidPercent float64 `yaml:"max_bid_percent"`
}

// DefaultFeeModel returns the fee assumptions the tool shipped with:
// 8.25% sales tax, 15% buyer premium, 13% listing fee, 2% promote fee,
// $0.40 flat seller fee and a 35% minimum margin.
func DefaultFeeModel() FeeModel {
	return FeeModel{
		Model:            FeeDriven,
		ListingFeeRate:   0.13,
		PromoteFeeRate:   0.02,
		MinMarginRate:    0.35,
		BuyerPremiumRate: 0.15,
		SalesTaxRate:     0.0825,
		FlatSellerFee:    0.40,
		MaxBidPercent:    70,
	}
}

// Validate rejects out-of-range parameters up front so the per-call guards
// in the engine only ever fire for configurations that bypassed it.
func (f FeeModel) Validate() error {
	switch f.Model {
	case FeeDriven, SimpleCap:
	default:
		return fmt.Errorf("unknown bid model %q", f.Model)
	}
	rates := map[string]float64{
		"listing_fee_rate":   f.ListingFeeRate,
		"promote_fee_rate":   f.PromoteFeeRate,
		"min_margin_rate":    f.MinMarginRate,
		"buyer_premium_rate": f.BuyerPremiumRate,
		"sales_tax_rate":     f.SalesTaxRate,
	}
	for name, r := range rates {
		if math.IsNaN(r) || r < 0 || r >= 1 {
			return fmt.Errorf("%s must be in [0, 1), got %v", name, r)
		}
	}
	if f.FlatSellerFee < 0 {
		return fmt.Errorf("flat_seller_fee must be >= 0, got %v", f.FlatSellerFee)
	}
	if f.FlatShipToSelfCost < 0 {
		return fmt.Errorf("flat_ship_to_self_cost must be >= 0, got %v", f.FlatShipToSelfCost)
	}
	if f.Model == SimpleCap && (math.IsNaN(f.MaxBidPercent) || f.MaxBidPercent < 0) {
		return fmt.Errorf("max_bid_percent must be >= 0, got %v", f.MaxBidPercent)
	}
	if f.costDenominator() == 0 {
		return fmt.Errorf("buyer_premium_rate + sales_tax_rate must not equal -1")
	}
	return nil
}

// costDenominator is the buy-side cost multiplier: every dollar bid costs
// this many dollars once the premium and tax land on top.
func (f FeeModel) costDenominator() float64 {
	return 1 + f.BuyerPremiumRate + f.SalesTaxRate
}
