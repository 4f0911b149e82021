package pricing

import (
	"math"
	"strings"
	"testing"
)

func TestDefaultFeeModelValid(t *testing.T) {
	if err := DefaultFeeModel().Validate(); err != nil {
		t.Fatalf("default fee model should validate: %v", err)
	}
}

func TestFeeModelValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*FeeModel)
		wantErr string
	}{
		{"valid", func(f *FeeModel) {}, ""},
		{"rate_negative", func(f *FeeModel) { f.ListingFeeRate = -0.01 }, "listing_fee_rate"},
		{"rate_one", func(f *FeeModel) { f.SalesTaxRate = 1.0 }, "sales_tax_rate"},
		{"rate_above_one", func(f *FeeModel) { f.BuyerPremiumRate = 1.5 }, "buyer_premium_rate"},
		{"rate_nan", func(f *FeeModel) { f.MinMarginRate = math.NaN() }, "min_margin_rate"},
		{"flat_negative", func(f *FeeModel) { f.FlatSellerFee = -0.40 }, "flat_seller_fee"},
		{"ship_negative", func(f *FeeModel) { f.FlatShipToSelfCost = -1 }, "flat_ship_to_self_cost"},
		{"unknown_model", func(f *FeeModel) { f.Model = "percentile" }, "unknown bid model"},
		{"cap_negative", func(f *FeeModel) {
			f.Model = SimpleCap
			f.MaxBidPercent = -10
		}, "max_bid_percent"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := DefaultFeeModel()
			tt.mutate(&f)
			err := f.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestSimpleCapPercentAbove100Allowed(t *testing.T) {
	// A cap above 100% is unusual but not invalid; the engine clamps the
	// resulting bid at the representative price anyway.
	f := FeeModel{Model: SimpleCap, MaxBidPercent: 150}
	if err := f.Validate(); err != nil {
		t.Fatalf("cap above 100 should validate: %v", err)
	}
}
