package research

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guarzo/bidgap/internal/model"
)

func f(v float64) *float64 { return &v }

func TestResearcherMergesProviders(t *testing.T) {
	market := &Mock{ByUPC: map[string]*Findings{
		"012345678905": {
			SoldLow:       f(60),
			SoldAverage:   f(75),
			SoldHigh:      f(90),
			ListedAverage: f(100),
			ListingCount:  4,
		},
	}}
	retail := &Mock{ByUPC: map[string]*Findings{
		"012345678905": {
			RetailPrice:        f(129.99),
			StarRating:         f(4.6),
			ReviewCount:        2314,
			FrequentlyReturned: true,
		},
	}}

	r := NewResearcher(zerolog.Nop(), market, retail)
	p := &model.Product{UPC: "012345678905", Name: "Widget Pro 3000"}

	require.NoError(t, r.Research(context.Background(), p))

	require.NotNil(t, p.EbaySoldAverage)
	assert.Equal(t, 75.0, *p.EbaySoldAverage)
	assert.Equal(t, 4, p.EbayActiveListings)
	require.NotNil(t, p.AmazonPrice)
	assert.Equal(t, 129.99, *p.AmazonPrice)
	assert.True(t, p.AmazonFrequentlyReturned)
	assert.False(t, p.LastResearched.IsZero())

	require.Len(t, market.Calls, 1)
	assert.Equal(t, "012345678905", market.Calls[0].UPC)
	assert.Equal(t, "Widget Pro 3000", market.Calls[0].Name)
}

func TestResearcherProviderErrorKeepsOthers(t *testing.T) {
	broken := &Mock{Err: errors.New("blocked")}
	retail := &Mock{ByUPC: map[string]*Findings{
		"X": {RetailPrice: f(50)},
	}}

	r := NewResearcher(zerolog.Nop(), broken, retail)
	p := &model.Product{UPC: "X", Name: "thing"}

	require.NoError(t, r.Research(context.Background(), p))
	require.NotNil(t, p.AmazonPrice)
	assert.Equal(t, 50.0, *p.AmazonPrice)
	assert.False(t, p.LastResearched.IsZero())
}

func TestResearcherAllProvidersFail(t *testing.T) {
	broken := &Mock{Err: errors.New("blocked")}
	r := NewResearcher(zerolog.Nop(), broken)
	p := &model.Product{UPC: "X"}

	require.NoError(t, r.Research(context.Background(), p))
	assert.True(t, p.LastResearched.IsZero())
}

func TestResearcherEmptyFindingsDoNotErase(t *testing.T) {
	// A rerun that comes back empty must not wipe prior research.
	empty := &Mock{}
	r := NewResearcher(zerolog.Nop(), empty)
	p := &model.Product{UPC: "X", EbaySoldAverage: f(75), AmazonPrice: f(120)}

	require.NoError(t, r.Research(context.Background(), p))
	require.NotNil(t, p.EbaySoldAverage)
	assert.Equal(t, 75.0, *p.EbaySoldAverage)
	require.NotNil(t, p.AmazonPrice)
	assert.Equal(t, 120.0, *p.AmazonPrice)
}

func TestResearcherCancelledContext(t *testing.T) {
	m := &Mock{}
	r := NewResearcher(zerolog.Nop(), m)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := r.Research(ctx, &model.Product{UPC: "X"})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, m.Calls)
}
