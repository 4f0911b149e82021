package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guarzo/bidgap/internal/pricing"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, pricing.FeeDriven, cfg.Fees.Model)
	assert.Equal(t, 0.35, cfg.Fees.MinMarginRate)
	assert.Equal(t, 0.0825, cfg.Fees.SalesTaxRate)
	assert.Equal(t, 30*time.Second, cfg.Scrape.RequestTimeout)
	assert.Equal(t, "auction_data.json", cfg.StorePath)
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bidgap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
fees:
  model: simple_cap
  max_bid_percent: 60
store_path: /tmp/test-products.json
scrape:
  request_timeout: 10s
  max_retries: 1
  requests_per_sec: 2
  max_results: 25
  user_agent: test-agent
research_max_age: 48h
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, pricing.SimpleCap, cfg.Fees.Model)
	assert.Equal(t, 60.0, cfg.Fees.MaxBidPercent)
	assert.Equal(t, "/tmp/test-products.json", cfg.StorePath)
	assert.Equal(t, 10*time.Second, cfg.Scrape.RequestTimeout)
	assert.Equal(t, 48*time.Hour, cfg.ResearchMaxAge)
	assert.Equal(t, "test-agent", cfg.Scrape.UserAgent)
}

func TestLoadRejectsInvalidFees(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bidgap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
fees:
  model: fee_driven
  listing_fee_rate: 1.3
`), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listing_fee_rate")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("BIDGAP_MIN_MARGIN_RATE", "0.25")
	t.Setenv("BIDGAP_STORE_PATH", "/tmp/env-products.json")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 0.25, cfg.Fees.MinMarginRate)
	assert.Equal(t, "/tmp/env-products.json", cfg.StorePath)
}

func TestEnvOverrideInvalidModelRejected(t *testing.T) {
	t.Setenv("BIDGAP_BID_MODEL", "lowest_ask")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown bid model")
}
