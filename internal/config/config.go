package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/guarzo/bidgap/internal/pricing"
)

// Config is everything outside the pricing engine needs to run: the fee
// model, scraping behavior, and where the product store lives. Precedence
// is defaults, then the YAML file, then environment variables.
type Config struct {
	Fees pricing.FeeModel `yaml:"fees"`

	Scrape ScrapeConfig `yaml:"scrape"`

	StorePath string `yaml:"store_path"`

	// ResearchMaxAge is how long marketplace research stays fresh before
	// a product is eligible for re-research.
	ResearchMaxAge time.Duration `yaml:"research_max_age"`
}

type ScrapeConfig struct {
	UserAgent      string        `yaml:"user_agent"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	MaxRetries     int           `yaml:"max_retries"`
	// RequestsPerSec throttles all outbound scraping.
	RequestsPerSec float64 `yaml:"requests_per_sec"`
	// MaxResults caps how many search results feed each price statistic.
	MaxResults int `yaml:"max_results"`
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Default returns the configuration the tool ships with.
func Default() Config {
	return Config{
		Fees:      pricing.DefaultFeeModel(),
		StorePath: "auction_data.json",
		Scrape: ScrapeConfig{
			UserAgent:      defaultUserAgent,
			RequestTimeout: 30 * time.Second,
			MaxRetries:     3,
			RequestsPerSec: 0.5,
			MaxResults:     50,
		},
		ResearchMaxAge: 7 * 24 * time.Hour,
	}
}

// Load builds the effective configuration. path may be empty (defaults +
// env only) or name a YAML file. A .env file in the working directory is
// loaded first if present; real environment variables still win over it.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Fees.Validate(); err != nil {
		return Config{}, fmt.Errorf("fee model: %w", err)
	}
	if cfg.Scrape.RequestTimeout <= 0 {
		return Config{}, fmt.Errorf("request_timeout must be positive")
	}
	if cfg.Scrape.RequestsPerSec <= 0 {
		return Config{}, fmt.Errorf("requests_per_sec must be positive")
	}

	return cfg, nil
}

// Environment overrides, mostly useful for one-off runs and CI.
func applyEnv(cfg *Config) {
	if v := os.Getenv("BIDGAP_STORE_PATH"); v != "" {
		cfg.StorePath = v
	}
	if v := os.Getenv("BIDGAP_USER_AGENT"); v != "" {
		cfg.Scrape.UserAgent = v
	}
	envFloat("BIDGAP_MIN_MARGIN_RATE", &cfg.Fees.MinMarginRate)
	envFloat("BIDGAP_BUYER_PREMIUM_RATE", &cfg.Fees.BuyerPremiumRate)
	envFloat("BIDGAP_SALES_TAX_RATE", &cfg.Fees.SalesTaxRate)
	envFloat("BIDGAP_MAX_BID_PERCENT", &cfg.Fees.MaxBidPercent)
	if v := os.Getenv("BIDGAP_BID_MODEL"); v != "" {
		cfg.Fees.Model = pricing.BidModel(v)
	}
}

func envFloat(key string, dst *float64) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		*dst = f
	}
}
