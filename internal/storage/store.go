package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/guarzo/bidgap/internal/model"
)

// Store is a file-backed product database keyed by UPC. The whole set is
// held in memory and flushed to a single JSON file on every write; the
// volumes involved (one operator, hundreds of lots) never justify more.
type Store struct {
	path     string
	mu       sync.RWMutex
	products map[string]*model.Product
}

// Open loads the store at path, creating it lazily on first save.
// A corrupt file is discarded and the store starts fresh.
func Open(path string) (*Store, error) {
	s := &Store{
		path:     path,
		products: make(map[string]*model.Product),
	}

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read store: %w", err)
		}
		if len(data) > 0 {
			if err := json.Unmarshal(data, &s.products); err != nil {
				s.products = make(map[string]*model.Product)
			}
		}
	}

	return s, nil
}

// Upsert merges incoming data into the record for p.UPC, creating it if
// needed. Only fields the caller actually has overwrite: nil research
// pointers and empty strings leave existing data alone, so a scrape pass
// never wipes out earlier research.
func (s *Store) Upsert(p model.Product) error {
	if p.UPC == "" {
		return fmt.Errorf("upsert: product has no UPC")
	}

	s.mu.Lock()
	existing, ok := s.products[p.UPC]
	if !ok {
		cp := p
		cp.LastUpdated = time.Now()
		s.products[p.UPC] = &cp
	} else {
		merge(existing, &p)
		existing.LastUpdated = time.Now()
	}
	s.mu.Unlock()

	return s.save()
}

// Put replaces the whole record. Used by the calculator, which owns the
// derived fields and may legitimately clear them to absent.
func (s *Store) Put(p model.Product) error {
	if p.UPC == "" {
		return fmt.Errorf("put: product has no UPC")
	}

	s.mu.Lock()
	cp := p
	s.products[p.UPC] = &cp
	s.mu.Unlock()

	return s.save()
}

// Get returns a copy of the record for upc.
func (s *Store) Get(upc string) (model.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[upc]
	if !ok {
		return model.Product{}, false
	}
	return *p, true
}

// All returns copies of every record, ordered by UPC so exports are stable.
func (s *Store) All() []model.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UPC < out[j].UPC })
	return out
}

// FindByName returns products whose name contains q, case-insensitively.
func (s *Store) FindByName(q string) []model.Product {
	q = strings.ToLower(q)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Product
	for _, p := range s.products {
		if strings.Contains(strings.ToLower(p.Name), q) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UPC < out[j].UPC })
	return out
}

// NeedsResearch reports whether the product is missing key price data or
// its research is older than maxAge. Unknown UPCs need research.
func (s *Store) NeedsResearch(upc string, maxAge time.Duration) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[upc]
	if !ok {
		return true
	}
	if p.EbaySoldAverage == nil && p.EbayListedAverage == nil && p.AmazonPrice == nil {
		return true
	}
	return maxAge > 0 && time.Since(p.LastResearched) > maxAge
}

// StaleProducts returns every product NeedsResearch would flag.
func (s *Store) StaleProducts(maxAge time.Duration) []model.Product {
	all := s.All()
	out := all[:0]
	for _, p := range all {
		if s.NeedsResearch(p.UPC, maxAge) {
			out = append(out, p)
		}
	}
	return out
}

// Len returns the number of stored products.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products)
}

func (s *Store) save() error {
	if dir := filepath.Dir(s.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create store dir: %w", err)
		}
	}

	s.mu.RLock()
	data, err := json.MarshalIndent(s.products, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("marshal store: %w", err)
	}

	return os.WriteFile(s.path, data, 0644)
}

// merge copies the fields src actually carries onto dst.
func merge(dst, src *model.Product) {
	copyString(&dst.Name, src.Name)
	copyString(&dst.Brand, src.Brand)
	copyString(&dst.Model, src.Model)
	copyString(&dst.Condition, src.Condition)
	copyString(&dst.Functionality, src.Functionality)
	copyString(&dst.DamageDescription, src.DamageDescription)
	copyString(&dst.MissingDescription, src.MissingDescription)
	copyString(&dst.Notes, src.Notes)
	dst.Damaged = dst.Damaged || src.Damaged
	dst.MissingItems = dst.MissingItems || src.MissingItems

	copyPtr(&dst.EbaySoldLow, src.EbaySoldLow)
	copyPtr(&dst.EbaySoldAverage, src.EbaySoldAverage)
	copyPtr(&dst.EbaySoldHigh, src.EbaySoldHigh)
	copyPtr(&dst.EbayListedAverage, src.EbayListedAverage)
	copyPtr(&dst.EbayShippingAvg, src.EbayShippingAvg)
	if src.EbayActiveListings > 0 {
		dst.EbayActiveListings = src.EbayActiveListings
	}

	copyPtr(&dst.AmazonPrice, src.AmazonPrice)
	copyPtr(&dst.AmazonStarRating, src.AmazonStarRating)
	if src.AmazonReviewCount > 0 {
		dst.AmazonReviewCount = src.AmazonReviewCount
	}
	dst.AmazonFrequentlyReturned = dst.AmazonFrequentlyReturned || src.AmazonFrequentlyReturned

	copyPtr(&dst.GrandAveragePrice, src.GrandAveragePrice)
	copyPtr(&dst.RecommendedMaxBid, src.RecommendedMaxBid)
	copyPtr(&dst.CurrentMargin, src.CurrentMargin)

	if !src.LastResearched.IsZero() {
		dst.LastResearched = src.LastResearched
	}
}

func copyString(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}

func copyPtr(dst **float64, src *float64) {
	if src != nil {
		v := *src
		*dst = &v
	}
}
