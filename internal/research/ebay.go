package research

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/guarzo/bidgap/internal/scrape"
)

const defaultEbayBase = "https://www.ebay.com"

// Ebay scrapes active and completed eBay search results for marketplace
// price statistics.
type Ebay struct {
	client     *scrape.Client
	baseURL    string
	maxResults int
}

// NewEbay returns an eBay provider backed by the given client.
func NewEbay(client *scrape.Client, maxResults int) *Ebay {
	if maxResults <= 0 {
		maxResults = 30
	}
	return &Ebay{client: client, baseURL: defaultEbayBase, maxResults: maxResults}
}

func (e *Ebay) Available() bool { return e.client != nil }

func (e *Ebay) Name() string { return "ebay" }

// Research fetches active and sold search results for the query. Sold
// results feed the low/average/high stats, active results the listed
// average and shipping average. Either search may come back empty without
// failing the other.
func (e *Ebay) Research(ctx context.Context, q Query) (*Findings, error) {
	terms := q.Terms()
	if terms == "" {
		return nil, fmt.Errorf("ebay: empty query")
	}

	f := &Findings{}

	active, err := e.searchPrices(ctx, terms, false)
	if err != nil {
		return nil, fmt.Errorf("ebay: active search: %w", err)
	}
	f.ListingCount = len(active.prices)
	if len(active.prices) > 0 {
		_, mean, _ := stats(active.prices)
		f.ListedAverage = &mean
	}
	if len(active.shipping) > 0 {
		_, mean, _ := stats(active.shipping)
		f.ShippingAverage = &mean
	}

	sold, err := e.searchPrices(ctx, terms, true)
	if err != nil {
		return nil, fmt.Errorf("ebay: sold search: %w", err)
	}
	if len(sold.prices) > 0 {
		low, mean, high := stats(sold.prices)
		f.SoldLow = &low
		f.SoldAverage = &mean
		f.SoldHigh = &high
	}

	return f, nil
}

type priceSample struct {
	prices   []float64
	shipping []float64
}

func (e *Ebay) searchPrices(ctx context.Context, terms string, sold bool) (priceSample, error) {
	u := e.searchURL(terms, sold)
	doc, err := e.client.Document(ctx, u)
	if err != nil {
		return priceSample{}, err
	}
	return e.parseResults(doc), nil
}

func (e *Ebay) searchURL(terms string, sold bool) string {
	v := url.Values{}
	v.Set("_nkw", terms)
	v.Set("_ipg", strconv.Itoa(e.maxResults))
	if sold {
		v.Set("LH_Sold", "1")
		v.Set("LH_Complete", "1")
	}
	return e.baseURL + "/sch/i.html?" + v.Encode()
}

func (e *Ebay) parseResults(doc *goquery.Document) priceSample {
	var sample priceSample
	doc.Find("li.s-item, div.s-item").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if len(sample.prices) >= e.maxResults {
			return false
		}
		title := strings.TrimSpace(s.Find("div.s-item__title, span.s-item__title").Text())
		// eBay injects a template row with no real listing behind it.
		if title == "" || strings.Contains(title, "Shop on eBay") {
			return true
		}
		if p := parseListingPrice(s.Find("span.s-item__price").First().Text()); p != nil {
			sample.prices = append(sample.prices, *p)
		}
		if sh := parseShipping(s.Find("span.s-item__shipping, span.s-item__logisticsCost").First().Text()); sh != nil {
			sample.shipping = append(sample.shipping, *sh)
		}
		return true
	})
	return sample
}

// parseListingPrice handles single prices and "X to Y" ranges, returning the
// range midpoint for the latter.
func parseListingPrice(text string) *float64 {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if lo, hi, ok := splitRange(text); ok {
		a := scrape.ParseMoney(lo)
		b := scrape.ParseMoney(hi)
		if a == nil || b == nil {
			return nil
		}
		mid := (*a + *b) / 2
		return &mid
	}
	return scrape.ParseMoney(text)
}

func splitRange(text string) (lo, hi string, ok bool) {
	for _, sep := range []string{" to ", " - "} {
		if i := strings.Index(text, sep); i > 0 {
			return text[:i], text[i+len(sep):], true
		}
	}
	return "", "", false
}

// parseShipping maps "Free shipping" to zero and strips the trailing
// "shipping"/"delivery" label from priced variants.
func parseShipping(text string) *float64 {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	lower := strings.ToLower(text)
	if strings.Contains(lower, "free") {
		zero := 0.0
		return &zero
	}
	for _, label := range []string{"shipping", "delivery", "postage"} {
		if i := strings.Index(lower, label); i > 0 {
			text = text[:i]
			break
		}
	}
	return scrape.ParseMoney(strings.TrimLeft(strings.TrimSpace(text), "+ "))
}

func stats(vals []float64) (low, mean, high float64) {
	low, high = vals[0], vals[0]
	sum := 0.0
	for _, v := range vals {
		if v < low {
			low = v
		}
		if v > high {
			high = v
		}
		sum += v
	}
	return low, sum / float64(len(vals)), high
}
