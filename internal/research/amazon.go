package research

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/guarzo/bidgap/internal/scrape"
)

const defaultAmazonBase = "https://www.amazon.com"

var (
	ratingRe  = regexp.MustCompile(`([0-9.]+)\s+out of 5`)
	reviewsRe = regexp.MustCompile(`([\d,]+)`)
)

// Amazon scrapes Amazon search and product pages for a retail price plus
// review signals.
type Amazon struct {
	client  *scrape.Client
	baseURL string
}

// NewAmazon returns an Amazon provider backed by the given client.
func NewAmazon(client *scrape.Client) *Amazon {
	return &Amazon{client: client, baseURL: defaultAmazonBase}
}

func (a *Amazon) Available() bool { return a.client != nil }

func (a *Amazon) Name() string { return "amazon" }

// Research searches for the query, follows the first organic result, and
// extracts the retail price, star rating, review count, and whether the
// page carries a frequently-returned warning.
func (a *Amazon) Research(ctx context.Context, q Query) (*Findings, error) {
	terms := q.Terms()
	if terms == "" {
		return nil, fmt.Errorf("amazon: empty query")
	}

	searchDoc, err := a.client.Document(ctx, a.searchURL(terms))
	if err != nil {
		return nil, fmt.Errorf("amazon: search: %w", err)
	}
	link := a.firstProductLink(searchDoc)
	if link == "" {
		return &Findings{}, nil
	}

	doc, err := a.client.Document(ctx, link)
	if err != nil {
		return nil, fmt.Errorf("amazon: product page: %w", err)
	}
	return a.parseProduct(doc), nil
}

func (a *Amazon) searchURL(terms string) string {
	v := url.Values{}
	v.Set("k", terms)
	return a.baseURL + "/s?" + v.Encode()
}

func (a *Amazon) firstProductLink(doc *goquery.Document) string {
	var link string
	doc.Find(`div[data-component-type="s-search-result"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		// Sponsored cards show up first and point at ad redirects.
		if s.Find("span.puis-sponsored-label-text").Length() > 0 {
			return true
		}
		href, ok := s.Find("a.a-link-normal[href*='/dp/']").First().Attr("href")
		if !ok {
			href, ok = s.Find("h2 a").First().Attr("href")
		}
		if ok && href != "" {
			link = href
			return false
		}
		return true
	})
	if link == "" {
		return ""
	}
	if strings.HasPrefix(link, "/") {
		return a.baseURL + link
	}
	return link
}

func (a *Amazon) parseProduct(doc *goquery.Document) *Findings {
	f := &Findings{}

	// Price layouts rotate; try the most specific selectors first.
	for _, sel := range []string{
		"span.a-price span.a-offscreen",
		"#corePrice_feature_div span.a-offscreen",
		"#priceblock_ourprice",
		"#priceblock_dealprice",
	} {
		if p := scrape.ParseMoney(doc.Find(sel).First().Text()); p != nil {
			f.RetailPrice = p
			break
		}
	}

	ratingText := doc.Find("span[data-hook='rating-out-of-text'], #acrPopover").First().AttrOr("title", "")
	if ratingText == "" {
		ratingText = doc.Find("span[data-hook='rating-out-of-text']").First().Text()
	}
	if m := ratingRe.FindStringSubmatch(ratingText); m != nil {
		if r, err := strconv.ParseFloat(m[1], 64); err == nil && r >= 0 && r <= 5 {
			f.StarRating = &r
		}
	}

	reviewText := doc.Find("#acrCustomerReviewText, span[data-hook='total-review-count']").First().Text()
	if m := reviewsRe.FindStringSubmatch(reviewText); m != nil {
		if n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", "")); err == nil {
			f.ReviewCount = n
		}
	}

	pageText := strings.ToLower(doc.Find("#buyBoxAccordion, #apex_desktop, #centerCol").Text())
	f.FrequentlyReturned = strings.Contains(pageText, "frequently returned")

	return f
}
