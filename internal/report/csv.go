package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/guarzo/bidgap/internal/model"
)

// Columns of the auction export, in order. Kept stable so downstream
// spreadsheets can key on position.
var csvHeader = []string{
	"Lot Number",
	"Current Bid",
	"Name",
	"Brand",
	"Model",
	"UPC",
	"Condition",
	"Functionality",
	"Damage?",
	"Missing Items?",
	"Damage Description",
	"Missing Item Description",
	"Notes",
	"Grand Average Price",
	"Average Shipping Price",
	"Recommended Highest Bid Amount",
	"Current Profit Margin",
	"Flagged",
}

// ProductLookup resolves a lot's UPC to its researched record. Returning
// nil leaves the research columns empty.
type ProductLookup func(upc string) *model.Product

// WriteAuctionCSV exports an auction's lots joined with their researched
// products. Missing research values export as empty cells, never as zero:
// a blank cell means "unknown", and a 0.00 would read as a real price.
func WriteAuctionCSV(w io.Writer, auction model.Auction, lookup ProductLookup) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, lot := range auction.Lots {
		var p *model.Product
		if lookup != nil && lot.UPC != "" {
			p = lookup(lot.UPC)
		}
		if err := cw.Write(lotRow(lot, p)); err != nil {
			return fmt.Errorf("write lot %s: %w", lot.LotNumber, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func lotRow(lot model.Lot, p *model.Product) []string {
	row := make([]string, 0, len(csvHeader))
	row = append(row,
		lot.LotNumber,
		money(lot.CurrentBid),
		lot.Name,
	)

	if p != nil {
		row = append(row,
			p.Brand,
			p.Model,
			p.UPC,
			p.Condition,
			p.Functionality,
			yesNo(p.Damaged),
			yesNo(p.MissingItems),
			p.DamageDescription,
			p.MissingDescription,
			p.Notes,
			money(p.GrandAveragePrice),
			money(p.EbayShippingAvg),
			money(p.RecommendedMaxBid),
			percent(p.CurrentMargin),
			yesNo(p.AmazonFrequentlyReturned),
		)
	} else {
		row = append(row, "", "", lot.UPC, "", "", "No", "No", "", "", "", "", "", "", "", "No")
	}

	return escapeRow(row)
}

func money(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("$%.2f", *v)
}

func percent(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.1f%%", *v)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// escapeCell defuses spreadsheet formula injection: cells starting with a
// formula trigger get a leading single quote.
func escapeCell(value string) string {
	if value == "" {
		return value
	}
	switch value[0] {
	case '=', '+', '-', '@', '|', '%', '\t', '\r', '\n':
		return "'" + value
	}
	return value
}

func escapeRow(row []string) []string {
	escaped := make([]string, len(row))
	for i, cell := range row {
		escaped[i] = escapeCell(cell)
	}
	return escaped
}

// Summarize renders a short plain-text account of an auction against its
// researched products, for terminal output.
func Summarize(w io.Writer, auction model.Auction, lookup ProductLookup) error {
	var researched, insufficient int
	for _, lot := range auction.Lots {
		if lookup == nil || lot.UPC == "" {
			insufficient++
			continue
		}
		p := lookup(lot.UPC)
		if p == nil || p.GrandAveragePrice == nil {
			insufficient++
			continue
		}
		researched++
	}

	_, err := fmt.Fprintf(w, "%s\n%s\nlots: %d  priced: %d  insufficient data: %d\n",
		auction.Title, strings.Repeat("-", len(auction.Title)),
		len(auction.Lots), researched, insufficient)
	return err
}
