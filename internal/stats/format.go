package stats

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/foxzi/statboard/internal/models"
)

const (
	// NotAvailable is shown for numeric text that cannot be parsed
	NotAvailable = "N/A"

	DefaultTruncateAt = 50
	ellipsis          = "..."
)

// Formatter renders numbers for display using locale digit grouping
type Formatter struct {
	printer    *message.Printer
	currency   string
	truncateAt int
}

// NewFormatter creates a formatter for a BCP 47 locale such as "en-US"
func NewFormatter(locale, currency string, truncateAt int) (*Formatter, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("invalid locale %q: %w", locale, err)
	}
	if truncateAt <= 0 {
		truncateAt = DefaultTruncateAt
	}
	return &Formatter{
		printer:    message.NewPrinter(tag),
		currency:   currency,
		truncateAt: truncateAt,
	}, nil
}

// Integer formats n with digit grouping
func (f *Formatter) Integer(n int64) string {
	return f.printer.Sprintf("%d", n)
}

// Currency formats d rounded to two decimals, prefixed with the symbol
func (f *Formatter) Currency(d decimal.Decimal) string {
	d = d.Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	return sign + f.currency + f.printer.Sprintf("%.2f", d.InexactFloat64())
}

// Percent formats v (already scaled to percent) with the given decimals
func (f *Formatter) Percent(v float64, decimals int) string {
	return f.printer.Sprintf(fmt.Sprintf("%%.%df", decimals), v) + "%"
}

// Truncate shortens s to the configured rune count, appending an ellipsis
func (f *Formatter) Truncate(s string) string {
	r := []rune(s)
	if len(r) <= f.truncateAt {
		return s
	}
	return string(r[:f.truncateAt]) + ellipsis
}

// Cell is one rendered table cell. Full keeps the untruncated text for tooltips.
type Cell struct {
	Text string
	Full string
	NA   bool
}

// Truncated reports whether Text is shorter than Full
func (c Cell) Truncated() bool {
	return c.Text != c.Full
}

// Cell renders the value of col for row. Every numeric column shows N/A for
// unparsable text.
func (f *Formatter) Cell(col Column, row *models.StatisticsRow) Cell {
	raw := col.Value(row)
	switch col.Kind {
	case KindInteger:
		n, ok := ParseInteger(raw)
		if !ok {
			return Cell{Text: NotAvailable, Full: raw, NA: true}
		}
		text := f.Integer(n)
		return Cell{Text: text, Full: text}
	case KindRate:
		v, ok := ParseRate(raw)
		if !ok {
			return Cell{Text: NotAvailable, Full: raw, NA: true}
		}
		text := f.Percent(v*100, 2)
		return Cell{Text: text, Full: text}
	default:
		return Cell{Text: f.Truncate(raw), Full: raw}
	}
}

// RowView is a rendered table row
type RowView struct {
	ID    string
	Cells []Cell
}

// Table renders rows across every display column
func (f *Formatter) Table(rows []models.StatisticsRow) []RowView {
	out := make([]RowView, 0, len(rows))
	for i := range rows {
		cells := make([]Cell, len(Columns))
		for j, col := range Columns {
			cells[j] = f.Cell(col, &rows[i])
		}
		out = append(out, RowView{ID: rows[i].ID, Cells: cells})
	}
	return out
}

// Card is one KPI tile
type Card struct {
	Label string
	Value string
	Icon  string
}

// KPICards renders the eight KPI tiles of the dashboard
func (f *Formatter) KPICards(k KPISet) []Card {
	return []Card{
		{Label: "Total Impressions", Value: f.Integer(k.TotalImpressions), Icon: "fas fa-eye"},
		{Label: "Total Clicks", Value: f.Integer(k.TotalClicks), Icon: "fas fa-mouse-pointer"},
		{Label: "Total Conversions", Value: f.Integer(k.TotalConversions), Icon: "fas fa-check-circle"},
		{Label: "Total Cost", Value: f.Currency(k.TotalCost), Icon: "fas fa-dollar-sign"},
		{Label: "Total Revenue", Value: f.Currency(k.TotalRevenue), Icon: "fas fa-chart-line"},
		{Label: "Avg CTR", Value: f.Percent(k.AvgCTR, 1), Icon: "fas fa-percentage"},
		{Label: "Avg CPA", Value: f.Currency(k.AvgCPA), Icon: "fas fa-coins"},
		{Label: "Total ROAS", Value: f.Percent(k.TotalROAS, 1), Icon: "fas fa-arrow-trend-up"},
	}
}
