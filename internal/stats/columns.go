// Package stats derives what the statistics view shows: filtered rows,
// campaign KPIs and display formatting.
package stats

import (
	"math"
	"strconv"
	"strings"

	"github.com/foxzi/statboard/internal/models"
)

// Kind selects how a column is parsed and displayed
type Kind int

const (
	KindText Kind = iota
	KindInteger
	KindRate
)

// Column describes one column of the statistics table
type Column struct {
	Key   string
	Title string
	Kind  Kind
	// Filterable columns get a filter input in the dashboard
	Filterable bool

	value func(*models.StatisticsRow) string
}

// Value returns the raw text of the column for row
func (c Column) Value(row *models.StatisticsRow) string {
	return c.value(row)
}

// Columns lists the table columns in display order
var Columns = []Column{
	{Key: "date", Title: "Date", Filterable: true, value: func(r *models.StatisticsRow) string { return r.Date }},
	{Key: "creative", Title: "Creative", Filterable: true, value: func(r *models.StatisticsRow) string { return r.Creative }},
	{Key: "creativeSize", Title: "Creative Size", value: func(r *models.StatisticsRow) string { return r.CreativeSize }},
	{Key: "country", Title: "Country", Filterable: true, value: func(r *models.StatisticsRow) string { return r.Country }},
	{Key: "lineItem1", Title: "Line Item 1", value: func(r *models.StatisticsRow) string { return r.LineItem1 }},
	{Key: "lineItem2", Title: "Line Item 2", value: func(r *models.StatisticsRow) string { return r.LineItem2 }},
	{Key: "lineItem3", Title: "Line Item 3", value: func(r *models.StatisticsRow) string { return r.LineItem3 }},
	{Key: "lineItem4", Title: "Line Item 4", value: func(r *models.StatisticsRow) string { return r.LineItem4 }},
	{Key: "lineItem5", Title: "Line Item 5", value: func(r *models.StatisticsRow) string { return r.LineItem5 }},
	{Key: "lineItem6", Title: "Line Item 6", value: func(r *models.StatisticsRow) string { return r.LineItem6 }},
	{Key: "lineItem7", Title: "Line Item 7", value: func(r *models.StatisticsRow) string { return r.LineItem7 }},
	{Key: "impressions", Title: "Impressions", Kind: KindInteger, Filterable: true, value: func(r *models.StatisticsRow) string { return r.Impressions }},
	{Key: "clicks", Title: "Clicks", Kind: KindInteger, Filterable: true, value: func(r *models.StatisticsRow) string { return r.Clicks }},
	{Key: "clickRate", Title: "Click Rate (CTR)", Kind: KindRate, value: func(r *models.StatisticsRow) string { return r.ClickRate }},
	{Key: "firstQuartileViews", Title: "First-Quartile Views (Video)", Kind: KindInteger, value: func(r *models.StatisticsRow) string { return r.FirstQuartileViews }},
	{Key: "midpointViews", Title: "Midpoint Views (Video)", Kind: KindInteger, value: func(r *models.StatisticsRow) string { return r.MidpointViews }},
	{Key: "thirdQuartileViews", Title: "Third-Quartile Views (Video)", Kind: KindInteger, value: func(r *models.StatisticsRow) string { return r.ThirdQuartileViews }},
	{Key: "completeViews", Title: "Complete Views (Video)", Kind: KindInteger, value: func(r *models.StatisticsRow) string { return r.CompleteViews }},
}

// Hidden columns can be filtered on but are not displayed
var hiddenColumns = []Column{
	{Key: "id", Title: "ID", value: func(r *models.StatisticsRow) string { return r.ID }},
	{Key: "createdAt", Title: "Created At", value: func(r *models.StatisticsRow) string { return r.CreatedAt }},
}

// ColumnByKey looks up a column, including hidden ones
func ColumnByKey(key string) (Column, bool) {
	for _, c := range Columns {
		if c.Key == key {
			return c, true
		}
	}
	for _, c := range hiddenColumns {
		if c.Key == key {
			return c, true
		}
	}
	return Column{}, false
}

// ParseInteger parses an integer metric. Fractional text is truncated.
// ok is false for blank or unparsable text.
func ParseInteger(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	f, ok := ParseRate(s)
	// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold
	if !ok || f >= 1<<63 || f < -(1<<63) {
		return 0, false
	}
	return int64(f), true
}

// ParseRate parses a ratio metric such as "0.0123"
func ParseRate(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
