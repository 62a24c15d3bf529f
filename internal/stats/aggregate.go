package stats

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/foxzi/statboard/internal/models"
)

var hundred = decimal.NewFromInt(100)

// Selection is a set of campaign IDs. An empty selection includes every campaign.
type Selection map[string]struct{}

// NewSelection builds a selection from ids
func NewSelection(ids ...string) Selection {
	s := make(Selection, len(ids))
	for _, id := range ids {
		if id != "" {
			s[id] = struct{}{}
		}
	}
	return s
}

// Toggle adds id when absent and removes it when present
func (s Selection) Toggle(id string) {
	if _, ok := s[id]; ok {
		delete(s, id)
		return
	}
	s[id] = struct{}{}
}

// Contains reports whether id is selected
func (s Selection) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

// Includes reports whether a metric row of campaign id passes the selection
func (s Selection) Includes(id string) bool {
	return len(s) == 0 || s.Contains(id)
}

// IDs returns the selected IDs sorted
func (s Selection) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// KPISet holds the aggregate key performance indicators
type KPISet struct {
	TotalImpressions int64
	TotalClicks      int64
	TotalConversions int64
	TotalCost        decimal.Decimal
	TotalRevenue     decimal.Decimal
	// AvgCTR is the plain mean of the per-row CTRs, not clicks/impressions.
	AvgCTR float64
	// AvgCPA is TotalCost/TotalConversions, zero without conversions.
	AvgCPA decimal.Decimal
	// TotalROAS is TotalRevenue/TotalCost*100, zero without cost.
	TotalROAS float64
	Rows      int
}

// Aggregate computes KPIs over the metric rows passing sel
func Aggregate(rows []models.CampaignMetric, sel Selection) KPISet {
	k := KPISet{
		TotalCost:    decimal.Zero,
		TotalRevenue: decimal.Zero,
		AvgCPA:       decimal.Zero,
	}

	var ctrSum float64
	for i := range rows {
		r := &rows[i]
		if !sel.Includes(r.CampaignID) {
			continue
		}
		k.Rows++
		k.TotalImpressions += r.Impressions
		k.TotalClicks += r.Clicks
		k.TotalConversions += r.Conversions
		k.TotalCost = k.TotalCost.Add(r.Cost)
		k.TotalRevenue = k.TotalRevenue.Add(r.Revenue)
		ctrSum += r.CTR
	}

	if k.Rows == 0 {
		return k
	}

	k.AvgCTR = ctrSum / float64(k.Rows)
	if k.TotalConversions > 0 {
		k.AvgCPA = k.TotalCost.Div(decimal.NewFromInt(k.TotalConversions))
	}
	if !k.TotalCost.IsZero() {
		k.TotalROAS = k.TotalRevenue.Div(k.TotalCost).Mul(hundred).InexactFloat64()
	}
	return k
}
