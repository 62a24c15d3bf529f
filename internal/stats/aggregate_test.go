package stats

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/foxzi/statboard/internal/models"
)

func sampleMetrics() []models.CampaignMetric {
	return []models.CampaignMetric{
		{
			ID: "1", CampaignID: "1", CampaignName: "Summer Sale 2024",
			Impressions: 125000, Clicks: 3500, Conversions: 287,
			Cost: decimal.RequireFromString("2450.00"), Revenue: decimal.RequireFromString("8900.00"),
			CTR: 2.8, CPA: 8.54, ROAS: 363.3, Date: "2024-09-01",
		},
		{
			ID: "2", CampaignID: "2", CampaignName: "Black Friday Special",
			Impressions: 89000, Clicks: 2100, Conversions: 156,
			Cost: decimal.RequireFromString("1800.00"), Revenue: decimal.RequireFromString("5600.00"),
			CTR: 2.4, CPA: 11.54, ROAS: 311.1, Date: "2024-09-02",
		},
	}
}

func TestAggregate_AllWhenSelectionEmpty(t *testing.T) {
	k := Aggregate(sampleMetrics(), NewSelection())

	if k.Rows != 2 {
		t.Errorf("Rows = %d, want 2", k.Rows)
	}
	if k.TotalImpressions != 214000 || k.TotalClicks != 5600 || k.TotalConversions != 443 {
		t.Errorf("unexpected totals %+v", k)
	}
	if !k.TotalCost.Equal(decimal.RequireFromString("4250")) {
		t.Errorf("TotalCost = %s", k.TotalCost)
	}
	if !k.TotalRevenue.Equal(decimal.RequireFromString("14500")) {
		t.Errorf("TotalRevenue = %s", k.TotalRevenue)
	}
	// Unweighted mean of 2.8 and 2.4
	if math.Abs(k.AvgCTR-2.6) > 1e-9 {
		t.Errorf("AvgCTR = %v, want 2.6", k.AvgCTR)
	}
	if got := k.AvgCPA.Round(2).String(); got != "9.59" {
		t.Errorf("AvgCPA = %s, want 9.59", got)
	}
	if math.Abs(k.TotalROAS-341.17647) > 1e-4 {
		t.Errorf("TotalROAS = %v", k.TotalROAS)
	}
}

func TestAggregate_Selection(t *testing.T) {
	k := Aggregate(sampleMetrics(), NewSelection("2"))
	if k.Rows != 1 || k.TotalImpressions != 89000 {
		t.Errorf("unexpected KPIs for selection: %+v", k)
	}
}

func TestAggregate_AbsentCampaignsYieldZero(t *testing.T) {
	k := Aggregate(sampleMetrics(), NewSelection("404"))
	assertZero(t, k)
}

func TestAggregate_Empty(t *testing.T) {
	assertZero(t, Aggregate(nil, nil))
}

func TestAggregate_ZeroDivisors(t *testing.T) {
	rows := []models.CampaignMetric{
		{CampaignID: "1", Impressions: 10, Clicks: 1, Conversions: 0, Cost: decimal.Zero, Revenue: decimal.RequireFromString("50"), CTR: 10},
	}
	k := Aggregate(rows, nil)

	if !k.AvgCPA.IsZero() {
		t.Errorf("AvgCPA = %s, want exactly 0 without conversions", k.AvgCPA)
	}
	if k.TotalROAS != 0 {
		t.Errorf("TotalROAS = %v, want exactly 0 without cost", k.TotalROAS)
	}
	if math.IsNaN(k.TotalROAS) || math.IsInf(k.TotalROAS, 0) {
		t.Error("ROAS must be finite")
	}
}

func assertZero(t *testing.T, k KPISet) {
	t.Helper()
	if k.Rows != 0 || k.TotalImpressions != 0 || k.TotalClicks != 0 || k.TotalConversions != 0 {
		t.Errorf("expected zero counts, got %+v", k)
	}
	if !k.TotalCost.IsZero() || !k.TotalRevenue.IsZero() || !k.AvgCPA.IsZero() {
		t.Errorf("expected zero currency values, got %+v", k)
	}
	if k.AvgCTR != 0 || k.TotalROAS != 0 {
		t.Errorf("expected zero rates, got %+v", k)
	}
}

func TestSelection_Toggle(t *testing.T) {
	sel := NewSelection()
	sel.Toggle("1")
	sel.Toggle("3")
	sel.Toggle("1")

	if sel.Contains("1") || !sel.Contains("3") {
		t.Errorf("unexpected selection %v", sel.IDs())
	}
	if !sel.Includes("3") || sel.Includes("2") {
		t.Error("non-empty selection must restrict")
	}
	if !NewSelection().Includes("anything") {
		t.Error("empty selection must include all")
	}
}

func TestLoadCampaignData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "campaigns.yaml")
	content := `campaigns:
  - id: "1"
    name: Summer Sale 2024
    status: active
    start_date: "2024-06-01"
metrics:
  - id: "1"
    campaign_id: "1"
    campaign_name: Summer Sale 2024
    impressions: 125000
    clicks: 3500
    conversions: 287
    cost: 2450.00
    revenue: "8900.50"
    ctr: 2.8
    date: "2024-09-01"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cd, err := LoadCampaignData(path)
	if err != nil {
		t.Fatalf("LoadCampaignData failed: %v", err)
	}
	if len(cd.Campaigns) != 1 || len(cd.Metrics) != 1 {
		t.Fatalf("unexpected data %+v", cd)
	}
	if !cd.Metrics[0].Cost.Equal(decimal.RequireFromString("2450")) {
		t.Errorf("Cost = %s", cd.Metrics[0].Cost)
	}
	if !cd.Metrics[0].Revenue.Equal(decimal.RequireFromString("8900.5")) {
		t.Errorf("Revenue = %s", cd.Metrics[0].Revenue)
	}
	if c, ok := cd.Campaign("1"); !ok || c.Name != "Summer Sale 2024" {
		t.Errorf("Campaign(1) = %+v, %v", c, ok)
	}

	empty, err := LoadCampaignData("")
	if err != nil || len(empty.Campaigns) != 0 {
		t.Errorf("empty path: %+v, %v", empty, err)
	}
}

func TestLoadCampaignData_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "campaigns.yaml")
	os.WriteFile(path, []byte("campaigns:\n  - id: \"1\"\n  - id: \"1\"\n"), 0644)

	if _, err := LoadCampaignData(path); err == nil {
		t.Error("expected error for duplicate campaign id")
	}
}
