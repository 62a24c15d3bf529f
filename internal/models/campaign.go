package models

import "github.com/shopspring/decimal"

// Campaign is an entry of the campaign catalog shown as selectable chips
type Campaign struct {
	ID        string `yaml:"id" json:"id"`
	Name      string `yaml:"name" json:"name"`
	Status    string `yaml:"status" json:"status"` // active, paused, completed
	StartDate string `yaml:"start_date" json:"startDate"`
	EndDate   string `yaml:"end_date,omitempty" json:"endDate,omitempty"`
}

// CampaignMetric is a per-campaign performance row used for KPI aggregation
type CampaignMetric struct {
	ID           string          `yaml:"id" json:"id"`
	CampaignID   string          `yaml:"campaign_id" json:"campaignId"`
	CampaignName string          `yaml:"campaign_name" json:"campaignName"`
	Impressions  int64           `yaml:"impressions" json:"impressions"`
	Clicks       int64           `yaml:"clicks" json:"clicks"`
	Conversions  int64           `yaml:"conversions" json:"conversions"`
	Cost         decimal.Decimal `yaml:"cost" json:"cost"`
	Revenue      decimal.Decimal `yaml:"revenue" json:"revenue"`
	CTR          float64         `yaml:"ctr" json:"ctr"`
	CPA          float64         `yaml:"cpa" json:"cpa"`
	ROAS         float64         `yaml:"roas" json:"roas"`
	Date         string          `yaml:"date" json:"date"`
}
