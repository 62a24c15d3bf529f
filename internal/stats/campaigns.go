package stats

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/foxzi/statboard/internal/models"
)

// CampaignData is the campaign catalog and the per-campaign metric rows the
// KPI cards aggregate over
type CampaignData struct {
	Campaigns []models.Campaign       `yaml:"campaigns"`
	Metrics   []models.CampaignMetric `yaml:"metrics"`
}

// LoadCampaignData reads a YAML campaign file. An empty path yields an empty catalog.
func LoadCampaignData(path string) (*CampaignData, error) {
	if path == "" {
		return &CampaignData{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read campaign data: %w", err)
	}

	cd := &CampaignData{}
	if err := yaml.Unmarshal(data, cd); err != nil {
		return nil, fmt.Errorf("failed to parse campaign data: %w", err)
	}

	if err := cd.validate(); err != nil {
		return nil, fmt.Errorf("invalid campaign data: %w", err)
	}
	return cd, nil
}

func (cd *CampaignData) validate() error {
	seen := make(map[string]bool, len(cd.Campaigns))
	for i, c := range cd.Campaigns {
		if c.ID == "" {
			return fmt.Errorf("campaigns[%d]: id is required", i)
		}
		if seen[c.ID] {
			return fmt.Errorf("campaigns[%d]: duplicate id %q", i, c.ID)
		}
		seen[c.ID] = true
	}
	for i, m := range cd.Metrics {
		if m.CampaignID == "" {
			return fmt.Errorf("metrics[%d]: campaign_id is required", i)
		}
	}
	return nil
}

// Campaign looks up a catalog entry by ID
func (cd *CampaignData) Campaign(id string) (models.Campaign, bool) {
	for _, c := range cd.Campaigns {
		if c.ID == id {
			return c, true
		}
	}
	return models.Campaign{}, false
}
