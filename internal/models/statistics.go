package models

// StatisticsRow is one reporting record from GET /statistics.
// Numeric metrics arrive as text and are parsed only for display.
type StatisticsRow struct {
	ID                 string `json:"id"`
	Date               string `json:"date"`
	Creative           string `json:"creative"`
	CreativeSize       string `json:"creativeSize"`
	Country            string `json:"country"`
	LineItem1          string `json:"lineItem1"`
	LineItem2          string `json:"lineItem2"`
	LineItem3          string `json:"lineItem3"`
	LineItem4          string `json:"lineItem4"`
	LineItem5          string `json:"lineItem5"`
	LineItem6          string `json:"lineItem6"`
	LineItem7          string `json:"lineItem7"`
	Impressions        string `json:"impressions"`
	Clicks             string `json:"clicks"`
	ClickRate          string `json:"clickRate"`
	FirstQuartileViews string `json:"firstQuartileViews"`
	MidpointViews      string `json:"midpointViews"`
	ThirdQuartileViews string `json:"thirdQuartileViews"`
	CompleteViews      string `json:"completeViews"`
	CreatedAt          string `json:"createdAt"`
}
