package stats

import (
	"reflect"
	"testing"

	"github.com/foxzi/statboard/internal/models"
)

func sampleRows() []models.StatisticsRow {
	return []models.StatisticsRow{
		{ID: "1", Date: "2024-09-01", Creative: "Summer Banner 300x250", Country: "US", Impressions: "125000", Clicks: "3500", ClickRate: "0.028"},
		{ID: "2", Date: "2024-09-02", Creative: "Black Friday Video", Country: "DE", Impressions: "89000", Clicks: "2100", ClickRate: "0.0236"},
		{ID: "3", Date: "2024-10-01", Creative: "summer teaser", Country: "us", Impressions: "n/a", Clicks: "12", ClickRate: "bad"},
	}
}

func ids(rows []models.StatisticsRow) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ID)
	}
	return out
}

func TestFilter_Identity(t *testing.T) {
	rows := sampleRows()

	for _, filters := range []ColumnFilterSet{
		nil,
		{},
		{"creative": ""},
		{"creative": "   ", "country": ""},
	} {
		got := Filter(rows, filters)
		if !reflect.DeepEqual(got, rows) {
			t.Errorf("Filter(%v) changed the collection: %v", filters, ids(got))
		}
		if len(rows) > 0 && &got[0] != &rows[0] {
			t.Errorf("Filter(%v) should return the input unchanged", filters)
		}
	}
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name    string
		filters ColumnFilterSet
		want    []string
	}{
		{"case insensitive substring", ColumnFilterSet{"creative": "SUMMER"}, []string{"1", "3"}},
		{"and across columns", ColumnFilterSet{"creative": "summer", "date": "2024-09"}, []string{"1"}},
		{"numeric column as text", ColumnFilterSet{"impressions": "000"}, []string{"1", "2"}},
		{"country", ColumnFilterSet{"country": "us"}, []string{"1", "3"}},
		{"no match", ColumnFilterSet{"country": "fr"}, []string{}},
		{"unknown column matches nothing", ColumnFilterSet{"campaign": "x"}, []string{}},
		{"blank entries ignored", ColumnFilterSet{"country": "de", "creative": ""}, []string{"2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Filter(sampleRows(), tt.filters))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Filter() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilter_Idempotent(t *testing.T) {
	for _, filters := range []ColumnFilterSet{
		{"creative": "summer"},
		{"country": "US", "clicks": "1"},
		{"date": "2024"},
		{"unknown": "x"},
	} {
		once := Filter(sampleRows(), filters)
		twice := Filter(once, filters)
		if !reflect.DeepEqual(ids(once), ids(twice)) {
			t.Errorf("filtering twice with %v: %v != %v", filters, ids(twice), ids(once))
		}
	}
}

func TestParseColumnFilters(t *testing.T) {
	set, err := ParseColumnFilters([]string{"creative=Summer", "country= us", "date="})
	if err != nil {
		t.Fatalf("ParseColumnFilters failed: %v", err)
	}
	if set.Get("creative") != "Summer" || set.Get("country") != " us" {
		t.Errorf("unexpected set %v", set)
	}
	if keys := set.Keys(); !reflect.DeepEqual(keys, []string{"country", "creative"}) {
		t.Errorf("Keys() = %v", keys)
	}

	if _, err := ParseColumnFilters([]string{"creative"}); err == nil {
		t.Error("expected error for missing '='")
	}
	if _, err := ParseColumnFilters([]string{"campaign=x"}); err == nil {
		t.Error("expected error for unknown column")
	}
}

func TestColumnFilterSet_SetClear(t *testing.T) {
	set := ColumnFilterSet{}
	set.Set("country", "us")
	if !set.Active() {
		t.Error("expected active set")
	}
	set.Clear("country")
	if set.Active() {
		t.Error("expected inactive set after Clear")
	}
}
