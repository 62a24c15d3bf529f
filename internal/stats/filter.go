package stats

import (
	"fmt"
	"sort"
	"strings"

	"github.com/foxzi/statboard/internal/models"
)

// ColumnFilterSet maps a column key to a case-insensitive substring pattern.
// Blank patterns impose no constraint.
type ColumnFilterSet map[string]string

// ParseColumnFilters builds a set from "column=pattern" arguments
func ParseColumnFilters(specs []string) (ColumnFilterSet, error) {
	set := make(ColumnFilterSet, len(specs))
	for _, spec := range specs {
		key, pattern, ok := strings.Cut(spec, "=")
		if !ok {
			return nil, fmt.Errorf("invalid filter %q: expected column=pattern", spec)
		}
		key = strings.TrimSpace(key)
		if _, known := ColumnByKey(key); !known {
			return nil, fmt.Errorf("invalid filter %q: unknown column %q", spec, key)
		}
		set[key] = pattern
	}
	return set, nil
}

// Set replaces the pattern for key
func (s ColumnFilterSet) Set(key, pattern string) {
	s[key] = pattern
}

// Clear removes the pattern for key
func (s ColumnFilterSet) Clear(key string) {
	delete(s, key)
}

// Get returns the pattern for key
func (s ColumnFilterSet) Get(key string) string {
	return s[key]
}

// Active reports whether any pattern constrains rows
func (s ColumnFilterSet) Active() bool {
	for _, p := range s {
		if !blank(p) {
			return true
		}
	}
	return false
}

// Keys returns the constraining column keys in sorted order
func (s ColumnFilterSet) Keys() []string {
	keys := make([]string, 0, len(s))
	for k, p := range s {
		if !blank(p) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Filter keeps the rows whose value contains the pattern of every active
// column. Without active patterns the input slice is returned as is.
func Filter(rows []models.StatisticsRow, filters ColumnFilterSet) []models.StatisticsRow {
	if !filters.Active() {
		return rows
	}

	matchers := make([]matcher, 0, len(filters))
	for _, key := range filters.Keys() {
		col, known := ColumnByKey(key)
		matchers = append(matchers, matcher{col: col, known: known, pattern: strings.ToLower(filters[key])})
	}

	out := make([]models.StatisticsRow, 0, len(rows))
	for i := range rows {
		if matchesAll(&rows[i], matchers) {
			out = append(out, rows[i])
		}
	}
	return out
}

type matcher struct {
	col     Column
	known   bool
	pattern string
}

func matchesAll(row *models.StatisticsRow, matchers []matcher) bool {
	for _, m := range matchers {
		// a column the row does not have never matches
		if !m.known {
			return false
		}
		if !strings.Contains(strings.ToLower(m.col.Value(row)), m.pattern) {
			return false
		}
	}
	return true
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
