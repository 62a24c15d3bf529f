package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/foxzi/statboard/internal/access"
	"github.com/foxzi/statboard/internal/backend"
	"github.com/foxzi/statboard/internal/dashboard"
	"github.com/foxzi/statboard/internal/models"
	"github.com/foxzi/statboard/internal/stats"
)

// filterParam prefixes the query keys carrying column filters, e.g. filter.country=us
const filterParam = "filter."

type dashboardData struct {
	Campaigns []campaignChip
	Selected  []string
	Cards     []stats.Card
	Columns   []columnHeader
	Rows      []stats.RowView
	Total     int
	ClearHref string
}

type campaignChip struct {
	ID       string
	Name     string
	Selected bool
	Href     string
}

type columnHeader struct {
	Key        string
	Title      string
	Filterable bool
	Pattern    string
}

// Dashboard renders KPIs and the filtered statistics table
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s := current(r)

	view := dashboard.NewStatisticsView(s.Gateway, h.campaigns, h.logger)
	stop := dashboard.Guard(view.Liveness(), access.Default, s.Manager, access.RequireUser)
	defer stop()
	defer view.Unmount()

	loadErr := view.Load(ctx)
	if errors.Is(loadErr, dashboard.ErrUnmounted) {
		h.redirectByGate(w, r, access.RequireUser)
		return
	}
	if loadErr != nil && backend.IsAuth(loadErr) {
		// An expired token ends the session; the gate then sends the visitor to sign in
		if err := s.Manager.RefreshProfile(ctx); err != nil {
			h.redirectByGate(w, r, access.RequireUser)
			return
		}
	}

	query := r.URL.Query()
	filters := filtersFromQuery(query)
	selection := stats.NewSelection(query["campaign"]...)

	state := view.State()
	data := dashboardData{
		Campaigns: h.campaignChips(selection, filters),
		Selected:  selection.IDs(),
		Cards:     h.format.KPICards(view.KPIs(selection)),
		Columns:   columnHeaders(filters),
		Rows:      h.format.Table(stats.Filter(state.Rows, filters)),
		Total:     len(state.Rows),
		ClearHref: dashboardHref(selection, nil),
	}

	p := h.newPage(r, "Statistics", "dashboard", data)
	p.PendingCount = state.PendingCount
	if state.Err != nil {
		p.Error = state.Err.Message
	}
	h.render(w, http.StatusOK, "dashboard", p)
}

func (h *Handlers) redirectByGate(w http.ResponseWriter, r *http.Request, req access.Requirement) {
	d := access.Evaluate(current(r).Manager.Snapshot(), req)
	location := d.Location
	if location == "" {
		location = r.URL.RequestURI()
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}

func (h *Handlers) campaignChips(sel stats.Selection, filters stats.ColumnFilterSet) []campaignChip {
	chips := make([]campaignChip, 0, len(h.campaigns.Campaigns))
	for _, c := range h.campaigns.Campaigns {
		toggled := stats.NewSelection(sel.IDs()...)
		toggled.Toggle(c.ID)
		chips = append(chips, campaignChip{
			ID:       c.ID,
			Name:     campaignLabel(c),
			Selected: sel.Contains(c.ID),
			Href:     dashboardHref(toggled, filters),
		})
	}
	return chips
}

func campaignLabel(c models.Campaign) string {
	if c.Name != "" {
		return c.Name
	}
	return c.ID
}

func columnHeaders(filters stats.ColumnFilterSet) []columnHeader {
	headers := make([]columnHeader, 0, len(stats.Columns))
	for _, c := range stats.Columns {
		headers = append(headers, columnHeader{
			Key:        c.Key,
			Title:      c.Title,
			Filterable: c.Filterable,
			Pattern:    filters.Get(c.Key),
		})
	}
	return headers
}

// filtersFromQuery reads filter.<column> parameters. Unknown columns are kept
// so they match nothing, as a filter on a missing field would.
func filtersFromQuery(q url.Values) stats.ColumnFilterSet {
	filters := stats.ColumnFilterSet{}
	for key, values := range q {
		col, ok := strings.CutPrefix(key, filterParam)
		if !ok || col == "" || len(values) == 0 {
			continue
		}
		filters.Set(col, values[0])
	}
	return filters
}

func dashboardHref(sel stats.Selection, filters stats.ColumnFilterSet) string {
	q := url.Values{}
	for _, id := range sel.IDs() {
		q.Add("campaign", id)
	}
	for _, key := range filters.Keys() {
		q.Set(filterParam+key, filters.Get(key))
	}
	if len(q) == 0 {
		return "/dashboard"
	}
	return "/dashboard?" + q.Encode()
}
