package dashboard

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/foxzi/statboard/internal/models"
	"github.com/foxzi/statboard/internal/stats"
)

const msgLoadStatistics = "Failed to load statistics data"

// StatisticsSource fetches what the statistics page needs
type StatisticsSource interface {
	Statistics(ctx context.Context) ([]models.StatisticsRow, error)
	PendingUsers(ctx context.Context) ([]models.Identity, error)
}

// StatisticsState is a copy of the statistics view state
type StatisticsState struct {
	Loading bool
	Rows    []models.StatisticsRow
	// PendingCount is the number of accounts awaiting approval. It stays 0
	// for sessions that may not list them.
	PendingCount int
	Err          *Error
}

// StatisticsView loads statistics rows and derives filtered rows and KPIs
type StatisticsView struct {
	src       StatisticsSource
	campaigns *stats.CampaignData
	logger    *slog.Logger
	live      *Liveness

	mu    sync.RWMutex
	state StatisticsState
}

// NewStatisticsView creates a mounted view. campaigns may be nil.
func NewStatisticsView(src StatisticsSource, campaigns *stats.CampaignData, logger *slog.Logger) *StatisticsView {
	if campaigns == nil {
		campaigns = &stats.CampaignData{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StatisticsView{
		src:       src,
		campaigns: campaigns,
		logger:    logger,
		live:      &Liveness{},
		state:     StatisticsState{Loading: true},
	}
}

// Liveness returns the token guarding state writes of v
func (v *StatisticsView) Liveness() *Liveness {
	return v.live
}

// Unmount discards the results of any load still in flight
func (v *StatisticsView) Unmount() {
	v.live.End()
}

// Load fetches statistics and pending users concurrently. A pending-users
// failure degrades to an empty list; a statistics failure is returned and
// recorded in the state.
func (v *StatisticsView) Load(ctx context.Context) error {
	if !v.apply(func(s *StatisticsState) {
		s.Loading = true
		s.Err = nil
	}) {
		return ErrUnmounted
	}

	var (
		rows    []models.StatisticsRow
		pending []models.Identity
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := v.src.Statistics(gctx)
		if err != nil {
			return err
		}
		rows = r
		return nil
	})
	g.Go(func() error {
		p, err := v.src.PendingUsers(gctx)
		if err != nil {
			v.logger.Debug("pending users unavailable", "error", err)
			return nil
		}
		pending = p
		return nil
	})

	err := g.Wait()

	var loadErr *Error
	if err != nil {
		v.logger.Error("failed to load statistics data", "error", err)
		loadErr = &Error{Message: msgLoadStatistics, Err: err}
	}

	if !v.apply(func(s *StatisticsState) {
		s.Loading = false
		s.Err = loadErr
		if loadErr != nil {
			return
		}
		s.Rows = rows
		s.PendingCount = countPending(pending)
	}) {
		v.logger.Debug("discarding statistics load after unmount")
		return ErrUnmounted
	}

	if loadErr != nil {
		return loadErr
	}
	return nil
}

// apply runs fn on the state unless the view has been unmounted
func (v *StatisticsView) apply(fn func(*StatisticsState)) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.live.Alive() {
		return false
	}
	fn(&v.state)
	return true
}

// State returns a copy of the current state
func (v *StatisticsView) State() StatisticsState {
	v.mu.RLock()
	defer v.mu.RUnlock()
	s := v.state
	s.Rows = append([]models.StatisticsRow(nil), v.state.Rows...)
	return s
}

// Filtered returns the loaded rows passing filters
func (v *StatisticsView) Filtered(filters stats.ColumnFilterSet) []models.StatisticsRow {
	return stats.Filter(v.State().Rows, filters)
}

// KPIs aggregates the campaign metrics passing sel
func (v *StatisticsView) KPIs(sel stats.Selection) stats.KPISet {
	return stats.Aggregate(v.campaigns.Metrics, sel)
}

// Campaigns returns the campaign catalog
func (v *StatisticsView) Campaigns() []models.Campaign {
	return v.campaigns.Campaigns
}

func countPending(users []models.Identity) int {
	n := 0
	for i := range users {
		if users[i].IsPending() {
			n++
		}
	}
	return n
}
