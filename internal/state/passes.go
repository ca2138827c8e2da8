package state

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/charlesng35/sponsorpass/internal/models"
	"github.com/charlesng35/sponsorpass/internal/pagination"
	"github.com/charlesng35/sponsorpass/pkg/logger"
	"github.com/charlesng35/sponsorpass/pkg/metrics"
)

// PassView is a point-in-time copy of the pass query.
type PassView struct {
	Mode        Mode
	SponsorID   *int64
	ShowRevoked bool
	Page        int
	PageSize    int
	TotalPages  int
	Total       int
	// Passes holds only the visible page.
	Passes  []models.SponsorPass
	Loading bool
	Error   error
}

// PassQuery tracks the pass list for the selected sponsor. Every fetch is tagged with the query
// key and a dispatch sequence; a response is applied only while its key is still current and no
// later dispatch has been applied.
type PassQuery struct {
	strategy Strategy
	log      *zap.Logger

	mu       sync.Mutex
	key      models.QueryKey
	passes   []models.SponsorPass
	total    int
	loading  bool
	fetchErr error
	seq      uint64
	applied  uint64

	onChange func()
}

// NewPassQuery builds an idle query on page 1 with no sponsor selected.
func NewPassQuery(strategy Strategy) *PassQuery {
	return &PassQuery{
		strategy: strategy,
		log:      logger.WithModule("passes"),
		key:      models.QueryKey{Page: 1},
	}
}

// OnChange registers the callback invoked after any state change.
func (q *PassQuery) OnChange(fn func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.onChange = fn
}

// SetSponsor switches the sponsor and resets to page 1. A nil id empties the list immediately
// and issues no fetch.
func (q *PassQuery) SetSponsor(ctx context.Context, id *int64) {
	q.mu.Lock()
	q.key = q.key.WithSponsor(id)
	q.mu.Unlock()
	q.run(ctx)
}

// SetShowRevoked changes revoked visibility and resets to page 1.
func (q *PassQuery) SetShowRevoked(ctx context.Context, show bool) {
	q.mu.Lock()
	q.key = q.key.WithShowRevoked(show)
	q.mu.Unlock()
	q.run(ctx)
}

// SetPage moves to page. Bounds are the caller's concern.
func (q *PassQuery) SetPage(ctx context.Context, page int) {
	q.mu.Lock()
	q.key = q.key.WithPage(page)
	local := q.strategy.PagesLocally()
	q.mu.Unlock()

	if local {
		q.changed()
		return
	}
	q.run(ctx)
}

// Refetch repeats the fetch for the current key.
func (q *PassQuery) Refetch(ctx context.Context) {
	q.run(ctx)
}

// Key returns the current query key.
func (q *PassQuery) Key() models.QueryKey {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.key
}

// Find looks up a pass on the visible page.
func (q *PassQuery) Find(id int64) (models.SponsorPass, bool) {
	for _, p := range q.Snapshot().Passes {
		if p.ID == id {
			return p, true
		}
	}
	return models.SponsorPass{}, false
}

// ClearError forgets the last fetch failure.
func (q *PassQuery) ClearError() {
	q.mu.Lock()
	q.fetchErr = nil
	q.mu.Unlock()
	q.changed()
}

// Snapshot copies the current state.
func (q *PassQuery) Snapshot() PassView {
	q.mu.Lock()
	defer q.mu.Unlock()

	size := q.strategy.PageSize()
	v := PassView{
		Mode:        q.strategy.Mode(),
		ShowRevoked: q.key.ShowRevoked,
		Page:        q.key.Page,
		PageSize:    size,
		Total:       q.total,
		TotalPages:  pagination.TotalPages(q.total, size),
		Loading:     q.loading,
		Error:       q.fetchErr,
	}
	if q.key.SponsorID != nil {
		id := *q.key.SponsorID
		v.SponsorID = &id
	}
	if q.strategy.PagesLocally() {
		v.Passes = pagination.Slice(q.passes, q.key.Page, size)
	} else {
		v.Passes = append([]models.SponsorPass{}, q.passes...)
	}
	return v
}

func (q *PassQuery) run(ctx context.Context) {
	q.mu.Lock()
	q.seq++
	if !q.key.HasSponsor() {
		q.passes = nil
		q.total = 0
		q.loading = false
		q.fetchErr = nil
		q.mu.Unlock()
		q.changed()
		return
	}
	seq, key := q.seq, q.key
	q.loading = true
	q.mu.Unlock()
	q.changed()

	// Fetches outlive the caller; only the client timeout bounds them.
	result, err := q.strategy.Fetch(context.WithoutCancel(ctx), key)

	q.mu.Lock()
	if seq == q.seq {
		q.loading = false
	}
	if errors.Is(err, context.Canceled) {
		q.mu.Unlock()
		q.log.Debug("discarded cancelled pass response", logger.SponsorID(*key.SponsorID), zap.Int("page", key.Page))
		q.changed()
		return
	}
	if !q.sameQuery(key) || seq < q.applied {
		q.mu.Unlock()
		metrics.StaleResponses.Inc()
		q.log.Debug("discarded stale pass response", logger.SponsorID(*key.SponsorID), zap.Int("page", key.Page))
		q.changed()
		return
	}
	q.applied = seq
	if err != nil {
		q.passes = nil
		q.total = 0
		q.fetchErr = err
		q.mu.Unlock()
		q.log.Error("failed to fetch passes", logger.SponsorID(*key.SponsorID), zap.Error(err))
		q.changed()
		return
	}
	q.passes = result.Passes
	q.total = result.Total
	q.fetchErr = nil
	q.mu.Unlock()
	q.changed()
}

// sameQuery reports whether a response for key still answers the current query. Local paging
// shares one response across all pages.
func (q *PassQuery) sameQuery(key models.QueryKey) bool {
	if q.strategy.PagesLocally() {
		return q.key.WithPage(1).Equal(key.WithPage(1))
	}
	return q.key.Equal(key)
}

func (q *PassQuery) changed() {
	q.mu.Lock()
	fn := q.onChange
	q.mu.Unlock()
	if fn != nil {
		fn()
	}
}
