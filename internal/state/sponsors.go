package state

import (
	"context"
	"errors"
	"sync"

	"github.com/sahilm/fuzzy"
	"go.uber.org/zap"

	"github.com/charlesng35/sponsorpass/internal/models"
	"github.com/charlesng35/sponsorpass/pkg/logger"
)

// DefaultSponsorFetchLimit is the page size used to load the sponsor directory.
const DefaultSponsorFetchLimit = 50

// ErrSponsorNotFound is returned when selecting a sponsor id that is not in the loaded list.
var ErrSponsorNotFound = errors.New("sponsor not found")

// SponsorSource lists sponsors.
type SponsorSource interface {
	ListSponsors(ctx context.Context, params models.ListParams) (models.Page[models.Sponsor], error)
}

// SponsorState is a point-in-time copy of the sponsor directory.
type SponsorState struct {
	Sponsors []models.Sponsor
	Selected *models.Sponsor
	Loading  bool
	Loaded   bool
	Error    error
}

// SponsorStore holds the sponsor directory and the current selection.
type SponsorStore struct {
	source SponsorSource
	limit  int
	log    *zap.Logger

	mu       sync.Mutex
	sponsors []models.Sponsor
	selected *models.Sponsor
	loading  bool
	loaded   bool
	loadErr  error

	onChange func()
	onSelect func(ctx context.Context, sponsor *models.Sponsor)
}

// NewSponsorStore builds a store that starts in the loading state.
func NewSponsorStore(source SponsorSource, fetchLimit int) *SponsorStore {
	if fetchLimit <= 0 {
		fetchLimit = DefaultSponsorFetchLimit
	}
	return &SponsorStore{
		source:  source,
		limit:   fetchLimit,
		log:     logger.WithModule("sponsors"),
		loading: true,
	}
}

// OnChange registers the callback invoked after any state change.
func (s *SponsorStore) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// OnSelect registers the callback invoked after the selection changes. A nil sponsor means the
// selection was cleared.
func (s *SponsorStore) OnSelect(fn func(ctx context.Context, sponsor *models.Sponsor)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSelect = fn
}

// Load fetches the sponsor directory once. When nothing is selected by the time the response
// arrives, the first sponsor becomes the default selection. Failures are logged, leave the list
// empty and are returned; there is no retry.
func (s *SponsorStore) Load(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.sponsors = nil
	s.loadErr = nil
	s.mu.Unlock()
	s.changed()

	page, err := s.source.ListSponsors(ctx, models.ListParams{Limit: s.limit, Offset: 0})

	s.mu.Lock()
	s.loading = false
	s.loaded = true
	if err != nil {
		s.loadErr = err
		s.mu.Unlock()
		s.log.Error("failed to fetch sponsors", zap.Error(err))
		s.changed()
		return err
	}

	s.sponsors = append([]models.Sponsor(nil), page.Results...)
	var picked *models.Sponsor
	if s.selected == nil && len(s.sponsors) > 0 {
		first := s.sponsors[0]
		s.selected = &first
		picked = &first
	}
	count := len(s.sponsors)
	s.mu.Unlock()

	s.log.Info("sponsors loaded", zap.Int("count", count))
	s.changed()
	if picked != nil {
		s.selectedChanged(ctx, picked)
	}
	return nil
}

// Select overwrites the current selection unconditionally.
func (s *SponsorStore) Select(ctx context.Context, sponsor models.Sponsor) {
	s.mu.Lock()
	chosen := sponsor
	s.selected = &chosen
	s.mu.Unlock()

	s.log.Debug("sponsor selected", logger.SponsorID(sponsor.ID))
	s.changed()
	s.selectedChanged(ctx, &chosen)
}

// SelectByID selects the loaded sponsor with the given id.
func (s *SponsorStore) SelectByID(ctx context.Context, id int64) error {
	sponsor, ok := s.Lookup(id)
	if !ok {
		return ErrSponsorNotFound
	}
	s.Select(ctx, sponsor)
	return nil
}

// Clear removes the selection.
func (s *SponsorStore) Clear(ctx context.Context) {
	s.mu.Lock()
	s.selected = nil
	s.mu.Unlock()

	s.changed()
	s.selectedChanged(ctx, nil)
}

// Lookup finds a loaded sponsor by id.
func (s *SponsorStore) Lookup(id int64) (models.Sponsor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sponsor := range s.sponsors {
		if sponsor.ID == id {
			return sponsor, true
		}
	}
	return models.Sponsor{}, false
}

// Selected returns a copy of the selected sponsor, or nil.
func (s *SponsorStore) Selected() *models.Sponsor {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return nil
	}
	cpy := *s.selected
	return &cpy
}

// ClearError forgets the last load failure.
func (s *SponsorStore) ClearError() {
	s.mu.Lock()
	s.loadErr = nil
	s.mu.Unlock()
	s.changed()
}

// Snapshot copies the current state.
func (s *SponsorStore) Snapshot() SponsorState {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := SponsorState{
		Sponsors: append([]models.Sponsor{}, s.sponsors...),
		Loading:  s.loading,
		Loaded:   s.loaded,
		Error:    s.loadErr,
	}
	if s.selected != nil {
		cpy := *s.selected
		st.Selected = &cpy
	}
	return st
}

// Search fuzzy-matches sponsor names, best match first. An empty query returns the directory in
// service order.
func (s *SponsorStore) Search(query string) []models.Sponsor {
	sponsors := s.Snapshot().Sponsors
	if query == "" {
		return sponsors
	}

	matches := fuzzy.FindFrom(query, sponsorNames(sponsors))
	out := make([]models.Sponsor, 0, len(matches))
	for _, match := range matches {
		out = append(out, sponsors[match.Index])
	}
	return out
}

func (s *SponsorStore) changed() {
	s.mu.Lock()
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (s *SponsorStore) selectedChanged(ctx context.Context, sponsor *models.Sponsor) {
	s.mu.Lock()
	fn := s.onSelect
	s.mu.Unlock()
	if fn != nil {
		fn(ctx, sponsor)
	}
}

// sponsorNames adapts a sponsor list to fuzzy.Source.
type sponsorNames []models.Sponsor

func (n sponsorNames) String(i int) string { return n[i].Name }

func (n sponsorNames) Len() int { return len(n) }
