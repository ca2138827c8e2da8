package state

import (
	"sync"

	"github.com/charlesng35/sponsorpass/internal/models"
	"github.com/charlesng35/sponsorpass/internal/pagination"
)

// View is everything a renderer needs to draw the dashboard.
type View struct {
	Version         uint64               `json:"version"`
	Greeting        string               `json:"greeting"`
	Sponsors        []models.Sponsor     `json:"sponsors"`
	SponsorsLoading bool                 `json:"sponsorsLoading"`
	SelectedSponsor *models.Sponsor      `json:"selectedSponsor"`
	ShowRevoked     bool                 `json:"showRevoked"`
	Mode            Mode                 `json:"mode"`
	Passes          []models.SponsorPass `json:"passes"`
	PassesLoading   bool                 `json:"passesLoading"`
	Page            int                  `json:"page"`
	PageSize        int                  `json:"pageSize"`
	TotalPages      int                  `json:"totalPages"`
	TotalCount      int                  `json:"totalCount"`
	Pagination      []pagination.Control `json:"pagination"`
	IsCreating      bool                 `json:"isCreating"`
	IsRevoking      bool                 `json:"isRevoking"`
	RevokingID      *int64               `json:"revokingId"`
	ActionError     string               `json:"actionError,omitempty"`
	Banner          string               `json:"banner,omitempty"`
	EmptyMessage    string               `json:"emptyMessage,omitempty"`
	CanCreate       bool                 `json:"canCreate"`
}

// ViewStore holds the latest published View and fans it out to subscribers.
type ViewStore struct {
	mu      sync.Mutex
	current View
	subs    map[uint64]func(View)
	nextSub uint64
}

// NewViewStore builds a store holding initial.
func NewViewStore(initial View) *ViewStore {
	return &ViewStore{
		current: initial,
		subs:    make(map[uint64]func(View)),
	}
}

// Snapshot returns the latest published view.
func (s *ViewStore) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Publish stamps v with the next version, stores it and notifies subscribers synchronously.
// Subscribers must not block.
func (s *ViewStore) Publish(v View) View {
	s.mu.Lock()
	v.Version = s.current.Version + 1
	s.current = v
	subs := make([]func(View), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(v)
	}
	return v
}

// Subscribe registers fn for every future publish. The returned func unsubscribes and is safe
// to call more than once.
func (s *ViewStore) Subscribe(fn func(View)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSub++
	id := s.nextSub
	s.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// Subscribers returns the number of registered subscribers.
func (s *ViewStore) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}
