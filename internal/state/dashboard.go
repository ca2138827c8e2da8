// Package state holds the dashboard state: the sponsor directory, the pass query for the
// selected sponsor, the create/revoke gateway and the published view that renderers consume.
package state

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/charlesng35/sponsorpass/internal/forms"
	"github.com/charlesng35/sponsorpass/internal/models"
	"github.com/charlesng35/sponsorpass/internal/pagination"
	"github.com/charlesng35/sponsorpass/internal/partnerships"
	apperrors "github.com/charlesng35/sponsorpass/pkg/errors"
	"github.com/charlesng35/sponsorpass/pkg/logger"
	"github.com/charlesng35/sponsorpass/pkg/metrics"
)

const (
	// NoSponsorsMessage is shown when the operator has no sponsors.
	NoSponsorsMessage = "No sponsors found for your account yet."

	noSelectionMessage = "Select a sponsor to view passes."
	noPassesMessage    = "No passes found for this sponsor."
	sponsorsFailed     = "Failed to load sponsors"
	passesFailed       = "Failed to load passes"
)

// Options configures a Dashboard. Zero values fall back to the mode defaults.
type Options struct {
	Mode              Mode
	PageSize          int
	PassFetchLimit    int
	SponsorFetchLimit int
}

// Dashboard wires the components together and publishes a View after every change.
type Dashboard struct {
	service  partnerships.Service
	sponsors *SponsorStore
	passes   *PassQuery
	actions  *PassActions
	views    *ViewStore
	log      *zap.Logger

	// publishMu keeps composed views in publish order.
	publishMu sync.Mutex

	mu     sync.Mutex
	user   *models.User
	banner string
}

// NewDashboard builds a dashboard backed by service. Nothing is fetched until Init.
func NewDashboard(service partnerships.Service, opts Options) *Dashboard {
	d := &Dashboard{
		service:  service,
		sponsors: NewSponsorStore(service, opts.SponsorFetchLimit),
		passes:   NewPassQuery(NewStrategy(opts.Mode, service, opts.PageSize, opts.PassFetchLimit)),
		log:      logger.WithModule("dashboard"),
	}
	d.actions = NewPassActions(service, d.passes.Refetch)
	d.views = NewViewStore(d.compose())

	d.sponsors.OnSelect(func(ctx context.Context, sponsor *models.Sponsor) {
		if sponsor == nil {
			d.passes.SetSponsor(ctx, nil)
			return
		}
		id := sponsor.ID
		d.passes.SetSponsor(ctx, &id)
	})
	d.sponsors.OnChange(d.publish)
	d.passes.OnChange(d.publish)
	d.actions.OnChange(d.publish)
	return d
}

// Init loads the operator details and the sponsor directory concurrently. The first sponsor is
// selected by default, which triggers the first pass fetch. A failed user lookup only costs the
// greeting.
func (d *Dashboard) Init(ctx context.Context) error {
	var g errgroup.Group

	g.Go(func() error {
		user, err := d.service.CurrentUser(ctx)
		if err != nil {
			d.log.Warn("failed to fetch current user", zap.Error(err))
			return nil
		}
		d.mu.Lock()
		d.user = &user
		d.mu.Unlock()
		d.publish()
		return nil
	})
	g.Go(func() error {
		if err := d.sponsors.Load(ctx); err != nil {
			return fmt.Errorf("load sponsors: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	if len(d.sponsors.Snapshot().Sponsors) == 0 {
		d.mu.Lock()
		d.banner = NoSponsorsMessage
		d.mu.Unlock()
		d.publish()
	}
	return nil
}

// SelectSponsor selects a loaded sponsor by id.
func (d *Dashboard) SelectSponsor(ctx context.Context, id int64) error {
	if err := d.sponsors.SelectByID(ctx, id); err != nil {
		return apperrors.ErrNotFound.WithMessage("Sponsor not found").WithInternal(err)
	}
	return nil
}

// ClearSponsor removes the selection and empties the pass list.
func (d *Dashboard) ClearSponsor(ctx context.Context) {
	d.sponsors.Clear(ctx)
}

// SetShowRevoked toggles revoked pass visibility.
func (d *Dashboard) SetShowRevoked(ctx context.Context, show bool) {
	d.passes.SetShowRevoked(ctx, show)
}

// SetPage moves to page, rejecting pages outside [1, max(1, totalPages)].
func (d *Dashboard) SetPage(ctx context.Context, page int) error {
	total := d.passes.Snapshot().TotalPages
	if !pagination.InRange(page, total) {
		return apperrors.ErrPageOutOfRange.WithInternal(fmt.Errorf("page %d outside [1, %d]", page, max(1, total)))
	}
	d.passes.SetPage(ctx, page)
	return nil
}

// Refresh refetches the current pass query.
func (d *Dashboard) Refresh(ctx context.Context) {
	d.passes.Refetch(ctx)
}

// CreatePass validates form and issues a pass for the selected sponsor. Invalid input returns a
// *forms.ValidationError without any network call.
func (d *Dashboard) CreatePass(ctx context.Context, form forms.CreatePassForm) (models.SponsorPass, error) {
	form = form.Normalize()
	if err := form.Validate(); err != nil {
		metrics.PassActions.WithLabelValues("create", "invalid").Inc()
		return models.SponsorPass{}, err
	}

	sponsor := d.sponsors.Selected()
	if sponsor == nil {
		metrics.PassActions.WithLabelValues("create", "invalid").Inc()
		return models.SponsorPass{}, apperrors.ErrNoSponsorSelected
	}

	req, err := form.ToRequest(sponsor.ID)
	if err != nil {
		return models.SponsorPass{}, err
	}
	return d.actions.CreatePass(ctx, req)
}

// RevokePass revokes a pass shown on the current page.
func (d *Dashboard) RevokePass(ctx context.Context, id int64) (models.SponsorPass, error) {
	pass, ok := d.passes.Find(id)
	if !ok {
		return models.SponsorPass{}, apperrors.ErrNotFound.WithMessage("Pass is not on the current page")
	}
	if pass.IsRevoked() {
		return models.SponsorPass{}, apperrors.NewBadRequest("Pass is already revoked")
	}
	return d.actions.RevokePass(ctx, pass)
}

// ClearError dismisses the action error.
func (d *Dashboard) ClearError() {
	d.actions.ClearError()
}

// DismissBanner clears the banner and the fetch errors behind it.
func (d *Dashboard) DismissBanner() {
	d.mu.Lock()
	d.banner = ""
	d.mu.Unlock()
	d.sponsors.ClearError()
	d.passes.ClearError()
}

// SearchSponsors fuzzy-matches loaded sponsors by name.
func (d *Dashboard) SearchSponsors(query string) []models.Sponsor {
	return d.sponsors.Search(query)
}

// View returns the latest published view.
func (d *Dashboard) View() View {
	return d.views.Snapshot()
}

// Subscribe registers fn for every published view. fn runs synchronously and must neither block
// nor call back into the dashboard.
func (d *Dashboard) Subscribe(fn func(View)) (unsubscribe func()) {
	return d.views.Subscribe(fn)
}

func (d *Dashboard) publish() {
	d.publishMu.Lock()
	defer d.publishMu.Unlock()
	d.views.Publish(d.compose())
}

func (d *Dashboard) compose() View {
	sp := d.sponsors.Snapshot()
	pq := d.passes.Snapshot()
	ac := d.actions.Snapshot()

	d.mu.Lock()
	greeting := models.User{}.Greeting()
	if d.user != nil {
		greeting = d.user.Greeting()
	}
	banner := d.banner
	d.mu.Unlock()

	switch {
	case pq.Error != nil:
		banner = apperrors.DisplayMessage(pq.Error, passesFailed)
	case sp.Error != nil:
		banner = apperrors.DisplayMessage(sp.Error, sponsorsFailed)
	}

	v := View{
		Greeting:        greeting,
		Sponsors:        sp.Sponsors,
		SponsorsLoading: sp.Loading,
		SelectedSponsor: sp.Selected,
		ShowRevoked:     pq.ShowRevoked,
		Mode:            pq.Mode,
		Passes:          pq.Passes,
		PassesLoading:   pq.Loading,
		Page:            pq.Page,
		PageSize:        pq.PageSize,
		TotalPages:      pq.TotalPages,
		TotalCount:      pq.Total,
		Pagination:      pagination.Controls(pq.Page, pq.TotalPages),
		IsCreating:      ac.IsCreating,
		IsRevoking:      ac.IsRevoking,
		RevokingID:      ac.RevokingID,
		ActionError:     ac.Error,
		Banner:          banner,
		CanCreate:       sp.Selected != nil && !ac.IsCreating,
	}
	switch {
	case sp.Selected == nil:
		v.EmptyMessage = noSelectionMessage
	case len(pq.Passes) == 0 && !pq.Loading:
		v.EmptyMessage = noPassesMessage
	}
	return v
}
