package state

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/sponsorpass/internal/forms"
	"github.com/charlesng35/sponsorpass/internal/models"
	"github.com/charlesng35/sponsorpass/internal/partnerships/partnershipstest"
	apperrors "github.com/charlesng35/sponsorpass/pkg/errors"
)

func newDashboard(t *testing.T, opts Options) (*Dashboard, *partnershipstest.Fake) {
	t.Helper()
	fake := partnershipstest.NewFake().
		SetSponsors(partnershipstest.Sponsor(1, "Acme Corp"), partnershipstest.Sponsor(2, "Globex")).
		SetUser(models.User{ID: 5, Username: "jdoe", FirstName: "Jane"})
	seedPasses(fake, 1, 12, 1)
	seedPasses(fake, 2, 2, 0)
	return NewDashboard(fake, opts), fake
}

func validForm() forms.CreatePassForm {
	return forms.CreatePassForm{FirstName: " Ada ", LastName: "Lovelace", Email: "ada@example.com"}
}

func TestDashboardInit(t *testing.T) {
	d, _ := newDashboard(t, Options{})

	initial := d.View()
	require.True(t, initial.SponsorsLoading)
	require.Equal(t, "Sponsor", initial.Greeting)

	var (
		mu       sync.Mutex
		versions []uint64
	)
	unsubscribe := d.Subscribe(func(v View) {
		mu.Lock()
		versions = append(versions, v.Version)
		mu.Unlock()
	})
	defer unsubscribe()

	require.NoError(t, d.Init(context.Background()))

	v := d.View()
	require.Equal(t, "Jane", v.Greeting)
	require.False(t, v.SponsorsLoading)
	require.Len(t, v.Sponsors, 2)
	require.Equal(t, int64(1), v.SelectedSponsor.ID)
	require.Equal(t, 12, v.TotalCount)
	require.Equal(t, 2, v.TotalPages)
	require.Len(t, v.Passes, 10)
	require.NotEmpty(t, v.Pagination)
	require.True(t, v.CanCreate)
	require.Empty(t, v.Banner)
	require.Empty(t, v.EmptyMessage)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, versions)
	for i := 1; i < len(versions); i++ {
		require.Greater(t, versions[i], versions[i-1])
	}
	require.Equal(t, v.Version, versions[len(versions)-1])
}

func TestDashboardInitWithoutSponsors(t *testing.T) {
	fake := partnershipstest.NewFake()
	d := NewDashboard(fake, Options{})

	require.NoError(t, d.Init(context.Background()))
	v := d.View()
	require.Equal(t, NoSponsorsMessage, v.Banner)
	require.Nil(t, v.SelectedSponsor)
	require.Equal(t, noSelectionMessage, v.EmptyMessage)
	require.False(t, v.CanCreate)
	require.Empty(t, fake.Calls(partnershipstest.OpListAllPasses))

	d.DismissBanner()
	require.Empty(t, d.View().Banner)
}

func TestDashboardInitSponsorFailure(t *testing.T) {
	d, fake := newDashboard(t, Options{})
	fake.FailWith(partnershipstest.OpListSponsors, partnershipstest.ErrUnavailable)

	err := d.Init(context.Background())
	require.ErrorIs(t, err, partnershipstest.ErrUnavailable)

	v := d.View()
	require.Equal(t, partnershipstest.ErrUnavailable.Error(), v.Banner)
	require.False(t, v.SponsorsLoading)
	require.Empty(t, v.Sponsors)

	d.DismissBanner()
	require.Empty(t, d.View().Banner)
}

func TestDashboardUserFailureKeepsDefaultGreeting(t *testing.T) {
	d, fake := newDashboard(t, Options{})
	fake.FailWith(partnershipstest.OpCurrentUser, partnershipstest.ErrUnavailable)

	require.NoError(t, d.Init(context.Background()))
	require.Equal(t, "Sponsor", d.View().Greeting)
}

func TestDashboardSetPage(t *testing.T) {
	d, _ := newDashboard(t, Options{})
	ctx := context.Background()
	require.NoError(t, d.Init(ctx))

	require.NoError(t, d.SetPage(ctx, 2))
	require.Equal(t, 2, d.View().Page)
	require.Len(t, d.View().Passes, 2)

	for _, page := range []int{0, 3, -1} {
		err := d.SetPage(ctx, page)
		require.ErrorIs(t, err, apperrors.ErrPageOutOfRange)
	}
	require.Equal(t, 2, d.View().Page)
}

func TestDashboardRefreshWithCancelledRequest(t *testing.T) {
	d, fake := newDashboard(t, Options{})
	require.NoError(t, d.Init(context.Background()))
	require.Len(t, d.View().Passes, 10)

	fake.OnCall(partnershipstest.OpListAllPasses, func(ctx context.Context, _ partnershipstest.Call) error {
		return ctx.Err()
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Refresh(ctx)

	v := d.View()
	require.Empty(t, v.Banner)
	require.Len(t, v.Passes, 10)
	require.Equal(t, 12, v.TotalCount)
}

func TestDashboardSelectSponsor(t *testing.T) {
	d, fake := newDashboard(t, Options{})
	ctx := context.Background()
	require.NoError(t, d.Init(ctx))
	require.NoError(t, d.SetPage(ctx, 2))

	require.NoError(t, d.SelectSponsor(ctx, 2))
	v := d.View()
	require.Equal(t, int64(2), v.SelectedSponsor.ID)
	require.Equal(t, 1, v.Page)
	require.Len(t, v.Passes, 2)

	err := d.SelectSponsor(ctx, 42)
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	calls := len(fake.Calls(partnershipstest.OpListAllPasses))
	d.ClearSponsor(ctx)
	v = d.View()
	require.Nil(t, v.SelectedSponsor)
	require.Empty(t, v.Passes)
	require.Len(t, fake.Calls(partnershipstest.OpListAllPasses), calls)
}

func TestDashboardCreatePass(t *testing.T) {
	d, fake := newDashboard(t, Options{})
	ctx := context.Background()
	require.NoError(t, d.Init(ctx))
	fetches := len(fake.Calls(partnershipstest.OpListAllPasses))

	pass, err := d.CreatePass(ctx, validForm())
	require.NoError(t, err)
	require.Equal(t, "Ada", pass.FirstName)
	require.Equal(t, int64(1), pass.Sponsor)
	require.Nil(t, pass.ExpiresAt)

	require.Len(t, fake.Calls(partnershipstest.OpListAllPasses), fetches+1)
	v := d.View()
	require.Equal(t, 13, v.TotalCount)
	require.False(t, v.IsCreating)
	require.Empty(t, v.ActionError)
}

func TestDashboardCreatePassValidation(t *testing.T) {
	d, fake := newDashboard(t, Options{})
	ctx := context.Background()
	require.NoError(t, d.Init(ctx))

	_, err := d.CreatePass(ctx, forms.CreatePassForm{FirstName: "", LastName: "Doe", Email: "nope"})
	var invalid *forms.ValidationError
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, "First name is required", invalid.ByField()["firstName"])
	require.Equal(t, "Please enter a valid email address", invalid.ByField()["email"])
	require.Empty(t, fake.Calls(partnershipstest.OpCreatePass))
}

func TestDashboardCreatePassRequiresSponsor(t *testing.T) {
	d, fake := newDashboard(t, Options{})
	ctx := context.Background()
	require.NoError(t, d.Init(ctx))
	d.ClearSponsor(ctx)

	_, err := d.CreatePass(ctx, validForm())
	require.ErrorIs(t, err, apperrors.ErrNoSponsorSelected)
	require.Empty(t, fake.Calls(partnershipstest.OpCreatePass))
}

func TestDashboardCreatePassFailureSurfacesActionError(t *testing.T) {
	d, fake := newDashboard(t, Options{})
	ctx := context.Background()
	require.NoError(t, d.Init(ctx))
	fake.FailWith(partnershipstest.OpCreatePass, partnershipstest.ErrUnavailable)

	_, err := d.CreatePass(ctx, validForm())
	require.Error(t, err)
	require.Equal(t, partnershipstest.ErrUnavailable.Error(), d.View().ActionError)

	d.ClearError()
	require.Empty(t, d.View().ActionError)
}

func TestDashboardRevokePass(t *testing.T) {
	d, _ := newDashboard(t, Options{})
	ctx := context.Background()
	require.NoError(t, d.Init(ctx))

	target := d.View().Passes[0]
	revoked, err := d.RevokePass(ctx, target.ID)
	require.NoError(t, err)
	require.True(t, revoked.IsRevoked())

	v := d.View()
	require.Equal(t, 11, v.TotalCount)
	require.False(t, v.IsRevoking)
	for _, p := range v.Passes {
		require.NotEqual(t, target.ID, p.ID)
	}

	_, err = d.RevokePass(ctx, 9999)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestDashboardShowRevoked(t *testing.T) {
	d, _ := newDashboard(t, Options{})
	ctx := context.Background()
	require.NoError(t, d.Init(ctx))
	require.NoError(t, d.SetPage(ctx, 2))

	d.SetShowRevoked(ctx, true)
	v := d.View()
	require.True(t, v.ShowRevoked)
	require.Equal(t, 1, v.Page)
	require.Equal(t, 13, v.TotalCount)

	require.NoError(t, d.SetPage(ctx, 2))
	_, err := d.RevokePass(ctx, 13)
	require.ErrorIs(t, err, apperrors.ErrBadRequest)
}

func TestDashboardPagedMode(t *testing.T) {
	d, fake := newDashboard(t, Options{Mode: ModePaged})
	ctx := context.Background()
	require.NoError(t, d.Init(ctx))

	v := d.View()
	require.Equal(t, ModePaged, v.Mode)
	require.Equal(t, DefaultPagedPageSize, v.PageSize)
	require.Len(t, v.Passes, 6)

	require.NoError(t, d.SetPage(ctx, 2))
	calls := fake.Calls(partnershipstest.OpListActive)
	require.Len(t, calls, 2)
	require.Equal(t, 6, calls[1].Params.(models.ListPassesParams).Offset)
}

func TestViewStoreUnsubscribe(t *testing.T) {
	store := NewViewStore(View{})
	count := 0
	unsubscribe := store.Subscribe(func(View) { count++ })
	require.Equal(t, 1, store.Subscribers())

	v := store.Publish(View{Page: 1})
	require.Equal(t, uint64(1), v.Version)
	require.Equal(t, 1, count)

	unsubscribe()
	unsubscribe()
	store.Publish(View{Page: 2})
	require.Equal(t, 1, count)
	require.Zero(t, store.Subscribers())
	require.Equal(t, uint64(2), store.Snapshot().Version)
}
