package state

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/sponsorpass/internal/models"
	"github.com/charlesng35/sponsorpass/internal/partnerships"
	"github.com/charlesng35/sponsorpass/internal/partnerships/partnershipstest"
)

func newActions(t *testing.T) (*PassActions, *partnershipstest.Fake, *int) {
	t.Helper()
	fake := partnershipstest.NewFake().SetSponsors(partnershipstest.Sponsor(1, "Acme Corp"))
	fake.SetPasses(partnershipstest.Pass(10, 1))
	successes := 0
	actions := NewPassActions(fake, func(context.Context) { successes++ })
	return actions, fake, &successes
}

func createRequest() models.CreateSponsorPassRequest {
	return models.CreateSponsorPassRequest{Sponsor: 1, FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"}
}

func TestCreatePassSuccess(t *testing.T) {
	actions, fake, successes := newActions(t)

	fake.OnCall(partnershipstest.OpCreatePass, func(context.Context, partnershipstest.Call) error {
		st := actions.Snapshot()
		require.True(t, st.IsCreating)
		require.Empty(t, st.Error)
		return nil
	})

	pass, err := actions.CreatePass(context.Background(), createRequest())
	require.NoError(t, err)
	require.Equal(t, "Ada", pass.FirstName)
	require.Equal(t, models.PassStatusActive, pass.Status)

	require.False(t, actions.Snapshot().IsCreating)
	require.Equal(t, 1, *successes)
}

func TestCreatePassFailureKeepsDisplayMessage(t *testing.T) {
	actions, fake, successes := newActions(t)
	fake.FailWith(partnershipstest.OpCreatePass, &partnerships.APIError{StatusCode: 400, Message: "email: Enter a valid email address."})

	_, err := actions.CreatePass(context.Background(), createRequest())
	require.Error(t, err)

	st := actions.Snapshot()
	require.False(t, st.IsCreating)
	require.Equal(t, "email: Enter a valid email address.", st.Error)
	require.Zero(t, *successes)
}

func TestCreatePassFailureFallsBackToGenericMessage(t *testing.T) {
	actions, fake, _ := newActions(t)
	fake.FailWith(partnershipstest.OpCreatePass, errors.New(""))

	_, err := actions.CreatePass(context.Background(), createRequest())
	require.Error(t, err)
	require.Equal(t, "Failed to create pass", actions.Snapshot().Error)
}

func TestRevokePassTracksPassInFlight(t *testing.T) {
	actions, fake, successes := newActions(t)

	fake.OnCall(partnershipstest.OpRevokePass, func(_ context.Context, call partnershipstest.Call) error {
		require.Equal(t, models.RevokeSponsorPassRequest{ID: 10}, call.Params)
		st := actions.Snapshot()
		require.True(t, st.IsRevoking)
		require.NotNil(t, st.RevokingID)
		require.Equal(t, int64(10), *st.RevokingID)
		return nil
	})

	revoked, err := actions.RevokePass(context.Background(), partnershipstest.Pass(10, 1))
	require.NoError(t, err)
	require.True(t, revoked.IsRevoked())
	require.NotNil(t, revoked.RevokedAt)

	st := actions.Snapshot()
	require.False(t, st.IsRevoking)
	require.Nil(t, st.RevokingID)
	require.Equal(t, 1, *successes)
}

func TestRevokePassFailureFallback(t *testing.T) {
	actions, fake, successes := newActions(t)
	fake.FailWith(partnershipstest.OpRevokePass, errors.New(" "))

	_, err := actions.RevokePass(context.Background(), partnershipstest.Pass(10, 1))
	require.Error(t, err)
	require.Equal(t, "Failed to revoke pass", actions.Snapshot().Error)
	require.Zero(t, *successes)
}

func TestClearErrorLeavesFlagsAlone(t *testing.T) {
	actions, fake, _ := newActions(t)
	fake.FailWith(partnershipstest.OpCreatePass, partnershipstest.ErrUnavailable)
	_, _ = actions.CreatePass(context.Background(), createRequest())
	require.NotEmpty(t, actions.Snapshot().Error)

	fake.OnCall(partnershipstest.OpRevokePass, func(context.Context, partnershipstest.Call) error {
		require.Empty(t, actions.Snapshot().Error, "error is cleared when a new action starts")
		actions.ClearError()
		require.True(t, actions.Snapshot().IsRevoking)
		return nil
	})
	_, err := actions.RevokePass(context.Background(), partnershipstest.Pass(10, 1))
	require.NoError(t, err)

	actions.ClearError()
	require.Empty(t, actions.Snapshot().Error)
}

func TestCreatePassIgnoresCallerCancellation(t *testing.T) {
	actions, fake, successes := newActions(t)
	fake.OnCall(partnershipstest.OpCreatePass, func(ctx context.Context, _ partnershipstest.Call) error {
		return ctx.Err()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pass, err := actions.CreatePass(ctx, createRequest())
	require.NoError(t, err)
	require.Equal(t, "Ada", pass.FirstName)
	require.Equal(t, 1, *successes)
	require.Empty(t, actions.Snapshot().Error)
}
