package state

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/charlesng35/sponsorpass/internal/models"
	apperrors "github.com/charlesng35/sponsorpass/pkg/errors"
	"github.com/charlesng35/sponsorpass/pkg/logger"
	"github.com/charlesng35/sponsorpass/pkg/metrics"
)

const (
	createFailedMessage = "Failed to create pass"
	revokeFailedMessage = "Failed to revoke pass"
)

// PassMutator creates and revokes sponsor passes.
type PassMutator interface {
	CreateSponsorPass(ctx context.Context, req models.CreateSponsorPassRequest) (models.SponsorPass, error)
	RevokeSponsorPass(ctx context.Context, req models.RevokeSponsorPassRequest) (models.SponsorPass, error)
}

// ActionState is a point-in-time copy of the action flags.
type ActionState struct {
	IsCreating bool
	IsRevoking bool
	RevokingID *int64
	// Error is the display message of the last failed action, empty when there is none.
	Error string
}

// PassActions performs create and revoke calls and tracks their progress. Overlapping calls are
// not serialised; the flags reflect the most recent transitions.
type PassActions struct {
	client    PassMutator
	onSuccess func(ctx context.Context)
	log       *zap.Logger

	mu         sync.Mutex
	creating   bool
	revoking   bool
	revokingID *int64
	errMsg     string

	onChange func()
}

// NewPassActions builds the gateway. onSuccess runs exactly once after every successful action.
func NewPassActions(client PassMutator, onSuccess func(ctx context.Context)) *PassActions {
	return &PassActions{
		client:    client,
		onSuccess: onSuccess,
		log:       logger.WithModule("actions"),
	}
}

// OnChange registers the callback invoked after any state change.
func (a *PassActions) OnChange(fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onChange = fn
}

// CreatePass submits req. On failure the display message (or a generic one) is kept for the
// view and the error is returned. The call is not aborted when ctx is cancelled.
func (a *PassActions) CreatePass(ctx context.Context, req models.CreateSponsorPassRequest) (models.SponsorPass, error) {
	ctx = context.WithoutCancel(ctx)
	a.mu.Lock()
	a.errMsg = ""
	a.creating = true
	a.mu.Unlock()
	a.changed()

	pass, err := a.client.CreateSponsorPass(ctx, req)
	metrics.PassActions.WithLabelValues("create", metrics.Result(err)).Inc()

	a.mu.Lock()
	a.creating = false
	if err != nil {
		a.errMsg = apperrors.DisplayMessage(err, createFailedMessage)
	}
	a.mu.Unlock()
	a.changed()

	if err != nil {
		a.log.Warn("create pass failed", logger.SponsorID(req.Sponsor), zap.Error(err))
		return models.SponsorPass{}, err
	}

	a.log.Info("pass created", logger.SponsorID(pass.Sponsor), logger.PassID(pass.ID))
	a.succeeded(ctx)
	return pass, nil
}

// RevokePass revokes pass by id.
func (a *PassActions) RevokePass(ctx context.Context, pass models.SponsorPass) (models.SponsorPass, error) {
	ctx = context.WithoutCancel(ctx)
	id := pass.ID

	a.mu.Lock()
	a.errMsg = ""
	a.revoking = true
	a.revokingID = &id
	a.mu.Unlock()
	a.changed()

	revoked, err := a.client.RevokeSponsorPass(ctx, models.RevokeSponsorPassRequest{ID: id})
	metrics.PassActions.WithLabelValues("revoke", metrics.Result(err)).Inc()

	a.mu.Lock()
	a.revoking = false
	a.revokingID = nil
	if err != nil {
		a.errMsg = apperrors.DisplayMessage(err, revokeFailedMessage)
	}
	a.mu.Unlock()
	a.changed()

	if err != nil {
		a.log.Warn("revoke pass failed", logger.PassID(id), zap.Error(err))
		return models.SponsorPass{}, err
	}

	a.log.Info("pass revoked", logger.PassID(id))
	a.succeeded(ctx)
	return revoked, nil
}

// ClearError resets the action error. In-flight flags are left alone.
func (a *PassActions) ClearError() {
	a.mu.Lock()
	a.errMsg = ""
	a.mu.Unlock()
	a.changed()
}

// Snapshot copies the current state.
func (a *PassActions) Snapshot() ActionState {
	a.mu.Lock()
	defer a.mu.Unlock()

	st := ActionState{
		IsCreating: a.creating,
		IsRevoking: a.revoking,
		Error:      a.errMsg,
	}
	if a.revokingID != nil {
		id := *a.revokingID
		st.RevokingID = &id
	}
	return st
}

func (a *PassActions) succeeded(ctx context.Context) {
	if a.onSuccess != nil {
		a.onSuccess(ctx)
	}
}

func (a *PassActions) changed() {
	a.mu.Lock()
	fn := a.onChange
	a.mu.Unlock()
	if fn != nil {
		fn()
	}
}
