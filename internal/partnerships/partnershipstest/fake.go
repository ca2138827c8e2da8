// Package partnershipstest provides an in-memory partnerships service for tests.
package partnershipstest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charlesng35/sponsorpass/internal/models"
	"github.com/charlesng35/sponsorpass/internal/partnerships"
)

// Call records one invocation of the fake.
type Call struct {
	Operation string
	Params    any
}

// Hook runs before an operation is served. Returning an error fails the call; blocking inside
// the hook keeps the call in flight.
type Hook func(ctx context.Context, call Call) error

// Fake is a concurrency-safe in-memory partnerships service. Listing endpoints honour limit,
// offset and include_revoked; the sponsor filter is ignored unless HonourSponsorFilter is set,
// matching services that do not support it.
type Fake struct {
	mu       sync.Mutex
	sponsors []models.Sponsor
	passes   []models.SponsorPass
	user     models.User
	calls    []Call
	errs     map[string]error
	hooks    map[string]Hook
	nextID   int64
	now      func() time.Time

	HonourSponsorFilter bool
}

var _ partnerships.Service = (*Fake)(nil)

// NewFake builds an empty fake.
func NewFake() *Fake {
	return &Fake{
		errs:   make(map[string]error),
		hooks:  make(map[string]Hook),
		nextID: 1000,
		now: func() time.Time {
			return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		},
	}
}

// SetSponsors replaces the sponsor collection.
func (f *Fake) SetSponsors(sponsors ...models.Sponsor) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sponsors = append([]models.Sponsor(nil), sponsors...)
	return f
}

// SetPasses replaces the pass collection.
func (f *Fake) SetPasses(passes ...models.SponsorPass) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.passes = append([]models.SponsorPass(nil), passes...)
	return f
}

// SetUser sets the operator returned by CurrentUser.
func (f *Fake) SetUser(user models.User) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.user = user
	return f
}

// FailWith makes every call to operation fail with err. A nil err clears the failure.
func (f *Fake) FailWith(operation string, err error) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.errs, operation)
	} else {
		f.errs[operation] = err
	}
	return f
}

// OnCall installs a hook for operation. A nil hook removes it.
func (f *Fake) OnCall(operation string, hook Hook) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	if hook == nil {
		delete(f.hooks, operation)
	} else {
		f.hooks[operation] = hook
	}
	return f
}

// Calls returns the recorded calls, optionally limited to one operation.
func (f *Fake) Calls(operation string) []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, 0, len(f.calls))
	for _, c := range f.calls {
		if operation == "" || c.Operation == operation {
			out = append(out, c)
		}
	}
	return out
}

// Passes returns a copy of the stored passes.
func (f *Fake) Passes() []models.SponsorPass {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.SponsorPass(nil), f.passes...)
}

const (
	OpListSponsors  = "list_sponsors"
	OpListAllPasses = "list_all_sponsor_passes"
	OpListActive    = "list_active_sponsor_passes"
	OpCreatePass    = "create_sponsor_pass"
	OpRevokePass    = "revoke_sponsor_pass"
	OpCurrentUser   = "current_user"
)

func (f *Fake) begin(ctx context.Context, op string, params any) error {
	call := Call{Operation: op, Params: params}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	hook := f.hooks[op]
	f.mu.Unlock()

	if hook != nil {
		if err := hook(ctx, call); err != nil {
			return err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errs[op]
}

// ListSponsors implements partnerships.Service.
func (f *Fake) ListSponsors(ctx context.Context, params models.ListParams) (models.Page[models.Sponsor], error) {
	if err := f.begin(ctx, OpListSponsors, params); err != nil {
		return models.Page[models.Sponsor]{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return paginate(f.sponsors, params), nil
}

// ListAllSponsorPasses implements partnerships.Service.
func (f *Fake) ListAllSponsorPasses(ctx context.Context, params models.ListPassesParams) (models.Page[models.SponsorPass], error) {
	if err := f.begin(ctx, OpListAllPasses, params); err != nil {
		return models.Page[models.SponsorPass]{}, err
	}
	return f.listPasses(params, params.IncludeRevoked), nil
}

// ListActiveSponsorPasses implements partnerships.Service.
func (f *Fake) ListActiveSponsorPasses(ctx context.Context, params models.ListPassesParams) (models.Page[models.SponsorPass], error) {
	if err := f.begin(ctx, OpListActive, params); err != nil {
		return models.Page[models.SponsorPass]{}, err
	}
	return f.listPasses(params, false), nil
}

func (f *Fake) listPasses(params models.ListPassesParams, includeRevoked bool) models.Page[models.SponsorPass] {
	f.mu.Lock()
	defer f.mu.Unlock()

	matched := make([]models.SponsorPass, 0, len(f.passes))
	for _, p := range f.passes {
		if !includeRevoked && p.IsRevoked() {
			continue
		}
		if f.HonourSponsorFilter && params.Sponsor != nil && p.Sponsor != *params.Sponsor {
			continue
		}
		matched = append(matched, p)
	}
	return paginate(matched, params.ListParams)
}

// CreateSponsorPass implements partnerships.Service.
func (f *Fake) CreateSponsorPass(ctx context.Context, req models.CreateSponsorPassRequest) (models.SponsorPass, error) {
	if err := f.begin(ctx, OpCreatePass, req); err != nil {
		return models.SponsorPass{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	var sponsorName string
	found := false
	for _, s := range f.sponsors {
		if s.ID == req.Sponsor {
			sponsorName, found = s.Name, true
			break
		}
	}
	if !found {
		return models.SponsorPass{}, &partnerships.APIError{StatusCode: 400, Message: "Unknown sponsor"}
	}

	f.nextID++
	now := f.now()
	pass := models.SponsorPass{
		ID:          f.nextID,
		Sponsor:     req.Sponsor,
		SponsorName: sponsorName,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Status:      models.PassStatusActive,
		ExpiresAt:   req.ExpiresAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	f.passes = append(f.passes, pass)
	return pass, nil
}

// RevokeSponsorPass implements partnerships.Service.
func (f *Fake) RevokeSponsorPass(ctx context.Context, req models.RevokeSponsorPassRequest) (models.SponsorPass, error) {
	if err := f.begin(ctx, OpRevokePass, req); err != nil {
		return models.SponsorPass{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.passes {
		if f.passes[i].ID != req.ID {
			continue
		}
		if f.passes[i].IsRevoked() {
			return models.SponsorPass{}, &partnerships.APIError{StatusCode: 400, Message: "Pass is already revoked"}
		}
		now := f.now()
		f.passes[i].Status = models.PassStatusRevoked
		f.passes[i].RevokedAt = &now
		f.passes[i].UpdatedAt = now
		return f.passes[i], nil
	}
	return models.SponsorPass{}, &partnerships.APIError{StatusCode: 404, Message: "Not found."}
}

// CurrentUser implements partnerships.Service.
func (f *Fake) CurrentUser(ctx context.Context) (models.User, error) {
	if err := f.begin(ctx, OpCurrentUser, nil); err != nil {
		return models.User{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.user, nil
}

// ErrUnavailable is a convenient transport-style failure for tests.
var ErrUnavailable = errors.New("partnerships service unavailable")

func paginate[T any](items []T, params models.ListParams) models.Page[T] {
	start := params.Offset
	if start > len(items) {
		start = len(items)
	}
	end := len(items)
	if params.Limit > 0 && start+params.Limit < end {
		end = start + params.Limit
	}
	results := make([]T, end-start)
	copy(results, items[start:end])
	return models.Page[T]{Count: len(items), Results: results}
}

// Sponsor builds a sponsor fixture.
func Sponsor(id int64, name string) models.Sponsor {
	ts := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return models.Sponsor{ID: id, Name: name, DailyRate: "25.00", CreatedAt: ts, UpdatedAt: ts}
}

// Pass builds an active pass fixture for sponsor.
func Pass(id, sponsor int64) models.SponsorPass {
	ts := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return models.SponsorPass{
		ID:          id,
		Sponsor:     sponsor,
		SponsorName: "Sponsor",
		FirstName:   "John",
		LastName:    "Doe",
		Email:       "john@example.com",
		Status:      models.PassStatusActive,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
}

// RevokedPass builds a revoked pass fixture for sponsor.
func RevokedPass(id, sponsor int64) models.SponsorPass {
	p := Pass(id, sponsor)
	revokedAt := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	p.Status = models.PassStatusRevoked
	p.RevokedAt = &revokedAt
	return p
}
