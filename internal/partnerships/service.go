// Package partnerships talks to the external partnerships service that owns sponsors and passes.
package partnerships

import (
	"context"

	"github.com/charlesng35/sponsorpass/internal/models"
)

// Service is the subset of the partnerships API the dashboard depends on.
type Service interface {
	ListSponsors(ctx context.Context, params models.ListParams) (models.Page[models.Sponsor], error)
	ListAllSponsorPasses(ctx context.Context, params models.ListPassesParams) (models.Page[models.SponsorPass], error)
	ListActiveSponsorPasses(ctx context.Context, params models.ListPassesParams) (models.Page[models.SponsorPass], error)
	CreateSponsorPass(ctx context.Context, req models.CreateSponsorPassRequest) (models.SponsorPass, error)
	RevokeSponsorPass(ctx context.Context, req models.RevokeSponsorPassRequest) (models.SponsorPass, error)
	CurrentUser(ctx context.Context) (models.User, error)
}
