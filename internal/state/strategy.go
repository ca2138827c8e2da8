package state

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/charlesng35/sponsorpass/internal/models"
	"github.com/charlesng35/sponsorpass/internal/pagination"
	"github.com/charlesng35/sponsorpass/pkg/logger"
)

// Mode selects how passes are fetched and paginated.
type Mode string

const (
	// ModeBulk fetches every pass in one call and paginates locally.
	ModeBulk Mode = "bulk"
	// ModePaged asks the service for one page at a time.
	ModePaged Mode = "paged"
)

const (
	DefaultBulkPageSize   = 10
	DefaultBulkFetchLimit = 1000
	DefaultPagedPageSize  = 6
)

// ParseMode validates a configured mode; empty means bulk.
func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case "", ModeBulk:
		return ModeBulk, nil
	case ModePaged:
		return ModePaged, nil
	default:
		return "", fmt.Errorf("unknown passes mode %q (want %q or %q)", value, ModeBulk, ModePaged)
	}
}

// PassSource lists sponsor passes.
type PassSource interface {
	ListAllSponsorPasses(ctx context.Context, params models.ListPassesParams) (models.Page[models.SponsorPass], error)
	ListActiveSponsorPasses(ctx context.Context, params models.ListPassesParams) (models.Page[models.SponsorPass], error)
}

// FetchResult is what a strategy produced for one query key.
type FetchResult struct {
	// Passes holds the full filtered collection for local paging, or the requested page otherwise.
	Passes []models.SponsorPass
	// Total is the number of passes matching the query across all pages.
	Total int
}

// Strategy fetches passes for a query key.
type Strategy interface {
	Mode() Mode
	PageSize() int
	// PagesLocally reports whether page changes are served from the last result without a fetch.
	PagesLocally() bool
	Fetch(ctx context.Context, key models.QueryKey) (FetchResult, error)
}

// NewStrategy builds the strategy for mode. Non-positive sizes fall back to the mode defaults.
func NewStrategy(mode Mode, source PassSource, pageSize, fetchLimit int) Strategy {
	if mode == ModePaged {
		return NewPagedStrategy(source, pageSize)
	}
	return NewBulkStrategy(source, pageSize, fetchLimit)
}

// BulkStrategy loads up to fetchLimit passes in a single call, then filters by sponsor and
// revoked visibility on the client.
type BulkStrategy struct {
	source     PassSource
	pageSize   int
	fetchLimit int
	log        *zap.Logger
}

func NewBulkStrategy(source PassSource, pageSize, fetchLimit int) *BulkStrategy {
	if pageSize <= 0 {
		pageSize = DefaultBulkPageSize
	}
	if fetchLimit <= 0 {
		fetchLimit = DefaultBulkFetchLimit
	}
	return &BulkStrategy{source: source, pageSize: pageSize, fetchLimit: fetchLimit, log: logger.WithModule("passes")}
}

func (s *BulkStrategy) Mode() Mode         { return ModeBulk }
func (s *BulkStrategy) PageSize() int      { return s.pageSize }
func (s *BulkStrategy) PagesLocally() bool { return true }

func (s *BulkStrategy) Fetch(ctx context.Context, key models.QueryKey) (FetchResult, error) {
	page, err := s.source.ListAllSponsorPasses(ctx, models.ListPassesParams{
		ListParams:     models.ListParams{Limit: s.fetchLimit, Offset: 0},
		IncludeRevoked: key.ShowRevoked,
	})
	if err != nil {
		return FetchResult{}, err
	}
	if page.Count > len(page.Results) {
		// Passes beyond the ceiling are never shown.
		s.log.Warn("pass listing truncated at fetch limit",
			zap.Int("count", page.Count),
			zap.Int("limit", s.fetchLimit),
		)
	}

	warnInconsistent(s.log, page.Results)
	filtered := filterPasses(page.Results, *key.SponsorID, key.ShowRevoked)
	return FetchResult{Passes: filtered, Total: len(filtered)}, nil
}

// PagedStrategy requests one page per fetch, choosing the endpoint by revoked visibility.
type PagedStrategy struct {
	source   PassSource
	pageSize int
	log      *zap.Logger
}

func NewPagedStrategy(source PassSource, pageSize int) *PagedStrategy {
	if pageSize <= 0 {
		pageSize = DefaultPagedPageSize
	}
	return &PagedStrategy{source: source, pageSize: pageSize, log: logger.WithModule("passes")}
}

func (s *PagedStrategy) Mode() Mode         { return ModePaged }
func (s *PagedStrategy) PageSize() int      { return s.pageSize }
func (s *PagedStrategy) PagesLocally() bool { return false }

// Fetch sends the sponsor id along so services that support it filter server-side. The page is
// filtered again here; when that drops rows the service count is reduced by the same amount,
// never below what has already been seen.
func (s *PagedStrategy) Fetch(ctx context.Context, key models.QueryKey) (FetchResult, error) {
	offset := pagination.Offset(key.Page, s.pageSize)
	params := models.ListPassesParams{
		ListParams: models.ListParams{Limit: s.pageSize, Offset: offset},
		Sponsor:    key.SponsorID,
	}

	var (
		page models.Page[models.SponsorPass]
		err  error
	)
	if key.ShowRevoked {
		params.IncludeRevoked = true
		page, err = s.source.ListAllSponsorPasses(ctx, params)
	} else {
		page, err = s.source.ListActiveSponsorPasses(ctx, params)
	}
	if err != nil {
		return FetchResult{}, err
	}

	warnInconsistent(s.log, page.Results)
	filtered := filterPasses(page.Results, *key.SponsorID, true)
	total := page.Count - (len(page.Results) - len(filtered))
	if seen := offset + len(filtered); total < seen {
		total = seen
	}
	return FetchResult{Passes: filtered, Total: total}, nil
}

func filterPasses(passes []models.SponsorPass, sponsorID int64, showRevoked bool) []models.SponsorPass {
	out := make([]models.SponsorPass, 0, len(passes))
	for _, p := range passes {
		if p.Sponsor != sponsorID {
			continue
		}
		if !showRevoked && p.IsRevoked() {
			continue
		}
		out = append(out, p)
	}
	return out
}

// warnInconsistent logs passes whose status and revokedAt disagree. They are still shown.
func warnInconsistent(log *zap.Logger, passes []models.SponsorPass) {
	for _, p := range passes {
		if !p.Consistent() {
			log.Warn("inconsistent pass status",
				logger.PassID(p.ID),
				zap.String("status", string(p.Status)),
				zap.Bool("revoked_at_set", p.RevokedAt != nil),
			)
		}
	}
}
