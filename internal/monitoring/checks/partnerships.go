package checks

import (
	"context"
	"time"

	"github.com/charlesng35/sponsorpass/internal/models"
	"github.com/charlesng35/sponsorpass/internal/monitoring"
)

// UserSource resolves the authenticated user, which doubles as an upstream reachability probe.
type UserSource interface {
	CurrentUser(ctx context.Context) (models.User, error)
}

// Partnerships probes the upstream service with an authenticated request.
func Partnerships(source UserSource) monitoring.Check {
	return monitoring.NewCheck("partnerships", func(ctx context.Context) monitoring.ProbeResult {
		if source == nil {
			return monitoring.ProbeResult{Status: monitoring.StatusDown, Details: "partnerships client not configured"}
		}
		start := time.Now()
		_, err := source.CurrentUser(ctx)
		return monitoring.ResultFromError(err, time.Since(start))
	})
}
