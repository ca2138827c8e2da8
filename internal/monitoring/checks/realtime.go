package checks

import (
	"context"
	"fmt"

	"github.com/charlesng35/sponsorpass/internal/monitoring"
	"github.com/charlesng35/sponsorpass/internal/realtime"
)

// SubscriberCounter reports how many clients follow a stream.
type SubscriberCounter interface {
	Subscribers(stream string) int
}

// Realtime reports the dashboard stream audience. A nil hub means realtime is disabled, which
// is not a failure.
func Realtime(hub SubscriberCounter) monitoring.Check {
	return monitoring.NewCheck("realtime", func(ctx context.Context) monitoring.ProbeResult {
		if hub == nil {
			return monitoring.ProbeResult{Status: monitoring.StatusUp, Details: "realtime disabled"}
		}
		count := hub.Subscribers(realtime.StreamDashboardView)
		return monitoring.ProbeResult{
			Status:  monitoring.StatusUp,
			Details: fmt.Sprintf("%d subscribers", count),
		}
	})
}
