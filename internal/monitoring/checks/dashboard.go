package checks

import (
	"context"
	"fmt"

	"github.com/charlesng35/sponsorpass/internal/monitoring"
	"github.com/charlesng35/sponsorpass/internal/state"
)

// ViewSource exposes the latest dashboard view.
type ViewSource interface {
	View() state.View
}

// Dashboard reports whether the shared dashboard has loaded its sponsors. A visible banner
// means the last fetch failed and the view is degraded until the next successful load.
func Dashboard(source ViewSource) monitoring.Check {
	return monitoring.NewCheck("dashboard", func(ctx context.Context) monitoring.ProbeResult {
		if source == nil {
			return monitoring.ProbeResult{Status: monitoring.StatusDown, Details: "dashboard not configured"}
		}

		view := source.View()
		switch {
		case view.SponsorsLoading:
			return monitoring.ProbeResult{Status: monitoring.StatusDegraded, Details: "sponsors loading"}
		case view.Banner != "" && view.Banner != state.NoSponsorsMessage:
			return monitoring.ProbeResult{Status: monitoring.StatusDegraded, Details: view.Banner}
		}
		return monitoring.ProbeResult{
			Status:  monitoring.StatusUp,
			Details: fmt.Sprintf("%d sponsors", len(view.Sponsors)),
		}
	})
}
