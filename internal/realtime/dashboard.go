package realtime

import "github.com/charlesng35/sponsorpass/internal/state"

// ViewSource publishes dashboard views.
type ViewSource interface {
	View() state.View
	Subscribe(fn func(state.View)) (unsubscribe func())
}

// AttachDashboard streams every published view on StreamDashboardView. New subscribers first
// receive the current view as a snapshot.
func AttachDashboard(hub *Hub, source ViewSource) (detach func()) {
	hub.RegisterSnapshot(StreamDashboardView, func() any { return source.View() })
	unsubscribe := source.Subscribe(func(v state.View) {
		hub.BroadcastStream(StreamDashboardView, Message{
			Event: EventUpdated,
			Data:  v,
			Meta:  map[string]any{"version": v.Version},
		})
	})
	return func() {
		unsubscribe()
		hub.RegisterSnapshot(StreamDashboardView, nil)
	}
}
