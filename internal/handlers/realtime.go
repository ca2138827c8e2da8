package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/sponsorpass/internal/realtime"
	"github.com/charlesng35/sponsorpass/pkg/errors"
	"github.com/charlesng35/sponsorpass/pkg/response"
)

// RealtimeHandler upgrades HTTP connections into websocket view streams.
type RealtimeHandler struct {
	hub            *realtime.Hub
	allowedStreams map[string]struct{}
}

// NewRealtimeHandler constructs a realtime handler restricted to streams. With no streams, only
// the dashboard view stream is served.
func NewRealtimeHandler(hub *realtime.Hub, streams ...string) *RealtimeHandler {
	if len(streams) == 0 {
		streams = []string{realtime.StreamDashboardView}
	}
	allowed := make(map[string]struct{}, len(streams))
	for _, stream := range streams {
		if stream = normalizeStream(stream); stream != "" {
			allowed[stream] = struct{}{}
		}
	}
	return &RealtimeHandler{hub: hub, allowedStreams: allowed}
}

// Stream upgrades the request and subscribes it to the requested streams.
func (h *RealtimeHandler) Stream(c *gin.Context) {
	if h.hub == nil {
		response.Error(c, errors.ErrNotFound)
		return
	}

	streams := gatherStreams(c)
	if len(streams) == 0 {
		streams = []string{realtime.StreamDashboardView}
	}
	for _, stream := range streams {
		if _, ok := h.allowedStreams[stream]; !ok {
			response.Error(c, errors.ErrNotFound.WithMessage("unknown stream "+stream))
			return
		}
	}

	h.hub.Serve(streams, c.Writer, c.Request)
}

func gatherStreams(c *gin.Context) []string {
	var streams []string

	for _, queryStream := range c.QueryArray("stream") {
		if normalized := normalizeStream(queryStream); normalized != "" {
			streams = append(streams, normalized)
		}
	}

	if raw := c.Query("streams"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			if normalized := normalizeStream(part); normalized != "" {
				streams = append(streams, normalized)
			}
		}
	}

	return uniqueStreams(streams)
}

func normalizeStream(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func uniqueStreams(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, value := range values {
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}
