package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/sponsorpass/internal/state"
)

const (
	// FragmentHeader asks for the dashboard body only, for in-place refreshes.
	FragmentHeader = "X-Fragment"

	pageTemplate     = "dashboard"
	fragmentTemplate = "dashboard_body"
)

// PageHandler renders the dashboard HTML.
type PageHandler struct {
	dashboard *state.Dashboard
}

// NewPageHandler constructs a page handler. The engine must have the web templates loaded.
func NewPageHandler(dashboard *state.Dashboard) (*PageHandler, error) {
	if dashboard == nil {
		return nil, errors.New("page handler: dashboard is required")
	}
	return &PageHandler{dashboard: dashboard}, nil
}

type pageData struct {
	View       state.View
	SelectedID *int64
}

// Render writes the full page, or the body fragment when FragmentHeader is set.
func (h *PageHandler) Render(c *gin.Context) {
	view := h.dashboard.View()
	data := pageData{View: view}
	if view.SelectedSponsor != nil {
		id := view.SelectedSponsor.ID
		data.SelectedID = &id
	}

	name := pageTemplate
	if c.GetHeader(FragmentHeader) == "dashboard" {
		name = fragmentTemplate
	}
	c.Header("Cache-Control", "no-store")
	c.HTML(http.StatusOK, name, data)
}
