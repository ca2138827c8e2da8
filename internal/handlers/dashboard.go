package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/sponsorpass/internal/forms"
	"github.com/charlesng35/sponsorpass/internal/state"
	appErrors "github.com/charlesng35/sponsorpass/pkg/errors"
	"github.com/charlesng35/sponsorpass/pkg/response"
)

const maxSponsorResults = 50

// DashboardHandler exposes the shared dashboard state over JSON.
type DashboardHandler struct {
	dashboard *state.Dashboard
}

// NewDashboardHandler constructs a dashboard handler.
func NewDashboardHandler(dashboard *state.Dashboard) (*DashboardHandler, error) {
	if dashboard == nil {
		return nil, errors.New("dashboard handler: dashboard is required")
	}
	return &DashboardHandler{dashboard: dashboard}, nil
}

type selectSponsorRequest struct {
	SponsorID int64 `json:"sponsorId" validate:"required,gt=0"`
}

type filtersRequest struct {
	ShowRevoked *bool `json:"showRevoked" validate:"required"`
}

type pageRequest struct {
	Page *int `json:"page" validate:"required"`
}

// View returns the latest dashboard view with pagination metadata.
func (h *DashboardHandler) View(c *gin.Context) {
	h.writeView(c, http.StatusOK)
}

// Sponsors fuzzy-searches the sponsor directory by name.
func (h *DashboardHandler) Sponsors(c *gin.Context) {
	matches := h.dashboard.SearchSponsors(strings.TrimSpace(c.Query("q")))
	limit := parseIntQuery(c, "limit", maxSponsorResults)
	if limit > 0 && limit < len(matches) {
		matches = matches[:limit]
	}
	response.Success(c, http.StatusOK, matches)
}

// Select switches the selected sponsor.
func (h *DashboardHandler) Select(c *gin.Context) {
	var req selectSponsorRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.dashboard.SelectSponsor(c.Request.Context(), req.SponsorID); err != nil {
		writeError(c, err)
		return
	}
	h.writeView(c, http.StatusOK)
}

// ClearSelection removes the selected sponsor.
func (h *DashboardHandler) ClearSelection(c *gin.Context) {
	h.dashboard.ClearSponsor(c.Request.Context())
	h.writeView(c, http.StatusOK)
}

// SetFilters toggles revoked pass visibility.
func (h *DashboardHandler) SetFilters(c *gin.Context) {
	var req filtersRequest
	if !bindAndValidate(c, &req) {
		return
	}
	h.dashboard.SetShowRevoked(c.Request.Context(), *req.ShowRevoked)
	h.writeView(c, http.StatusOK)
}

// SetPage moves to another page; out-of-range pages are rejected.
func (h *DashboardHandler) SetPage(c *gin.Context) {
	var req pageRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.dashboard.SetPage(c.Request.Context(), *req.Page); err != nil {
		writeError(c, err)
		return
	}
	h.writeView(c, http.StatusOK)
}

// Refresh refetches the current pass query.
func (h *DashboardHandler) Refresh(c *gin.Context) {
	h.dashboard.Refresh(c.Request.Context())
	h.writeView(c, http.StatusOK)
}

// CreatePass issues a pass for the selected sponsor.
func (h *DashboardHandler) CreatePass(c *gin.Context) {
	var form forms.CreatePassForm
	if c.ShouldBindJSON(&form) != nil {
		response.Error(c, appErrors.NewBadRequest("invalid JSON payload"))
		return
	}

	pass, err := h.dashboard.CreatePass(c.Request.Context(), form)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, pass)
}

// RevokePass revokes a pass shown on the current page.
func (h *DashboardHandler) RevokePass(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	pass, err := h.dashboard.RevokePass(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, pass)
}

// ClearActionError dismisses the last create/revoke error.
func (h *DashboardHandler) ClearActionError(c *gin.Context) {
	h.dashboard.ClearError()
	h.writeView(c, http.StatusOK)
}

// DismissBanner clears the fetch error banner.
func (h *DashboardHandler) DismissBanner(c *gin.Context) {
	h.dashboard.DismissBanner()
	h.writeView(c, http.StatusOK)
}

func (h *DashboardHandler) writeView(c *gin.Context, status int) {
	view := h.dashboard.View()
	response.SuccessWithMeta(c, status, view, &response.Meta{
		Page:       view.Page,
		PerPage:    view.PageSize,
		Total:      view.TotalCount,
		TotalPages: view.TotalPages,
	})
}
