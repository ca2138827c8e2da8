package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/charlesng35/sponsorpass/internal/models"
	"github.com/charlesng35/sponsorpass/internal/partnerships"
	"github.com/charlesng35/sponsorpass/internal/partnerships/partnershipstest"
	"github.com/charlesng35/sponsorpass/internal/state"
	"github.com/charlesng35/sponsorpass/pkg/response"
	"github.com/charlesng35/sponsorpass/web"
)

type envelope struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   *response.ErrorInfo `json:"error"`
	Meta    *response.Meta      `json:"meta"`
}

type testEnv struct {
	t         *testing.T
	fake      *partnershipstest.Fake
	dashboard *state.Dashboard
	router    *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fake := partnershipstest.NewFake().
		SetSponsors(partnershipstest.Sponsor(1, "Acme Corp"), partnershipstest.Sponsor(2, "Globex")).
		SetUser(models.User{Username: "jdoe", FirstName: "Jane"})
	passes := make([]models.SponsorPass, 0, 13)
	for id := int64(1); id <= 12; id++ {
		passes = append(passes, partnershipstest.Pass(id, 1))
	}
	passes = append(passes, partnershipstest.RevokedPass(13, 1), partnershipstest.Pass(14, 2))
	fake.SetPasses(passes...)

	dashboard := state.NewDashboard(fake, state.Options{})
	require.NoError(t, dashboard.Init(context.Background()))

	dh, err := NewDashboardHandler(dashboard)
	require.NoError(t, err)
	ph, err := NewPageHandler(dashboard)
	require.NoError(t, err)

	tmpl, err := web.Templates()
	require.NoError(t, err)

	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	r.GET("/", ph.Render)
	api := r.Group("/api")
	api.GET("/view", dh.View)
	api.GET("/sponsors", dh.Sponsors)
	api.PUT("/selection", dh.Select)
	api.DELETE("/selection", dh.ClearSelection)
	api.PUT("/filters", dh.SetFilters)
	api.PUT("/page", dh.SetPage)
	api.POST("/passes/refresh", dh.Refresh)
	api.POST("/passes", dh.CreatePass)
	api.POST("/passes/:id/revoke", dh.RevokePass)
	api.DELETE("/errors/action", dh.ClearActionError)
	api.DELETE("/errors/banner", dh.DismissBanner)

	return &testEnv{t: t, fake: fake, dashboard: dashboard, router: r}
}

func (e *testEnv) do(method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(e.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func decodeView(t *testing.T, raw json.RawMessage) state.View {
	t.Helper()
	var v state.View
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func TestNewDashboardHandlerRequiresDashboard(t *testing.T) {
	_, err := NewDashboardHandler(nil)
	require.Error(t, err)
	_, err = NewPageHandler(nil)
	require.Error(t, err)
}

func TestDashboardHandlerView(t *testing.T) {
	env := newTestEnv(t)

	w, resp := env.do(http.MethodGet, "/api/view", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, resp.Success)
	require.NotNil(t, resp.Meta)
	require.Equal(t, 1, resp.Meta.Page)
	require.Equal(t, 10, resp.Meta.PerPage)
	require.Equal(t, 12, resp.Meta.Total)
	require.Equal(t, 2, resp.Meta.TotalPages)

	view := decodeView(t, resp.Data)
	require.Equal(t, "Jane", view.Greeting)
	require.Equal(t, int64(1), view.SelectedSponsor.ID)
	require.Len(t, view.Passes, 10)
}

func TestDashboardHandlerSponsorsSearch(t *testing.T) {
	env := newTestEnv(t)

	w, resp := env.do(http.MethodGet, "/api/sponsors?q=glob", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var sponsors []models.Sponsor
	require.NoError(t, json.Unmarshal(resp.Data, &sponsors))
	require.Len(t, sponsors, 1)
	require.Equal(t, "Globex", sponsors[0].Name)

	_, resp = env.do(http.MethodGet, "/api/sponsors?limit=1", nil)
	require.NoError(t, json.Unmarshal(resp.Data, &sponsors))
	require.Len(t, sponsors, 1)
}

func TestDashboardHandlerSelection(t *testing.T) {
	env := newTestEnv(t)

	w, resp := env.do(http.MethodPut, "/api/selection", map[string]any{"sponsorId": 2})
	require.Equal(t, http.StatusOK, w.Code)
	view := decodeView(t, resp.Data)
	require.Equal(t, int64(2), view.SelectedSponsor.ID)
	require.Len(t, view.Passes, 1)

	w, resp = env.do(http.MethodPut, "/api/selection", map[string]any{"sponsorId": 99})
	require.Equal(t, http.StatusNotFound, w.Code)
	require.False(t, resp.Success)

	w, resp = env.do(http.MethodPut, "/api/selection", map[string]any{})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.Contains(t, resp.Error.Fields, "sponsorId")

	w, resp = env.do(http.MethodDelete, "/api/selection", nil)
	require.Equal(t, http.StatusOK, w.Code)
	view = decodeView(t, resp.Data)
	require.Nil(t, view.SelectedSponsor)
	require.Empty(t, view.Passes)
}

func TestDashboardHandlerFiltersAndPaging(t *testing.T) {
	env := newTestEnv(t)

	w, resp := env.do(http.MethodPut, "/api/page", map[string]any{"page": 2})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 2, resp.Meta.Page)
	require.Len(t, decodeView(t, resp.Data).Passes, 2)

	w, resp = env.do(http.MethodPut, "/api/page", map[string]any{"page": 3})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "PAGE_OUT_OF_RANGE", resp.Error.Code)

	w, _ = env.do(http.MethodPut, "/api/page", map[string]any{})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w, resp = env.do(http.MethodPut, "/api/filters", map[string]any{"showRevoked": true})
	require.Equal(t, http.StatusOK, w.Code)
	view := decodeView(t, resp.Data)
	require.True(t, view.ShowRevoked)
	require.Equal(t, 1, view.Page)
	require.Equal(t, 13, view.TotalCount)
}

func TestDashboardHandlerCreatePass(t *testing.T) {
	env := newTestEnv(t)

	w, resp := env.do(http.MethodPost, "/api/passes", map[string]any{
		"firstName": "Ada",
		"lastName":  "Lovelace",
		"email":     "ada@example.com",
		"expiresAt": "2030-01-01T09:30:00Z",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var pass models.SponsorPass
	require.NoError(t, json.Unmarshal(resp.Data, &pass))
	require.Equal(t, "Ada", pass.FirstName)
	require.NotNil(t, pass.ExpiresAt)

	calls := env.fake.Calls(partnershipstest.OpCreatePass)
	require.Len(t, calls, 1)
	req := calls[0].Params.(models.CreateSponsorPassRequest)
	require.Equal(t, int64(1), req.Sponsor)
}

func TestDashboardHandlerCreatePassValidation(t *testing.T) {
	env := newTestEnv(t)

	w, resp := env.do(http.MethodPost, "/api/passes", map[string]any{
		"firstName": "",
		"lastName":  "Lovelace",
		"email":     "not-an-email",
		"expiresAt": "tomorrow",
	})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.Equal(t, "First name is required", resp.Error.Fields["firstName"])
	require.Equal(t, "Please enter a valid email address", resp.Error.Fields["email"])
	require.Equal(t, "Please enter a valid date", resp.Error.Fields["expiresAt"])
	require.Empty(t, env.fake.Calls(partnershipstest.OpCreatePass))

	req := httptest.NewRequest(http.MethodPost, "/api/passes", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDashboardHandlerCreatePassUpstreamError(t *testing.T) {
	env := newTestEnv(t)
	env.fake.FailWith(partnershipstest.OpCreatePass, &partnerships.APIError{StatusCode: http.StatusBadRequest, Message: "email: Pass already exists."})

	w, resp := env.do(http.MethodPost, "/api/passes", map[string]any{
		"firstName": "Ada",
		"lastName":  "Lovelace",
		"email":     "ada@example.com",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "email: Pass already exists.", resp.Error.Message)

	_, resp = env.do(http.MethodGet, "/api/view", nil)
	require.Equal(t, "email: Pass already exists.", decodeView(t, resp.Data).ActionError)

	_, resp = env.do(http.MethodDelete, "/api/errors/action", nil)
	require.Empty(t, decodeView(t, resp.Data).ActionError)
}

func TestDashboardHandlerRevokePass(t *testing.T) {
	env := newTestEnv(t)

	w, resp := env.do(http.MethodPost, "/api/passes/3/revoke", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var pass models.SponsorPass
	require.NoError(t, json.Unmarshal(resp.Data, &pass))
	require.True(t, pass.IsRevoked())

	w, _ = env.do(http.MethodPost, "/api/passes/abc/revoke", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = env.do(http.MethodPost, "/api/passes/14/revoke", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestDashboardHandlerBanner(t *testing.T) {
	env := newTestEnv(t)
	env.fake.FailWith(partnershipstest.OpListAllPasses, partnershipstest.ErrUnavailable)

	_, resp := env.do(http.MethodPost, "/api/passes/refresh", nil)
	view := decodeView(t, resp.Data)
	require.Equal(t, partnershipstest.ErrUnavailable.Error(), view.Banner)
	require.Empty(t, view.Passes)

	_, resp = env.do(http.MethodDelete, "/api/errors/banner", nil)
	require.Empty(t, decodeView(t, resp.Data).Banner)
}

func TestPageHandlerRender(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	require.Contains(t, body, "<!DOCTYPE html>")
	require.Contains(t, body, "Hello, Jane")
	require.Contains(t, body, "Acme Corp")
	require.Contains(t, body, `data-action="revoke"`)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(FragmentHeader, "dashboard")
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotContains(t, w.Body.String(), "<!DOCTYPE html>")
	require.Contains(t, w.Body.String(), "Globex")
}
