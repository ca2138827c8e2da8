package partnerships

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/charlesng35/sponsorpass/internal/models"
	"github.com/charlesng35/sponsorpass/pkg/logger"
	"github.com/charlesng35/sponsorpass/pkg/metrics"
)

const (
	defaultTimeout  = 10 * time.Second
	maxResponseSize = 4 << 20
)

// Options configures the HTTP client.
type Options struct {
	BaseURL    string
	APIToken   string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client implements Service over HTTP/JSON. It does not retry.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	log     *zap.Logger
}

var _ Service = (*Client)(nil)

// NewClient builds a client for the service rooted at opts.BaseURL. When APIToken is set every
// request carries it as a bearer token.
func NewClient(opts Options) (*Client, error) {
	raw := strings.TrimSpace(opts.BaseURL)
	if raw == "" {
		return nil, errors.New("partnerships: base url is required")
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("partnerships: parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("partnerships: unsupported base url scheme %q", base.Scheme)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if token := strings.TrimSpace(opts.APIToken); token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: token,
			TokenType:   "Bearer",
		}))
	}
	if httpClient.Timeout == 0 {
		clone := *httpClient
		clone.Timeout = opts.Timeout
		httpClient = &clone
	}

	return &Client{
		baseURL: base,
		http:    httpClient,
		log:     logger.WithModule("partnerships"),
	}, nil
}

// ListSponsors returns a page of sponsors in service order.
func (c *Client) ListSponsors(ctx context.Context, params models.ListParams) (models.Page[models.Sponsor], error) {
	var page models.Page[models.Sponsor]
	err := c.do(ctx, "list_sponsors", http.MethodGet, "partnerships/sponsors/", listQuery(params), nil, &page)
	return page, err
}

// ListAllSponsorPasses lists passes across sponsors, optionally including revoked ones.
func (c *Client) ListAllSponsorPasses(ctx context.Context, params models.ListPassesParams) (models.Page[models.SponsorPass], error) {
	query := passQuery(params)
	query.Set("include_revoked", strconv.FormatBool(params.IncludeRevoked))

	var page models.Page[models.SponsorPass]
	err := c.do(ctx, "list_all_sponsor_passes", http.MethodGet, "partnerships/sponsor-passes/", query, nil, &page)
	return page, err
}

// ListActiveSponsorPasses lists active passes only.
func (c *Client) ListActiveSponsorPasses(ctx context.Context, params models.ListPassesParams) (models.Page[models.SponsorPass], error) {
	var page models.Page[models.SponsorPass]
	err := c.do(ctx, "list_active_sponsor_passes", http.MethodGet, "partnerships/sponsor-passes/active/", passQuery(params), nil, &page)
	return page, err
}

// CreateSponsorPass issues a pass.
func (c *Client) CreateSponsorPass(ctx context.Context, req models.CreateSponsorPassRequest) (models.SponsorPass, error) {
	var pass models.SponsorPass
	err := c.do(ctx, "create_sponsor_pass", http.MethodPost, "partnerships/sponsor-passes/", nil, req, &pass)
	return pass, err
}

// RevokeSponsorPass revokes a pass and returns its revoked representation.
func (c *Client) RevokeSponsorPass(ctx context.Context, req models.RevokeSponsorPassRequest) (models.SponsorPass, error) {
	var pass models.SponsorPass
	path := fmt.Sprintf("partnerships/sponsor-passes/%d/revoke/", req.ID)
	err := c.do(ctx, "revoke_sponsor_pass", http.MethodPost, path, nil, req, &pass)
	return pass, err
}

// CurrentUser returns the operator the API token belongs to.
func (c *Client) CurrentUser(ctx context.Context) (models.User, error) {
	var user models.User
	err := c.do(ctx, "current_user", http.MethodGet, "users/me/", nil, nil, &user)
	return user, err
}

func (c *Client) do(ctx context.Context, operation, method, path string, query url.Values, body, dest any) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}

	start := time.Now()
	defer func() {
		metrics.PartnershipsLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
		metrics.PartnershipsRequests.WithLabelValues(operation, metrics.Result(err)).Inc()
		c.log.Debug("partnerships call",
			zap.String("operation", operation),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
	}()

	endpoint := c.baseURL.ResolveReference(&url.URL{Path: path})
	if len(query) > 0 {
		endpoint.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, marshalErr := json.Marshal(body)
		if marshalErr != nil {
			return fmt.Errorf("partnerships: %s: encode request: %w", operation, marshalErr)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return fmt.Errorf("partnerships: %s: build request: %w", operation, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("partnerships: %s: %w", operation, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("partnerships: %s: read response: %w", operation, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp.StatusCode, data)
	}

	if dest == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("partnerships: %s: decode response: %w", operation, err)
	}
	return nil
}

func listQuery(params models.ListParams) url.Values {
	query := url.Values{}
	if params.Limit > 0 {
		query.Set("limit", strconv.Itoa(params.Limit))
	}
	if params.Limit > 0 || params.Offset > 0 {
		query.Set("offset", strconv.Itoa(params.Offset))
	}
	return query
}

func passQuery(params models.ListPassesParams) url.Values {
	query := listQuery(params.ListParams)
	if params.Sponsor != nil {
		query.Set("sponsor", strconv.FormatInt(*params.Sponsor, 10))
	}
	return query
}
