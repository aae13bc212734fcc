//
//  Copyright © Manetu Inc. All rights reserved.
//

// Package collector fetches the IAM role corpus from the upstream API and
// transforms it into the catalog dataset consumed by the indexing engine.
package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/manetu/iamsearch/internal/logging"
	"github.com/manetu/iamsearch/pkg/common"
	"github.com/manetu/iamsearch/pkg/engine/config"
)

var logger = logging.GetLogger("iamsearch.collector")
var agent = "collector"

const (
	requestTimeout = 30 * time.Second
	maxRetries     = 5
	initialBackoff = 100 * time.Millisecond
)

// RawRole is a role definition as returned by the upstream API.
type RawRole struct {
	Name                string   `json:"name"`
	Title               string   `json:"title"`
	Description         string   `json:"description"`
	Stage               string   `json:"stage"`
	IncludedPermissions []string `json:"includedPermissions"`
	Etag                string   `json:"etag"`
	Deleted             bool     `json:"deleted"`
}

// listResponse is one page of the upstream roles listing.
type listResponse struct {
	Roles         []RawRole `json:"roles"`
	NextPageToken string    `json:"nextPageToken"`
}

// Client fetches role definitions from the IAM roles API.
type Client struct {
	hc       *http.Client
	endpoint string
	token    string
	pageSize int
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithEndpoint overrides the configured upstream endpoint.
func WithEndpoint(endpoint string) ClientOption {
	return func(c *Client) {
		if endpoint != "" {
			c.endpoint = endpoint
		}
	}
}

// WithToken sets the bearer token used to authenticate upstream requests.
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.token = token
	}
}

// WithPageSize overrides the configured page size.
func WithPageSize(size int) ClientOption {
	return func(c *Client) {
		if size > 0 {
			c.pageSize = size
		}
	}
}

// NewClient creates a collector client.  Endpoint and page size default
// from configuration (collector.endpoint, collector.pagesize); the bearer
// token defaults from the GCP_ACCESS_TOKEN environment variable unless set
// via [WithToken].
func NewClient(opts ...ClientOption) (*Client, error) {
	if err := config.Load(); err != nil {
		return nil, err
	}

	c := &Client{
		hc:       &http.Client{Timeout: requestTimeout},
		endpoint: config.VConfig.GetString(config.CollectorEndpoint),
		pageSize: config.VConfig.GetInt(config.CollectorPageSize),
		token:    os.Getenv("GCP_ACCESS_TOKEN"),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// FetchAll retrieves the complete role corpus, following pagination until
// the upstream reports no further pages.  Rate-limited requests (HTTP 429)
// are retried with exponential backoff; authentication failures abort
// immediately.
func (c *Client) FetchAll(ctx context.Context) ([]RawRole, error) {
	var roles []RawRole
	pageToken := ""
	page := 0

	for {
		resp, err := c.listPage(ctx, pageToken)
		if err != nil {
			return nil, err
		}

		page++
		roles = append(roles, resp.Roles...)
		logger.Debugf(agent, "FetchAll", "page %d: %d roles (total %d)", page, len(resp.Roles), len(roles))

		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	logger.Infof(agent, "FetchAll", "fetched %d roles in %d pages", len(roles), page)
	return roles, nil
}

// listPage fetches a single page, retrying on rate limiting.
func (c *Client) listPage(ctx context.Context, pageToken string) (*listResponse, error) {
	backoff := initialBackoff

	for attempt := 0; ; attempt++ {
		resp, err := c.doList(ctx, pageToken)
		if err == nil {
			return resp, nil
		}

		if !common.HasReason(err, common.ReasonRateLimit) || attempt == maxRetries {
			return nil, err
		}

		logger.Warnf(agent, "listPage", "rate limited; retrying in %s (attempt %d/%d)", backoff, attempt+1, maxRetries)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		backoff *= 2
	}
}

func (c *Client) doList(ctx context.Context, pageToken string) (*listResponse, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, common.NewErrorf(common.ReasonUpstream, "invalid endpoint %q: %v", c.endpoint, err)
	}

	q := u.Query()
	q.Set("pageSize", strconv.Itoa(c.pageSize))
	if pageToken != "" {
		q.Set("pageToken", pageToken)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, common.NewErrorf(common.ReasonUpstream, "request failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, common.NewErrorf(common.ReasonAuth, "authentication failed: %s", resp.Status)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, common.NewError(common.ReasonRateLimit, "rate limited")
	case resp.StatusCode != http.StatusOK:
		return nil, common.NewErrorf(common.ReasonUpstream, "unexpected status: %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, common.NewErrorf(common.ReasonUpstream, "reading response: %v", err)
	}

	var page listResponse
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, common.NewErrorf(common.ReasonDecode, "decoding response: %v", err)
	}

	return &page, nil
}

// String describes the client's target for logging.
func (c *Client) String() string {
	return fmt.Sprintf("collector{endpoint=%s pageSize=%d}", c.endpoint, c.pageSize)
}
