// Package upstream talks to the usage service: org and workspace lookups and
// paginated billing usage retrieval.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/j-veylop/billing-report/internal/logger"
	"github.com/j-veylop/billing-report/internal/models"
)

const (
	apiPrefix = "/api/v1"

	currentOrgPath    = "/orgs/current"
	workspacesPath    = "/workspaces"
	granularUsagePath = "/orgs/current/billing/granular-usage"
	billingUsagePath  = "/orgs/current/billing/usage"

	headerAPIKey = "X-API-Key"
	headerOrgID  = "X-Organization-Id"
)

// DefaultTimeout bounds a single upstream request.
const DefaultTimeout = 120 * time.Second

// Client issues authenticated requests against one base URL. It keeps no
// per-org state, so a single Client is shared by all fetch workers.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// New creates a client for baseURL. A nil httpClient gets one with DefaultTimeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// response is a fully read upstream reply.
type response struct {
	url    string
	body   []byte
	status int
}

// decode unmarshals the body, reporting malformed JSON as an UpstreamError.
func (r *response) decode(v any) error {
	if err := json.Unmarshal(r.body, v); err != nil {
		return &UpstreamError{
			Status: r.status,
			URL:    r.url,
			Reason: "non-JSON response",
			Body:   excerpt(r.body),
		}
	}
	return nil
}

// get performs one GET request scoped by the credential.
func (c *Client) get(ctx context.Context, cred models.Credential, path string, params url.Values) (*response, error) {
	endpoint := c.baseURL + apiPrefix + path
	if qs := params.Encode(); qs != "" {
		endpoint += "?" + qs
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(headerAPIKey, cred.APIKey)
	if cred.OrgID != "" {
		req.Header.Set(headerOrgID, cred.OrgID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", redactQuery(endpoint), err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Error("failed to close response body", "error", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", redactQuery(endpoint), err)
	}

	r := &response{url: redactQuery(endpoint), body: body, status: resp.StatusCode}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{Status: r.status, URL: r.url, Body: excerpt(body)}
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, &UpstreamError{Status: r.status, URL: r.url, Reason: "empty response body"}
	}
	return r, nil
}

// redactQuery strips the query string from endpoint.
func redactQuery(endpoint string) string {
	if i := strings.IndexByte(endpoint, '?'); i >= 0 {
		return endpoint[:i]
	}
	return endpoint
}
