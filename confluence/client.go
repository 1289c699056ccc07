// Package confluence reads spaces and pages from the Confluence Cloud REST API (v2).
package confluence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/foomo/confluence-export/errdefs"
	"github.com/foomo/confluence-export/service/vo"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"
)

const pageLimit = 50

// Credentials authenticate against a Confluence Cloud site. BaseURL wins over
// SiteName, which expands to https://{SiteName}.atlassian.net.
type Credentials struct {
	SiteName string
	BaseURL  string
	Email    string
	APIToken string
}

func (c Credentials) Complete() bool {
	return (c.SiteName != "" || c.BaseURL != "") && c.Email != "" && c.APIToken != ""
}

func (c Credentials) baseURL() string {
	if c.BaseURL != "" {
		return strings.TrimRight(c.BaseURL, "/")
	}
	return "https://" + c.SiteName + ".atlassian.net"
}

type Client struct {
	l           *zap.Logger
	httpClient  *http.Client
	credentials Credentials
	attempts    uint
	delay       time.Duration

	schemasOnce sync.Once
	schemas     schemas
	schemasErr  error
}

type Option func(c *Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.l = l
		}
	}
}

// WithRetry sets how often a request is tried and the initial backoff delay.
func WithRetry(attempts uint, delay time.Duration) Option {
	return func(c *Client) {
		c.attempts = max(attempts, 1)
		c.delay = delay
	}
}

func NewClient(credentials Credentials, opts ...Option) *Client {
	c := &Client{
		l:           zap.NewNop(),
		httpClient:  http.DefaultClient,
		credentials: credentials,
		attempts:    3,
		delay:       500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type paginated[T any] struct {
	Results []T `json:"results"`
	Next    *struct {
		Cursor string `json:"cursor"`
	} `json:"next,omitempty"`
	Links struct {
		Next string `json:"next"`
	} `json:"_links"`
}

func (c *Client) GetSpaceDetails(ctx context.Context, spaceKey string) (*vo.Space, error) {
	if !c.credentials.Complete() {
		return nil, errdefs.NewAuthMissing("Confluence space lookup")
	}

	var list paginated[vo.Space]
	if err := c.get(ctx, "/wiki/api/v2/spaces?keys="+url.QueryEscape(spaceKey), schemaSpaceList, "space details", &list); err != nil {
		return nil, err
	}
	if len(list.Results) == 0 {
		return nil, errdefs.NewNotFound(fmt.Sprintf("Confluence space with key %q not found.", spaceKey))
	}
	spaceID := list.Results[0].ID
	c.l.Debug("resolved space", zap.String("spaceKey", spaceKey), zap.String("spaceID", spaceID))

	var space vo.Space
	if err := c.get(ctx, "/wiki/api/v2/spaces/"+url.PathEscape(spaceID), schemaSpace, "space details", &space); err != nil {
		return nil, err
	}
	return &space, nil
}

// ListAllPagesInSpace follows the result cursor until every current page of
// the space has been read. A cursor that comes back twice is an error.
func (c *Client) ListAllPagesInSpace(ctx context.Context, spaceID string) ([]vo.PageRecord, error) {
	if !c.credentials.Complete() {
		return nil, errdefs.NewAuthMissing("Confluence page listing")
	}

	first := fmt.Sprintf("/wiki/api/v2/spaces/%s/pages?limit=%d&status=current", url.PathEscape(spaceID), pageLimit)
	var pages []vo.PageRecord
	seen := map[string]bool{}
	for next := first; next != ""; {
		if seen[next] {
			return nil, errdefs.NewAPIError("Confluence API returned a page cursor twice for page listing.", http.StatusInternalServerError, nil)
		}
		seen[next] = true

		var batch paginated[vo.PageRecord]
		if err := c.get(ctx, next, schemaPageList, "page listing", &batch); err != nil {
			return nil, err
		}
		pages = append(pages, batch.Results...)
		c.l.Debug("fetched pages", zap.Int("batch", len(batch.Results)), zap.Int("total", len(pages)))

		switch {
		case batch.Next != nil && batch.Next.Cursor != "":
			next = first + "&cursor=" + url.QueryEscape(batch.Next.Cursor)
		case batch.Links.Next != "":
			next = batch.Links.Next
		default:
			next = ""
		}
	}
	return pages, nil
}

func (c *Client) GetPageDetail(ctx context.Context, pageID string) (*vo.PageDetail, error) {
	if !c.credentials.Complete() {
		return nil, errdefs.NewAuthMissing("Confluence page details lookup")
	}

	var page vo.PageDetail
	path := "/wiki/api/v2/pages/" + url.PathEscape(pageID)
	if err := c.get(ctx, path+"?body-format=storage&include-ancestors=true", schemaPageDetail, "page details", &page); err != nil {
		return nil, err
	}
	if page.Body.Storage != nil && page.Body.Storage.Value != "" {
		return &page, nil
	}

	// pages without a storage body may still have a rendered one
	c.l.Debug("storage body empty, fetching view body", zap.String("pageID", pageID))
	var view vo.PageDetail
	if err := c.get(ctx, path+"?body-format=view", schemaPageDetail, "page details", &view); err != nil {
		return nil, err
	}
	page.Body.View = view.Body.View
	return &page, nil
}

// get fetches path, checks the response against the named schema and decodes
// it into out.
func (c *Client) get(ctx context.Context, path, schemaName, what string, out any) error {
	body, err := c.fetch(ctx, path)
	if err != nil {
		return err
	}

	invalid := func(cause error) error {
		return errdefs.NewAPIError("Invalid response structure from Confluence API for "+what+".", http.StatusInternalServerError, cause)
	}

	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return invalid(err)
	}
	schema, err := c.schema(schemaName)
	if err != nil {
		return err
	}
	if err := schema.Validate(doc); err != nil {
		c.l.Error("unexpected response structure", zap.String("path", path), zap.Error(err))
		return invalid(err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return invalid(err)
	}
	return nil
}

func (c *Client) schema(name string) (*jsonschema.Schema, error) {
	c.schemasOnce.Do(func() {
		c.schemas, c.schemasErr = loadSchemas()
	})
	if c.schemasErr != nil {
		return nil, c.schemasErr
	}
	return c.schemas[name], nil
}

// fetch issues a GET and retries transport failures, rate limiting and
// server errors with exponential backoff.
func (c *Client) fetch(ctx context.Context, path string) ([]byte, error) {
	target := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		target = c.credentials.baseURL() + path
	}

	var body []byte
	err := retry.Do(
		func() error {
			c.l.Debug("fetching", zap.String("url", target))
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("failed to create request: %w", err))
			}
			req.SetBasicAuth(c.credentials.Email, c.credentials.APIToken)
			req.Header.Set("Accept", "application/json")

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return errdefs.NewAPIError("failed to reach Confluence", 0, err)
			}
			defer resp.Body.Close()

			data, err := io.ReadAll(resp.Body)
			if err != nil {
				return errdefs.NewAPIError("failed to read response body", resp.StatusCode, err)
			}
			if err := statusError(resp.StatusCode, data); err != nil {
				return err
			}
			body = data
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(retryable),
		retry.OnRetry(func(n uint, err error) {
			c.l.Warn("retrying request", zap.String("url", target), zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
	if err != nil {
		return nil, err
	}
	return body, nil
}

func statusError(status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}
	msg := fmt.Sprintf("Confluence API request failed with status %d", status)
	if text := strings.TrimSpace(string(body)); text != "" {
		if len(text) > 200 {
			text = text[:200]
		}
		msg += ": " + text
	}
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return errdefs.NewAuthInvalid(msg, status)
	case http.StatusNotFound:
		return errdefs.NewNotFound(msg)
	default:
		return errdefs.NewAPIError(msg, status, nil)
	}
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var e *errdefs.Error
	if !errors.As(err, &e) || e.Type != errdefs.APIError {
		return false
	}
	return e.StatusCode == 0 || e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}
