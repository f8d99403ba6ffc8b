// AngelaMos | 2026
// client.go

package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/cenkalti/backoff/v4"

	"github.com/anujtyagi85/cleanintel-loader/internal/config"
)

// Page is one page of the Contracts Finder OCDS search response. The
// API has shipped results under different keys over time, so all the
// observed spellings are kept.
type Page struct {
	Records    []json.RawMessage `json:"records"`
	Releases   []json.RawMessage `json:"releases"`
	Items      []json.RawMessage `json:"items"`
	TotalPages int               `json:"totalPages"`
}

// Notices returns whichever result collection the response carried.
func (p *Page) Notices() []json.RawMessage {
	switch {
	case len(p.Records) > 0:
		return p.Records
	case len(p.Releases) > 0:
		return p.Releases
	default:
		return p.Items
	}
}

type Client struct {
	baseURL    string
	pageSize   int
	maxRetries int
	http       *http.Client
}

func NewClient(cfg config.FeedConfig) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		pageSize:   cfg.PageSize,
		maxRetries: cfg.MaxRetries,
		http: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// FetchPage retrieves one page of open opportunity notices, newest
// first, retrying transient failures with exponential backoff.
func (c *Client) FetchPage(ctx context.Context, page int) (*Page, error) {
	params := url.Values{}
	params.Set("order", "desc")
	params.Set("sortType", "publishedDate")
	params.Set("page", strconv.Itoa(page))
	params.Set("pageSize", strconv.Itoa(c.pageSize))
	params.Set("status", "Open")
	params.Set("type", "Opportunity")

	endpoint := c.baseURL + "?" + params.Encode()

	operation := func() (*Page, error) {
		return c.fetch(ctx, endpoint)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(
			backoff.NewExponentialBackOff(),
			uint64(c.maxRetries),
		),
		ctx,
	)

	result, err := backoff.RetryWithData(operation, policy)
	if err != nil {
		return nil, fmt.Errorf("fetch page %d: %w", page, err)
	}

	return result, nil
}

func (c *Client) fetch(ctx context.Context, endpoint string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf(
			"unexpected status %d: %s",
			resp.StatusCode,
			string(body),
		)
		// Client errors will not heal on retry; server errors and
		// rate limiting might.
		if resp.StatusCode >= 400 && resp.StatusCode < 500 &&
			resp.StatusCode != http.StatusTooManyRequests {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	var page Page
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &page, nil
}
