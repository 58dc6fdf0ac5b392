// Package jina provides a client for the Jina AI reader and search API.
package jina

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/internal/resilience"
)

// Client defines the Jina AI Reader operations.
type Client interface {
	// Read fetches a URL via Jina AI Reader. Content is markdown unless
	// another return format is requested.
	Read(ctx context.Context, targetURL string, opts ...ReadOption) (*ReadResponse, error)
	// Search performs a web search via Jina AI Search and returns results.
	Search(ctx context.Context, query string, opts ...SearchOption) (*SearchResponse, error)
}

// ReadResponse is the parsed Jina API response.
type ReadResponse struct {
	Code int      `json:"code"`
	Data ReadData `json:"data"`
}

// ReadData holds the content from Jina.
type ReadData struct {
	Title   string    `json:"title"`
	URL     string    `json:"url"`
	Content string    `json:"content"`
	HTML    string    `json:"html,omitempty"`
	Usage   ReadUsage `json:"usage"`
}

// ReadUsage tracks token consumption.
type ReadUsage struct {
	Tokens int `json:"tokens"`
}

// SearchResponse is the parsed Jina Search API response.
type SearchResponse struct {
	Code int            `json:"code"`
	Data []SearchResult `json:"data"`
}

// SearchResult represents a single search result.
type SearchResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Content     string `json:"content"`
	Description string `json:"description"`
}

// Body returns the rendered HTML when present, else the content field.
func (d ReadData) Body() string {
	if d.HTML != "" {
		return d.HTML
	}
	return d.Content
}

// ReadOption configures a read request.
type ReadOption func(*readOpts)

type readOpts struct {
	returnFormat string
}

// WithReturnFormat selects the reader output: "markdown" (default), "html",
// "text" or "screenshot".
func WithReturnFormat(format string) ReadOption {
	return func(o *readOpts) {
		o.returnFormat = format
	}
}

// SearchOption configures a search request.
type SearchOption func(*searchOpts)

type searchOpts struct {
	siteFilter string
	count      int
}

// WithCount caps the number of results returned.
func WithCount(n int) SearchOption {
	return func(o *searchOpts) {
		o.count = n
	}
}

// WithSiteFilter restricts search results to a specific domain.
func WithSiteFilter(domain string) SearchOption {
	return func(o *searchOpts) {
		o.siteFilter = domain
	}
}

// Option configures the Jina client.
type Option func(*httpClient)

// WithBaseURL overrides the reader endpoint.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		if url != "" {
			c.baseURL = strings.TrimRight(url, "/")
		}
	}
}

// WithSearchBaseURL overrides the search endpoint.
func WithSearchBaseURL(url string) Option {
	return func(c *httpClient) {
		if url != "" {
			c.searchBaseURL = strings.TrimRight(url, "/")
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRetry replaces the retry policy applied to 429 and 5xx replies.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

type httpClient struct {
	apiKey        string
	baseURL       string
	searchBaseURL string
	http          *http.Client
	retry         resilience.RetryConfig
}

// NewClient creates a Jina client for the reader and search endpoints.
func NewClient(apiKey string, opts ...Option) Client {
	retry := resilience.DefaultRetryConfig()
	retry.InitialBackoff = time.Second
	retry.OnRetry = resilience.RetryLogger("jina", "request")

	c := &httpClient{
		apiKey:        apiKey,
		baseURL:       "https://r.jina.ai",
		searchBaseURL: "https://s.jina.ai",
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		retry: retry,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type reply struct {
	status int
	body   []byte
}

// get issues a GET, retrying transient statuses and transport failures.
// Any other status is returned to the caller to interpret.
func (c *httpClient) get(ctx context.Context, reqURL string, header http.Header) (reply, error) {
	return resilience.DoVal(ctx, c.retry, func(ctx context.Context) (reply, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return reply{}, eris.Wrap(err, "jina: create request")
		}
		req.Header = header.Clone()

		resp, err := c.http.Do(req)
		if err != nil {
			return reply{}, eris.Wrap(err, "jina: send request")
		}
		defer func() { _ = resp.Body.Close() }()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return reply{}, resilience.NewTransientError(eris.Wrap(err, "jina: read response body"), resp.StatusCode)
		}
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return reply{}, resilience.StatusError("jina", resp.StatusCode, string(body))
		}
		return reply{status: resp.StatusCode, body: body}, nil
	})
}

func (c *httpClient) header() http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+c.apiKey)
	h.Set("Accept", "application/json")
	return h
}

func (c *httpClient) Read(ctx context.Context, targetURL string, opts ...ReadOption) (*ReadResponse, error) {
	ro := &readOpts{returnFormat: "markdown"}
	for _, opt := range opts {
		opt(ro)
	}

	h := c.header()
	h.Set("X-Return-Format", ro.returnFormat)

	r, err := c.get(ctx, c.baseURL+"/"+targetURL, h)
	if err != nil {
		return nil, eris.Wrap(err, "jina: read")
	}
	if r.status != http.StatusOK {
		return nil, resilience.StatusError("jina", r.status, string(r.body))
	}

	var result ReadResponse
	if err := json.Unmarshal(r.body, &result); err != nil {
		return nil, eris.Wrap(err, "jina: unmarshal response")
	}
	return &result, nil
}

func (c *httpClient) Search(ctx context.Context, query string, opts ...SearchOption) (*SearchResponse, error) {
	so := &searchOpts{}
	for _, opt := range opts {
		opt(so)
	}

	reqURL := c.searchBaseURL + "/" + url.QueryEscape(query)
	params := url.Values{}
	if so.siteFilter != "" {
		params.Set("site", so.siteFilter)
	}
	if so.count > 0 {
		params.Set("count", strconv.Itoa(so.count))
	}
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	r, err := c.get(ctx, reqURL, c.header())
	if err != nil {
		return nil, eris.Wrap(err, "jina: search")
	}

	// 422 means the query had no results.
	if r.status == http.StatusUnprocessableEntity {
		return &SearchResponse{Code: r.status}, nil
	}
	if r.status != http.StatusOK {
		return nil, resilience.StatusError("jina", r.status, string(r.body))
	}

	var result SearchResponse
	if err := json.Unmarshal(r.body, &result); err != nil {
		return nil, eris.Wrap(err, "jina: unmarshal search response")
	}
	if so.count > 0 && len(result.Data) > so.count {
		result.Data = result.Data[:so.count]
	}
	return &result, nil
}
