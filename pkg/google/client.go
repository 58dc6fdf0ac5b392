// Package google queries the Custom Search JSON API.
package google

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"
	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// maxNum is the largest page the API returns per request.
const maxNum = 10

// Client performs Custom Search queries.
type Client interface {
	Search(ctx context.Context, query string, num int) ([]Item, error)
}

// Item is one organic result.
type Item struct {
	Title   string
	Link    string
	Snippet string
}

// Option configures the client.
type Option func(*settings)

type settings struct {
	opts []option.ClientOption
}

// WithBaseURL overrides the API endpoint.
func WithBaseURL(url string) Option {
	return func(s *settings) {
		if url != "" {
			s.opts = append(s.opts, option.WithEndpoint(url))
		}
	}
}

type cseClient struct {
	svc *customsearch.Service
	cx  string
}

// NewClient creates a Custom Search client for the engine cx.
func NewClient(ctx context.Context, apiKey, cx string, opts ...Option) (Client, error) {
	s := &settings{opts: []option.ClientOption{option.WithAPIKey(apiKey)}}
	for _, o := range opts {
		o(s)
	}
	svc, err := customsearch.NewService(ctx, s.opts...)
	if err != nil {
		return nil, eris.Wrap(err, "google: create service")
	}
	return &cseClient{svc: svc, cx: cx}, nil
}

// Search returns up to num results (capped at 10) in ranking order.
func (c *cseClient) Search(ctx context.Context, query string, num int) ([]Item, error) {
	num = min(max(num, 1), maxNum)

	res, err := c.svc.Cse.List().Cx(c.cx).Q(query).Num(int64(num)).Context(ctx).Do()
	if err != nil {
		return nil, eris.Wrapf(err, "google: search %q", query)
	}

	items := make([]Item, 0, len(res.Items))
	for _, r := range res.Items {
		if r == nil || r.Link == "" {
			continue
		}
		items = append(items, Item{Title: r.Title, Link: r.Link, Snippet: r.Snippet})
	}
	return items, nil
}

// StatusCode returns the HTTP status of a Google API error in err's chain,
// or 0.
func StatusCode(err error) int {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code
	}
	return 0
}
