package firecrawl

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScrape(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/scrape", r.URL.Path)
		assert.Equal(t, "Bearer fc-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req ScrapeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "https://solar-alliance.example.org/contact", req.URL)
		assert.Equal(t, []string{FormatRawHTML}, req.Formats)
		assert.Equal(t, 3000, req.WaitFor)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"success": true,
			"data": {
				"rawHtml": "<html><body>Contact jane@example.org</body></html>",
				"metadata": {"title": "Contact", "sourceURL": "https://solar-alliance.example.org/contact", "statusCode": 200}
			}
		}`))
	}))
	defer srv.Close()

	c := NewClient("fc-key", WithBaseURL(srv.URL))
	resp, err := c.Scrape(context.Background(), ScrapeRequest{
		URL:     "https://solar-alliance.example.org/contact",
		Formats: []string{FormatRawHTML},
		WaitFor: 3000,
	})

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "<html><body>Contact jane@example.org</body></html>", resp.Data.Markup())
	assert.Equal(t, "Contact", resp.Data.Metadata.Title)
	assert.Equal(t, 200, resp.Data.Metadata.StatusCode)
}

func TestPageData_Markup(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "<p>clean</p>", PageData{HTML: "<p>clean</p>"}.Markup())
	assert.Equal(t, "<html>raw</html>", PageData{HTML: "<p>clean</p>", RawHTML: "<html>raw</html>"}.Markup())
	assert.Empty(t, PageData{Markdown: "# md"}.Markup())
}

func TestScrape_APIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"error":"insufficient credits"}`))
	}))
	defer srv.Close()

	c := NewClient("fc-key", WithBaseURL(srv.URL))
	_, err := c.Scrape(context.Background(), ScrapeRequest{URL: "https://a.test"})

	require.Error(t, err)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusPaymentRequired, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "insufficient credits")
}

func TestScrape_MalformedJSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{broken`))
	}))
	defer srv.Close()

	c := NewClient("fc-key", WithBaseURL(srv.URL))
	_, err := c.Scrape(context.Background(), ScrapeRequest{URL: "https://a.test"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestScrape_ContextCancellation(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient("fc-key", WithBaseURL(srv.URL))
	_, err := c.Scrape(ctx, ScrapeRequest{URL: "https://a.test"})
	require.Error(t, err)
}

func TestAPIError_Error(t *testing.T) {
	t.Parallel()
	err := &APIError{StatusCode: 500, Body: "boom"}
	assert.Equal(t, "firecrawl: HTTP 500: boom", err.Error())
}

func TestNewClient_Options(t *testing.T) {
	t.Parallel()

	hc := NewClient("k").(*httpClient)
	assert.Equal(t, defaultBaseURL, hc.baseURL)

	custom := &http.Client{}
	hc = NewClient("k", WithHTTPClient(custom), WithBaseURL("https://fc.test")).(*httpClient)
	assert.Same(t, custom, hc.http)
	assert.Equal(t, "https://fc.test", hc.baseURL)
}

func TestWithBaseURL_TrimAndIgnoreEmpty(t *testing.T) {
	t.Parallel()

	hc := NewClient("k", WithBaseURL("")).(*httpClient)
	assert.Equal(t, defaultBaseURL, hc.baseURL)

	hc = NewClient("k", WithBaseURL("https://fc.test/v2/")).(*httpClient)
	assert.Equal(t, "https://fc.test/v2", hc.baseURL)
}
