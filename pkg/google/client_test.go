package google

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "solar panel recycling nonprofit partnerships", q.Get("q"))
		assert.Equal(t, "engine-123", q.Get("cx"))
		assert.Equal(t, "3", q.Get("num"))
		assert.Equal(t, "test-key", q.Get("key"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"items": [
				{"title": "Solar Recycling Alliance", "link": "https://solarrecycle.example.org", "snippet": "A nonprofit..."},
				{"title": "No link"},
				{"title": "Partners", "link": "https://example.org/partners.pdf", "snippet": "Annual report"}
			]
		}`))
	}))
	defer srv.Close()

	client, err := NewClient(context.Background(), "test-key", "engine-123", WithBaseURL(srv.URL+"/"))
	require.NoError(t, err)

	items, err := client.Search(context.Background(), "solar panel recycling nonprofit partnerships", 3)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, Item{Title: "Solar Recycling Alliance", Link: "https://solarrecycle.example.org", Snippet: "A nonprofit..."}, items[0])
	assert.Equal(t, "https://example.org/partners.pdf", items[1].Link)
}

func TestSearch_ClampsNum(t *testing.T) {
	var nums []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nums = append(nums, r.URL.Query().Get("num"))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client, err := NewClient(context.Background(), "k", "cx", WithBaseURL(srv.URL+"/"))
	require.NoError(t, err)

	for _, n := range []int{0, 25} {
		items, err := client.Search(context.Background(), "q", n)
		require.NoError(t, err)
		assert.Empty(t, items)
	}
	assert.Equal(t, []string{"1", "10"}, nums)
}

func TestSearch_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"code": 429, "message": "Quota exceeded"}}`))
	}))
	defer srv.Close()

	client, err := NewClient(context.Background(), "k", "cx", WithBaseURL(srv.URL+"/"))
	require.NoError(t, err)

	_, err = client.Search(context.Background(), "q", 3)
	require.Error(t, err)
	assert.Equal(t, http.StatusTooManyRequests, StatusCode(err))
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, 0, StatusCode(errors.New("plain")))
	assert.Equal(t, 503, StatusCode(&googleapi.Error{Code: 503}))
}
