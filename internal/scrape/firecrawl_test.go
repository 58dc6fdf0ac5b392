package scrape

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/internal/model"
	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/pkg/firecrawl"
	fcmocks "github.com/SOURCE-CODEcommunity/Stakeholder-Identification/pkg/firecrawl/mocks"
)

func TestFirecrawlAdapter_Fetch(t *testing.T) {
	t.Parallel()
	client := fcmocks.NewMockClient(t)
	adapter := NewFirecrawlAdapter(client, 3*time.Second)

	client.On("Scrape", mock.Anything, firecrawl.ScrapeRequest{
		URL:     "https://example.org/partners",
		Formats: []string{firecrawl.FormatRawHTML},
		WaitFor: 3000,
	}).Return(&firecrawl.ScrapeResponse{
		Success: true,
		Data: firecrawl.PageData{
			RawHTML:  "<html><body>Partners</body></html>",
			Metadata: firecrawl.Metadata{StatusCode: 200},
		},
	}, nil)

	doc, err := adapter.Fetch(context.Background(), "https://example.org/partners", model.ContentHTML)
	require.NoError(t, err)
	assert.Equal(t, "firecrawl", doc.Source)
	assert.Equal(t, "<html><body>Partners</body></html>", string(doc.Body))
}

func TestFirecrawlAdapter_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		resp *firecrawl.ScrapeResponse
		err  error
		want string
	}{
		{"client error", nil, errors.New("timeout"), "timeout"},
		{"unsuccessful", &firecrawl.ScrapeResponse{Success: false}, nil, "not successful"},
		{"upstream 404", &firecrawl.ScrapeResponse{Success: true, Data: firecrawl.PageData{
			RawHTML: "<html>gone</html>", Metadata: firecrawl.Metadata{StatusCode: 404},
		}}, nil, "status 404"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			client := fcmocks.NewMockClient(t)
			client.On("Scrape", mock.Anything, mock.Anything).Return(tt.resp, tt.err)

			_, err := NewFirecrawlAdapter(client, 0).Fetch(context.Background(), "https://example.org", model.ContentHTML)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
