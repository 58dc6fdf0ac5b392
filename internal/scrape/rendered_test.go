package scrape

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/internal/model"
)

type stubRenderer struct {
	html     string
	pdf      []byte
	err      error
	settle   time.Duration
	deadline bool
}

func (s *stubRenderer) RenderHTML(ctx context.Context, _ string, settle time.Duration) (string, error) {
	s.settle = settle
	_, s.deadline = ctx.Deadline()
	return s.html, s.err
}

func (s *stubRenderer) FetchBytes(ctx context.Context, _ string) ([]byte, error) {
	_, s.deadline = ctx.Deadline()
	return s.pdf, s.err
}

func TestRenderedFetcher_HTML(t *testing.T) {
	r := &stubRenderer{html: "<html><body>Rendered by JS</body></html>"}
	f := NewRenderedFetcher(r, 30*time.Second, 3*time.Second)

	doc, err := f.Fetch(context.Background(), "https://spa.example.org/team", model.ContentHTML)
	require.NoError(t, err)
	assert.Equal(t, "rendered", doc.Source)
	assert.Equal(t, model.ContentHTML, doc.Kind)
	assert.Equal(t, "<html><body>Rendered by JS</body></html>", string(doc.Body))
	assert.Equal(t, 3*time.Second, r.settle)
	assert.True(t, r.deadline, "navigation must be bounded")
}

func TestRenderedFetcher_PDF(t *testing.T) {
	r := &stubRenderer{pdf: []byte("%PDF-1.7")}
	f := NewRenderedFetcher(r, 30*time.Second, time.Second)

	doc, err := f.Fetch(context.Background(), "https://example.org/report.pdf", model.ContentPDF)
	require.NoError(t, err)
	assert.Equal(t, model.ContentPDF, doc.Kind)
	assert.Equal(t, []byte("%PDF-1.7"), doc.Body)
}

func TestRenderedFetcher_Error(t *testing.T) {
	f := NewRenderedFetcher(&stubRenderer{err: errors.New("net::ERR_NAME_NOT_RESOLVED")}, time.Second, 0)

	_, err := f.Fetch(context.Background(), "https://gone.example.org", model.ContentHTML)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ERR_NAME_NOT_RESOLVED")
}
