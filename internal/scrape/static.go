package scrape

import (
	"context"
	"io"
	"mime"
	"net"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/net/html/charset"

	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/internal/model"
)

const defaultMaxBodyBytes = 10 << 20

// StaticFetcher performs a single GET with a bounded timeout. HTML bodies
// are transcoded to UTF-8 from whatever charset the server declared.
type StaticFetcher struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
}

// StaticOption configures a StaticFetcher.
type StaticOption func(*StaticFetcher)

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) StaticOption {
	return func(s *StaticFetcher) {
		if ua != "" {
			s.userAgent = ua
		}
	}
}

// WithMaxBodyBytes caps how much of a response body is read.
func WithMaxBodyBytes(n int64) StaticOption {
	return func(s *StaticFetcher) {
		if n > 0 {
			s.maxBytes = n
		}
	}
}

// WithStaticHTTPClient replaces the underlying HTTP client.
func WithStaticHTTPClient(hc *http.Client) StaticOption {
	return func(s *StaticFetcher) { s.client = hc }
}

// NewStaticFetcher creates a StaticFetcher whose requests give up after timeout.
func NewStaticFetcher(timeout time.Duration, opts ...StaticOption) *StaticFetcher {
	s := &StaticFetcher{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		userAgent: "Mozilla/5.0",
		maxBytes:  defaultMaxBodyBytes,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *StaticFetcher) Name() string           { return "static" }
func (s *StaticFetcher) Supports(_ string) bool { return true }

// Fetch GETs link. A non-200 status, a transport error, or an anti-bot
// interstitial is returned as an error.
func (s *StaticFetcher) Fetch(ctx context.Context, link string, kind model.ContentKind) (*model.RawDocument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, eris.Wrap(err, "static: create request")
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/pdf;q=0.9,*/*;q=0.8")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "static: fetch")
	}
	defer func() { _ = resp.Body.Close() }()

	contentType := resp.Header.Get("Content-Type")
	if isPDFContentType(contentType) {
		kind = model.ContentPDF
	}

	limited := io.LimitReader(resp.Body, s.maxBytes)
	var body []byte
	if kind == model.ContentPDF {
		body, err = io.ReadAll(limited)
	} else {
		body, err = readUTF8(limited, contentType)
	}
	if err != nil {
		return nil, eris.Wrap(err, "static: read body")
	}

	if kind == model.ContentHTML {
		if blocked, bt := DetectBlock(resp, body); blocked {
			return nil, eris.Errorf("static: blocked (%s)", bt)
		}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("static: status %d", resp.StatusCode)
	}

	return &model.RawDocument{URL: link, Kind: kind, Body: body, Source: s.Name()}, nil
}

func readUTF8(r io.Reader, contentType string) ([]byte, error) {
	// charset sniffs the first KB when the header carries no label.
	decoded, err := charset.NewReader(r, contentType)
	if err != nil {
		return nil, err
	}
	return io.ReadAll(decoded)
}

func isPDFContentType(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && mt == "application/pdf"
}
