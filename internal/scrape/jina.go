package scrape

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/internal/model"
	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/internal/resilience"
	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/pkg/jina"
)

// errUnusablePage marks a reply that arrived but holds a near-empty or
// challenge page. It moves the chain on without counting against the breaker.
var errUnusablePage = eris.New("jina: response needs fallback")

// JinaAdapter renders pages through Jina Reader, asking for HTML so the
// signal extractor sees links as well as text. After 3 consecutive failures
// the tier is skipped for 60s.
type JinaAdapter struct {
	client  jina.Client
	breaker *resilience.CircuitBreaker
}

// NewJinaAdapter wraps a Jina client.
func NewJinaAdapter(client jina.Client) *JinaAdapter {
	cfg := resilience.FromCircuitConfig(3, 60*time.Second)
	cfg.ShouldTrip = breakerFailure
	cfg.OnStateChange = func(from, to resilience.CircuitState) {
		zap.L().Warn("scrape: jina circuit breaker",
			zap.Stringer("from", from),
			zap.Stringer("to", to),
		)
	}
	return &JinaAdapter{client: client, breaker: resilience.NewCircuitBreaker(cfg)}
}

func (j *JinaAdapter) Name() string { return "jina" }

// Supports is false while the breaker is open.
func (j *JinaAdapter) Supports(_ string) bool {
	return j.breaker.Allowed()
}

// Fetch reads link through Jina. PDFs are not handled: Jina returns their
// text, not their bytes.
func (j *JinaAdapter) Fetch(ctx context.Context, link string, kind model.ContentKind) (*model.RawDocument, error) {
	if kind == model.ContentPDF {
		return nil, eris.New("jina: pdf documents not supported")
	}

	body, err := resilience.ExecuteVal(ctx, j.breaker, func(ctx context.Context) (string, error) {
		resp, err := j.client.Read(ctx, link, jina.WithReturnFormat("html"))
		if err != nil {
			return "", err
		}
		if resp == nil || (resp.Code != 0 && resp.Code != 200) {
			code := 0
			if resp != nil {
				code = resp.Code
			}
			return "", eris.Errorf("jina: reply code %d", code)
		}
		if needsFallback(resp) {
			return "", errUnusablePage
		}
		return resp.Data.Body(), nil
	})
	if err != nil {
		return nil, eris.Wrap(err, "jina: read")
	}
	return &model.RawDocument{URL: link, Kind: model.ContentHTML, Body: []byte(body), Source: j.Name()}, nil
}

// breakerFailure counts transport and HTTP errors. Unusable pages and
// cancellation by the caller say nothing about Jina's health.
func breakerFailure(err error) bool {
	switch {
	case errors.Is(err, errUnusablePage),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}

var challengeSignatures = []string{
	"checking your browser",
	"enable javascript",
	"please enable cookies",
	"access denied",
	"403 forbidden",
	"just a moment",
	"attention required",
}

// needsFallback reports whether a Jina response is an error, near-empty, or
// a challenge page that Jina rendered instead of the target.
func needsFallback(resp *jina.ReadResponse) bool {
	if resp == nil {
		return true
	}
	if resp.Code != 0 && resp.Code != 200 {
		return true
	}

	content := strings.TrimSpace(resp.Data.Body())
	if len(content) < 100 {
		return true
	}
	if len(content) >= 2000 {
		return false
	}

	lower := strings.ToLower(content)
	for _, sig := range challengeSignatures {
		if strings.Contains(lower, sig) {
			return true
		}
	}
	return false
}
