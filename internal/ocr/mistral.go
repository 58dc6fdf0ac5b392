package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/internal/resilience"
)

const (
	mistralOCREndpoint  = "https://api.mistral.ai/v1/ocr"
	defaultMistralModel = "mistral-ocr-latest"
)

// markdownImage matches inline image references such as ![img-0.jpeg](img-0.jpeg),
// which carry no contact text.
var markdownImage = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)

// MistralOCR sends PDFs to the Mistral OCR API. It is the option for
// scanned documents whose pages carry no text layer.
type MistralOCR struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
	retry    resilience.RetryConfig
}

// NewMistralOCR creates a MistralOCR extractor. If model is empty, the default is used.
func NewMistralOCR(apiKey, model string) *MistralOCR {
	if model == "" {
		model = defaultMistralModel
	}
	retry := resilience.DefaultRetryConfig()
	retry.OnRetry = resilience.RetryLogger("mistral", "ocr")
	return &MistralOCR{
		apiKey:   apiKey,
		model:    model,
		endpoint: mistralOCREndpoint,
		client:   &http.Client{Timeout: 3 * time.Minute},
		retry:    retry,
	}
}

type mistralOCRRequest struct {
	Model    string             `json:"model"`
	Document mistralOCRDocument `json:"document"`
}

type mistralOCRDocument struct {
	Type        string `json:"type"`
	DocumentURL string `json:"document_url"`
}

type mistralOCRResponse struct {
	Pages []mistralOCRPage `json:"pages"`
}

type mistralOCRPage struct {
	Index    int    `json:"index"`
	Markdown string `json:"markdown"`
}

// ExtractText uploads pdf as a data URL and returns the page texts in page
// order, joined by newlines. Rate limits and 5xx replies are retried.
func (m *MistralOCR) ExtractText(ctx context.Context, pdf []byte) (string, error) {
	if len(pdf) == 0 {
		return "", eris.New("ocr: empty PDF")
	}

	payload, err := json.Marshal(mistralOCRRequest{
		Model: m.model,
		Document: mistralOCRDocument{
			Type:        "document_url",
			DocumentURL: "data:application/pdf;base64," + base64.StdEncoding.EncodeToString(pdf),
		},
	})
	if err != nil {
		return "", eris.Wrap(err, "ocr: encode mistral request")
	}

	pages, err := resilience.DoVal(ctx, m.retry, func(ctx context.Context) ([]mistralOCRPage, error) {
		return m.post(ctx, payload)
	})
	if err != nil {
		return "", err
	}

	slices.SortStableFunc(pages, func(a, b mistralOCRPage) int { return a.Index - b.Index })
	texts := make([]string, len(pages))
	for i, p := range pages {
		texts[i] = strings.TrimSpace(markdownImage.ReplaceAllString(p.Markdown, ""))
	}
	return strings.Join(texts, "\n"), nil
}

func (m *MistralOCR) post(ctx context.Context, payload []byte) ([]mistralOCRPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, eris.Wrap(err, "ocr: build mistral request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "ocr: mistral request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, resilience.StatusError("ocr: mistral", resp.StatusCode, string(body))
	}

	var out mistralOCRResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, eris.Wrap(err, "ocr: decode mistral response")
	}
	return out.Pages, nil
}
