package ocr

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/internal/config"
	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/internal/resilience"
)

// minimalPDF builds a valid single-font PDF whose pages draw the given
// strings with Tj.
func minimalPDF(pages ...string) []byte {
	var objs []string
	kids := make([]string, len(pages))
	// 1: catalog, 2: pages, 3: font, then page/content pairs.
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	objs = append(objs,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	)
	for i, text := range pages {
		stream := "BT\n/F1 12 Tf\n72 712 Td\n(" + text + ") Tj\nET"
		if text == "" {
			stream = "q\nQ"
		}
		objs = append(objs,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
		)
	}

	var b strings.Builder
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, obj := range objs {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return []byte(b.String())
}

func TestNewExtractor_DefaultIsPdfCPU(t *testing.T) {
	ext, err := NewExtractor(config.OCRConfig{})
	require.NoError(t, err)
	assert.IsType(t, &PdfCPU{}, ext)

	ext, err = NewExtractor(config.OCRConfig{Provider: "pdfcpu"})
	require.NoError(t, err)
	assert.IsType(t, &PdfCPU{}, ext)
}

func TestNewExtractor_Local(t *testing.T) {
	ext, err := NewExtractor(config.OCRConfig{Provider: "local", PdfToTextPath: "/usr/bin/pdftotext"})
	require.NoError(t, err)
	assert.IsType(t, &PdfToText{}, ext)
}

func TestNewExtractor_MistralMissingKey(t *testing.T) {
	_, err := NewExtractor(config.OCRConfig{Provider: "mistral"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mistral provider requires ocr.mistral_key")
}

func TestNewExtractor_MistralWithKey(t *testing.T) {
	ext, err := NewExtractor(config.OCRConfig{Provider: "mistral", MistralKey: "test-key"})
	require.NoError(t, err)
	assert.IsType(t, &MistralOCR{}, ext)
}

func TestNewExtractor_UnknownProvider(t *testing.T) {
	_, err := NewExtractor(config.OCRConfig{Provider: "unknown"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown provider "unknown"`)
}

func TestPdfCPU_ExtractText(t *testing.T) {
	pdf := minimalPDF("Contact: jane@example.org", "Phone +1 555 010 9999")

	text, err := NewPdfCPU().ExtractText(context.Background(), pdf)
	require.NoError(t, err)
	assert.Equal(t, "Contact: jane@example.org\nPhone +1 555 010 9999", text)
}

func TestPdfCPU_EmptyPageYieldsEmptyLine(t *testing.T) {
	pdf := minimalPDF("first", "", "third")

	text, err := NewPdfCPU().ExtractText(context.Background(), pdf)
	require.NoError(t, err)
	assert.Equal(t, "first\n\nthird", text)
}

func TestPdfCPU_InvalidInput(t *testing.T) {
	_, err := NewPdfCPU().ExtractText(context.Background(), []byte("not a pdf"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pdfcpu read")

	_, err = NewPdfCPU().ExtractText(context.Background(), nil)
	require.Error(t, err)
}

func TestTextFromStream(t *testing.T) {
	stream := []byte("BT\n/F1 12 Tf\n72 712 Td\n(Hello) Tj\n0 -14 Td\n[(Wor) -20 (ld)] TJ\nT*\n(next \\(line\\)) '\nET")
	assert.Equal(t, "Hello World next (line)", textFromStream(stream))
}

func TestTextFromStream_Layouts(t *testing.T) {
	tests := []struct {
		name   string
		stream string
		want   string
	}{
		{"single line", "BT /F1 12 Tf 72 712 Td (Hello Jane) Tj ET", "Hello Jane"},
		{"hex string", "BT\n<48656c6c6f> Tj\nET", "Hello"},
		{"hex odd digits", "BT <4A616E6> Tj ET", "Jan`"},
		{"utf16 hex", "BT <FEFF004A0061006E0065> Tj ET", "Jane"},
		{"octal latin1", `BT (Caf\351) Tj ET`, "Café"},
		{"nested parens", "BT (a (b) c) Tj ET", "a (b) c"},
		{"tj kerning gap", "BT [(Jane)-300(Doe)] TJ ET", "Jane Doe"},
		{"mixed array", "BT [(Ac) 12 <6D65>] TJ ET", "Acme"},
		{"dict operands skipped", "/P <</MCID 0>> BDC BT (x) Tj ET EMC", "x"},
		{"string without show operator", "BT (hidden) Tf ET", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, textFromStream([]byte(tt.stream)))
		})
	}
}

func TestDecodePDFString(t *testing.T) {
	assert.Equal(t, "a b", decodePDFString([]byte(`a\040b`)))
	assert.Equal(t, "(x)", decodePDFString([]byte(`\(x\)`)))
	assert.Equal(t, "tab\there", decodePDFString([]byte(`tab\there`)))
	assert.Equal(t, `back\slash`, decodePDFString([]byte(`back\\slash`)))
}

func TestPdfToText_BinPath(t *testing.T) {
	p := NewPdfToText("")
	assert.Equal(t, "pdftotext", p.binPath)

	p = NewPdfToText("/custom/pdftotext")
	assert.Equal(t, "/custom/pdftotext", p.binPath)
}

func TestPdfToText_ExtractText_BinaryNotFound(t *testing.T) {
	p := NewPdfToText("/nonexistent/pdftotext")
	_, err := p.ExtractText(context.Background(), []byte("%PDF-1.4"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pdftotext failed")
}

func TestPdfToText_ExtractText_Success(t *testing.T) {
	// Fake pdftotext that prints two pages separated by a form feed.
	tmpDir := t.TempDir()
	fakeBin := filepath.Join(tmpDir, "pdftotext")
	script := "#!/bin/sh\nprintf 'Page one\\fPage two\\f'\n"
	require.NoError(t, os.WriteFile(fakeBin, []byte(script), 0755))

	p := NewPdfToText(fakeBin)
	text, err := p.ExtractText(context.Background(), []byte("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, "Page one\nPage two", text)
}

func TestMistralOCR_DefaultModel(t *testing.T) {
	m := NewMistralOCR("key", "")
	assert.Equal(t, defaultMistralModel, m.model)
	assert.Equal(t, mistralOCREndpoint, m.endpoint)
}

func newTestMistral(url string) *MistralOCR {
	return &MistralOCR{
		apiKey:   "test-key",
		model:    "test-model",
		endpoint: url,
		client:   &http.Client{},
		retry: resilience.RetryConfig{
			MaxAttempts:    3,
			InitialBackoff: time.Millisecond,
			MaxBackoff:     5 * time.Millisecond,
			Multiplier:     2,
		},
	}
}

func TestMistralOCR_ExtractText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req mistralOCRRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.Equal(t, "document_url", req.Document.Type)
		assert.Contains(t, req.Document.DocumentURL, "data:application/pdf;base64,")

		resp := mistralOCRResponse{
			Pages: []mistralOCRPage{
				{Index: 0, Markdown: "Page one content"},
				{Index: 1, Markdown: ""},
				{Index: 2, Markdown: "Page three content\n"},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp) //nolint:errcheck
	}))
	defer srv.Close()

	text, err := newTestMistral(srv.URL).ExtractText(context.Background(), []byte("%PDF-1.4 test content"))
	require.NoError(t, err)
	assert.Equal(t, "Page one content\n\nPage three content", text)
}

func TestMistralOCR_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid api key"}`)) //nolint:errcheck
	}))
	defer srv.Close()

	_, err := newTestMistral(srv.URL).ExtractText(context.Background(), []byte("%PDF-1.4 test"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ocr: mistral: status 401")
	assert.False(t, resilience.IsTransient(err))
}

func TestMistralOCR_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{invalid json`)) //nolint:errcheck
	}))
	defer srv.Close()

	_, err := newTestMistral(srv.URL).ExtractText(context.Background(), []byte("%PDF-1.4 test"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode mistral response")
}

func TestMistralOCR_EmptyInput(t *testing.T) {
	_, err := NewMistralOCR("key", "").ExtractText(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty PDF")
}

func TestMistralOCR_RetriesUnavailable(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"pages":[{"index":0,"markdown":"Contact: jane@acme.org"}]}`))
	}))
	defer srv.Close()

	text, err := newTestMistral(srv.URL).ExtractText(context.Background(), []byte("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, "Contact: jane@acme.org", text)
	assert.Equal(t, int32(2), calls.Load())
}

func TestMistralOCR_PageOrderAndImages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"pages":[
			{"index":1,"markdown":"second ![img-0.jpeg](img-0.jpeg)"},
			{"index":0,"markdown":"first"}]}`))
	}))
	defer srv.Close()

	text, err := newTestMistral(srv.URL).ExtractText(context.Background(), []byte("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond", text)
}
