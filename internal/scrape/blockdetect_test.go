package scrape

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectBlock(t *testing.T) {
	t.Parallel()

	bigContact := "<html><body><h1>Contact the Solar Recycling Coalition</h1>" +
		strings.Repeat("<p>Our board meets monthly to review partner applications.</p>", 200) +
		`<form><div class="g-recaptcha"></div></form></body></html>`

	tests := []struct {
		name   string
		status int
		header http.Header
		body   string
		want   BlockType
	}{
		{"cloudflare ray header", 403, http.Header{"Cf-Ray": {"abc123"}}, "", BlockCloudflare},
		{"cloudflare server 503", 503, http.Header{"Server": {"cloudflare"}}, "", BlockCloudflare},
		{"challenge body", 200, http.Header{}, "<html><title>Just a moment...</title>Checking your browser</html>", BlockCloudflare},
		{"small captcha page", 200, http.Header{}, "<html><body>Please complete the reCAPTCHA to continue</body></html>", BlockCaptcha},
		{"js shell", 200, http.Header{}, "<html><noscript>Enable JavaScript to continue</noscript></html>", BlockJSShell},
		{"meta refresh", 200, http.Header{}, `<html><meta http-equiv="refresh" content="0;url=/app"></html>`, BlockJSShell},
		{"clean page", 200, http.Header{}, "<html><body>Contact: jane@example.org</body></html>", BlockNone},
		{"large page with captcha form", 200, http.Header{}, bigContact, BlockNone},
		{"403 without cloudflare", 403, http.Header{}, "<html>Forbidden</html>", BlockNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			resp := &http.Response{StatusCode: tt.status, Header: tt.header}
			blocked, bt := DetectBlock(resp, []byte(tt.body))
			assert.Equal(t, tt.want != BlockNone, blocked)
			assert.Equal(t, tt.want, bt)
		})
	}
}

func TestDetectBlock_NilResponse(t *testing.T) {
	blocked, bt := DetectBlock(nil, []byte("captcha"))
	assert.False(t, blocked)
	assert.Equal(t, BlockNone, bt)
}
