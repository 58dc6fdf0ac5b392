package scrape

import (
	"bytes"
	"net/http"
)

// BlockType names the anti-bot interstitial a static response was served.
type BlockType string

const (
	BlockNone       BlockType = ""
	BlockCloudflare BlockType = "cloudflare"
	BlockCaptcha    BlockType = "captcha"
	BlockJSShell    BlockType = "js_shell"
)

// Interstitials are small. A full page that merely embeds a captcha widget
// on its contact form is not a block.
const interstitialMaxBytes = 8 << 10

// DetectBlock reports whether a static response is an anti-bot page rather
// than the document that was asked for. A blocked page goes to the rendered
// tier instead of signal extraction.
func DetectBlock(resp *http.Response, body []byte) (bool, BlockType) {
	if resp == nil {
		return false, BlockNone
	}

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusServiceUnavailable {
		if resp.Header.Get("Cf-Ray") != "" || resp.Header.Get("Cf-Cache-Status") != "" ||
			resp.Header.Get("Server") == "cloudflare" {
			return true, BlockCloudflare
		}
	}

	lower := bytes.ToLower(body)
	if bytes.Contains(lower, []byte("checking your browser")) ||
		bytes.Contains(lower, []byte("cf-browser-verification")) ||
		bytes.Contains(lower, []byte("cf-chl-")) {
		return true, BlockCloudflare
	}

	if len(body) > interstitialMaxBytes {
		return false, BlockNone
	}

	if bytes.Contains(lower, []byte("captcha")) {
		return true, BlockCaptcha
	}
	if bytes.Contains(lower, []byte("<noscript")) && bytes.Contains(lower, []byte("javascript")) {
		return true, BlockJSShell
	}
	if bytes.Contains(lower, []byte(`http-equiv="refresh"`)) {
		return true, BlockJSShell
	}
	return false, BlockNone
}
