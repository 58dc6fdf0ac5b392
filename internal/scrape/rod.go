package scrape

import (
	"context"
	"encoding/base64"
	"net/url"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const outerHTMLJS = `() => document.documentElement.outerHTML`

// fetchBase64JS downloads a URL with the page's credentials and returns the
// body base64-encoded, since CDP results must be JSON.
const fetchBase64JS = `async (u) => {
	const r = await fetch(u, {credentials: "include"});
	if (!r.ok) throw new Error("status " + r.status);
	const a = new Uint8Array(await r.arrayBuffer());
	let s = "";
	for (let i = 0; i < a.length; i += 0x8000) {
		s += String.fromCharCode.apply(null, a.subarray(i, i + 0x8000));
	}
	return btoa(s);
}`

// RodRenderer renders pages with a stealth-patched Chromium driven by rod.
// The browser is started on first use and shared by all pages.
type RodRenderer struct {
	remoteURL string

	mu       sync.Mutex
	browser  *rod.Browser
	launcher *launcher.Launcher
}

// NewRodRenderer creates a renderer. An empty remoteURL launches a local
// headless Chromium; otherwise it connects to the DevTools endpoint given.
func NewRodRenderer(remoteURL string) *RodRenderer {
	return &RodRenderer{remoteURL: remoteURL}
}

func (r *RodRenderer) connect() (*rod.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.browser != nil {
		return r.browser, nil
	}

	controlURL := r.remoteURL
	if controlURL == "" {
		r.launcher = launcher.New().
			Headless(true).
			Set("disable-blink-features", "AutomationControlled")
		u, err := r.launcher.Launch()
		if err != nil {
			return nil, eris.Wrap(err, "rod: launch browser")
		}
		controlURL = u
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		return nil, eris.Wrap(err, "rod: connect")
	}
	zap.L().Debug("rod: browser connected", zap.String("control_url", controlURL))
	r.browser = b
	return b, nil
}

func (r *RodRenderer) open(ctx context.Context, link string) (*rod.Page, error) {
	b, err := r.connect()
	if err != nil {
		return nil, err
	}
	page, err := stealth.Page(b)
	if err != nil {
		return nil, eris.Wrap(err, "rod: open page")
	}
	p := page.Context(ctx)
	if err := p.Navigate(link); err != nil {
		_ = page.Close()
		return nil, eris.Wrapf(err, "rod: navigate %s", link)
	}
	if err := p.WaitLoad(); err != nil {
		_ = page.Close()
		return nil, eris.Wrap(err, "rod: wait load")
	}
	return p, nil
}

// RenderHTML implements Renderer.
func (r *RodRenderer) RenderHTML(ctx context.Context, link string, settle time.Duration) (string, error) {
	p, err := r.open(ctx, link)
	if err != nil {
		return "", err
	}
	defer func() { _ = p.Close() }()

	timer := time.NewTimer(settle)
	select {
	case <-ctx.Done():
		timer.Stop()
		return "", eris.Wrap(ctx.Err(), "rod: settle")
	case <-timer.C:
	}

	res, err := p.Eval(outerHTMLJS)
	if err != nil {
		return "", eris.Wrap(err, "rod: read dom")
	}
	return res.Value.Str(), nil
}

// FetchBytes implements Renderer. It navigates to the link's origin first so
// the download runs same-origin.
func (r *RodRenderer) FetchBytes(ctx context.Context, link string) ([]byte, error) {
	u, err := url.Parse(link)
	if err != nil {
		return nil, eris.Wrap(err, "rod: parse url")
	}
	origin := (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"}).String()

	p, err := r.open(ctx, origin)
	if err != nil {
		return nil, err
	}
	defer func() { _ = p.Close() }()

	res, err := p.Eval(fetchBase64JS, link)
	if err != nil {
		return nil, eris.Wrap(err, "rod: download")
	}
	body, err := base64.StdEncoding.DecodeString(res.Value.Str())
	if err != nil {
		return nil, eris.Wrap(err, "rod: decode download")
	}
	return body, nil
}

// Close shuts the browser down and removes a locally launched profile.
func (r *RodRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.browser == nil {
		return nil
	}
	err := r.browser.Close()
	if r.launcher != nil {
		r.launcher.Cleanup()
	}
	r.browser, r.launcher = nil, nil
	return err
}
