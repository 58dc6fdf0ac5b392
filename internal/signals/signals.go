// Package signals extracts readable text and deterministic contact signals
// (emails, phone numbers, social profile links) from fetched documents.
package signals

import (
	"bytes"
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/internal/model"
	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/internal/ocr"
)

// DefaultSocialDomains are the hosts whose links count as social profiles.
var DefaultSocialDomains = []string{"twitter.com", "linkedin.com", "facebook.com"}

var (
	emailRe     = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	emailFullRe = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phoneRe     = regexp.MustCompile(`\+?\d{1,4}[\s\-]?\(?\d{1,4}\)?[\s\-]?\d{3,}[\s\-]?\d{2,}`)
)

// invisible elements are dropped before text extraction.
var invisible = []string{"script", "style", "noscript"}

// Extractor produces Signals from raw documents. PDF documents are converted
// to text first; everything else is parsed as HTML.
type Extractor struct {
	converter     ocr.Extractor
	socialDomains []string
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithSocialDomains overrides the social profile host list.
func WithSocialDomains(domains []string) Option {
	return func(e *Extractor) {
		if len(domains) == 0 {
			return
		}
		e.socialDomains = make([]string, len(domains))
		for i, d := range domains {
			e.socialDomains[i] = strings.ToLower(strings.TrimSpace(d))
		}
	}
}

// NewExtractor creates an Extractor. converter may be nil, in which case PDF
// documents yield empty signals.
func NewExtractor(converter ocr.Extractor, opts ...Option) *Extractor {
	e := &Extractor{
		converter:     converter,
		socialDomains: DefaultSocialDomains,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract never fails: unparseable markup or a failed PDF conversion
// degrades to empty signals.
func (e *Extractor) Extract(ctx context.Context, doc *model.RawDocument) model.Signals {
	if doc.Empty() {
		return model.EmptySignals()
	}

	if doc.Kind == model.ContentPDF {
		if e.converter == nil {
			zap.L().Warn("signals: no PDF converter configured", zap.String("url", doc.URL))
			return model.EmptySignals()
		}
		text, err := e.converter.ExtractText(ctx, doc.Body)
		if err != nil {
			zap.L().Warn("signals: PDF conversion failed", zap.String("url", doc.URL), zap.Error(err))
			return model.EmptySignals()
		}
		return e.FromText(text)
	}

	return e.FromHTML(doc.Body)
}

// FromHTML extracts signals from markup.
func (e *Extractor) FromHTML(markup []byte) model.Signals {
	out := model.EmptySignals()

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		zap.L().Debug("signals: parse markup", zap.Error(err))
		return out
	}
	for _, sel := range invisible {
		doc.Find(sel).Remove()
	}

	out.CleanedText = visibleText(doc.Selection)

	var mailto, phones []string
	seenSocial := make(map[string]bool)
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		lower := strings.ToLower(href)
		switch {
		case strings.HasPrefix(lower, "mailto:"):
			mailto = append(mailto, mailtoAddresses(href[len("mailto:"):])...)
		case strings.HasPrefix(lower, "tel:"):
			if num := telNumber(href[len("tel:"):]); num != "" {
				phones = append(phones, num)
			}
		case e.isSocial(href) && !seenSocial[href]:
			seenSocial[href] = true
			out.SocialLinks = append(out.SocialLinks, href)
		}
	})

	out.Emails = dedupeFold(append(emailRe.FindAllString(out.CleanedText, -1), mailto...))
	out.PhoneNumbers = dedupe(append(findPhones(out.CleanedText), phones...))
	return out
}

// FromText extracts signals from plain text, such as a converted PDF. Plain
// text has no hyperlinks, so social links are always empty.
func (e *Extractor) FromText(text string) model.Signals {
	out := model.EmptySignals()
	out.CleanedText = strings.TrimSpace(text)
	out.Emails = dedupeFold(emailRe.FindAllString(out.CleanedText, -1))
	out.PhoneNumbers = dedupe(findPhones(out.CleanedText))
	return out
}

// isSocial reports whether the link's host contains a social domain. The
// match is a substring test, so subdomains and lookalike hosts also match.
func (e *Extractor) isSocial(href string) bool {
	u, err := url.Parse(href)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Host)
	if host == "" {
		return false
	}
	for _, d := range e.socialDomains {
		if strings.Contains(host, d) {
			return true
		}
	}
	return false
}

// visibleText joins every non-blank text node, trimmed, with single spaces.
func visibleText(sel *goquery.Selection) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return strings.Join(parts, " ")
}

// mailtoAddresses returns the valid addresses of a mailto target, dropping
// header fields such as ?subject=.
func mailtoAddresses(target string) []string {
	if i := strings.IndexByte(target, '?'); i >= 0 {
		target = target[:i]
	}
	if unescaped, err := url.PathUnescape(target); err == nil {
		target = unescaped
	}
	var out []string
	for _, addr := range strings.Split(target, ",") {
		addr = strings.TrimSpace(addr)
		if emailFullRe.MatchString(addr) {
			out = append(out, addr)
		}
	}
	return out
}

func telNumber(target string) string {
	if unescaped, err := url.PathUnescape(target); err == nil {
		target = unescaped
	}
	return strings.TrimSpace(target)
}

func findPhones(text string) []string {
	matches := phoneRe.FindAllString(text, -1)
	for i, m := range matches {
		matches[i] = strings.TrimSpace(m)
	}
	return matches
}

func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// dedupeFold removes case-insensitive duplicates, keeping the first spelling.
func dedupeFold(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		key := strings.ToLower(s)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}
