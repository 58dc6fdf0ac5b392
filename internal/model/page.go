package model

import (
	"net/url"
	"strings"
)

// ContentKind identifies how a raw document's bytes should be interpreted.
type ContentKind string

const (
	ContentHTML ContentKind = "html"
	ContentPDF  ContentKind = "pdf"
)

// KindFromURL infers the content kind from a link's path suffix.
func KindFromURL(link string) ContentKind {
	path := link
	if u, err := url.Parse(link); err == nil && u.Path != "" {
		path = u.Path
	}
	if strings.HasSuffix(strings.ToLower(path), ".pdf") {
		return ContentPDF
	}
	return ContentHTML
}

// CandidatePage is a search result considered for scraping.
type CandidatePage struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
	Query   string `json:"query,omitempty"` // Query that surfaced the page.
}

// RawDocument holds the fetched bytes of one page. It lives only for the
// duration of a single page processing.
type RawDocument struct {
	URL    string      `json:"url"`
	Kind   ContentKind `json:"kind"`
	Body   []byte      `json:"-"`
	Source string      `json:"source"` // Fetch tier that produced the body.
}

// Empty reports whether the document carries no content.
func (d *RawDocument) Empty() bool {
	return d == nil || len(d.Body) == 0
}

// Signals are the deterministic contact artifacts pulled from a document.
type Signals struct {
	CleanedText  string   `json:"cleaned_text"`
	Emails       []string `json:"email_addresses"`
	SocialLinks  []string `json:"social_links"`
	PhoneNumbers []string `json:"phone_numbers"`
}

// EmptySignals returns signals with non-nil empty lists.
func EmptySignals() Signals {
	return Signals{
		Emails:       []string{},
		SocialLinks:  []string{},
		PhoneNumbers: []string{},
	}
}
