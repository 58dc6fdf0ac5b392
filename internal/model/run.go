package model

import "time"

// Stage is a pipeline run's position in its stage sequence.
type Stage string

const (
	StageStart            Stage = "start"
	StageQueriesGenerated Stage = "queries_generated"
	StageSearched         Stage = "searched"
	StagePagesProcessed   Stage = "pages_processed"
)

// PageRecord aggregates deterministic signals and normalized stakeholders
// for one candidate page.
type PageRecord struct {
	Title              string             `json:"title" yaml:"title"`
	Link               string             `json:"link" yaml:"link"`
	Snippet            string             `json:"snippet" yaml:"snippet"`
	Query              string             `json:"query,omitempty" yaml:"query,omitempty"`
	Emails             []string           `json:"emails" yaml:"emails"`
	SocialLinks        []string           `json:"social_links" yaml:"social_links"`
	PhoneLinks         []string           `json:"phone_links" yaml:"phone_links"`
	StakeholderDetails StakeholderDetails `json:"stakeholder_details" yaml:"stakeholder_details"`
}

// EmptyPageRecord returns a record for page with no signals or stakeholders.
func EmptyPageRecord(page CandidatePage) PageRecord {
	return PageRecord{
		Title:              page.Title,
		Link:               page.Link,
		Snippet:            page.Snippet,
		Query:              page.Query,
		Emails:             []string{},
		SocialLinks:        []string{},
		PhoneLinks:         []string{},
		StakeholderDetails: EmptyDetails(),
	}
}

// RunResult is the outcome of one pipeline run. Stakeholders is the flattened
// list across all page records, in page discovery order.
type RunResult struct {
	RunID        string        `json:"run_id" yaml:"run_id"`
	Stage        Stage         `json:"stage" yaml:"stage"`
	Queries      []string      `json:"queries" yaml:"queries"`
	Stakeholders []Stakeholder `json:"stakeholders" yaml:"stakeholders"`
	Pages        []PageRecord  `json:"pages,omitempty" yaml:"pages,omitempty"`
	StartedAt    time.Time     `json:"started_at" yaml:"started_at"`
	Elapsed      time.Duration `json:"elapsed_ns" yaml:"elapsed_ns"`
}

// NewRunResult returns an empty result at the start stage.
func NewRunResult(runID string, startedAt time.Time) *RunResult {
	return &RunResult{
		RunID:        runID,
		Stage:        StageStart,
		Queries:      []string{},
		Stakeholders: []Stakeholder{},
		StartedAt:    startedAt,
	}
}

// UploadMetadata describes a document submitted through the ingress surface.
type UploadMetadata struct {
	Filename   string    `json:"filename"`
	UploadTime time.Time `json:"upload_time"`
	WordCount  int       `json:"word_count"`
}
