// Package mirror defines core types shared across subsystems.
package mirror

import "time"

// Record is one disclosure event mirrored from the source.
type Record struct {
	ID                 int64   `json:"id"`
	Code               string  `json:"code"`
	PublishDate        string  `json:"publish_date"`
	DisclosureType     string  `json:"disclosure_type"`
	Year               string  `json:"year"`
	Period             string  `json:"period"`
	Summary            string  `json:"summary"`
	RelatedEntities    string  `json:"related_entities"`
	Explanation        string  `json:"explanation"`
	ExplanationSummary *string `json:"explanation_summary,omitempty"`
}

// Entity is company-like reference data kept alongside the record mirror.
type Entity struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Province string `json:"province"`
	URL      string `json:"url"`
	TaxNo    string `json:"tax_no"`
	RegNo    string `json:"reg_no"`
	Scope    string `json:"scope"`
	Email    string `json:"email"`
	Website  string `json:"website"`
	Address  string `json:"address"`
	Sector   string `json:"sector"`
}

// Outcome is the tri-state result of fetching one id. Transient failures are
// reported through the error return instead, so an Outcome is only ever
// produced for terminal results.
type Outcome int

// Fetch outcomes.
const (
	OutcomeFound Outcome = iota + 1
	OutcomeNotFound
)

// Document is a raw page body returned by a Transport.
type Document struct {
	URL  string
	Body []byte
}

// Summary is the result of one summarization call, including the token cost
// reported by the service.
type Summary struct {
	Text   string
	Tokens int
}

// Frontier is the highest stored id plus its publish date.
type Frontier struct {
	ID          int64
	PublishDate string
}

// RangeStats describes the id interval currently covered by the store.
type RangeStats struct {
	MinID int64
	MaxID int64
	Count int64
}

// Field names a mutable record column for partial updates. The store rejects
// names outside the closed set below.
type Field string

// Mutable record fields.
const (
	FieldExplanationSummary Field = "explanation_summary"
)

// StopReason explains why a crawl loop ended.
type StopReason string

// Stop reasons reported in run summaries.
const (
	StopLimit     StopReason = "limit_reached"
	StopFrontier  StopReason = "frontier_reached"
	StopTransient StopReason = "transient_error"
	StopCanceled  StopReason = "canceled"
	StopCompleted StopReason = "completed"
)

// Report is the final summary every job returns to its caller.
type Report struct {
	Processed int64
	Succeeded int64
	Skipped   int64
	Failed    int64
	Retries   int64
	LastID    int64
	Reason    StopReason
	Started   time.Time
	Finished  time.Time
}
