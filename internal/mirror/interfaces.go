package mirror

import (
	"context"
	"time"
)

// Store persists mirrored records. Implementations report failures as
// *StorageError and use ErrNotFound / ErrEmpty for absent data.
type Store interface {
	// Upsert atomically replaces any record with the same id inside one
	// transaction, keeping at most one record per id at all times.
	Upsert(ctx context.Context, rec *Record) error
	// MaxID returns the current frontier anchor, or ErrEmpty when the
	// mirror holds no data yet.
	MaxID(ctx context.Context) (Frontier, error)
	// Stats returns the min/max/count of stored ids, or ErrEmpty.
	Stats(ctx context.Context) (RangeStats, error)
	// GetByID returns the stored record or ErrNotFound.
	GetByID(ctx context.Context, id int64) (*Record, error)
	// UpdateField partially updates one mutable field, failing with
	// ErrNotFound when the id is absent.
	UpdateField(ctx context.Context, id int64, field Field, value string) error
	// IDsInRange returns the ordered ids present in [low, high].
	IDsInRange(ctx context.Context, low, high int64) ([]int64, error)
	// QueryMissingSummary returns up to limit records whose enrichment
	// field is still null, most-recent-id first.
	QueryMissingSummary(ctx context.Context, limit int) ([]Record, error)
	// RandomRecords returns up to n randomly chosen records.
	RandomRecords(ctx context.Context, n int) ([]Record, error)
}

// EntityStore persists company-like reference data.
type EntityStore interface {
	SaveEntity(ctx context.Context, e *Entity) error
	GetEntity(ctx context.Context, code string) (*Entity, error)
	DeleteEntity(ctx context.Context, code string) error
}

// RecordFetcher resolves one id to a terminal outcome or a retryable error.
// *Fetcher is the production implementation.
type RecordFetcher interface {
	Fetch(ctx context.Context, id int64) (Outcome, error)
}

// Transport retrieves the raw document for one id. A clean not-found response
// maps to ErrNotFound; timeouts, resets and 5xx map to *TransientError.
type Transport interface {
	Get(ctx context.Context, language string, id int64) (*Document, error)
}

// Extractor turns one fetched document into a structured record. Extraction
// failures are plain errors; the Fetcher classifies them as transient.
type Extractor interface {
	Extract(doc *Document, id int64) (*Record, error)
}

// Summarizer is the external summarization service boundary.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (Summary, error)
}

// Pauser abstracts throttle and backoff sleeps so loops stay testable and
// cancellable.
type Pauser interface {
	Pause(ctx context.Context, delay time.Duration)
}
