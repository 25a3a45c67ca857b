package mirror

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FetchesFound tracks ids that resolved to a stored record.
	FetchesFound = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kapmirror_fetch_found_total",
		Help: "The total number of ids fetched, extracted and persisted.",
	})
	// FetchesNotFound tracks clean not-found responses from the source.
	FetchesNotFound = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kapmirror_fetch_not_found_total",
		Help: "The total number of ids the source reported as non-existent.",
	})
	// FetchesTransient tracks fetches that failed with a retryable error.
	FetchesTransient = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kapmirror_fetch_transient_total",
		Help: "The total number of fetches that failed transiently.",
	})
	// RefreshRetries tracks blocking retry attempts during range refresh.
	RefreshRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kapmirror_refresh_retries_total",
		Help: "The total number of retry attempts made by the refresher.",
	})
	// EnrichmentsApplied tracks summaries written back to the store.
	EnrichmentsApplied = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kapmirror_enrich_applied_total",
		Help: "The total number of records enriched with a summary.",
	})
	// EnrichmentsSkipped tracks per-record enrichment failures.
	EnrichmentsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kapmirror_enrich_skipped_total",
		Help: "The total number of enrichment candidates skipped on error.",
	})
)
