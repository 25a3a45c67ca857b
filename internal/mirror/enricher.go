package mirror

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// EnricherConfig controls the summarization batch job.
type EnricherConfig struct {
	// BatchSize bounds how many candidates one run processes.
	BatchSize int
	// Deadline is the per-call summarization budget.
	Deadline time.Duration
	// MaxInputChars truncates the explanation before summarization.
	MaxInputChars int
}

// Enricher attaches generated summaries to stored records that do not have
// one yet, newest-id first. Summarization failures are skips, not errors: the
// record stays null and remains eligible for a future batch. Only storage
// failures abort the run.
type Enricher struct {
	store      Store
	summarizer Summarizer
	cfg        EnricherConfig
	logger     *zap.Logger
}

// NewEnricher constructs an Enricher.
func NewEnricher(store Store, summarizer Summarizer, cfg EnricherConfig, logger *zap.Logger) *Enricher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enricher{
		store:      store,
		summarizer: summarizer,
		cfg:        cfg,
		logger:     logger,
	}
}

// Run processes one batch of un-enriched records.
func (e *Enricher) Run(ctx context.Context) (Report, error) {
	report := Report{Started: time.Now()}
	defer func() { report.Finished = time.Now() }()

	candidates, err := e.store.QueryMissingSummary(ctx, e.cfg.BatchSize)
	if err != nil {
		return report, err
	}
	e.logger.Info("starting enrichment batch", zap.Int("candidates", len(candidates)))

	for i := range candidates {
		rec := &candidates[i]
		if ctx.Err() != nil {
			report.Reason = StopCanceled
			return report, ctx.Err()
		}
		report.Processed++
		report.LastID = rec.ID

		value, err := e.summarizeOne(ctx, rec.Explanation)
		if err != nil {
			EnrichmentsSkipped.Inc()
			report.Skipped++
			e.logger.Warn("summarization skipped",
				zap.Int64("id", rec.ID),
				zap.Error(err),
			)
			continue
		}

		if err := e.store.UpdateField(ctx, rec.ID, FieldExplanationSummary, value); err != nil {
			report.Failed++
			return report, err
		}
		EnrichmentsApplied.Inc()
		report.Succeeded++
	}

	report.Reason = StopCompleted
	e.logger.Info("enrichment batch finished",
		zap.Int64("succeeded", report.Succeeded),
		zap.Int64("skipped", report.Skipped),
	)
	return report, nil
}

// summarizeOne truncates the text, calls the service under its deadline, and
// formats the stored value as "<summary>;<tokens>" so token spend stays
// queryable without a schema change.
func (e *Enricher) summarizeOne(ctx context.Context, text string) (string, error) {
	// Truncate by runes: explanations are Turkish text and a byte slice
	// could split a multibyte character.
	if e.cfg.MaxInputChars > 0 {
		if runes := []rune(text); len(runes) > e.cfg.MaxInputChars {
			text = string(runes[:e.cfg.MaxInputChars])
		}
	}

	callCtx := ctx
	if e.cfg.Deadline > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.cfg.Deadline)
		defer cancel()
	}

	summary, err := e.summarizer.Summarize(callCtx, text)
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	return fmt.Sprintf("%s;%d", summary.Text, summary.Tokens), nil
}
