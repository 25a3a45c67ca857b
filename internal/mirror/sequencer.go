package mirror

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// SequencerConfig controls the forward crawler.
type SequencerConfig struct {
	// InitialID seeds the frontier when the store is empty.
	InitialID int64
	// Throttle is the fixed inter-request sleep.
	Throttle time.Duration
}

// Sequencer advances the mirror's frontier: starting one past the maximum
// stored id, it fetches ids in strictly increasing order until the limit is
// exhausted, the source reports not-found, or a transient error surfaces.
//
// The first NotFound while scanning forward means the source's publishing
// frontier has been reached, because ids are assigned without reuse and the
// scan always starts at the first unknown id. It is not an error. Transient
// errors are surfaced immediately without retry; re-running the affected
// range is the Refresher's job.
type Sequencer struct {
	fetcher RecordFetcher
	store   Store
	pauser  Pauser
	cfg     SequencerConfig
	logger  *zap.Logger
}

// NewSequencer constructs a Sequencer.
func NewSequencer(fetcher RecordFetcher, store Store, cfg SequencerConfig, logger *zap.Logger) *Sequencer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sequencer{
		fetcher: fetcher,
		store:   store,
		pauser:  TimerPauser{},
		cfg:     cfg,
		logger:  logger,
	}
}

// Run crawls forward from the current frontier. A limit <= 0 means no limit.
func (s *Sequencer) Run(ctx context.Context, limit int64) (Report, error) {
	report := Report{Started: time.Now()}
	defer func() { report.Finished = time.Now() }()

	current, err := s.frontier(ctx)
	if err != nil {
		return report, err
	}
	s.logger.Info("starting forward crawl",
		zap.Int64("from_id", current),
		zap.Int64("limit", limit),
	)

	for limit <= 0 || report.Processed < limit {
		if ctx.Err() != nil {
			report.Reason = StopCanceled
			return report, ctx.Err()
		}

		outcome, err := s.fetcher.Fetch(ctx, current)
		if err != nil {
			report.Reason = StopTransient
			report.Failed++
			s.logger.Error("forward crawl stopped on error",
				zap.Int64("id", current),
				zap.Error(err),
			)
			return report, err
		}
		if outcome == OutcomeNotFound {
			report.Reason = StopFrontier
			s.logger.Info("publishing frontier reached", zap.Int64("id", current))
			return report, nil
		}

		report.Processed++
		report.Succeeded++
		report.LastID = current
		current++
		s.pauser.Pause(ctx, s.cfg.Throttle)
	}

	report.Reason = StopLimit
	s.logger.Info("crawl limit reached",
		zap.Int64("processed", report.Processed),
		zap.Int64("last_id", report.LastID),
	)
	return report, nil
}

// frontier computes the first id to request: one past the stored maximum, or
// the configured initial id for an empty mirror.
func (s *Sequencer) frontier(ctx context.Context) (int64, error) {
	front, err := s.store.MaxID(ctx)
	if errors.Is(err, ErrEmpty) {
		return s.cfg.InitialID, nil
	}
	if err != nil {
		return 0, err
	}
	return front.ID + 1, nil
}
