package mirror

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/alperaydin/kapmirror/internal/progress"
)

// RefresherConfig controls range refresh behavior.
type RefresherConfig struct {
	// Throttle is the sleep between ids once an id resolves.
	Throttle time.Duration
	// Backoff is the fixed wait between blocking retry attempts.
	Backoff time.Duration
	// FlushEvery flushes the progress log after this many resolved ids.
	FlushEvery int
}

// Refresher replays an explicit id range through the Fetcher, overwriting
// whatever is on file. Unlike the forward crawler it retries transient
// failures indefinitely with a fixed backoff: refresh jobs are about eventual
// completeness and are invoked by an operator who accepts long runtimes, so
// total correctness wins over liveness.
type Refresher struct {
	fetcher RecordFetcher
	store   Store
	sink    progress.Sink
	pauser  Pauser
	cfg     RefresherConfig
	logger  *zap.Logger
}

// NewRefresher constructs a Refresher.
func NewRefresher(fetcher RecordFetcher, store Store, sink progress.Sink, cfg RefresherConfig, logger *zap.Logger) *Refresher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.FlushEvery <= 0 {
		cfg.FlushEvery = 50
	}
	return &Refresher{
		fetcher: fetcher,
		store:   store,
		sink:    sink,
		pauser:  TimerPauser{},
		cfg:     cfg,
		logger:  logger,
	}
}

// Run refreshes every id in [start, stop). Passing start <= 0 or stop <= 0
// derives the bounds from the store: start at the minimum stored id, stop
// after count+1 ids, i.e. refresh everything currently on file.
func (r *Refresher) Run(ctx context.Context, start, stop int64) (Report, error) {
	report := Report{Started: time.Now()}
	defer func() { report.Finished = time.Now() }()

	start, stop, err := r.bounds(ctx, start, stop)
	if err != nil {
		if errors.Is(err, ErrEmpty) {
			report.Reason = StopCompleted
			return report, nil
		}
		return report, err
	}

	log := progress.NewLog(r.sink)
	r.logger.Info("starting refresh",
		zap.Int64("start", start),
		zap.Int64("stop", stop),
		zap.String("run_id", log.RunID().String()),
	)

	// The deferred flush must survive cancellation, otherwise the buffered
	// tail of the run is lost exactly when diagnosis needs it.
	defer func() {
		flushCtx := context.WithoutCancel(ctx)
		if ferr := log.Flush(flushCtx); ferr != nil {
			r.logger.Error("final progress flush failed", zap.Error(ferr))
		}
	}()

	var seq int64
	for id := start; id < stop; id++ {
		if ctx.Err() != nil {
			report.Reason = StopCanceled
			return report, ctx.Err()
		}

		attempts, err := r.resolve(ctx, id)
		report.Retries += int64(attempts - 1)
		if err != nil {
			report.Failed++
			report.Reason = r.stopReason(ctx)
			return report, err
		}

		log.Append(progress.Entry{
			Seq:        seq,
			RecordID:   id,
			Attempts:   attempts,
			ResolvedAt: time.Now(),
		})
		seq++
		report.Processed++
		report.Succeeded++
		report.LastID = id

		if log.Buffered() >= r.cfg.FlushEvery {
			if err := log.Flush(ctx); err != nil {
				r.logger.Warn("progress flush failed, batch retained", zap.Error(err))
			}
		}
		r.pauser.Pause(ctx, r.cfg.Throttle)
	}

	report.Reason = StopCompleted
	r.logger.Info("refresh completed",
		zap.Int64("processed", report.Processed),
		zap.Int64("retries", report.Retries),
	)
	return report, nil
}

// resolve fetches one id, blocking in a fixed-backoff retry loop until the
// outcome stops being transient. Found and NotFound both count as resolved.
func (r *Refresher) resolve(ctx context.Context, id int64) (attempts int, err error) {
	for {
		attempts++
		_, err := r.fetcher.Fetch(ctx, id)
		if err == nil {
			return attempts, nil
		}
		if !IsTransient(err) {
			return attempts, err
		}
		RefreshRetries.Inc()
		r.logger.Warn("transient failure, backing off",
			zap.Int64("id", id),
			zap.Int("attempt", attempts),
			zap.Error(err),
		)
		r.pauser.Pause(ctx, r.cfg.Backoff)
		if ctx.Err() != nil {
			return attempts, ctx.Err()
		}
	}
}

func (r *Refresher) bounds(ctx context.Context, start, stop int64) (int64, int64, error) {
	if start > 0 && stop > 0 {
		return start, stop, nil
	}
	stats, err := r.store.Stats(ctx)
	if err != nil {
		return 0, 0, err
	}
	if start <= 0 {
		start = stats.MinID
	}
	if stop <= 0 {
		stop = start + stats.Count + 1
	}
	return start, stop, nil
}

func (r *Refresher) stopReason(ctx context.Context) StopReason {
	if ctx.Err() != nil {
		return StopCanceled
	}
	return StopTransient
}
