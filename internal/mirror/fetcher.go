package mirror

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Fetcher orchestrates Transport, Extractor and Store for one id. Fetch and
// persist are a single unit: a caller never needs to separately persist a
// Found result.
type Fetcher struct {
	transport Transport
	extractor Extractor
	store     Store
	language  string
	logger    *zap.Logger
}

// NewFetcher constructs a Fetcher using the given default language.
func NewFetcher(transport Transport, extractor Extractor, store Store, language string, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		transport: transport,
		extractor: extractor,
		store:     store,
		language:  language,
		logger:    logger,
	}
}

// Fetch resolves one id to a tri-state outcome. Transport not-found maps to
// OutcomeNotFound; transport failures and extraction failures surface as
// *TransientError; store failures surface as *StorageError.
func (f *Fetcher) Fetch(ctx context.Context, id int64) (Outcome, error) {
	doc, err := f.transport.Get(ctx, f.language, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			FetchesNotFound.Inc()
			return OutcomeNotFound, nil
		}
		FetchesTransient.Inc()
		if IsTransient(err) {
			return 0, err
		}
		return 0, &TransientError{Cause: CauseNetwork, Err: err}
	}

	rec, err := f.extractor.Extract(doc, id)
	if err != nil {
		FetchesTransient.Inc()
		f.logger.Warn("extraction failed", zap.Int64("id", id), zap.Error(err))
		return 0, &TransientError{Cause: CauseMalformed, Err: err}
	}

	if err := f.store.Upsert(ctx, rec); err != nil {
		return 0, err
	}
	FetchesFound.Inc()
	return OutcomeFound, nil
}
