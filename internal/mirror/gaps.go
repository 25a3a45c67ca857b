package mirror

import (
	"context"
	"errors"
)

// GapFinder computes the ids missing inside the store's covered range.
type GapFinder struct {
	store Store
}

// NewGapFinder constructs a GapFinder over the given store.
func NewGapFinder(store Store) *GapFinder {
	return &GapFinder{store: store}
}

// Missing returns the sorted ids absent from the closed interval
// [min(store), max(store)]. It walks the sorted existing ids once and reports
// every integer strictly between consecutive ids whose difference exceeds 1,
// so covered ranges spanning hundreds of thousands of ids never enumerate the
// full interval. An empty or single-record store yields no gaps.
func (g *GapFinder) Missing(ctx context.Context) ([]int64, error) {
	stats, err := g.store.Stats(ctx)
	if errors.Is(err, ErrEmpty) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if stats.Count <= 1 {
		return nil, nil
	}

	ids, err := g.store.IDsInRange(ctx, stats.MinID, stats.MaxID)
	if err != nil {
		return nil, err
	}

	var gaps []int64
	for i := 1; i < len(ids); i++ {
		for id := ids[i-1] + 1; id < ids[i]; id++ {
			gaps = append(gaps, id)
		}
	}
	return gaps, nil
}
