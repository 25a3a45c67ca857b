package mirror

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// fakeStore is an in-memory Store used across the package tests.
type fakeStore struct {
	mu         sync.Mutex
	records    map[int64]Record
	updates    []string
	failUpsert error
	failUpdate error
}

func newFakeStore(ids ...int64) *fakeStore {
	s := &fakeStore{records: make(map[int64]Record)}
	for _, id := range ids {
		s.records[id] = Record{ID: id, Code: fmt.Sprintf("C%d", id)}
	}
	return s
}

func (s *fakeStore) Upsert(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUpsert != nil {
		return s.failUpsert
	}
	s.records[rec.ID] = *rec
	return nil
}

func (s *fakeStore) MaxID(_ context.Context) (Frontier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.records) == 0 {
		return Frontier{}, ErrEmpty
	}
	var front Frontier
	for id, rec := range s.records {
		if id > front.ID {
			front = Frontier{ID: id, PublishDate: rec.PublishDate}
		}
	}
	return front, nil
}

func (s *fakeStore) Stats(_ context.Context) (RangeStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.records) == 0 {
		return RangeStats{}, ErrEmpty
	}
	stats := RangeStats{MinID: int64(1<<62 - 1)}
	for id := range s.records {
		if id < stats.MinID {
			stats.MinID = id
		}
		if id > stats.MaxID {
			stats.MaxID = id
		}
		stats.Count++
	}
	return stats, nil
}

func (s *fakeStore) GetByID(_ context.Context, id int64) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

func (s *fakeStore) UpdateField(_ context.Context, id int64, field Field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUpdate != nil {
		return s.failUpdate
	}
	rec, ok := s.records[id]
	if !ok {
		return ErrNotFound
	}
	if field != FieldExplanationSummary {
		return fmt.Errorf("field %q is not updatable", field)
	}
	rec.ExplanationSummary = &value
	s.records[id] = rec
	s.updates = append(s.updates, fmt.Sprintf("%d=%s", id, value))
	return nil
}

func (s *fakeStore) IDsInRange(_ context.Context, low, high int64) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int64
	for id := range s.records {
		if id >= low && id <= high {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *fakeStore) QueryMissingSummary(_ context.Context, limit int) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int64
	for id, rec := range s.records {
		if rec.ExplanationSummary == nil {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	out := make([]Record, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.records[id])
	}
	return out, nil
}

func (s *fakeStore) RandomRecords(_ context.Context, n int) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Record
	for _, rec := range s.records {
		if len(out) >= n {
			break
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *fakeStore) has(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.records[id]
	return ok
}

// scriptedFetcher replays canned outcomes per id. Each call for an id
// consumes the next scripted step; the last step repeats once exhausted.
type scriptedFetcher struct {
	mu    sync.Mutex
	steps map[int64][]fetchStep
	calls map[int64]int
}

type fetchStep struct {
	outcome Outcome
	err     error
}

func newScriptedFetcher() *scriptedFetcher {
	return &scriptedFetcher{
		steps: make(map[int64][]fetchStep),
		calls: make(map[int64]int),
	}
}

func (f *scriptedFetcher) found(id int64)            { f.add(id, fetchStep{outcome: OutcomeFound}) }
func (f *scriptedFetcher) notFound(id int64)         { f.add(id, fetchStep{outcome: OutcomeNotFound}) }
func (f *scriptedFetcher) transient(id int64, n int) {
	for range n {
		f.add(id, fetchStep{err: &TransientError{Cause: CauseNetwork, Err: fmt.Errorf("boom %d", id)}})
	}
}

func (f *scriptedFetcher) add(id int64, step fetchStep) {
	f.steps[id] = append(f.steps[id], step)
}

func (f *scriptedFetcher) Fetch(_ context.Context, id int64) (Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[id]++
	steps := f.steps[id]
	if len(steps) == 0 {
		return 0, fmt.Errorf("unscripted fetch for id %d", id)
	}
	idx := f.calls[id] - 1
	if idx >= len(steps) {
		idx = len(steps) - 1
	}
	step := steps[idx]
	return step.outcome, step.err
}

func (f *scriptedFetcher) callCount(id int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[id]
}
