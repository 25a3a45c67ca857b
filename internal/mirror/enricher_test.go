package mirror

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSummarizer struct {
	mu     sync.Mutex
	inputs []string
	fail   map[string]error
	tokens int
}

func (f *fakeSummarizer) Summarize(ctx context.Context, text string) (Summary, error) {
	if err := ctx.Err(); err != nil {
		return Summary{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, text)
	if err, ok := f.fail[text]; ok {
		return Summary{}, err
	}
	return Summary{Text: "ozet:" + text, Tokens: f.tokens}, nil
}

func newTestEnricher(store Store, sum Summarizer, maxInput int) *Enricher {
	cfg := EnricherConfig{
		BatchSize:     100,
		Deadline:      time.Second,
		MaxInputChars: maxInput,
	}
	return NewEnricher(store, sum, cfg, zap.NewNop())
}

func seedUnenriched(ids ...int64) *fakeStore {
	store := newFakeStore()
	for _, id := range ids {
		store.records[id] = Record{ID: id, Explanation: "metin"}
	}
	return store
}

func TestEnricherSetsSummaryWithTokenCount(t *testing.T) {
	t.Parallel()

	store := seedUnenriched(1, 2, 3)
	sum := &fakeSummarizer{tokens: 42}
	enricher := newTestEnricher(store, sum, 4097)

	report, err := enricher.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(3), report.Succeeded)
	require.Zero(t, report.Skipped)

	rec, err := store.GetByID(context.Background(), 2)
	require.NoError(t, err)
	require.NotNil(t, rec.ExplanationSummary)
	require.Equal(t, "ozet:metin;42", *rec.ExplanationSummary)
}

func TestEnricherSecondRunFindsNoCandidates(t *testing.T) {
	t.Parallel()

	store := seedUnenriched(1, 2, 3)
	sum := &fakeSummarizer{tokens: 7}
	enricher := newTestEnricher(store, sum, 4097)

	first, err := enricher.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(3), first.Succeeded)

	second, err := enricher.Run(context.Background())
	require.NoError(t, err)
	require.Zero(t, second.Processed, "already-enriched records are not candidates")
	require.Len(t, sum.inputs, 3, "each record is summarized exactly once")
}

func TestEnricherProcessesNewestFirst(t *testing.T) {
	t.Parallel()

	store := seedUnenriched(5, 9, 7)
	for id, rec := range store.records {
		rec.Explanation = strings.Repeat("x", int(id))
		store.records[id] = rec
	}
	sum := &fakeSummarizer{}
	enricher := newTestEnricher(store, sum, 4097)

	_, err := enricher.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"xxxxxxxxx", "xxxxxxx", "xxxxx"}, sum.inputs)
}

func TestEnricherSkipsFailedRecordAndContinues(t *testing.T) {
	t.Parallel()

	store := seedUnenriched(1, 2, 3)
	rec := store.records[2]
	rec.Explanation = "bozuk"
	store.records[2] = rec

	sum := &fakeSummarizer{fail: map[string]error{"bozuk": errors.New("service unavailable")}}
	enricher := newTestEnricher(store, sum, 4097)

	report, err := enricher.Run(context.Background())
	require.NoError(t, err, "a per-record failure must not abort the batch")
	require.Equal(t, int64(2), report.Succeeded)
	require.Equal(t, int64(1), report.Skipped)

	skipped, err := store.GetByID(context.Background(), 2)
	require.NoError(t, err)
	require.Nil(t, skipped.ExplanationSummary, "failed record stays eligible for a future batch")
}

func TestEnricherTruncatesInput(t *testing.T) {
	t.Parallel()

	store := seedUnenriched(1)
	rec := store.records[1]
	rec.Explanation = strings.Repeat("ş", 100) // multibyte on purpose
	store.records[1] = rec

	sum := &fakeSummarizer{}
	enricher := newTestEnricher(store, sum, 10)

	_, err := enricher.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, sum.inputs, 1)
	require.Equal(t, strings.Repeat("ş", 10), sum.inputs[0])
}

func TestEnricherStorageFailureAborts(t *testing.T) {
	t.Parallel()

	store := seedUnenriched(1, 2)
	store.failUpdate = &StorageError{Op: "update_field", ID: 2, Err: errors.New("write failed")}

	enricher := newTestEnricher(store, &fakeSummarizer{}, 4097)
	_, err := enricher.Run(context.Background())

	var se *StorageError
	require.ErrorAs(t, err, &se)
}
