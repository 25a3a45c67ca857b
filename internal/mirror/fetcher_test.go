package mirror

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeTransport struct {
	docs map[int64][]byte
	errs map[int64]error
	lang string
}

func (f *fakeTransport) Get(_ context.Context, language string, id int64) (*Document, error) {
	f.lang = language
	if err, ok := f.errs[id]; ok {
		return nil, err
	}
	body, ok := f.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &Document{URL: fmt.Sprintf("https://source.test/tr/Bildirim/%d", id), Body: body}, nil
}

type fakeExtractor struct {
	fail map[int64]error
}

func (f *fakeExtractor) Extract(_ *Document, id int64) (*Record, error) {
	if err, ok := f.fail[id]; ok {
		return nil, err
	}
	return &Record{ID: id, Code: "TEST"}, nil
}

func newTestFetcher(transport Transport, extractor Extractor, store Store) *Fetcher {
	return NewFetcher(transport, extractor, store, "tr", zap.NewNop())
}

func TestFetcherFoundPersistsBeforeReturning(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	transport := &fakeTransport{docs: map[int64][]byte{7: []byte("<html/>")}}
	fetcher := newTestFetcher(transport, &fakeExtractor{}, store)

	outcome, err := fetcher.Fetch(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, OutcomeFound, outcome)
	require.True(t, store.has(7), "record must be upserted by the fetcher itself")
	require.Equal(t, "tr", transport.lang)
}

func TestFetcherNotFoundIsTerminalNotError(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	fetcher := newTestFetcher(&fakeTransport{}, &fakeExtractor{}, store)

	outcome, err := fetcher.Fetch(context.Background(), 99)
	require.NoError(t, err)
	require.Equal(t, OutcomeNotFound, outcome)
	require.False(t, store.has(99))
}

func TestFetcherTransportFailureIsTransient(t *testing.T) {
	t.Parallel()

	transport := &fakeTransport{errs: map[int64]error{5: errors.New("connection reset")}}
	fetcher := newTestFetcher(transport, &fakeExtractor{}, newFakeStore())

	_, err := fetcher.Fetch(context.Background(), 5)
	require.Error(t, err)
	require.True(t, IsTransient(err))

	var te *TransientError
	require.ErrorAs(t, err, &te)
	require.Equal(t, CauseNetwork, te.Cause)
}

func TestFetcherKeepsTransportTransientCause(t *testing.T) {
	t.Parallel()

	transport := &fakeTransport{errs: map[int64]error{
		5: &TransientError{Cause: CauseNetwork, Err: errors.New("502 bad gateway")},
	}}
	fetcher := newTestFetcher(transport, &fakeExtractor{}, newFakeStore())

	_, err := fetcher.Fetch(context.Background(), 5)
	var te *TransientError
	require.ErrorAs(t, err, &te)
	require.ErrorContains(t, te.Err, "502")
}

func TestFetcherExtractionFailureIsMalformedTransient(t *testing.T) {
	t.Parallel()

	transport := &fakeTransport{docs: map[int64][]byte{8: []byte("garbage")}}
	extractor := &fakeExtractor{fail: map[int64]error{8: errors.New("missing summary block")}}
	store := newFakeStore()
	fetcher := newTestFetcher(transport, extractor, store)

	_, err := fetcher.Fetch(context.Background(), 8)
	require.True(t, IsTransient(err))

	var te *TransientError
	require.ErrorAs(t, err, &te)
	require.Equal(t, CauseMalformed, te.Cause)
	require.False(t, store.has(8))
}

func TestFetcherStorageFailureIsNotTransient(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.failUpsert = &StorageError{Op: "upsert", ID: 7, Err: errors.New("disk full")}
	transport := &fakeTransport{docs: map[int64][]byte{7: []byte("<html/>")}}
	fetcher := newTestFetcher(transport, &fakeExtractor{}, store)

	_, err := fetcher.Fetch(context.Background(), 7)
	require.Error(t, err)
	require.False(t, IsTransient(err))

	var se *StorageError
	require.ErrorAs(t, err, &se)
	require.Equal(t, "upsert", se.Op)
	require.Equal(t, int64(7), se.ID)
}
