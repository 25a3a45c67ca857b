package progress

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type captureSink struct {
	runIDs  []uuid.UUID
	batches [][]Entry
	fail    error
}

func (s *captureSink) Consume(_ context.Context, runID uuid.UUID, batch []Entry) error {
	if s.fail != nil {
		return s.fail
	}
	s.runIDs = append(s.runIDs, runID)
	copied := make([]Entry, len(batch))
	copy(copied, batch)
	s.batches = append(s.batches, copied)
	return nil
}

func TestLogFlushDeliversAndClears(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	log := NewLog(sink)

	log.Append(Entry{Seq: 0, RecordID: 100, Attempts: 1, ResolvedAt: time.Now()})
	log.Append(Entry{Seq: 1, RecordID: 101, Attempts: 3, ResolvedAt: time.Now()})
	require.Equal(t, 2, log.Buffered())

	require.NoError(t, log.Flush(context.Background()))
	require.Zero(t, log.Buffered())
	require.Len(t, sink.batches, 1)
	require.Equal(t, int64(101), sink.batches[0][1].RecordID)
	require.Equal(t, 3, sink.batches[0][1].Attempts)
}

func TestLogFlushEmptyIsNoOp(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	log := NewLog(sink)
	require.NoError(t, log.Flush(context.Background()))
	require.Empty(t, sink.batches)
}

func TestLogFlushFailureKeepsBuffer(t *testing.T) {
	t.Parallel()

	sink := &captureSink{fail: errors.New("db down")}
	log := NewLog(sink)
	log.Append(Entry{Seq: 0, RecordID: 7})

	require.Error(t, log.Flush(context.Background()))
	require.Equal(t, 1, log.Buffered(), "failed flush must retain the batch for retry")

	sink.fail = nil
	require.NoError(t, log.Flush(context.Background()))
	require.Len(t, sink.batches, 1)
}

func TestLogRunIDIsStableAcrossFlushes(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	log := NewLog(sink)

	log.Append(Entry{Seq: 0, RecordID: 1})
	require.NoError(t, log.Flush(context.Background()))
	log.Append(Entry{Seq: 1, RecordID: 2})
	require.NoError(t, log.Flush(context.Background()))

	require.Len(t, sink.runIDs, 2)
	require.Equal(t, sink.runIDs[0], sink.runIDs[1])
	require.Equal(t, log.RunID(), sink.runIDs[0])
}
