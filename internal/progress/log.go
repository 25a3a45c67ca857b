// Package progress buffers per-id refresh progress and flushes it to a
// durable sink, so a crashed run loses at most the last unflushed batch.
package progress

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Entry records the resolution of one id during a refresh run. Attempts counts
// every fetch made for the id, so a value above 1 means the id went through
// the blocking retry loop.
type Entry struct {
	Seq        int64
	RecordID   int64
	Attempts   int
	ResolvedAt time.Time
}

// Sink consumes flushed batches of entries. Implementations must tolerate
// repeated calls and honor ctx deadlines.
type Sink interface {
	Consume(ctx context.Context, runID uuid.UUID, batch []Entry) error
}

// Log accumulates entries for one refresh run identified by a fresh UUID.
// It is not safe for concurrent use; refresh runs are single-threaded.
type Log struct {
	runID uuid.UUID
	sink  Sink
	buf   []Entry
}

// NewLog starts a progress log for a new run.
func NewLog(sink Sink) *Log {
	return &Log{
		runID: uuid.New(),
		sink:  sink,
	}
}

// RunID returns the identifier shared by all flushed batches of this run.
func (l *Log) RunID() uuid.UUID { return l.runID }

// Append buffers one entry.
func (l *Log) Append(e Entry) {
	l.buf = append(l.buf, e)
}

// Buffered returns the number of entries not yet flushed.
func (l *Log) Buffered() int { return len(l.buf) }

// Flush writes the buffered entries to the sink and clears the buffer. A sink
// failure keeps the buffer intact so the next flush retries the same batch.
func (l *Log) Flush(ctx context.Context) error {
	if len(l.buf) == 0 {
		return nil
	}
	if l.sink != nil {
		if err := l.sink.Consume(ctx, l.runID, l.buf); err != nil {
			return fmt.Errorf("flush progress log: %w", err)
		}
	}
	l.buf = l.buf[:0]
	return nil
}
