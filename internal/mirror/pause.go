package mirror

import (
	"context"
	"time"
)

// TimerPauser sleeps on a timer but wakes immediately on context cancellation.
type TimerPauser struct{}

// Pause blocks for delay or until ctx is done, whichever comes first.
func (TimerPauser) Pause(ctx context.Context, delay time.Duration) {
	if delay <= 0 {
		return
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
