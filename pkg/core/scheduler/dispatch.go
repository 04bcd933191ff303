package scheduler

import (
	"context"
	"time"
)

// Completion reports the end of a dispatched run
type Completion struct {
	Date    time.Time
	Summary *Summary
	Err     error
}

// Dispatch starts RunAutoFit in the background and returns a channel that receives
// exactly one Completion before it is closed. The caller owns ctx and cancels it to
// stop the run at the next slot boundary.
//
// A run already in progress is reported on the channel as errs.ErrRunInProgress.
func (s *Scheduler) Dispatch(ctx context.Context, date time.Time) <-chan Completion {
	done := make(chan Completion, 1)

	go func() {
		defer close(done)
		summary, err := s.Run(ctx, date)
		done <- Completion{Date: date, Summary: summary, Err: err}
	}()

	return done
}
