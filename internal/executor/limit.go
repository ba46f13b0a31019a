package executor

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Dispatcher starts an exchange and returns a channel that yields its single result
type Dispatcher interface {
	Dispatch(ctx context.Context, req Request) <-chan Result
}

// Limiter caps how many exchanges of the wrapped dispatcher are on the
// network at the same time.
type Limiter struct {
	next  Dispatcher
	slots *semaphore.Weighted
}

// NewLimiter lets at most n exchanges of next run at once
func NewLimiter(next Dispatcher, n int) *Limiter {
	return &Limiter{next: next, slots: semaphore.NewWeighted(int64(max(1, n)))}
}

// Dispatch never blocks the caller: waiting for a slot happens on the
// result goroutine. A context cancelled while waiting yields a NetworkError.
func (l *Limiter) Dispatch(ctx context.Context, req Request) <-chan Result {
	resultChan := make(chan Result, 1)
	go func() {
		if err := l.slots.Acquire(ctx, 1); err != nil {
			resultChan <- Result{Err: newNetworkError(err)}
			return
		}
		defer l.slots.Release(1)
		resultChan <- <-l.next.Dispatch(ctx, req)
	}()
	return resultChan
}
