package executor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/studiowebux/setu/internal/types"
)

// slowDispatcher tracks how many exchanges run at once
type slowDispatcher struct {
	running atomic.Int32
	peak    atomic.Int32
}

func (d *slowDispatcher) Dispatch(ctx context.Context, req Request) <-chan Result {
	resultChan := make(chan Result, 1)
	go func() {
		n := d.running.Add(1)
		for {
			p := d.peak.Load()
			if n <= p || d.peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(50 * time.Millisecond)
		d.running.Add(-1)
		resultChan <- Result{Response: &types.ResponseData{StatusCode: 200}}
	}()
	return resultChan
}

func TestLimiter(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  int32
	}{
		{"one at a time", 1, 1},
		{"two at a time", 2, 2},
		{"zero treated as one", 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inner := &slowDispatcher{}
			l := NewLimiter(inner, tt.limit)

			chans := make([]<-chan Result, 5)
			for i := range chans {
				chans[i] = l.Dispatch(context.Background(), Request{Method: types.MethodGet, URL: "http://x.test"})
			}
			for i, ch := range chans {
				if r := <-ch; r.Err != nil || r.Response.StatusCode != 200 {
					t.Errorf("Result %d: expected 200, got %+v", i, r)
				}
			}
			if got := inner.peak.Load(); got != tt.want {
				t.Errorf("Expected peak concurrency %d, got %d", tt.want, got)
			}
		})
	}
}

func TestLimiterCancelledWhileWaiting(t *testing.T) {
	l := NewLimiter(&slowDispatcher{}, 1)
	first := l.Dispatch(context.Background(), Request{URL: "http://x.test"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := <-l.Dispatch(ctx, Request{URL: "http://x.test"})

	var netErr *NetworkError
	if !errors.As(r.Err, &netErr) {
		t.Errorf("Expected NetworkError for a cancelled wait, got %v", r.Err)
	}
	<-first
}
