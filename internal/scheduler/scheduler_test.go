package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestEnqueue_AssignsRequestID(t *testing.T) {
	s := New(zap.NewNop())
	id := s.Enqueue(Job{Kind: "intent", Run: func(context.Context) error { return nil }})
	if id == "" {
		t.Fatal("expected a generated request ID")
	}
	id2 := s.Enqueue(Job{Kind: "intent", Run: func(context.Context) error { return nil }})
	if id == id2 {
		t.Fatalf("request IDs must be unique, got %q twice", id)
	}
	s.Wait()
}

func TestDrain_FIFOOrder(t *testing.T) {
	s := New(zap.NewNop())

	var mu sync.Mutex
	var order []int
	gate := make(chan struct{})

	for i := 0; i < 5; i++ {
		i := i
		s.Enqueue(Job{Kind: "intent", Run: func(context.Context) error {
			if i == 0 {
				<-gate // hold the drain loop so jobs 1..4 queue up behind
			}
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil
		}})
	}
	close(gate)
	s.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 5 {
		t.Fatalf("ran %d jobs, want 5", len(order))
	}
	for i, got := range order {
		if got != i {
			t.Fatalf("jobs ran out of order: %v", order)
		}
	}
}

func TestDrain_SingleFlight(t *testing.T) {
	s := New(zap.NewNop())

	var running, maxRunning int32
	var wg sync.WaitGroup
	wg.Add(10)
	for i := 0; i < 10; i++ {
		go func() {
			defer wg.Done()
			s.Enqueue(Job{Kind: "composition", Run: func(context.Context) error {
				n := atomic.AddInt32(&running, 1)
				for {
					prev := atomic.LoadInt32(&maxRunning)
					if n <= prev || atomic.CompareAndSwapInt32(&maxRunning, prev, n) {
						break
					}
				}
				time.Sleep(2 * time.Millisecond)
				atomic.AddInt32(&running, -1)
				return nil
			}})
		}()
	}
	wg.Wait()
	s.Wait()

	if got := atomic.LoadInt32(&maxRunning); got != 1 {
		t.Fatalf("observed %d concurrent jobs, want 1", got)
	}
}

func TestDrain_ContinuesPastFailedJob(t *testing.T) {
	s := New(zap.NewNop())

	var ran atomic.Bool
	s.Enqueue(Job{Kind: "intent", Run: func(context.Context) error {
		return errors.New("oracle unavailable")
	}})
	s.Enqueue(Job{Kind: "intent", Run: func(context.Context) error {
		ran.Store(true)
		return nil
	}})
	s.Wait()

	if !ran.Load() {
		t.Fatal("job after a failure never ran")
	}
}

func TestStatus(t *testing.T) {
	s := New(zap.NewNop())

	if st := s.Status(); st.State != StateIdle || st.Depth != 0 {
		t.Fatalf("fresh scheduler status %+v", st)
	}

	started := make(chan struct{})
	gate := make(chan struct{})
	s.Enqueue(Job{Kind: "intent", Run: func(context.Context) error {
		close(started)
		<-gate
		return nil
	}})
	s.Enqueue(Job{Kind: "intent", Run: func(context.Context) error { return nil }})
	<-started

	st := s.Status()
	if st.State != StateDraining {
		t.Fatalf("want draining while a job is held, got %+v", st)
	}
	if st.Depth != 1 {
		t.Fatalf("want 1 queued job behind the running one, got %d", st.Depth)
	}

	close(gate)
	s.Wait()
	if st := s.Status(); st.State != StateIdle || st.Depth != 0 {
		t.Fatalf("drained scheduler status %+v", st)
	}
}

func TestJobContext_HasDeadline(t *testing.T) {
	s := New(zap.NewNop())
	s.jobTimeout = time.Minute

	var hasDeadline atomic.Bool
	s.Enqueue(Job{Kind: "intent", Run: func(ctx context.Context) error {
		_, ok := ctx.Deadline()
		hasDeadline.Store(ok)
		return nil
	}})
	s.Wait()

	if !hasDeadline.Load() {
		t.Fatal("job context carries no deadline")
	}
}
