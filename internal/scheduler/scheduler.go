// Package scheduler serializes analysis work. Reasoning-oracle calls are
// expensive and rate-limited upstream, so at most one job runs at a time:
// submissions enqueue and return immediately while a single drain
// goroutine works through the backlog in FIFO order.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultJobTimeout = 10 * time.Minute

// Job is one queued unit of analysis work. Run receives a context bound
// by the scheduler's per-job timeout.
type Job struct {
	ID   string
	Kind string // "intent", "composition"
	Run  func(ctx context.Context) error
}

// State of the drain loop.
type State string

const (
	StateIdle     State = "idle"
	StateDraining State = "draining"
)

// Status is a point-in-time snapshot of the queue.
type Status struct {
	Depth int   `json:"queue_depth"`
	State State `json:"state"`
}

// Scheduler is a single-flight FIFO queue. Enqueue never blocks and never
// rejects; the caller gets the job's request ID back immediately.
type Scheduler struct {
	mu       sync.Mutex
	queue    []Job
	draining atomic.Bool

	jobTimeout time.Duration
	logger     *zap.Logger
}

func New(logger *zap.Logger) *Scheduler {
	return &Scheduler{jobTimeout: defaultJobTimeout, logger: logger}
}

// Enqueue appends the job and starts the drain loop if it is not already
// running. A job without an ID is assigned a fresh UUID. Returns the ID.
func (s *Scheduler) Enqueue(job Job) string {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}

	s.mu.Lock()
	s.queue = append(s.queue, job)
	depth := len(s.queue)
	s.mu.Unlock()

	s.logger.Info("job queued",
		zap.String("request_id", job.ID),
		zap.String("kind", job.Kind),
		zap.Int("queue_depth", depth),
	)

	s.startDrain()
	return job.ID
}

// startDrain launches the drain goroutine unless one is already running.
// The CompareAndSwap is the only gate: whoever flips false->true owns the loop.
func (s *Scheduler) startDrain() {
	if !s.draining.CompareAndSwap(false, true) {
		return
	}
	go s.drain()
}

func (s *Scheduler) drain() {
	for {
		job, ok := s.pop()
		if !ok {
			s.draining.Store(false)
			// A job enqueued between the last pop and the flag clear
			// would otherwise sit unprocessed until the next Enqueue.
			if s.depth() > 0 {
				s.startDrain()
			}
			return
		}
		s.runJob(job)
	}
}

func (s *Scheduler) runJob(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()

	start := time.Now()
	if err := job.Run(ctx); err != nil {
		s.logger.Error("job failed",
			zap.String("request_id", job.ID),
			zap.String("kind", job.Kind),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return
	}
	s.logger.Info("job completed",
		zap.String("request_id", job.ID),
		zap.String("kind", job.Kind),
		zap.Duration("elapsed", time.Since(start)),
	)
}

func (s *Scheduler) pop() (Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return Job{}, false
	}
	job := s.queue[0]
	s.queue = s.queue[1:]
	return job, true
}

func (s *Scheduler) depth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Status reports queue depth and whether a drain loop is active.
func (s *Scheduler) Status() Status {
	st := Status{Depth: s.depth(), State: StateIdle}
	if s.draining.Load() {
		st.State = StateDraining
	}
	return st
}

// Wait blocks until the queue is empty and no drain loop is running.
func (s *Scheduler) Wait() {
	for s.depth() > 0 || s.draining.Load() {
		time.Sleep(5 * time.Millisecond)
	}
}
