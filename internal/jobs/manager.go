package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"
	"github.com/riskdocs/riskdocs/internal/cache"
	"github.com/riskdocs/riskdocs/internal/config"
)

var (
	ErrJobNotFound   = errors.New("job not found")
	ErrManagerClosed = errors.New("job manager closed")

	// ErrHandlerTimeout marks a job forced to failed because its handler
	// exceeded the configured deadline.
	ErrHandlerTimeout = errors.New("job handler timeout")
)

// Handler executes one job request to completion.
type Handler interface {
	Handle(ctx context.Context, req Request) (any, error)
}

// entry is a live (queued or running) job with its payload.
type entry struct {
	job Job
	req Request
}

// Manager queues extraction jobs and drains them strictly one at a time
// in enqueue order. Enqueue never blocks on job execution. Terminal jobs
// move to a TTL cache and stay pollable until the retention window
// expires.
type Manager struct {
	handler Handler
	cache   cache.Cache // optional status mirror, may be nil
	timeout time.Duration

	mu     sync.Mutex
	live   map[uuid.UUID]*entry
	queue  []uuid.UUID
	closed bool

	wake chan struct{}
	quit chan struct{}
	done chan struct{}

	retention    *ttlcache.Cache[uuid.UUID, Job]
	retentionTTL time.Duration
}

// NewManager creates a manager and starts its drain goroutine.
func NewManager(handler Handler, ca cache.Cache, cfg config.JobsConfig) *Manager {
	m := &Manager{
		handler: handler,
		cache:   ca,
		timeout: cfg.HandlerTimeout,
		live:    make(map[uuid.UUID]*entry),
		wake:    make(chan struct{}, 1),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
		retention: ttlcache.New(
			ttlcache.WithTTL[uuid.UUID, Job](cfg.TerminalRetention),
			ttlcache.WithDisableTouchOnHit[uuid.UUID, Job](),
		),
		retentionTTL: cfg.TerminalRetention,
	}
	go m.retention.Start()
	go m.run()
	return m
}

// Enqueue accepts a request and returns its queued snapshot immediately.
// Execution happens later on the drain goroutine.
func (m *Manager) Enqueue(ctx context.Context, req Request) (Job, error) {
	e := &entry{
		job: Job{
			ID:         uuid.New(),
			Type:       req.Type(),
			Status:     StatusQueued,
			EnqueuedAt: time.Now().UTC(),
		},
		req: req,
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return Job{}, ErrManagerClosed
	}
	m.live[e.job.ID] = e
	m.queue = append(m.queue, e.job.ID)
	// Snapshot before unlocking; the drain goroutine may mutate the entry
	// the moment the lock drops.
	job := e.job
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}

	m.mirror(ctx, job.ID, StatusQueued)
	slog.Info("job enqueued", "job_id", job.ID, "type", job.Type)
	return job, nil
}

// GetJob returns a snapshot of the job, live or retained. Jobs whose
// retention window has expired are indistinguishable from jobs that
// never existed.
func (m *Manager) GetJob(id uuid.UUID) (Job, error) {
	m.mu.Lock()
	if e, ok := m.live[id]; ok {
		job := e.job
		m.mu.Unlock()
		return job, nil
	}
	m.mu.Unlock()

	if item := m.retention.Get(id); item != nil {
		return item.Value(), nil
	}
	return Job{}, ErrJobNotFound
}

// Close stops intake, drains every already-accepted job to a terminal
// state, and stops the retention cache. Safe to call more than once.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		<-m.done
		return
	}
	m.closed = true
	m.mu.Unlock()

	close(m.quit)
	<-m.done
	m.retention.Stop()
}

// run is the drain loop. Exactly one job runs at any moment; FIFO order
// is the order entries were appended under the mutex.
func (m *Manager) run() {
	defer close(m.done)
	for {
		e := m.next()
		if e == nil {
			return
		}
		m.execute(e)
	}
}

// next pops the queue head and marks it running, blocking while the
// queue is empty. Returns nil once the manager is closed and the queue
// is drained.
func (m *Manager) next() *entry {
	for {
		m.mu.Lock()
		if len(m.queue) > 0 {
			id := m.queue[0]
			m.queue = m.queue[1:]
			e := m.live[id]
			now := time.Now().UTC()
			e.job.Status = StatusRunning
			e.job.StartedAt = &now
			m.mu.Unlock()

			m.mirror(context.Background(), id, StatusRunning)
			slog.Info("job started", "job_id", id, "type", e.job.Type)
			return e
		}
		closed := m.closed
		m.mu.Unlock()

		if closed {
			return nil
		}
		select {
		case <-m.wake:
		case <-m.quit:
		}
	}
}

type outcome struct {
	result any
	err    error
}

// execute runs one job under the handler deadline. The handler runs in
// its own goroutine so a hung handler cannot stall the drain loop: on
// deadline the job is forced to failed and the goroutine is abandoned
// with its context cancelled.
func (m *Manager) execute(e *entry) {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	ch := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- outcome{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		result, err := m.handler.Handle(ctx, e.req)
		ch <- outcome{result: result, err: err}
	}()

	select {
	case out := <-ch:
		m.finish(e, out.result, out.err)
	case <-ctx.Done():
		m.finish(e, nil, fmt.Errorf("%w after %s", ErrHandlerTimeout, m.timeout))
	}
}

// finish records the terminal state and moves the snapshot to the
// retention cache.
func (m *Manager) finish(e *entry, result any, err error) {
	now := time.Now().UTC()

	m.mu.Lock()
	e.job.FinishedAt = &now
	if err != nil {
		e.job.Status = StatusFailed
		e.job.Error = err.Error()
	} else {
		e.job.Status = StatusCompleted
		e.job.Result = result
	}
	job := e.job
	// The retained snapshot must be in place before the live entry goes
	// away, or a concurrent poll between the two could miss the job
	// entirely and answer not-found mid-transition.
	m.retention.Set(job.ID, job, ttlcache.DefaultTTL)
	delete(m.live, job.ID)
	m.mu.Unlock()

	m.mirror(context.Background(), job.ID, job.Status)

	if err != nil {
		slog.Error("job failed", "job_id", job.ID, "type", job.Type, "error", err)
	} else {
		slog.Info("job completed", "job_id", job.ID, "type", job.Type,
			"duration", now.Sub(job.EnqueuedAt))
	}
}

// mirror publishes the status to Redis for cheap cross-process
// visibility. Best effort; the in-memory state is the source of truth.
func (m *Manager) mirror(ctx context.Context, id uuid.UUID, status Status) {
	if m.cache == nil {
		return
	}
	_ = m.cache.SetJobStatus(ctx, id, string(status), m.retentionTTL)
}
