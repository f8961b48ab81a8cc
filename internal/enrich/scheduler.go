// Package enrich runs AI enrichment of newly ingested items in the background.
//
// Tasks are detached from the request that scheduled them: they keep running
// after the response is written, under their own deadline. Failures are
// logged and never retried.
package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/erazemk/setupcatalog/internal/model"
)

// Task describes one item to enrich.
type Task struct {
	Platform    model.Platform
	ItemID      string
	Name        string
	Description string
	Category    model.Category
	// Deterministic is set when Category came from an override or the
	// platform taxonomy; enrichment then only sets the nice name.
	Deterministic bool
}

// Handler processes one task.
type Handler func(ctx context.Context, t Task) error

// Options configures a Scheduler.
type Options struct {
	Workers   int
	QueueSize int
	Timeout   time.Duration
}

type envelope struct {
	ctx  context.Context
	task Task
}

// Scheduler is a bounded background queue with a fixed worker pool.
type Scheduler struct {
	handler Handler
	opts    Options
	queue   chan envelope

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler. Call Start before scheduling.
func NewScheduler(handler Handler, opts Options) *Scheduler {
	if opts.Workers <= 0 {
		opts.Workers = 2
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Scheduler{
		handler: handler,
		opts:    opts,
		queue:   make(chan envelope, opts.QueueSize),
	}
}

// Start launches the workers.
func (s *Scheduler) Start() {
	for range s.opts.Workers {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			for env := range s.queue {
				s.run(env)
			}
		}()
	}
}

// Schedule enqueues a task without blocking. It reports false when the task
// was skipped because the queue is full or the scheduler is shutting down.
// The task keeps ctx's values but not its cancellation or deadline.
func (s *Scheduler) Schedule(ctx context.Context, t Task) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false
	}

	select {
	case s.queue <- envelope{ctx: context.WithoutCancel(ctx), task: t}:
		return true
	default:
		return false
	}
}

// Shutdown stops accepting tasks and waits for queued ones to finish, or for
// ctx to expire.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for enrichment workers: %w", ctx.Err())
	}
}

func (s *Scheduler) run(env envelope) {
	ctx, cancel := context.WithTimeout(env.ctx, s.opts.Timeout)
	defer cancel()

	t := env.task
	defer func() {
		if r := recover(); r != nil {
			slog.Error("enrichment panicked", "platform", t.Platform, "id", t.ItemID, "panic", r)
		}
	}()

	start := time.Now()
	if err := s.handler(ctx, t); err != nil {
		slog.Warn("enrichment failed", "platform", t.Platform, "id", t.ItemID, "error", err)
		return
	}
	slog.Info("item enriched", "platform", t.Platform, "id", t.ItemID, "duration", time.Since(start))
}
