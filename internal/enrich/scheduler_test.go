package enrich

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/erazemk/setupcatalog/internal/model"
)

func TestScheduleRunsDetachedFromCaller(t *testing.T) {
	done := make(chan error, 1)
	s := NewScheduler(func(ctx context.Context, task Task) error {
		done <- ctx.Err()
		return nil
	}, Options{Workers: 1, QueueSize: 1, Timeout: time.Second})
	s.Start()
	defer s.Shutdown(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	if !s.Schedule(ctx, Task{Platform: model.PlatformBooth, ItemID: "1"}) {
		t.Fatal("expected task to be scheduled")
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected task context to survive caller cancellation, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("task did not run")
	}
}

func TestScheduleSkipsWhenFull(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	s := NewScheduler(func(ctx context.Context, task Task) error {
		started <- struct{}{}
		<-release
		return nil
	}, Options{Workers: 1, QueueSize: 1, Timeout: time.Second})
	s.Start()

	ctx := context.Background()
	if !s.Schedule(ctx, Task{ItemID: "1"}) {
		t.Fatal("expected first task to be scheduled")
	}
	<-started
	if !s.Schedule(ctx, Task{ItemID: "2"}) {
		t.Fatal("expected second task to be queued")
	}
	if s.Schedule(ctx, Task{ItemID: "3"}) {
		t.Error("expected third task to be skipped")
	}

	close(release)
	if err := s.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestShutdownDrainsQueue(t *testing.T) {
	var ran atomic.Int32
	s := NewScheduler(func(ctx context.Context, task Task) error {
		time.Sleep(5 * time.Millisecond)
		ran.Add(1)
		return nil
	}, Options{Workers: 2, QueueSize: 10, Timeout: time.Second})
	s.Start()

	for range 6 {
		s.Schedule(context.Background(), Task{})
	}
	if err := s.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if ran.Load() != 6 {
		t.Errorf("expected 6 tasks to run, got %d", ran.Load())
	}
	if s.Schedule(context.Background(), Task{}) {
		t.Error("expected schedule after shutdown to be skipped")
	}
}

func TestFailuresAndPanicsAreContained(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	s := NewScheduler(func(ctx context.Context, task Task) error {
		mu.Lock()
		seen = append(seen, task.ItemID)
		mu.Unlock()
		switch task.ItemID {
		case "boom":
			panic("boom")
		case "fail":
			return errors.New("ai down")
		}
		return nil
	}, Options{Workers: 1, QueueSize: 10, Timeout: time.Second})
	s.Start()

	for _, id := range []string{"boom", "fail", "ok"} {
		s.Schedule(context.Background(), Task{ItemID: id})
	}
	if err := s.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if len(seen) != 3 {
		t.Errorf("expected worker to survive and run all tasks, got %v", seen)
	}
}

func TestTaskTimeout(t *testing.T) {
	done := make(chan error, 1)
	s := NewScheduler(func(ctx context.Context, task Task) error {
		<-ctx.Done()
		done <- ctx.Err()
		return ctx.Err()
	}, Options{Workers: 1, QueueSize: 1, Timeout: 10 * time.Millisecond})
	s.Start()
	defer s.Shutdown(context.Background())

	s.Schedule(context.Background(), Task{})
	select {
	case err := <-done:
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected deadline exceeded, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("task was not cancelled by its timeout")
	}
}
