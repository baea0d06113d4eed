package pool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSubmitAndRun(t *testing.T) {
	p := New(Config{Workers: 4, QueueSize: 16})
	defer p.Shutdown(context.Background())

	var counter int64
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		err := p.Submit(context.Background(), func() {
			defer wg.Done()
			atomic.AddInt64(&counter, 1)
		})
		if err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
	}
	wg.Wait()

	if got := atomic.LoadInt64(&counter); got != 50 {
		t.Errorf("counter = %d, want 50", got)
	}

	stats := p.Stats()
	if stats.TotalSubmitted != 50 || stats.TotalCompleted != 50 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestRejectWhenFull(t *testing.T) {
	p := New(Config{Workers: 1, QueueSize: 1, Backpressure: Reject})
	defer p.Shutdown(context.Background())

	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	// Occupy the single worker.
	if err := p.Submit(context.Background(), func() {
		defer wg.Done()
		<-release
	}); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	// Fill the queue, then overflow it.
	var rejected int
	for i := 0; i < 10; i++ {
		if err := p.Submit(context.Background(), func() {}); errors.Is(err, ErrPoolFull) {
			rejected++
		}
	}
	if rejected == 0 {
		t.Error("expected rejections from a full queue")
	}

	close(release)
	wg.Wait()
}

func TestCallerRunsWhenFull(t *testing.T) {
	p := New(Config{Workers: 1, QueueSize: 1, Backpressure: CallerRuns})
	defer p.Shutdown(context.Background())

	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	if err := p.Submit(context.Background(), func() {
		defer wg.Done()
		<-release
	}); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	// Saturate the queue.
	p.Submit(context.Background(), func() {})

	// The overflow job runs inline, so it completes before Submit returns.
	ran := false
	if err := p.Submit(context.Background(), func() { ran = true }); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if !ran {
		t.Error("overflow job did not run in the caller's goroutine")
	}

	close(release)
	wg.Wait()
}

func TestBlockHonorsContext(t *testing.T) {
	p := New(Config{Workers: 1, QueueSize: 1, Backpressure: Block})
	defer p.Shutdown(context.Background())

	release := make(chan struct{})
	defer close(release)
	p.Submit(context.Background(), func() { <-release })
	p.Submit(context.Background(), func() {})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := p.Submit(ctx, func() {}); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Submit = %v, want deadline exceeded", err)
	}
}

func TestShutdownDrainsQueue(t *testing.T) {
	p := New(Config{Workers: 2, QueueSize: 32})

	var counter int64
	for i := 0; i < 20; i++ {
		if err := p.Submit(context.Background(), func() {
			atomic.AddInt64(&counter, 1)
		}); err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
	}

	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if got := atomic.LoadInt64(&counter); got != 20 {
		t.Errorf("counter = %d, want 20 after drain", got)
	}

	if err := p.Submit(context.Background(), func() {}); !errors.Is(err, ErrPoolShutdown) {
		t.Errorf("Submit after shutdown = %v, want ErrPoolShutdown", err)
	}
}

func TestPanickingJobKeepsWorkerAlive(t *testing.T) {
	p := New(Config{Workers: 1, QueueSize: 4})
	defer p.Shutdown(context.Background())

	p.Submit(context.Background(), func() { panic("boom") })

	ran := make(chan struct{})
	if err := p.Submit(context.Background(), func() { close(ran) }); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not survive a panicking job")
	}
}

func TestWaitIdle(t *testing.T) {
	p := New(Config{Workers: 2, QueueSize: 8})
	defer p.Shutdown(context.Background())

	for i := 0; i < 8; i++ {
		p.Submit(context.Background(), func() {
			time.Sleep(10 * time.Millisecond)
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.WaitIdle(ctx, 5*time.Millisecond); err != nil {
		t.Fatalf("WaitIdle failed: %v", err)
	}
	if stats := p.Stats(); stats.TotalCompleted != 8 {
		t.Errorf("completed = %d, want 8", stats.TotalCompleted)
	}
}
