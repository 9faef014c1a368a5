package workerpool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestPool_ExecutesTasks(t *testing.T) {
	p := New(2, 10)
	defer p.Stop()

	var count atomic.Int32
	fns := make([]func() error, 20)
	for i := range fns {
		fns[i] = func() error {
			count.Add(1)
			return nil
		}
	}

	if err := p.Run(context.Background(), fns...); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if count.Load() != 20 {
		t.Errorf("expected 20 executions, got %d", count.Load())
	}
}

func TestPool_RunReturnsFirstError(t *testing.T) {
	p := New(2, 10)
	defer p.Stop()

	wantErr := errors.New("boom")
	err := p.Run(context.Background(),
		func() error { return nil },
		func() error { return wantErr },
		func() error { return nil },
	)
	if !errors.Is(err, wantErr) {
		t.Errorf("expected %v, got %v", wantErr, err)
	}
}

func TestPool_PanicRecovered(t *testing.T) {
	p := New(1, 10)
	defer p.Stop()

	var ran atomic.Bool
	_ = p.Run(context.Background(),
		func() error { panic("bad task") },
	)

	// Worker must survive the panic and keep serving
	if err := p.Run(context.Background(), func() error {
		ran.Store(true)
		return nil
	}); err != nil {
		t.Fatalf("Run after panic failed: %v", err)
	}
	if !ran.Load() {
		t.Error("worker did not run tasks after a panic")
	}
}

func TestPool_SubmitAfterStop(t *testing.T) {
	p := New(1, 1)
	p.Stop()
	p.Stop() // idempotent

	if err := p.Submit(context.Background(), func() error { return nil }); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("expected ErrPoolClosed, got %v", err)
	}
}

func TestPool_RunCancelledContext(t *testing.T) {
	p := New(1, 10)
	defer p.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran atomic.Bool
	err := p.Run(ctx, func() error {
		ran.Store(true)
		return nil
	})
	if err == nil {
		t.Fatal("expected context error")
	}
	if ran.Load() {
		t.Error("task should not run under a cancelled context")
	}
}

func TestPool_StopWaitsForInFlight(t *testing.T) {
	p := New(2, 10)

	var done atomic.Int32
	for i := 0; i < 4; i++ {
		if err := p.Submit(context.Background(), func() error {
			time.Sleep(10 * time.Millisecond)
			done.Add(1)
			return nil
		}); err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
	}

	p.Stop()
	if done.Load() != 4 {
		t.Errorf("Stop returned before all tasks finished: %d/4", done.Load())
	}
}
