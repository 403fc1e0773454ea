package sender

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
)

func TestEnqueueRunsJob(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 4})
	var ran atomic.Int32
	if err := d.Enqueue(context.Background(), "message.delete", "deleteMessage", func() error {
		ran.Add(1)
		return nil
	}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	d.Close()
	if ran.Load() != 1 {
		t.Fatalf("job should run once, ran %d", ran.Load())
	}
	if d.ErrorCount() != 0 {
		t.Fatalf("error count = %d", d.ErrorCount())
	}
}

func TestEnqueueDoesNotRetryTransientErrors(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1})
	var calls atomic.Int32
	refused := &net.OpError{Op: "dial", Err: errors.New("refused")}
	_ = d.Enqueue(context.Background(), "message.delete", "deleteMessage", func() error {
		calls.Add(1)
		return refused
	})
	d.Close()
	if calls.Load() != 1 {
		t.Fatalf("job ran %d times", calls.Load())
	}
	if d.ErrorCount() != 1 {
		t.Fatalf("error count = %d", d.ErrorCount())
	}
}

func TestEnqueueSkipsCancelledJob(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var ran atomic.Bool
	_ = d.Enqueue(ctx, "message.delete", "deleteMessage", func() error {
		ran.Store(true)
		return nil
	})
	d.Close()
	if ran.Load() {
		t.Fatalf("cancelled job must not run")
	}
	if d.ErrorCount() != 1 {
		t.Fatalf("error count = %d", d.ErrorCount())
	}
}

func TestEnqueueQueueFull(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 1})
	release := make(chan struct{})
	started := make(chan struct{})
	_ = d.Enqueue(context.Background(), "block", "", func() error {
		close(started)
		<-release
		return nil
	})
	<-started
	if err := d.Enqueue(context.Background(), "fill", "", func() error { return nil }); err != nil {
		t.Fatalf("second job should fit the queue: %v", err)
	}
	if err := d.Enqueue(context.Background(), "overflow", "", func() error { return nil }); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	close(release)
	d.Close()
}

func TestEnqueueAfterClose(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1})
	d.Close()
	err := d.Enqueue(context.Background(), "x", "", func() error { return nil })
	if !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("expected ErrQueueClosed, got %v", err)
	}
}

func TestSanitizeErrorMessage(t *testing.T) {
	got := sanitizeErrorMessage(errors.New("Post https://api.telegram.org/bot123:ABC-def/sendMessage: timeout"))
	if got != "Post https://api.telegram.org/bot<redacted>/sendMessage: timeout" {
		t.Fatalf("token not redacted: %s", got)
	}
}
