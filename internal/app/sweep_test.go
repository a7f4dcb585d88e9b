package app

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestSweepLoopStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var mu sync.Mutex
	runs := 0
	done := make(chan struct{})
	go func() {
		sweepLoop(ctx, 5*time.Millisecond, func() {
			mu.Lock()
			runs++
			mu.Unlock()
		})
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweep loop still running after cancel")
	}

	mu.Lock()
	defer mu.Unlock()
	if runs == 0 {
		t.Error("sweep never ran before cancel")
	}
}
