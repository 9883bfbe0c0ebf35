package compressor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestPoolDo(t *testing.T) {
	p := NewPool(4, zap.NewNop())
	defer p.Close()

	var (
		wg    sync.WaitGroup
		count int32
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := p.Do(context.Background(), func() { atomic.AddInt32(&count, 1) }); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	if count != 20 {
		t.Fatalf("expected 20 jobs to run but got: %d", count)
	}
}

func TestPoolDoContextDone(t *testing.T) {
	p := NewPool(1, zap.NewNop())
	defer p.Close()

	release := make(chan struct{})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := p.Do(ctx, func() { <-release })
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context.DeadlineExceeded but got: %v", err)
	}
	close(release)
}

func TestPoolSurvivesPanic(t *testing.T) {
	p := NewPool(1, zap.NewNop())
	defer p.Close()

	if err := p.Do(context.Background(), func() { panic("boom") }); err != nil {
		t.Fatal(err)
	}

	ran := false
	if err := p.Do(context.Background(), func() { ran = true }); err != nil {
		t.Fatal(err)
	}
	if !ran {
		t.Fatal("expected worker to keep running after panic")
	}
}

func TestPoolClosed(t *testing.T) {
	p := NewPool(1, zap.NewNop())
	p.Close()
	p.Close()

	if err := p.Do(context.Background(), func() {}); !errors.Is(err, ErrPoolClosed) {
		t.Fatalf("expected ErrPoolClosed but got: %v", err)
	}
}
