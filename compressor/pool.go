package compressor

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"go.uber.org/zap"
)

// MaxWorkers caps the pool size on machines with many cores.
const MaxWorkers = 8

// ErrPoolClosed is returned by Do after Close.
var ErrPoolClosed = errors.New("compression pool is closed")

// Pool runs compression jobs on background worker goroutines so that
// request goroutines only wait for a result.
type Pool struct {
	jobs chan func()
	quit chan struct{}
	wg   sync.WaitGroup
	once sync.Once
	log  *zap.Logger
}

// NewPool starts pool with given number of workers.
// Non positive value means NumCPU capped at MaxWorkers.
func NewPool(workers int, log *zap.Logger) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
		if workers > MaxWorkers {
			workers = MaxWorkers
		}
	}
	p := &Pool{
		jobs: make(chan func()),
		quit: make(chan struct{}),
		log:  log,
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker(i)
	}
	log.Debug("compression pool started", zap.Int("workers", workers))
	return p
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for {
		select {
		case <-p.quit:
			return
		case job := <-p.jobs:
			p.run(id, job)
		}
	}
}

func (p *Pool) run(id int, job func()) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("compression job panicked", zap.Int("worker_id", id), zap.Any("panic", r))
		}
	}()
	job()
}

// Do hands fn to a worker and waits until it returns or ctx is done.
// When ctx ends first fn keeps running and its outcome is dropped.
func (p *Pool) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	job := func() {
		defer close(done)
		fn()
	}

	select {
	case p.jobs <- job:
	case <-p.quit:
		return ErrPoolClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops workers after running jobs finish.
func (p *Pool) Close() {
	p.once.Do(func() {
		close(p.quit)
		p.wg.Wait()
	})
}
