// Package pool runs independent work items on a bounded set of goroutines.
//
// It is used for batch operations only (tokenizing or compiling many files);
// compiling a single file never goes through the pool.
package pool

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrTimeout is returned by Future.Result when the result is not ready in
// time. The work itself keeps running.
var ErrTimeout = errors.New("pool: result not ready before timeout")

// Pool bounds concurrency. The zero value is not usable; call New.
type Pool struct {
	workers int
	timeout time.Duration
	sem     chan struct{}
}

// New creates a pool with the given number of workers. workers <= 0 means
// GOMAXPROCS. timeout is the default wait of Future.Result; zero waits
// forever.
func New(workers int, timeout time.Duration) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Pool{
		workers: workers,
		timeout: timeout,
		sem:     make(chan struct{}, workers),
	}
}

// Workers returns the concurrency limit.
func (p *Pool) Workers() int { return p.workers }

// Future is the pending result of a submitted function.
type Future[T any] struct {
	done    chan struct{}
	once    sync.Once
	val     T
	err     error
	timeout time.Duration
}

// Submit runs fn on the pool. It does not block; the call waits for a free
// worker in the background.
func Submit[T any](ctx context.Context, p *Pool, fn func(ctx context.Context) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{}), timeout: p.timeout}
	if err := ctx.Err(); err != nil {
		f.finish(*new(T), err)
		return f
	}
	go func() {
		select {
		case p.sem <- struct{}{}:
		case <-ctx.Done():
			f.finish(*new(T), ctx.Err())
			return
		}
		defer func() { <-p.sem }()
		defer func() {
			if r := recover(); r != nil {
				f.finish(*new(T), fmt.Errorf("pool: task panicked: %v", r))
			}
		}()
		v, err := fn(ctx)
		f.finish(v, err)
	}()
	return f
}

func (f *Future[T]) finish(v T, err error) {
	f.once.Do(func() {
		f.val, f.err = v, err
		close(f.done)
	})
}

// Result waits for the value. timeout <= 0 uses the pool default.
func (f *Future[T]) Result(timeout time.Duration) (T, error) {
	if timeout <= 0 {
		timeout = f.timeout
	}
	if timeout <= 0 {
		<-f.done
		return f.val, f.err
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-f.done:
		return f.val, f.err
	case <-timer.C:
		var zero T
		return zero, ErrTimeout
	}
}

// Done reports whether the result is available.
func (f *Future[T]) Done() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Map applies fn to every item and returns the results in input order.
// Items are handed to workers in chunks of chunk items (chunk <= 0 means 1).
// The first error cancels the remaining work and is returned.
func Map[T, R any](ctx context.Context, p *Pool, items []T, chunk int, fn func(ctx context.Context, item T) (R, error)) ([]R, error) {
	if chunk <= 0 {
		chunk = 1
	}
	out := make([]R, len(items))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for start := 0; start < len(items); start += chunk {
		end := min(start+chunk, len(items))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				r, err := fn(ctx, items[i])
				if err != nil {
					return err
				}
				out[i] = r
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
