// Package refresh runs background revalidation of stale cache entries on a
// small worker pool. At most one job per key is queued or running.
package refresh

import (
	"context"
	"sync"
	"time"
)

type Job[T any] struct {
	Key     string
	Payload T
}

type Refresher[T any] struct {
	ch      chan Job[T]
	inFly   sync.Map // key -> struct{}
	do      func(ctx context.Context, j Job[T])
	timeout time.Duration

	// OnDrop is called when a job is discarded because the queue is full.
	OnDrop func(j Job[T])

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func New[T any](capacity, workerCount int, timeout time.Duration, do func(ctx context.Context, j Job[T])) *Refresher[T] {
	if capacity <= 0 {
		capacity = 256
	}
	if workerCount <= 0 {
		workerCount = 2
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	r := &Refresher[T]{ch: make(chan Job[T], capacity), do: do, timeout: timeout}
	r.wg.Add(workerCount)
	for i := 0; i < workerCount; i++ {
		go r.worker()
	}
	return r
}

// Enqueue schedules j unless a job with the same key is already pending.
// It never blocks; it reports whether the job was accepted.
func (r *Refresher[T]) Enqueue(j Job[T]) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return false
	}
	if _, exists := r.inFly.LoadOrStore(j.Key, struct{}{}); exists {
		return false
	}
	select {
	case r.ch <- j:
		return true
	default:
		// drop if saturated
		r.inFly.Delete(j.Key)
		if r.OnDrop != nil {
			r.OnDrop(j)
		}
		return false
	}
}

// Pending reports whether a job for key is queued or running.
func (r *Refresher[T]) Pending(key string) bool {
	_, ok := r.inFly.Load(key)
	return ok
}

// Close stops accepting jobs and waits for queued ones to finish.
func (r *Refresher[T]) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.ch)
	r.mu.Unlock()
	r.wg.Wait()
}

func (r *Refresher[T]) worker() {
	defer r.wg.Done()
	for j := range r.ch {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		func() {
			defer func() {
				r.inFly.Delete(j.Key)
				cancel()
			}()
			if r.do != nil {
				r.do(ctx, j)
			}
		}()
	}
}
