// Package concurrency provides the bounded fan-out/fan-in pipeline that
// every retrieval composition function builds on: generate_concurrently,
// fork_concurrently, and gather_results (spec.md §4.3), implemented over
// golang.org/x/sync's errgroup and semaphore instead of Python generators
// and thread-pool executors.
package concurrency

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Pool is a scoped worker pool: a bounded concurrency limiter plus a
// cancellation-propagating error group. One Pool backs one query's general
// orchestration work; a second, independent Pool backs attribute-definition
// fetches (spec.md §4.3 "two independent pools"). Callers MUST call
// Release on every exit path; Pool itself doesn't auto-release.
type Pool struct {
	size int64
	sem  *semaphore.Weighted
	g    *errgroup.Group
	ctx  context.Context
}

// NewPool creates a Pool bound to ctx with the given worker count.
func NewPool(ctx context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	return &Pool{
		size: int64(workers),
		sem:  semaphore.NewWeighted(int64(workers)),
		g:    g,
		ctx:  gctx,
	}
}

// Context returns the pool's cancellation-aware context: it is done as
// soon as any submitted task returns a non-nil error, letting siblings
// observe cancellation per spec.md §5 "a non-retryable error in any worker
// cancels peers."
func (p *Pool) Context() context.Context { return p.ctx }

// Size is the worker count the pool was constructed with; used to size
// merge-channel capacity per spec.md §5 ("default merge capacity equals
// worker count").
func (p *Pool) Size() int { return int(p.size) }

// Go submits fn to run as soon as a worker slot is free. Go blocks the
// caller only long enough to acquire that slot, then runs fn in its own
// goroutine.
func (p *Pool) Go(fn func(ctx context.Context) error) {
	if err := p.sem.Acquire(p.ctx, 1); err != nil {
		p.g.Go(func() error { return err })
		return
	}
	p.g.Go(func() error {
		defer p.sem.Release(1)
		return fn(p.ctx)
	})
}

// Wait blocks until every submitted task has returned, and returns the
// first non-nil error (if any).
func (p *Pool) Wait() error {
	return p.g.Wait()
}

// Release waits for outstanding tasks to finish and discards the result.
// Safe to call multiple times; call it on every exit path (success, user
// error, panic) so the pool's goroutines never outlive the query.
func (p *Pool) Release() {
	_ = p.g.Wait()
}

// ResultKind tags the payload carried by a Result so the assembler can
// dispatch exhaustively instead of relying on structural typing (spec.md §9).
type ResultKind int

const (
	KindUnknown ResultKind = iota
	KindSysIDPage
	KindAttributeDefinitionPage
	KindAttributeValuePage
	KindMetricPoints
	KindSeriesValues
	KindRaw
)

// Result is the tagged union carried on the merge channel between pipeline
// stages.
type Result struct {
	Kind    ResultKind
	Err     error
	Payload any
}

// GenerateConcurrently launches downstream(item) for every item produced by
// the items sequence, merging every downstream's emitted Results into a
// single output channel. It mirrors the source's
// `generate_concurrently(items, downstream)` generator: the upstream is
// walked sequentially in a single background goroutine (pagination I/O is
// sequential by nature), so the caller is not blocked, and each page's
// downstream processing runs concurrently on the pool.
func GenerateConcurrently[T any](pool *Pool, items func(yield func(T) bool), downstream func(ctx context.Context, item T, emit func(Result))) <-chan Result {
	out := make(chan Result, pool.Size())
	var wg sync.WaitGroup

	go func() {
		items(func(item T) bool {
			wg.Add(1)
			pool.Go(func(ctx context.Context) error {
				defer wg.Done()
				downstream(ctx, item, func(r Result) {
					select {
					case out <- r:
					case <-ctx.Done():
					}
				})
				return nil
			})
			return true
		})
		wg.Wait()
		close(out)
	}()

	return out
}

// ForkConcurrently runs each of downstreams concurrently over the same
// logical input, emitting every downstream's Results into a single merged
// output channel. Mirrors `fork_concurrently(downstreams[])`.
func ForkConcurrently(pool *Pool, downstreams []func(ctx context.Context, emit func(Result))) <-chan Result {
	out := make(chan Result, len(downstreams))
	var wg sync.WaitGroup

	for _, d := range downstreams {
		d := d
		wg.Add(1)
		pool.Go(func(ctx context.Context) error {
			defer wg.Done()
			d(ctx, func(r Result) {
				select {
				case out <- r:
				case <-ctx.Done():
				}
			})
			return nil
		})
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}

// GatherResults drains ch, yielding each Result to yield until the channel
// is closed or yield returns false. Mirrors `gather_results(stream)`.
func GatherResults(ch <-chan Result, yield func(Result) bool) {
	for r := range ch {
		if !yield(r) {
			return
		}
	}
}
