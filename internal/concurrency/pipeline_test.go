package concurrency

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateConcurrentlyMergesAllDownstreamResults(t *testing.T) {
	pool := NewPool(context.Background(), 4)
	defer pool.Release()

	items := []int{1, 2, 3, 4, 5}

	ch := GenerateConcurrently(pool, func(yield func(int) bool) {
		for _, it := range items {
			if !yield(it) {
				return
			}
		}
	}, func(ctx context.Context, item int, emit func(Result)) {
		emit(Result{Kind: KindRaw, Payload: item * 2})
	})

	var got []int
	GatherResults(ch, func(r Result) bool {
		require.NoError(t, r.Err)
		got = append(got, r.Payload.(int))
		return true
	})

	sort.Ints(got)
	assert.Equal(t, []int{2, 4, 6, 8, 10}, got)
}

func TestForkConcurrentlyRunsEveryDownstream(t *testing.T) {
	pool := NewPool(context.Background(), 4)
	defer pool.Release()

	downstreams := []func(ctx context.Context, emit func(Result)){
		func(ctx context.Context, emit func(Result)) { emit(Result{Kind: KindRaw, Payload: "a"}) },
		func(ctx context.Context, emit func(Result)) { emit(Result{Kind: KindRaw, Payload: "b"}) },
		func(ctx context.Context, emit func(Result)) { emit(Result{Kind: KindRaw, Payload: "c"}) },
	}

	ch := ForkConcurrently(pool, downstreams)

	var got []string
	GatherResults(ch, func(r Result) bool {
		got = append(got, r.Payload.(string))
		return true
	})

	sort.Strings(got)
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestGatherResultsStopsEarlyWhenYieldReturnsFalse(t *testing.T) {
	pool := NewPool(context.Background(), 2)
	defer pool.Release()

	ch := ForkConcurrently(pool, []func(ctx context.Context, emit func(Result)){
		func(ctx context.Context, emit func(Result)) { emit(Result{Kind: KindRaw, Payload: 1}) },
		func(ctx context.Context, emit func(Result)) { emit(Result{Kind: KindRaw, Payload: 2}) },
	})

	count := 0
	GatherResults(ch, func(r Result) bool {
		count++
		return false
	})
	assert.Equal(t, 1, count)
}
