package batch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessor_Process(t *testing.T) {
	items := make([]int, 25)
	for i := range items {
		items[i] = i
	}

	t.Run("Sequential", func(t *testing.T) {
		p, err := NewProcessor[int](10)
		require.NoError(t, err)

		var seen []int
		var snaps []ProgressSnapshot
		p.WithProgressCallback(func(s ProgressSnapshot) { snaps = append(snaps, s) })

		err = p.Process(context.Background(), items, func(_ context.Context, batch []int, _ int) error {
			seen = append(seen, batch...)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, items, seen, "order preserved")
		require.Len(t, snaps, 3)
		assert.True(t, snaps[2].IsComplete())
		assert.InDelta(t, 40.0, snaps[0].PercentComplete, 1e-9)
	})

	t.Run("Concurrent", func(t *testing.T) {
		p, err := NewProcessor[int](5)
		require.NoError(t, err)
		var processed int32
		var mu sync.Mutex
		indexes := map[int]bool{}

		err = p.ProcessConcurrent(context.Background(), items, func(_ context.Context, batch []int, idx int) error {
			atomic.AddInt32(&processed, int32(len(batch)))
			mu.Lock()
			indexes[idx] = true
			mu.Unlock()
			return nil
		}, 2)
		require.NoError(t, err)
		assert.Equal(t, int32(25), processed)
		assert.Len(t, indexes, 5)
	})

	t.Run("ConcurrentError", func(t *testing.T) {
		p, err := NewProcessor[int](5)
		require.NoError(t, err)
		boom := errors.New("boom")
		err = p.ProcessConcurrent(context.Background(), items, func(_ context.Context, _ []int, idx int) error {
			if idx == 3 {
				return boom
			}
			return nil
		}, 3)
		require.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "batch 3 failed")
	})

	t.Run("ErrorStopsSequential", func(t *testing.T) {
		p, err := NewProcessor[int](10)
		require.NoError(t, err)
		calls := 0
		err = p.Process(context.Background(), items, func(_ context.Context, _ []int, idx int) error {
			calls++
			if idx == 1 {
				return errors.New("fail")
			}
			return nil
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "batch 1 failed")
		assert.Equal(t, 2, calls)
	})

	t.Run("Cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := NewProcessorWithDefaults[int]().Process(ctx, items, func(context.Context, []int, int) error {
			return nil
		})
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("Validation", func(t *testing.T) {
		p := NewProcessorWithDefaults[int]()
		assert.Equal(t, DefaultBatchSize, p.BatchSize())
		assert.ErrorIs(t, p.Process(context.Background(), nil, nil), ErrEmptyItems)
		assert.ErrorIs(t, p.Process(context.Background(), items, nil), ErrNilCallback)

		_, err := NewProcessor[int](0)
		require.ErrorIs(t, err, ErrInvalidBatchSize)
		_, err = NewProcessor[int](2000)
		require.ErrorIs(t, err, ErrInvalidBatchSize)
	})
}

func TestProgress(t *testing.T) {
	p := NewProgress(100, 10)
	assert.InDelta(t, 0.0, p.Snapshot().PercentComplete, 1e-9)

	s := p.AddProcessed(10)
	assert.InDelta(t, 10.0, s.PercentComplete, 1e-9)
	assert.Equal(t, 1, s.ProcessedBatches)
	assert.False(t, s.IsComplete())
	assert.GreaterOrEqual(t, s.EstimatedRemaining(), time.Duration(0))

	s = p.AddProcessed(90)
	assert.True(t, s.IsComplete())
	assert.Equal(t, 2, s.ProcessedBatches)
	assert.Equal(t, time.Duration(0), s.EstimatedRemaining())
}

func TestCalculateBatches(t *testing.T) {
	p, err := NewProcessor[int](10)
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{0, 10}, {10, 20}, {20, 25}}, p.CalculateBatches(25))
	assert.Empty(t, p.CalculateBatches(0))
}
