package infra

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMapPreservesOrder(t *testing.T) {
	items := []int{5, 4, 3, 2, 1}
	results, errs := Map(context.Background(), 2, items, func(_ context.Context, n int) (int, error) {
		time.Sleep(time.Duration(n) * time.Millisecond)
		return n * 10, nil
	})
	assert.Equal(t, []int{50, 40, 30, 20, 10}, results)
	for _, err := range errs {
		assert.NoError(t, err)
	}
}

func TestMapBoundsConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	items := make([]int, 20)
	Map(context.Background(), 3, items, func(_ context.Context, _ int) (struct{}, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		inFlight.Add(-1)
		return struct{}{}, nil
	})
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestMapIsolatesFailures(t *testing.T) {
	boom := errors.New("boom")
	results, errs := Map(context.Background(), 0, []string{"a", "bad", "c"}, func(_ context.Context, s string) (string, error) {
		if s == "bad" {
			return "", boom
		}
		return s + "!", nil
	})
	assert.ErrorIs(t, errs[1], boom)
	assert.Equal(t, []string{"a!", "c!"}, Collect(results, errs))
}

func TestMapCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	_, errs := Map(ctx, 1, []int{1, 2}, func(_ context.Context, n int) (int, error) {
		calls.Add(1)
		return n, nil
	})
	assert.Zero(t, calls.Load())
	for _, err := range errs {
		assert.ErrorIs(t, err, context.Canceled)
	}
}
