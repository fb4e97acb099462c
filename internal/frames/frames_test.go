package frames

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAssign(t *testing.T) {
	tests := []struct {
		name          string
		index, count  int
		frames        int
		want          []int
	}{
		{"single worker", 0, 1, 4, []int{0, 1, 2, 3}},
		{"middle worker", 1, 3, 7, []int{1, 4}},
		{"last worker", 2, 3, 7, []int{2, 5}},
		{"more workers than frames", 3, 5, 2, []int{}},
		{"no frames", 0, 2, 0, []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Assign(tt.index, tt.count, tt.frames)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestAssignCoversEveryFrameOnce(t *testing.T) {
	const frames, workers = 23, 4

	var all []int
	for w := 0; w < workers; w++ {
		got, err := Assign(w, workers, frames)
		require.NoError(t, err)
		all = append(all, got...)
	}
	sort.Ints(all)

	want := make([]int, frames)
	for i := range want {
		want[i] = i
	}
	require.Equal(t, want, all)
}

func TestAssignErrors(t *testing.T) {
	_, err := Assign(0, 0, 5)
	require.Error(t, err)
	_, err = Assign(3, 3, 5)
	require.Error(t, err)
	_, err = Assign(-1, 3, 5)
	require.Error(t, err)
	_, err = Assign(0, 3, -1)
	require.Error(t, err)
}

func TestRunVisitsAllFrames(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []int
	)
	err := Run(context.Background(), []int{4, 1, 9, 16}, 2, func(_ context.Context, frame int) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, frame)
		return nil
	})
	require.NoError(t, err)

	sort.Ints(seen)
	require.Equal(t, []int{1, 4, 9, 16}, seen)
}

func TestRunRespectsLimit(t *testing.T) {
	var inFlight, peak int32
	frames := make([]int, 20)
	for i := range frames {
		frames[i] = i
	}

	err := Run(context.Background(), frames, 3, func(_ context.Context, _ int) error {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		atomic.AddInt32(&inFlight, -1)
		return nil
	})
	require.NoError(t, err)
	require.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))
}

func TestRunReturnsFirstError(t *testing.T) {
	boom := errors.New("boom")
	err := Run(context.Background(), []int{0, 1, 2}, 1, func(_ context.Context, frame int) error {
		if frame == 1 {
			return boom
		}
		return nil
	})
	require.ErrorIs(t, err, boom)
	require.ErrorContains(t, err, "frame 1")
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := Run(ctx, []int{0}, 1, func(context.Context, int) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	require.False(t, called)
}
