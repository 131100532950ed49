package stats

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunningMeanAndStd(t *testing.T) {
	r := NewRunning(2)
	for _, frame := range [][]float64{{2, 10}, {4, 10}, {6, 10}} {
		r.Push(frame)
	}

	mean := r.Mean()
	require.InDelta(t, 4.0, mean[0], 1e-9)
	require.InDelta(t, 10.0, mean[1], 1e-9)

	std := r.Std()
	require.InDelta(t, 1.632993, std[0], 1e-5) // population std of {2,4,6}
	require.InDelta(t, 0.0, std[1], 1e-9)
}

func TestPreloadSeedsInitialGuess(t *testing.T) {
	r := NewRunning(1)
	r.Preload([]float64{12}, []float64{1.5}, 2)

	require.Equal(t, 2, r.Count())
	require.InDelta(t, 12.0, r.Mean()[0], 1e-9)
	require.InDelta(t, 1.5, r.Std()[0], 1e-9)

	// New observations pull the seeded stats toward the live signal.
	for i := 0; i < 50; i++ {
		r.Push([]float64{20})
	}
	require.Greater(t, r.Mean()[0], 18.0)
}
