package limiter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MattDietz/lightshowpi/internal/config"
)

func newController(t *testing.T, channels int, mutate func(*config.Config)) *Controller {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(&cfg)
	}
	c, err := New(cfg, channels)
	require.NoError(t, err)
	return c
}

func TestResolveLimitsBroadcastsScalar(t *testing.T) {
	limits, err := ResolveLimits([]float64{5}, 8)
	require.NoError(t, err)
	require.Equal(t, []float64{5, 5, 5, 5, 5, 5, 5, 5}, limits)
}

func TestResolveLimitsRejectsCardinalityMismatch(t *testing.T) {
	_, err := ResolveLimits([]float64{5, 6, 7}, 8)
	var cfgErr *config.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	require.Equal(t, "lightshow.limit_list", cfgErr.Setting)
}

func TestHotSignalRatchetsLimitUp(t *testing.T) {
	// channels=8, limit=5, threshold=0.725, increase=1.35:
	// frame 1: 10 >= 5, and 10 > 5*0.725      -> limit 6.75
	// frame 2: 10 >= 6.75, and 10 > 4.89...   -> limit 9.1125
	// frame 3: 10 >= 9.1125, and 10 > 6.60... -> limit 12.30...
	c := newController(t, 8, nil)

	frame := make([]float64, 8)
	frame[2] = 10

	for i := 0; i < 3; i++ {
		out := c.Step(frame)
		require.True(t, out[2], "frame %d should be on", i+1)
	}

	limits := c.Limits()
	require.InDelta(t, 5*1.35*1.35*1.35, limits[2], 1e-9)
	require.Equal(t, 5.0, limits[0], "other channels keep their initial limit")
}

func TestLimitIsMonotonicWhileDrivenHard(t *testing.T) {
	c := newController(t, 1, nil)
	prev := c.Limits()[0]
	for i := 0; i < 50; i++ {
		c.Step([]float64{1000})
		cur := c.Limits()[0]
		require.GreaterOrEqual(t, cur, prev)
		prev = cur
	}
}

func TestSilenceLowersLimitAfterMaxOffCycles(t *testing.T) {
	// limit=5, max_off_cycles=10, decrease=0.925.
	c := newController(t, 1, nil)

	for i := 0; i < 9; i++ {
		out := c.Step([]float64{0})
		require.False(t, out[0])
		require.Equal(t, 5.0, c.Limits()[0], "limit must hold until the streak completes")
	}

	c.Step([]float64{0})
	require.InDelta(t, 5*0.925, c.Limits()[0], 1e-9)

	// Streak reset: the next 9 silent frames leave the limit alone again.
	for i := 0; i < 9; i++ {
		c.Step([]float64{0})
	}
	require.InDelta(t, 5*0.925, c.Limits()[0], 1e-9)
	c.Step([]float64{0})
	require.InDelta(t, 5*0.925*0.925, c.Limits()[0], 1e-9)
}

func TestOnFrameResetsOffStreak(t *testing.T) {
	c := newController(t, 1, nil)

	for i := 0; i < 9; i++ {
		c.Step([]float64{0})
	}
	// A single on frame (below the ratchet threshold) clears the streak.
	out := c.Step([]float64{5})
	require.True(t, out[0])

	for i := 0; i < 9; i++ {
		c.Step([]float64{0})
	}
	require.Greater(t, c.Limits()[0], 5*0.925, "streak must restart after an on frame")
}

func TestLimitNeverDecaysBelowFloor(t *testing.T) {
	c := newController(t, 1, func(cfg *config.Config) {
		cfg.Lightshow.MaxOffCycles = 1
		cfg.Lightshow.LimitThresholdDecrease = 0.5
	})

	for i := 0; i < 1000; i++ {
		c.Step([]float64{0})
	}
	limit := c.Limits()[0]
	require.Greater(t, limit, 0.0)
	require.InDelta(t, 5*floorFraction, limit, 1e-9)
}

func TestDisableAutoTuningFreezesLimits(t *testing.T) {
	c := newController(t, 2, func(cfg *config.Config) {
		cfg.Lightshow.DisableAutoTuning = true
	})

	for i := 0; i < 40; i++ {
		out := c.Step([]float64{100, 0})
		require.True(t, out[0])
		require.False(t, out[1])
	}
	require.Equal(t, []float64{5, 5}, c.Limits())
}

func TestOnThresholdIsInclusive(t *testing.T) {
	c := newController(t, 1, func(cfg *config.Config) {
		cfg.Lightshow.DisableAutoTuning = true
	})
	require.True(t, c.Step([]float64{5})[0])
	require.False(t, c.Step([]float64{4.999})[0])
}

func TestReplayFromResetIsDeterministic(t *testing.T) {
	frames := [][]float64{
		{10, 0}, {0, 3}, {6, 6}, {0, 0}, {12, 1}, {0, 0}, {0, 9}, {4, 4},
	}

	run := func(c *Controller) [][]bool {
		out := make([][]bool, 0, len(frames))
		for _, f := range frames {
			out = append(out, c.Step(f))
		}
		return out
	}

	c := newController(t, 2, nil)
	first := run(c)
	c.Reset()
	second := run(c)
	require.Equal(t, first, second)
	require.Equal(t, []float64{5, 5}, func() []float64 { c.Reset(); return c.Limits() }())
}
