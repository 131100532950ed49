// Package limiter owns the per-channel adaptive amplitude thresholds that
// turn band levels into on/off decisions.
package limiter

import (
	"github.com/MattDietz/lightshowpi/internal/config"
)

// floorFraction bounds limit decay: a limit never drops below this fraction
// of its configured initial value, so a long quiet stretch cannot drive a
// channel into permanent flicker.
const floorFraction = 0.01

// Controller holds one adaptive limit per channel and updates it from the
// loudness history of the song. State is owned by the pipeline consumer and
// must only be stepped from one goroutine.
type Controller struct {
	threshold float64
	increase  float64
	decrease  float64
	maxOff    int
	autoTune  bool

	initial   []float64
	limits    []float64
	offStreak []int
	last      []bool
}

// ResolveLimits expands the configured limit list to one limit per channel.
// A single value broadcasts to all channels; otherwise the list length must
// match the channel count.
func ResolveLimits(list []float64, channels int) ([]float64, error) {
	switch len(list) {
	case 1:
		limits := make([]float64, channels)
		for i := range limits {
			limits[i] = list[0]
		}
		return limits, nil
	case channels:
		limits := make([]float64, channels)
		copy(limits, list)
		return limits, nil
	default:
		return nil, config.Errorf("lightshow.limit_list",
			"expected a single value or %d entries (one per channel), got %d", channels, len(list))
	}
}

// New builds a controller for the given channel count from config.
func New(cfg config.Config, channels int) (*Controller, error) {
	limits, err := ResolveLimits(cfg.Lightshow.LimitList, channels)
	if err != nil {
		return nil, err
	}

	c := &Controller{
		threshold: cfg.Lightshow.LimitThreshold,
		increase:  cfg.Lightshow.LimitThresholdIncrease,
		decrease:  cfg.Lightshow.LimitThresholdDecrease,
		maxOff:    cfg.Lightshow.MaxOffCycles,
		autoTune:  !cfg.Lightshow.DisableAutoTuning,
		initial:   limits,
		limits:    make([]float64, channels),
		offStreak: make([]int, channels),
		last:      make([]bool, channels),
	}
	copy(c.limits, c.initial)
	return c, nil
}

// Channels returns the channel count the controller was built for.
func (c *Controller) Channels() int {
	return len(c.limits)
}

// Step decides on/off per channel for one frame of channel amplitudes and
// mutates the adaptive state:
//
//   - a channel is on iff its amplitude reaches its current limit;
//   - an on channel running hot (amplitude above limit*threshold) ratchets
//     its limit up by the increase factor, so loud passages converge instead
//     of flickering;
//   - a channel off for maxOffCycles consecutive frames lowers its limit by
//     the decrease factor, so quiet passages still produce activity.
//
// With auto-tuning disabled, only the comparison applies and limits stay at
// their initial values.
func (c *Controller) Step(levels []float64) []bool {
	out := make([]bool, len(c.limits))
	for ch := range c.limits {
		var amplitude float64
		if ch < len(levels) {
			amplitude = levels[ch]
		}

		on := amplitude >= c.limits[ch]
		out[ch] = on
		c.last[ch] = on

		if !c.autoTune {
			continue
		}

		if on {
			c.offStreak[ch] = 0
			if amplitude > c.limits[ch]*c.threshold {
				c.limits[ch] *= c.increase
			}
			continue
		}

		c.offStreak[ch]++
		if c.offStreak[ch] >= c.maxOff {
			c.limits[ch] *= c.decrease
			if floor := c.initial[ch] * floorFraction; c.limits[ch] < floor {
				c.limits[ch] = floor
			}
			c.offStreak[ch] = 0
		}
	}
	return out
}

// Reset restores all channels to their initial limits with cleared history.
// Called at every song boundary.
func (c *Controller) Reset() {
	copy(c.limits, c.initial)
	for ch := range c.offStreak {
		c.offStreak[ch] = 0
		c.last[ch] = false
	}
}

// Limits returns a snapshot of the current per-channel limits.
func (c *Controller) Limits() []float64 {
	out := make([]float64, len(c.limits))
	copy(out, c.limits)
	return out
}

// Last returns a snapshot of the previous frame's decisions.
func (c *Controller) Last() []bool {
	out := make([]bool, len(c.last))
	copy(out, c.last)
	return out
}
