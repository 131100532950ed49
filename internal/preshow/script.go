// Package preshow parses and replays the fixed lighting sequence that runs
// on the hardware between songs, independent of audio.
package preshow

import (
	"strconv"
	"strings"
	"time"

	"github.com/MattDietz/lightshowpi/internal/config"
)

// Step is one script entry: drive all channels to State for Duration.
type Step struct {
	On       bool
	Duration time.Duration
}

// Script is the ordered step sequence, replayed once per inter-song gap.
type Script []Step

// TotalDuration returns the run time of the full script.
func (s Script) TotalDuration() time.Duration {
	var total time.Duration
	for _, step := range s {
		total += step.Duration
	}
	return total
}

// ParseScript parses the comma-separated "state:seconds" script format, e.g.
// "on:30,off:1". An empty string is a valid zero-length script.
func ParseScript(raw string) (Script, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	tokens := strings.Split(raw, ",")
	script := make(Script, 0, len(tokens))
	for i, token := range tokens {
		token = strings.TrimSpace(token)
		if token == "" {
			return nil, config.Errorf("lightshow.preshow", "step %d is empty", i+1)
		}

		state, seconds, found := strings.Cut(token, ":")
		if !found {
			return nil, config.Errorf("lightshow.preshow",
				"step %d %q must use state:seconds form", i+1, token)
		}

		var on bool
		switch strings.ToLower(strings.TrimSpace(state)) {
		case "on":
			on = true
		case "off":
			on = false
		default:
			return nil, config.Errorf("lightshow.preshow",
				"step %d has unknown state %q; use on or off", i+1, state)
		}

		value, err := strconv.ParseFloat(strings.TrimSpace(seconds), 64)
		if err != nil {
			return nil, config.Errorf("lightshow.preshow",
				"step %d duration %q is not a number", i+1, seconds)
		}
		if value <= 0 {
			return nil, config.Errorf("lightshow.preshow",
				"step %d duration must be positive, got %g", i+1, value)
		}

		script = append(script, Step{
			On:       on,
			Duration: time.Duration(value * float64(time.Second)),
		})
	}
	return script, nil
}
