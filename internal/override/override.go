// Package override applies static per-channel policy on top of the
// audio-derived on/off decisions.
package override

import "github.com/MattDietz/lightshowpi/internal/config"

// Policy is the static behavior of one channel.
type Policy uint8

const (
	// Normal passes the raw decision through unchanged.
	Normal Policy = iota
	// AlwaysOn forces the channel on regardless of the raw decision.
	AlwaysOn
	// AlwaysOff forces the channel off regardless of the raw decision.
	AlwaysOff
	// Inverted flips the raw decision: off while music drives the channel,
	// on otherwise. Used for ambient/idle lighting.
	Inverted
)

func (p Policy) String() string {
	switch p {
	case AlwaysOn:
		return "always_on"
	case AlwaysOff:
		return "always_off"
	case Inverted:
		return "inverted"
	default:
		return "normal"
	}
}

// Layer holds one immutable policy per channel. When a channel id appears in
// more than one configured list, always_off wins over always_on, which wins
// over inverted.
type Layer struct {
	policies []Policy
}

// NewLayer resolves the three 1-based override channel lists into per-channel
// policies. A single -1 entry means an empty list.
func NewLayer(channels int, cfg config.LightshowConfig) (*Layer, error) {
	layer := &Layer{policies: make([]Policy, channels)}

	// Lowest precedence first so later assignments win.
	for _, group := range []struct {
		setting string
		ids     []int
		policy  Policy
	}{
		{"lightshow.invert_channels", cfg.InvertChannels, Inverted},
		{"lightshow.always_on_channels", cfg.AlwaysOnChannels, AlwaysOn},
		{"lightshow.always_off_channels", cfg.AlwaysOffChannels, AlwaysOff},
	} {
		if len(group.ids) == 1 && group.ids[0] == -1 {
			continue
		}
		for _, id := range group.ids {
			if id < 1 || id > channels {
				return nil, config.Errorf(group.setting,
					"channel id %d out of range [1, %d]", id, channels)
			}
			layer.policies[id-1] = group.policy
		}
	}
	return layer, nil
}

// Policy returns the resolved policy for a 0-based channel index.
func (l *Layer) Policy(channel int) Policy {
	return l.policies[channel]
}

// Apply maps raw decisions to final hardware states. Pure per frame.
func (l *Layer) Apply(raw []bool) []bool {
	out := make([]bool, len(raw))
	for ch, on := range raw {
		if ch >= len(l.policies) {
			out[ch] = on
			continue
		}
		switch l.policies[ch] {
		case AlwaysOn:
			out[ch] = true
		case AlwaysOff:
			out[ch] = false
		case Inverted:
			out[ch] = !on
		default:
			out[ch] = on
		}
	}
	return out
}
