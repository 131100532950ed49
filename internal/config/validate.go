package config

import (
	"fmt"
	"strings"
)

// Validate enforces config invariants and returns non-fatal warnings. All
// cardinality rules between the channel count and the per-channel lists live
// here so a bad config fails before any hardware or audio is touched.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	channels := cfg.ChannelCount()
	if channels == 0 {
		return nil, Errorf("hardware.gpio_pins", "must list at least one pin")
	}
	seen := make(map[int]struct{}, channels)
	for _, pin := range cfg.Hardware.GPIOPins {
		if pin < 0 {
			return nil, Errorf("hardware.gpio_pins", "pin %d is negative", pin)
		}
		if _, dup := seen[pin]; dup {
			return nil, Errorf("hardware.gpio_pins", "pin %d listed twice", pin)
		}
		seen[pin] = struct{}{}
	}

	ap := cfg.AudioProcessing
	if ap.MinFrequency <= 0 {
		return nil, Errorf("audio_processing.min_frequency", "must be > 0, got %g", ap.MinFrequency)
	}
	if ap.MaxFrequency <= ap.MinFrequency {
		return nil, Errorf("audio_processing.max_frequency",
			"must be greater than min_frequency %g, got %g", ap.MinFrequency, ap.MaxFrequency)
	}
	if ap.ChunkSize <= 0 {
		return nil, Errorf("audio_processing.chunk_size", "must be > 0, got %d", ap.ChunkSize)
	}
	if ap.ChunkSize&(ap.ChunkSize-1) != 0 {
		warnings = append(warnings, Warning{Message: fmt.Sprintf(
			"audio_processing.chunk_size %d is not a power of two; FFT will be slower", ap.ChunkSize)})
	}
	switch strings.ToLower(strings.TrimSpace(ap.BandScale)) {
	case "", "linear", "log":
	default:
		return nil, Errorf("audio_processing.band_scale", "must be one of: linear, log; got %q", ap.BandScale)
	}

	effective := cfg.EffectiveChannelCount()
	if mapping := ap.CustomChannelMapping; len(mapping) > 0 {
		if len(mapping) != channels {
			return nil, Errorf("audio_processing.custom_channel_mapping",
				"expected %d entries (one per channel), got %d", channels, len(mapping))
		}
		for i, band := range mapping {
			if band < 1 {
				return nil, Errorf("audio_processing.custom_channel_mapping",
					"entry %d maps channel %d to band %d; band indexes are 1-based", i, i+1, band)
			}
		}
	}
	if freqs := ap.CustomChannelFrequencies; len(freqs) > 0 {
		if len(freqs) != effective+1 {
			return nil, Errorf("audio_processing.custom_channel_frequencies",
				"expected %d breakpoints (%d bands + 1), got %d", effective+1, effective, len(freqs))
		}
		for i := 1; i < len(freqs); i++ {
			if freqs[i] <= freqs[i-1] {
				return nil, Errorf("audio_processing.custom_channel_frequencies",
					"breakpoints must be strictly ascending; %g follows %g", freqs[i], freqs[i-1])
			}
		}
		if freqs[0] < 0 {
			return nil, Errorf("audio_processing.custom_channel_frequencies",
				"breakpoints must be non-negative, got %g", freqs[0])
		}
	}

	ls := cfg.Lightshow
	if len(ls.LimitList) != 1 && len(ls.LimitList) != channels {
		return nil, Errorf("lightshow.limit_list",
			"expected a single value or %d entries (one per channel), got %d", channels, len(ls.LimitList))
	}
	for _, limit := range ls.LimitList {
		if limit <= 0 {
			return nil, Errorf("lightshow.limit_list", "limits must be > 0, got %g", limit)
		}
	}
	if ls.LimitThreshold <= 0 {
		return nil, Errorf("lightshow.limit_threshold", "must be > 0, got %g", ls.LimitThreshold)
	}
	if ls.LimitThresholdIncrease < 1 {
		return nil, Errorf("lightshow.limit_threshold_increase",
			"must be >= 1 so limits never decay on loud frames, got %g", ls.LimitThresholdIncrease)
	}
	if ls.LimitThresholdDecrease <= 0 || ls.LimitThresholdDecrease > 1 {
		return nil, Errorf("lightshow.limit_threshold_decrease",
			"must be in (0, 1], got %g", ls.LimitThresholdDecrease)
	}
	if !ls.DisableAutoTuning && ls.MaxOffCycles < 1 {
		return nil, Errorf("lightshow.max_off_cycles", "must be >= 1, got %d", ls.MaxOffCycles)
	}

	for _, list := range []struct {
		name string
		ids  []int
	}{
		{"lightshow.always_on_channels", ls.AlwaysOnChannels},
		{"lightshow.always_off_channels", ls.AlwaysOffChannels},
		{"lightshow.invert_channels", ls.InvertChannels},
	} {
		if err := validateChannelList(list.name, list.ids, channels); err != nil {
			return nil, err
		}
	}

	if cfg.AudioIn.SampleRate <= 0 {
		return nil, Errorf("audio_in.sample_rate", "must be > 0, got %d", cfg.AudioIn.SampleRate)
	}
	if cfg.AudioIn.SilenceFloor < 0 {
		return nil, Errorf("audio_in.silence_floor", "must be >= 0, got %d", cfg.AudioIn.SilenceFloor)
	}

	return warnings, nil
}

// validateChannelList checks a 1-based override channel list. A single -1
// entry is the "no channels" sentinel, not a channel id.
func validateChannelList(setting string, ids []int, channels int) error {
	if len(ids) == 1 && ids[0] == -1 {
		return nil
	}
	for _, id := range ids {
		if id == -1 {
			return Errorf(setting, "-1 sentinel must be the only entry")
		}
		if id < 1 || id > channels {
			return Errorf(setting, "channel id %d out of range [1, %d]", id, channels)
		}
	}
	return nil
}
