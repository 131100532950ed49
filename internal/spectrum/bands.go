// Package spectrum partitions the usable frequency range into per-channel
// bands and reduces FFT frames to one amplitude per channel.
package spectrum

import (
	"math"
	"strings"

	"github.com/MattDietz/lightshowpi/internal/config"
)

// Band is a contiguous frequency sub-range in hertz assigned to one or more
// channels.
type Band struct {
	Low  float64
	High float64
}

// LinearBands divides [minHz, maxHz] into count equal-width bands. This is
// the default split policy.
func LinearBands(minHz, maxHz float64, count int) []Band {
	bands := make([]Band, count)
	width := (maxHz - minHz) / float64(count)
	for i := range bands {
		bands[i] = Band{
			Low:  minHz + float64(i)*width,
			High: minHz + float64(i+1)*width,
		}
	}
	// Pin the outer edges so the union covers the range exactly.
	bands[0].Low = minHz
	bands[count-1].High = maxHz
	return bands
}

// LogBands divides [minHz, maxHz] into count equal-octave bands, giving the
// low end of the range more channels, which suits musical content. Opt-in via
// band_scale: log.
func LogBands(minHz, maxHz float64, count int) []Band {
	bands := make([]Band, count)
	ratio := math.Pow(maxHz/minHz, 1/float64(count))
	low := minHz
	for i := range bands {
		high := low * ratio
		bands[i] = Band{Low: low, High: high}
		low = high
	}
	bands[count-1].High = maxHz
	return bands
}

// CustomBands builds the band table from explicit breakpoints. Breakpoint
// count must be band count + 1; config validation enforces ordering.
func CustomBands(breakpoints []float64) []Band {
	bands := make([]Band, len(breakpoints)-1)
	for i := range bands {
		bands[i] = Band{Low: breakpoints[i], High: breakpoints[i+1]}
	}
	return bands
}

// ResolveMapping turns an optional 1-based custom channel mapping into a
// 0-based band index per channel. An empty mapping is the identity.
func ResolveMapping(custom []int, channels, bandCount int) ([]int, error) {
	mapping := make([]int, channels)
	if len(custom) == 0 {
		for i := range mapping {
			mapping[i] = i
		}
		return mapping, nil
	}

	if len(custom) != channels {
		return nil, config.Errorf("audio_processing.custom_channel_mapping",
			"expected %d entries (one per channel), got %d", channels, len(custom))
	}
	for i, band := range custom {
		if band < 1 || band > bandCount {
			return nil, config.Errorf("audio_processing.custom_channel_mapping",
				"channel %d maps to band %d, outside [1, %d]", i+1, band, bandCount)
		}
		mapping[i] = band - 1
	}
	return mapping, nil
}

// Mapper resolves the band table and channel mapping for one configuration
// and projects per-band frames onto channels. Pure after construction.
type Mapper struct {
	bands   []Band
	mapping []int
}

// NewMapper computes the band table and channel mapping from config.
func NewMapper(cfg config.Config) (*Mapper, error) {
	channels := cfg.ChannelCount()
	effective := cfg.EffectiveChannelCount()
	ap := cfg.AudioProcessing

	var bands []Band
	switch {
	case len(ap.CustomChannelFrequencies) > 0:
		if len(ap.CustomChannelFrequencies) != effective+1 {
			return nil, config.Errorf("audio_processing.custom_channel_frequencies",
				"expected %d breakpoints (%d bands + 1), got %d",
				effective+1, effective, len(ap.CustomChannelFrequencies))
		}
		bands = CustomBands(ap.CustomChannelFrequencies)
	case strings.EqualFold(strings.TrimSpace(ap.BandScale), "log"):
		bands = LogBands(ap.MinFrequency, ap.MaxFrequency, effective)
	default:
		bands = LinearBands(ap.MinFrequency, ap.MaxFrequency, effective)
	}

	mapping, err := ResolveMapping(ap.CustomChannelMapping, channels, len(bands))
	if err != nil {
		return nil, err
	}

	return &Mapper{bands: bands, mapping: mapping}, nil
}

// Bands returns the band table, one entry per effective channel.
func (m *Mapper) Bands() []Band {
	out := make([]Band, len(m.bands))
	copy(out, m.bands)
	return out
}

// Channels returns the logical channel count.
func (m *Mapper) Channels() int {
	return len(m.mapping)
}

// ChannelLevels projects one per-band frame onto channels. Channels sharing a
// band receive the same amplitude.
func (m *Mapper) ChannelLevels(bandLevels []float64) []float64 {
	out := make([]float64, len(m.mapping))
	for ch, band := range m.mapping {
		if band < len(bandLevels) {
			out[ch] = bandLevels[band]
		}
	}
	return out
}
