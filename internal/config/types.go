// Package config resolves, parses, validates, and defaults lightshowpi configuration.
package config

// Config is the fully materialized runtime configuration used by lightshowpi.
type Config struct {
	AudioProcessing AudioProcessingConfig `yaml:"audio_processing"`
	Hardware        HardwareConfig        `yaml:"hardware"`
	Lightshow       LightshowConfig       `yaml:"lightshow"`
	AudioIn         AudioInConfig         `yaml:"audio_in"`
}

// AudioProcessingConfig controls FFT analysis and band-to-channel assignment.
type AudioProcessingConfig struct {
	MinFrequency float64 `yaml:"min_frequency"`
	MaxFrequency float64 `yaml:"max_frequency"`
	ChunkSize    int     `yaml:"chunk_size"`

	// BandScale selects how the usable range is divided among channels:
	// "linear" (equal-width, the default) or "log" (equal-octave).
	BandScale string `yaml:"band_scale"`

	// CustomChannelMapping assigns each channel a 1-based band index; multiple
	// channels may share a band (mirroring). Empty means identity mapping.
	CustomChannelMapping []int `yaml:"custom_channel_mapping"`

	// CustomChannelFrequencies lists explicit band breakpoints in hertz.
	// When set, its length must equal the effective channel count plus one.
	CustomChannelFrequencies []float64 `yaml:"custom_channel_frequencies"`
}

// HardwareConfig binds logical channels to physical GPIO pins.
type HardwareConfig struct {
	GPIOPins      []int `yaml:"gpio_pins"`
	ActiveLowMode bool  `yaml:"active_low_mode"`
}

// LightshowConfig controls per-channel decision thresholds, overrides, and
// the inter-song preshow script.
type LightshowConfig struct {
	// LimitList is the initial amplitude limit per channel. A single value is
	// broadcast to every channel; otherwise the length must equal the channel
	// count.
	LimitList FloatList `yaml:"limit_list"`

	LimitThreshold         float64 `yaml:"limit_threshold"`
	LimitThresholdIncrease float64 `yaml:"limit_threshold_increase"`
	LimitThresholdDecrease float64 `yaml:"limit_threshold_decrease"`
	MaxOffCycles           int     `yaml:"max_off_cycles"`
	DisableAutoTuning      bool    `yaml:"disable_auto_tuning"`

	// Override channel lists use 1-based channel ids; a single -1 entry means
	// "no channels in this category".
	AlwaysOnChannels  []int `yaml:"always_on_channels"`
	AlwaysOffChannels []int `yaml:"always_off_channels"`
	InvertChannels    []int `yaml:"invert_channels"`

	// Preshow is a comma-separated list of state:seconds steps played on the
	// hardware between songs, e.g. "on:30,off:1". Empty disables the preshow.
	Preshow string `yaml:"preshow"`

	// LightDelaySeconds delays light updates relative to audio playback to
	// compensate for output latency.
	LightDelaySeconds float64 `yaml:"light_delay"`
}

// AudioInConfig controls the live capture (audio-in) mode.
type AudioInConfig struct {
	Source     string `yaml:"source"`
	Fallback   string `yaml:"fallback"`
	SampleRate int    `yaml:"sample_rate"`

	// SilenceFloor is the raw 16-bit sample magnitude below which a captured
	// chunk is treated as silence and the lights are turned off.
	SilenceFloor int `yaml:"silence_floor"`
}

// ChannelCount returns the number of logical channels, one per configured pin.
func (c Config) ChannelCount() int {
	return len(c.Hardware.GPIOPins)
}

// EffectiveChannelCount returns the number of frequency bands to compute: the
// highest mapped band index when a custom mapping is set, otherwise the
// channel count.
func (c Config) EffectiveChannelCount() int {
	mapping := c.AudioProcessing.CustomChannelMapping
	if len(mapping) == 0 {
		return c.ChannelCount()
	}
	effective := 0
	for _, band := range mapping {
		if band > effective {
			effective = band
		}
	}
	return effective
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Message string
}
