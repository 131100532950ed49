package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateDefaultsPass(t *testing.T) {
	warnings, err := Validate(Default())
	require.NoError(t, err)
	require.Empty(t, warnings)
}

func TestValidateRejectsInvalidFields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "no pins", mutate: func(c *Config) { c.Hardware.GPIOPins = nil }, wantErr: "gpio_pins"},
		{name: "duplicate pin", mutate: func(c *Config) { c.Hardware.GPIOPins = []int{0, 1, 1} }, wantErr: "listed twice"},
		{name: "negative pin", mutate: func(c *Config) { c.Hardware.GPIOPins = []int{-2} }, wantErr: "negative"},
		{name: "min frequency zero", mutate: func(c *Config) { c.AudioProcessing.MinFrequency = 0 }, wantErr: "min_frequency"},
		{name: "max below min", mutate: func(c *Config) { c.AudioProcessing.MaxFrequency = 10 }, wantErr: "max_frequency"},
		{name: "bad scale", mutate: func(c *Config) { c.AudioProcessing.BandScale = "cubic" }, wantErr: "band_scale"},
		{name: "mapping wrong length", mutate: func(c *Config) {
			c.AudioProcessing.CustomChannelMapping = []int{1, 2, 3}
		}, wantErr: "expected 8 entries"},
		{name: "mapping zero band", mutate: func(c *Config) {
			c.AudioProcessing.CustomChannelMapping = []int{0, 1, 1, 1, 1, 1, 1, 1}
		}, wantErr: "1-based"},
		{name: "breakpoints wrong length", mutate: func(c *Config) {
			c.AudioProcessing.CustomChannelFrequencies = []float64{20, 100, 500}
		}, wantErr: "expected 9 breakpoints"},
		{name: "breakpoints not ascending", mutate: func(c *Config) {
			c.AudioProcessing.CustomChannelFrequencies = []float64{20, 100, 90, 200, 300, 400, 500, 600, 700}
		}, wantErr: "ascending"},
		{name: "limit list wrong length", mutate: func(c *Config) {
			c.Lightshow.LimitList = FloatList{5, 5}
		}, wantErr: "limit_list"},
		{name: "limit non-positive", mutate: func(c *Config) { c.Lightshow.LimitList = FloatList{0} }, wantErr: "limits must be > 0"},
		{name: "threshold zero", mutate: func(c *Config) { c.Lightshow.LimitThreshold = 0 }, wantErr: "limit_threshold"},
		{name: "increase below one", mutate: func(c *Config) { c.Lightshow.LimitThresholdIncrease = 0.9 }, wantErr: "increase"},
		{name: "decrease above one", mutate: func(c *Config) { c.Lightshow.LimitThresholdDecrease = 1.1 }, wantErr: "decrease"},
		{name: "max off cycles zero", mutate: func(c *Config) { c.Lightshow.MaxOffCycles = 0 }, wantErr: "max_off_cycles"},
		{name: "override id out of range", mutate: func(c *Config) {
			c.Lightshow.AlwaysOnChannels = []int{9}
		}, wantErr: "out of range"},
		{name: "sentinel mixed with ids", mutate: func(c *Config) {
			c.Lightshow.InvertChannels = []int{-1, 3}
		}, wantErr: "sentinel"},
		{name: "audio in sample rate", mutate: func(c *Config) { c.AudioIn.SampleRate = 0 }, wantErr: "sample_rate"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			_, err := Validate(cfg)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestValidateAllowsMaxOffCyclesZeroWhenTuningDisabled(t *testing.T) {
	cfg := Default()
	cfg.Lightshow.DisableAutoTuning = true
	cfg.Lightshow.MaxOffCycles = 0
	_, err := Validate(cfg)
	require.NoError(t, err)
}

func TestValidateWarnsOnOddChunkSize(t *testing.T) {
	cfg := Default()
	cfg.AudioProcessing.ChunkSize = 3000
	warnings, err := Validate(cfg)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0].Message, "power of two")
}

func TestEffectiveChannelCountFollowsMapping(t *testing.T) {
	cfg := Default()
	require.Equal(t, 8, cfg.EffectiveChannelCount())

	cfg.AudioProcessing.CustomChannelMapping = []int{1, 2, 1, 2, 1, 2, 1, 2}
	require.Equal(t, 2, cfg.EffectiveChannelCount())
}
