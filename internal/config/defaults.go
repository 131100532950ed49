package config

// Default returns the canonical runtime configuration used when no file is
// present: eight on/off channels on the first eight wiring-numbered pins.
func Default() Config {
	return Config{
		AudioProcessing: AudioProcessingConfig{
			MinFrequency: 20,
			MaxFrequency: 15000,
			ChunkSize:    2048,
			BandScale:    "linear",
		},
		Hardware: HardwareConfig{
			GPIOPins: []int{0, 1, 2, 3, 4, 5, 6, 7},
		},
		Lightshow: LightshowConfig{
			LimitList:              FloatList{5},
			LimitThreshold:         0.725,
			LimitThresholdIncrease: 1.35,
			LimitThresholdDecrease: 0.925,
			MaxOffCycles:           10,
			AlwaysOnChannels:       []int{-1},
			AlwaysOffChannels:      []int{-1},
			InvertChannels:         []int{-1},
		},
		AudioIn: AudioInConfig{
			Source:       "default",
			Fallback:     "default",
			SampleRate:   44100,
			SilenceFloor: 250,
		},
	}
}
