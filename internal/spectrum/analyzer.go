package spectrum

import (
	"encoding/binary"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

// Analyzer computes per-band amplitude levels from fixed-size PCM chunks.
//
// Each chunk is Hann-windowed, run through a real FFT, and reduced to one
// value per band by summing the power-spectrum bins that fall inside the
// band, then taking log10 of the sum to approximate perceived loudness.
// Summation (rather than peak or average) is the aggregation policy: a band
// holding several hot bins reads louder than a band with one.
type Analyzer struct {
	chunkSize  int
	sampleRate int
	binRanges  [][2]int
}

// NewAnalyzer precomputes FFT bin ranges for each band at the given chunk
// size and sample rate.
func NewAnalyzer(bands []Band, chunkSize, sampleRate int) *Analyzer {
	a := &Analyzer{
		chunkSize:  chunkSize,
		sampleRate: sampleRate,
		binRanges:  make([][2]int, len(bands)),
	}

	maxBin := chunkSize / 2
	for i, band := range bands {
		lo := int(band.Low * float64(chunkSize) / float64(sampleRate))
		hi := int(band.High * float64(chunkSize) / float64(sampleRate))
		if hi <= lo {
			// Narrow bands at low chunk sizes can collapse to zero bins;
			// widen to one so the band still reads energy.
			hi = lo + 1
		}
		if lo > maxBin {
			lo = maxBin
		}
		if hi > maxBin {
			hi = maxBin
		}
		a.binRanges[i] = [2]int{lo, hi}
	}
	return a
}

// Bands returns the number of bands this analyzer produces per frame.
func (a *Analyzer) Bands() int {
	return len(a.binRanges)
}

// ChunkSize returns the expected samples per analysis chunk.
func (a *Analyzer) ChunkSize() int {
	return a.chunkSize
}

// Levels computes one amplitude per band from a chunk of mono samples in the
// 16-bit PCM value range. Short final chunks are accepted as-is.
func (a *Analyzer) Levels(samples []float64) []float64 {
	levels := make([]float64, len(a.binRanges))
	if len(samples) == 0 {
		return levels
	}

	data := make([]float64, len(samples))
	copy(data, samples)
	window.Apply(data, window.Hann)

	spectrum := fft.FFTReal(data)
	power := make([]float64, len(spectrum))
	for i, c := range spectrum {
		mag := cmplx.Abs(c)
		power[i] = mag * mag
	}

	for i, r := range a.binRanges {
		lo, hi := r[0], r[1]
		if hi > len(power) {
			hi = len(power)
		}
		sum := 0.0
		for bin := lo; bin < hi; bin++ {
			sum += power[bin]
		}
		if sum > 0 {
			levels[i] = math.Log10(sum)
		}
	}
	return levels
}

// MonoPCM16 converts interleaved little-endian 16-bit PCM bytes to mono
// samples, keeping the left channel of multi-channel input.
func MonoPCM16(data []byte, channels int) []float64 {
	if channels < 1 {
		channels = 1
	}
	stride := 2 * channels
	out := make([]float64, 0, len(data)/stride)
	for i := 0; i+1 < len(data); i += stride {
		out = append(out, float64(int16(binary.LittleEndian.Uint16(data[i:]))))
	}
	return out
}

// PeakPCM16 returns the maximum absolute sample value in interleaved 16-bit
// PCM bytes, used for the audio-in silence gate.
func PeakPCM16(data []byte) int {
	peak := 0
	for i := 0; i+1 < len(data); i += 2 {
		v := int(int16(binary.LittleEndian.Uint16(data[i:])))
		if v < 0 {
			v = -v
		}
		if v > peak {
			peak = v
		}
	}
	return peak
}
