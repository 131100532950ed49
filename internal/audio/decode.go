package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/faiface/beep"
	"github.com/faiface/beep/flac"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/vorbis"
	"github.com/faiface/beep/wav"

	"github.com/MattDietz/lightshowpi/internal/spectrum"
)

// pcmScale maps beep's [-1, 1] float samples onto the int16 range the
// spectrum analyzer was calibrated against.
const pcmScale = 32767

// Decode opens a song file and returns its sample stream. The decoder is
// chosen by extension: mp3, wav, flac, and ogg are supported.
func Decode(path string) (beep.StreamSeekCloser, beep.Format, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("open song: %w", err)
	}

	var (
		stream beep.StreamSeekCloser
		format beep.Format
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".mp3":
		stream, format, err = mp3.Decode(file)
	case ".wav":
		stream, format, err = wav.Decode(file)
	case ".flac":
		stream, format, err = flac.Decode(file)
	case ".ogg", ".oga":
		stream, format, err = vorbis.Decode(file)
	default:
		file.Close()
		return nil, beep.Format{}, fmt.Errorf("unsupported audio format %q", ext)
	}
	if err != nil {
		file.Close()
		return nil, beep.Format{}, fmt.Errorf("decode song: %w", err)
	}
	return stream, format, nil
}

// SongAnalysis is the full band-level profile of one decoded song.
type SongAnalysis struct {
	SampleRate int
	ChunkSize  int
	Levels     [][]float64
}

// AnalyzeSong decodes an entire song and computes per-chunk band levels. The
// stereo stream is averaged to mono before analysis; a short final chunk is
// analyzed as-is so no tail audio is lost.
func AnalyzeSong(path string, cfg AnalysisConfig) (*SongAnalysis, error) {
	stream, format, err := Decode(path)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	sampleRate := int(format.SampleRate)
	analyzer := spectrum.NewAnalyzer(cfg.Bands, cfg.ChunkSize, sampleRate)

	analysis := &SongAnalysis{
		SampleRate: sampleRate,
		ChunkSize:  cfg.ChunkSize,
	}

	samples := make([][2]float64, 512)
	chunk := make([]float64, cfg.ChunkSize)
	filled := 0
	for {
		n, ok := stream.Stream(samples)
		for _, frame := range samples[:n] {
			chunk[filled] = (frame[0] + frame[1]) / 2 * pcmScale
			filled++
			if filled == cfg.ChunkSize {
				analysis.Levels = append(analysis.Levels, analyzer.Levels(chunk))
				filled = 0
			}
		}
		if !ok {
			break
		}
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("stream song: %w", err)
	}

	if filled > 0 {
		analysis.Levels = append(analysis.Levels, analyzer.Levels(chunk[:filled]))
	}

	return analysis, nil
}

// AnalysisConfig carries the analyzer settings AnalyzeSong needs.
type AnalysisConfig struct {
	ChunkSize int
	Bands     []spectrum.Band
}
