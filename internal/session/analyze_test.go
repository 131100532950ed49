package session

import (
	"bytes"
	"context"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MattDietz/lightshowpi/internal/cache"
	"github.com/MattDietz/lightshowpi/internal/config"
)

// writeTestWAV emits a minimal mono 16-bit PCM RIFF file with a 440Hz tone.
func writeTestWAV(t *testing.T, path string, sampleRate, samples int) {
	t.Helper()

	var data bytes.Buffer
	for i := 0; i < samples; i++ {
		v := int16(20000 * math.Sin(2*math.Pi*440*float64(i)/float64(sampleRate)))
		require.NoError(t, binary.Write(&data, binary.LittleEndian, v))
	}

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(36+data.Len())))
	buf.WriteString("WAVEfmt ")
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(16)))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint16(1)))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint16(1)))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(sampleRate)))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*2)))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint16(2)))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint16(16)))
	buf.WriteString("data")
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(data.Len())))
	buf.Write(data.Bytes())

	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
}

func TestCachedAnalyzerComputesAndCaches(t *testing.T) {
	cfg := config.Default()
	song := filepath.Join(t.TempDir(), "tone.wav")
	writeTestWAV(t, song, 22050, 22050)

	analyzer, err := NewCachedAnalyzer(cfg, nil)
	require.NoError(t, err)

	analysis, err := analyzer.Analyze(context.Background(), song)
	require.NoError(t, err)
	require.Equal(t, 22050, analysis.SampleRate)
	require.Equal(t, cfg.AudioProcessing.ChunkSize, analysis.ChunkSize)
	require.NotEmpty(t, analysis.Levels)

	// The second pass must come from the cache file beside the song.
	_, err = os.Stat(cache.Path(song))
	require.NoError(t, err)

	again, err := analyzer.Analyze(context.Background(), song)
	require.NoError(t, err)
	require.Equal(t, analysis, again)
}

func TestCachedAnalyzerRejectsStaleCache(t *testing.T) {
	cfg := config.Default()
	song := filepath.Join(t.TempDir(), "tone.wav")
	writeTestWAV(t, song, 22050, 22050)

	// A cache written under different analysis settings must be recomputed.
	require.NoError(t, cache.Save(song, &cache.Analysis{
		Fingerprint: "different-settings",
		SampleRate:  8000,
		ChunkSize:   512,
		Levels:      [][]float64{{1}},
	}))

	analyzer, err := NewCachedAnalyzer(cfg, nil)
	require.NoError(t, err)

	analysis, err := analyzer.Analyze(context.Background(), song)
	require.NoError(t, err)
	require.Equal(t, 22050, analysis.SampleRate)
	require.Greater(t, len(analysis.Levels), 1)
}

func TestCachedAnalyzerPropagatesDecodeError(t *testing.T) {
	analyzer, err := NewCachedAnalyzer(config.Default(), nil)
	require.NoError(t, err)

	_, err = analyzer.Analyze(context.Background(), filepath.Join(t.TempDir(), "absent.mp3"))
	require.Error(t, err)
}
