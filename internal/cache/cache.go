// Package cache persists per-song band-level matrices next to the song file,
// keyed by the analysis config fingerprint, so replays skip the FFT pass.
package cache

import (
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrMiss is returned when no usable cache entry exists for a song, either
// because the file is absent or because it was built under different
// analysis settings.
var ErrMiss = errors.New("song cache miss")

// Analysis is one cached song profile: the per-chunk band level matrix plus
// the settings it was computed under.
type Analysis struct {
	Fingerprint string      `json:"fingerprint"`
	SampleRate  int         `json:"sample_rate"`
	ChunkSize   int         `json:"chunk_size"`
	Levels      [][]float64 `json:"levels"`
}

// Path returns the cache file location for a song: a dotfile beside the song
// itself, as in `.jingle_bells.mp3.sync.gz`.
func Path(songPath string) string {
	dir := filepath.Dir(songPath)
	base := filepath.Base(songPath)
	return filepath.Join(dir, "."+base+".sync.gz")
}

// Load reads the cached analysis for a song and verifies its fingerprint.
// Returns ErrMiss when absent or built under different settings.
func Load(songPath, fingerprint string) (*Analysis, error) {
	f, err := os.Open(Path(songPath))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("open song cache: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("read song cache: %w", err)
	}
	defer gz.Close()

	var analysis Analysis
	if err := json.NewDecoder(gz).Decode(&analysis); err != nil {
		return nil, fmt.Errorf("decode song cache: %w", err)
	}

	if analysis.Fingerprint != fingerprint {
		return nil, ErrMiss
	}
	return &analysis, nil
}

// Save writes the analysis atomically: a temp file in the song directory is
// renamed into place so a crash never leaves a truncated cache.
func Save(songPath string, analysis *Analysis) error {
	target := Path(songPath)
	tmp, err := os.CreateTemp(filepath.Dir(target), filepath.Base(target)+".tmp*")
	if err != nil {
		return fmt.Errorf("create song cache: %w", err)
	}
	defer os.Remove(tmp.Name())

	gz := gzip.NewWriter(tmp)
	if err := json.NewEncoder(gz).Encode(analysis); err != nil {
		tmp.Close()
		return fmt.Errorf("encode song cache: %w", err)
	}
	if err := gz.Close(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush song cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close song cache: %w", err)
	}

	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("store song cache: %w", err)
	}
	return nil
}
