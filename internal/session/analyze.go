package session

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/MattDietz/lightshowpi/internal/audio"
	"github.com/MattDietz/lightshowpi/internal/cache"
	"github.com/MattDietz/lightshowpi/internal/config"
	"github.com/MattDietz/lightshowpi/internal/spectrum"
)

// CachedAnalyzer computes song band levels through the FFT analyzer, with a
// per-song on-disk cache keyed by the analysis config fingerprint.
type CachedAnalyzer struct {
	cfg    config.Config
	bands  []spectrum.Band
	logger *slog.Logger
}

// NewCachedAnalyzer resolves the band table from config once; every song
// analyzed through this instance shares it.
func NewCachedAnalyzer(cfg config.Config, logger *slog.Logger) (*CachedAnalyzer, error) {
	mapper, err := spectrum.NewMapper(cfg)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &CachedAnalyzer{cfg: cfg, bands: mapper.Bands(), logger: logger}, nil
}

// Analyze returns the cached profile when one matches the current config,
// otherwise decodes the song, analyzes it, and refreshes the cache. Cache
// write failures degrade to a warning; the show still runs.
func (a *CachedAnalyzer) Analyze(_ context.Context, path string) (*Analysis, error) {
	fp := a.cfg.Fingerprint()

	cached, err := cache.Load(path, fp)
	if err == nil {
		a.logger.Info("song cache hit", "song", path, "frames", len(cached.Levels))
		return &Analysis{
			SampleRate: cached.SampleRate,
			ChunkSize:  cached.ChunkSize,
			Levels:     cached.Levels,
		}, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		a.logger.Warn("song cache unreadable, reanalyzing", "song", path, "error", err)
	}

	song, err := audio.AnalyzeSong(path, audio.AnalysisConfig{
		ChunkSize: a.cfg.AudioProcessing.ChunkSize,
		Bands:     a.bands,
	})
	if err != nil {
		return nil, err
	}

	if err := cache.Save(path, &cache.Analysis{
		Fingerprint: fp,
		SampleRate:  song.SampleRate,
		ChunkSize:   song.ChunkSize,
		Levels:      song.Levels,
	}); err != nil {
		a.logger.Warn("song cache write failed", "song", path, "error", err)
	}

	return &Analysis{
		SampleRate: song.SampleRate,
		ChunkSize:  song.ChunkSize,
		Levels:     song.Levels,
	}, nil
}
