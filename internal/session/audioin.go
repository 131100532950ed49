package session

import (
	"context"
	"io"
	"log/slog"

	"github.com/MattDietz/lightshowpi/internal/config"
	"github.com/MattDietz/lightshowpi/internal/pipeline"
	"github.com/MattDietz/lightshowpi/internal/spectrum"
	"github.com/MattDietz/lightshowpi/internal/stats"
)

// Audio-in has no per-song baseline to tune against, so band levels are
// normalized against a running mean/std and compared to a fixed midpoint.
// The seeds match typical music levels so the first seconds behave sanely.
const (
	seedMean = 12.0
	seedStd  = 1.5
)

// AudioInShow drives the lights from a live PCM stream instead of a decoded
// song: each captured chunk becomes one brightness frame.
type AudioInShow struct {
	logger       *slog.Logger
	pl           FramePipeline
	analyzer     *spectrum.Analyzer
	levels       *stats.Running
	silenceFloor int
	bands        int
}

// AudioInPipelineConfig adapts the show config for live input: normalized
// brightness in [0, 1] against a fixed 0.5 limit, auto-tuning off.
func AudioInPipelineConfig(cfg config.Config) config.Config {
	cfg.Lightshow.DisableAutoTuning = true
	cfg.Lightshow.LimitList = config.FloatList{0.5}
	return cfg
}

// NewAudioInShow builds the live-input decision path over an already
// constructed pipeline.
func NewAudioInShow(cfg config.Config, pl FramePipeline, logger *slog.Logger) (*AudioInShow, error) {
	mapper, err := spectrum.NewMapper(cfg)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	bands := mapper.Bands()
	running := stats.NewRunning(len(bands))
	mean := make([]float64, len(bands))
	std := make([]float64, len(bands))
	for i := range bands {
		mean[i] = seedMean
		std[i] = seedStd
	}
	running.Preload(mean, std, 2)

	return &AudioInShow{
		logger:       logger,
		pl:           pl,
		analyzer:     spectrum.NewAnalyzer(bands, cfg.AudioProcessing.ChunkSize, cfg.AudioIn.SampleRate),
		levels:       running,
		silenceFloor: cfg.AudioIn.SilenceFloor,
		bands:        len(bands),
	}, nil
}

// Run consumes PCM chunks until the stream closes or the context ends. The
// pipeline is finished (lights off) on the way out.
func (s *AudioInShow) Run(ctx context.Context, chunks <-chan []byte) error {
	s.pl.Start(ctx)
	defer s.pl.Finish()

	seq := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case chunk, ok := <-chunks:
			if !ok {
				return nil
			}
			s.pl.Offer(pipeline.Frame{Seq: seq, Bands: s.frame(chunk)})
			seq++
		}
	}
}

// frame turns one PCM chunk into normalized per-band brightness. Quiet
// chunks below the silence floor read as all-dark without polluting the
// running stats.
func (s *AudioInShow) frame(chunk []byte) []float64 {
	bright := make([]float64, s.bands)
	if spectrum.PeakPCM16(chunk) < s.silenceFloor {
		return bright
	}

	levels := s.analyzer.Levels(spectrum.MonoPCM16(chunk, 1))
	s.levels.Push(levels)

	mean, std := s.levels.Mean(), s.levels.Std()
	for i := range levels {
		if std[i] <= 0 {
			continue
		}
		b := (levels[i] - mean[i] + 0.5*std[i]) / (1.25 * std[i])
		if b < 0 {
			b = 0
		}
		if b > 1 {
			b = 1
		}
		bright[i] = b
	}
	return bright
}
