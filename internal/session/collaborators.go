package session

import (
	"context"
	"errors"

	"github.com/MattDietz/lightshowpi/internal/pipeline"
)

var (
	// ErrPipelineUnavailable indicates light pipeline wiring is missing.
	ErrPipelineUnavailable = errors.New("light pipeline not wired")
	// ErrAnalyzerUnavailable indicates song analysis wiring is missing.
	ErrAnalyzerUnavailable = errors.New("song analyzer not wired")
)

// Analysis is the per-song band-level profile the controller paces into the
// pipeline: one frame per audio chunk.
type Analysis struct {
	SampleRate int
	ChunkSize  int
	Levels     [][]float64
}

// SongPlayer plays one song through the output device, blocking until the
// song ends or the context is cancelled.
type SongPlayer interface {
	Play(ctx context.Context, path string) error
}

// DryRunPlayer stands in for real audio output: it blocks for the song's
// duration (as paced by the frame clock) without making a sound.
type DryRunPlayer struct{}

func (DryRunPlayer) Play(ctx context.Context, _ string) error {
	<-ctx.Done()
	return ctx.Err()
}

// Analyzer produces the band-level profile for a song.
type Analyzer interface {
	Analyze(ctx context.Context, path string) (*Analysis, error)
}

// AnalyzeFunc adapts a function to the Analyzer interface.
type AnalyzeFunc func(ctx context.Context, path string) (*Analysis, error)

func (f AnalyzeFunc) Analyze(ctx context.Context, path string) (*Analysis, error) {
	return f(ctx, path)
}

// placeholderAnalyzer is the fallback when no analyzer is wired.
type placeholderAnalyzer struct{}

func (placeholderAnalyzer) Analyze(context.Context, string) (*Analysis, error) {
	return nil, ErrAnalyzerUnavailable
}

// PreshowRunner runs the lights-only warmup before each song.
type PreshowRunner interface {
	Run(ctx context.Context) error
}

// PreshowFunc adapts a function to the PreshowRunner interface.
type PreshowFunc func(ctx context.Context) error

func (f PreshowFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// FramePipeline is the session-facing subset of the light pipeline.
type FramePipeline interface {
	Start(ctx context.Context)
	Offer(frame pipeline.Frame)
	Finish()
	Processed() int64
	Dropped() int64
}

// PipelineFactory builds a fresh pipeline per song, so adaptive limits start
// from the configured baseline every time.
type PipelineFactory func() (FramePipeline, error)
