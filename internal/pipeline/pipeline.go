// Package pipeline runs the per-frame audio-to-lights path: band levels in,
// hardware channel states out.
package pipeline

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/MattDietz/lightshowpi/internal/config"
	"github.com/MattDietz/lightshowpi/internal/hardware"
	"github.com/MattDietz/lightshowpi/internal/limiter"
	"github.com/MattDietz/lightshowpi/internal/override"
	"github.com/MattDietz/lightshowpi/internal/spectrum"
)

// queueDepth bounds the producer/consumer frame queue. The show favors
// freshness over backlog: when the consumer falls behind, stale frames are
// dropped instead of queued, since audio-visual sync degrades with latency
// rather than with a lost frame.
const queueDepth = 2

// Frame is one analysis slice of the current song: an amplitude per band.
type Frame struct {
	Seq   int
	Bands []float64
}

// Pipeline owns the consumer goroutine and all per-song channel state.
// Frames are processed strictly in arrival order; ChannelRuntimeState
// (limits, off streaks) is mutated only on the consumer goroutine.
type Pipeline struct {
	mapper    *spectrum.Mapper
	limits    *limiter.Controller
	overrides *override.Layer
	bank      *hardware.Bank
	logger    *slog.Logger

	frames chan Frame
	done   chan struct{}

	processed atomic.Int64
	dropped   atomic.Int64
}

// New assembles a pipeline from prebuilt stages.
func New(
	mapper *spectrum.Mapper,
	limits *limiter.Controller,
	overrides *override.Layer,
	bank *hardware.Bank,
	logger *slog.Logger,
) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Pipeline{
		mapper:    mapper,
		limits:    limits,
		overrides: overrides,
		bank:      bank,
		logger:    logger,
		frames:    make(chan Frame, queueDepth),
		done:      make(chan struct{}),
	}
}

// Build constructs the full decision path from config. Every ConfigError a
// stage can raise surfaces here, before any frame flows.
func Build(cfg config.Config, bank *hardware.Bank, logger *slog.Logger) (*Pipeline, error) {
	mapper, err := spectrum.NewMapper(cfg)
	if err != nil {
		return nil, err
	}
	limits, err := limiter.New(cfg, cfg.ChannelCount())
	if err != nil {
		return nil, err
	}
	overrides, err := override.NewLayer(cfg.ChannelCount(), cfg.Lightshow)
	if err != nil {
		return nil, err
	}
	return New(mapper, limits, overrides, bank, logger), nil
}

// Start launches the consumer goroutine. The pipeline stops when Finish is
// called or the context is cancelled; both leave all channels off.
func (p *Pipeline) Start(ctx context.Context) {
	go func() {
		defer close(p.done)
		defer p.bank.AllOff()

		for {
			select {
			case <-ctx.Done():
				return
			case frame, ok := <-p.frames:
				if !ok {
					return
				}
				p.process(frame)
			}
		}
	}()
}

// Offer hands one frame to the consumer without blocking. When the queue is
// full the oldest queued frame is discarded in favor of the fresh one; the
// drop is a recoverable anomaly, logged and counted but never fatal.
func (p *Pipeline) Offer(frame Frame) {
	select {
	case p.frames <- frame:
		return
	default:
	}

	select {
	case stale := <-p.frames:
		p.dropped.Add(1)
		p.logger.Debug("dropped stale frame", "seq", stale.Seq)
	default:
	}

	select {
	case p.frames <- frame:
	default:
		p.dropped.Add(1)
		p.logger.Debug("dropped incoming frame", "seq", frame.Seq)
	}
}

// Finish closes the frame stream and waits for the consumer to drain and
// turn the hardware off.
func (p *Pipeline) Finish() {
	close(p.frames)
	<-p.done
}

// Processed returns how many frames reached the hardware.
func (p *Pipeline) Processed() int64 {
	return p.processed.Load()
}

// Dropped returns how many frames were discarded under backpressure.
func (p *Pipeline) Dropped() int64 {
	return p.dropped.Load()
}

// Limits exposes the adaptive limits for end-of-song reporting. Only valid
// once Finish has returned; the consumer owns this state while running.
func (p *Pipeline) Limits() []float64 {
	return p.limits.Limits()
}

func (p *Pipeline) process(frame Frame) {
	levels := p.mapper.ChannelLevels(frame.Bands)
	raw := p.limits.Step(levels)
	final := p.overrides.Apply(raw)
	p.bank.Apply(final)
	p.processed.Add(1)
}
