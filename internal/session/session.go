// Package session coordinates show lifecycle state, playlist flow, and the
// per-song light pipeline.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/MattDietz/lightshowpi/internal/fsm"
	"github.com/MattDietz/lightshowpi/internal/ipc"
	"github.com/MattDietz/lightshowpi/internal/pipeline"
)

type action int

const (
	actionSkip action = iota + 1
	actionStop
)

// Result is the complete show output returned by one Run invocation.
type Result struct {
	State           fsm.State
	SongsPlayed     int
	SongsSkipped    int
	FramesProcessed int64
	FramesDropped   int64
	Err             error
	StartedAt       time.Time
	FinishedAt      time.Time
}

// Controller orchestrates show state transitions and side effects.
type Controller struct {
	logger      *slog.Logger
	player      SongPlayer
	analyzer    Analyzer
	preshow     PreshowRunner
	newPipeline PipelineFactory
	frameDelay  time.Duration

	mu    sync.RWMutex
	state fsm.State
	song  string

	actions chan action
}

// NewController constructs a show controller with safe default fallbacks.
func NewController(
	logger *slog.Logger,
	player SongPlayer,
	analyzer Analyzer,
	preshow PreshowRunner,
	factory PipelineFactory,
	frameDelay time.Duration,
) *Controller {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if player == nil {
		player = DryRunPlayer{}
	}
	if analyzer == nil {
		analyzer = placeholderAnalyzer{}
	}
	if preshow == nil {
		preshow = PreshowFunc(func(context.Context) error { return nil })
	}
	if factory == nil {
		factory = func() (FramePipeline, error) { return nil, ErrPipelineUnavailable }
	}

	return &Controller{
		logger:      logger,
		player:      player,
		analyzer:    analyzer,
		preshow:     preshow,
		newPipeline: factory,
		frameDelay:  frameDelay,
		state:       fsm.StateIdle,
		actions:     make(chan action, 1),
	}
}

// State returns the current FSM state snapshot.
func (c *Controller) State() fsm.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Song returns the song currently on deck, empty when idle.
func (c *Controller) Song() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.song
}

func (c *Controller) setSong(song string) {
	c.mu.Lock()
	c.song = song
	c.mu.Unlock()
}

// transition applies one FSM event to the controller state.
func (c *Controller) transition(event fsm.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := fsm.Transition(c.state, event)
	if err != nil {
		return err
	}
	c.state = next
	return nil
}

// Run plays the playlist in order. A failing song is logged and skipped; the
// show carries on with the next one. Stop and context cancellation end the
// whole run.
func (c *Controller) Run(ctx context.Context, songs []string) Result {
	result := Result{StartedAt: time.Now()}

	for _, song := range songs {
		if ctx.Err() != nil {
			result.Err = ctx.Err()
			break
		}
		stopped, err := c.playOne(ctx, song, &result)
		if err != nil {
			c.logger.Error("song failed", "song", song, "error", err)
			result.Err = err
		}
		if stopped {
			break
		}
	}

	result.State = c.State()
	result.FinishedAt = time.Now()
	return result
}

// playOne runs the preshow-then-song cycle for a single playlist entry.
// The returned bool reports whether the whole show should stop.
func (c *Controller) playOne(ctx context.Context, song string, result *Result) (bool, error) {
	if err := c.transition(fsm.EventStart); err != nil {
		return true, err
	}
	c.setSong(song)
	defer c.setSong("")

	stopped, err := c.runPreshow(ctx)
	if err != nil {
		c.toErrorAndReset()
		return true, err
	}
	if stopped {
		return true, nil
	}

	if err := c.transition(fsm.EventPreshowDone); err != nil {
		return true, err
	}

	analysis, err := c.analyzer.Analyze(ctx, song)
	if err != nil {
		c.toErrorAndReset()
		return false, err
	}

	pl, err := c.newPipeline()
	if err != nil {
		c.toErrorAndReset()
		return true, err
	}

	return c.driveSong(ctx, song, analysis, pl, result)
}

// driveSong plays the audio while pacing cached band frames into the light
// pipeline at chunk cadence.
func (c *Controller) driveSong(
	ctx context.Context,
	song string,
	analysis *Analysis,
	pl FramePipeline,
	result *Result,
) (bool, error) {
	songCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	pl.Start(songCtx)

	playDone := make(chan error, 1)
	go func() { playDone <- c.player.Play(songCtx, song) }()

	if c.frameDelay > 0 {
		select {
		case <-time.After(c.frameDelay):
		case <-songCtx.Done():
		}
	}

	chunk := time.Duration(analysis.ChunkSize) * time.Second / time.Duration(analysis.SampleRate)
	ticker := time.NewTicker(chunk)
	defer ticker.Stop()

	var (
		stopped  bool
		playErr  error
		playOver bool
		event    = fsm.EventSongDone
	)

frames:
	for i := 0; i < len(analysis.Levels); {
		select {
		case <-ctx.Done():
			stopped = true
			break frames
		case a := <-c.actions:
			if a == actionSkip {
				event = fsm.EventSkip
				result.SongsSkipped++
			} else {
				stopped = true
			}
			break frames
		case playErr = <-playDone:
			playOver = true
			break frames
		case <-ticker.C:
			pl.Offer(pipeline.Frame{Seq: i, Bands: analysis.Levels[i]})
			i++
		}
	}

	// Let the audio tail finish when the frame stream ran out first. The
	// analysis covers the whole song, so anything past a short grace means
	// the player is a dry run or wedged; either way the song is over.
	if !playOver && !stopped && event == fsm.EventSongDone {
		grace := time.NewTimer(2*chunk + 500*time.Millisecond)
		select {
		case playErr = <-playDone:
			playOver = true
		case <-grace.C:
		case <-ctx.Done():
			stopped = true
		case a := <-c.actions:
			if a == actionSkip {
				event = fsm.EventSkip
				result.SongsSkipped++
			} else {
				stopped = true
			}
		}
		grace.Stop()
	}

	cancel()
	pl.Finish()
	if !playOver {
		<-playDone
	}

	result.FramesProcessed += pl.Processed()
	result.FramesDropped += pl.Dropped()

	if playErr != nil && !errors.Is(playErr, context.Canceled) {
		c.toErrorAndReset()
		return stopped, playErr
	}
	if stopped {
		_ = c.transition(fsm.EventStop)
		return true, ctx.Err()
	}
	if event == fsm.EventSongDone {
		result.SongsPlayed++
	}
	return false, c.transition(event)
}

// runPreshow runs the preshow and watches for skip/stop. Skip cuts the
// preshow short; the song still plays.
func (c *Controller) runPreshow(ctx context.Context) (bool, error) {
	preCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- c.preshow.Run(preCtx) }()

	for {
		select {
		case <-ctx.Done():
			cancel()
			<-done
			_ = c.transition(fsm.EventStop)
			return true, nil
		case a := <-c.actions:
			cancel()
			if err := <-done; err != nil {
				return true, err
			}
			if a == actionStop {
				_ = c.transition(fsm.EventStop)
				return true, nil
			}
			return false, nil
		case err := <-done:
			return false, err
		}
	}
}

// Handle serves IPC commands for the active show owner.
func (c *Controller) Handle(_ context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case "status":
		return ipc.Response{OK: true, State: string(c.State()), Song: c.Song(), Message: "status"}
	case "skip":
		return c.requestAction(actionSkip, "skip")
	case "stop":
		return c.requestAction(actionStop, "stop")
	default:
		return ipc.Response{OK: false, State: string(c.State()), Error: fmt.Sprintf("unknown command: %s", req.Command)}
	}
}

// requestAction enqueues a skip/stop action when state permits it.
func (c *Controller) requestAction(a action, source string) ipc.Response {
	state := c.State()
	if state != fsm.StatePreshow && state != fsm.StatePlaying {
		return ipc.Response{OK: false, State: string(state), Error: fmt.Sprintf("cannot %s from state %s", source, state)}
	}

	select {
	case c.actions <- a:
		return ipc.Response{OK: true, State: string(state), Song: c.Song(), Message: source + " requested"}
	default:
		return ipc.Response{OK: true, State: string(state), Song: c.Song(), Message: source + " already requested"}
	}
}

// toErrorAndReset transitions to error and back to idle best-effort.
func (c *Controller) toErrorAndReset() {
	_ = c.transition(fsm.EventFail)
	_ = c.transition(fsm.EventReset)
}

// IsPipelineUnavailable reports whether an error represents missing pipeline wiring.
func IsPipelineUnavailable(err error) bool {
	return errors.Is(err, ErrPipelineUnavailable)
}
