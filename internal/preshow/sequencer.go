package preshow

import (
	"context"
	"sync/atomic"
	"time"
)

// State is the sequencer lifecycle position.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateDone
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateDone:
		return "done"
	default:
		return "idle"
	}
}

// Sink is the hardware surface the sequencer drives.
type Sink interface {
	SetAll(on bool)
}

// Sequencer replays one Script against a Sink. Stateless between runs: each
// Run starts at step zero.
type Sequencer struct {
	script Script
	state  atomic.Int32

	// newTimer is swapped in tests to avoid real sleeps.
	newTimer func(time.Duration) *time.Timer
}

// NewSequencer builds a sequencer for a parsed script. A nil script yields
// control back immediately.
func NewSequencer(script Script) *Sequencer {
	return &Sequencer{script: script, newTimer: time.NewTimer}
}

// State returns the current lifecycle position.
func (s *Sequencer) State() State {
	return State(s.state.Load())
}

// Run drives the script to completion, setting every channel to each step's
// state for its duration. Context cancellation aborts mid-step, immediately
// turns every channel off, and completes the run; a skip is not an error.
func (s *Sequencer) Run(ctx context.Context, sink Sink) error {
	defer s.state.Store(int32(StateDone))

	if len(s.script) == 0 {
		return nil
	}
	s.state.Store(int32(StateRunning))

	for _, step := range s.script {
		if ctx.Err() != nil {
			sink.SetAll(false)
			return nil
		}
		sink.SetAll(step.On)

		timer := s.newTimer(step.Duration)
		select {
		case <-ctx.Done():
			timer.Stop()
			sink.SetAll(false)
			return nil
		case <-timer.C:
		}
	}

	sink.SetAll(false)
	return nil
}
