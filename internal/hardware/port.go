// Package hardware abstracts logical light channels over physical output
// pins and applies channel vectors with the write-failure policy.
package hardware

import (
	"fmt"
	"sync"
)

// Port writes one logical channel's state to its physical output. The
// implementation owns polarity: Write(ch, true) always means "light on".
type Port interface {
	Channels() int
	Write(channel int, on bool) error
	Close() error
}

// MemoryPort is an in-process Port for tests and dry runs. Writes can be
// made to fail a fixed number of times per channel to exercise retry paths.
type MemoryPort struct {
	mu       sync.Mutex
	states   []bool
	writes   int
	failures map[int]int
}

// NewMemoryPort builds an all-off memory port with the given channel count.
func NewMemoryPort(channels int) *MemoryPort {
	return &MemoryPort{states: make([]bool, channels)}
}

func (p *MemoryPort) Channels() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.states)
}

func (p *MemoryPort) Write(channel int, on bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if channel < 0 || channel >= len(p.states) {
		return fmt.Errorf("channel %d out of range [0, %d)", channel, len(p.states))
	}
	p.writes++
	if p.failures != nil && p.failures[channel] > 0 {
		p.failures[channel]--
		return fmt.Errorf("injected write failure on channel %d", channel)
	}
	p.states[channel] = on
	return nil
}

func (p *MemoryPort) Close() error {
	return nil
}

// States returns a snapshot of the current channel states.
func (p *MemoryPort) States() []bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]bool, len(p.states))
	copy(out, p.states)
	return out
}

// Writes returns the total write attempts, including failed ones.
func (p *MemoryPort) Writes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writes
}

// FailNext makes the next count writes to channel fail.
func (p *MemoryPort) FailNext(channel, count int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failures == nil {
		p.failures = make(map[int]int)
	}
	p.failures[channel] = count
}
