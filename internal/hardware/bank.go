package hardware

import (
	"io"
	"log/slog"
)

// Bank applies full channel vectors to a Port with the write-failure policy:
// a failed write is retried once immediately; if it fails again the channel
// is marked forced-off for the rest of the show and the remaining channels
// keep running.
type Bank struct {
	port   Port
	logger *slog.Logger

	forcedOff []bool
}

// NewBank wraps a port. A nil logger discards diagnostics.
func NewBank(port Port, logger *slog.Logger) *Bank {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Bank{
		port:      port,
		logger:    logger,
		forcedOff: make([]bool, port.Channels()),
	}
}

// Channels returns the channel count of the underlying port.
func (b *Bank) Channels() int {
	return b.port.Channels()
}

// Apply writes one state per channel back-to-back, keeping skew between
// channels within a frame as small as the port allows. Vectors shorter than
// the channel count leave the remaining channels off.
func (b *Bank) Apply(states []bool) {
	for ch := 0; ch < b.port.Channels(); ch++ {
		on := ch < len(states) && states[ch]
		b.write(ch, on)
	}
}

// SetAll drives every channel to the same state, still honoring forced-off.
func (b *Bank) SetAll(on bool) {
	for ch := 0; ch < b.port.Channels(); ch++ {
		b.write(ch, on)
	}
}

// AllOff turns every channel off.
func (b *Bank) AllOff() {
	b.SetAll(false)
}

// ForcedOff reports which channels have been disabled by persistent write
// failures.
func (b *Bank) ForcedOff() []bool {
	out := make([]bool, len(b.forcedOff))
	copy(out, b.forcedOff)
	return out
}

func (b *Bank) write(channel int, on bool) {
	if b.forcedOff[channel] {
		on = false
	}

	err := b.port.Write(channel, on)
	if err == nil {
		return
	}

	if retryErr := b.port.Write(channel, on); retryErr == nil {
		b.logger.Warn("channel write recovered on retry", "channel", channel+1, "error", err.Error())
		return
	}

	if !b.forcedOff[channel] {
		b.forcedOff[channel] = true
		b.logger.Error("channel write failed twice; forcing channel off",
			"channel", channel+1, "error", err.Error())
	}
	// Best effort to leave the failed channel dark.
	_ = b.port.Write(channel, false)
}
