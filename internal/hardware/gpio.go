package hardware

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// GPIOPort drives light channels through host GPIO pins. Pin numbers are BCM
// numbers; active-low mode flips the electrical level for relay boards that
// energize on low.
type GPIOPort struct {
	pins      []gpio.PinIO
	activeLow bool
}

// OpenGPIO initializes the host drivers and resolves one output pin per
// channel, leaving every channel off.
func OpenGPIO(pinNumbers []int, activeLow bool) (*GPIOPort, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init gpio host: %w", err)
	}

	port := &GPIOPort{
		pins:      make([]gpio.PinIO, len(pinNumbers)),
		activeLow: activeLow,
	}
	for i, number := range pinNumbers {
		name := fmt.Sprintf("GPIO%d", number)
		pin := gpioreg.ByName(name)
		if pin == nil {
			return nil, fmt.Errorf("gpio pin %s not present on this host", name)
		}
		port.pins[i] = pin
	}

	for i := range port.pins {
		if err := port.Write(i, false); err != nil {
			return nil, fmt.Errorf("initialize channel %d off: %w", i+1, err)
		}
	}
	return port, nil
}

func (p *GPIOPort) Channels() int {
	return len(p.pins)
}

func (p *GPIOPort) Write(channel int, on bool) error {
	if channel < 0 || channel >= len(p.pins) {
		return fmt.Errorf("channel %d out of range [0, %d)", channel, len(p.pins))
	}
	level := gpio.Level(on != p.activeLow)
	if err := p.pins[channel].Out(level); err != nil {
		return fmt.Errorf("write %s: %w", p.pins[channel].Name(), err)
	}
	return nil
}

// Close turns every channel off and releases nothing else; periph pins have
// no per-pin teardown.
func (p *GPIOPort) Close() error {
	var firstErr error
	for i := range p.pins {
		if err := p.Write(i, false); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
