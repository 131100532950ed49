package audio

import (
	"context"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
)

// Player plays songs through the default output device via the beep speaker.
// The zero value is ready to use; Play blocks until the song ends or the
// context is cancelled.
type Player struct{}

// Play decodes and plays one song. Cancelling the context stops playback
// immediately; callers pace light frames off their own clock.
func (Player) Play(ctx context.Context, path string) error {
	stream, format, err := Decode(path)
	if err != nil {
		return err
	}
	defer stream.Close()

	if err := speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10)); err != nil {
		return err
	}

	done := make(chan struct{})
	speaker.Play(beep.Seq(stream, beep.Callback(func() {
		close(done)
	})))

	select {
	case <-ctx.Done():
		speaker.Clear()
		return ctx.Err()
	case <-done:
		return nil
	}
}

// Duration reports a decoded song's play time from its stream length.
func Duration(path string) (time.Duration, error) {
	stream, format, err := Decode(path)
	if err != nil {
		return 0, err
	}
	defer stream.Close()
	return format.SampleRate.D(stream.Len()), nil
}
