package fsm

import "fmt"

type State string

type Event string

const (
	StateIdle    State = "idle"
	StatePreshow State = "preshow"
	StatePlaying State = "playing"
	StateError   State = "error"
)

const (
	EventStart       Event = "start"
	EventPreshowDone Event = "preshow_done"
	EventSongDone    Event = "song_done"
	EventSkip        Event = "skip"
	EventStop        Event = "stop"
	EventFail        Event = "fail"
	EventReset       Event = "reset"
)

func Transition(current State, event Event) (State, error) {
	if event == EventFail {
		return StateError, nil
	}

	switch current {
	case StateIdle:
		switch event {
		case EventStart:
			return StatePreshow, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StatePreshow:
		switch event {
		case EventPreshowDone:
			return StatePlaying, nil
		case EventStop:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StatePlaying:
		switch event {
		case EventSongDone, EventSkip:
			return StateIdle, nil
		case EventStop:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateError:
		switch event {
		case EventReset:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
