// Package fsm defines the voice-input state machine shared by all frontends.
package fsm

import "fmt"

type State string

type Event string

const (
	StateIdle         State = "idle"
	StateRecording    State = "recording"
	StateTranscribing State = "transcribing"
	StateError        State = "error"
)

const (
	EventStart       Event = "start"
	EventStop        Event = "stop"
	EventTranscribed Event = "transcribed"
	EventFail        Event = "fail"
	EventDismiss     Event = "dismiss"
	EventTeardown    Event = "teardown"
)

// Transition applies one event to the current state. EventFail and
// EventTeardown are accepted from every state; all other events are valid
// only on the single edge that names them.
func Transition(current State, event Event) (State, error) {
	switch event {
	case EventFail:
		return StateError, nil
	case EventTeardown:
		return StateIdle, nil
	}

	switch current {
	case StateIdle:
		if event == EventStart {
			return StateRecording, nil
		}
	case StateRecording:
		if event == EventStop {
			return StateTranscribing, nil
		}
	case StateTranscribing:
		if event == EventTranscribed {
			return StateIdle, nil
		}
	case StateError:
		if event == EventDismiss {
			return StateIdle, nil
		}
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}

	return current, invalidTransition(current, event)
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
