package client

import "fmt"

type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateRegistered
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateRegistered:
		return "registered"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

type EventKind int

const (
	EventStateChanged EventKind = iota
	EventCallback
	EventEngineExited
)

// Callback is one engine callback broadcast as received in /ctrl/cb.
type Callback struct {
	Action   Action
	PluginID int32
	Value1   int32
	Value2   int32
	Value3   int32
	ValueF   float32
	Text     string
}

// Event is published on Client.Events. State is set for every kind;
// Callback only for EventCallback; Text carries the engine's exit error, if
// any, for EventEngineExited.
type Event struct {
	Kind     EventKind
	State    State
	Callback Callback
	Text     string
}
