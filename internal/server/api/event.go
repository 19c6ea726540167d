package api

import "github.com/ayusman/swipectl/internal/swipe"

// EventMessage is the wire form of a fired swipe, shared by the state
// endpoint and the events websocket.
type EventMessage struct {
	Direction string `json:"direction"`
	Label     string `json:"label"`
	Action    string `json:"action"`
	Error     string `json:"error,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// NewEventMessage converts ev. Timestamp is in Unix milliseconds.
func NewEventMessage(ev swipe.Event) EventMessage {
	msg := EventMessage{
		Direction: string(ev.Direction),
		Label:     ev.Label,
		Action:    ev.Action,
		Timestamp: ev.At.UnixMilli(),
	}
	if ev.Err != nil {
		msg.Error = ev.Err.Error()
	}
	return msg
}
