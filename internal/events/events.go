// Package events defines the notifications the assistant core publishes to
// local user interfaces.
package events

import "time"

// Type names an event kind
type Type string

const (
	TypeSessionState   Type = "session_state"
	TypeTranscript     Type = "transcript"
	TypeTurnComplete   Type = "turn_complete"
	TypeToolCall       Type = "tool_call"
	TypeToolResult     Type = "tool_result"
	TypeAudioLevel     Type = "audio_level"
	TypeWorldState     Type = "world_state"
	TypeTerminalOutput Type = "terminal_output"
	TypeGoAway         Type = "go_away"
	TypePong           Type = "pong"
	TypeError          Type = "error"
)

// Event is one notification
type Event struct {
	Type      Type           `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// New stamps an event with the current time
func New(t Type, data map[string]any) Event {
	return Event{Type: t, Timestamp: time.Now(), Data: data}
}

// Publisher receives events. Implementations must not block.
type Publisher interface {
	Publish(event Event)
}

// PublisherFunc adapts a function to Publisher
type PublisherFunc func(event Event)

func (f PublisherFunc) Publish(event Event) { f(event) }

// Nop discards every event
var Nop Publisher = PublisherFunc(func(Event) {})
