package websocket

import (
	"encoding/json"
	"fmt"

	"github.com/satriahrh/iris/internal/events"
)

// CommandType defines the type of a command sent by a UI client
type CommandType string

// Supported command types
const (
	CommandPing       CommandType = "ping"
	CommandStatus     CommandType = "status"
	CommandMute       CommandType = "mute"
	CommandVideoFrame CommandType = "video_frame"
)

// Command is a JSON message from a UI client
type Command struct {
	Type CommandType `json:"type"`

	// Muted is required for mute commands
	Muted *bool `json:"muted,omitempty"`

	// Data carries the ping payload or a base64 JPEG frame
	Data string `json:"data,omitempty"`
}

// ParseCommand decodes and validates a client command
func ParseCommand(message []byte) (*Command, error) {
	var cmd Command
	if err := json.Unmarshal(message, &cmd); err != nil {
		return nil, fmt.Errorf("invalid JSON format: %w", err)
	}

	switch cmd.Type {
	case CommandPing, CommandStatus:
	case CommandMute:
		if cmd.Muted == nil {
			return nil, fmt.Errorf("muted is required")
		}
	case CommandVideoFrame:
		if cmd.Data == "" {
			return nil, fmt.Errorf("data is required")
		}
	case "":
		return nil, fmt.Errorf("type is required")
	default:
		return nil, fmt.Errorf("unsupported command type: %s", cmd.Type)
	}
	return &cmd, nil
}

// CreateErrorEvent creates a standardized error event
func CreateErrorEvent(code, message string) events.Event {
	return events.New(events.TypeError, map[string]any{
		"error_code": code,
		"message":    message,
	})
}

// CreatePongEvent creates a pong response
func CreatePongEvent(data string) events.Event {
	return events.New(events.TypePong, map[string]any{"data": data})
}
