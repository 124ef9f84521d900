package websocket

import (
	"encoding/json"
	"testing"

	"github.com/satriahrh/iris/internal/events"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    CommandType
		wantErr bool
	}{
		{name: "ping", message: `{"type":"ping","data":"42"}`, want: CommandPing},
		{name: "status", message: `{"type":"status"}`, want: CommandStatus},
		{name: "mute", message: `{"type":"mute","muted":true}`, want: CommandMute},
		{name: "unmute", message: `{"type":"mute","muted":false}`, want: CommandMute},
		{name: "mute without flag", message: `{"type":"mute"}`, wantErr: true},
		{name: "video frame", message: `{"type":"video_frame","data":"/9j/4AAQ"}`, want: CommandVideoFrame},
		{name: "empty video frame", message: `{"type":"video_frame"}`, wantErr: true},
		{name: "missing type", message: `{"data":"x"}`, wantErr: true},
		{name: "unknown type", message: `{"type":"reboot"}`, wantErr: true},
		{name: "invalid json", message: `{"type":`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := ParseCommand([]byte(tt.message))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCommand() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && cmd.Type != tt.want {
				t.Errorf("Expected type %s, got %s", tt.want, cmd.Type)
			}
		})
	}
}

func TestCreateErrorEvent(t *testing.T) {
	event := CreateErrorEvent("invalid_command", "bad input")

	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("Failed to marshal error event: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal error event: %v", err)
	}
	if decoded["type"] != string(events.TypeError) {
		t.Errorf("Expected type error, got %v", decoded["type"])
	}
	payload := decoded["data"].(map[string]any)
	if payload["error_code"] != "invalid_command" || payload["message"] != "bad input" {
		t.Errorf("Unexpected payload %v", payload)
	}
}

func TestCreatePongEvent(t *testing.T) {
	event := CreatePongEvent("abc")
	if event.Type != events.TypePong {
		t.Errorf("Expected pong, got %s", event.Type)
	}
	if event.Data["data"] != "abc" {
		t.Errorf("Expected echoed data, got %v", event.Data["data"])
	}
	if event.Timestamp.IsZero() {
		t.Error("Expected timestamp to be set")
	}
}
