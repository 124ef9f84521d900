package main

import (
	"strings"
	"testing"
	"time"

	"github.com/satriahrh/iris/internal/events"
)

func TestFormatEvent(t *testing.T) {
	ts := time.Date(2025, 1, 2, 15, 4, 5, 0, time.UTC)

	line := formatEvent(events.Event{Type: events.TypeTranscript, Timestamp: ts, Data: map[string]any{"role": "user", "text": "open chrome"}})
	if line != "15:04:05 user   open chrome" {
		t.Errorf("Unexpected transcript line %q", line)
	}

	line = formatEvent(events.Event{Type: events.TypeAudioLevel, Timestamp: ts, Data: map[string]any{"level": 0.25}})
	if !strings.HasSuffix(line, strings.Repeat("#", 10)) {
		t.Errorf("Unexpected level line %q", line)
	}

	line = formatEvent(events.Event{Type: events.TypeToolCall, Timestamp: ts, Data: map[string]any{"name": "open_app"}})
	if !strings.Contains(line, "tool_call") || !strings.Contains(line, `"name":"open_app"`) {
		t.Errorf("Unexpected tool line %q", line)
	}
}
