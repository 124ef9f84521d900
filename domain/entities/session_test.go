package entities

import (
	"strings"
	"testing"
	"time"
)

func TestSessionStateIsValid(t *testing.T) {
	for _, s := range []SessionState{SessionStateDisconnected, SessionStateConnecting, SessionStateConnected} {
		if !s.IsValid() {
			t.Errorf("Expected %s to be valid", s)
		}
	}
	if SessionState("paused").IsValid() {
		t.Error("Expected unknown state to be invalid")
	}
}

func TestSessionStatusUptime(t *testing.T) {
	status := SessionStatus{State: SessionStateDisconnected}
	if status.Uptime() != 0 {
		t.Errorf("Expected zero uptime while disconnected, got %s", status.Uptime())
	}

	connectedAt := time.Now().Add(-2 * time.Minute)
	status = SessionStatus{State: SessionStateConnected, ConnectedAt: &connectedAt}
	if status.Uptime() < 2*time.Minute {
		t.Errorf("Expected uptime of at least 2m, got %s", status.Uptime())
	}
}

func TestParseMessageRole(t *testing.T) {
	tests := []struct {
		in      string
		want    MessageRole
		wantErr bool
	}{
		{"user", MessageRoleUser, false},
		{"model", MessageRoleModel, false},
		{"IRIS", MessageRoleModel, false},
		{" assistant ", MessageRoleModel, false},
		{"system", "", true},
	}

	for _, tt := range tests {
		got, err := ParseMessageRole(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMessageRole(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMessageRole(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestMemoryEntryValidate(t *testing.T) {
	entry := NewMemoryEntry("session-1", MessageRoleUser, "  open the browser  ")
	if entry.Content != "open the browser" {
		t.Errorf("Expected trimmed content, got %q", entry.Content)
	}
	if err := entry.Validate(); err != nil {
		t.Errorf("Expected valid entry, got %v", err)
	}

	empty := NewMemoryEntry("session-1", MessageRoleModel, "   ")
	if err := empty.Validate(); err == nil {
		t.Error("Expected error for empty content")
	}

	badRole := &MemoryEntry{Role: "system", Content: "hello"}
	if err := badRole.Validate(); err == nil {
		t.Error("Expected error for invalid role")
	}
}

func TestNoteFilename(t *testing.T) {
	if got := NoteFilename("Shopping List!"); got != "shopping_list_.md" {
		t.Errorf("Expected shopping_list_.md, got %s", got)
	}

	note := &Note{Title: "Ideas", Content: "build a robot"}
	if !strings.HasPrefix(note.Markdown(), "# Ideas\n\n") {
		t.Errorf("Unexpected markdown: %q", note.Markdown())
	}
}

func TestSystemStatusSummary(t *testing.T) {
	s := SystemStatus{OS: "linux", Platform: "ubuntu", Uptime: 90 * time.Minute, CPUPercent: 12.4, MemoryPercent: 55.6}
	summary := s.Summary()
	for _, want := range []string{"linux", "ubuntu", "1h30m0s", "CPU 12%", "memory 56%"} {
		if !strings.Contains(summary, want) {
			t.Errorf("Expected summary to contain %q, got %q", want, summary)
		}
	}
}
