package entities

import (
	"time"
)

// SessionState represents the lifecycle state of the live session
type SessionState string

const (
	SessionStateDisconnected SessionState = "disconnected"
	SessionStateConnecting   SessionState = "connecting"
	SessionStateConnected    SessionState = "connected"
)

// IsValid reports whether the state is one of the known states
func (s SessionState) IsValid() bool {
	switch s {
	case SessionStateDisconnected, SessionStateConnecting, SessionStateConnected:
		return true
	}
	return false
}

// SessionStatus is the externally visible view of the live session
type SessionStatus struct {
	State         SessionState `json:"state"`
	SessionID     string       `json:"session_id,omitempty"`
	Model         string       `json:"model,omitempty"`
	Muted         bool         `json:"muted"`
	ConnectedAt   *time.Time   `json:"connected_at,omitempty"`
	DroppedFrames uint64       `json:"dropped_frames"`
}

// Uptime returns how long the session has been connected
func (s SessionStatus) Uptime() time.Duration {
	if s.State != SessionStateConnected || s.ConnectedAt == nil {
		return 0
	}
	return time.Since(*s.ConnectedAt)
}
