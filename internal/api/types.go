package api

import (
	"time"

	"github.com/satriahrh/iris/domain/entities"
)

// TokenRequest represents the request payload for exchanging the control secret
type TokenRequest struct {
	Secret   string `json:"secret"`
	ClientID string `json:"client_id,omitempty"`
}

// TokenResponse represents the response payload for a control token
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	ClientID  string    `json:"client_id"`
}

// MuteRequest toggles the microphone gate
type MuteRequest struct {
	Muted *bool `json:"muted"`
}

// VideoFrameRequest carries one base64 JPEG frame
type VideoFrameRequest struct {
	Data string `json:"data"`
}

// MemoryResponse lists remembered utterances, oldest first
type MemoryResponse struct {
	Entries []*entities.MemoryEntry `json:"entries"`
}

// NotesResponse lists notes, newest first
type NotesResponse struct {
	Notes []*entities.Note `json:"notes"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
