package entities

import (
	"errors"
	"strings"
	"time"
)

// MessageRole represents the speaker of a remembered utterance
type MessageRole string

const (
	MessageRoleUser  MessageRole = "user"
	MessageRoleModel MessageRole = "model"
)

// ParseMessageRole normalizes a role name. The assistant's own name is stored as "model".
func ParseMessageRole(role string) (MessageRole, error) {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "user":
		return MessageRoleUser, nil
	case "model", "iris", "assistant":
		return MessageRoleModel, nil
	default:
		return "", errors.New("unknown message role: " + role)
	}
}

// MemoryEntry is one finalized utterance kept in long-term memory
type MemoryEntry struct {
	ID        string      `json:"id" bson:"_id,omitempty"`
	SessionID string      `json:"session_id" bson:"session_id"`
	Role      MessageRole `json:"role" bson:"role"`
	Content   string      `json:"content" bson:"content"`
	Timestamp time.Time   `json:"timestamp" bson:"timestamp"`
}

// NewMemoryEntry builds an entry with trimmed content stamped at now
func NewMemoryEntry(sessionID string, role MessageRole, content string) *MemoryEntry {
	return &MemoryEntry{
		SessionID: sessionID,
		Role:      role,
		Content:   strings.TrimSpace(content),
		Timestamp: time.Now(),
	}
}

// Validate validates the memory entry
func (m *MemoryEntry) Validate() error {
	if m.Role != MessageRoleUser && m.Role != MessageRoleModel {
		return errors.New("invalid message role")
	}
	if strings.TrimSpace(m.Content) == "" {
		return errors.New("content is required")
	}
	return nil
}
