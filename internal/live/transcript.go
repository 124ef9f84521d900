package live

import (
	"strings"
	"sync"

	"github.com/satriahrh/iris/domain/entities"
)

// TranscriptEntry is one side of a completed turn.
type TranscriptEntry struct {
	Role entities.MessageRole
	Text string
}

// Transcript accumulates streamed transcription fragments until a turn boundary.
type Transcript struct {
	mu     sync.Mutex
	input  strings.Builder
	output strings.Builder
}

func (t *Transcript) AppendInput(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.input.WriteString(text)
}

func (t *Transcript) AppendOutput(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.output.WriteString(text)
}

// Flush returns the trimmed non-empty user and model text, in that order, and
// resets both buffers.
func (t *Transcript) Flush() []TranscriptEntry {
	t.mu.Lock()
	defer t.mu.Unlock()

	var entries []TranscriptEntry
	if text := strings.TrimSpace(t.input.String()); text != "" {
		entries = append(entries, TranscriptEntry{Role: entities.MessageRoleUser, Text: text})
	}
	if text := strings.TrimSpace(t.output.String()); text != "" {
		entries = append(entries, TranscriptEntry{Role: entities.MessageRoleModel, Text: text})
	}
	t.input.Reset()
	t.output.Reset()
	return entries
}
