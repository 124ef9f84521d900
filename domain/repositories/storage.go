package repositories

import (
	"context"
	"errors"

	"github.com/satriahrh/iris/domain/entities"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("not found")

// MemoryRepository persists finalized conversation utterances
type MemoryRepository interface {
	Append(ctx context.Context, entry *entities.MemoryEntry) error
	// Recent returns up to limit entries, oldest first
	Recent(ctx context.Context, limit int) ([]*entities.MemoryEntry, error)
}

// NoteRepository stores user notes
type NoteRepository interface {
	Save(ctx context.Context, title, content string) (*entities.Note, error)
	// List returns notes newest first
	List(ctx context.Context) ([]*entities.Note, error)
	Delete(ctx context.Context, filename string) error
}
