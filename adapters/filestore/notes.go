package filestore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/satriahrh/iris/domain/entities"
	"github.com/satriahrh/iris/domain/repositories"
)

const notesDir = "Notes"

// NoteRepository keeps each note as a markdown file
type NoteRepository struct {
	dir    string
	logger *zap.Logger
}

var _ repositories.NoteRepository = (*NoteRepository)(nil)

// NewNoteRepository creates a repository rooted at dataDir
func NewNoteRepository(dataDir string, logger *zap.Logger) (*NoteRepository, error) {
	dir := filepath.Join(dataDir, notesDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create notes directory: %w", err)
	}
	return &NoteRepository{dir: dir, logger: logger}, nil
}

// Save writes the note, replacing any note with the same derived filename
func (r *NoteRepository) Save(ctx context.Context, title, content string) (*entities.Note, error) {
	if strings.TrimSpace(title) == "" {
		return nil, errors.New("note title cannot be empty")
	}

	note := &entities.Note{
		Filename: entities.NoteFilename(title),
		Title:    title,
		Content:  content,
	}
	note.Path = filepath.Join(r.dir, note.Filename)

	if err := os.WriteFile(note.Path, []byte(note.Markdown()), 0o644); err != nil {
		return nil, fmt.Errorf("failed to save note: %w", err)
	}
	if info, err := os.Stat(note.Path); err == nil {
		note.CreatedAt = info.ModTime()
	}

	r.logger.Info("Note saved", zap.String("filename", note.Filename))
	return note, nil
}

// List returns every note, newest first
func (r *NoteRepository) List(ctx context.Context) ([]*entities.Note, error) {
	files, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}

	var notes []*entities.Note
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".md") {
			continue
		}
		path := filepath.Join(r.dir, f.Name())
		info, err := f.Info()
		if err != nil {
			continue
		}
		content, err := os.ReadFile(path)
		if err != nil {
			r.logger.Warn("Skipping unreadable note", zap.String("path", path), zap.Error(err))
			continue
		}
		notes = append(notes, &entities.Note{
			Filename:  f.Name(),
			Title:     strings.ReplaceAll(strings.TrimSuffix(f.Name(), ".md"), "_", " "),
			Content:   string(content),
			CreatedAt: info.ModTime(),
			Path:      path,
		})
	}

	sort.SliceStable(notes, func(i, j int) bool {
		return notes[i].CreatedAt.After(notes[j].CreatedAt)
	})
	return notes, nil
}

// Delete removes a note by filename
func (r *NoteRepository) Delete(ctx context.Context, filename string) error {
	if filename == "" || filename != filepath.Base(filename) || !strings.HasSuffix(filename, ".md") {
		return fmt.Errorf("invalid note filename %q", filename)
	}

	err := os.Remove(filepath.Join(r.dir, filename))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("note %s: %w", filename, repositories.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	r.logger.Info("Note deleted", zap.String("filename", filename))
	return nil
}
