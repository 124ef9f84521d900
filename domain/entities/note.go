package entities

import (
	"regexp"
	"strings"
	"time"
)

var unsafeTitleChars = regexp.MustCompile(`[^a-z0-9]`)

// Note is a markdown note saved by the assistant on the user's behalf
type Note struct {
	Filename  string    `json:"filename"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	Path      string    `json:"path"`
}

// NoteFilename derives the on-disk file name for a note title
func NoteFilename(title string) string {
	return unsafeTitleChars.ReplaceAllString(strings.ToLower(title), "_") + ".md"
}

// Markdown renders the note body as stored on disk
func (n *Note) Markdown() string {
	return "# " + n.Title + "\n\n" + n.Content
}
