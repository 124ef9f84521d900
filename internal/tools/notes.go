package tools

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/satriahrh/iris/domain/repositories"
)

const readNotesLimit = 10

type noteTools struct {
	notes repositories.NoteRepository
}

func (n *noteTools) saveNote() Tool {
	return Tool{
		Declaration: declare(SaveNote, `Save a plan, idea, or code snippet into the system notes. Use this when the user says "Remember this", "Save this plan", or "Create a note".`, object(map[string]*genai.Schema{
			"title":   str(`A short, descriptive title for the note (e.g., "Project_Iris_Plan").`),
			"content": str("The full content of the note in Markdown format. Use headers, bullet points, and code blocks."),
		}, "title", "content")),
		Handler: func(ctx context.Context, args Args) (string, error) {
			title, err := args.RequireString("title")
			if err != nil {
				return "", err
			}
			note, err := n.notes.Save(ctx, title, args.String("content"))
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Note saved as %s.", note.Filename), nil
		},
	}
}

func (n *noteTools) readNotes() Tool {
	return Tool{
		Declaration: declare(ReadNotes, `Load and read previously saved notes from the system memory. Use this when the user asks to "remember notes", "load notes", or "what was the plan?".`, nil),
		Handler: func(ctx context.Context, args Args) (string, error) {
			notes, err := n.notes.List(ctx)
			if err != nil {
				return "", err
			}
			if len(notes) == 0 {
				return "No notes found.", nil
			}
			if len(notes) > readNotesLimit {
				notes = notes[:readNotesLimit]
			}

			parts := make([]string, 0, len(notes))
			for _, note := range notes {
				parts = append(parts, fmt.Sprintf("--- %s (%s) ---\n%s",
					note.Title, note.CreatedAt.Format("2006-01-02 15:04"), note.Content))
			}
			return strings.Join(parts, "\n\n"), nil
		},
	}
}
