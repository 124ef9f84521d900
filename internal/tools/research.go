package tools

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/satriahrh/iris/domain/repositories"
)

const researchInstruction = `You are an elite research analyst. Write a concise, well structured markdown report ` +
	`with headings and bullet points. State uncertainty where facts may be outdated.`

type researchTools struct {
	llm   repositories.LargeLanguageModel
	notes repositories.NoteRepository
}

func (r *researchTools) deepResearch() Tool {
	return Tool{
		Declaration: declare(DeepResearch, "Research a topic in depth and save the report as a note. Use this when the user asks for a detailed report or deep research.", object(map[string]*genai.Schema{
			"topic": str("The question or topic to research."),
		}, "topic")),
		Handler: func(ctx context.Context, args Args) (string, error) {
			topic, err := args.RequireString("topic")
			if err != nil {
				return "", err
			}
			if r.llm == nil {
				return "", fmt.Errorf("research model is not configured")
			}
			report, err := r.llm.Generate(ctx, researchInstruction, topic)
			if err != nil {
				return "", err
			}
			if r.notes != nil {
				if note, err := r.notes.Save(ctx, "Research "+topic, report); err == nil {
					return fmt.Sprintf("%s\n\n(Saved as note %s.)", report, note.Filename), nil
				}
			}
			return report, nil
		},
	}
}
