package llm

import (
	"testing"
	"time"

	"google.golang.org/genai"
)

func TestGeminiConfigValidate(t *testing.T) {
	config := GeminiConfig{APIKey: "key"}
	if err := config.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if config.Model != defaultModel {
		t.Errorf("Expected default model, got %s", config.Model)
	}
	if config.MaxOutputTokens != defaultMaxTokens || config.Timeout != defaultTimeout {
		t.Errorf("Expected defaults applied, got %+v", config)
	}

	invalid := []GeminiConfig{
		{},
		{APIKey: "key", Temperature: 3},
		{APIKey: "key", MaxOutputTokens: -1},
	}
	for _, c := range invalid {
		if err := c.Validate(); err == nil {
			t.Errorf("Expected error for %+v", c)
		}
	}

	custom := GeminiConfig{APIKey: "key", Model: "gemini-pro", Timeout: time.Second}
	custom.Validate()
	if custom.Model != "gemini-pro" || custom.Timeout != time.Second {
		t.Errorf("Expected explicit values kept, got %+v", custom)
	}
}

func TestResponseText(t *testing.T) {
	if got := responseText(nil); got != "" {
		t.Errorf("Expected empty text for nil response, got %q", got)
	}
	if got := responseText(&genai.GenerateContentResponse{}); got != "" {
		t.Errorf("Expected empty text without candidates, got %q", got)
	}

	response := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{Text: "thinking...", Thought: true},
				{Text: "# Report\n"},
				nil,
				{Text: "Body. "},
			}},
		}},
	}
	if got := responseText(response); got != "# Report\nBody." {
		t.Errorf("Unexpected text %q", got)
	}
}
