package tools

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"
	"google.golang.org/genai"

	"github.com/satriahrh/iris/internal/events"
)

type handlerEnv struct {
	table  *Table
	home   string
	system *fakeSystem
	input  *fakeInput
	notes  *fakeNotes
	runner *fakeRunner
	events []events.Event
}

func newHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()
	env := &handlerEnv{
		home:   t.TempDir(),
		system: &fakeSystem{killed: 2},
		input:  &fakeInput{width: 1920, height: 1080},
		notes:  &fakeNotes{},
		runner: &fakeRunner{chunks: []string{"hello\n", "world\n"}, code: 0},
	}
	table, err := NewDefaultTable(Deps{
		System:   env.system,
		Input:    env.input,
		Terminal: env.runner,
		Notes:    env.notes,
		LLM:      &fakeLLM{reply: "report"},
		Events:   events.PublisherFunc(func(e events.Event) { env.events = append(env.events, e) }),
		HomeDir:  env.home,
		Logger:   zaptest.NewLogger(t),
	})
	if err != nil {
		t.Fatalf("NewDefaultTable failed: %v", err)
	}
	env.table = table
	return env
}

func (env *handlerEnv) call(t *testing.T, name Name, args map[string]any) string {
	t.Helper()
	return outputOf(t, env.table.Dispatch(context.Background(), &genai.FunctionCall{ID: "id", Name: string(name), Args: args}))
}

func TestScaleCoordinate(t *testing.T) {
	tests := []struct {
		n    float64
		size int
		want int
	}{
		{0, 1920, 0},
		{1000, 1920, 1920},
		{500, 1920, 960},
		{500, 1080, 540},
		{333, 1000, 333},
		{1, 1920, 2},
	}
	for _, tt := range tests {
		if got := ScaleCoordinate(tt.n, tt.size); got != tt.want {
			t.Errorf("ScaleCoordinate(%v, %d) = %d, want %d", tt.n, tt.size, got, tt.want)
		}
	}
}

func TestClickOnScreen_RescalesCoordinates(t *testing.T) {
	env := newHandlerEnv(t)

	out := env.call(t, ClickOnScreen, map[string]any{"description": "play button", "x": 500.0, "y": 500.0})
	if !strings.Contains(out, "(960, 540)") {
		t.Errorf("Unexpected output %q", out)
	}
	if len(env.input.clicks) != 1 || env.input.clicks[0] != (click{960, 540}) {
		t.Errorf("Expected click at (960, 540), got %+v", env.input.clicks)
	}

	out = env.call(t, ClickOnScreen, map[string]any{"description": "nothing"})
	if !strings.HasPrefix(out, "Error:") {
		t.Errorf("Expected error without coordinates, got %q", out)
	}
}

func TestExecuteSequence(t *testing.T) {
	env := newHandlerEnv(t)

	out := env.call(t, ExecuteSequence, map[string]any{
		"json_actions": `[{"type":"type","text":"hi"},{"type":"wait","ms":1},{"type":"press","key":"enter","modifiers":["ctrl"]},{"type":"click","x":1000,"y":0}]`,
	})
	if out != "Sequence complete: 4 action(s)." {
		t.Errorf("Unexpected output %q", out)
	}
	if len(env.input.typed) != 1 || env.input.typed[0] != "hi" {
		t.Errorf("Expected typed text, got %v", env.input.typed)
	}
	if len(env.input.pressed) != 1 || env.input.pressed[0] != "[ctrl]enter" {
		t.Errorf("Unexpected presses %v", env.input.pressed)
	}
	if len(env.input.clicks) != 1 || env.input.clicks[0] != (click{1920, 0}) {
		t.Errorf("Unexpected clicks %v", env.input.clicks)
	}

	if out := env.call(t, ExecuteSequence, map[string]any{"json_actions": "not json"}); !strings.HasPrefix(out, "Error: invalid json_actions") {
		t.Errorf("Expected parse error, got %q", out)
	}
	if out := env.call(t, ExecuteSequence, map[string]any{"json_actions": `[{"type":"dance"}]`}); !strings.Contains(out, "unknown action type") {
		t.Errorf("Expected unknown action error, got %q", out)
	}
}

func TestPressShortcutAndScroll(t *testing.T) {
	env := newHandlerEnv(t)

	if out := env.call(t, PressShortcut, map[string]any{"key": "w", "modifiers": []any{"ctrl"}}); out != "Pressed ctrl+w" {
		t.Errorf("Unexpected output %q", out)
	}
	if out := env.call(t, ScrollScreen, map[string]any{"direction": "down"}); out != "Scrolled down." {
		t.Errorf("Unexpected output %q", out)
	}
	if env.input.scrolls[0] != "down:5" {
		t.Errorf("Expected default scroll amount, got %v", env.input.scrolls)
	}
	if out := env.call(t, ScrollScreen, map[string]any{"direction": "sideways"}); !strings.HasPrefix(out, "Error:") {
		t.Errorf("Expected error, got %q", out)
	}
}

func TestFileTools(t *testing.T) {
	env := newHandlerEnv(t)

	out := env.call(t, WriteFile, map[string]any{"file_name": "todo.txt", "content": "buy milk"})
	wantPath := filepath.Join(env.home, "Desktop", "todo.txt")
	if out != "Success. File saved to: "+wantPath {
		t.Errorf("Unexpected write output %q", out)
	}

	if out := env.call(t, ReadFile, map[string]any{"file_path": wantPath}); out != "buy milk" {
		t.Errorf("Unexpected read output %q", out)
	}

	if out := env.call(t, SearchFiles, map[string]any{"file_name": "TODO"}); out != wantPath {
		t.Errorf("Unexpected search output %q", out)
	}
	if out := env.call(t, SearchFiles, map[string]any{"file_name": "missing"}); out != "No files found." {
		t.Errorf("Unexpected search output %q", out)
	}

	copyPath := filepath.Join(env.home, "Documents", "copy.txt")
	if out := env.call(t, ManageFile, map[string]any{"operation": "copy", "source_path": wantPath, "dest_path": copyPath}); out != "Success: Copied to "+copyPath {
		t.Errorf("Unexpected copy output %q", out)
	}
	if out := env.call(t, ManageFile, map[string]any{"operation": "move", "source_path": wantPath}); out != "Error: Destination path required for move." {
		t.Errorf("Unexpected move output %q", out)
	}
	if out := env.call(t, ManageFile, map[string]any{"operation": "delete", "source_path": copyPath}); out != "Success: Deleted "+copyPath {
		t.Errorf("Unexpected delete output %q", out)
	}
	if _, err := os.Stat(copyPath); !os.IsNotExist(err) {
		t.Errorf("Expected copy to be deleted")
	}

	out = env.call(t, ReadDirectory, map[string]any{"directory_path": "Desktop"})
	if !strings.Contains(out, "todo.txt (file, 8 bytes)") {
		t.Errorf("Unexpected directory listing %q", out)
	}

	if out := env.call(t, OpenFile, map[string]any{"file_path": wantPath}); out != "Opened "+wantPath {
		t.Errorf("Unexpected open output %q", out)
	}
}

func TestReadFile_Truncates(t *testing.T) {
	env := newHandlerEnv(t)
	path := filepath.Join(env.home, "big.txt")
	if err := os.WriteFile(path, []byte(strings.Repeat("a", 2500)), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	out := env.call(t, ReadFile, map[string]any{"file_path": path})
	if !strings.HasSuffix(out, "\n...(Truncated)") || len(out) != 2000+len("\n...(Truncated)") {
		t.Errorf("Expected truncated output, got %d chars", len(out))
	}
}

func TestAppTools(t *testing.T) {
	env := newHandlerEnv(t)

	if out := env.call(t, OpenApp, map[string]any{"app_name": "firefox"}); out != "Opened firefox." {
		t.Errorf("Unexpected output %q", out)
	}
	if out := env.call(t, CloseApp, map[string]any{"app_name": "firefox"}); out != "Closed firefox (2 process(es))." {
		t.Errorf("Unexpected output %q", out)
	}
	if out := env.call(t, SetVolume, map[string]any{"level": 150.0}); out != "Volume set to 100%" {
		t.Errorf("Unexpected output %q", out)
	}
	if env.system.volume != 100 {
		t.Errorf("Expected volume clamped to 100, got %d", env.system.volume)
	}
	env.call(t, GoogleSearch, map[string]any{"query": "go generics"})
	last := env.system.opened[len(env.system.opened)-1]
	if last != "https://www.google.com/search?q=go+generics" {
		t.Errorf("Unexpected search url %q", last)
	}
	if out := env.call(t, TakeScreenshot, nil); out != "Screenshot saved to /tmp/shot.png" {
		t.Errorf("Unexpected output %q", out)
	}
}

func TestNoteTools(t *testing.T) {
	env := newHandlerEnv(t)

	if out := env.call(t, ReadNotes, nil); out != "No notes found." {
		t.Errorf("Unexpected output %q", out)
	}
	if out := env.call(t, SaveNote, map[string]any{"title": "Plan A", "content": "step one"}); out != "Note saved as plan_a.md." {
		t.Errorf("Unexpected output %q", out)
	}
	env.call(t, SaveNote, map[string]any{"title": "Plan B", "content": "step two"})

	out := env.call(t, ReadNotes, nil)
	if strings.Index(out, "Plan B") > strings.Index(out, "Plan A") {
		t.Errorf("Expected newest note first, got %q", out)
	}
}

func TestRunTerminalCommand_StreamsOutput(t *testing.T) {
	env := newHandlerEnv(t)

	out := env.call(t, RunTerminalCommand, map[string]any{"command": "echo hello"})
	if !strings.HasPrefix(out, "Completed with code 0") || !strings.Contains(out, "world") {
		t.Errorf("Unexpected output %q", out)
	}
	if len(env.events) != 3 {
		t.Fatalf("Expected 3 terminal events, got %d", len(env.events))
	}
	for _, e := range env.events {
		if e.Type != events.TypeTerminalOutput {
			t.Errorf("Unexpected event type %s", e.Type)
		}
	}
}

func TestDeepResearch_SavesNote(t *testing.T) {
	env := newHandlerEnv(t)

	out := env.call(t, DeepResearch, map[string]any{"topic": "solar panels"})
	if !strings.HasPrefix(out, "report: solar panels") {
		t.Errorf("Unexpected output %q", out)
	}
	if len(env.notes.notes) != 1 || env.notes.notes[0].Title != "Research solar panels" {
		t.Errorf("Expected research note saved, got %+v", env.notes.notes)
	}
}
