package tools

import (
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/satriahrh/iris/domain/repositories"
	"github.com/satriahrh/iris/internal/events"
)

const (
	SearchFiles        Name = "search_files"
	ReadFile           Name = "read_file"
	WriteFile          Name = "write_file"
	ManageFile         Name = "manage_file"
	OpenFile           Name = "open_file"
	ReadDirectory      Name = "read_directory"
	OpenApp            Name = "open_app"
	CloseApp           Name = "close_app"
	SaveNote           Name = "save_note"
	ReadNotes          Name = "read_notes"
	GoogleSearch       Name = "google_search"
	GhostType          Name = "ghost_type"
	ExecuteSequence    Name = "execute_sequence"
	SetVolume          Name = "set_volume"
	TakeScreenshot     Name = "take_screenshot"
	ClickOnScreen      Name = "click_on_screen"
	ScrollScreen       Name = "scroll_screen"
	PressShortcut      Name = "press_shortcut"
	RunTerminalCommand Name = "run_terminal_command"
	DeepResearch       Name = "deep_research"
)

// AllNames lists every tool the assistant exposes
var AllNames = []Name{
	SearchFiles, ReadFile, WriteFile, ManageFile, OpenFile, ReadDirectory,
	OpenApp, CloseApp, SaveNote, ReadNotes, GoogleSearch,
	GhostType, ExecuteSequence, SetVolume, TakeScreenshot,
	ClickOnScreen, ScrollScreen, PressShortcut,
	RunTerminalCommand, DeepResearch,
}

// Deps are the collaborators tool handlers act through
type Deps struct {
	System   repositories.SystemControl
	Input    repositories.InputInjector
	Terminal repositories.TerminalRunner
	Notes    repositories.NoteRepository
	LLM      repositories.LargeLanguageModel
	Events   events.Publisher
	// HomeDir anchors relative paths such as "Desktop"
	HomeDir string
	Logger  *zap.Logger
}

// NewDefaultTable registers every assistant tool against deps.
func NewDefaultTable(deps Deps) (*Table, error) {
	if deps.Events == nil {
		deps.Events = events.Nop
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	files := &fileTools{home: deps.HomeDir, system: deps.System, logger: deps.Logger}
	apps := &appTools{system: deps.System}
	notes := &noteTools{notes: deps.Notes}
	input := &inputTools{input: deps.Input}
	term := &terminalTools{runner: deps.Terminal, events: deps.Events, home: deps.HomeDir}
	research := &researchTools{llm: deps.LLM, notes: deps.Notes}

	return NewTable(deps.Logger,
		files.searchFiles(),
		files.readFile(),
		files.writeFile(),
		files.manageFile(),
		files.openFile(),
		files.readDirectory(),
		apps.openApp(),
		apps.closeApp(),
		notes.saveNote(),
		notes.readNotes(),
		apps.googleSearch(),
		input.ghostType(),
		input.executeSequence(),
		apps.setVolume(),
		apps.takeScreenshot(),
		input.clickOnScreen(),
		input.scrollScreen(),
		input.pressShortcut(),
		term.runTerminalCommand(),
		research.deepResearch(),
	)
}

func declare(name Name, description string, params *genai.Schema) *genai.FunctionDeclaration {
	if params == nil {
		params = object(nil)
	}
	return &genai.FunctionDeclaration{
		Name:        string(name),
		Description: description,
		Parameters:  params,
	}
}

func object(props map[string]*genai.Schema, required ...string) *genai.Schema {
	if props == nil {
		props = map[string]*genai.Schema{}
	}
	return &genai.Schema{
		Type:       genai.TypeObject,
		Properties: props,
		Required:   required,
	}
}

func str(description string, enum ...string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Description: description, Enum: enum}
}

func num(description string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeNumber, Description: description}
}

func list(items *genai.Schema, description string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeArray, Items: items, Description: description}
}
