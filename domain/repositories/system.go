package repositories

import (
	"context"

	"github.com/satriahrh/iris/domain/entities"
)

// SystemControl exposes the host operating system to the assistant
type SystemControl interface {
	RunningApps(ctx context.Context) ([]string, error)
	InstalledApps(ctx context.Context) ([]string, error)
	Status(ctx context.Context) (entities.SystemStatus, error)
	OpenApp(ctx context.Context, name string) error
	CloseApp(ctx context.Context, name string) (int, error)
	// OpenPath opens a file, folder or URL with the default handler
	OpenPath(ctx context.Context, target string) error
	SetVolume(ctx context.Context, level int) error
	// Screenshot captures the screen and returns the saved file path
	Screenshot(ctx context.Context) (string, error)
}

// MouseButton names a pointer button
type MouseButton string

const (
	MouseLeft  MouseButton = "left"
	MouseRight MouseButton = "right"
)

// InputInjector synthesizes keyboard and pointer input
type InputInjector interface {
	ScreenSize(ctx context.Context) (width, height int, err error)
	// Click clicks at pixel (x, y); negative coordinates click at the current pointer position
	Click(ctx context.Context, x, y int, button MouseButton, double bool) error
	Scroll(ctx context.Context, direction string, amount int) error
	Type(ctx context.Context, text string) error
	Press(ctx context.Context, key string, modifiers []string) error
}

// TerminalRunner runs shell commands and streams their output
type TerminalRunner interface {
	// Run blocks until the command exits and returns its exit code
	Run(ctx context.Context, command, cwd string, onOutput func(chunk string)) (int, error)
}
