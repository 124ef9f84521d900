package input

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/satriahrh/iris/domain/repositories"
)

// typeDelayMs is the per-keystroke delay used when typing text
const typeDelayMs = 12

// Runner executes one xdotool invocation and returns its stdout
type Runner func(ctx context.Context, args ...string) (string, error)

// Xdotool implements repositories.InputInjector by shelling out to xdotool
type Xdotool struct {
	run    Runner
	logger *zap.Logger
}

var _ repositories.InputInjector = (*Xdotool)(nil)

// NewXdotool creates an injector. A nil runner executes the xdotool binary.
func NewXdotool(run Runner, logger *zap.Logger) *Xdotool {
	if run == nil {
		run = execXdotool
	}
	return &Xdotool{run: run, logger: logger}
}

func execXdotool(ctx context.Context, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, "xdotool", args...).CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("xdotool %s: %w: %s", args[0], err, strings.TrimSpace(string(out)))
	}
	return strings.TrimSpace(string(out)), nil
}

// ScreenSize returns the display geometry in pixels
func (x *Xdotool) ScreenSize(ctx context.Context) (int, int, error) {
	out, err := x.run(ctx, "getdisplaygeometry")
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read display geometry: %w", err)
	}
	fields := strings.Fields(out)
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("unexpected display geometry %q", out)
	}
	width, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid display width %q: %w", fields[0], err)
	}
	height, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid display height %q: %w", fields[1], err)
	}
	return width, height, nil
}

// Click moves the pointer when coordinates are given, then clicks
func (x *Xdotool) Click(ctx context.Context, px, py int, button repositories.MouseButton, double bool) error {
	if px >= 0 && py >= 0 {
		if _, err := x.run(ctx, "mousemove", "--sync", strconv.Itoa(px), strconv.Itoa(py)); err != nil {
			return fmt.Errorf("failed to move pointer: %w", err)
		}
	}
	if _, err := x.run(ctx, clickArgs(button, double)...); err != nil {
		return fmt.Errorf("failed to click: %w", err)
	}
	x.logger.Debug("Clicked", zap.Int("x", px), zap.Int("y", py), zap.String("button", string(button)), zap.Bool("double", double))
	return nil
}

// Scroll scrolls the wheel up or down by amount notches
func (x *Xdotool) Scroll(ctx context.Context, direction string, amount int) error {
	args, err := scrollArgs(direction, amount)
	if err != nil {
		return err
	}
	if _, err := x.run(ctx, args...); err != nil {
		return fmt.Errorf("failed to scroll: %w", err)
	}
	return nil
}

// Type types text into the focused window
func (x *Xdotool) Type(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}
	if _, err := x.run(ctx, "type", "--delay", strconv.Itoa(typeDelayMs), "--", text); err != nil {
		return fmt.Errorf("failed to type text: %w", err)
	}
	return nil
}

// Press sends a key chord such as ctrl+shift+t
func (x *Xdotool) Press(ctx context.Context, key string, modifiers []string) error {
	chord, err := keyChord(key, modifiers)
	if err != nil {
		return err
	}
	if _, err := x.run(ctx, "key", "--clearmodifiers", chord); err != nil {
		return fmt.Errorf("failed to press %s: %w", chord, err)
	}
	return nil
}

func clickArgs(button repositories.MouseButton, double bool) []string {
	code := "1"
	if button == repositories.MouseRight {
		code = "3"
	}
	if double {
		return []string{"click", "--repeat", "2", code}
	}
	return []string{"click", code}
}

func scrollArgs(direction string, amount int) ([]string, error) {
	var code string
	switch strings.ToLower(direction) {
	case "up":
		code = "4"
	case "down":
		code = "5"
	default:
		return nil, fmt.Errorf("invalid scroll direction %q", direction)
	}
	return []string{"click", "--repeat", strconv.Itoa(max(amount, 1)), code}, nil
}

// keyNames maps common spoken key names to X keysyms
var keyNames = map[string]string{
	"enter":     "Return",
	"return":    "Return",
	"esc":       "Escape",
	"escape":    "Escape",
	"tab":       "Tab",
	"space":     "space",
	"backspace": "BackSpace",
	"delete":    "Delete",
	"up":        "Up",
	"down":      "Down",
	"left":      "Left",
	"right":     "Right",
	"home":      "Home",
	"end":       "End",
	"pageup":    "Prior",
	"pagedown":  "Next",
	"win":       "super",
	"command":   "super",
	"cmd":       "super",
	"ctrl":      "ctrl",
	"control":   "ctrl",
	"alt":       "alt",
	"shift":     "shift",
}

func keysym(name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	if sym, ok := keyNames[lower]; ok {
		return sym
	}
	if len(lower) > 1 && lower[0] == 'f' {
		if _, err := strconv.Atoi(lower[1:]); err == nil {
			return strings.ToUpper(lower)
		}
	}
	return lower
}

func keyChord(key string, modifiers []string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("key is required")
	}
	parts := make([]string, 0, len(modifiers)+1)
	for _, m := range modifiers {
		if strings.TrimSpace(m) == "" {
			continue
		}
		parts = append(parts, keysym(m))
	}
	return strings.Join(append(parts, keysym(key)), "+"), nil
}
