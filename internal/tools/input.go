package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/satriahrh/iris/domain/repositories"
)

// NormalizedScale is the coordinate range the model uses for screen positions.
const NormalizedScale = 1000

const (
	defaultSequenceWait = time.Second
	defaultScrollAmount = 5
)

// ScaleCoordinate converts a 0-1000 normalized coordinate to a pixel position.
func ScaleCoordinate(n float64, size int) int {
	return int(math.Round(n / NormalizedScale * float64(size)))
}

type inputTools struct {
	input repositories.InputInjector
}

// sequenceAction is one step of an execute_sequence macro
type sequenceAction struct {
	Type      string   `json:"type"`
	MS        int      `json:"ms,omitempty"`
	Text      string   `json:"text,omitempty"`
	Key       string   `json:"key,omitempty"`
	Modifiers []string `json:"modifiers,omitempty"`
	X         *float64 `json:"x,omitempty"`
	Y         *float64 `json:"y,omitempty"`
}

func (in *inputTools) ghostType() Tool {
	return Tool{
		Declaration: declare(GhostType, `Type text using the keyboard. Use this for simple typing requests like "Type hello".`, object(map[string]*genai.Schema{
			"text": str("The text to type."),
		}, "text")),
		Handler: func(ctx context.Context, args Args) (string, error) {
			text := args.String("text")
			if text == "" {
				return "", fmt.Errorf("missing required argument %q", "text")
			}
			if err := in.input.Type(ctx, text); err != nil {
				return "", err
			}
			return "Typed text.", nil
		},
	}
}

func (in *inputTools) executeSequence() Tool {
	return Tool{
		Declaration: declare(ExecuteSequence, `Run complex automation. Requires a JSON string array of actions: {"type":"wait","ms":500}, {"type":"type","text":"..."}, {"type":"press","key":"enter","modifiers":["ctrl"]}, {"type":"click","x":500,"y":500}.`, object(map[string]*genai.Schema{
			"json_actions": str("JSON array of actions."),
		}, "json_actions")),
		Handler: func(ctx context.Context, args Args) (string, error) {
			raw, err := args.RequireString("json_actions")
			if err != nil {
				return "", err
			}
			var actions []sequenceAction
			if err := json.Unmarshal([]byte(raw), &actions); err != nil {
				return "", fmt.Errorf("invalid json_actions: %w", err)
			}
			for i, action := range actions {
				if err := in.runAction(ctx, action); err != nil {
					return "", fmt.Errorf("action %d (%s) failed: %w", i+1, action.Type, err)
				}
			}
			return fmt.Sprintf("Sequence complete: %d action(s).", len(actions)), nil
		},
	}
}

func (in *inputTools) runAction(ctx context.Context, action sequenceAction) error {
	switch strings.ToLower(action.Type) {
	case "wait":
		d := defaultSequenceWait
		if action.MS > 0 {
			d = time.Duration(action.MS) * time.Millisecond
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d):
			return nil
		}
	case "type":
		return in.input.Type(ctx, action.Text)
	case "press":
		if action.Key == "" {
			return fmt.Errorf("press requires a key")
		}
		return in.input.Press(ctx, action.Key, action.Modifiers)
	case "click":
		if action.X == nil || action.Y == nil {
			return in.input.Click(ctx, -1, -1, repositories.MouseLeft, false)
		}
		x, y, err := in.toPixels(ctx, *action.X, *action.Y)
		if err != nil {
			return err
		}
		return in.input.Click(ctx, x, y, repositories.MouseLeft, false)
	default:
		return fmt.Errorf("unknown action type %q", action.Type)
	}
}

func (in *inputTools) toPixels(ctx context.Context, nx, ny float64) (int, int, error) {
	width, height, err := in.input.ScreenSize(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read screen size: %w", err)
	}
	return ScaleCoordinate(nx, width), ScaleCoordinate(ny, height), nil
}

func (in *inputTools) clickOnScreen() Tool {
	return Tool{
		Declaration: declare(ClickOnScreen, "Click on a specific UI element on the screen based on its description.", object(map[string]*genai.Schema{
			"description": str(`What to click? (e.g. "The Play button", "The search bar")`),
			"x":           num("The X coordinate (0-1000 scale) of the center of the object."),
			"y":           num("The Y coordinate (0-1000 scale) of the center of the object."),
		}, "description", "x", "y")),
		Handler: func(ctx context.Context, args Args) (string, error) {
			nx, okX := args.Number("x")
			ny, okY := args.Number("y")
			if !okX || !okY {
				return "", fmt.Errorf("x and y coordinates are required")
			}
			x, y, err := in.toPixels(ctx, nx, ny)
			if err != nil {
				return "", err
			}
			if err := in.input.Click(ctx, x, y, repositories.MouseLeft, false); err != nil {
				return "", err
			}
			return fmt.Sprintf("Clicked %s at (%d, %d).", args.String("description"), x, y), nil
		},
	}
}

func (in *inputTools) scrollScreen() Tool {
	return Tool{
		Declaration: declare(ScrollScreen, "Scroll up or down.", object(map[string]*genai.Schema{
			"direction": str("Scroll direction.", "up", "down"),
			"amount":    num("Number of scroll steps."),
		}, "direction")),
		Handler: func(ctx context.Context, args Args) (string, error) {
			direction := strings.ToLower(args.String("direction"))
			if direction != "up" && direction != "down" {
				return "", fmt.Errorf("direction must be up or down, got %q", direction)
			}
			amount := args.Int("amount", defaultScrollAmount)
			if amount <= 0 {
				amount = defaultScrollAmount
			}
			if err := in.input.Scroll(ctx, direction, amount); err != nil {
				return "", err
			}
			return fmt.Sprintf("Scrolled %s.", direction), nil
		},
	}
}

func (in *inputTools) pressShortcut() Tool {
	return Tool{
		Declaration: declare(PressShortcut, "Press keyboard shortcut (e.g. Ctrl+W).", object(map[string]*genai.Schema{
			"key":       str("The main key."),
			"modifiers": list(str(""), "Modifier keys such as ctrl, alt, shift."),
		}, "key", "modifiers")),
		Handler: func(ctx context.Context, args Args) (string, error) {
			key, err := args.RequireString("key")
			if err != nil {
				return "", err
			}
			mods := args.Strings("modifiers")
			if err := in.input.Press(ctx, key, mods); err != nil {
				return "", err
			}
			return "Pressed " + strings.Join(append(append([]string{}, mods...), key), "+"), nil
		},
	}
}
