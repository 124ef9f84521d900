package input

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"go.uber.org/zap"

	"github.com/satriahrh/iris/domain/repositories"
)

type recorder struct {
	calls  [][]string
	output string
	err    error
}

func (r *recorder) run(ctx context.Context, args ...string) (string, error) {
	r.calls = append(r.calls, args)
	return r.output, r.err
}

func TestScreenSize(t *testing.T) {
	rec := &recorder{output: "2560 1440"}
	x := NewXdotool(rec.run, zap.NewNop())

	w, h, err := x.ScreenSize(context.Background())
	if err != nil {
		t.Fatalf("ScreenSize failed: %v", err)
	}
	if w != 2560 || h != 1440 {
		t.Errorf("Expected 2560x1440, got %dx%d", w, h)
	}

	rec.output = "garbage"
	if _, _, err := x.ScreenSize(context.Background()); err == nil {
		t.Error("Expected error for malformed geometry")
	}
}

func TestClick(t *testing.T) {
	rec := &recorder{}
	x := NewXdotool(rec.run, zap.NewNop())
	ctx := context.Background()

	if err := x.Click(ctx, 10, 20, repositories.MouseRight, false); err != nil {
		t.Fatalf("Click failed: %v", err)
	}
	if err := x.Click(ctx, -1, -1, repositories.MouseLeft, true); err != nil {
		t.Fatalf("Click failed: %v", err)
	}

	want := [][]string{
		{"mousemove", "--sync", "10", "20"},
		{"click", "3"},
		{"click", "--repeat", "2", "1"},
	}
	if !reflect.DeepEqual(rec.calls, want) {
		t.Errorf("Expected %v, got %v", want, rec.calls)
	}
}

func TestScroll(t *testing.T) {
	rec := &recorder{}
	x := NewXdotool(rec.run, zap.NewNop())

	if err := x.Scroll(context.Background(), "Down", 3); err != nil {
		t.Fatalf("Scroll failed: %v", err)
	}
	if err := x.Scroll(context.Background(), "sideways", 1); err == nil {
		t.Error("Expected error for invalid direction")
	}
	want := [][]string{{"click", "--repeat", "3", "5"}}
	if !reflect.DeepEqual(rec.calls, want) {
		t.Errorf("Expected %v, got %v", want, rec.calls)
	}
}

func TestTypeAndPress(t *testing.T) {
	rec := &recorder{}
	x := NewXdotool(rec.run, zap.NewNop())
	ctx := context.Background()

	x.Type(ctx, "")
	x.Type(ctx, "-rf hello")
	x.Press(ctx, "t", []string{"Control", "shift"})
	x.Press(ctx, "enter", nil)
	x.Press(ctx, "f5", []string{""})

	want := [][]string{
		{"type", "--delay", "12", "--", "-rf hello"},
		{"key", "--clearmodifiers", "ctrl+shift+t"},
		{"key", "--clearmodifiers", "Return"},
		{"key", "--clearmodifiers", "F5"},
	}
	if !reflect.DeepEqual(rec.calls, want) {
		t.Errorf("Expected %v, got %v", want, rec.calls)
	}

	if err := x.Press(ctx, " ", nil); err == nil {
		t.Error("Expected error for empty key")
	}
}

func TestRunnerErrorsAreWrapped(t *testing.T) {
	rec := &recorder{err: errors.New("no display")}
	x := NewXdotool(rec.run, zap.NewNop())

	err := x.Type(context.Background(), "hi")
	if !errors.Is(err, rec.err) {
		t.Errorf("Expected wrapped runner error, got %v", err)
	}
}
