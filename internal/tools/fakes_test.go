package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/satriahrh/iris/domain/entities"
	"github.com/satriahrh/iris/domain/repositories"
)

type fakeSystem struct {
	mu      sync.Mutex
	opened  []string
	apps    []string
	volume  int
	killed  int
	failErr error
}

var _ repositories.SystemControl = (*fakeSystem)(nil)

func (f *fakeSystem) RunningApps(ctx context.Context) ([]string, error) { return f.apps, f.failErr }
func (f *fakeSystem) InstalledApps(ctx context.Context) ([]string, error) {
	return f.apps, f.failErr
}
func (f *fakeSystem) Status(ctx context.Context) (entities.SystemStatus, error) {
	return entities.SystemStatus{OS: "linux"}, f.failErr
}
func (f *fakeSystem) OpenApp(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opened = append(f.opened, "app:"+name)
	return f.failErr
}
func (f *fakeSystem) CloseApp(ctx context.Context, name string) (int, error) {
	return f.killed, f.failErr
}
func (f *fakeSystem) OpenPath(ctx context.Context, target string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opened = append(f.opened, target)
	return f.failErr
}
func (f *fakeSystem) SetVolume(ctx context.Context, level int) error {
	f.volume = level
	return f.failErr
}
func (f *fakeSystem) Screenshot(ctx context.Context) (string, error) {
	return "/tmp/shot.png", f.failErr
}

type click struct {
	x, y int
}

type fakeInput struct {
	mu      sync.Mutex
	width   int
	height  int
	clicks  []click
	typed   []string
	pressed []string
	scrolls []string
}

var _ repositories.InputInjector = (*fakeInput)(nil)

func (f *fakeInput) ScreenSize(ctx context.Context) (int, int, error) {
	return f.width, f.height, nil
}
func (f *fakeInput) Click(ctx context.Context, x, y int, button repositories.MouseButton, double bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clicks = append(f.clicks, click{x, y})
	return nil
}
func (f *fakeInput) Scroll(ctx context.Context, direction string, amount int) error {
	f.scrolls = append(f.scrolls, fmt.Sprintf("%s:%d", direction, amount))
	return nil
}
func (f *fakeInput) Type(ctx context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.typed = append(f.typed, text)
	return nil
}
func (f *fakeInput) Press(ctx context.Context, key string, modifiers []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pressed = append(f.pressed, fmt.Sprint(modifiers, key))
	return nil
}

type fakeNotes struct {
	mu    sync.Mutex
	notes []*entities.Note
}

var _ repositories.NoteRepository = (*fakeNotes)(nil)

func (f *fakeNotes) Save(ctx context.Context, title, content string) (*entities.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	note := &entities.Note{
		Filename:  entities.NoteFilename(title),
		Title:     title,
		Content:   content,
		CreatedAt: time.Now().Add(time.Duration(len(f.notes)) * time.Second),
	}
	f.notes = append(f.notes, note)
	return note, nil
}

func (f *fakeNotes) List(ctx context.Context) ([]*entities.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]*entities.Note{}, f.notes...)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeNotes) Delete(ctx context.Context, filename string) error { return nil }

type fakeRunner struct {
	chunks []string
	code   int
}

func (f *fakeRunner) Run(ctx context.Context, command, cwd string, onOutput func(string)) (int, error) {
	for _, c := range f.chunks {
		onOutput(c)
	}
	return f.code, nil
}

type fakeLLM struct {
	reply string
}

func (f *fakeLLM) Generate(ctx context.Context, instruction, prompt string) (string, error) {
	return f.reply + ": " + prompt, nil
}
