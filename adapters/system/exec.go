package system

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Commander runs external desktop utilities
type Commander interface {
	// Output runs name and waits for it, returning trimmed stdout
	Output(ctx context.Context, name string, args ...string) (string, error)
	// Start launches name detached from the assistant
	Start(name string, args ...string) error
	// Exists reports whether name is on PATH
	Exists(name string) bool
}

// ExecCommander implements Commander with os/exec
type ExecCommander struct{}

func (ExecCommander) Output(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(out)))
	}
	return strings.TrimSpace(string(out)), nil
}

func (ExecCommander) Start(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", name, err)
	}
	go cmd.Wait()
	return nil
}

func (ExecCommander) Exists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
