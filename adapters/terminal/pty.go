// Package terminal runs shell commands under a pseudo-terminal so programs
// that check for a TTY still stream their output.
package terminal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"
	"unicode/utf8"

	"github.com/creack/pty"
	"go.uber.org/zap"

	"github.com/satriahrh/iris/domain/repositories"
)

const (
	readBufferSize = 32 * 1024
	defaultCols    = 120
	defaultRows    = 40
)

// Runner implements repositories.TerminalRunner on top of a PTY
type Runner struct {
	shell  string
	logger *zap.Logger
}

var _ repositories.TerminalRunner = (*Runner)(nil)

// NewRunner creates a runner. An empty shell uses $SHELL, then /bin/sh.
func NewRunner(shell string, logger *zap.Logger) *Runner {
	if shell == "" {
		shell = os.Getenv("SHELL")
	}
	if shell == "" {
		shell = "/bin/sh"
	}
	return &Runner{shell: shell, logger: logger}
}

// Run executes command and streams output chunks until it exits
func (r *Runner) Run(ctx context.Context, command, cwd string, onOutput func(chunk string)) (int, error) {
	cmd := exec.CommandContext(ctx, r.shell, "-c", command)
	cmd.Dir = cwd
	cmd.Env = append(os.Environ(), "TERM=dumb")
	// pty.Start puts the shell in its own session; kill the whole group so
	// grandchildren release the terminal too.
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = time.Second

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Cols: defaultCols, Rows: defaultRows})
	if err != nil {
		return -1, fmt.Errorf("pty start: %w", err)
	}
	defer ptmx.Close()

	r.logger.Info("Terminal command started", zap.String("command", command), zap.Int("pid", cmd.Process.Pid))

	buf := make([]byte, readBufferSize)
	var pending []byte
	for {
		n, readErr := ptmx.Read(buf)
		if n > 0 {
			chunk := append(pending, buf[:n]...)
			pending = nil

			// Hold back a split multi-byte rune until the next read.
			if tail := incompleteTail(chunk); tail > 0 {
				pending = append([]byte(nil), chunk[len(chunk)-tail:]...)
				chunk = chunk[:len(chunk)-tail]
			}
			if len(chunk) > 0 && onOutput != nil {
				onOutput(string(chunk))
			}
		}
		if readErr != nil {
			// Linux reports EIO once the child side closes.
			if len(pending) > 0 && onOutput != nil {
				onOutput(string(pending))
			}
			break
		}
	}

	err = cmd.Wait()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return 0, nil
	case errors.As(err, &exitErr):
		if ctx.Err() != nil {
			return exitErr.ExitCode(), ctx.Err()
		}
		return exitErr.ExitCode(), nil
	default:
		return -1, fmt.Errorf("wait: %w", err)
	}
}

// incompleteTail returns how many trailing bytes form an unfinished UTF-8 sequence.
func incompleteTail(data []byte) int {
	for i := 1; i <= utf8.UTFMax-1 && i <= len(data); i++ {
		start := len(data) - i
		if utf8.RuneStart(data[start]) {
			if utf8.FullRune(data[start:]) {
				return 0
			}
			return i
		}
	}
	return 0
}
