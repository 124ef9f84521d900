package tools

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/satriahrh/iris/domain/repositories"
	"github.com/satriahrh/iris/internal/events"
)

// terminalTailLimit bounds how much command output is returned to the model.
const terminalTailLimit = 1500

type terminalTools struct {
	runner repositories.TerminalRunner
	events events.Publisher
	home   string
}

func (tt *terminalTools) runTerminalCommand() Tool {
	return Tool{
		Declaration: declare(RunTerminalCommand, "Run a shell command on the user's computer and stream its output to the terminal widget. Returns the exit code and the tail of the output.", object(map[string]*genai.Schema{
			"command": str("The shell command to run."),
			"cwd":     str("Working directory (optional)."),
		}, "command")),
		Handler: func(ctx context.Context, args Args) (string, error) {
			command, err := args.RequireString("command")
			if err != nil {
				return "", err
			}
			cwd := args.String("cwd")
			if cwd == "" {
				cwd = tt.home
			}

			var output strings.Builder
			code, err := tt.runner.Run(ctx, command, cwd, func(chunk string) {
				output.WriteString(chunk)
				tt.events.Publish(events.New(events.TypeTerminalOutput, map[string]any{
					"command": command,
					"chunk":   chunk,
				}))
			})
			if err != nil {
				return "", err
			}

			tt.events.Publish(events.New(events.TypeTerminalOutput, map[string]any{
				"command":  command,
				"chunk":    fmt.Sprintf("\r\n[Process exited with code %d]\r\n", code),
				"exitCode": code,
			}))

			tail := output.String()
			if len(tail) > terminalTailLimit {
				tail = "..." + tail[len(tail)-terminalTailLimit:]
			}
			return fmt.Sprintf("Completed with code %d\n%s", code, strings.TrimSpace(tail)), nil
		},
	}
}
