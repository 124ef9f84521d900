package live

import (
	"fmt"
	"strings"
	"time"

	"github.com/satriahrh/iris/domain/entities"
)

const (
	// HistoryLimit is how many remembered utterances are replayed into the instruction.
	HistoryLimit = 20

	installedAppsShown = 10
)

// PromptContext is what the system instruction is built from.
type PromptContext struct {
	UserName      string
	Status        *entities.SystemStatus
	RunningApps   []string
	InstalledApps []string
	History       []*entities.MemoryEntry
	Now           time.Time
}

// BuildInstruction renders the system instruction sent in the setup message.
func BuildInstruction(pc PromptContext) string {
	user := pc.UserName
	if user == "" {
		user = "the user"
	}
	now := pc.Now
	if now.IsZero() {
		now = time.Now()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are IRIS, a voice assistant running on the desktop of %s. ", user)
	b.WriteString("Speak naturally and keep answers short. ")
	b.WriteString("Use the available tools to act on the computer instead of describing what you would do. ")
	b.WriteString("Messages that start with [System Notice] describe changes on the desktop; absorb them silently.\n\n")

	fmt.Fprintf(&b, "Current time: %s\n", now.Format("Monday, 02 January 2006 15:04"))
	if pc.Status != nil {
		fmt.Fprintf(&b, "System: %s\n", pc.Status.Summary())
	}
	if len(pc.RunningApps) > 0 {
		fmt.Fprintf(&b, "Running apps: %s\n", strings.Join(pc.RunningApps, ", "))
	}
	if len(pc.InstalledApps) > 0 {
		shown := pc.InstalledApps
		suffix := ""
		if len(shown) > installedAppsShown {
			shown = shown[:installedAppsShown]
			suffix = ", ..."
		}
		fmt.Fprintf(&b, "Installed apps: %s%s\n", strings.Join(shown, ", "), suffix)
	}

	history := pc.History
	if len(history) > HistoryLimit {
		history = history[len(history)-HistoryLimit:]
	}
	if len(history) > 0 {
		b.WriteString("\nRecent conversation:\n")
		for _, entry := range history {
			speaker := user
			if entry.Role == entities.MessageRoleModel {
				speaker = "IRIS"
			}
			fmt.Fprintf(&b, "%s: %s\n", speaker, entry.Content)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}
