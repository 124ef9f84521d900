package system

import (
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/ini.v1"
)

// appAliases maps spoken names to launch commands
var appAliases = map[string][]string{
	"vscode":             {"code"},
	"code":               {"code"},
	"visual studio code": {"code"},
	"terminal":           {"x-terminal-emulator"},
	"chrome":             {"google-chrome"},
	"google chrome":      {"google-chrome"},
	"brave":              {"brave-browser"},
	"firefox":            {"firefox"},
	"files":              {"xdg-open", "~"},
	"explorer":           {"xdg-open", "~"},
	"calculator":         {"gnome-calculator"},
	"settings":           {"gnome-control-center"},
	"task manager":       {"gnome-system-monitor"},
	"discord":            {"discord"},
	"spotify":            {"spotify"},
	"telegram":           {"telegram-desktop"},
	"steam":              {"steam"},
	"postman":            {"postman"},
	"notepad":            {"gedit"},
}

// processNames maps spoken names to process names
var processNames = map[string]string{
	"vscode":             "code",
	"code":               "code",
	"visual studio code": "code",
	"chrome":             "chrome",
	"google chrome":      "chrome",
	"brave":              "brave",
	"firefox":            "firefox",
	"terminal":           "gnome-terminal-server",
	"calculator":         "gnome-calculator",
	"settings":           "gnome-control-center",
	"task manager":       "gnome-system-monitor",
	"files":              "nautilus",
	"explorer":           "nautilus",
	"telegram":           "telegram-desktop",
	"notepad":            "gedit",
}

// protectedProcesses must never be killed by close_app
var protectedProcesses = map[string]struct{}{
	"init":          {},
	"systemd":       {},
	"xorg":          {},
	"xwayland":      {},
	"gnome-shell":   {},
	"gnome-session": {},
	"kwin_x11":      {},
	"kwin_wayland":  {},
	"plasmashell":   {},
	"dbus-daemon":   {},
	"pipewire":      {},
	"pulseaudio":    {},
	"sshd":          {},
	"login":         {},
	"gdm":           {},
	"sddm":          {},
	"lightdm":       {},
}

// backgroundPrefixes hide helpers and daemons from the running-apps list
var backgroundPrefixes = []string{
	"systemd", "dbus", "gvfs", "at-spi", "xdg-", "pipewire", "wireplumber",
	"pulseaudio", "ibus", "gsd-", "evolution-", "tracker-", "gnome-keyring",
	"ssh-agent", "gpg-agent", "kworker", "bash", "zsh", "sh", "fish", "sudo",
}

// ProcessInfo is the part of a process the app filter looks at
type ProcessInfo struct {
	Name     string
	Username string
	Terminal string
}

// FilterApps reduces a process table to the sorted, unique names of
// user-facing applications owned by username.
func FilterApps(procs []ProcessInfo, username string) []string {
	seen := make(map[string]struct{})
	var apps []string
	for _, p := range procs {
		name := strings.TrimSpace(p.Name)
		if name == "" || p.Username != username || p.Terminal != "" {
			continue
		}
		lower := strings.ToLower(name)
		if _, ok := protectedProcesses[lower]; ok {
			continue
		}
		if isBackground(lower) {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		apps = append(apps, name)
	}
	sort.Strings(apps)
	return apps
}

func isBackground(name string) bool {
	for _, prefix := range backgroundPrefixes {
		if name == prefix || strings.HasPrefix(name, prefix) && len(prefix) > 2 {
			return true
		}
	}
	return strings.HasSuffix(name, "-daemon")
}

// resolveProcessName maps a spoken app name to the process to terminate
func resolveProcessName(app string) string {
	lower := strings.ToLower(strings.TrimSpace(app))
	if name, ok := processNames[lower]; ok {
		return name
	}
	return lower
}

// IsProtected reports whether closing the named app is refused
func IsProtected(app string) bool {
	_, ok := protectedProcesses[resolveProcessName(app)]
	return ok
}

// launchCommand maps a spoken app name to a command line
func launchCommand(app, home string) []string {
	lower := strings.ToLower(strings.TrimSpace(app))
	cmd, ok := appAliases[lower]
	if !ok {
		return nil
	}
	out := make([]string, len(cmd))
	for i, part := range cmd {
		if part == "~" {
			part = home
		}
		out[i] = part
	}
	return out
}

// desktopEntryDirs are scanned for installed applications
func desktopEntryDirs(home string) []string {
	return []string{
		"/usr/share/applications",
		"/usr/local/share/applications",
		"/var/lib/flatpak/exports/share/applications",
		filepath.Join(home, ".local", "share", "applications"),
	}
}

// ListDesktopEntries returns the display names of visible .desktop entries
func ListDesktopEntries(dirs []string) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, dir := range dirs {
		matches, _ := filepath.Glob(filepath.Join(dir, "*.desktop"))
		for _, path := range matches {
			name, visible := parseDesktopEntry(path)
			if !visible || name == "" {
				continue
			}
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// desktopEntryOptions reads freedesktop .desktop files: '=' is the only delimiter
// and '#' inside values (Name=C# IDE) is literal
var desktopEntryOptions = ini.LoadOptions{
	KeyValueDelimiters:      "=",
	IgnoreInlineComment:     true,
	IgnoreContinuation:      true,
	AllowShadows:            true,
	SkipUnrecognizableLines: true,
	PreserveSurroundedQuote: true,
}

func parseDesktopEntry(path string) (name string, visible bool) {
	file, err := ini.LoadSources(desktopEntryOptions, path)
	if err != nil {
		return "", false
	}
	entry, err := file.GetSection("Desktop Entry")
	if err != nil {
		return "", false
	}

	// With shadows allowed the first Name line is the key's value; later ones are shadows.
	name = entry.Key("Name").String()
	if t := entry.Key("Type").String(); t != "" && t != "Application" {
		return name, false
	}
	for _, flag := range []string{"NoDisplay", "Hidden"} {
		if strings.EqualFold(entry.Key(flag).String(), "true") {
			return name, false
		}
	}
	return name, true
}
