package system

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
	"go.uber.org/zap"

	"github.com/satriahrh/iris/domain/entities"
	"github.com/satriahrh/iris/domain/repositories"
)

const cpuSampleWindow = 200 * time.Millisecond

// ErrProtectedProcess is returned when closing a system-critical process is requested
var ErrProtectedProcess = errors.New("protected process")

// Control implements repositories.SystemControl for a Linux desktop
type Control struct {
	home          string
	screenshotDir string
	username      string
	cmd           Commander
	logger        *zap.Logger
}

var _ repositories.SystemControl = (*Control)(nil)

// NewControl creates a system adapter. Screenshots are written under dataDir/Screenshots.
func NewControl(dataDir string, cmd Commander, logger *zap.Logger) *Control {
	home, _ := os.UserHomeDir()
	username := ""
	if u, err := user.Current(); err == nil {
		username = u.Username
	}
	if cmd == nil {
		cmd = ExecCommander{}
	}
	return &Control{
		home:          home,
		screenshotDir: filepath.Join(dataDir, "Screenshots"),
		username:      username,
		cmd:           cmd,
		logger:        logger,
	}
}

// RunningApps lists user-facing applications owned by the current user
func (c *Control) RunningApps(ctx context.Context) ([]string, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}

	infos := make([]ProcessInfo, 0, len(procs))
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		username, _ := p.UsernameWithContext(ctx)
		terminal, _ := p.TerminalWithContext(ctx)
		infos = append(infos, ProcessInfo{Name: name, Username: username, Terminal: terminal})
	}
	return FilterApps(infos, c.username), nil
}

// InstalledApps lists visible desktop entries
func (c *Control) InstalledApps(ctx context.Context) ([]string, error) {
	return ListDesktopEntries(desktopEntryDirs(c.home)), nil
}

// Status samples host, CPU and memory figures
func (c *Control) Status(ctx context.Context) (entities.SystemStatus, error) {
	var status entities.SystemStatus

	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return status, fmt.Errorf("failed to read host info: %w", err)
	}
	status.OS = info.OS
	status.Platform = strings.TrimSpace(info.Platform + " " + info.PlatformVersion)
	status.Uptime = time.Duration(info.Uptime) * time.Second

	if percents, err := cpu.PercentWithContext(ctx, cpuSampleWindow, false); err == nil && len(percents) > 0 {
		status.CPUPercent = percents[0]
	} else if err != nil {
		c.logger.Debug("CPU sample failed", zap.Error(err))
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return status, fmt.Errorf("failed to read memory info: %w", err)
	}
	status.MemoryPercent = vm.UsedPercent
	return status, nil
}

// OpenApp launches an application by alias, binary name or desktop entry id
func (c *Control) OpenApp(ctx context.Context, name string) error {
	if argv := launchCommand(name, c.home); argv != nil {
		c.logger.Info("Opening app", zap.String("app", name), zap.Strings("argv", argv))
		return c.cmd.Start(argv[0], argv[1:]...)
	}

	binary := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", "-"))
	if c.cmd.Exists(binary) {
		c.logger.Info("Opening app", zap.String("app", name), zap.String("binary", binary))
		return c.cmd.Start(binary)
	}
	if c.cmd.Exists("gtk-launch") {
		if _, err := c.cmd.Output(ctx, "gtk-launch", binary); err == nil {
			return nil
		}
	}
	return fmt.Errorf("could not find an application named %q", name)
}

// CloseApp kills every process whose name matches the app and returns how many were killed
func (c *Control) CloseApp(ctx context.Context, name string) (int, error) {
	if IsProtected(name) {
		c.logger.Warn("Refused to close protected process", zap.String("app", name))
		return 0, fmt.Errorf("%w: Security Protocol: I cannot close '%s' (System Critical Process). This action is blocked to prevent system instability", ErrProtectedProcess, name)
	}

	target := resolveProcessName(name)
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list processes: %w", err)
	}

	self := int32(os.Getpid())
	killed := 0
	for _, p := range procs {
		if p.Pid == self {
			continue
		}
		pname, err := p.NameWithContext(ctx)
		if err != nil || !strings.Contains(strings.ToLower(pname), target) {
			continue
		}
		if err := p.KillWithContext(ctx); err != nil {
			c.logger.Debug("Failed to kill process", zap.Int32("pid", p.Pid), zap.String("name", pname), zap.Error(err))
			continue
		}
		killed++
	}

	c.logger.Info("Closed app", zap.String("app", name), zap.String("process", target), zap.Int("killed", killed))
	return killed, nil
}

// OpenPath opens a file, folder or URL with xdg-open
func (c *Control) OpenPath(ctx context.Context, target string) error {
	return c.cmd.Start("xdg-open", target)
}

// SetVolume sets the default sink volume using pactl, falling back to amixer
func (c *Control) SetVolume(ctx context.Context, level int) error {
	level = max(0, min(level, 100))
	percent := fmt.Sprintf("%d%%", level)

	if c.cmd.Exists("pactl") {
		_, err := c.cmd.Output(ctx, "pactl", "set-sink-volume", "@DEFAULT_SINK@", percent)
		if err == nil {
			return nil
		}
		c.logger.Debug("pactl failed", zap.Error(err))
	}
	if _, err := c.cmd.Output(ctx, "amixer", "-q", "sset", "Master", percent); err != nil {
		return fmt.Errorf("failed to set volume: %w", err)
	}
	return nil
}

// screenshotTools are tried in order; each entry receives the output path last
var screenshotTools = [][]string{
	{"gnome-screenshot", "-f"},
	{"scrot", "-o"},
	{"import", "-window", "root"},
}

// Screenshot captures the screen into the screenshot directory
func (c *Control) Screenshot(ctx context.Context) (string, error) {
	if err := os.MkdirAll(c.screenshotDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create screenshot directory: %w", err)
	}
	path := filepath.Join(c.screenshotDir, fmt.Sprintf("screenshot_%s.png", time.Now().Format("20060102_150405")))

	var lastErr error = errors.New("no screenshot utility found")
	for _, tool := range screenshotTools {
		if !c.cmd.Exists(tool[0]) {
			continue
		}
		args := append(append([]string{}, tool[1:]...), path)
		if _, err := c.cmd.Output(ctx, tool[0], args...); err != nil {
			lastErr = err
			continue
		}
		c.logger.Info("Screenshot saved", zap.String("path", path), zap.String("tool", tool[0]))
		return path, nil
	}
	return "", fmt.Errorf("failed to take screenshot: %w", lastErr)
}
