package entities

import (
	"fmt"
	"time"
)

// SystemStatus is a point-in-time snapshot of the host machine
type SystemStatus struct {
	OS            string        `json:"os"`
	Platform      string        `json:"platform"`
	Uptime        time.Duration `json:"uptime"`
	CPUPercent    float64       `json:"cpu_percent"`
	MemoryPercent float64       `json:"memory_percent"`
}

// Summary renders the status as a single line for prompts
func (s SystemStatus) Summary() string {
	return fmt.Sprintf("OS: %s (%s), uptime %s, CPU %.0f%%, memory %.0f%%",
		s.OS, s.Platform, s.Uptime.Truncate(time.Minute), s.CPUPercent, s.MemoryPercent)
}
