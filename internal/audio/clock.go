package audio

import (
	"sync"
	"time"
)

// ClockOutput is an Output with a wall-clock timeline that discards samples.
// It stands in for a speaker when audio devices are disabled.
type ClockOutput struct {
	mu        sync.Mutex
	start     time.Time
	scheduled int
}

func NewClockOutput() *ClockOutput {
	return &ClockOutput{start: time.Now()}
}

func (o *ClockOutput) Now() float64 {
	return time.Since(o.start).Seconds()
}

func (o *ClockOutput) Schedule(samples []float32, rate int, at float64) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.scheduled++
	return nil
}

func (o *ClockOutput) Clear() {}

// Scheduled returns how many buffers have been handed to the output
func (o *ClockOutput) Scheduled() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.scheduled
}
