package audio

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultLookahead is added to the clock when the cursor has fallen behind it.
const DefaultLookahead = 50 * time.Millisecond

// Output is an audio device that plays buffers at absolute times on its own clock.
type Output interface {
	// Now returns the device clock in seconds.
	Now() float64
	// Schedule queues samples at rate to start playing at the given clock time.
	Schedule(samples []float32, rate int, at float64) error
	// Clear drops everything scheduled but not yet played.
	Clear()
}

// LevelFunc receives the RMS level of each scheduled buffer.
type LevelFunc func(level float64)

// Scheduler places inbound model audio chunks back to back on the output clock.
// Start times are non-decreasing in enqueue order and buffers never overlap.
type Scheduler struct {
	output    Output
	lookahead float64
	onLevel   LevelFunc
	logger    *zap.Logger

	mu            sync.Mutex
	nextStartTime float64
}

// NewScheduler creates a playback scheduler
func NewScheduler(output Output, lookahead time.Duration, onLevel LevelFunc, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		output:    output,
		lookahead: lookahead.Seconds(),
		onLevel:   onLevel,
		logger:    logger,
	}
}

// Enqueue decodes a base64 PCM16 24 kHz chunk and schedules it. A chunk that
// fails to decode is dropped and the cursor is left untouched.
func (s *Scheduler) Enqueue(data string) error {
	samples, err := DecodeChunk(data)
	if err != nil {
		s.logger.Warn("Dropping undecodable audio chunk", zap.Error(err))
		return err
	}
	if len(samples) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.output.Now()
	if s.nextStartTime < now {
		s.nextStartTime = now + s.lookahead
	}

	if err := s.output.Schedule(samples, OutputSampleRate, s.nextStartTime); err != nil {
		s.logger.Warn("Failed to schedule audio chunk", zap.Error(err))
		return err
	}
	s.nextStartTime += float64(len(samples)) / OutputSampleRate

	if s.onLevel != nil {
		s.onLevel(RMS(samples))
	}
	return nil
}

// NextStartTime returns the cursor, the earliest time the next chunk may start.
func (s *Scheduler) NextStartTime() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextStartTime
}

// Reset clears pending playback and rewinds the cursor to zero.
func (s *Scheduler) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.output.Clear()
	s.nextStartTime = 0
}
