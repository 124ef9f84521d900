package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Stream is an open mono microphone stream delivering fixed-size blocks.
type Stream interface {
	// SampleRate is the device's native rate.
	SampleRate() int
	// Read blocks until the next block is available.
	Read() ([]float32, error)
	Close() error
}

// Source opens microphone streams.
type Source interface {
	Open(ctx context.Context) (Stream, error)
}

// Gate reports whether a captured block may be sent right now.
type Gate func() bool

// FrameSink receives each encoded outbound frame.
type FrameSink func(frame string)

// CaptureState is the lifecycle state of a Capture.
type CaptureState int

const (
	CaptureIdle CaptureState = iota
	CaptureCapturing
)

// ErrCaptureRunning is returned by Start while already capturing.
var ErrCaptureRunning = errors.New("capture already running")

// Capture pulls blocks from a microphone, encodes them as 16 kHz PCM16 frames
// and hands them to a sink one frame per block. Blocks are dropped, never
// queued, while the gate is closed.
type Capture struct {
	source Source
	logger *zap.Logger

	mu     sync.Mutex
	state  CaptureState
	cancel context.CancelFunc
	done   chan struct{}
}

// NewCapture creates an idle capture pipeline
func NewCapture(source Source, logger *zap.Logger) *Capture {
	return &Capture{
		source: source,
		logger: logger,
	}
}

// State returns the current lifecycle state
func (c *Capture) State() CaptureState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start opens the microphone and begins delivering frames to sink.
func (c *Capture) Start(ctx context.Context, gate Gate, sink FrameSink) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == CaptureCapturing {
		return ErrCaptureRunning
	}

	stream, err := c.source.Open(ctx)
	if err != nil {
		c.logger.Error("Failed to open microphone", zap.Error(err))
		return fmt.Errorf("failed to open microphone: %w", err)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.state = CaptureCapturing
	c.cancel = cancel
	c.done = done

	c.logger.Info("Microphone capture started", zap.Int("sampleRate", stream.SampleRate()))

	go c.loop(loopCtx, stream, gate, sink, done)
	return nil
}

// Stop releases the microphone. It is a no-op when idle.
func (c *Capture) Stop() {
	c.mu.Lock()
	if c.state != CaptureCapturing {
		c.mu.Unlock()
		return
	}
	cancel, done := c.cancel, c.done
	c.state = CaptureIdle
	c.cancel = nil
	c.done = nil
	c.mu.Unlock()

	cancel()
	<-done
	c.logger.Info("Microphone capture stopped")
}

func (c *Capture) loop(ctx context.Context, stream Stream, gate Gate, sink FrameSink, done chan struct{}) {
	defer close(done)
	defer func() {
		if err := stream.Close(); err != nil {
			c.logger.Warn("Failed to close microphone stream", zap.Error(err))
		}
	}()

	rate := stream.SampleRate()
	for {
		if ctx.Err() != nil {
			return
		}

		block, err := stream.Read()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("Microphone read failed, capture ended", zap.Error(err))
			c.mu.Lock()
			if c.done == done {
				c.cancel()
				c.state = CaptureIdle
				c.cancel = nil
				c.done = nil
			}
			c.mu.Unlock()
			return
		}

		if ctx.Err() != nil || len(block) == 0 || !gate() {
			continue
		}
		sink(EncodeFrame(block, rate))
	}
}
