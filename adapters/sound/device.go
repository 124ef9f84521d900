package sound

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
	"go.uber.org/zap"

	"github.com/satriahrh/iris/internal/audio"
)

const (
	// DefaultInputRate is the rate microphone streams are opened at
	DefaultInputRate = 48000
	// DefaultFramesPerBuffer is the capture block size
	DefaultFramesPerBuffer = 4096
)

// Initialize starts the portaudio runtime. Call the returned func on shutdown.
func Initialize() (func(), error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
	}
	return func() { portaudio.Terminate() }, nil
}

// Microphone opens the default input device
type Microphone struct {
	rate            int
	framesPerBuffer int
	logger          *zap.Logger
}

var _ audio.Source = (*Microphone)(nil)

// NewMicrophone creates a microphone source. Zero values pick the defaults.
func NewMicrophone(rate, framesPerBuffer int, logger *zap.Logger) *Microphone {
	if rate <= 0 {
		rate = DefaultInputRate
	}
	if framesPerBuffer <= 0 {
		framesPerBuffer = DefaultFramesPerBuffer
	}
	return &Microphone{rate: rate, framesPerBuffer: framesPerBuffer, logger: logger}
}

// Open starts a blocking mono input stream
func (m *Microphone) Open(ctx context.Context) (audio.Stream, error) {
	buffer := make([]float32, m.framesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(m.rate), len(buffer), buffer)
	if err != nil {
		return nil, fmt.Errorf("failed to open input stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("failed to start input stream: %w", err)
	}
	m.logger.Info("Microphone opened", zap.Int("sample_rate", m.rate), zap.Int("frames_per_buffer", m.framesPerBuffer))
	return &micStream{stream: stream, buffer: buffer, rate: m.rate}, nil
}

type micStream struct {
	mu     sync.Mutex
	stream *portaudio.Stream
	buffer []float32
	rate   int
	closed bool
}

func (s *micStream) SampleRate() int { return s.rate }

func (s *micStream) Read() ([]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errors.New("input stream closed")
	}
	if err := s.stream.Read(); err != nil && !errors.Is(err, portaudio.InputOverflowed) {
		return nil, fmt.Errorf("failed to read input stream: %w", err)
	}
	block := make([]float32, len(s.buffer))
	copy(block, s.buffer)
	return block, nil
}

// Close aborts a pending Read before releasing the stream
func (s *micStream) Close() error {
	if err := s.stream.Abort(); err != nil {
		return fmt.Errorf("failed to abort input stream: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.stream.Close()
}

// Speaker plays scheduled buffers on the default output device
type Speaker struct {
	mixer  *mixer
	stream *portaudio.Stream
	logger *zap.Logger
}

var _ audio.Output = (*Speaker)(nil)

// OpenSpeaker opens a mono callback stream at rate and starts its clock
func OpenSpeaker(rate int, logger *zap.Logger) (*Speaker, error) {
	if rate <= 0 {
		rate = audio.OutputSampleRate
	}
	s := &Speaker{mixer: newMixer(rate), logger: logger}
	stream, err := portaudio.OpenDefaultStream(0, 1, float64(rate), 0, s.mixer.render)
	if err != nil {
		return nil, fmt.Errorf("failed to open output stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("failed to start output stream: %w", err)
	}
	s.stream = stream
	logger.Info("Speaker opened", zap.Int("sample_rate", rate))
	return s, nil
}

// Now returns the output clock in seconds
func (s *Speaker) Now() float64 { return s.mixer.now() }

// Schedule queues samples to start at clock time at
func (s *Speaker) Schedule(samples []float32, rate int, at float64) error {
	s.mixer.schedule(resample(samples, rate, s.mixer.rate), at)
	return nil
}

// Clear silences everything queued
func (s *Speaker) Clear() { s.mixer.clear() }

// Close stops the output stream
func (s *Speaker) Close() error {
	if err := s.stream.Stop(); err != nil {
		s.logger.Warn("Failed to stop output stream", zap.Error(err))
	}
	return s.stream.Close()
}
