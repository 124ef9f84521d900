// Package live runs the duplex session with the Gemini Live API: it streams
// microphone audio out, schedules model audio for playback, answers tool
// calls and injects world-state notices.
package live

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/satriahrh/iris/domain/entities"
	"github.com/satriahrh/iris/domain/repositories"
	"github.com/satriahrh/iris/internal/audio"
	"github.com/satriahrh/iris/internal/events"
	"github.com/satriahrh/iris/internal/tools"
	"github.com/satriahrh/iris/internal/watcher"
)

const (
	// DefaultEndpoint is the BidiGenerateContent websocket endpoint.
	DefaultEndpoint = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"

	// VideoMimeType is the mime type of outbound camera and screen frames.
	VideoMimeType = "image/jpeg"

	memoryWriteTimeout = 5 * time.Second
)

// SessionConfig holds the per-connection settings.
type SessionConfig struct {
	Endpoint          string
	APIKey            string
	Model             string
	Voice             string
	SystemInstruction string
	OutboundQueueSize int
	WatchInterval     time.Duration
	PlaybackLookahead time.Duration
	Muted             bool
}

// SessionDeps are the collaborators a session drives.
type SessionDeps struct {
	Dialer    *websocket.Dialer
	Table     *tools.Table
	Memory    repositories.MemoryRepository
	Apps      watcher.AppLister
	Source    audio.Source // nil disables microphone capture
	Output    audio.Output
	Publisher events.Publisher
	Logger    *zap.Logger

	// OnClose runs once after teardown, on the goroutine that closed the session.
	OnClose func(*Session)
}

// Session is one open connection to the live model. All writes go through a
// single write pump; all reads are handled by a single read pump.
type Session struct {
	id          string
	cfg         SessionConfig
	conn        *websocket.Conn
	table       *tools.Table
	memory      repositories.MemoryRepository
	scheduler   *audio.Scheduler
	capture     *audio.Capture
	watcher     *watcher.Watcher
	publisher   events.Publisher
	transcript  *Transcript
	queue       *outbound
	logger      *zap.Logger
	connectedAt time.Time

	ctx    context.Context
	cancel context.CancelFunc

	open      atomic.Bool
	muted     atomic.Bool
	closeOnce sync.Once
	done      chan struct{}
	onClose   func(*Session)
}

// Dial opens the websocket, sends the setup message and starts the pumps,
// microphone capture and world-state watcher.
func Dial(ctx context.Context, cfg SessionConfig, deps SessionDeps, initialApps []string) (*Session, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	dialer := deps.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	publisher := deps.Publisher
	if publisher == nil {
		publisher = events.Nop
	}

	target := cfg.Endpoint + "?key=" + url.QueryEscape(cfg.APIKey)
	conn, _, err := dialer.DialContext(ctx, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial live endpoint: %w", err)
	}

	var decls []*genai.FunctionDeclaration
	if deps.Table != nil {
		decls = deps.Table.Declarations()
	}
	setup, err := json.Marshal(newSetup(cfg.Model, cfg.SystemInstruction, cfg.Voice, decls))
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to marshal setup: %w", err)
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, setup); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to send setup: %w", err)
	}

	sessionCtx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:          uuid.New().String(),
		cfg:         cfg,
		conn:        conn,
		table:       deps.Table,
		memory:      deps.Memory,
		publisher:   publisher,
		transcript:  &Transcript{},
		queue:       newOutbound(cfg.OutboundQueueSize),
		logger:      deps.Logger,
		connectedAt: time.Now(),
		ctx:         sessionCtx,
		cancel:      cancel,
		done:        make(chan struct{}),
		onClose:     deps.OnClose,
	}
	s.logger = s.logger.With(zap.String("sessionID", s.id))
	s.muted.Store(cfg.Muted)
	s.open.Store(true)

	output := deps.Output
	if output == nil {
		output = audio.NewClockOutput()
	}
	s.scheduler = audio.NewScheduler(output, cfg.PlaybackLookahead, s.publishLevel, s.logger)

	writer := &writePump{ws: conn, ctx: sessionCtx, queue: s.queue}
	go func() {
		if err := writer.run(); err != nil {
			s.logger.Warn("Live write pump stopped", zap.Error(err))
			s.Close()
		}
	}()
	go s.readPump()

	if deps.Source != nil {
		s.capture = audio.NewCapture(deps.Source, s.logger)
		if err := s.capture.Start(sessionCtx, s.micOpen, s.SendAudioFrame); err != nil {
			s.logger.Warn("Microphone unavailable, continuing without capture", zap.Error(err))
		}
	}

	if deps.Apps != nil {
		s.watcher = watcher.New(deps.Apps, s.SendContext, publisher, cfg.WatchInterval, s.logger)
		s.watcher.Seed(initialApps)
		s.watcher.Start(sessionCtx)
	}

	s.logger.Info("Live session connected", zap.String("model", cfg.Model))
	return s, nil
}

// ID returns the session identifier
func (s *Session) ID() string { return s.id }

// Done is closed when the session has been torn down
func (s *Session) Done() <-chan struct{} { return s.done }

// IsOpen reports whether the session still accepts frames
func (s *Session) IsOpen() bool { return s.open.Load() }

func (s *Session) SetMuted(muted bool) { s.muted.Store(muted) }

func (s *Session) Muted() bool { return s.muted.Load() }

// Dropped returns the number of media frames discarded under backpressure
func (s *Session) Dropped() uint64 { return s.queue.Dropped() }

// Status reports the session as a connected SessionStatus
func (s *Session) Status() entities.SessionStatus {
	state := entities.SessionStateConnected
	if !s.IsOpen() {
		state = entities.SessionStateDisconnected
	}
	connectedAt := s.connectedAt
	return entities.SessionStatus{
		State:         state,
		SessionID:     s.id,
		Model:         s.cfg.Model,
		Muted:         s.Muted(),
		ConnectedAt:   &connectedAt,
		DroppedFrames: s.Dropped(),
	}
}

func (s *Session) micOpen() bool {
	return s.open.Load() && !s.muted.Load()
}

// SendAudioFrame queues one base64 PCM16 16 kHz frame. Frames are dropped
// oldest-first when the media queue is full.
func (s *Session) SendAudioFrame(frame string) {
	s.sendMedia(audio.PCMMimeType, frame)
}

// SendVideoFrame queues one base64 JPEG frame on the media queue.
func (s *Session) SendVideoFrame(frame string) error {
	if !s.IsOpen() {
		return ErrSessionClosed
	}
	s.sendMedia(VideoMimeType, frame)
	return nil
}

func (s *Session) sendMedia(mimeType, data string) {
	if !s.IsOpen() {
		return
	}
	payload, err := json.Marshal(newMediaMessage(mimeType, data))
	if err != nil {
		s.logger.Error("Failed to marshal media frame", zap.Error(err))
		return
	}
	if !s.queue.pushMedia(payload) {
		s.logger.Debug("Media queue full, dropped oldest frame", zap.Uint64("dropped", s.queue.Dropped()))
	}
}

// SendContext injects a user turn the model should absorb without replying.
func (s *Session) SendContext(text string) error {
	return s.sendPriority(newContextMessage(text))
}

// SendToolResponses returns tool results to the model.
func (s *Session) SendToolResponses(responses []*genai.FunctionResponse) error {
	return s.sendPriority(ClientMessage{ToolResponse: &ToolResponse{FunctionResponses: responses}})
}

func (s *Session) sendPriority(msg ClientMessage) error {
	if !s.IsOpen() {
		return ErrSessionClosed
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	return s.queue.pushPriority(s.ctx, payload)
}

// readPump pumps messages from the live endpoint to the handlers.
func (s *Session) readPump() {
	defer s.Close()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if !s.IsOpen() {
				return
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Error("Live connection closed unexpectedly", zap.Error(err))
			} else {
				s.logger.Info("Live connection closed", zap.Error(err))
			}
			return
		}
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		s.handleMessage(data)
	}
}

func (s *Session) handleMessage(data []byte) {
	var msg ServerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.logger.Debug("Discarding malformed frame", zap.Error(err))
		return
	}

	if msg.SetupComplete != nil {
		s.logger.Info("Live setup complete")
	}

	if msg.ToolCall != nil && len(msg.ToolCall.FunctionCalls) > 0 {
		go s.handleToolCall(msg.ToolCall.FunctionCalls)
	}

	if msg.ToolCallCancellation != nil {
		s.logger.Info("Tool calls cancelled by model", zap.Strings("ids", msg.ToolCallCancellation.IDs))
	}

	if sc := msg.ServerContent; sc != nil {
		s.handleServerContent(sc)
	}

	if msg.GoAway != nil {
		s.logger.Warn("Live endpoint going away", zap.String("timeLeft", msg.GoAway.TimeLeft))
		s.publisher.Publish(events.New(events.TypeGoAway, map[string]any{"time_left": msg.GoAway.TimeLeft}))
	}
}

func (s *Session) handleServerContent(sc *ServerContent) {
	if sc.ModelTurn != nil {
		for _, part := range sc.ModelTurn.Parts {
			if part.InlineData == nil || part.InlineData.Data == "" {
				continue
			}
			if mt := part.InlineData.MimeType; mt != "" && !strings.HasPrefix(mt, "audio/") {
				continue
			}
			// Undecodable chunks are logged and skipped by the scheduler.
			_ = s.scheduler.Enqueue(part.InlineData.Data)
		}
	}

	if sc.OutputTranscription != nil && sc.OutputTranscription.Text != "" {
		s.transcript.AppendOutput(sc.OutputTranscription.Text)
		s.publishTranscript(entities.MessageRoleModel, sc.OutputTranscription.Text)
	}
	if sc.InputTranscription != nil && sc.InputTranscription.Text != "" {
		s.transcript.AppendInput(sc.InputTranscription.Text)
		s.publishTranscript(entities.MessageRoleUser, sc.InputTranscription.Text)
	}

	if sc.TurnComplete || sc.Interrupted {
		s.flushTranscript(sc.Interrupted)
	}
}

// handleToolCall runs detached from the read pump so that long tools never
// stall inbound audio.
func (s *Session) handleToolCall(calls []*genai.FunctionCall) {
	for _, call := range calls {
		s.publisher.Publish(events.New(events.TypeToolCall, map[string]any{
			"id":   call.ID,
			"name": call.Name,
			"args": call.Args,
		}))
	}

	var responses []*genai.FunctionResponse
	if s.table != nil {
		responses = s.table.DispatchAll(context.Background(), calls)
	} else {
		for _, call := range calls {
			responses = append(responses, &genai.FunctionResponse{
				ID:       call.ID,
				Name:     call.Name,
				Response: map[string]any{"result": map[string]any{"output": tools.ErrToolNotFound}},
			})
		}
	}

	for _, resp := range responses {
		s.publisher.Publish(events.New(events.TypeToolResult, map[string]any{
			"id":       resp.ID,
			"name":     resp.Name,
			"response": resp.Response,
		}))
	}

	if err := s.SendToolResponses(responses); err != nil {
		s.logger.Debug("Discarding tool responses for closed session", zap.Int("count", len(responses)), zap.Error(err))
	}
}

func (s *Session) flushTranscript(interrupted bool) {
	entries := s.transcript.Flush()

	data := map[string]any{"interrupted": interrupted}
	for _, entry := range entries {
		data[string(entry.Role)] = entry.Text
		s.remember(entry)
	}
	s.publisher.Publish(events.New(events.TypeTurnComplete, data))
}

func (s *Session) remember(entry TranscriptEntry) {
	if s.memory == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), memoryWriteTimeout)
	defer cancel()

	if err := s.memory.Append(ctx, entities.NewMemoryEntry(s.id, entry.Role, entry.Text)); err != nil {
		s.logger.Error("Failed to save memory entry", zap.String("role", string(entry.Role)), zap.Error(err))
	}
}

func (s *Session) publishTranscript(role entities.MessageRole, text string) {
	s.publisher.Publish(events.New(events.TypeTranscript, map[string]any{
		"role": string(role),
		"text": text,
	}))
}

func (s *Session) publishLevel(level float64) {
	s.publisher.Publish(events.New(events.TypeAudioLevel, map[string]any{"level": level}))
}

// Close tears the session down: capture, playback, watcher and socket.
// Safe to call more than once and from any goroutine.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.open.Store(false)
		s.cancel()

		if s.capture != nil {
			s.capture.Stop()
		}
		s.scheduler.Reset()
		if s.watcher != nil {
			s.watcher.Stop()
		}
		// The write pump sends the close frame; this unblocks the read pump
		// if the pump already exited on error.
		time.AfterFunc(shutdownFlush+writeWait, func() { s.conn.Close() })

		s.logger.Info("Live session closed", zap.Uint64("droppedFrames", s.queue.Dropped()))
		close(s.done)
		if s.onClose != nil {
			s.onClose(s)
		}
	})
}
