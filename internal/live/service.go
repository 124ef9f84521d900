package live

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/satriahrh/iris/domain/entities"
	"github.com/satriahrh/iris/domain/repositories"
	"github.com/satriahrh/iris/internal/audio"
	"github.com/satriahrh/iris/internal/events"
	"github.com/satriahrh/iris/internal/tools"
)

const contextGatherTimeout = 5 * time.Second

// ServiceDeps are the long-lived collaborators shared by every session.
type ServiceDeps struct {
	Dialer    *websocket.Dialer
	Table     *tools.Table
	Memory    repositories.MemoryRepository
	System    repositories.SystemControl
	Source    audio.Source
	Output    audio.Output
	Publisher events.Publisher
	Logger    *zap.Logger
}

// Service owns at most one live session at a time. Connecting while a session
// is open tears the old one down first.
type Service struct {
	cfg      SessionConfig
	userName string
	deps     ServiceDeps
	logger   *zap.Logger

	mu         sync.Mutex
	current    *Session
	generation uint64
	connecting bool
	muted      bool
}

func NewService(cfg SessionConfig, userName string, deps ServiceDeps) *Service {
	if deps.Publisher == nil {
		deps.Publisher = events.Nop
	}
	return &Service{
		cfg:      cfg,
		userName: userName,
		deps:     deps,
		logger:   deps.Logger,
		muted:    cfg.Muted,
	}
}

// Connect opens a new session and returns its status. The service lock is not
// held while context is gathered and the socket dialed; a later Connect or
// Disconnect supersedes this one and its session is discarded.
func (s *Service) Connect(ctx context.Context) (entities.SessionStatus, error) {
	if s.cfg.APIKey == "" {
		s.logger.Error("Cannot connect without a Gemini API key")
		return s.Status(), ErrMissingAPIKey
	}

	s.mu.Lock()
	old := s.current
	s.current = nil
	s.generation++
	generation := s.generation
	s.connecting = true
	muted := s.muted
	s.mu.Unlock()

	if old != nil {
		s.logger.Info("Replacing open live session", zap.String("sessionID", old.ID()))
		old.Close()
	}
	s.publishState(entities.SessionStatus{State: entities.SessionStateConnecting, Muted: muted})

	instruction, apps := s.gatherContext(ctx)

	cfg := s.cfg
	cfg.SystemInstruction = instruction
	cfg.Muted = muted

	session, err := Dial(ctx, cfg, SessionDeps{
		Dialer:    s.deps.Dialer,
		Table:     s.deps.Table,
		Memory:    s.deps.Memory,
		Apps:      s.deps.System,
		Source:    s.deps.Source,
		Output:    s.deps.Output,
		Publisher: s.deps.Publisher,
		Logger:    s.logger,
		OnClose:   s.sessionClosed,
	}, apps)

	s.mu.Lock()
	if s.generation != generation {
		s.mu.Unlock()
		if session != nil {
			session.Close()
		}
		s.logger.Info("Connect superseded before it completed")
		return s.Status(), ErrConnectSuperseded
	}
	s.connecting = false
	if err != nil {
		status := entities.SessionStatus{State: entities.SessionStateDisconnected, Muted: s.muted}
		s.mu.Unlock()
		s.logger.Error("Failed to connect live session", zap.Error(err))
		s.publishState(status)
		return status, err
	}
	session.SetMuted(s.muted)
	if session.IsOpen() {
		s.current = session
	}
	s.mu.Unlock()

	status := session.Status()
	if !session.IsOpen() {
		status = entities.SessionStatus{State: entities.SessionStateDisconnected, Muted: status.Muted}
	}
	s.publishState(status)
	return status, nil
}

// gatherContext builds the system instruction. Failures degrade the prompt,
// they never block the connection.
func (s *Service) gatherContext(ctx context.Context) (string, []string) {
	ctx, cancel := context.WithTimeout(ctx, contextGatherTimeout)
	defer cancel()

	pc := PromptContext{UserName: s.userName, Now: time.Now()}

	if s.deps.Memory != nil {
		history, err := s.deps.Memory.Recent(ctx, HistoryLimit)
		if err != nil {
			s.logger.Warn("Failed to load memory", zap.Error(err))
		}
		pc.History = history
	}

	if s.deps.System != nil {
		if status, err := s.deps.System.Status(ctx); err != nil {
			s.logger.Warn("Failed to read system status", zap.Error(err))
		} else {
			pc.Status = &status
		}
		if running, err := s.deps.System.RunningApps(ctx); err != nil {
			s.logger.Warn("Failed to list running apps", zap.Error(err))
		} else {
			pc.RunningApps = running
		}
		if installed, err := s.deps.System.InstalledApps(ctx); err != nil {
			s.logger.Warn("Failed to list installed apps", zap.Error(err))
		} else {
			pc.InstalledApps = installed
		}
	}

	return BuildInstruction(pc), pc.RunningApps
}

// sessionClosed runs on the closing goroutine. Only the loss of the current
// session is announced; replaced or disconnected sessions were announced by
// their caller.
func (s *Service) sessionClosed(session *Session) {
	s.mu.Lock()
	wasCurrent := s.current == session
	if wasCurrent {
		s.current = nil
	}
	s.mu.Unlock()

	if wasCurrent {
		s.logger.Info("Live session closed", zap.String("sessionID", session.ID()))
		s.publishState(entities.SessionStatus{State: entities.SessionStateDisconnected, Muted: session.Muted()})
	}
}

// Disconnect closes the open session, if any, and cancels a pending Connect.
func (s *Service) Disconnect() {
	s.mu.Lock()
	session := s.current
	s.current = nil
	s.generation++
	wasConnecting := s.connecting
	s.connecting = false
	muted := s.muted
	s.mu.Unlock()

	if session != nil {
		session.Close()
	}
	if session != nil || wasConnecting {
		s.publishState(entities.SessionStatus{State: entities.SessionStateDisconnected, Muted: muted})
	}
}

// SetMute gates microphone frames. The setting outlives reconnects.
func (s *Service) SetMute(muted bool) entities.SessionStatus {
	s.mu.Lock()
	s.muted = muted
	if s.current != nil {
		s.current.SetMuted(muted)
	}
	s.mu.Unlock()

	s.logger.Info("Microphone mute changed", zap.Bool("muted", muted))
	status := s.Status()
	s.publishState(status)
	return status
}

// SendVideoFrame forwards a base64 JPEG frame to the open session.
func (s *Service) SendVideoFrame(frame string) error {
	s.mu.Lock()
	session := s.current
	s.mu.Unlock()

	if session == nil {
		return ErrNotConnected
	}
	return session.SendVideoFrame(frame)
}

// Status reports the current session state.
func (s *Service) Status() entities.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connecting {
		return entities.SessionStatus{State: entities.SessionStateConnecting, Muted: s.muted}
	}
	if s.current != nil && s.current.IsOpen() {
		return s.current.Status()
	}
	return entities.SessionStatus{State: entities.SessionStateDisconnected, Muted: s.muted}
}

func (s *Service) publishState(status entities.SessionStatus) {
	s.deps.Publisher.Publish(events.New(events.TypeSessionState, map[string]any{
		"state":          string(status.State),
		"session_id":     status.SessionID,
		"muted":          status.Muted,
		"dropped_frames": status.DroppedFrames,
	}))
}
