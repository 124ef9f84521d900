package websocket

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/iris/internal/events"
)

// DefaultHeartbeatInterval is how often session status is re-broadcast.
const DefaultHeartbeatInterval = 30 * time.Second

// StatusHeartbeat periodically publishes the session status so clients see
// uptime and dropped-frame counters move without polling.
type StatusHeartbeat struct {
	controller Controller
	publisher  events.Publisher
	interval   time.Duration
	logger     *zap.Logger
	stopChan   chan struct{}
	stopOnce   sync.Once
}

// NewStatusHeartbeat creates a new status heartbeat
func NewStatusHeartbeat(controller Controller, publisher events.Publisher, interval time.Duration, logger *zap.Logger) *StatusHeartbeat {
	if interval <= 0 {
		interval = DefaultHeartbeatInterval
	}
	return &StatusHeartbeat{
		controller: controller,
		publisher:  publisher,
		interval:   interval,
		logger:     logger,
		stopChan:   make(chan struct{}),
	}
}

// Start begins the background loop
func (s *StatusHeartbeat) Start() {
	go s.loop()
	s.logger.Info("Status heartbeat started", zap.Duration("interval", s.interval))
}

// Stop gracefully stops the heartbeat
func (s *StatusHeartbeat) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
		s.logger.Info("Status heartbeat stopped")
	})
}

func (s *StatusHeartbeat) loop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.publisher.Publish(sessionStateEvent(s.controller.Status()))
		}
	}
}
