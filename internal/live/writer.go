package live

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 16 * 1024 * 1024

	// DefaultQueueSize bounds the media queue.
	DefaultQueueSize = 64

	priorityQueueSize = 32
	shutdownFlush     = 100 * time.Millisecond
)

type wsWriter interface {
	SetWriteDeadline(t time.Time) error
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	Close() error
}

// outbound holds the two send queues of a session. Priority frames (tool
// responses, context notices) are never dropped; media frames (audio, video)
// are dropped oldest-first when the queue is full.
type outbound struct {
	priority chan []byte
	media    chan []byte
	dropped  atomic.Uint64
}

func newOutbound(mediaSize int) *outbound {
	if mediaSize <= 0 {
		mediaSize = DefaultQueueSize
	}
	return &outbound{
		priority: make(chan []byte, priorityQueueSize),
		media:    make(chan []byte, mediaSize),
	}
}

// pushPriority blocks until the frame is queued or ctx ends.
func (o *outbound) pushPriority(ctx context.Context, frame []byte) error {
	select {
	case o.priority <- frame:
		return nil
	case <-ctx.Done():
		return ErrSessionClosed
	}
}

// pushMedia never blocks. It reports false when a frame had to be dropped.
func (o *outbound) pushMedia(frame []byte) bool {
	select {
	case o.media <- frame:
		return true
	default:
	}

	select {
	case <-o.media:
		o.dropped.Add(1)
	default:
	}

	select {
	case o.media <- frame:
	default:
		o.dropped.Add(1)
	}
	return false
}

func (o *outbound) Dropped() uint64 {
	return o.dropped.Load()
}

// writePump is the only goroutine that writes to the connection.
type writePump struct {
	ws    wsWriter
	ctx   context.Context
	queue *outbound
}

func (w *writePump) run() error {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			w.shutdown()
			return nil
		default:
		}

		select {
		case frame := <-w.queue.priority:
			if err := w.write(frame); err != nil {
				return err
			}
			continue
		default:
		}

		select {
		case <-w.ctx.Done():
			w.shutdown()
			return nil
		case <-ticker.C:
			if err := w.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return err
			}
		case frame := <-w.queue.priority:
			if err := w.write(frame); err != nil {
				return err
			}
		case frame := <-w.queue.media:
			if err := w.write(frame); err != nil {
				return err
			}
		}
	}
}

// shutdown drains what priority frames it can, then closes the socket.
func (w *writePump) shutdown() {
	deadline := time.Now().Add(shutdownFlush)
	for time.Now().Before(deadline) {
		select {
		case frame := <-w.queue.priority:
			if err := w.write(frame); err != nil {
				deadline = time.Now()
			}
			continue
		default:
		}
		break
	}
	_ = w.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
	_ = w.ws.Close()
}

func (w *writePump) write(frame []byte) error {
	if err := w.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return w.ws.WriteMessage(websocket.TextMessage, frame)
}
