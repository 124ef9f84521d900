package websocket

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/iris/domain/entities"
	"github.com/satriahrh/iris/internal/events"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 2 * 1024 * 1024 // video frames

	sendBufferSize      = 256
	broadcastBufferSize = 256
)

var upgrader = websocket.Upgrader{
	// The control server binds to loopback; tokens gate access.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Controller is the part of the live service the UI may drive
type Controller interface {
	SetMute(muted bool) entities.SessionStatus
	SendVideoFrame(frame string) error
	Status() entities.SessionStatus
}

// Hub maintains the set of connected UI clients and broadcasts events to them.
type Hub struct {
	// Registered clients.
	clients map[string]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Events to fan out to every client.
	broadcast chan []byte

	// Mutex for thread-safe access to clients map
	mu sync.RWMutex

	controller Controller
	stopChan   chan struct{}
	stopOnce   sync.Once

	logger *zap.Logger
}

var _ events.Publisher = (*Hub)(nil)

// NewHub creates a new WebSocket hub
func NewHub(controller Controller, logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, broadcastBufferSize),
		controller: controller,
		stopChan:   make(chan struct{}),
		logger:     logger,
	}
}

// SetController attaches the live service after construction
func (h *Hub) SetController(controller Controller) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.controller = controller
}

func (h *Hub) getController() Controller {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.controller
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case <-h.stopChan:
			h.mu.Lock()
			for id, client := range h.clients {
				delete(h.clients, id)
				close(client.send)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.id] = client
			h.mu.Unlock()
			h.logger.Info("Client registered", zap.String("connID", client.id), zap.String("clientID", client.clientID))

		case client := <-h.unregister:
			h.mu.Lock()
			if existing, ok := h.clients[client.id]; ok && existing == client {
				delete(h.clients, client.id)
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Info("Client unregistered", zap.String("connID", client.id), zap.String("clientID", client.clientID))

		case message := <-h.broadcast:
			h.mu.Lock()
			for id, client := range h.clients {
				select {
				case client.send <- WriteData{Type: websocket.TextMessage, Payload: message}:
				default:
					// Slow consumer.
					delete(h.clients, id)
					close(client.send)
					h.logger.Warn("Dropping slow client", zap.String("connID", id), zap.String("clientID", client.clientID))
				}
			}
			h.mu.Unlock()
		}
	}
}

// Stop ends Run and closes every client
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stopChan) })
}

// Publish fans an event out to every client. It never blocks.
func (h *Hub) Publish(event events.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Failed to marshal event", zap.String("type", string(event.Type)), zap.Error(err))
		return
	}
	select {
	case h.broadcast <- payload:
	default:
		h.logger.Debug("Broadcast queue full, dropping event", zap.String("type", string(event.Type)))
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

type WriteData struct {
	// MessageType is the type of the websocket message.
	// Expect websocket.TextMessage or websocket.BinaryMessage
	Type    int
	Payload []byte
}

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan WriteData

	// Per-connection key in the hub
	id string

	// Client ID from the control token, shared by every socket opened with it
	clientID string

	logger *zap.Logger
}

// HandleWebSocketWithAuth handles websocket requests with a pre-authenticated client ID
func HandleWebSocketWithAuth(hub *Hub, c echo.Context, clientID string, logger *zap.Logger) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}

	client := &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan WriteData, sendBufferSize),
		id:       uuid.New().String(),
		clientID: clientID,
	}
	client.logger = logger.With(zap.String("connID", client.id), zap.String("clientID", clientID))

	client.hub.register <- client

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.writePump()
	go client.readPump()

	if controller := hub.getController(); controller != nil {
		client.reply(sessionStateEvent(controller.Status()))
	}
	return nil
}

// readPump pumps commands from the websocket connection to the controller.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", zap.Error(err))
			}
			break
		}

		switch messageType {
		case websocket.TextMessage:
			c.processMessage(message)
		case websocket.BinaryMessage:
			// Raw JPEG frames from a camera or screen share.
			c.forwardVideo(base64.StdEncoding.EncodeToString(message))
		default:
			c.logger.Warn("Received unknown message type", zap.Int("type", messageType))
		}
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(message.Type, message.Payload); err != nil {
				c.logger.Error("Failed to write message", zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// processMessage processes a JSON command from the UI
func (c *Client) processMessage(message []byte) {
	cmd, err := ParseCommand(message)
	if err != nil {
		c.logger.Warn("Rejected client command", zap.Error(err))
		c.reply(CreateErrorEvent("invalid_command", err.Error()))
		return
	}

	controller := c.hub.getController()
	switch cmd.Type {
	case CommandPing:
		c.reply(CreatePongEvent(cmd.Data))
	case CommandStatus:
		if controller == nil {
			c.reply(CreateErrorEvent("unavailable", "live service not ready"))
			return
		}
		c.reply(sessionStateEvent(controller.Status()))
	case CommandMute:
		if controller == nil {
			c.reply(CreateErrorEvent("unavailable", "live service not ready"))
			return
		}
		// The controller broadcasts the new state to every client.
		controller.SetMute(*cmd.Muted)
	case CommandVideoFrame:
		c.forwardVideo(cmd.Data)
	}
}

func (c *Client) forwardVideo(frame string) {
	controller := c.hub.getController()
	if controller == nil {
		return
	}
	if err := controller.SendVideoFrame(frame); err != nil {
		c.logger.Debug("Video frame not forwarded", zap.Error(err))
	}
}

// reply sends an event to this client only
func (c *Client) reply(event events.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		c.logger.Error("Failed to marshal reply", zap.Error(err))
		return
	}
	defer func() {
		// send may already be closed by the hub
		_ = recover()
	}()
	select {
	case c.send <- WriteData{Type: websocket.TextMessage, Payload: payload}:
	default:
		c.logger.Warn("Client send buffer full, dropping reply")
	}
}

func sessionStateEvent(status entities.SessionStatus) events.Event {
	return events.New(events.TypeSessionState, map[string]any{
		"state":          string(status.State),
		"session_id":     status.SessionID,
		"muted":          status.Muted,
		"dropped_frames": status.DroppedFrames,
	})
}
