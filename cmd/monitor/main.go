package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/satriahrh/iris/internal/api"
	"github.com/satriahrh/iris/internal/events"
)

// monitor exchanges the control secret for a token, optionally starts a live
// session and prints every event the server broadcasts until interrupted.
func main() {
	server := flag.String("server", "http://127.0.0.1:8765", "IRIS control server URL")
	secret := flag.String("secret", os.Getenv("IRIS_CONTROL_SECRET"), "control secret")
	connect := flag.Bool("connect", false, "start a live session before listening")
	flag.Parse()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	base, err := url.Parse(*server)
	if err != nil {
		logger.Fatal("Invalid server URL", zap.Error(err))
	}

	// Step 1: Get authentication token
	token, err := fetchToken(*server, *secret)
	if err != nil {
		logger.Fatal("Failed to authenticate", zap.Error(err))
	}
	logger.Info("Authenticated", zap.String("client_id", token.ClientID), zap.Time("expires_at", token.ExpiresAt))

	// Step 2: Optionally start the live session
	if *connect {
		if err := post(*server+"/api/v1/session/connect", token.Token); err != nil {
			logger.Fatal("Failed to connect live session", zap.Error(err))
		}
	}

	// Step 3: Connect to WebSocket with token
	wsURL := url.URL{Scheme: "ws", Host: base.Host, Path: "/ws"}
	if base.Scheme == "https" {
		wsURL.Scheme = "wss"
	}
	q := wsURL.Query()
	q.Set("token", token.Token)
	wsURL.RawQuery = q.Encode()

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL.String(), nil)
	if err != nil {
		if resp != nil {
			logger.Fatal("WebSocket connection failed", zap.Int("status", resp.StatusCode), zap.Error(err))
		}
		logger.Fatal("WebSocket connection failed", zap.Error(err))
	}
	defer conn.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				logger.Info("Connection closed", zap.Error(err))
				return
			}
			var event events.Event
			if err := json.Unmarshal(message, &event); err != nil {
				logger.Warn("Unreadable event", zap.ByteString("raw", message))
				continue
			}
			fmt.Println(formatEvent(event))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)

	select {
	case <-done:
	case <-quit:
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		select {
		case <-done:
		case <-time.After(time.Second):
		}
	}
}

func fetchToken(server, secret string) (*api.TokenResponse, error) {
	body, _ := json.Marshal(api.TokenRequest{Secret: secret, ClientID: "monitor"})
	resp, err := http.Post(server+"/api/v1/auth/token", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token request failed with status %d", resp.StatusCode)
	}
	var token api.TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	return &token, nil
}

func post(endpoint, token string) error {
	req, err := http.NewRequest(http.MethodPost, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		var e api.ErrorResponse
		json.NewDecoder(resp.Body).Decode(&e)
		return fmt.Errorf("status %d: %s %s", resp.StatusCode, e.Error, e.Message)
	}
	return nil
}

// formatEvent renders one event as a single terminal line
func formatEvent(event events.Event) string {
	ts := event.Timestamp.Format("15:04:05")
	switch event.Type {
	case events.TypeTranscript:
		return fmt.Sprintf("%s %-6v %v", ts, event.Data["role"], event.Data["text"])
	case events.TypeAudioLevel:
		level, _ := event.Data["level"].(float64)
		return fmt.Sprintf("%s level  %s", ts, strings.Repeat("#", int(level*40)))
	}
	data, _ := json.Marshal(event.Data)
	return fmt.Sprintf("%s %-14s %s", ts, event.Type, data)
}
