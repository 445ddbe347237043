package http

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/krishisahayak/krishi/internal/adapters/nats"
	"github.com/krishisahayak/krishi/internal/pkg/metrics"
)

// wsMessage is sent from client to follow or stop following a capture.
type wsMessage struct {
	Action  string `json:"action"`  // "subscribe" | "unsubscribe"
	Capture string `json:"capture"` // capture session id
}

// WebSocketHandler returns a handler that upgrades to WebSocket and relays
// the areas emitted by capture sessions to connected clients.
// Connect with /ws?capture=<id> to follow one capture immediately, or send
// {"action":"subscribe","capture":"<id>"} at any time.
func WebSocketHandler(nc *nats.Conn) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		remoteAddr := c.RemoteAddr().String()
		slog.Info("ws client connected", "remote", remoteAddr)

		var mu sync.Mutex
		subs := make(map[string]*nats.Subscription) // capture id -> subscription

		// Helper: thread-safe write
		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		subscribe := func(captureID string) error {
			s, err := nc.Subscribe(natsadapter.CaptureAreaSubject(captureID), func(msg *nats.Msg) {
				_ = writeJSON(json.RawMessage(msg.Data))
			})
			if err != nil {
				return err
			}
			subs[captureID] = s
			return nil
		}

		if id := c.Query("capture"); id != "" {
			if err := subscribe(id); err != nil {
				slog.Warn("ws subscribe failed", "capture_id", id, "error", err)
				return
			}
		}

		// Keep-alive ping
		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		// Read client messages for subscribe/unsubscribe
		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}
			if m.Capture == "" {
				_ = writeJSON(map[string]string{"error": "capture is required"})
				continue
			}

			switch m.Action {
			case "subscribe":
				if _, exists := subs[m.Capture]; exists {
					_ = writeJSON(map[string]string{"status": "already subscribed", "capture": m.Capture})
					continue
				}
				if err := subscribe(m.Capture); err != nil {
					_ = writeJSON(map[string]string{"error": "subscribe failed: " + err.Error()})
					continue
				}
				_ = writeJSON(map[string]string{"status": "subscribed", "capture": m.Capture})

			case "unsubscribe":
				if s, exists := subs[m.Capture]; exists {
					_ = s.Unsubscribe()
					delete(subs, m.Capture)
					_ = writeJSON(map[string]string{"status": "unsubscribed", "capture": m.Capture})
				} else {
					_ = writeJSON(map[string]string{"error": "not subscribed to " + m.Capture})
				}

			default:
				_ = writeJSON(map[string]string{"error": "unknown action: " + m.Action})
			}
		}

		// Cleanup
		close(done)
		for _, s := range subs {
			_ = s.Unsubscribe()
		}
		slog.Info("ws client disconnected", "remote", remoteAddr)
	}
}
