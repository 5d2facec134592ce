// Package transport terminates the client-facing WebSocket connections.
// It subscribes each connection to the hub, drains the subscriber queue
// onto the socket, and answers keep-alive pings locally so they never
// reach the hub.
package transport

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"voice-transcript-hub/internal/hub"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Dashboard clients connect from any origin
	},
}

// controlFrame is the only inbound message shape clients send.
type controlFrame struct {
	Type string `json:"type"`
}

// pongFrame acknowledges a client ping.
type pongFrame struct {
	Type string `json:"type"`
}

// Handler returns the HTTP handler for the transcript WebSocket
// endpoint. Each accepted connection gets its own hub subscription and
// writer goroutine; a failure on either side unsubscribes and closes the
// connection without affecting other clients.
func Handler(h *hub.Hub) http.HandlerFunc {
	logger := log.With().Str("component", "transport").Logger()

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn().Err(err).Msg("WebSocket upgrade failed")
			return
		}

		sub := h.Subscribe()
		pong := make(chan struct{}, 1)

		// Writer: the only goroutine allowed to write to the socket.
		go func() {
			defer conn.Close()
			for {
				select {
				case msg, ok := <-sub.Messages():
					if !ok {
						return
					}
					if err := conn.WriteJSON(msg); err != nil {
						logger.Warn().Err(err).Msg("Write failed, dropping subscriber")
						h.Unsubscribe(sub)
						return
					}
				case <-pong:
					if err := conn.WriteJSON(pongFrame{Type: "pong"}); err != nil {
						h.Unsubscribe(sub)
						return
					}
				}
			}
		}()

		// Reader: consumes keep-alives until the client disconnects.
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				break
			}
			var frame controlFrame
			if err := json.Unmarshal(data, &frame); err != nil {
				continue // Ignore invalid JSON from clients
			}
			if frame.Type == "ping" {
				select {
				case pong <- struct{}{}:
				default:
				}
			}
		}

		h.Unsubscribe(sub)
		conn.Close()
	}
}
