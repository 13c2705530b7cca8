// Package main provides WebSocket server for real-time queue events (desktop only).
package main

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Only allow connections from localhost
		return r.Host == "localhost" || r.Host == "localhost:8090"
	},
}

// WSClient represents a WebSocket client connection.
type WSClient struct {
	id            string
	conn          *websocket.Conn
	send          chan []byte
	hub           *WSHub
	subMu         sync.RWMutex
	subscriptions map[string]bool
}

// wsMessage is a marshaled envelope tagged with its event type so the
// hub can honor per-client subscriptions.
type wsMessage struct {
	eventType string
	payload   []byte
}

// WSHub maintains active client connections and broadcasts messages.
type WSHub struct {
	clients    map[string]*WSClient
	broadcast  chan wsMessage
	register   chan *WSClient
	unregister chan *WSClient
	mu         sync.RWMutex
}

// WSEnvelope wraps all WebSocket messages.
type WSEnvelope struct {
	Type      string                 `json:"type"`
	Data      map[string]interface{} `json:"data"`
	Timestamp int64                  `json:"timestamp"`
}

// =====================================================
// WebSocket Event Types
// =====================================================

const (
	// Queue events
	EventQueueUpdated = "queue.updated"

	// Sync events
	EventSyncStarted   = "sync.started"
	EventSyncProgress  = "sync.progress"
	EventSyncCompleted = "sync.completed"
	EventSyncFailed    = "sync.failed"
	EventActionFailed  = "action.failed"

	// Connectivity events
	EventConnectivityChanged = "connectivity.changed"
)

// NewWSHub creates a new WebSocket hub.
func NewWSHub() *WSHub {
	hub := &WSHub{
		clients:    make(map[string]*WSClient),
		broadcast:  make(chan wsMessage, 256),
		register:   make(chan *WSClient),
		unregister: make(chan *WSClient),
	}
	go hub.run()
	return hub
}

// run manages client connections and broadcasts.
func (h *WSHub) run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.id] = client
			h.mu.Unlock()
			log.Printf("[WS] Client connected: %s (total: %d)", client.id, len(h.clients))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.id]; ok {
				delete(h.clients, client.id)
				close(client.send)
			}
			h.mu.Unlock()
			log.Printf("[WS] Client disconnected: %s (total: %d)", client.id, len(h.clients))

		case message := <-h.broadcast:
			h.mu.Lock()
			for _, client := range h.clients {
				if !client.wants(message.eventType) {
					continue
				}
				select {
				case client.send <- message.payload:
				default:
					// Client send buffer is full, close connection
					close(client.send)
					delete(h.clients, client.id)
				}
			}
			h.mu.Unlock()
		}
	}
}

// wants reports whether the client should receive the event. A client
// with no explicit subscriptions receives everything.
func (c *WSClient) wants(eventType string) bool {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	if len(c.subscriptions) == 0 {
		return true
	}
	return c.subscriptions[eventType]
}

// Broadcast sends an enveloped message to all connected clients.
func (h *WSHub) Broadcast(messageType string, data map[string]interface{}) {
	envelope := WSEnvelope{
		Type:      messageType,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		log.Printf("[WS] Failed to marshal message: %v", err)
		return
	}

	h.broadcast <- wsMessage{eventType: messageType, payload: bytes}
}

// BroadcastQueueUpdated notifies clients that the pending queue changed.
func (h *WSHub) BroadcastQueueUpdated(pendingCount int) {
	h.Broadcast(EventQueueUpdated, map[string]interface{}{
		"pending_count": pendingCount,
	})
}

// BroadcastSyncStarted notifies clients that a sync drive has started.
func (h *WSHub) BroadcastSyncStarted(pendingCount int) {
	h.Broadcast(EventSyncStarted, map[string]interface{}{
		"pending_count": pendingCount,
	})
}

// BroadcastSyncProgress notifies clients of per-action sync progress.
func (h *WSHub) BroadcastSyncProgress(actionID string, processed int) {
	h.Broadcast(EventSyncProgress, map[string]interface{}{
		"action_id": actionID,
		"processed": processed,
	})
}

// BroadcastSyncCompleted notifies clients that a sync drive finished.
func (h *WSHub) BroadcastSyncCompleted(processedCount int) {
	h.Broadcast(EventSyncCompleted, map[string]interface{}{
		"processed_count": processedCount,
	})
}

// BroadcastSyncFailed notifies clients that a sync drive could not run.
func (h *WSHub) BroadcastSyncFailed(errorMsg string) {
	h.Broadcast(EventSyncFailed, map[string]interface{}{
		"error": errorMsg,
	})
}

// BroadcastActionFailed notifies clients that one action failed terminally.
func (h *WSHub) BroadcastActionFailed(actionID string, errorMsg string) {
	h.Broadcast(EventActionFailed, map[string]interface{}{
		"action_id": actionID,
		"error":     errorMsg,
	})
}

// BroadcastConnectivityChanged notifies clients of an online/offline flip.
func (h *WSHub) BroadcastConnectivityChanged(online bool) {
	h.Broadcast(EventConnectivityChanged, map[string]interface{}{
		"online": online,
	})
}

// readPump pumps messages from the WebSocket connection.
func (c *WSClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[WS] Read error: %v", err)
			}
			break
		}

		// Handle client messages
		var msg map[string]interface{}
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("[WS] Invalid message format: %v", err)
			continue
		}

		action, ok := msg["action"].(string)
		if !ok {
			continue
		}

		switch action {
		case "subscribe":
			if events, ok := msg["events"].([]interface{}); ok {
				c.subMu.Lock()
				for _, e := range events {
					if eventStr, ok := e.(string); ok {
						c.subscriptions[eventStr] = true
					}
				}
				c.subMu.Unlock()
				// Send acknowledgment
				c.sendAck("subscribe_ack", events)
			}

		case "unsubscribe":
			if events, ok := msg["events"].([]interface{}); ok {
				c.subMu.Lock()
				for _, e := range events {
					if eventStr, ok := e.(string); ok {
						delete(c.subscriptions, eventStr)
					}
				}
				c.subMu.Unlock()
			}

		case "ping":
			// Respond with pong
			c.sendPong()
		}
	}
}

// writePump pumps messages to the WebSocket connection.
func (c *WSClient) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// sendAck sends a subscription acknowledgment.
func (c *WSClient) sendAck(action string, events []interface{}) {
	envelope := map[string]interface{}{
		"action":     action,
		"subscribed": events,
		"timestamp":  time.Now().Unix(),
	}

	bytes, _ := json.Marshal(envelope)
	c.send <- bytes
}

// sendPong sends a pong response.
func (c *WSClient) sendPong() {
	envelope := map[string]interface{}{
		"action":    "pong",
		"timestamp": time.Now().Unix(),
	}

	bytes, _ := json.Marshal(envelope)
	c.send <- bytes
}

// HandleWebSocket handles WebSocket connections.
func HandleWebSocket(hub *WSHub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Upgrade to WebSocket
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("[WS] Failed to upgrade: %v", err)
			return
		}

		// Generate client ID
		clientID := time.Now().Format("20060102150405") + "-" + r.RemoteAddr

		client := &WSClient{
			id:            clientID,
			conn:          conn,
			send:          make(chan []byte, 256),
			hub:           hub,
			subscriptions: make(map[string]bool),
		}

		hub.register <- client

		// Start pumps
		go client.writePump()
		go client.readPump()
	}
}
