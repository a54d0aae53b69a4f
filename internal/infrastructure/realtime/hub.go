// Package realtime pushes newly appended messages to connected clients of a
// match over websockets. Broadcasts run through a single hub goroutine, so
// delivery order within a match follows creation order.
package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/soulpin/soulpin-backend/internal/domain"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type broadcastMsg struct {
	matchID string
	data    []byte
}

type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	matchID string
	userID  string
	send    chan []byte
}

type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan broadcastMsg
	logger     *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan broadcastMsg, sendBuffer),
		logger:     logger,
	}
}

// Run owns the room maps; it exits when ctx is canceled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.mu.Lock()
			room := h.rooms[client.matchID]
			if room == nil {
				room = make(map[*Client]bool)
				h.rooms[client.matchID] = room
			}
			room[client] = true
			h.mu.Unlock()
			h.logger.Info("websocket client registered", "match_id", client.matchID, "user_id", client.userID)

		case client := <-h.unregister:
			h.mu.Lock()
			if room, ok := h.rooms[client.matchID]; ok {
				if _, ok := room[client]; ok {
					delete(room, client)
					close(client.send)
					if len(room) == 0 {
						delete(h.rooms, client.matchID)
					}
				}
			}
			h.mu.Unlock()
			h.logger.Info("websocket client unregistered", "match_id", client.matchID, "user_id", client.userID)

		case msg := <-h.broadcast:
			h.mu.RLock()
			for client := range h.rooms[msg.matchID] {
				select {
				case client.send <- msg.data:
				default:
					// Slow consumer: drop the connection, not the ordering.
					close(client.send)
					delete(h.rooms[msg.matchID], client)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// NotifyNewMessage fans a new message out to the match's room.
func (h *Hub) NotifyNewMessage(matchID string, message *domain.Message) {
	data, err := json.Marshal(event{Type: "new_message", Payload: message})
	if err != nil {
		h.logger.Error("marshal websocket event", "error", err)
		return
	}
	h.broadcast <- broadcastMsg{matchID: matchID, data: data}
}

// ServeWS upgrades the request and attaches the client to its match room.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, matchID, userID string) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	client := &Client{
		hub:     h,
		conn:    conn,
		matchID: matchID,
		userID:  userID,
		send:    make(chan []byte, sendBuffer),
	}
	h.register <- client

	go client.writePump()
	go client.readPump()
	return nil
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		// Inbound frames are ignored; sends go through the HTTP API so the
		// message count stays authoritative.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
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
