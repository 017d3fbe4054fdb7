package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/aetherweave/aether-server-go/internal/game/rules"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 * 1024
	sendBuffer     = 256
)

// Client is one websocket connection, attached to at most one game.
type Client struct {
	id   string
	conn *websocket.Conn

	mu     sync.Mutex
	send   chan []byte
	closed bool
	gameID string
	seat   rules.AgentID
}

func newClient(conn *websocket.Conn) *Client {
	return &Client{
		id:   uuid.New().String(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
}

func (c *Client) game() (string, rules.AgentID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gameID, c.seat
}

// join attaches the client to a game. An empty seat makes it a spectator.
func (c *Client) join(gameID string, seat rules.AgentID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gameID = gameID
	c.seat = seat
}

func (c *Client) enqueue(msg []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) readPump(hub *Hub) {
	defer func() {
		select {
		case hub.unregister <- c:
		case <-hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				hub.logger.Debug("websocket read error", zap.String("client_id", c.id), zap.Error(err))
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			hub.reply(c, errorMessage("", errProtocol("malformed message: "+err.Error())))
			continue
		}
		hub.handleMessage(c, msg)
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
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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

// Upgrader builds the websocket upgrader. With no allowed origins every
// origin is accepted.
func Upgrader(allowedOrigins []string) websocket.Upgrader {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowed) == 0 {
				return true
			}
			return allowed[r.Header.Get("Origin")]
		},
	}
}

// ServeWS upgrades the request and starts the client pumps.
func (h *Hub) ServeWS(upgrader websocket.Upgrader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		client := newClient(conn)
		select {
		case h.register <- client:
		case <-h.done:
			conn.Close()
			return
		}

		go client.writePump()
		go client.readPump(h)
	}
}
