package events

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 16
)

// Client is one websocket subscriber bound to a tournament room. Incoming
// messages are ignored; the stream is one-way.
type Client struct {
	hub          *Hub
	conn         *websocket.Conn
	tournamentID int

	send     chan []byte
	closeMu  sync.Mutex
	isClosed bool
}

func NewClient(hub *Hub, conn *websocket.Conn, tournamentID int) *Client {
	return &Client{
		hub:          hub,
		conn:         conn,
		tournamentID: tournamentID,
		send:         make(chan []byte, sendBuffer),
	}
}

// Subscribe registers the client and starts its pumps.
func (c *Client) Subscribe() {
	c.hub.register <- c
	go c.writePump()
	go c.readPump()
}

func (c *Client) closeSend() {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	if !c.isClosed {
		close(c.send)
		c.isClosed = true
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug("websocket closed unexpectedly",
					slog.Int("tournament_id", c.tournamentID), slog.Any("error", err))
			}
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
