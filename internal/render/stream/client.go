package stream

import (
	"context"
	"encoding/json"
	"time"

	"github.com/coder/websocket"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	maxMsgSize = 64 * 1024
)

// Client is one websocket viewer of a session.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	SessionID string
	ClientID  string
}

func NewClient(hub *Hub, conn *websocket.Conn, sessionID, clientID string) *Client {
	return &Client{
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, 64),
		SessionID: sessionID,
		ClientID:  clientID,
	}
}

func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	c.conn.SetReadLimit(maxMsgSize)

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure ||
				websocket.CloseStatus(err) == websocket.StatusGoingAway {
				return
			}
			c.hub.logger.Debug("read error", "error", err, "client", c.ClientID)
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.hub.logger.Warn("invalid message", "error", err, "client", c.ClientID)
			continue
		}

		msg.ClientID = c.ClientID
		msg.SessionID = c.SessionID

		c.hub.handleMessage(c, &msg)
	}
}

func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				return
			}

			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Write(writeCtx, websocket.MessageText, message)
			cancel()
			if err != nil {
				c.hub.logger.Debug("write error", "error", err, "client", c.ClientID)
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

// Send queues msg. Slow viewers drop messages rather than stall rendering.
func (c *Client) Send(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.hub.logger.Error("marshal message", "error", err)
		return
	}
	c.sendRaw(data)
}

func (c *Client) sendRaw(data []byte) {
	select {
	case c.send <- data:
	default:
		c.hub.logger.Warn("client send buffer full, dropping message", "client", c.ClientID)
	}
}
