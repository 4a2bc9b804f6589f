package ws

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendQueueSize  = 64
)

// Client is one connected socket. Outbound messages go through a bounded
// queue so a slow or dead socket never blocks room processing; when the
// queue fills, the message is dropped and the connection closed.
type Client struct {
	id      string
	conn    *websocket.Conn
	send    chan any
	limiter *rate.Limiter
	log     zerolog.Logger

	// Set on CREATE_ROOM/JOIN_ROOM; the gateway's binding of transport
	// connection to player identity.
	playerID   string
	playerName string
	roomID     string
}

func newClient(id string, conn *websocket.Conn, log zerolog.Logger) *Client {
	return &Client{
		id:      id,
		conn:    conn,
		send:    make(chan any, sendQueueSize),
		limiter: rate.NewLimiter(rate.Limit(20), 40),
		log:     log.With().Str("conn", id).Logger(),
	}
}

// enqueue queues a message for delivery, reporting whether the client queue
// had room. Fire-and-forget: callers never block on a peer.
func (c *Client) enqueue(msg any) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) readPump(g *Gateway) {
	defer func() {
		g.disconnect(c)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn().Err(err).Msg("read error")
			}
			return
		}
		if !c.limiter.Allow() {
			c.enqueue(errorMsg{Type: TypeError, Kind: KindRateLimited, Message: "too many messages"})
			continue
		}
		g.handleMessage(c, raw)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				c.log.Warn().Err(err).Msg("write error")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
