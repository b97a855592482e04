package realtime

import (
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	// Viewers only receive; inbound frames beyond pong control messages
	// are limited to a token size.
	maxMessageSize = 512
)

// Viewer is one live push-capable connection belonging to a user.
type Viewer struct {
	ownerID uuid.UUID
	conn    *websocket.Conn
	send    chan []byte
}

// NewViewer wraps an upgraded WebSocket connection for ownerID.
func NewViewer(ownerID uuid.UUID, conn *websocket.Conn) *Viewer {
	return &Viewer{
		ownerID: ownerID,
		conn:    conn,
		send:    make(chan []byte, sendBufferSize),
	}
}

// trySend enqueues data without blocking; on a full buffer the event is
// dropped and logged, never stalling the publisher. A publish can race an
// unsubscribe that has already closed the send channel, so the send panic
// is absorbed here rather than failing the operation that published.
func (v *Viewer) trySend(data []byte) {
	defer func() {
		recover()
	}()

	select {
	case v.send <- data:
	default:
		log.Printf("Dropping event for slow viewer of user %s", v.ownerID)
	}
}

// WritePump drains the send buffer to the connection and keeps the
// connection alive with pings. Runs as its own goroutine per viewer.
func (v *Viewer) WritePump(hub *Hub) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		v.conn.Close()
	}()

	for {
		select {
		case data, ok := <-v.send:
			v.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel.
				v.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := v.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			v.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := v.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadPump consumes (and discards) inbound frames so pongs and close
// frames are processed, unsubscribing on disconnect.
func (v *Viewer) ReadPump(hub *Hub) {
	defer func() {
		hub.Unsubscribe(v)
		v.conn.Close()
	}()

	v.conn.SetReadLimit(maxMessageSize)
	v.conn.SetReadDeadline(time.Now().Add(pongWait))
	v.conn.SetPongHandler(func(string) error {
		return v.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := v.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("Viewer read error for user %s: %v", v.ownerID, err)
			}
			return
		}
	}
}
