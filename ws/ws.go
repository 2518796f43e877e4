// Package ws streams session snapshots to connected widgets over a
// websocket, one JSON message per state transition.
package ws

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/uploadkit/upload-gateway/http/controller/dto"
	"github.com/uploadkit/upload-gateway/session"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// sendBuffer bounds how many snapshots a slow client may lag behind.
	// Overflow drops the oldest queued frames; the newest snapshot is always
	// kept so the client converges on the latest state.
	sendBuffer = 16
)

type client struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

// Serve pushes the session's current snapshot and every later transition to
// conn until the session closes or the peer disconnects. It blocks until the
// connection is torn down.
func Serve(conn *websocket.Conn, sess *session.Session) {
	c := &client{
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}

	c.enqueue(sess.Snapshot())
	unsubscribe := sess.Subscribe(c.enqueue)
	defer unsubscribe()

	go c.readPump()
	c.writePump()
}

// enqueue marshals the snapshot into its wire form and queues it without
// blocking the session's notification path. When the buffer is full the
// oldest queued frame is discarded, never the new one: a terminal snapshot
// must reach even the slowest client.
func (c *client) enqueue(snap session.Snapshot) {
	payload, err := json.Marshal(dto.SessionResponseFromSnapshot(snap))
	if err != nil {
		return
	}
	for {
		select {
		case c.send <- payload:
			return
		case <-c.done:
			return
		default:
		}
		select {
		case <-c.send:
		default:
		}
	}
}

// readPump drains incoming frames so close and pong control messages are
// processed, and signals the writer when the peer goes away.
func (c *client) readPump() {
	defer close(c.done)

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
