/*
Package collab contains the core logic for real-time project rooms, connection
lifecycle, and room-scoped event fanout.

This file defines the Client struct, representing an active WebSocket
connection. It manages the connection's read/write pumps, decodes inbound
envelopes at the boundary, and forwards room-scoped events to the room the
connection is bound to.
*/
package collab

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"slidesync/internal/app/wire"
	"slidesync/internal/pkg/logx"
	"slidesync/internal/pkg/metrics"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a frame sent by the client.
	// Slide snapshots travel wholesale, so this is roomier than a chat line.
	maxMessageSize = 131072

	// size of the per-connection outbound queue. A full queue drops frames;
	// fanout is fire-and-forget.
	sendChannelBuffer = 256

	// WsCloseCodeSessionReplaced is a custom WebSocket Close Code (4000-4999
	// range) signaling that the same user joined from another connection.
	WsCloseCodeSessionReplaced = 4001
)

// Client represents an active WebSocket connection. A connection starts
// unbound; a join_project frame binds it to exactly one room at a time, and
// the bound identity is what disconnect cleanup uses, so a dying connection
// never needs to resend identifiers.
type Client struct {
	hub *Hub

	// underlying WebSocket connection object.
	conn *websocket.Conn

	// room the connection is currently bound to. Touched only on the read
	// pump goroutine; the room loop reaches the client through frames, never
	// the other way around.
	room *Room

	// userID bound at join time, used for removal on disconnect.
	userID string

	// send queues outbound frames for the write pump.
	send chan []byte

	// kick hands a close frame to the write pump. All connection writes
	// happen on the write pump goroutine; writing from the room loop would
	// race it.
	kick chan []byte

	logger zerolog.Logger
}

// NewClient constructs a Client for a freshly upgraded connection.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	clientLogger := logx.Logger().With().
		Str("component", "Client").
		Str("remote_addr", conn.RemoteAddr().String()).
		Logger()

	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, sendChannelBuffer),
		kick:   make(chan []byte, 1),
		logger: clientLogger,
	}
}

// ReadPump reads frames from the WebSocket connection until it dies. It
// handles heartbeats (Pong) and performs cleanup upon connection closure.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading message (client close/going away)")
			}
			break
		}

		c.processInboundMessage(messageBytes)
	}
}

// cleanupOnDisconnect unbinds the connection from its room, producing the
// same peer-visible effect as an explicit leave, and closes the socket.
func (c *Client) cleanupOnDisconnect() {
	c.logger.Info().Str("user_id", c.userID).Msg("Client connection cleanup starting.")

	if c.room != nil {
		c.room.enqueueUnregister(c)
		c.room = nil
	}

	if err := c.conn.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("Client connection close error")
	}
}

// processInboundMessage decodes the envelope and routes it. Malformed JSON is
// dropped with a log line; a room-scoped event on an unbound connection is a
// silent no-op. Nothing a client sends can crash the process.
func (c *Client) processInboundMessage(messageBytes []byte) {
	var env wire.Envelope
	if err := json.Unmarshal(messageBytes, &env); err != nil {
		c.logger.Warn().Err(err).Msg("Client sent invalid JSON frame")
		return
	}

	switch env.Type {
	case wire.EventJoinProject:
		c.handleJoin(env.Payload)

	case wire.EventLeaveProject:
		c.handleLeave(env.Payload)

	case wire.EventSlideUpdate, wire.EventBlockUpdate, wire.EventCursorUpdate,
		wire.EventPresenceUpdate, wire.EventAddComment, wire.EventResolveConflict:
		if c.room == nil {
			c.logger.Debug().Str("event", string(env.Type)).Msg("Dropping room event from unbound connection")
			return
		}
		c.room.enqueueEvent(frame{client: c, eventType: env.Type, payload: env.Payload})

	default:
		c.logger.Warn().Str("event", string(env.Type)).Msg("Client sent unsupported event type")
	}
}

// handleJoin binds the connection to the requested project room. A
// connection already bound to a room leaves it first; one room at a time.
func (c *Client) handleJoin(payloadBytes json.RawMessage) {
	var payload wire.JoinProjectPayload
	if err := json.Unmarshal(payloadBytes, &payload); err != nil {
		c.logger.Warn().Err(err).Msg("Client sent invalid join_project payload")
		return
	}

	if c.room != nil {
		c.room.enqueueUnregister(c)
		c.room = nil
		c.userID = ""
	}

	room, userID := c.hub.Join(c, payload)
	if room == nil {
		return
	}

	c.room = room
	c.userID = userID
}

// handleLeave unbinds from the room; the connection stays open and may join
// again later. A frame naming a project or user other than the bound ones is
// dropped without feedback.
func (c *Client) handleLeave(payloadBytes json.RawMessage) {
	if c.room == nil {
		return
	}

	var payload wire.LeaveProjectPayload
	if err := json.Unmarshal(payloadBytes, &payload); err != nil {
		c.logger.Warn().Err(err).Msg("Client sent invalid leave_project payload")
		return
	}

	if !c.room.projectMatches(payload.ProjectID) || payload.UserID != c.userID {
		c.logger.Debug().
			Str("project_id", payload.ProjectID).
			Str("user_id", payload.UserID).
			Msg("Dropping leave_project for a project or user this connection is not bound to")
		return
	}

	c.room.enqueueUnregister(c)
	c.room = nil
	c.userID = ""
}

// WritePump writes queued frames to the WebSocket connection and keeps the
// heartbeat alive.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Client connection close error in WritePump")
		}
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !c.writeQueuedMessage(message, ok) {
				return
			}

		case closeMessage := <-c.kick:
			c.writeCloseMessage(closeMessage)
			return

		case <-ticker.C:
			if !c.writePingMessage() {
				return
			}
		}
	}
}

// writeQueuedMessage writes one queued frame. It returns false when the
// write pump should terminate.
func (c *Client) writeQueuedMessage(message []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if !ok {
		if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
			c.logger.Debug().Err(err).Msg("Error writing close message")
		}
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		c.logger.Debug().Err(err).Msg("Error writing message")
		return false
	}

	return true
}

// writePingMessage sends a periodic Ping to maintain the heartbeat.
func (c *Client) writePingMessage() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Debug().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}

// sendEvent marshals the payload into an envelope and queues it for this
// connection only.
func (c *Client) sendEvent(eventType wire.EventType, payload any) {
	env, err := wire.NewEnvelope(eventType, payload)
	if err != nil {
		c.logger.Error().Err(err).Str("event", string(eventType)).Msg("Failed to build envelope")
		return
	}

	messageBytes, err := env.Encode()
	if err != nil {
		c.logger.Error().Err(err).Str("event", string(eventType)).Msg("Failed to encode envelope")
		return
	}

	c.trySend(messageBytes)
}

// trySend queues the frame without blocking. A full or closed queue drops
// the frame; peers that cannot keep up simply miss it.
func (c *Client) trySend(messageBytes []byte) {
	select {
	case c.send <- messageBytes:
	default:
		metrics.DroppedSendsTotal.Inc()
		c.logger.Warn().Int("queue_len", len(c.send)).Msg("Client send channel full, dropping frame")
	}
}

// writeCloseMessage sends a close frame before the pump terminates and the
// deferred Close tears the connection down.
func (c *Client) writeCloseMessage(closeMessage []byte) {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on close")
		return
	}

	if err := c.conn.WriteMessage(websocket.CloseMessage, closeMessage); err != nil {
		c.logger.Debug().Err(err).Msg("Error writing close message")
	}
}

// Kick asks the write pump to close the connection with a custom Close Frame
// (4001) indicating the session was replaced by a newer connection for the
// same user. The frame is written by the write pump; the pump goroutine is
// the only writer on the connection.
func (c *Client) Kick(reason string) {
	c.logger.Warn().
		Int("close_code", WsCloseCodeSessionReplaced).
		Str("reason", reason).
		Msg("Kicking connection.")

	closeMessage := websocket.FormatCloseMessage(WsCloseCodeSessionReplaced, reason)

	select {
	case c.kick <- closeMessage:
	default:
	}
}
