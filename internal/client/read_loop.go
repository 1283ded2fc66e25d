package client

import (
	"encoding/json"

	"github.com/gorilla/websocket"

	"slidesync/internal/app/project"
	"slidesync/internal/app/wire"
)

// readLoop is the sole reader of conn. It updates the local cache, then
// re-dispatches each server event to subscribers under the wire event name.
// It exits when the connection drops, emitting connection_lost; there is no
// automatic reconnect, the owning application decides whether to rejoin.
func (m *Manager) readLoop(conn *websocket.Conn) {
	defer func() {
		conn.Close()

		m.mu.Lock()
		if m.conn == conn {
			m.conn = nil
		}
		m.mu.Unlock()

		m.emit(EventConnectionLost, nil)
	}()

	for {
		_, messageBytes, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				m.logger.Debug().Err(err).Msg("Connection closed unexpectedly")
			}
			return
		}

		var env wire.Envelope
		if err := json.Unmarshal(messageBytes, &env); err != nil {
			m.logger.Warn().Err(err).Msg("Discarding malformed server frame")
			continue
		}

		m.dispatch(env)
	}
}

func (m *Manager) dispatch(env wire.Envelope) {
	switch env.Type {
	case wire.EventProjectState:
		var payload wire.ProjectStatePayload
		if !m.decode(env, &payload) {
			return
		}

		m.mu.Lock()
		m.users = make(map[string]project.User, len(payload.Users))
		m.activeUsers = make(map[string]struct{}, len(payload.Users))
		for _, u := range payload.Users {
			m.users[u.ID] = u
			m.activeUsers[u.ID] = struct{}{}
		}
		m.mu.Unlock()

		m.emit(string(wire.EventProjectState), payload)

	case wire.EventUserJoined:
		var payload wire.UserJoinedPayload
		if !m.decode(env, &payload) {
			return
		}

		m.mu.Lock()
		m.users[payload.User.ID] = payload.User
		m.activeUsers[payload.User.ID] = struct{}{}
		m.mu.Unlock()

		m.emit(string(wire.EventUserJoined), payload)

	case wire.EventUserLeft:
		var payload wire.UserLeftPayload
		if !m.decode(env, &payload) {
			return
		}

		m.mu.Lock()
		delete(m.users, payload.UserID)
		delete(m.activeUsers, payload.UserID)
		m.mu.Unlock()

		m.emit(string(wire.EventUserLeft), payload)

	case wire.EventUserCursorUpdate:
		var payload wire.UserCursorUpdatePayload
		if !m.decode(env, &payload) {
			return
		}

		// Cursor updates for unknown users are dropped rather than
		// fabricating a user entry.
		m.mu.Lock()
		u, known := m.users[payload.UserID]
		if known {
			cursor := payload.Cursor
			u.Cursor = &cursor
			m.users[payload.UserID] = u
		}
		m.mu.Unlock()

		if known {
			m.emit(string(wire.EventUserCursorUpdate), payload)
		}

	case wire.EventUserPresenceUpdate:
		var payload wire.UserPresenceUpdatePayload
		if !m.decode(env, &payload) {
			return
		}

		m.mu.Lock()
		if u, ok := m.users[payload.UserID]; ok {
			u.ActiveSlide = payload.ActiveSlide
			m.users[payload.UserID] = u
		}
		m.mu.Unlock()

		m.emit(string(wire.EventUserPresenceUpdate), payload)

	case wire.EventSlideUpdated:
		var payload wire.SlideUpdatedPayload
		if !m.decode(env, &payload) {
			return
		}
		m.emit(string(wire.EventSlideUpdated), payload)

	case wire.EventBlockUpdated:
		var payload wire.BlockUpdatedPayload
		if !m.decode(env, &payload) {
			return
		}
		m.emit(string(wire.EventBlockUpdated), payload)

	case wire.EventConflictDetected:
		var payload wire.ConflictDetectedPayload
		if !m.decode(env, &payload) {
			return
		}

		m.mu.Lock()
		m.conflicts[payload.ResourceID] = payload
		m.mu.Unlock()

		m.emit(string(wire.EventConflictDetected), payload)

	case wire.EventCommentAdded:
		var payload wire.CommentAddedPayload
		if !m.decode(env, &payload) {
			return
		}
		m.emit(string(wire.EventCommentAdded), payload)

	case wire.EventConflictResolved:
		var payload wire.ConflictResolvedPayload
		if !m.decode(env, &payload) {
			return
		}

		m.mu.Lock()
		delete(m.conflicts, payload.ResourceID)
		m.mu.Unlock()

		m.emit(string(wire.EventConflictResolved), payload)

	default:
		m.logger.Debug().Str("type", string(env.Type)).Msg("Ignoring unknown server event")
	}
}

func (m *Manager) decode(env wire.Envelope, out any) bool {
	if err := json.Unmarshal(env.Payload, out); err != nil {
		m.logger.Warn().Err(err).Str("type", string(env.Type)).Msg("Discarding malformed payload")
		return false
	}
	return true
}
