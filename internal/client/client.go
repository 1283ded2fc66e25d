/*
Package client provides the sync facade that applications embed to take part
in a collaboration session.

A Manager owns exactly one WebSocket connection, mirrors an advisory local
cache of users, presence, and conflicts, and re-dispatches server events to
local subscribers so UI code never touches transport details. It is an
explicitly constructed, explicitly owned object: build one on app start, join
and leave as deliberate state transitions, and let it go on teardown.
*/
package client

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"slidesync/internal/app/project"
	"slidesync/internal/app/wire"
	"slidesync/internal/pkg/logx"
	"slidesync/internal/pkg/randx"
)

// Local lifecycle events, dispatched alongside the server event names.
const (
	EventConnectionEstablished = "connection_established"
	EventConnectionLost        = "connection_lost"
	EventConnectionError       = "connection_error"
)

const (
	// ServerURLEnv names the environment variable holding the server address.
	ServerURLEnv = "SLIDESYNC_SERVER_URL"

	defaultServerURL = "ws://localhost:8080"

	// cursorMinInterval is the client-enforced floor between cursor
	// broadcasts. The server does not throttle; the client must.
	cursorMinInterval = 100 * time.Millisecond

	writeWait = 10 * time.Second
)

// Subscription is the handle returned by On. Passing it to Off removes
// exactly that subscriber, leaving other subscribers to the same event
// untouched.
type Subscription struct {
	event string
	fn    func(data any)
}

// Manager is the client sync facade. All methods are safe for concurrent use.
type Manager struct {
	serverURL string

	mu          sync.Mutex
	conn        *websocket.Conn
	projectID   string
	currentUser *project.User

	// Advisory local cache. The server stays authoritative; in particular
	// the client never decides on its own that a conflict exists.
	users       map[string]project.User
	activeUsers map[string]struct{}
	conflicts   map[string]project.Conflict

	listeners map[string][]*Subscription

	lastCursorSent time.Time

	// writeMu serializes writes to the connection.
	writeMu sync.Mutex

	logger zerolog.Logger
}

// New constructs a Manager. An empty serverURL falls back to the
// SLIDESYNC_SERVER_URL environment variable, then to a localhost default.
func New(serverURL string) *Manager {
	if serverURL == "" {
		serverURL = os.Getenv(ServerURLEnv)
	}
	if serverURL == "" {
		serverURL = defaultServerURL
	}

	return &Manager{
		serverURL:   strings.TrimRight(serverURL, "/"),
		users:       make(map[string]project.User),
		activeUsers: make(map[string]struct{}),
		conflicts:   make(map[string]project.Conflict),
		listeners:   make(map[string][]*Subscription),
		logger:      logx.Logger().With().Str("component", "SyncClient").Logger(),
	}
}

// On registers a callback for the named event and returns its handle.
// Multiple subscribers per event are supported and called in registration
// order.
func (m *Manager) On(event string, fn func(data any)) *Subscription {
	sub := &Subscription{event: event, fn: fn}

	m.mu.Lock()
	m.listeners[event] = append(m.listeners[event], sub)
	m.mu.Unlock()

	return sub
}

// Off removes exactly the given subscription. Other callbacks registered for
// the same event stay in place.
func (m *Manager) Off(sub *Subscription) {
	if sub == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	subs := m.listeners[sub.event]
	for i, s := range subs {
		if s == sub {
			m.listeners[sub.event] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}

// emit dispatches to the current subscribers of the event. Callbacks run
// outside the state lock, on the caller's goroutine.
func (m *Manager) emit(event string, data any) {
	m.mu.Lock()
	subs := append([]*Subscription(nil), m.listeners[event]...)
	m.mu.Unlock()

	for _, sub := range subs {
		sub.fn(data)
	}
}

// JoinProject assigns the missing identity attributes, opens the transport
// connection, and announces the join. It returns once the join frame is on
// the wire; room membership and the project_state snapshot arrive
// asynchronously via subscribed events.
func (m *Manager) JoinProject(ctx context.Context, projectID string, user project.User) error {
	if projectID == "" {
		return fmt.Errorf("project id must not be empty")
	}

	m.mu.Lock()
	if m.conn != nil {
		m.mu.Unlock()
		return fmt.Errorf("already joined project %q; leave it first", m.projectID)
	}

	if user.ID == "" {
		user.ID = randx.UserID()
	}
	if user.Name == "" {
		user.Name = "Anonymous"
	}
	if user.Color == "" {
		user.Color = m.pickAvailableColorLocked()
	}
	m.mu.Unlock()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, m.serverURL+"/ws", nil)
	if err != nil {
		m.emit(EventConnectionError, err)
		return fmt.Errorf("failed to connect to collaboration server: %w", err)
	}

	// Re-check under the lock: a concurrent JoinProject may have claimed the
	// manager between the early check and the dial. The loser's dial is
	// discarded.
	m.mu.Lock()
	if m.conn != nil {
		current := m.projectID
		m.mu.Unlock()
		conn.Close()
		return fmt.Errorf("already joined project %q; leave it first", current)
	}
	m.conn = conn
	m.projectID = projectID
	m.currentUser = &user
	m.mu.Unlock()

	go m.readLoop(conn)

	m.emit(EventConnectionEstablished, nil)

	return m.writeEnvelope(wire.EventJoinProject, wire.JoinProjectPayload{
		ProjectID: projectID,
		User:      user,
	})
}

// LeaveProject announces the departure, closes the transport, and clears the
// local cache. Safe to call when not joined.
func (m *Manager) LeaveProject() {
	m.mu.Lock()
	conn := m.conn
	projectID := m.projectID
	var userID string
	if m.currentUser != nil {
		userID = m.currentUser.ID
	}
	m.mu.Unlock()

	if conn == nil {
		return
	}

	if err := m.writeEnvelope(wire.EventLeaveProject, wire.LeaveProjectPayload{
		ProjectID: projectID,
		UserID:    userID,
	}); err != nil {
		m.logger.Debug().Err(err).Msg("Failed to send leave_project before disconnect")
	}

	conn.Close()

	m.mu.Lock()
	if m.conn == conn {
		m.conn = nil
	}
	m.projectID = ""
	m.currentUser = nil
	m.users = make(map[string]project.User)
	m.activeUsers = make(map[string]struct{})
	m.conflicts = make(map[string]project.Conflict)
	m.mu.Unlock()
}

// BroadcastSlideUpdate proposes a wholesale slide replacement, stamped with
// this user and the current time. No-op while not joined.
func (m *Manager) BroadcastSlideUpdate(slideID string, slide project.Slide) {
	projectID, userID, ok := m.session()
	if !ok {
		return
	}

	m.writeBestEffort(wire.EventSlideUpdate, wire.SlideUpdatePayload{
		ProjectID: projectID,
		SlideID:   slideID,
		Slide:     slide,
		UserID:    userID,
		Timestamp: time.Now().UnixMilli(),
	})
}

// BroadcastBlockUpdate proposes an in-place block replacement. No-op while
// not joined.
func (m *Manager) BroadcastBlockUpdate(slideID, blockID string, block project.Block) {
	projectID, userID, ok := m.session()
	if !ok {
		return
	}

	m.writeBestEffort(wire.EventBlockUpdate, wire.BlockUpdatePayload{
		ProjectID: projectID,
		SlideID:   slideID,
		BlockID:   blockID,
		Block:     block,
		UserID:    userID,
		Timestamp: time.Now().UnixMilli(),
	})
}

// BroadcastCursorPosition relays the local cursor, at most once per 100ms.
func (m *Manager) BroadcastCursorPosition(x, y float64) {
	projectID, userID, ok := m.session()
	if !ok {
		return
	}

	m.mu.Lock()
	if time.Since(m.lastCursorSent) < cursorMinInterval {
		m.mu.Unlock()
		return
	}
	m.lastCursorSent = time.Now()
	m.mu.Unlock()

	m.writeBestEffort(wire.EventCursorUpdate, wire.CursorUpdatePayload{
		ProjectID: projectID,
		UserID:    userID,
		Cursor:    project.Cursor{X: x, Y: y},
	})
}

// BroadcastUserPresence moves this user's active-slide pointer.
func (m *Manager) BroadcastUserPresence(activeSlide string) {
	projectID, userID, ok := m.session()
	if !ok {
		return
	}

	m.writeBestEffort(wire.EventPresenceUpdate, wire.PresenceUpdatePayload{
		ProjectID:   projectID,
		UserID:      userID,
		ActiveSlide: activeSlide,
	})
}

// AddComment builds, stamps, and sends a comment, returning the stamped copy.
// The comment will come back via comment_added; the sender's UI reconciles
// through that event like every peer. Returns nil while not joined.
func (m *Manager) AddComment(slideID string, x, y float64, text string) *project.Comment {
	m.mu.Lock()
	if m.conn == nil || m.projectID == "" || m.currentUser == nil {
		m.mu.Unlock()
		return nil
	}
	projectID := m.projectID
	comment := project.Comment{
		ID:        randx.CommentID(),
		SlideID:   slideID,
		X:         x,
		Y:         y,
		Text:      text,
		UserID:    m.currentUser.ID,
		UserName:  m.currentUser.Name,
		Timestamp: time.Now().UnixMilli(),
	}
	m.mu.Unlock()

	m.writeBestEffort(wire.EventAddComment, wire.AddCommentPayload{
		ProjectID: projectID,
		Comment:   comment,
	})

	return &comment
}

// ResolveConflict clears the local conflict entry and relays the decision.
func (m *Manager) ResolveConflict(resourceID, resolution string) {
	projectID, userID, ok := m.session()
	if !ok {
		return
	}

	m.mu.Lock()
	delete(m.conflicts, resourceID)
	m.mu.Unlock()

	m.writeBestEffort(wire.EventResolveConflict, wire.ResolveConflictPayload{
		ProjectID:  projectID,
		ResourceID: resourceID,
		Resolution: resolution,
		UserID:     userID,
	})
}

// CurrentUser returns a copy of the joined identity, or nil.
func (m *Manager) CurrentUser() *project.User {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.currentUser == nil {
		return nil
	}
	u := *m.currentUser
	return &u
}

// ProjectID returns the currently joined project, or "".
func (m *Manager) ProjectID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.projectID
}

// ActiveUsers returns the currently known active peers.
func (m *Manager) ActiveUsers() []project.User {
	m.mu.Lock()
	defer m.mu.Unlock()

	users := make([]project.User, 0, len(m.activeUsers))
	for id := range m.activeUsers {
		if u, ok := m.users[id]; ok {
			users = append(users, u)
		}
	}
	return users
}

// Conflicts returns a copy of the advisory conflict cache, keyed by resource
// identifier.
func (m *Manager) Conflicts() map[string]project.Conflict {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]project.Conflict, len(m.conflicts))
	for id, c := range m.conflicts {
		out[id] = c
	}
	return out
}

// session snapshots the join state for the thin emitters.
func (m *Manager) session() (projectID, userID string, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn == nil || m.projectID == "" || m.currentUser == nil {
		return "", "", false
	}
	return m.projectID, m.currentUser.ID, true
}

// pickAvailableColorLocked returns the first palette color not used by any
// locally known user. Callers hold m.mu.
func (m *Manager) pickAvailableColorLocked() string {
	used := make(map[string]bool, len(m.users))
	for _, u := range m.users {
		used[u.Color] = true
	}

	for _, c := range project.UserColors {
		if !used[c] {
			return c
		}
	}
	return project.UserColors[0]
}

// writeEnvelope sends one frame, serializing writers.
func (m *Manager) writeEnvelope(eventType wire.EventType, payload any) error {
	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()

	if conn == nil {
		return fmt.Errorf("not connected")
	}

	env, err := wire.NewEnvelope(eventType, payload)
	if err != nil {
		return err
	}

	messageBytes, err := env.Encode()
	if err != nil {
		return err
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, messageBytes)
}

// writeBestEffort sends and logs instead of surfacing errors; the protocol
// is fire-and-forget and local edits keep applying optimistically even while
// disconnected from peers.
func (m *Manager) writeBestEffort(eventType wire.EventType, payload any) {
	if err := m.writeEnvelope(eventType, payload); err != nil {
		m.logger.Debug().Err(err).Str("event", string(eventType)).Msg("Dropping outbound event")
	}
}
