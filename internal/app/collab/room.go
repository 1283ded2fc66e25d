/*
Package collab contains the core logic for real-time project rooms, connection
lifecycle, and room-scoped event fanout.

This file defines the Room struct, the broadcast group corresponding 1:1 to a
project. Its run loop serializes every mutation of the project state, so a
check-and-replace never interleaves with another connection's mutation.
*/
package collab

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"slidesync/internal/app/project"
	"slidesync/internal/app/wire"
	"slidesync/internal/pkg/errs"
	"slidesync/internal/pkg/logx"
	"slidesync/internal/pkg/metrics"
	"slidesync/internal/pkg/randx"
)

const (
	registerChannelBuffer = 16
	eventChannelBuffer    = 256
)

// joinRequest asks the room loop to register a connection under a user identity.
type joinRequest struct {
	client *Client
	user   project.User
}

// frame is one inbound room-scoped event from a bound connection.
type frame struct {
	client    *Client
	eventType wire.EventType
	payload   json.RawMessage
}

// Room fans events out to the connections of one project.
type Room struct {
	proj *project.Project

	// clients maps user ID to the connection currently bound under it.
	// Mutated only by the run loop; the mutex exists for Empty(), which the
	// hub sweep reads from outside.
	mu      sync.RWMutex
	clients map[string]*Client

	register   chan joinRequest
	unregister chan *Client
	events     chan frame

	// stopChan terminates the run loop; only the hub closes it.
	stopChan chan struct{}

	logger zerolog.Logger
}

// NewRoom creates a room bound to the given project state.
func NewRoom(proj *project.Project) *Room {
	roomLogger := logx.Logger().With().
		Str("component", "Room").
		Str("project_id", proj.ID).
		Logger()

	return &Room{
		proj:       proj,
		clients:    make(map[string]*Client),
		register:   make(chan joinRequest, registerChannelBuffer),
		unregister: make(chan *Client, registerChannelBuffer),
		events:     make(chan frame, eventChannelBuffer),
		stopChan:   make(chan struct{}),
		logger:     roomLogger,
	}
}

// Stop signals the run loop to terminate.
func (r *Room) Stop() {
	select {
	case <-r.stopChan:
	default:
		close(r.stopChan)
	}
}

// Empty reports whether the room has no bound connections and no join waiting
// in the register queue. The pending-join check keeps the sweep from removing
// a room between a join being enqueued and processed.
func (r *Room) Empty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients) == 0 && len(r.register) == 0
}

// HasPendingJoins reports whether a join is queued but not yet processed.
func (r *Room) HasPendingJoins() bool {
	return len(r.register) > 0
}

// enqueueJoin hands a join to the run loop. It reports false when the room is
// too busy to take it, in which case the caller treats the join as failed.
func (r *Room) enqueueJoin(client *Client, user project.User) bool {
	select {
	case r.register <- joinRequest{client: client, user: user}:
		return true
	default:
		r.logger.Warn().Str("user_id", user.ID).Msg("Room register channel blocked, rejecting join.")
		return false
	}
}

// enqueueUnregister hands a departure (explicit leave or disconnect) to the
// run loop.
func (r *Room) enqueueUnregister(client *Client) {
	select {
	case r.unregister <- client:
	default:
		r.logger.Warn().Str("user_id", client.userID).Msg("Room unregister channel blocked.")
	}
}

// enqueueEvent hands a room-scoped event to the run loop. A full queue drops
// the event; the protocol is best-effort end to end.
func (r *Room) enqueueEvent(f frame) {
	select {
	case r.events <- f:
	default:
		metrics.DroppedSendsTotal.Inc()
		r.logger.Warn().Str("event", string(f.eventType)).Msg("Room event channel full, dropping event.")
	}
}

// Run is the room's event loop. All project mutations happen here, one event
// at a time.
func (r *Room) Run() {
	defer func() {
		r.mu.Lock()
		for _, client := range r.clients {
			client.conn.Close()
		}
		r.clients = make(map[string]*Client)
		r.mu.Unlock()

		r.logger.Info().Msg("Room run loop finished.")
	}()

	for {
		select {
		case req := <-r.register:
			r.handleRegister(req)

		case client := <-r.unregister:
			r.handleUnregister(client)

		case f := <-r.events:
			metrics.EventsTotal.WithLabelValues(string(f.eventType)).Inc()
			r.dispatch(f)

		case <-r.stopChan:
			r.logger.Info().Msg("Room stop initiated.")
			return
		}
	}
}

// handleRegister binds the connection under its user identity, replacing and
// kicking any previous connection for the same user ID. The joiner alone
// receives the full project snapshot; peers get user_joined.
func (r *Room) handleRegister(req joinRequest) {
	r.mu.Lock()

	existing, alreadyBound := r.clients[req.user.ID]
	if alreadyBound && existing != req.client {
		r.logger.Warn().
			Str("user_id", req.user.ID).
			Msg("User already connected. Closing old connection for replacement.")
		existing.Kick(errs.NewError(errs.ErrSessionReplaced).Message)
	}

	stored, _ := r.proj.AddUser(req.user)
	r.clients[req.user.ID] = req.client

	total := len(r.clients)
	r.mu.Unlock()

	if !alreadyBound {
		metrics.ConnectedClients.Inc()
	}

	r.logger.Info().
		Str("user_id", stored.ID).
		Str("user_name", stored.Name).
		Int("total_users", total).
		Msg("User joined project.")

	users, slides, comments := r.proj.Snapshot()
	req.client.sendEvent(wire.EventProjectState, wire.ProjectStatePayload{
		Users:    users,
		Slides:   slides,
		Comments: comments,
	})

	r.broadcast(wire.EventUserJoined, wire.UserJoinedPayload{User: stored}, req.client, false)
}

// handleUnregister removes the connection's user, ignoring stale departures
// from connections that were already replaced.
func (r *Room) handleUnregister(client *Client) {
	userID := client.userID

	r.mu.Lock()
	current, ok := r.clients[userID]
	if !ok || current != client {
		r.mu.Unlock()
		if ok {
			r.logger.Info().Str("stale_user_id", userID).Msg("Ignoring unregister for stale connection.")
		} else {
			r.logger.Debug().Str("user_id", userID).Msg("Unregister for unknown or already removed user.")
		}
		return
	}

	delete(r.clients, userID)
	total := len(r.clients)
	r.mu.Unlock()

	r.proj.RemoveUser(userID)
	metrics.ConnectedClients.Dec()

	r.logger.Info().
		Str("user_id", userID).
		Int("total_users", total).
		Msg("User left project.")

	r.broadcast(wire.EventUserLeft, wire.UserLeftPayload{UserID: userID}, client, false)
}

// dispatch routes one inbound event. Payloads that fail to decode, or that
// name a different project than the room's, are dropped without feedback.
func (r *Room) dispatch(f frame) {
	switch f.eventType {
	case wire.EventSlideUpdate:
		r.handleSlideUpdate(f)
	case wire.EventBlockUpdate:
		r.handleBlockUpdate(f)
	case wire.EventCursorUpdate:
		r.handleCursorUpdate(f)
	case wire.EventPresenceUpdate:
		r.handlePresenceUpdate(f)
	case wire.EventAddComment:
		r.handleAddComment(f)
	case wire.EventResolveConflict:
		r.handleResolveConflict(f)
	}
}

func (r *Room) handleSlideUpdate(f frame) {
	var payload wire.SlideUpdatePayload
	if err := json.Unmarshal(f.payload, &payload); err != nil {
		r.logger.Warn().Err(err).Msg("Invalid slide_update payload")
		return
	}
	if payload.SlideID == "" || payload.UserID == "" || !r.projectMatches(payload.ProjectID) {
		return
	}

	conflict := r.proj.ApplySlideUpdate(payload.SlideID, payload.Slide, payload.UserID, payload.Timestamp)
	if conflict != nil {
		metrics.ConflictsTotal.WithLabelValues(project.ResourceSlide).Inc()
		r.logger.Info().
			Str("slide_id", payload.SlideID).
			Str("user_id", payload.UserID).
			Str("conflicting_user", conflict.ConflictingUser).
			Msg("Conflict detected for slide update.")
		f.client.sendEvent(wire.EventConflictDetected, conflict)
		return
	}

	r.broadcast(wire.EventSlideUpdated, wire.SlideUpdatedPayload{
		SlideID:   payload.SlideID,
		Slide:     payload.Slide,
		UserID:    payload.UserID,
		Timestamp: payload.Timestamp,
	}, f.client, false)
}

func (r *Room) handleBlockUpdate(f frame) {
	var payload wire.BlockUpdatePayload
	if err := json.Unmarshal(f.payload, &payload); err != nil {
		r.logger.Warn().Err(err).Msg("Invalid block_update payload")
		return
	}
	if payload.SlideID == "" || payload.BlockID == "" || payload.UserID == "" || !r.projectMatches(payload.ProjectID) {
		return
	}

	conflict := r.proj.ApplyBlockUpdate(payload.SlideID, payload.BlockID, payload.Block, payload.UserID, payload.Timestamp)
	if conflict != nil {
		metrics.ConflictsTotal.WithLabelValues(project.ResourceBlock).Inc()
		r.logger.Info().
			Str("block_id", payload.BlockID).
			Str("user_id", payload.UserID).
			Str("conflicting_user", conflict.ConflictingUser).
			Msg("Conflict detected for block update.")
		f.client.sendEvent(wire.EventConflictDetected, conflict)
		return
	}

	r.broadcast(wire.EventBlockUpdated, wire.BlockUpdatedPayload{
		SlideID:   payload.SlideID,
		BlockID:   payload.BlockID,
		Block:     payload.Block,
		UserID:    payload.UserID,
		Timestamp: payload.Timestamp,
	}, f.client, false)
}

func (r *Room) handleCursorUpdate(f frame) {
	var payload wire.CursorUpdatePayload
	if err := json.Unmarshal(f.payload, &payload); err != nil {
		return
	}
	if payload.UserID == "" || !r.projectMatches(payload.ProjectID) {
		return
	}

	// Relay only. Cursor positions are ephemeral and never stored.
	r.broadcast(wire.EventUserCursorUpdate, wire.UserCursorUpdatePayload{
		UserID: payload.UserID,
		Cursor: payload.Cursor,
	}, f.client, false)
}

func (r *Room) handlePresenceUpdate(f frame) {
	var payload wire.PresenceUpdatePayload
	if err := json.Unmarshal(f.payload, &payload); err != nil {
		return
	}
	if payload.UserID == "" || !r.projectMatches(payload.ProjectID) {
		return
	}

	// The active-slide pointer is stored so that late-joiner snapshots
	// reflect current presence. Unknown users are a silent no-op.
	if !r.proj.SetPresence(payload.UserID, payload.ActiveSlide) {
		return
	}

	r.broadcast(wire.EventUserPresenceUpdate, wire.UserPresenceUpdatePayload{
		UserID:      payload.UserID,
		ActiveSlide: payload.ActiveSlide,
	}, f.client, false)
}

func (r *Room) handleAddComment(f frame) {
	var payload wire.AddCommentPayload
	if err := json.Unmarshal(f.payload, &payload); err != nil {
		r.logger.Warn().Err(err).Msg("Invalid add_comment payload")
		return
	}
	if !r.projectMatches(payload.ProjectID) {
		return
	}

	comment := payload.Comment
	if comment.ID == "" {
		comment.ID = randx.CommentID()
	}

	r.proj.AddComment(comment)

	// The sender is included so its UI reconciles through the same code path
	// as every peer.
	r.broadcast(wire.EventCommentAdded, wire.CommentAddedPayload{Comment: comment}, f.client, true)
}

func (r *Room) handleResolveConflict(f frame) {
	var payload wire.ResolveConflictPayload
	if err := json.Unmarshal(f.payload, &payload); err != nil {
		return
	}
	if payload.ResourceID == "" || !r.projectMatches(payload.ProjectID) {
		return
	}

	// Stateless pass-through: the server tracks no conflict state, it only
	// relays the resolution decision.
	r.broadcast(wire.EventConflictResolved, wire.ConflictResolvedPayload{
		ResourceID: payload.ResourceID,
		Resolution: payload.Resolution,
		ResolvedBy: payload.UserID,
	}, f.client, false)
}

// projectMatches guards against frames with a missing project identifier or
// one addressed to a project other than the one this connection is bound to.
func (r *Room) projectMatches(projectID string) bool {
	return projectID == r.proj.ID
}

// broadcast encodes the envelope once and fans it out. When includeSender is
// false the originating connection is skipped. Sends never block; a slow peer
// misses the frame.
func (r *Room) broadcast(eventType wire.EventType, payload any, sender *Client, includeSender bool) {
	env, err := wire.NewEnvelope(eventType, payload)
	if err != nil {
		r.logger.Error().Err(err).Str("event", string(eventType)).Msg("Failed to build broadcast envelope")
		return
	}

	messageBytes, err := env.Encode()
	if err != nil {
		r.logger.Error().Err(err).Str("event", string(eventType)).Msg("Failed to encode broadcast envelope")
		return
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, client := range r.clients {
		if !includeSender && client == sender {
			continue
		}
		client.trySend(messageBytes)
	}
}
