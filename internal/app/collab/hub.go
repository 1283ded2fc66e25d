/*
Package collab contains the core logic for real-time project rooms, connection
lifecycle, and room-scoped event fanout.

This file defines the Hub, which owns every active Room, routes joins to the
right room (creating it lazily), and drives the periodic sweep that removes
idle empty projects together with their rooms.
*/
package collab

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"slidesync/internal/app/project"
	"slidesync/internal/app/wire"
	"slidesync/internal/pkg/logx"
	"slidesync/internal/pkg/randx"
)

// Hub coordinates all active rooms on top of the session registry.
type Hub struct {
	// mu protects the rooms map. It is held across a sweep and across a
	// join's room lookup plus enqueue, so a join can never race the removal
	// of the room it targets.
	mu sync.RWMutex

	rooms map[string]*Room

	registry *project.Registry

	sweepInterval time.Duration

	stopChan chan struct{}
	wg       sync.WaitGroup

	logger zerolog.Logger
}

// NewHub constructs the hub and starts the sweep loop.
func NewHub(registry *project.Registry, sweepInterval time.Duration) *Hub {
	h := &Hub{
		rooms:         make(map[string]*Room),
		registry:      registry,
		sweepInterval: sweepInterval,
		stopChan:      make(chan struct{}),
		logger:        logx.Logger().With().Str("component", "Hub").Logger(),
	}

	h.wg.Add(1)
	go h.runSweepLoop()

	return h
}

// Join binds a connection to the room for the requested project, creating
// project state and room on first join. It returns the room and the bound
// user ID, or a nil room when the join was not accepted. Missing identifiers
// are stamped rather than rejected.
func (h *Hub) Join(client *Client, payload wire.JoinProjectPayload) (*Room, string) {
	if !randx.IsValidProjectID(payload.ProjectID) {
		h.logger.Warn().Str("project_id", payload.ProjectID).Msg("Rejecting join with invalid project id.")
		return nil, ""
	}

	user := payload.User
	if user.ID == "" {
		user.ID = randx.UserID()
	}
	if user.Name == "" {
		user.Name = "Anonymous"
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[payload.ProjectID]
	if !ok {
		proj := h.registry.GetOrCreate(payload.ProjectID)
		room = NewRoom(proj)
		h.rooms[payload.ProjectID] = room
		go room.Run()
		h.logger.Info().Str("project_id", payload.ProjectID).Msg("Room created and started.")
	}

	if !room.enqueueJoin(client, user) {
		return nil, ""
	}

	return room, user.ID
}

// Room returns the active room for the project, or nil.
func (h *Hub) Room(projectID string) *Room {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rooms[projectID]
}

// runSweepLoop drives the fixed-interval idle-project sweep.
func (h *Hub) runSweepLoop() {
	defer h.wg.Done()

	ticker := time.NewTicker(h.sweepInterval)
	defer ticker.Stop()

	h.logger.Info().Dur("interval", h.sweepInterval).Msg("Sweep loop started.")

	for {
		select {
		case <-ticker.C:
			h.sweep(time.Now())
		case <-h.stopChan:
			h.logger.Info().Msg("Sweep loop stopped.")
			return
		}
	}
}

// sweep removes every project that is empty and idle beyond the registry
// threshold, and stops the matching rooms. A join enqueued but not yet
// processed counts as activity, so it can never be swept out from under the
// joiner.
func (h *Hub) sweep(now time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, room := range h.rooms {
		if room.HasPendingJoins() {
			h.registry.Touch(id)
		}
	}

	for _, id := range h.registry.Sweep(now) {
		if room, ok := h.rooms[id]; ok {
			room.Stop()
			delete(h.rooms, id)
		}
	}
}

// Shutdown stops the sweep loop and every room.
func (h *Hub) Shutdown() {
	h.logger.Info().Msg("Shutting down hub...")

	select {
	case <-h.stopChan:
	default:
		close(h.stopChan)
	}
	h.wg.Wait()

	h.mu.Lock()
	for id, room := range h.rooms {
		room.Stop()
		delete(h.rooms, id)
	}
	h.mu.Unlock()

	h.logger.Info().Msg("Hub shutdown complete.")
}
